package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/processo/internal/client"
	"github.com/devilmonastery/processo/internal/domain/entities"
)

func newProcessCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "process",
		Aliases: []string{"processo", "p"},
		Short:   "Manage legal cases",
	}

	cmd.AddCommand(newProcessListCommand())
	cmd.AddCommand(newProcessGetCommand())
	cmd.AddCommand(newProcessDeleteCommand())

	return cmd
}

func newProcessListCommand() *cobra.Command {
	var (
		tag   string
		query string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List cases, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)

			processes, err := cc.APIClient.ListProcesses(cmd.Context())
			if err != nil {
				return explain(err)
			}

			sort.SliceStable(processes, func(i, j int) bool {
				return processes[i].CreatedTime().After(processes[j].CreatedTime())
			})

			var rows []entities.Process
			for _, p := range processes {
				if tag != "" && !p.HasTag(entities.TagSlug(tag)) {
					continue
				}
				if !p.Matches(query) {
					continue
				}
				rows = append(rows, p)
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No cases found")
				return nil
			}
			printProcessTable(out, rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Only cases with this tag (value or label)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Text search on folder, title, number, responsible and clients")

	return cmd
}

func printProcessTable(w io.Writer, processes []entities.Process) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFOLDER\tTITLE\tNUMBER\tTAGS\tCREATED")
	for _, p := range processes {
		created := "-"
		if t := p.CreatedTime(); !t.IsZero() {
			created = t.Local().Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Folder, p.Title, p.ProcessNumber, strings.Join(p.Tags, ","), created)
	}
	tw.Flush()
}

func newProcessGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)

			p, err := cc.APIClient.GetProcess(cmd.Context(), args[0])
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			printMarkdown(out, processMarkdown(p))
			return nil
		},
	}
}

// processMarkdown lays a case out as a markdown document
func processMarkdown(p *entities.Process) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	fmt.Fprintf(&b, "- **Pasta:** %s\n", p.Folder)
	fmt.Fprintf(&b, "- **Número:** %s\n", p.ProcessNumber)
	fmt.Fprintf(&b, "- **Instância:** %s\n", p.Instance)
	fmt.Fprintf(&b, "- **Responsável:** %s\n", p.Responsible)
	if p.Action != "" {
		fmt.Fprintf(&b, "- **Ação:** %s\n", p.Action)
	}
	if p.Court != nil && !p.Court.IsZero() {
		fmt.Fprintf(&b, "- **Juízo:** %s\n", strings.Join(nonEmpty(string(p.Court.Number), p.Court.CourtSection, p.Court.Forum), " / "))
	}
	if len(p.Tags) > 0 {
		labels := make([]string, len(p.Tags))
		for i, t := range p.Tags {
			labels[i] = entities.LookupTag(t).Label
		}
		fmt.Fprintf(&b, "- **Etiquetas:** %s\n", strings.Join(labels, ", "))
	}
	if p.CourtLink != "" {
		fmt.Fprintf(&b, "- **Link:** %s\n", p.CourtLink)
	}

	writeParties(&b, "Clientes", p.Clients)
	writeParties(&b, "Autores", p.Authors())
	writeParties(&b, "Réus", p.Defendants())

	if p.Description != "" {
		fmt.Fprintf(&b, "\n## Descrição\n\n%s\n", p.Description)
	}
	if p.Observations != "" {
		fmt.Fprintf(&b, "\n## Observações\n\n%s\n", p.Observations)
	}
	return b.String()
}

func writeParties(b *strings.Builder, heading string, parties []entities.Party) {
	if len(parties) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", heading)
	for _, party := range parties {
		fmt.Fprintf(b, "- %s\n", party.Name)
	}
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func newProcessDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete %s without --yes", args[0])
			}
			cc := getCliContext(cmd)

			if err := cc.APIClient.DeleteProcess(cmd.Context(), args[0]); err != nil {
				return explain(err)
			}
			cc.Logger.Info("case deleted", "process_id", args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted case %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")

	return cmd
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := getCliContext(cmd)

			user, err := cc.APIClient.WhoAmI(cmd.Context())
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", user.DisplayName(), user.Email)
			fmt.Fprintf(out, "ID: %s\n", user.ID)
			if user.TenantID != "" {
				fmt.Fprintf(out, "Tenant: %s\n", user.TenantID)
			}
			if !user.EmailVerified {
				fmt.Fprintln(out, "⚠  Email not verified")
			}
			return nil
		},
	}
}

// explain turns upstream errors into messages that point at a fix
func explain(err error) error {
	switch {
	case errors.Is(err, client.ErrNotAuthenticated):
		return fmt.Errorf("no usable session token\nPlease run 'processo auth login'")
	case client.IsUnauthorized(err):
		return fmt.Errorf("session rejected by the API: %w\nPlease run 'processo auth login'", err)
	case client.IsNotFound(err):
		return fmt.Errorf("not found: %w", err)
	case client.IsTimeout(err):
		return fmt.Errorf("the API did not answer in time: %w", err)
	}
	return err
}
