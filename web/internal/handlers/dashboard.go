package handlers

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/devilmonastery/processo/internal/domain/entities"
	"github.com/devilmonastery/processo/internal/pkg/logger"
	"github.com/devilmonastery/processo/web/internal/session"
)

const recentLimit = 5

// TagCount is one bar of the dashboard tag breakdown
type TagCount struct {
	Tag   entities.Tag
	Count int
}

// Dashboard shows the overview: greeting, counts per tag and recent cases
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	processes, err := h.getClient(w, r).ListProcesses(r.Context())
	if err != nil {
		h.handleUpstreamError(w, r, err, "")
		return
	}
	sortByCreated(processes)

	recent := processes
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}

	data := h.newTemplateData(w, r, "dashboard")
	data["Total"] = len(processes)
	data["TagCounts"] = countTags(processes)
	data["Recent"] = recent
	data["NeedsVerification"] = !user.EmailVerified
	h.renderTemplate(w, "dashboard.html", data)
}

// ResendVerification asks upstream to send the verification mail again
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if err := h.getClient(w, r).ResendVerification(r.Context(), user.Email); err != nil {
		logger.FromContext(r.Context(), h.log).Warn("resend verification failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()))
		h.flash(w, r, session.FlashError, upstreamMessage(err, "Não foi possível reenviar o email de verificação"))
	} else {
		h.flash(w, r, session.FlashSuccess, "Email de verificação enviado para "+user.Email)
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// countTags counts cases per tag: catalog tags first in catalog order,
// then unknown tags alphabetically. Tags with no cases are left out.
func countTags(processes []entities.Process) []TagCount {
	counts := make(map[string]int)
	for _, p := range processes {
		seen := make(map[string]bool, len(p.Tags))
		for _, t := range p.Tags {
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			counts[t]++
		}
	}

	var out []TagCount
	for _, tag := range entities.ProcessTags {
		if n := counts[tag.Value]; n > 0 {
			out = append(out, TagCount{Tag: tag, Count: n})
			delete(counts, tag.Value)
		}
	}
	custom := make([]string, 0, len(counts))
	for value := range counts {
		custom = append(custom, value)
	}
	sort.Strings(custom)
	for _, value := range custom {
		out = append(out, TagCount{Tag: entities.LookupTag(value), Count: counts[value]})
	}
	return out
}

// sortByCreated orders cases newest first; undated cases go last
func sortByCreated(processes []entities.Process) {
	sort.SliceStable(processes, func(i, j int) bool {
		return processes[i].CreatedTime().After(processes[j].CreatedTime())
	})
}
