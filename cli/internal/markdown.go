package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// renderMarkdown renders markdown content, using glamour for terminal output or plain text otherwise
func renderMarkdown(markdown string, theme string, tty bool) string {
	if !tty {
		return markdown
	}
	rendered, err := glamour.Render(markdown, theme)
	if err != nil {
		// Fall back to plain markdown if rendering fails
		return markdown
	}
	return rendered
}

// printMarkdown renders and prints markdown using the configured theme.
// Styling only applies when w is the terminal.
func printMarkdown(w io.Writer, markdown string) {
	config, err := LoadConfig()
	if err != nil {
		config = DefaultConfig()
	}

	tty := w == io.Writer(os.Stdout) && term.IsTerminal(int(os.Stdout.Fd()))
	fmt.Fprint(w, renderMarkdown(markdown, getTheme(config), tty))
}

// getTheme returns the theme from the current context, or "auto" if config is unavailable
func getTheme(config *Config) string {
	if config == nil {
		return "auto"
	}

	ctx, err := config.GetCurrentContext()
	if err != nil || ctx.Rendering.Theme == "" {
		return "auto"
	}

	return ctx.Rendering.Theme
}
