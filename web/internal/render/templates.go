package render

import (
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
)

// TemplateSet holds all parsed page templates.
// Each page is parsed into its own template.Template together with the base
// layout and the components, so {{define "content"}} blocks never collide.
type TemplateSet struct {
	pages map[string]*template.Template
	mu    sync.RWMutex
}

// Execute renders pageName (e.g. "processes.html") through the "base" layout
func (ts *TemplateSet) Execute(w io.Writer, pageName string, data any) error {
	tmpl, err := ts.page(pageName)
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// ExecuteTemplate renders one named template defined inside a page's set
func (ts *TemplateSet) ExecuteTemplate(w io.Writer, pageName, templateName string, data any) error {
	tmpl, err := ts.page(pageName)
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, templateName, data)
}

func (ts *TemplateSet) page(name string) (*template.Template, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	tmpl, ok := ts.pages[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	return tmpl, nil
}

// Has checks if a template exists
func (ts *TemplateSet) Has(pageName string) bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	_, ok := ts.pages[pageName]
	return ok
}

// Names returns all page names, sorted
func (ts *TemplateSet) Names() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	names := make([]string, 0, len(ts.pages))
	for name := range ts.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadTemplates parses layouts/base.html, components/*.html and every
// pages/*.html under path. An empty path means "web/templates".
func LoadTemplates(path string) (*TemplateSet, error) {
	if path == "" {
		path = "web/templates"
	}

	baseFile := filepath.Join(path, "layouts", "base.html")
	componentFiles, err := filepath.Glob(filepath.Join(path, "components", "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to list component templates: %w", err)
	}
	pageFiles, err := filepath.Glob(filepath.Join(path, "pages", "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to list page templates: %w", err)
	}
	if len(pageFiles) == 0 {
		return nil, fmt.Errorf("no page templates found in %s/pages", path)
	}

	funcs := Funcs()
	ts := &TemplateSet{
		pages: make(map[string]*template.Template, len(pageFiles)),
	}
	for _, pageFile := range pageFiles {
		pageName := filepath.Base(pageFile)

		files := append([]string{baseFile}, componentFiles...)
		files = append(files, pageFile)

		tmpl, err := template.New("base").Funcs(funcs).ParseFiles(files...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", pageName, err)
		}
		ts.pages[pageName] = tmpl
	}

	return ts, nil
}

// LogTemplateNames logs all available template names
func LogTemplateNames(log *slog.Logger, ts *TemplateSet) {
	log.Info("loaded templates", "count", len(ts.pages), "pages", ts.Names())
}
