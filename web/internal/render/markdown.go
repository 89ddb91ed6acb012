package render

import (
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

var policy = bluemonday.UGCPolicy()

// Markdown converts case notes to sanitized HTML
func Markdown(markdown string) template.HTML {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}
	unsafe := blackfriday.Run([]byte(markdown), blackfriday.WithExtensions(blackfriday.CommonExtensions|blackfriday.HardLineBreak))
	return template.HTML(policy.SanitizeBytes(unsafe))
}
