package render

import (
	"crypto/md5"
	"html/template"
	"strings"

	"github.com/devilmonastery/processo/internal/domain/entities"
)

// Funcs returns the template helpers available to every page
func Funcs() template.FuncMap {
	return template.FuncMap{
		"markdown":    Markdown,
		"currency":    Currency,
		"date":        Date,
		"dateTime":    DateTime,
		"initials":    Initials,
		"avatarColor": AvatarColor,
		"tagLabel":    func(v string) string { return entities.LookupTag(v).Label },
		"tagColor":    func(v string) string { return entities.LookupTag(v).Color },
		"accessLabel": AccessLabel,
		"list": func(items ...string) []string {
			return items
		},
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil
				}
				dict[key] = values[i+1]
			}
			return dict
		},
		"add": func(a, b int) int {
			return a + b
		},
		"assetURL": func(filename string) string {
			return "/static/" + filename
		},
	}
}

// Initials returns up to two uppercase initials, or "?"
func Initials(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return "?"
	}

	var result strings.Builder
	for i, word := range words {
		if i >= 2 {
			break
		}
		r := []rune(word)
		result.WriteString(strings.ToUpper(string(r[0])))
	}
	return result.String()
}

var avatarPalette = []string{
	"#2563eb", "#16a34a", "#9333ea", "#db2777",
	"#4f46e5", "#dc2626", "#ca8a04", "#0d9488",
	"#ea580c", "#0891b2", "#059669", "#7c3aed",
}

// AvatarColor picks a stable colour for a user name
func AvatarColor(name string) string {
	if name == "" {
		return "#6b7280"
	}
	hash := md5.Sum([]byte(strings.ToLower(name)))
	return avatarPalette[int(hash[0])%len(avatarPalette)]
}

// AccessLabel is the display label of an access level
func AccessLabel(level entities.AccessLevel) string {
	switch level {
	case entities.AccessPrivate:
		return "Privado"
	case entities.AccessRestricted:
		return "Restrito"
	default:
		return "Público"
	}
}
