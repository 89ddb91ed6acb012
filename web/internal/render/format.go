package render

import (
	"strconv"
	"strings"

	"github.com/devilmonastery/processo/internal/domain/entities"
)

// Currency formats a value as Brazilian reais ("R$ 1.234,56"); nil renders "-"
func Currency(v *float64) string {
	if v == nil {
		return "-"
	}

	neg := *v < 0
	s := strconv.FormatFloat(abs(*v), 'f', 2, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := "R$ " + b.String() + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Date renders an upstream timestamp as dd/mm/yyyy; unparseable input renders "-"
func Date(s string) string {
	t := entities.ParseTime(s)
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}

// DateTime renders an upstream timestamp as dd/mm/yyyy hh:mm (UTC)
func DateTime(s string) string {
	t := entities.ParseTime(s)
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("02/01/2006 15:04")
}
