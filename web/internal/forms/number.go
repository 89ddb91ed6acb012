package forms

import (
	"errors"
	"strconv"
	"strings"
)

var errInvalidNumber = errors.New("invalid number")

// ParseDecimal accepts pt-BR ("1.234,56", "R$ 10,00") and plain ("1234.56")
// decimals. Empty input yields nil.
func ParseDecimal(s string) (*float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errInvalidNumber
	}
	return &v, nil
}

// FormatDecimal renders v the way ParseDecimal reads it back ("1234,56")
func FormatDecimal(v *float64) string {
	if v == nil {
		return ""
	}
	return strings.Replace(strconv.FormatFloat(*v, 'f', 2, 64), ".", ",", 1)
}
