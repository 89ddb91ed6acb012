package render

import (
	"testing"

	"github.com/devilmonastery/processo/internal/domain/entities"
)

func ptr(v float64) *float64 { return &v }

func TestCurrency(t *testing.T) {
	tests := []struct {
		in   *float64
		want string
	}{
		{nil, "-"},
		{ptr(0), "R$ 0,00"},
		{ptr(99.9), "R$ 99,90"},
		{ptr(1234.56), "R$ 1.234,56"},
		{ptr(1000000), "R$ 1.000.000,00"},
		{ptr(-250.5), "-R$ 250,50"},
	}
	for _, tt := range tests {
		if got := Currency(tt.in); got != tt.want {
			t.Errorf("Currency(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDate(t *testing.T) {
	tests := map[string]string{
		"":                         "-",
		"not a date":               "-",
		"2024-03-05":               "05/03/2024",
		"2024-03-05T23:10:00Z":     "05/03/2024",
		"2024-12-31T08:00:00.123Z": "31/12/2024",
	}
	for in, want := range tests {
		if got := Date(in); got != want {
			t.Errorf("Date(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDateTime(t *testing.T) {
	if got := DateTime("2024-03-05T13:45:00-03:00"); got != "05/03/2024 16:45" {
		t.Errorf("DateTime = %q", got)
	}
	if got := DateTime(""); got != "-" {
		t.Errorf("DateTime(empty) = %q", got)
	}
}

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"":                 "?",
		"ana":              "A",
		"Ana Souza":        "AS",
		"ana maria souza":  "AM",
		"  élio   ramos  ": "ÉR",
	}
	for in, want := range tests {
		if got := Initials(in); got != want {
			t.Errorf("Initials(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAvatarColorStable(t *testing.T) {
	if AvatarColor("Ana Souza") != AvatarColor("ana souza") {
		t.Error("avatar colour should ignore case")
	}
	if AvatarColor("") != "#6b7280" {
		t.Error("empty name should get the neutral colour")
	}
}

func TestAccessLabel(t *testing.T) {
	tests := map[entities.AccessLevel]string{
		entities.AccessPublic:     "Público",
		entities.AccessPrivate:    "Privado",
		entities.AccessRestricted: "Restrito",
		"":                        "Público",
	}
	for in, want := range tests {
		if got := AccessLabel(in); got != want {
			t.Errorf("AccessLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
