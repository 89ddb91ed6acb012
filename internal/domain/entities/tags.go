package entities

import "github.com/gosimple/slug"

// Tag is a label that can be attached to a case
type Tag struct {
	Value string
	Label string
	Color string
}

// ProcessTags is the built-in tag catalog
var ProcessTags = []Tag{
	{Value: "audiencia", Label: "Audiência", Color: "#4f46e5"},
	{Value: "consumidor", Label: "Consumidor", Color: "#0891b2"},
	{Value: "criminal", Label: "Criminal", Color: "#b91c1c"},
	{Value: "civel", Label: "Cível", Color: "#0d9488"},
	{Value: "fase-audiencia", Label: "Fase audiência", Color: "#4338ca"},
	{Value: "fase-citacao", Label: "Fase citação", Color: "#0284c7"},
	{Value: "fase-conciliacao", Label: "Fase conciliação", Color: "#2563eb"},
	{Value: "fase-contestacao", Label: "Fase contestação", Color: "#7c3aed"},
	{Value: "fase-inicial", Label: "Fase inicial", Color: "#8b5cf6"},
	{Value: "fase-sentenca", Label: "Fase sentença", Color: "#6d28d9"},
	{Value: "prazo", Label: "Prazo", Color: "#ea580c"},
	{Value: "trabalhista", Label: "Trabalhista", Color: "#65a30d"},
	{Value: "tributario", Label: "Tributário", Color: "#ca8a04"},
}

const defaultTagColor = "#6b7280"

// LookupTag returns the catalog entry for value. Unknown values get a
// synthesized entry with the value as label and a neutral colour.
func LookupTag(value string) Tag {
	for _, t := range ProcessTags {
		if t.Value == value {
			return t
		}
	}
	return Tag{Value: value, Label: value, Color: defaultTagColor}
}

// TagSlug normalizes a free-form label ("Fase citação") into a tag value ("fase-citacao")
func TagSlug(label string) string {
	return slug.Make(label)
}
