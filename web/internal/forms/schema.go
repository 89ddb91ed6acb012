package forms

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Compiled schemas, one per form
var (
	processSchema  = mustCompile("process")
	profileSchema  = mustCompile("profile")
	passwordSchema = mustCompile("password")
	signInSchema   = mustCompile("signin")
	signUpSchema   = mustCompile("signup")
)

func mustCompile(name string) *jsonschema.Schema {
	s, err := compile(name)
	if err != nil {
		panic(err)
	}
	return s
}

func compile(name string) (*jsonschema.Schema, error) {
	data, err := schemaFS.ReadFile("schemas/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}
	id := "inmemory://" + name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(id, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(id)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return compiled, nil
}

// validate checks doc against schema and converts failures into field errors.
// messages is keyed by "field:keyword" first, then "field".
func validate(schema *jsonschema.Schema, doc any, messages map[string]string) (FieldErrors, error) {
	payload, err := normalize(doc)
	if err != nil {
		return nil, err
	}

	err = schema.Validate(payload)
	if err == nil {
		return FieldErrors{}, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, fmt.Errorf("validate: %w", err)
	}

	leaves := collectLeaves(verr, nil)
	sort.SliceStable(leaves, func(i, j int) bool {
		pi, pj := keywordPriority(leaves[i].KeywordLocation), keywordPriority(leaves[j].KeywordLocation)
		if pi != pj {
			return pi < pj
		}
		return leaves[i].KeywordLocation < leaves[j].KeywordLocation
	})

	fe := FieldErrors{}
	for _, leaf := range leaves {
		field := fieldKey(leaf.InstanceLocation)
		fe.Add(field, messageFor(messages, field, keywordOf(leaf.KeywordLocation), leaf.Message))
	}
	return fe, nil
}

// normalize round-trips doc through JSON so the validator sees plain maps
func normalize(doc any) (any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

func collectLeaves(e *jsonschema.ValidationError, out []*jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(e.Causes) == 0 {
		return append(out, e)
	}
	for _, c := range e.Causes {
		out = collectLeaves(c, out)
	}
	return out
}

// keywordPriority makes type and length problems win over pattern details
func keywordPriority(loc string) int {
	switch {
	case strings.HasSuffix(loc, "/type"):
		return 0
	case strings.HasSuffix(loc, "/minLength"):
		return 1
	default:
		return 2
	}
}

// fieldKey turns "/clients/0/name" into "clients.0.name"
func fieldKey(instanceLocation string) string {
	key := strings.ReplaceAll(strings.TrimPrefix(instanceLocation, "/"), "/", ".")
	if key == "" {
		return FormKey
	}
	return key
}

// keywordOf strips the property path from a keyword location:
// "/properties/newPassword/allOf/1/pattern" becomes "allOf/1/pattern"
func keywordOf(keywordLocation string) string {
	parts := strings.Split(strings.TrimPrefix(keywordLocation, "/"), "/")
	start := 0
	for i := 0; i < len(parts); i++ {
		switch parts[i] {
		case "properties":
			start = i + 2
			i++
		case "items":
			start = i + 1
		}
	}
	if start > len(parts) {
		return ""
	}
	return strings.Join(parts[start:], "/")
}

// messageFor looks up "field:keyword", then "field", with array indices
// replaced by "*"
func messageFor(messages map[string]string, field, keyword, fallback string) string {
	pattern := wildcardIndices(field)
	if m, ok := messages[pattern+":"+keyword]; ok {
		return m
	}
	if m, ok := messages[pattern]; ok {
		return m
	}
	return fallback
}

func wildcardIndices(field string) string {
	parts := strings.Split(field, ".")
	for i, p := range parts {
		if p != "" && strings.Trim(p, "0123456789") == "" {
			parts[i] = "*"
		}
	}
	return strings.Join(parts, ".")
}
