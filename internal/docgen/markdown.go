package docgen

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"
)

// RenderMarkdown writes one section per schema definition, each a table
// of its fields. The root definition comes first and the rest follow by
// name.
func RenderMarkdown(w io.Writer, s *jsonschema.Schema) error {
	p := &printer{w: w}
	title := s.Title
	if title == "" {
		title = "Configuration Reference"
	}
	p.printf("# %s\n\n", title)
	if s.Description != "" {
		p.printf("%s\n\n", s.Description)
	}
	p.printf(generatedNote)

	root := refName(s.Ref)
	names := make([]string, 0, len(s.Definitions))
	for name := range s.Definitions {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		switch {
		case a == root:
			return -1
		case b == root:
			return 1
		}
		return strings.Compare(a, b)
	})

	for _, name := range names {
		def := s.Definitions[name]
		if def == nil || def.Properties == nil {
			continue
		}
		p.printf("## %s\n\n", name)
		if def.Description != "" {
			p.printf("%s\n\n", def.Description)
		}
		p.printf("| Field | Type | Required | Default | Description |\n")
		p.printf("|-------|------|----------|---------|-------------|\n")
		for pair := def.Properties.Oldest(); pair != nil; pair = pair.Next() {
			req := ""
			if slices.Contains(def.Required, pair.Key) {
				req = "**yes**"
			}
			p.printf("| `%s` | %s | %s | %s | %s |\n",
				pair.Key, typeString(pair.Value), req, defaultString(pair.Value), cell(pair.Value))
		}
		p.printf("\n")
	}
	return p.err
}

// WriteMarkdown renders s to path.
func WriteMarkdown(path string, s *jsonschema.Schema) error {
	return writeAtomic(path, func(w io.Writer) error { return RenderMarkdown(w, s) })
}

func typeString(prop *jsonschema.Schema) string {
	if prop.Ref != "" {
		return refName(prop.Ref)
	}
	switch prop.Type {
	case "array":
		if prop.Items == nil {
			return "array"
		}
		if prop.Items.Ref != "" {
			return "[]" + refName(prop.Items.Ref)
		}
		return "[]" + prop.Items.Type
	case "object":
		if v := prop.AdditionalProperties; v != nil {
			if v.Ref != "" {
				return "map[string]" + refName(v.Ref)
			}
			return "map[string]" + v.Type
		}
		return "object"
	case "":
		return "any"
	default:
		return prop.Type
	}
}

// refName returns the last element of a $ref such as "#/$defs/Log".
func refName(ref string) string {
	return ref[strings.LastIndex(ref, "/")+1:]
}

func defaultString(prop *jsonschema.Schema) string {
	if prop.Default == nil {
		return ""
	}
	return fmt.Sprintf("`%v`", prop.Default)
}

// cell is the description column: the doc comment plus any enum values,
// on one line with pipes escaped.
func cell(prop *jsonschema.Schema) string {
	desc := prop.Description
	if len(prop.Enum) > 0 {
		vals := make([]string, len(prop.Enum))
		for i, v := range prop.Enum {
			vals[i] = fmt.Sprintf("`%v`", v)
		}
		desc = strings.TrimSpace(desc + " Enum: " + strings.Join(vals, ", "))
	}
	desc = strings.ReplaceAll(desc, "\n", " ")
	return strings.ReplaceAll(desc, "|", "\\|")
}
