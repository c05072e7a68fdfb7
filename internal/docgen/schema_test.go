package docgen

import (
	"encoding/json"
	"slices"
	"testing"
)

// schemaJSON round-trips the config schema through JSON so tests see what
// is written to disk.
func schemaJSON(t *testing.T) map[string]any {
	t.Helper()
	s, err := GenerateConfigSchema()
	if err != nil {
		t.Fatalf("GenerateConfigSchema: %v", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return raw
}

func def(t *testing.T, raw map[string]any, name string) map[string]any {
	t.Helper()
	defs, ok := raw["$defs"].(map[string]any)
	if !ok {
		t.Fatal("no $defs")
	}
	d, ok := defs[name].(map[string]any)
	if !ok {
		t.Fatalf("no %s definition in $defs", name)
	}
	return d
}

func props(t *testing.T, d map[string]any) map[string]any {
	t.Helper()
	p, ok := d["properties"].(map[string]any)
	if !ok {
		t.Fatal("definition has no properties")
	}
	return p
}

func required(d map[string]any) []string {
	var out []string
	list, _ := d["required"].([]any)
	for _, r := range list {
		out = append(out, r.(string))
	}
	return out
}

func TestGenerateConfigSchema(t *testing.T) {
	raw := schemaJSON(t)
	if raw["title"] != "notedir Configuration" {
		t.Errorf("title = %v", raw["title"])
	}
	cfg := def(t, raw, "Config")
	p := props(t, cfg)
	for _, k := range []string{"workspace", "names", "log"} {
		if _, ok := p[k]; !ok {
			t.Errorf("Config missing %q", k)
		}
	}
	if _, ok := p["Workspace"]; ok {
		t.Error("Go field name used instead of the TOML key")
	}
	if _, ok := p["unknown"]; ok {
		t.Error("unexported field reflected")
	}
	if r := required(cfg); !slices.Contains(r, "workspace") || slices.Contains(r, "names") {
		t.Errorf("Config required = %v", r)
	}
}

func TestWorkspaceDefinition(t *testing.T) {
	raw := schemaJSON(t)
	ws := def(t, raw, "Workspace")
	p := props(t, ws)

	roots, ok := p["roots"].(map[string]any)
	if !ok {
		t.Fatal("roots missing")
	}
	if roots["type"] != "array" {
		t.Errorf("roots type = %v", roots["type"])
	}
	if roots["minItems"] != float64(1) {
		t.Errorf("roots minItems = %v", roots["minItems"])
	}
	if desc, _ := roots["description"].(string); desc == "" {
		t.Error("roots has no description from its doc comment")
	}
	if r := required(ws); !slices.Contains(r, "name") || slices.Contains(r, "ignore") {
		t.Errorf("Workspace required = %v", r)
	}
}

func TestLogEnums(t *testing.T) {
	p := props(t, def(t, schemaJSON(t), "Log"))
	level, _ := p["level"].(map[string]any)
	enum, _ := level["enum"].([]any)
	if len(enum) != 4 || enum[2] != "warn" {
		t.Errorf("log.level enum = %v", enum)
	}
}
