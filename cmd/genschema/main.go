// Command genschema writes the notedir.toml JSON Schema and the markdown
// references. Run from the repository root:
//
//	go run ./cmd/genschema
//
// Output:
//
//	docs/schema/notedir-schema.json
//	docs/reference/config.md
//	docs/reference/cli.md
package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/steveyegge/notedir/internal/docgen"
)

const (
	schemaPath = "docs/schema/notedir-schema.json"
	configPath = "docs/reference/config.md"
	cliPath    = "docs/reference/cli.md"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "genschema: %v\n", err) //nolint:errcheck // best-effort stderr
		os.Exit(1)
	}
}

func run() error {
	if _, err := os.Stat("go.mod"); err != nil {
		return fmt.Errorf("must run from repository root (go.mod not found)")
	}
	for _, dir := range []string{"docs/schema", "docs/reference"} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	s, err := docgen.GenerateConfigSchema()
	if err != nil {
		return fmt.Errorf("generating config schema: %w", err)
	}
	if err := docgen.WriteSchema(schemaPath, s); err != nil {
		return err
	}
	if err := docgen.WriteMarkdown(configPath, s); err != nil {
		return err
	}

	// The CLI reference comes from the real command tree.
	genDoc := exec.Command("go", "run", "./cmd/nd", "gen-doc", cliPath)
	genDoc.Stdout = os.Stdout
	genDoc.Stderr = os.Stderr
	if err := genDoc.Run(); err != nil {
		return fmt.Errorf("generating CLI docs: %w", err)
	}

	fmt.Println("Generated:")
	for _, f := range []string{schemaPath, configPath, cliPath} {
		fmt.Printf("  %s\n", f)
	}
	return nil
}
