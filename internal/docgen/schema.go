package docgen

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/steveyegge/notedir/internal/config"
)

const modulePath = "github.com/steveyegge/notedir"

// newReflector returns a reflector keyed on TOML field names that takes
// descriptions from the Go doc comments of the module.
//
// AddGoComments walks "." relative to the working directory, so the
// working directory is the module root for the duration of the call.
func newReflector() (*jsonschema.Reflector, error) {
	root, err := ModuleRoot()
	if err != nil {
		return nil, err
	}
	orig, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	if err := os.Chdir(root); err != nil {
		return nil, fmt.Errorf("chdir to module root: %w", err)
	}
	defer func() { _ = os.Chdir(orig) }()

	r := &jsonschema.Reflector{FieldNameTag: "toml"}
	if err := r.AddGoComments(modulePath, "./internal/config"); err != nil {
		return nil, fmt.Errorf("extracting Go comments: %w", err)
	}
	return r, nil
}

// GenerateConfigSchema reflects [config.Config] into the schema of
// notedir.toml.
func GenerateConfigSchema() (*jsonschema.Schema, error) {
	r, err := newReflector()
	if err != nil {
		return nil, err
	}
	s := r.Reflect(&config.Config{})
	s.Title = "notedir Configuration"
	s.Description = "Schema for " + config.FileName + ", the configuration file at the root of a notedir workspace."
	return s, nil
}

// WriteSchema writes s as indented JSON to path.
func WriteSchema(path string, s *jsonschema.Schema) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	return writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(append(data, '\n'))
		return err
	})
}
