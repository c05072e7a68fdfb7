// Package config handles loading and parsing notedir.toml configuration files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
	"golang.org/x/text/language"

	"github.com/steveyegge/notedir/internal/fsys"
	"github.com/steveyegge/notedir/internal/logging"
	"github.com/steveyegge/notedir/internal/sanitize"
)

// FileName is the workspace configuration file.
const FileName = "notedir.toml"

// StateDir holds per-workspace runtime state (journal, selection, lock).
const StateDir = ".notedir"

// Config is the top-level configuration of a notedir workspace.
type Config struct {
	Workspace Workspace `toml:"workspace"`
	Names     Names     `toml:"names,omitempty"`
	Log       Log       `toml:"log,omitempty"`

	unknown []string
}

// Workspace describes which directories make up the tree.
type Workspace struct {
	Name string `toml:"name" jsonschema:"required"`
	// Roots are directories relative to the workspace, loaded as the
	// top level of the tree. They must not nest.
	Roots []string `toml:"roots" jsonschema:"minItems=1"`
	// Ignore holds glob patterns matched against entry names.
	Ignore []string `toml:"ignore,omitempty"`
	// CaseInsensitive makes names that differ only in case collide.
	CaseInsensitive bool `toml:"case_insensitive,omitempty"`
}

// Names configures name sanitization and localization.
type Names struct {
	// Replacement is substituted for each forbidden character. It may
	// be empty, which drops forbidden characters.
	Replacement *string `toml:"replacement,omitempty"`
	Locale      string  `toml:"locale,omitempty"`
}

// Log configures process diagnostics.
type Log struct {
	Level  string `toml:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `toml:"format,omitempty" jsonschema:"enum=console,enum=json"`
	Output string `toml:"output,omitempty"`
}

// Default returns the config written by "nd init": one root named
// "notes" and dotfiles ignored.
func Default(name string) Config {
	return Config{
		Workspace: Workspace{
			Name:   name,
			Roots:  []string{"notes"},
			Ignore: []string{".*"},
		},
	}
}

// Marshal encodes a Config to TOML bytes.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return buf.Bytes(), nil
}

// Load reads and parses a notedir.toml file at the given path using the
// provided filesystem.
func Load(fs fsys.FS, path string) (*Config, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML data into a Config. Keys that match no field are
// kept and reported by [Config.Unknown].
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	for _, k := range md.Undecoded() {
		cfg.unknown = append(cfg.unknown, k.String())
	}
	sort.Strings(cfg.unknown)
	return &cfg, nil
}

// Unknown returns the keys Parse could not map to a field.
func (c *Config) Unknown() []string { return c.unknown }

// Validate reports every problem with c, joined.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Workspace.Name) == "" {
		errs = append(errs, errors.New("workspace.name is empty"))
	}
	if len(c.Workspace.Roots) == 0 {
		errs = append(errs, errors.New("workspace.roots is empty"))
	}
	seen := make(map[string]string)
	for _, r := range c.Workspace.Roots {
		clean := filepath.Clean(r)
		switch {
		case filepath.IsAbs(r):
			errs = append(errs, fmt.Errorf("workspace.roots: %q must be relative", r))
			continue
		case clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)):
			errs = append(errs, fmt.Errorf("workspace.roots: %q is outside the workspace", r))
			continue
		case clean == StateDir || strings.HasPrefix(clean, StateDir+string(filepath.Separator)):
			errs = append(errs, fmt.Errorf("workspace.roots: %q is the state directory", r))
			continue
		}
		for other, orig := range seen {
			if nested(clean, other) || nested(other, clean) {
				errs = append(errs, fmt.Errorf("workspace.roots: %q and %q overlap", orig, r))
			}
		}
		seen[clean] = r
	}
	for _, p := range c.Workspace.Ignore {
		if _, err := glob.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("workspace.ignore: %q: %w", p, err))
		}
	}
	if r := c.Names.Replacement; r != nil && *r != "" {
		if err := sanitize.Valid(sanitize.Name(*r)); err != nil {
			errs = append(errs, fmt.Errorf("names.replacement: %w", err))
		}
	}
	if c.Names.Locale != "" {
		if _, err := language.Parse(c.Names.Locale); err != nil {
			errs = append(errs, fmt.Errorf("names.locale: %q: %w", c.Names.Locale, err))
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func nested(p, root string) bool {
	return p == root || strings.HasPrefix(p, root+string(filepath.Separator))
}

// RootPaths returns the absolute root directories of a workspace at dir.
func (c *Config) RootPaths(dir string) []string {
	out := make([]string, len(c.Workspace.Roots))
	for i, r := range c.Workspace.Roots {
		out[i] = filepath.Join(dir, r)
	}
	return out
}

// Policy returns the sanitizer policy named by the [names] section.
func (c *Config) Policy() sanitize.Policy {
	p := sanitize.DefaultPolicy()
	if c.Names.Replacement != nil {
		p.Replacement = *c.Names.Replacement
	}
	return p
}

// Logging returns the [log] section as a logging config.
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format, OutputPath: c.Log.Output}
}
