// Package i18n translates message keys into display strings.
//
// Catalogs are TOML files embedded from locales/, one per language, with
// flat dotted keys such as "system.error.could_not_create_dir". Lookups
// fall back to English and then to the key itself, so a missing
// translation never hides a message.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var catalogs embed.FS

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "en"

// Translator maps a message key to a display string.
type Translator interface {
	Trans(key string) string
}

// Bundle is a [Translator] backed by the embedded catalogs.
type Bundle struct {
	locale   string
	primary  *goi18n.Localizer
	fallback *goi18n.Localizer
	tags     []language.Tag
}

// New loads the embedded catalogs and returns a translator for locale.
// An empty locale means [DefaultLocale]. Well-formed locales without a
// catalog are accepted and translate to English.
func New(locale string) (*Bundle, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parsing locale %q: %w", locale, err)
	}

	b := goi18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	entries, err := fs.ReadDir(catalogs, "locales")
	if err != nil {
		return nil, fmt.Errorf("reading catalogs: %w", err)
	}
	for _, e := range entries {
		if _, err := b.LoadMessageFileFS(catalogs, path.Join("locales", e.Name())); err != nil {
			return nil, fmt.Errorf("loading catalog %s: %w", e.Name(), err)
		}
	}

	return &Bundle{
		locale:   tag.String(),
		primary:  goi18n.NewLocalizer(b, tag.String()),
		fallback: goi18n.NewLocalizer(b, DefaultLocale),
		tags:     b.LanguageTags(),
	}, nil
}

// Locale returns the requested locale in canonical form.
func (b *Bundle) Locale() string { return b.locale }

// Available lists the locales that have a catalog.
func (b *Bundle) Available() []string {
	out := make([]string, len(b.tags))
	for i, t := range b.tags {
		out[i] = t.String()
	}
	sort.Strings(out)
	return out
}

// Trans returns the translation of key.
func (b *Bundle) Trans(key string) string {
	for _, l := range []*goi18n.Localizer{b.primary, b.fallback} {
		msg, err := l.Localize(&goi18n.LocalizeConfig{MessageID: key})
		if err == nil && msg != "" {
			return msg
		}
	}
	return key
}

// Fake is a map-backed [Translator] for tests. Unknown keys translate to
// themselves.
type Fake map[string]string

// Trans returns f[key], or key.
func (f Fake) Trans(key string) string {
	if v, ok := f[key]; ok {
		return v
	}
	return key
}

var (
	_ Translator = (*Bundle)(nil)
	_ Translator = Fake(nil)
)
