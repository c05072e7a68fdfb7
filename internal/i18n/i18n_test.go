package i18n

import (
	"io/fs"
	"sort"
	"testing"

	"github.com/BurntSushi/toml"
)

func TestTransEnglish(t *testing.T) {
	b, err := New("en")
	if err != nil {
		t.Fatal(err)
	}
	if got := b.Trans("dialog.dir_new.value"); got != "New directory" {
		t.Errorf("Trans = %q, want %q", got, "New directory")
	}
}

func TestTransGerman(t *testing.T) {
	b, err := New("de-DE")
	if err != nil {
		t.Fatal(err)
	}
	if got := b.Trans("system.error.could_not_create_dir"); got != "Ordner konnte nicht erstellt werden" {
		t.Errorf("Trans = %q", got)
	}
}

func TestUncataloguedLocaleFallsBackToEnglish(t *testing.T) {
	b, err := New("fr")
	if err != nil {
		t.Fatal(err)
	}
	if got := b.Trans("dialog.dir_new.value"); got != "New directory" {
		t.Errorf("Trans = %q, want English fallback", got)
	}
}

func TestUnknownKeyReturnsKey(t *testing.T) {
	b, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	if b.Locale() != "en" {
		t.Errorf("Locale = %q, want en", b.Locale())
	}
	if got := b.Trans("no.such.key"); got != "no.such.key" {
		t.Errorf("Trans = %q, want the key", got)
	}
}

func TestNewRejectsMalformedLocale(t *testing.T) {
	if _, err := New("not a locale!"); err == nil {
		t.Error("New accepted a malformed locale")
	}
}

func TestAvailable(t *testing.T) {
	b, err := New("en")
	if err != nil {
		t.Fatal(err)
	}
	got := b.Available()
	if len(got) != 2 || got[0] != "de" || got[1] != "en" {
		t.Errorf("Available = %v, want [de en]", got)
	}
}

// Every catalog must carry the same keys as the English one.
func TestCatalogsHaveSameKeys(t *testing.T) {
	keys := func(name string) []string {
		data, err := fs.ReadFile(catalogs, "locales/"+name)
		if err != nil {
			t.Fatal(err)
		}
		var m map[string]string
		if err := toml.Unmarshal(data, &m); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		out := make([]string, 0, len(m))
		for k := range m {
			out = append(out, k)
		}
		sort.Strings(out)
		return out
	}
	en := keys("en.toml")
	entries, err := fs.ReadDir(catalogs, "locales")
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		got := keys(e.Name())
		if len(got) != len(en) {
			t.Errorf("%s has %d keys, en.toml has %d", e.Name(), len(got), len(en))
			continue
		}
		for i := range en {
			if got[i] != en[i] {
				t.Errorf("%s: key %q, en.toml has %q", e.Name(), got[i], en[i])
			}
		}
	}
}

func TestFake(t *testing.T) {
	f := Fake{"a": "A"}
	if f.Trans("a") != "A" || f.Trans("b") != "b" {
		t.Errorf("Fake.Trans wrong: %q %q", f.Trans("a"), f.Trans("b"))
	}
}
