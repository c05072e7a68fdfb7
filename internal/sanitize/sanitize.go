// Package sanitize turns user-supplied names into names that are safe to
// use as a single path element on every filesystem notedir runs on.
//
// The result of [Policy.Sanitize] is a [Name]. The FSAL only accepts
// Names, so an unsanitized string cannot reach a mutation by accident.
package sanitize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Name is a sanitized, single-element file or directory name. The zero
// value is the empty name, which callers must treat as "nothing usable".
type Name string

// String returns the name as a plain string.
func (n Name) String() string { return string(n) }

// Empty reports whether sanitization left nothing usable.
func (n Name) Empty() bool { return n == "" }

// DefaultReplacement is substituted for each forbidden character.
const DefaultReplacement = "-"

// DefaultMaxBytes is the longest name most filesystems accept.
const DefaultMaxBytes = 255

// Policy controls how names are sanitized.
type Policy struct {
	// Replacement is substituted one-for-one for each forbidden character.
	// It may be empty, in which case forbidden characters are dropped.
	Replacement string
	// MaxBytes truncates the result. Zero means DefaultMaxBytes.
	MaxBytes int
}

// DefaultPolicy replaces forbidden characters with "-".
func DefaultPolicy() Policy {
	return Policy{Replacement: DefaultReplacement, MaxBytes: DefaultMaxBytes}
}

var (
	illegalRe  = regexp.MustCompile(`[/\\?<>:*|"]`)
	controlRe  = regexp.MustCompile(`[\x{0000}-\x{001f}\x{0080}-\x{009f}]`)
	reservedRe = regexp.MustCompile(`^\.+$`)
	windowsRe  = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[0-9]|lpt[0-9])(\..*)?$`)
	trailingRe = regexp.MustCompile(`[. ]+$`)
)

// Sanitize returns a filesystem-safe version of raw. Surrounding
// whitespace is trimmed first. The result is empty when nothing usable
// survives, which is an error condition for the caller, not a reason to
// sanitize again.
func (p Policy) Sanitize(raw string) Name {
	s := norm.NFC.String(strings.TrimSpace(raw))
	out := p.apply(s, p.Replacement)
	if p.Replacement == "" {
		return Name(out)
	}
	// The replacement itself may form a forbidden name ("." or "con").
	return Name(p.apply(out, ""))
}

func (p Policy) apply(s, repl string) string {
	s = strings.ToValidUTF8(s, repl)
	s = illegalRe.ReplaceAllLiteralString(s, repl)
	s = controlRe.ReplaceAllLiteralString(s, repl)
	s = reservedRe.ReplaceAllLiteralString(s, repl)
	s = windowsRe.ReplaceAllLiteralString(s, repl)
	s = truncate(s, p.maxBytes())
	return trailingRe.ReplaceAllLiteralString(s, repl)
}

func (p Policy) maxBytes() int {
	if p.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return p.MaxBytes
}

// truncate trims s to limit bytes without splitting a multi-byte rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// Sanitize applies [DefaultPolicy] to raw.
func Sanitize(raw string) Name {
	return DefaultPolicy().Sanitize(raw)
}

// ErrInvalid is returned by [Valid] for names that are not sanitized.
var ErrInvalid = errors.New("invalid name")

// Valid reports whether n is a usable single path element. Names produced
// by [Policy.Sanitize] always pass unless they are empty.
func Valid(n Name) error {
	s := string(n)
	switch {
	case s == "":
		return fmt.Errorf("%w: empty", ErrInvalid)
	case !utf8.ValidString(s):
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalid, s)
	case s != strings.TrimSpace(s):
		return fmt.Errorf("%w: %q has surrounding whitespace", ErrInvalid, s)
	case illegalRe.MatchString(s), controlRe.MatchString(s):
		return fmt.Errorf("%w: %q contains a forbidden character", ErrInvalid, s)
	case reservedRe.MatchString(s), windowsRe.MatchString(s):
		return fmt.Errorf("%w: %q is reserved", ErrInvalid, s)
	case trailingRe.MatchString(s):
		return fmt.Errorf("%w: %q ends with a dot or space", ErrInvalid, s)
	case len(s) > DefaultMaxBytes:
		return fmt.Errorf("%w: %q is longer than %d bytes", ErrInvalid, s, DefaultMaxBytes)
	}
	return nil
}
