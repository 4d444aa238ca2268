// Package validate provides functions to validate request fields and uploaded file names.
package validate

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kylejryan/claims-intake-backend/internal/apperr"

	"golang.org/x/text/unicode/norm"
)

// DefaultFilename replaces a file name that sanitizes to nothing.
const DefaultFilename = "attachment"

const maxFilenameLen = 255

var unsafeRx = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Field is a named request value.
type Field struct {
	Name  string
	Value string
}

// F is shorthand for building a Field.
func F(name, value string) Field { return Field{Name: name, Value: value} }

// Required checks that every field is non-empty after trimming whitespace.
// The error names the first missing field.
func Required(fields ...Field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			return apperr.Validation(f.Name + " is required")
		}
	}
	return nil
}

// Email checks that s is a bare email address.
func Email(s string) error {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return apperr.Validation("invalid email address")
	}
	return nil
}

// SanitizeFilename reduces an uploaded file name to a safe single path
// segment: compatibility-decomposed to ASCII, path separators and whitespace
// collapsed to underscores, anything outside [A-Za-z0-9_.-] removed, and
// leading or trailing dots and underscores trimmed. "../../etc/passwd"
// becomes "etc_passwd".
func SanitizeFilename(name string) string {
	name = norm.NFKD.String(name)
	ascii := make([]rune, 0, len(name))
	for _, r := range name {
		if r < utf8.RuneSelf {
			ascii = append(ascii, r)
		}
	}
	name = string(ascii)

	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeRx.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
	}
	if name == "" {
		return DefaultFilename
	}
	return name
}
