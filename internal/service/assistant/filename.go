package assistant

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// AllowedFile reports whether filename has a pdf extension after its last dot.
func AllowedFile(filename string) bool {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return false
	}
	return strings.EqualFold(filename[idx+1:], "pdf")
}

// SecureFilename reduces filename to a safe single path segment: ASCII only,
// no separators, whitespace joined with underscores and no leading or
// trailing dots or underscores. The result may be empty.
func SecureFilename(filename string) string {
	folded := norm.NFKD.String(filename)
	var ascii strings.Builder
	for _, r := range folded {
		switch {
		case r > unicode.MaxASCII:
			continue
		case r == '/' || r == '\\':
			ascii.WriteRune(' ')
		default:
			ascii.WriteRune(r)
		}
	}

	joined := strings.Join(strings.Fields(ascii.String()), "_")
	var out strings.Builder
	for _, r := range joined {
		if r == '_' || r == '.' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out.WriteRune(r)
		}
	}
	return strings.Trim(out.String(), "._")
}
