// Package strings holds small string helpers shared across features.
package strings

import "strings"

// SanitizeFilename replaces every character outside [A-Za-z0-9._-] with an
// underscore. Uploaded filenames feed into object storage keys, so anything
// that could act as a path separator or shell metacharacter must not survive.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
