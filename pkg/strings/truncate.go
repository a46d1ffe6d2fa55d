package strings

import (
	"strings"
)

// DefaultCellMaxLen is the default width bound for free-text cells in
// formatted output, wide enough for most issuer URLs.
const DefaultCellMaxLen = 48

// MinTruncateLen is the smallest usable maxLen for Truncate. Anything
// shorter leaves no room for content plus the "..." marker.
const MinTruncateLen = 4

// Truncate bounds a string to maxLen characters of single-line output.
// Newlines and runs of whitespace collapse to single spaces, and "..."
// marks the cut when the string had to be shortened.
//
// Slicing operates on runes rather than bytes, so multi-byte characters
// never get split. A maxLen below MinTruncateLen is clamped up to it.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	// Fields splits on any whitespace run, normalizing embedded
	// newlines and tabs in one pass.
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
