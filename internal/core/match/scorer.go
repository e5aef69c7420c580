package match

import (
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Clean normalizes free text for matching: lower-case, strip everything that
// is not a letter, digit, or space, collapse runs of whitespace.
func Clean(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity returns a ratio in [0, 1] between the cleaned forms of a and b.
// Equal cleaned strings score 1; if exactly one side cleans to empty the
// score is 0.
func Similarity(a, b string) float64 {
	ca, cb := Clean(a), Clean(b)
	if ca == cb {
		return 1.0
	}
	if ca == "" || cb == "" {
		return 0.0
	}
	return strutil.Similarity(ca, cb, metrics.NewSorensenDice())
}
