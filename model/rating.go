package model

import (
	"fmt"
	"strconv"
	"unicode"
)

// ParseRating extracts the last standalone digit in [1,5] from a model
// response, tolerating surrounding JSON or prose. Evaluation prompts ask for
// an integer rating; providers without token-probability access fall back to
// this textual parse.
func ParseRating(text string) (float64, error) {
	runes := []rune(text)
	for i := len(runes) - 1; i >= 0; i-- {
		r := runes[i]
		if r < '1' || r > '5' {
			continue
		}
		// reject digits embedded in larger numbers ("15", "3.5")
		if i > 0 && (unicode.IsDigit(runes[i-1]) || runes[i-1] == '.') {
			continue
		}
		if i+1 < len(runes) && (unicode.IsDigit(runes[i+1]) || runes[i+1] == '.') {
			continue
		}
		v, err := strconv.Atoi(string(r))
		if err != nil {
			continue
		}
		return float64(v), nil
	}
	return 0, fmt.Errorf("no rating in range [1,5] found in %q", text)
}
