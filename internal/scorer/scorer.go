// Package scorer is the placeholder stand-in for a real image analysis
// step. The score is derived from the storage key alone so results are
// deterministic; do not read anything medical into it.
package scorer

import (
	"fmt"
	"strconv"
)

// Score maps a storage key to a risk score in [1,10] and a templated note.
// Storage keys start with a unix timestamp, so the two characters at [5,7)
// are normally digits; that two-digit number mod 10 plus 1 is the score.
// Keys that do not fit the shape fall back to a byte sum, still pure.
func Score(storageKey string) (int, string) {
	score := derive(storageKey)

	notes := fmt.Sprintf("AI analysis suggests a score of %d. ", score)

	switch {
	case score > 7:
		notes += "High-risk features detected. Follow-up recommended."
	case score > 4:
		notes += "Moderate-risk features detected. Monitoring advised."
	default:
		notes += "Low-risk features detected. Routine check-up sufficient."
	}

	return score, notes
}

func derive(key string) int {
	if len(key) >= 7 {
		n, err := strconv.Atoi(key[5:7])

		if err == nil {
			return n%10 + 1
		}
	}

	sum := 0

	for _, b := range []byte(key) {
		sum += int(b)
	}

	return sum%10 + 1
}
