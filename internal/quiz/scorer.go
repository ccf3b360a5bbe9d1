package quiz

import "strings"

// Display thresholds for a passing run. Styling only; nothing is gated on
// these.
const (
	CivicsPassPercent  = 60
	ReadingPassPercent = 80
)

var punctuationStripper = strings.NewReplacer(
	".", "", ",", "", "!", "", "?", "", ";", "", ":", "",
)

// Normalize lowercases, trims, collapses whitespace and strips the fixed
// punctuation set before comparison.
func Normalize(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	stripped := punctuationStripper.Replace(lowered)
	return strings.Join(strings.Fields(stripped), " ")
}

// Score grades a spoken or typed transcript against the target sentence as
// an integer percentage. Identical normalized strings score 100; otherwise
// words are compared position by position with exact token equality, no
// alignment and no edit distance. A single inserted or deleted word shifts
// every later position and collapses the score, which is the accepted
// behavior of this heuristic.
func Score(transcript, target string) int {
	normalizedInput := Normalize(transcript)
	normalizedTarget := Normalize(target)

	if normalizedInput == normalizedTarget {
		return 100
	}

	inputWords := strings.Fields(normalizedInput)
	targetWords := strings.Fields(normalizedTarget)

	maxLen := len(inputWords)
	if len(targetWords) > maxLen {
		maxLen = len(targetWords)
	}
	if maxLen == 0 {
		return 100
	}

	matches := 0
	for i := 0; i < len(inputWords) && i < len(targetWords); i++ {
		if inputWords[i] == targetWords[i] {
			matches++
		}
	}

	return int(float64(matches)/float64(maxLen)*100 + 0.5)
}

// Passing reports whether a score clears the given display threshold.
func Passing(score, threshold int) bool {
	return score >= threshold
}
