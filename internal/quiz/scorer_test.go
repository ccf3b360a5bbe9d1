package quiz

import "testing"

func TestScoreExactMatch(t *testing.T) {
	cases := []string{
		"Citizens can vote in November.",
		"The President lives in the White House.",
		"one",
	}
	for _, sentence := range cases {
		if got := Score(sentence, sentence); got != 100 {
			t.Fatalf("Score(%q, same) = %d, want 100", sentence, got)
		}
	}
}

func TestScoreIgnoresCaseWhitespacePunctuation(t *testing.T) {
	if got := Score("  citizens CAN   vote in november ", "Citizens can vote in November."); got != 100 {
		t.Fatalf("normalized equality should score 100, got %d", got)
	}
}

func TestScoreWordPositions(t *testing.T) {
	// 2 of 3 positions match.
	if got := Score("the quick fox", "the slow fox"); got != 67 {
		t.Fatalf("expected 67, got %d", got)
	}
}

func TestScoreLengthMismatchUsesLongerLength(t *testing.T) {
	// 2 matched positions over max(4, 2) words.
	if got := Score("citizens can vote today", "citizens can"); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
}

func TestScoreInsertionShiftsAlignment(t *testing.T) {
	// The inserted word misaligns every later position; only "the" matches.
	if got := Score("the very quick fox", "the quick fox"); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
}

func TestScoreEmptyTranscript(t *testing.T) {
	if got := Score("", "citizens can vote"); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestPassingThresholds(t *testing.T) {
	if !Passing(60, CivicsPassPercent) || Passing(59, CivicsPassPercent) {
		t.Fatalf("civics threshold off")
	}
	if !Passing(80, ReadingPassPercent) || Passing(79, ReadingPassPercent) {
		t.Fatalf("reading threshold off")
	}
}
