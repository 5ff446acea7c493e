package judge

import (
	"testing"
)

func TestParseVerdictFromFencedResponse(t *testing.T) {
	text := "Here is my assessment:\n```json\n" +
		`{"score": 720, "breakdown": {"clarity": 280.4, "grammar": 190}, "feedback": "Solid work."}` +
		"\n```"
	verdict := parseVerdict(text, "anthropic/claude-sonnet-4")
	if verdict.Score != 720 {
		t.Fatalf("score = %d, want 720", verdict.Score)
	}
	if verdict.Breakdown["clarity"] != 280 {
		t.Fatalf("breakdown rounding failed: %+v", verdict.Breakdown)
	}
	if verdict.Feedback != "Solid work." {
		t.Fatalf("feedback = %q", verdict.Feedback)
	}
	if verdict.JudgeModel != "anthropic/claude-sonnet-4" {
		t.Fatalf("judge model = %q", verdict.JudgeModel)
	}
}

func TestParseVerdictBracesInsideStrings(t *testing.T) {
	text := `prefix {"score": 400, "feedback": "uses {braces} and \"quotes\" freely"} suffix`
	verdict, ok := tryParseVerdict(text, "m")
	if !ok {
		t.Fatalf("extraction should survive braces inside string literals")
	}
	if verdict.Score != 400 {
		t.Fatalf("score = %d, want 400", verdict.Score)
	}
}

func TestParseVerdictClampsScore(t *testing.T) {
	over, ok := tryParseVerdict(`{"score": 1500, "feedback": "x"}`, "m")
	if !ok || over.Score != 1000 {
		t.Fatalf("score above range should clamp to 1000, got %d", over.Score)
	}
	under, ok := tryParseVerdict(`{"score": -30, "feedback": "x"}`, "m")
	if !ok || under.Score != 0 {
		t.Fatalf("score below range should clamp to 0, got %d", under.Score)
	}
	fraction, ok := tryParseVerdict(`{"score": 749.6}`, "m")
	if !ok || fraction.Score != 750 {
		t.Fatalf("fractional score should round, got %d", fraction.Score)
	}
}

func TestParseVerdictFailureFallsBack(t *testing.T) {
	verdict := parseVerdict("I refuse to answer in JSON.", "openai/gpt-4o")
	if verdict.Score != neutralScore {
		t.Fatalf("score = %d, want the neutral %d", verdict.Score, neutralScore)
	}
	if verdict.Feedback != feedbackParseFailed {
		t.Fatalf("feedback = %q", verdict.Feedback)
	}

	truncated := parseVerdict(`{"score": 600, "feedback": "cut off`, "m")
	if truncated.Feedback != feedbackParseFailed {
		t.Fatalf("unbalanced JSON should fail parsing, got %+v", truncated)
	}
}
