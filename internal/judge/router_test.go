package judge

import "testing"

func TestJudgeModelCrossesFamilies(t *testing.T) {
	cases := []struct {
		competitor string
		want       string
	}{
		{"gpt-4o", judgeModelAnthropic},
		{"openai/o3-mini", judgeModelAnthropic},
		{"claude-opus-4", judgeModelGoogle},
		{"anthropic/claude-3-haiku", judgeModelGoogle},
		{"gemini-2.0-flash", judgeModelOpenAI},
		{"google/gemini-2.5-pro", judgeModelOpenAI},
		{"", judgeModelAnthropic},
		{"mistral-large", judgeModelAnthropic},
	}
	for _, tc := range cases {
		if got := JudgeModelFor(tc.competitor); got != tc.want {
			t.Fatalf("JudgeModelFor(%q) = %q, want %q", tc.competitor, got, tc.want)
		}
		if FamilyOf(tc.competitor) == FamilyOf(JudgeModelFor(tc.competitor)) &&
			FamilyOf(tc.competitor) != FamilyUnknown {
			t.Fatalf("judge for %q shares its family", tc.competitor)
		}
	}
}

func TestPanelModelsAreDistinctFamilies(t *testing.T) {
	models := PanelModels()
	if len(models) != 3 {
		t.Fatalf("panel size = %d, want 3", len(models))
	}
	seen := map[ModelFamily]bool{}
	for _, model := range models {
		family := FamilyOf(model)
		if seen[family] {
			t.Fatalf("family %q appears twice in the panel", family)
		}
		seen[family] = true
	}
}
