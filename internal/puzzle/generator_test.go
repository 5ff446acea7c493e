package puzzle

import (
	"strings"
	"testing"
)

func TestGenerateCoversAllGameTypes(t *testing.T) {
	gen := NewSeededGenerator(42)
	for _, gameType := range GameTypes() {
		p, err := gen.Generate(gameType, DifficultyEasy)
		if err != nil {
			t.Fatalf("%s: %v", gameType, err)
		}
		if p.ID == "" || p.Question == "" || p.CorrectAnswer == "" {
			t.Fatalf("%s: incomplete puzzle %+v", gameType, p)
		}
		if p.Points <= 0 || p.TimeLimitSeconds <= 0 {
			t.Fatalf("%s: missing points or time limit %+v", gameType, p)
		}
	}
}

func TestGenerateRejectsUnknownInput(t *testing.T) {
	gen := NewSeededGenerator(1)
	if _, err := gen.Generate("chess", DifficultyEasy); err == nil {
		t.Fatalf("unknown game type should be rejected")
	}
	if _, err := gen.Generate(GameMath, "extreme"); err == nil {
		t.Fatalf("unknown difficulty should be rejected")
	}
}

func TestGenerateDifficultyScaling(t *testing.T) {
	gen := NewSeededGenerator(9)
	easy, err := gen.Generate(GameMath, DifficultyEasy)
	if err != nil {
		t.Fatalf("easy: %v", err)
	}
	hard, err := gen.Generate(GameMath, DifficultyHard)
	if err != nil {
		t.Fatalf("hard: %v", err)
	}
	if hard.Points <= easy.Points {
		t.Fatalf("hard points %d should exceed easy points %d", hard.Points, easy.Points)
	}
	if hard.TimeLimitSeconds <= easy.TimeLimitSeconds {
		t.Fatalf("hard limit %d should exceed easy limit %d", hard.TimeLimitSeconds, easy.TimeLimitSeconds)
	}
}

func TestWordPuzzleScramblesTheAnswer(t *testing.T) {
	gen := NewSeededGenerator(3)
	for i := 0; i < 20; i++ {
		p, err := gen.Generate(GameWord, DifficultyMedium)
		if err != nil {
			t.Fatalf("word: %v", err)
		}
		scrambled := strings.TrimPrefix(p.Question, "Unscramble the letters: ")
		if strings.EqualFold(scrambled, p.CorrectAnswer) {
			t.Fatalf("question leaks the answer verbatim: %q", p.Question)
		}
	}
}
