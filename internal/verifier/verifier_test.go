package verifier

import (
	"fmt"
	"testing"
)

func numericAnswers(n int) []ActionRecord {
	actions := make([]ActionRecord, 0, n)
	for i := 0; i < n; i++ {
		actions = append(actions, ActionRecord{
			Type:    ActionTypeType,
			Success: true,
			Value:   fmt.Sprintf("%d", i*7),
		})
	}
	return actions
}

func TestVerifyUnknownTaskType(t *testing.T) {
	result := Verify(TaskType("poetry"), numericAnswers(3), 1000, 60000)
	if result.Valid || result.Score != 0 {
		t.Fatalf("expected invalid zero result, got %+v", result)
	}
}

func TestVerifyEmptyTrace(t *testing.T) {
	for _, taskType := range TaskTypes() {
		result := Verify(taskType, nil, 0, 60000)
		if result.Valid || result.Score != 0 {
			t.Fatalf("%s: expected invalid zero result for empty trace, got %+v", taskType, result)
		}
	}
}

func TestVerifyMathFullTimeBudget(t *testing.T) {
	// Ten successful numeric answers with the whole budget consumed.
	result := Verify(TaskMath, numericAnswers(10), 300000, 300000)
	if !result.Valid {
		t.Fatalf("expected valid result")
	}
	if result.Score != 600 {
		t.Fatalf("expected score 600, got %d", result.Score)
	}
	if result.Details["problemsAttempted"] != 10 {
		t.Fatalf("expected 10 attempted, got %v", result.Details["problemsAttempted"])
	}
	if result.Details["correctAnswers"] != 6 {
		t.Fatalf("expected 6 estimated correct, got %v", result.Details["correctAnswers"])
	}
	if result.Details["timeBonus"] != 0 {
		t.Fatalf("time bonus must floor at 0 when the budget is spent, got %v", result.Details["timeBonus"])
	}
}

func TestVerifyMathCapsAttempts(t *testing.T) {
	// Spamming 50 answers must not score higher than the ceiling of 10.
	capped := Verify(TaskMath, numericAnswers(10), 0, 300000)
	spammed := Verify(TaskMath, numericAnswers(50), 0, 300000)
	if spammed.Score != capped.Score {
		t.Fatalf("attempt spam inflated the score: %d vs %d", spammed.Score, capped.Score)
	}
	if spammed.Details["problemsAttempted"] != 10 {
		t.Fatalf("expected capped attempts, got %v", spammed.Details["problemsAttempted"])
	}
}

func TestVerifyMathIgnoresFailedActions(t *testing.T) {
	actions := numericAnswers(4)
	actions = append(actions, ActionRecord{Type: ActionTypeType, Success: false, Value: "99"})
	result := Verify(TaskMath, actions, 0, 300000)
	if result.Details["problemsAttempted"] != 4 {
		t.Fatalf("failed action counted: %v", result.Details["problemsAttempted"])
	}
}

func TestVerifyNavigationPerfectRun(t *testing.T) {
	actions := []ActionRecord{
		{Type: ActionTypeClick, Success: true, Target: "Room A"},
		{Type: ActionTypeClick, Success: true, Target: "Room B"},
		{Type: ActionTypeClick, Success: true, Target: "Room C"},
		{Type: ActionTypeClick, Success: true, Target: "Golden Achievement"},
	}
	result := Verify(TaskNavigation, actions, 0, 180000)
	if !result.Valid || result.Score != 1000 {
		t.Fatalf("expected perfect 1000 (400+300+300), got %+v", result)
	}
}

func TestVerifyNavigationExtraClicksLowerEfficiency(t *testing.T) {
	actions := make([]ActionRecord, 0, 7)
	for i := 0; i < 6; i++ {
		actions = append(actions, ActionRecord{Type: ActionTypeClick, Success: true, Target: "Room"})
	}
	actions = append(actions, ActionRecord{Type: ActionTypeClick, Success: true, Target: "golden achievement hall"})
	result := Verify(TaskNavigation, actions, 180000, 180000)
	// 7 clicks: 3 over optimal, efficiency 300-150=150, no time bonus.
	if result.Score != 550 {
		t.Fatalf("expected 550, got %d (%+v)", result.Score, result.Details)
	}
}

func TestVerifyNavigationGoalNotReached(t *testing.T) {
	actions := []ActionRecord{
		{Type: ActionTypeClick, Success: true, Target: "Room A"},
		{Type: ActionTypeClick, Success: true, Target: "Dead End"},
	}
	result := Verify(TaskNavigation, actions, 180000, 180000)
	if result.Score != 0 {
		t.Fatalf("expected 0 without reaching the goal, got %d", result.Score)
	}
	if !result.Valid {
		t.Fatalf("a graded run is still a valid verification")
	}
}

func TestVerifyTriviaCompletionThreshold(t *testing.T) {
	answerActions := func(n int) []ActionRecord {
		actions := make([]ActionRecord, 0, n)
		for i := 0; i < n; i++ {
			actions = append(actions, ActionRecord{Type: ActionTypeSubmit, Success: true, Value: "B"})
		}
		return actions
	}
	// Exactly five attempts must take the met-threshold branch.
	five := Verify(TaskTrivia, answerActions(5), 100000, 100000)
	if five.Details["completionBonus"] != 250 {
		t.Fatalf("expected completion bonus at exactly 5, got %v", five.Details["completionBonus"])
	}
	four := Verify(TaskTrivia, answerActions(4), 100000, 100000)
	if four.Details["completionBonus"] != 0 {
		t.Fatalf("expected no completion bonus at 4, got %v", four.Details["completionBonus"])
	}
}

func TestVerifyChessExactMatch(t *testing.T) {
	actions := []ActionRecord{
		{Type: ActionTypeSubmit, Success: true, Value: "Qxf7+", Metadata: map[string]string{"solution": "Qxf7"}},
		{Type: ActionTypeSubmit, Success: true, Value: "e4", Metadata: map[string]string{"solution": "e4"}},
		{Type: ActionTypeSubmit, Success: true, Value: "Nf3", Metadata: map[string]string{"solution": "Nc3"}},
	}
	result := Verify(TaskChess, actions, 120000, 120000)
	if result.Details["puzzlesSolved"] != 2 {
		t.Fatalf("expected 2 solved with suffix stripping, got %v", result.Details["puzzlesSolved"])
	}
	if result.Details["exactMatch"] != true {
		t.Fatalf("expected exact grading when solutions are visible")
	}
	if result.Score != 140 {
		t.Fatalf("expected 140, got %d", result.Score)
	}
}

func TestVerifyChessHeuristicWithoutSolutions(t *testing.T) {
	actions := []ActionRecord{
		{Type: ActionTypeSubmit, Success: true, Value: "e4"},
		{Type: ActionTypeSubmit, Success: true, Value: "d4"},
		{Type: ActionTypeSubmit, Success: true, Value: "Nf3"},
		{Type: ActionTypeSubmit, Success: true, Value: "c4"},
	}
	result := Verify(TaskChess, actions, 120000, 120000)
	// round(4 * 0.55) = 2 estimated solved.
	if result.Details["puzzlesSolved"] != 2 {
		t.Fatalf("expected heuristic estimate 2, got %v", result.Details["puzzlesSolved"])
	}
	if result.Details["exactMatch"] != false {
		t.Fatalf("expected heuristic grading")
	}
}

func TestVerifyShoppingCompleteRun(t *testing.T) {
	actions := []ActionRecord{
		{Type: ActionTypeNavigate, Success: true, Target: "/shop", Metadata: map[string]string{"required_items": "red mug, blue towel"}},
		{Type: ActionTypeClick, Success: true, Target: "Add Red Mug to cart"},
		{Type: ActionTypeClick, Success: true, Target: "Add Blue Towel to cart"},
		{Type: ActionTypeSubmit, Success: true, Target: "checkout"},
	}
	result := Verify(TaskShopping, actions, 0, 240000)
	if result.Score != 1000 {
		t.Fatalf("expected 1000 for a perfect run, got %d (%+v)", result.Score, result.Details)
	}
}

func TestVerifyShoppingMissingItemBlocksCompletion(t *testing.T) {
	actions := []ActionRecord{
		{Type: ActionTypeNavigate, Success: true, Target: "/shop", Metadata: map[string]string{"required_items": "red mug, blue towel"}},
		{Type: ActionTypeClick, Success: true, Target: "Add Red Mug to cart"},
		{Type: ActionTypeSubmit, Success: true, Target: "checkout"},
	}
	result := Verify(TaskShopping, actions, 240000, 240000)
	if result.Details["checkoutComplete"] != true {
		t.Fatalf("expected checkout to register")
	}
	// One of two items: no completion points, half the item credit.
	if result.Score != 100 {
		t.Fatalf("expected 100, got %d (%+v)", result.Score, result.Details)
	}
}

func TestVerifyScoresStayInRange(t *testing.T) {
	traces := map[TaskType][]ActionRecord{
		TaskMath:       numericAnswers(100),
		TaskTrivia:     {{Type: ActionTypeSubmit, Success: true, Value: "A"}},
		TaskNavigation: {{Type: ActionTypeClick, Success: true, Target: "Golden Achievement"}},
		TaskChess:      {{Type: ActionTypeSubmit, Success: true, Value: "e4"}},
		TaskShopping:   {{Type: ActionTypeDone, Success: true}},
		TaskMarket: {{Type: ActionTypeSubmit, Success: true, Metadata: map[string]string{
			"probability": "0.9", "pnl": "3.5", "resolved": "true", "outcome": "1",
		}}},
	}
	for taskType, actions := range traces {
		for _, elapsed := range []int64{0, 1, 299999, 300000, 10000000} {
			result := Verify(taskType, actions, elapsed, 300000)
			if result.Score < 0 || result.Score > 1000 {
				t.Fatalf("%s: score %d out of range", taskType, result.Score)
			}
		}
	}
}
