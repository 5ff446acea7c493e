package verifier

import "testing"

func bet(prob, pnl string, resolved bool, outcome string) ActionRecord {
	meta := map[string]string{"probability": prob, "pnl": pnl}
	if resolved {
		meta["resolved"] = "true"
		meta["outcome"] = outcome
	}
	return ActionRecord{Type: ActionTypeSubmit, Success: true, Metadata: meta}
}

func TestVerifyMarketComponents(t *testing.T) {
	actions := []ActionRecord{
		bet("0.8", "0.10", true, "1"),
		bet("0.3", "-0.05", true, "0"),
	}
	result := Verify(TaskMarket, actions, 0, 300000)
	if !result.Valid {
		t.Fatalf("expected valid result")
	}
	// P/L +5% -> (0.05+0.5)/1.0 * 600 = 330.
	if result.Details["plScore"] != 330 {
		t.Fatalf("expected plScore 330, got %v", result.Details["plScore"])
	}
	// Brier error: ((0.8-1)^2 + (0.3-0)^2)/2 = 0.065 -> (0.25-0.065)/0.25*250 = 185.
	if result.Details["brierScore"] != 185 {
		t.Fatalf("expected brierScore 185, got %v", result.Details["brierScore"])
	}
	if result.Details["activity"] != 30 {
		t.Fatalf("expected activity 30, got %v", result.Details["activity"])
	}
	if result.Score != 330+185+30 {
		t.Fatalf("expected summed score, got %d", result.Score)
	}
}

func TestVerifyMarketUnresolvedDefaultsToBaseline(t *testing.T) {
	actions := []ActionRecord{
		bet("0.6", "0", false, ""),
		bet("0.4", "0", false, ""),
	}
	result := Verify(TaskMarket, actions, 0, 300000)
	if result.Details["brierScore"] != 0 {
		t.Fatalf("unresolved bets must use the uninformative baseline, got %v", result.Details["brierScore"])
	}
	// Zero P/L sits at the middle of the band.
	if result.Details["plScore"] != 300 {
		t.Fatalf("expected plScore 300, got %v", result.Details["plScore"])
	}
}

func TestVerifyMarketActivityCap(t *testing.T) {
	actions := make([]ActionRecord, 0, 20)
	for i := 0; i < 20; i++ {
		actions = append(actions, bet("0.5", "0", false, ""))
	}
	result := Verify(TaskMarket, actions, 0, 300000)
	// Exactly ten bets already reach the cap; twenty must not exceed it.
	if result.Details["activity"] != 150 {
		t.Fatalf("expected activity capped at 150, got %v", result.Details["activity"])
	}
}

func TestVerifyMarketHeavyLossFloorsAtZero(t *testing.T) {
	actions := []ActionRecord{bet("0.99", "-0.9", true, "0")}
	result := Verify(TaskMarket, actions, 300000, 300000)
	if result.Details["plScore"] != 0 {
		t.Fatalf("expected plScore floored at 0, got %v", result.Details["plScore"])
	}
	if result.Score < 0 || result.Score > 1000 {
		t.Fatalf("score out of range: %d", result.Score)
	}
}

func TestVerifyMarketIgnoresMalformedBets(t *testing.T) {
	actions := []ActionRecord{
		{Type: ActionTypeSubmit, Success: true, Metadata: map[string]string{"probability": "not-a-number"}},
		{Type: ActionTypeSubmit, Success: true, Metadata: map[string]string{"probability": "1.7"}},
		bet("0.5", "0", false, ""),
	}
	result := Verify(TaskMarket, actions, 0, 300000)
	if result.Details["bets"] != 1 {
		t.Fatalf("expected only the well-formed bet, got %v", result.Details["bets"])
	}
}
