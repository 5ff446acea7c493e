package verifier

import (
	"math"
	"strings"

	"Olympics-Scoring/internal/answer"
)

// 预测市场任务的三段计分：盈亏、Brier 校准度、活跃度。
// 三段各自截断后再整体收敛到 [0,1000]。
const (
	marketPLWeight       = 600.0
	marketPLBand         = 0.5
	marketBrierWeight    = 250.0
	marketBrierBaseline  = 0.25
	marketPointsPerBet   = 15
	marketActivityCap    = 150
)

type marketBet struct {
	probability float64
	pnl         float64
	resolved    bool
	outcome     float64
}

// verifyMarket 校验预测市场任务。下注记录从成功的 submit 动作
// 元数据中还原：probability、pnl、resolved、outcome。
// 盈亏在 ±50% 区间内线性归一；Brier 误差仅统计已结算的注，
// 无结算时按 0.25 的无信息基线处理。
func verifyMarket(actions []ActionRecord, elapsedMs, maxMs int64) VerificationResult {
	bets := parseBets(actions)
	if len(bets) == 0 {
		return invalidResult("no bets recorded")
	}

	totalPL := 0.0
	for _, bet := range bets {
		totalPL += bet.pnl
	}
	plScore := plComponent(totalPL)

	brierErr := marketBrierBaseline
	resolved := 0
	sumSq := 0.0
	for _, bet := range bets {
		if !bet.resolved {
			continue
		}
		resolved++
		diff := bet.probability - bet.outcome
		sumSq += diff * diff
	}
	if resolved > 0 {
		brierErr = sumSq / float64(resolved)
	}
	brierScore := brierComponent(brierErr)

	activity := len(bets) * marketPointsPerBet
	if activity > marketActivityCap {
		activity = marketActivityCap
	}

	score := plScore + brierScore + activity

	return VerificationResult{
		Valid: true,
		Score: score,
		Details: map[string]any{
			"bets":         len(bets),
			"resolvedBets": resolved,
			"profitLoss":   totalPL,
			"brierError":   brierErr,
			"plScore":      plScore,
			"brierScore":   brierScore,
			"activity":     activity,
		},
	}
}

// plComponent 将累计盈亏比例线性映射到 [0,600]：-50% 为 0，
// 0% 为 300，+50% 及以上拿满。
func plComponent(totalPL float64) int {
	normalized := (totalPL + marketPLBand) / (2 * marketPLBand)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}
	return roundHalfUp(normalized * marketPLWeight)
}

// brierComponent 将 Brier 误差线性映射到 [0,250]：0.00 拿满，
// 0.25 及以上为 0。
func brierComponent(err float64) int {
	if err >= marketBrierBaseline {
		return 0
	}
	if err < 0 {
		err = 0
	}
	return roundHalfUp((marketBrierBaseline - err) / marketBrierBaseline * marketBrierWeight)
}

func parseBets(actions []ActionRecord) []marketBet {
	var bets []marketBet
	for _, action := range successful(actions, ActionTypeSubmit) {
		prob, ok := answer.ParseNumber(action.Metadata["probability"])
		if !ok || prob < 0 || prob > 1 || math.IsNaN(prob) {
			continue
		}
		bet := marketBet{probability: prob}
		if pnl, ok := answer.ParseNumber(action.Metadata["pnl"]); ok {
			bet.pnl = pnl
		}
		if strings.EqualFold(action.Metadata["resolved"], "true") {
			bet.resolved = true
			bet.outcome = parseOutcome(action.Metadata["outcome"])
		}
		bets = append(bets, bet)
	}
	return bets
}

func parseOutcome(raw string) float64 {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "win":
		return 1
	default:
		return 0
	}
}
