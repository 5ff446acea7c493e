package verifier

import (
	"strings"

	"Olympics-Scoring/internal/answer"
)

// 棋题任务的计分参数。无参考答案时按 0.55 的保守正确率折算。
const (
	chessAttemptCeiling   = 10
	chessPointsPerSolved  = 70
	chessHeuristicRate    = 0.55
	chessTimeWeight       = 300.0
	chessSolutionMetaKey  = "solution"
)

// verifyChess 校验棋题任务。动作元数据携带参考着法时逐题精确比对，
// 否则退化为按尝试数折算的保守估计。
func verifyChess(actions []ActionRecord, elapsedMs, maxMs int64) VerificationResult {
	moves := make([]ActionRecord, 0)
	for _, action := range successful(actions, ActionTypeType, ActionTypeSubmit) {
		if strings.TrimSpace(action.Value) == "" {
			continue
		}
		moves = append(moves, action)
	}
	if len(moves) > chessAttemptCeiling {
		moves = moves[:chessAttemptCeiling]
	}
	if len(moves) == 0 {
		return invalidResult("no moves submitted")
	}

	solved := 0
	graded := 0
	for _, move := range moves {
		solution, ok := move.Metadata[chessSolutionMetaKey]
		if !ok || strings.TrimSpace(solution) == "" {
			continue
		}
		graded++
		if answer.MatchMove(move.Value, solution) {
			solved++
		}
	}

	exact := graded > 0
	if !exact {
		solved = roundHalfUp(float64(len(moves)) * chessHeuristicRate)
	}

	bonus := timeBonus(elapsedMs, maxMs, chessTimeWeight)
	score := solved*chessPointsPerSolved + bonus

	return VerificationResult{
		Valid: true,
		Score: score,
		Details: map[string]any{
			"movesSubmitted": len(moves),
			"puzzlesSolved":  solved,
			"exactMatch":     exact,
			"timeBonus":      bonus,
		},
	}
}
