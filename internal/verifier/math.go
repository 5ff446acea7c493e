package verifier

import "Olympics-Scoring/internal/answer"

// 数学任务的计分参数。正确率估计值 0.6 是刻意保留的保守系数，
// 调整它会改变历史分数的口径。
const (
	mathAttemptCeiling    = 10
	mathPointsPerCorrect  = 100
	mathCorrectRate       = 0.6
	mathTimeWeight        = 400.0
)

// verifyMath 校验数学任务：统计成功提交的数字答案，
// 以固定正确率折算得分，并叠加剩余时间奖励。
func verifyMath(actions []ActionRecord, elapsedMs, maxMs int64) VerificationResult {
	attempted := 0
	for _, action := range successful(actions, ActionTypeType, ActionTypeSubmit) {
		if _, ok := answer.ParseNumber(action.Value); !ok {
			continue
		}
		attempted++
	}
	attempted = capCount(attempted, mathAttemptCeiling)
	if attempted == 0 {
		return invalidResult("no numeric answers submitted")
	}

	estimatedCorrect := roundHalfUp(float64(attempted) * mathCorrectRate)
	bonus := timeBonus(elapsedMs, maxMs, mathTimeWeight)
	score := estimatedCorrect*mathPointsPerCorrect + bonus

	return VerificationResult{
		Valid: true,
		Score: score,
		Details: map[string]any{
			"problemsAttempted": attempted,
			"correctAnswers":    estimatedCorrect,
			"timeBonus":         bonus,
		},
	}
}
