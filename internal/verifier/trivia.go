package verifier

import "strings"

// 问答任务的计分参数。0.5 的正确率估计与 5 题的完成门槛
// 是历史口径，不要"顺手优化"。
const (
	triviaAttemptCeiling   = 10
	triviaCompletionFloor  = 5
	triviaCompletionPoints = 250
	triviaPointsPerCorrect = 110
	triviaCorrectRate      = 0.5
	triviaTimeWeight       = 200.0
)

// verifyTrivia 校验常识问答任务：完成度（至少答满 5 题）、
// 按固定正确率折算的质量分，以及剩余时间奖励。
func verifyTrivia(actions []ActionRecord, elapsedMs, maxMs int64) VerificationResult {
	attempted := 0
	for _, action := range successful(actions, ActionTypeType, ActionTypeSubmit, ActionTypeSelect) {
		if strings.TrimSpace(action.Value) == "" {
			continue
		}
		attempted++
	}
	attempted = capCount(attempted, triviaAttemptCeiling)
	if attempted == 0 {
		return invalidResult("no answers submitted")
	}

	completion := 0
	if attempted >= triviaCompletionFloor {
		completion = triviaCompletionPoints
	}
	estimatedCorrect := roundHalfUp(float64(attempted) * triviaCorrectRate)
	bonus := timeBonus(elapsedMs, maxMs, triviaTimeWeight)
	score := completion + estimatedCorrect*triviaPointsPerCorrect + bonus

	return VerificationResult{
		Valid: true,
		Score: score,
		Details: map[string]any{
			"questionsAttempted": attempted,
			"correctAnswers":     estimatedCorrect,
			"completionBonus":    completion,
			"timeBonus":          bonus,
		},
	}
}
