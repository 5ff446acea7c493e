package verifier

import "strings"

// 导航迷宫任务的计分参数。最优路径为 4 次点击，
// 每多一步在效率分上扣 50。
const (
	navigationGoalMarker      = "golden achievement"
	navigationOptimalClicks   = 4
	navigationCompletionScore = 400
	navigationEfficiencyScore = 300
	navigationStepPenalty     = 50
	navigationTimeWeight      = 300.0
)

// verifyNavigation 校验导航迷宫任务：必须以成功点击
// "Golden Achievement" 收尾才算完成，效率分按多余步数递减。
func verifyNavigation(actions []ActionRecord, elapsedMs, maxMs int64) VerificationResult {
	clicks := successful(actions, ActionTypeClick)
	if len(clicks) == 0 {
		return invalidResult("no successful clicks recorded")
	}

	last := clicks[len(clicks)-1]
	reached := strings.Contains(strings.ToLower(last.Target), navigationGoalMarker)

	completion := 0
	efficiency := 0
	if reached {
		completion = navigationCompletionScore
		efficiency = navigationEfficiencyScore
		if extra := len(clicks) - navigationOptimalClicks; extra > 0 {
			efficiency -= extra * navigationStepPenalty
			if efficiency < 0 {
				efficiency = 0
			}
		}
	}

	bonus := timeBonus(elapsedMs, maxMs, navigationTimeWeight)
	score := completion + efficiency + bonus

	return VerificationResult{
		Valid: true,
		Score: score,
		Details: map[string]any{
			"clicks":          len(clicks),
			"goalReached":     reached,
			"efficiencyScore": efficiency,
			"timeBonus":       bonus,
		},
	}
}
