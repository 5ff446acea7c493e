package judge

// Verdict 是一次主观任务评审的最终输出。Score 恒定落在 [0,1000]。
type Verdict struct {
	Score      int            `json:"score"`
	Breakdown  map[string]int `json:"breakdown"`
	Feedback   string         `json:"feedback"`
	JudgeModel string         `json:"judge_model"`
}

// 以下反馈文案是对外契约的一部分，调用方会按字面匹配，不要改动。
const (
	feedbackNoRubric    = "No rubric available for this task type."
	feedbackCallFailed  = "Judging service encountered an error."
	feedbackParseFailed = "Failed to parse judge response."
	feedbackPanelFailed = "All panel judges failed."
)

// neutralScore 是所有降级路径的中性默认分。
const neutralScore = 500

func noRubricVerdict() Verdict {
	return Verdict{
		Score:     neutralScore,
		Breakdown: map[string]int{},
		Feedback:  feedbackNoRubric,
	}
}

func errorVerdict(model string) Verdict {
	return Verdict{
		Score:      neutralScore,
		Breakdown:  map[string]int{},
		Feedback:   feedbackCallFailed,
		JudgeModel: model,
	}
}

func parseFailureVerdict(model string) Verdict {
	return Verdict{
		Score:      neutralScore,
		Breakdown:  map[string]int{},
		Feedback:   feedbackParseFailed,
		JudgeModel: model,
	}
}

func panelFailureVerdict() Verdict {
	return Verdict{
		Score:     neutralScore,
		Breakdown: map[string]int{},
		Feedback:  feedbackPanelFailed,
	}
}
