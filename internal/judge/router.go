package judge

import "strings"

// ModelFamily 标识大模型所属的供应商家族。
type ModelFamily string

const (
	FamilyOpenAI    ModelFamily = "openai"
	FamilyAnthropic ModelFamily = "anthropic"
	FamilyGoogle    ModelFamily = "google"
	FamilyUnknown   ModelFamily = "unknown"
)

// 评审模型按家族固定选型。选手归属某家族时，评审一定换用
// 另一家族的模型，降低同源偏好。
const (
	judgeModelOpenAI    = "openai/gpt-4o"
	judgeModelAnthropic = "anthropic/claude-sonnet-4"
	judgeModelGoogle    = "google/gemini-2.5-pro"
)

// FamilyOf 根据选手申报的模型名推断其家族。
func FamilyOf(competitorModel string) ModelFamily {
	name := strings.ToLower(strings.TrimSpace(competitorModel))
	switch {
	case name == "":
		return FamilyUnknown
	case strings.Contains(name, "gpt") || strings.Contains(name, "openai") || strings.Contains(name, "o1") || strings.Contains(name, "o3"):
		return FamilyOpenAI
	case strings.Contains(name, "claude") || strings.Contains(name, "anthropic"):
		return FamilyAnthropic
	case strings.Contains(name, "gemini") || strings.Contains(name, "google"):
		return FamilyGoogle
	default:
		return FamilyUnknown
	}
}

// JudgeModelFor 为选手选择评审模型：总是跨家族，未知家族走默认评审。
func JudgeModelFor(competitorModel string) string {
	switch FamilyOf(competitorModel) {
	case FamilyOpenAI:
		return judgeModelAnthropic
	case FamilyAnthropic:
		return judgeModelGoogle
	case FamilyGoogle:
		return judgeModelOpenAI
	default:
		return judgeModelAnthropic
	}
}

// PanelModels 返回评审团使用的三个固定跨家族模型。
func PanelModels() []string {
	return []string{judgeModelOpenAI, judgeModelAnthropic, judgeModelGoogle}
}
