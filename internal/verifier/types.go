package verifier

// ActionType 枚举了动作轨迹中允许出现的交互类型。
type ActionType string

const (
	ActionTypeClick      ActionType = "click"
	ActionTypeType       ActionType = "type"
	ActionTypeNavigate   ActionType = "navigate"
	ActionTypeSubmit     ActionType = "submit"
	ActionTypeSelect     ActionType = "select"
	ActionTypeScroll     ActionType = "scroll"
	ActionTypeWait       ActionType = "wait"
	ActionTypeScreenshot ActionType = "screenshot"
	ActionTypeDone       ActionType = "done"
)

// IsValidActionType 检查给定的动作类型是否为支持的枚举值。
func IsValidActionType(t ActionType) bool {
	switch t {
	case ActionTypeClick, ActionTypeType, ActionTypeNavigate, ActionTypeSubmit,
		ActionTypeSelect, ActionTypeScroll, ActionTypeWait, ActionTypeScreenshot, ActionTypeDone:
		return true
	default:
		return false
	}
}

// ActionRecord 描述智能体在限时任务中执行的一次界面操作。
// 该记录由外部的调度层产生，校验器只读不写。
type ActionRecord struct {
	Timestamp int64             `json:"timestamp"`
	AgentID   string            `json:"agent_id"`
	Type      ActionType        `json:"type"`
	Success   bool              `json:"success"`
	Target    string            `json:"target,omitempty"`
	Value     string            `json:"value,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// VerificationResult 是校验器的唯一输出。Score 恒定落在 [0,1000]，
// Details 中的键按任务类型约定，调用方只做展示不做解释。
type VerificationResult struct {
	Valid   bool           `json:"valid"`
	Score   int            `json:"score"`
	Details map[string]any `json:"details"`
}
