package results

import (
	"time"

	"github.com/google/uuid"
)

// Kind 枚举结果事件的类型。
type Kind string

const (
	// KindVerification 对应一次确定性校验器的打分。
	KindVerification Kind = "verification"
	// KindJudgement 对应一次 LLM 评审结果。
	KindJudgement Kind = "judgement"
	// KindSession 对应一次谜题会话提交。
	KindSession Kind = "session"
)

// Event 是投递给编排侧的终局成绩事件。一旦发出即视为不可变。
type Event struct {
	ID         string         `json:"id"`
	Kind       Kind           `json:"kind"`
	TaskType   string         `json:"task_type,omitempty"`
	GameType   string         `json:"game_type,omitempty"`
	AgentID    string         `json:"agent_id,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	Score      int            `json:"score"`
	Valid      bool           `json:"valid"`
	Details    map[string]any `json:"details,omitempty"`
	JudgeModel string         `json:"judge_model,omitempty"`
	OccurredAt int64          `json:"occurred_at"`
}

// NewEvent 创建一个带 ID 与时间戳的事件。
func NewEvent(kind Kind) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		OccurredAt: time.Now().UnixMilli(),
	}
}
