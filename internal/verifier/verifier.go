package verifier

import "math"

// TaskType 枚举了校验器库支持的任务类型。
type TaskType string

const (
	TaskMath       TaskType = "math"
	TaskTrivia     TaskType = "trivia"
	TaskChess      TaskType = "chess"
	TaskNavigation TaskType = "navigation"
	TaskShopping   TaskType = "shopping"
	TaskMarket     TaskType = "market"
)

// verifyFunc 是单个任务校验器的签名：输入动作轨迹与耗时，输出评分。
// 校验器必须是纯函数：无 I/O、无共享状态、可重入。
type verifyFunc func(actions []ActionRecord, elapsedMs, maxMs int64) VerificationResult

// verifiers 是封闭的任务类型分发表。新增任务类型时必须同时补充
// 此表与 TaskTypes，保持两者一致。
var verifiers = map[TaskType]verifyFunc{
	TaskMath:       verifyMath,
	TaskTrivia:     verifyTrivia,
	TaskChess:      verifyChess,
	TaskNavigation: verifyNavigation,
	TaskShopping:   verifyShopping,
	TaskMarket:     verifyMarket,
}

// TaskTypes 返回所有支持的任务类型，顺序固定。
func TaskTypes() []TaskType {
	return []TaskType{TaskMath, TaskTrivia, TaskChess, TaskNavigation, TaskShopping, TaskMarket}
}

// Supported 判断任务类型是否存在对应的校验器。
func Supported(taskType TaskType) bool {
	_, ok := verifiers[taskType]
	return ok
}

// Verify 对动作轨迹执行确定性校验。未知任务类型或空轨迹一律返回
// {Valid:false, Score:0}，任何情况下都不会 panic。
func Verify(taskType TaskType, actions []ActionRecord, elapsedMs, maxMs int64) VerificationResult {
	fn, ok := verifiers[taskType]
	if !ok {
		return invalidResult("unsupported task type")
	}
	if len(actions) == 0 {
		return invalidResult("no actions recorded")
	}
	if maxMs <= 0 {
		maxMs = defaultMaxMs
	}
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	result := fn(actions, elapsedMs, maxMs)
	result.Score = clampScore(result.Score)
	if result.Details == nil {
		result.Details = map[string]any{}
	}
	return result
}

const defaultMaxMs = 300_000

func invalidResult(reason string) VerificationResult {
	return VerificationResult{
		Valid:   false,
		Score:   0,
		Details: map[string]any{"reason": reason},
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 1000 {
		return 1000
	}
	return score
}

// timeBonus 按剩余时间比例给分：耗时为 0 拿满 weight，
// 耗时达到或超过预算则为 0。
func timeBonus(elapsedMs, maxMs int64, weight float64) int {
	if maxMs <= 0 || elapsedMs >= maxMs {
		return 0
	}
	bonus := math.Round((1 - float64(elapsedMs)/float64(maxMs)) * weight)
	if bonus < 0 {
		return 0
	}
	return int(bonus)
}

// successful 过滤出指定类型且成功的动作。失败的动作从不计分。
func successful(actions []ActionRecord, types ...ActionType) []ActionRecord {
	var out []ActionRecord
	for _, action := range actions {
		if !action.Success {
			continue
		}
		if len(types) == 0 {
			out = append(out, action)
			continue
		}
		for _, t := range types {
			if action.Type == t {
				out = append(out, action)
				break
			}
		}
	}
	return out
}

// capCount 将尝试次数限制在任务约定的上限内，防止刷动作灌水。
func capCount(n, ceiling int) int {
	if n > ceiling {
		return ceiling
	}
	return n
}

func roundHalfUp(v float64) int {
	return int(math.Round(v))
}
