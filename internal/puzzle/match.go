package puzzle

import (
	"Olympics-Scoring/internal/answer"
)

// answersMatch 判断用户答案是否正确。数值型答案按数值比较，
// 避免 "42" 与 "42.0" 这类表示差异造成误判；其余按归一化
// 文本比较。
func answersMatch(p *Puzzle, userAnswer string) bool {
	if expected, ok := answer.ParseNumber(p.CorrectAnswer); ok {
		if got, ok := answer.ParseNumber(userAnswer); ok {
			return answer.NumbersEqual(expected, got)
		}
		return false
	}
	return answer.Match(p.CorrectAnswer, userAnswer)
}
