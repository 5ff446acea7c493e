package answer

import (
	"strconv"
	"strings"
	"unicode"
)

// Match 判断两个答案在忽略大小写的前提下是否一致。
// 若直接比较不相等，则进一步忽略所有空白字符后再比较一次，
// 以容忍 "new york" 与 "newyork" 这类纯排版差异。
func Match(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if strings.EqualFold(a, b) {
		return true
	}
	return strings.EqualFold(stripSpace(a), stripSpace(b))
}

// MatchMove 比较两个国际象棋着法。除 Match 的规则外，
// 还会剥离结尾的将军/绝杀记号（+ 与 #），因为同一步棋
// 是否带记号取决于客户端的记谱习惯。
func MatchMove(a, b string) bool {
	return Match(trimMoveSuffix(a), trimMoveSuffix(b))
}

func trimMoveSuffix(move string) string {
	move = strings.TrimSpace(move)
	for len(move) > 0 {
		last := move[len(move)-1]
		if last != '+' && last != '#' {
			break
		}
		move = move[:len(move)-1]
	}
	return move
}

// ParseNumber 宽松地解析数字答案，容忍前后空白与千分位逗号。
func ParseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, ",", "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// NumbersEqual 在允许微小浮点误差的前提下比较两个数字答案。
func NumbersEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-6
}

func stripSpace(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
