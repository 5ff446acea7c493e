package judge

import (
	"encoding/json"
	"math"
	"strings"
)

// parseVerdict 从评审模型的自由文本回复中提取首个配平的顶层 JSON
// 对象并还原为 Verdict。提取或解析失败时返回固定的解析失败裁决。
func parseVerdict(text, model string) Verdict {
	verdict, ok := tryParseVerdict(text, model)
	if !ok {
		return parseFailureVerdict(model)
	}
	return verdict
}

// tryParseVerdict 与 parseVerdict 相同，但以布尔值报告解析是否成功，
// 供评审团按"存活裁决"聚合时区分失败与真实低分。
func tryParseVerdict(text, model string) (Verdict, bool) {
	payload, ok := extractJSONObject(text)
	if !ok {
		return Verdict{}, false
	}

	var decoded struct {
		Score     float64            `json:"score"`
		Breakdown map[string]float64 `json:"breakdown"`
		Feedback  string             `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return Verdict{}, false
	}

	breakdown := make(map[string]int, len(decoded.Breakdown))
	for criterion, value := range decoded.Breakdown {
		breakdown[criterion] = int(math.Round(value))
	}

	return Verdict{
		Score:      clampVerdictScore(decoded.Score),
		Breakdown:  breakdown,
		Feedback:   strings.TrimSpace(decoded.Feedback),
		JudgeModel: model,
	}, true
}

// clampVerdictScore 将评审分四舍五入并收敛到 [0,1000]。
func clampVerdictScore(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	rounded := int(math.Round(score))
	if rounded < 0 {
		return 0
	}
	if rounded > 1000 {
		return 1000
	}
	return rounded
}

// extractJSONObject 扫描文本中第一个配平的顶层 JSON 对象。
// 扫描器会跳过字符串字面量内部的花括号与转义字符。
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
