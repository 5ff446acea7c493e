package judge

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	submissionStartMarker = "=== SUBMISSION START ==="
	submissionEndMarker   = "=== SUBMISSION END ==="
)

// buildPrompt 将量表与提交物拼装为评审提示词。
// 非字符串的提交物会被美化为 JSON 再内插。
func buildPrompt(rubric Rubric, submission any) string {
	var builder strings.Builder
	builder.WriteString("You are an impartial judge for a timed AI competition.\n\n")
	builder.WriteString("Rubric (maximum score ")
	builder.WriteString(fmt.Sprintf("%d", rubric.MaxScore))
	builder.WriteString("):\n")
	builder.WriteString(rubric.Text)
	builder.WriteString("\n\n")
	builder.WriteString(submissionStartMarker)
	builder.WriteString("\n")
	builder.WriteString(renderSubmission(submission))
	builder.WriteString("\n")
	builder.WriteString(submissionEndMarker)
	builder.WriteString("\n\n")
	builder.WriteString("Respond with ONLY a JSON object of the form ")
	builder.WriteString(`{"score": <integer 0-1000>, "breakdown": {<criterion>: <integer>}, "feedback": <string>}`)
	builder.WriteString(" and nothing else.")
	return builder.String()
}

func renderSubmission(submission any) string {
	if text, ok := submission.(string); ok {
		return text
	}
	pretty, err := json.MarshalIndent(submission, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", submission)
	}
	return string(pretty)
}
