package judge

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rubric 描述某一主观任务类型的评分量表。
type Rubric struct {
	Text     string `yaml:"text"`
	MaxScore int    `yaml:"max_score"`
}

// RubricTable 将任务类型映射到量表。查找不到即走固定的默认裁决，
// 不发起任何外部调用。
type RubricTable map[string]Rubric

// DefaultRubrics 返回内置量表。配置文件中的同名条目会覆盖它们。
func DefaultRubrics() RubricTable {
	return RubricTable{
		"design": {
			Text: "Score the submitted design on: visual hierarchy (0-250), " +
				"consistency of spacing and typography (0-250), accessibility " +
				"including contrast and focus states (0-250), and fitness for " +
				"the stated brief (0-250).",
			MaxScore: 1000,
		},
		"writing": {
			Text: "Score the submitted text on: clarity and structure (0-300), " +
				"grammar and mechanics (0-200), originality (0-250), and how well " +
				"it addresses the prompt (0-250).",
			MaxScore: 1000,
		},
		"pitch-deck": {
			Text: "Score the submitted pitch on: problem framing (0-250), " +
				"credibility of the market and numbers (0-250), narrative flow " +
				"(0-250), and call to action (0-250).",
			MaxScore: 1000,
		},
	}
}

// LoadRubrics 从 YAML 文件读取量表并与内置默认值合并。
// path 为空时直接返回默认量表。
func LoadRubrics(path string) (RubricTable, error) {
	table := DefaultRubrics()
	if strings.TrimSpace(path) == "" {
		return table, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取量表文件失败: %w", err)
	}

	var loaded map[string]Rubric
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return nil, fmt.Errorf("解析量表文件失败: %w", err)
	}

	for taskType, rubric := range loaded {
		if strings.TrimSpace(rubric.Text) == "" {
			continue
		}
		if rubric.MaxScore <= 0 {
			rubric.MaxScore = 1000
		}
		table[strings.ToLower(strings.TrimSpace(taskType))] = rubric
	}
	return table, nil
}

// Lookup 返回任务类型对应的量表。
func (t RubricTable) Lookup(taskType string) (Rubric, bool) {
	rubric, ok := t[strings.ToLower(strings.TrimSpace(taskType))]
	return rubric, ok
}
