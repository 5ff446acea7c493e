package judge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"Olympics-Scoring/internal/observability/metrics"
	"Olympics-Scoring/pkg/logger"
)

// ServiceConfig 描述评审服务的构造参数。
type ServiceConfig struct {
	Rubrics RubricTable

	// RouterKey 配置后启用多模型路由端点（评审团模式的前提），
	// 所有调用经过共享熔断器。
	RouterKey     string
	RouterBaseURL string

	// APIKey/BaseURL 为单一供应商直连的降级通道。
	APIKey  string
	BaseURL string

	Timeout         time.Duration
	BreakerCooldown time.Duration
}

// Service 负责主观任务的大模型评审：量表查找、提示词拼装、
// 调用与解析，以及评审团的中位数聚合。
type Service struct {
	rubrics RubricTable
	shared  Caller
	direct  Caller
	timeout time.Duration
	logger  *slog.Logger
}

// NewService 构造评审服务。两条传输通道都未配置时服务仍可用，
// 只是所有评审都会落到固定的错误裁决。
func NewService(cfg ServiceConfig) (*Service, error) {
	rubrics := cfg.Rubrics
	if rubrics == nil {
		rubrics = DefaultRubrics()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	service := &Service{
		rubrics: rubrics,
		timeout: timeout,
		logger:  logger.Named("judge"),
	}

	if strings.TrimSpace(cfg.RouterKey) != "" {
		baseURL := cfg.RouterBaseURL
		if baseURL == "" {
			baseURL = defaultRouterBaseURL
		}
		inner, err := NewHTTPCaller(HTTPCallerConfig{
			APIKey:  cfg.RouterKey,
			BaseURL: baseURL,
			Timeout: timeout,
		})
		if err != nil {
			return nil, err
		}
		service.shared = NewBreakerCaller(inner, cfg.BreakerCooldown)
	}

	if strings.TrimSpace(cfg.APIKey) != "" {
		direct, err := NewHTTPCaller(HTTPCallerConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Timeout: timeout,
		})
		if err != nil {
			return nil, err
		}
		service.direct = direct
	}

	if service.shared == nil && service.direct == nil {
		logger.L().Warn("评审服务未配置任何传输通道，所有评审将返回默认裁决")
	}
	return service, nil
}

// PanelReady 报告评审团模式是否可用（已配置路由密钥）。
func (s *Service) PanelReady() bool {
	return s.shared != nil
}

// Judge 以单评审模式为提交物打分。评审模型按选手家族跨家族选择。
// 任何失败都转化为固定的默认裁决，绝不向调用方抛错。
func (s *Service) Judge(ctx context.Context, taskType string, submission any, competitorModel string) Verdict {
	rubric, ok := s.rubrics.Lookup(taskType)
	if !ok {
		return noRubricVerdict()
	}
	return s.judgeOnce(ctx, rubric, submission, JudgeModelFor(competitorModel))
}

// Panel 以评审团模式为提交物打分：三个固定跨家族模型并发评审，
// 彼此独立等待，取存活分数的中位数。路由密钥缺失时透明降级为
// 单评审模式。
func (s *Service) Panel(ctx context.Context, taskType string, submission any) Verdict {
	rubric, ok := s.rubrics.Lookup(taskType)
	if !ok {
		return noRubricVerdict()
	}
	if s.shared == nil {
		s.logger.Debug("缺少路由密钥，评审团降级为单评审")
		return s.judgeOnce(ctx, rubric, submission, JudgeModelFor(""))
	}

	models := PanelModels()
	verdicts := make([]Verdict, len(models))
	succeeded := make([]bool, len(models))

	var wg sync.WaitGroup
	for i, model := range models {
		wg.Add(1)
		go func(idx int, model string) {
			defer wg.Done()
			verdicts[idx], succeeded[idx] = s.panelCall(ctx, rubric, submission, model)
		}(i, model)
	}
	wg.Wait()

	survivors := make([]Verdict, 0, len(models))
	for i := range verdicts {
		if succeeded[i] {
			survivors = append(survivors, verdicts[i])
		}
	}
	if len(survivors) == 0 {
		return panelFailureVerdict()
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Score < survivors[j].Score
	})
	median := survivors[len(survivors)/2].Score

	chosen := survivors[0]
	for _, verdict := range survivors {
		if verdict.Score == median {
			chosen = verdict
			break
		}
	}

	scores := make([]string, len(survivors))
	for i, verdict := range survivors {
		scores[i] = fmt.Sprintf("%d", verdict.Score)
	}

	return Verdict{
		Score:      median,
		Breakdown:  chosen.Breakdown,
		Feedback:   fmt.Sprintf("%d/%d judges responded. Scores: %s", len(survivors), len(models), strings.Join(scores, ", ")),
		JudgeModel: fmt.Sprintf("panel (%d judges)", len(survivors)),
	}
}

// judgeOnce 执行一次完整的"调用-解析"流程，失败时返回默认裁决。
func (s *Service) judgeOnce(ctx context.Context, rubric Rubric, submission any, model string) Verdict {
	text, err := s.complete(ctx, model, buildPrompt(rubric, submission))
	if err != nil {
		s.logger.Error("评审调用失败", slog.Any("error", err), slog.String("model", model))
		return errorVerdict(model)
	}
	return parseVerdict(text, model)
}

// panelCall 为评审团执行一次调用。调用失败与解析失败同等对待，
// 该评审从存活集合中剔除。
func (s *Service) panelCall(ctx context.Context, rubric Rubric, submission any, model string) (Verdict, bool) {
	text, err := s.complete(ctx, model, buildPrompt(rubric, submission))
	if err != nil {
		s.logger.Warn("评审团成员调用失败", slog.Any("error", err), slog.String("model", model))
		return Verdict{}, false
	}
	verdict, ok := tryParseVerdict(text, model)
	if !ok {
		s.logger.Warn("评审团成员回复无法解析", slog.String("model", model))
	}
	return verdict, ok
}

func (s *Service) complete(ctx context.Context, model, prompt string) (string, error) {
	caller := s.shared
	if caller == nil {
		caller = s.direct
	}
	if caller == nil {
		return "", fmt.Errorf("评审服务未配置传输通道")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := caller.Complete(callCtx, model, prompt)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.ObserveJudgeCall(model, outcome, time.Since(start))
	return text, err
}
