package judge

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	xerrors "Olympics-Scoring/internal/errors"
)

// 熔断阈值是可调参数而非硬性契约：连续失败 5 次进入熔断，
// 冷却期结束后放行一次探测请求。
const breakerFailureThreshold = 5

// BreakerCaller 以进程级共享的熔断器包装底层 Caller。
// 上游持续故障时快速失败，不再发起网络请求。
type BreakerCaller struct {
	inner   Caller
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerCaller 创建带熔断的评审调用器。
func NewBreakerCaller(inner Caller, cooldown time.Duration) *BreakerCaller {
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:        "judge-endpoint",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
	}
	return &BreakerCaller{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Complete 实现 Caller。熔断打开时立即返回统一错误。
func (c *BreakerCaller) Complete(ctx context.Context, model, prompt string) (string, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.inner.Complete(ctx, model, prompt)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", xerrors.Wrap(xerrors.CodeBreakerOpen, err, "评审端点熔断中")
		}
		return "", err
	}
	text, _ := result.(string)
	return text, nil
}
