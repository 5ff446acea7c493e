package results

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"Olympics-Scoring/pkg/logger"
)

// RetryPublisher 包装底层发布器：投递失败的事件进入内存重试
// 队列，由后台协程按指数退避重投。成绩事件允许延迟，不允许
// 静默丢失。
type RetryPublisher struct {
	inner    Publisher
	pending  chan Event
	log      *slog.Logger
	interval time.Duration
	maxDelay time.Duration

	once   sync.Once
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRetryPublisher 创建带重试的发布器，bufferSize 决定最多积压
// 多少条待重投事件。
func NewRetryPublisher(inner Publisher, bufferSize int) *RetryPublisher {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &RetryPublisher{
		inner:    inner,
		pending:  make(chan Event, bufferSize),
		log:      logger.Named("results"),
		interval: time.Second,
		maxDelay: 30 * time.Second,
	}
}

// Start 启动后台重投协程，ctx 取消或调用 Close 后停止。
func (p *RetryPublisher) Start(ctx context.Context) {
	p.once.Do(func() {
		ctx, p.cancel = context.WithCancel(ctx)
		p.wg.Add(1)
		go p.retryLoop(ctx)
	})
}

// Publish 先尝试直投，失败则转入重试队列。队列已满时丢弃并
// 记录错误，这是最后的背压手段。
func (p *RetryPublisher) Publish(ctx context.Context, event Event) error {
	err := p.inner.Publish(ctx, event)
	if err == nil {
		return nil
	}
	select {
	case p.pending <- event:
		p.log.Warn("成绩事件直投失败，已入重试队列", "event_id", event.ID, "error", err)
		return nil
	default:
		p.log.Error("重试队列已满，丢弃成绩事件", "event_id", event.ID, "error", err)
		return err
	}
}

func (p *RetryPublisher) retryLoop(ctx context.Context) {
	defer p.wg.Done()
	delay := p.interval
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-p.pending:
			if err := p.inner.Publish(ctx, event); err != nil {
				p.log.Warn("成绩事件重投失败", "event_id", event.ID, "error", err)
				// 重新排队并退避，避免打爆下游。
				select {
				case p.pending <- event:
				default:
					p.log.Error("重试队列已满，丢弃成绩事件", "event_id", event.ID)
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
				delay *= 2
				if delay > p.maxDelay {
					delay = p.maxDelay
				}
				continue
			}
			delay = p.interval
		}
	}
}

// Close 停止后台协程、等待其退出并关闭底层发布器。
func (p *RetryPublisher) Close() error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return p.inner.Close()
}
