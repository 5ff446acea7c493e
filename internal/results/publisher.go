package results

import (
	"context"
	"encoding/json"
	"sync"

	xerrors "Olympics-Scoring/internal/errors"
)

// Publisher 负责把成绩事件投递给下游编排侧。
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// MemoryPublisher 把事件留在进程内，用于开发与测试。
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event

	// 测试用的故障注入开关。
	PublishErr error
}

// NewMemoryPublisher 创建一个内存发布器。
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish 记录一条事件。
func (p *MemoryPublisher) Publish(_ context.Context, event Event) error {
	if p.PublishErr != nil {
		return p.PublishErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events 返回已记录的事件副本。
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// Close 对内存发布器是空操作。
func (p *MemoryPublisher) Close() error { return nil }

func encodeEvent(event Event) ([]byte, error) {
	encoded, err := json.Marshal(event)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodePublishFailure, err, "序列化成绩事件失败")
	}
	return encoded, nil
}
