package results

import (
	"context"
	"sync"
	"testing"
	"time"

	xerrors "Olympics-Scoring/internal/errors"
)

type flakyPublisher struct {
	mu       sync.Mutex
	failures int
	events   []Event
}

func (p *flakyPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return xerrors.New(xerrors.CodePublishFailure, "broker unavailable",
			xerrors.WithRetryable(true))
	}
	p.events = append(p.events, event)
	return nil
}

func (p *flakyPublisher) Close() error { return nil }

func (p *flakyPublisher) delivered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestNewEventPopulatesIdentity(t *testing.T) {
	event := NewEvent(KindVerification)
	if event.ID == "" {
		t.Fatalf("event should carry an id")
	}
	if event.Kind != KindVerification {
		t.Fatalf("kind = %q", event.Kind)
	}
	if event.OccurredAt == 0 {
		t.Fatalf("event should carry a timestamp")
	}
}

func TestMemoryPublisherRecordsEvents(t *testing.T) {
	pub := NewMemoryPublisher()
	event := NewEvent(KindSession)
	event.UserID = "u"
	event.Score = 230

	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	got := pub.Events()
	if len(got) != 1 || got[0].Score != 230 {
		t.Fatalf("unexpected recorded events: %+v", got)
	}
}

func TestRetryPublisherRedelivers(t *testing.T) {
	inner := &flakyPublisher{failures: 2}
	pub := NewRetryPublisher(inner, 8)
	pub.interval = 5 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pub.Start(ctx)

	if err := pub.Publish(ctx, NewEvent(KindJudgement)); err != nil {
		t.Fatalf("publish should absorb the transient failure: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for inner.delivered() == 0 {
		select {
		case <-deadline:
			t.Fatalf("event was never redelivered")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRetryPublisherCloseStopsLoop(t *testing.T) {
	inner := &flakyPublisher{}
	pub := NewRetryPublisher(inner, 8)
	pub.Start(context.Background())

	done := make(chan error, 1)
	go func() { done <- pub.Close() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("close should return without the start context being cancelled")
	}
}

func TestRetryPublisherRejectsWhenQueueFull(t *testing.T) {
	inner := &flakyPublisher{failures: 1 << 30}
	pub := NewRetryPublisher(inner, 1)

	ctx := context.Background()
	if err := pub.Publish(ctx, NewEvent(KindSession)); err != nil {
		t.Fatalf("first failure should be queued: %v", err)
	}
	if err := pub.Publish(ctx, NewEvent(KindSession)); err == nil {
		t.Fatalf("publish should surface the error once the queue is full")
	}
}
