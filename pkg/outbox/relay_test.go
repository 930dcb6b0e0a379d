package outbox

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type fakeStore struct {
	mu      sync.Mutex
	pending []Event
	sent    []int64
	failed  map[int64]string
}

func (f *fakeStore) LockBatch(_ context.Context, _ string, batchSize int, _ time.Duration) ([]Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := min(batchSize, len(f.pending))
	batch := f.pending[:n]
	f.pending = f.pending[n:]
	return batch, nil
}

func (f *fakeStore) MarkSent(_ context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, ids...)
	return nil
}

func (f *fakeStore) MarkFailed(_ context.Context, id int64, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed == nil {
		f.failed = map[int64]string{}
	}
	f.failed[id] = errMsg
	return nil
}

func (f *fakeStore) snapshot() ([]int64, map[int64]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sent := append([]int64(nil), f.sent...)
	failed := make(map[int64]string, len(f.failed))
	for k, v := range f.failed {
		failed[k] = v
	}
	return sent, failed
}

type fakeProducer struct {
	mu       sync.Mutex
	messages []kafka.Message
	failKeys map[string]bool
}

func (f *fakeProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		if f.failKeys[string(m.Key)] {
			return errors.New("broker unavailable")
		}
		f.messages = append(f.messages, m)
	}
	return nil
}

func quietLog() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRelayPublishesPendingEvents(t *testing.T) {
	store := &fakeStore{pending: []Event{
		{ID: 1, AggregateID: "order-1", Type: "order.placed", Payload: []byte(`{}`), Traceparent: "00-abc-def-01"},
		{ID: 2, AggregateID: "order-2", Type: "order.placed", Payload: []byte(`{}`)},
	}}
	producer := &fakeProducer{}
	relay := NewRelay(quietLog(), store, NewDispatcher(quietLog(), producer, "orders.events"), "relay-test")
	relay.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	waitFor(t, func() bool {
		sent, _ := store.snapshot()
		return len(sent) == 2
	})
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("relay returned %v", err)
	}

	producer.mu.Lock()
	defer producer.mu.Unlock()
	if len(producer.messages) != 2 {
		t.Fatalf("published = %d, want 2", len(producer.messages))
	}
	first := producer.messages[0]
	if string(first.Key) != "order-1" {
		t.Fatalf("message key = %s, want order-1", first.Key)
	}
	var gotTrace string
	for _, h := range first.Headers {
		if h.Key == "traceparent" {
			gotTrace = string(h.Value)
		}
	}
	if gotTrace != "00-abc-def-01" {
		t.Fatalf("traceparent header = %q", gotTrace)
	}
}

func TestRelayMarksFailedAndKeepsGoing(t *testing.T) {
	store := &fakeStore{pending: []Event{
		{ID: 1, AggregateID: "order-bad", Type: "order.placed", Payload: []byte(`{}`)},
		{ID: 2, AggregateID: "order-good", Type: "order.placed", Payload: []byte(`{}`)},
	}}
	producer := &fakeProducer{failKeys: map[string]bool{"order-bad": true}}
	relay := NewRelay(quietLog(), store, NewDispatcher(quietLog(), producer, "orders.events"), "relay-test")
	relay.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	waitFor(t, func() bool {
		sent, failed := store.snapshot()
		return len(sent) == 1 && len(failed) == 1
	})
	cancel()
	<-done

	sent, failed := store.snapshot()
	if len(sent) != 1 || sent[0] != 2 {
		t.Fatalf("sent = %v, want [2]", sent)
	}
	if failed[1] == "" {
		t.Fatal("failed event must record the dispatch error")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition not met before deadline")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
