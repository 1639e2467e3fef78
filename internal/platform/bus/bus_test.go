package bus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesforge/platform/internal/domain"
	"github.com/salesforge/platform/internal/platform/config"
)

// recordingHandler collects every signal it receives.
type recordingHandler struct {
	name string

	mu       sync.Mutex
	received []domain.Signal
	entered  chan struct{} // when non-nil, receives once per Handle call on entry
	block    chan struct{} // when non-nil, Handle waits on it before returning
	delay    time.Duration // when set, Handle sleeps before returning
	err      error
}

func (h *recordingHandler) Name() string { return h.name }

func (h *recordingHandler) Handle(_ context.Context, sig domain.Signal) error {
	if h.entered != nil {
		h.entered <- struct{}{}
	}
	if h.block != nil {
		<-h.block
	}
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	h.mu.Lock()
	h.received = append(h.received, sig)
	h.mu.Unlock()
	return h.err
}

func (h *recordingHandler) signals() []domain.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.Signal, len(h.received))
	copy(out, h.received)
	return out
}

func (h *recordingHandler) waitFor(t *testing.T, n int) []domain.Signal {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sigs := h.signals(); len(sigs) >= n {
			return sigs
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d signals, got %d", n, len(h.signals()))
	return nil
}

func testSignal(sigType string) domain.Signal {
	return domain.NewSignal(sigType, "org-1", domain.SubjectLead, "lead-1", map[string]string{
		"status": "new",
	})
}

func newTestBus(t *testing.T, queueSize int) *Bus {
	t.Helper()
	b := New(config.BusConfig{QueueSize: queueSize, Workers: 2}, nil, slog.New(slog.DiscardHandler))
	t.Cleanup(b.Close)
	return b
}

func TestPublish_DeliversToSubscriber(t *testing.T) {
	t.Parallel()

	b := newTestBus(t, 16)
	h := &recordingHandler{name: "scoring"}
	b.Subscribe(h, domain.SignalEmailOpened)
	b.Start()

	b.Publish(context.Background(), testSignal(domain.SignalEmailOpened))

	sigs := h.waitFor(t, 1)
	assert.Equal(t, domain.SignalEmailOpened, sigs[0].Type)
	assert.Equal(t, "org-1", sigs[0].OrgID)
}

func TestPublish_FiltersByType(t *testing.T) {
	t.Parallel()

	b := newTestBus(t, 16)
	opened := &recordingHandler{name: "opened-only"}
	all := &recordingHandler{name: "all"}
	b.Subscribe(opened, domain.SignalEmailOpened)
	b.Subscribe(all)
	b.Start()

	ctx := context.Background()
	b.Publish(ctx, testSignal(domain.SignalEmailOpened))
	b.Publish(ctx, testSignal(domain.SignalLeadCreated))

	allSigs := all.waitFor(t, 2)
	require.Len(t, allSigs, 2)

	openedSigs := opened.waitFor(t, 1)
	require.Len(t, openedSigs, 1)
	assert.Equal(t, domain.SignalEmailOpened, openedSigs[0].Type)
}

func TestPublish_DropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	b := New(config.BusConfig{QueueSize: 1, Workers: 1}, nil, slog.New(slog.DiscardHandler))
	t.Cleanup(b.Close)

	block := make(chan struct{})
	entered := make(chan struct{}, 4)
	slow := &recordingHandler{name: "slow", block: block, entered: entered}
	b.Subscribe(slow)
	b.Start()

	ctx := context.Background()
	// First signal occupies the single worker, second fills the queue,
	// third has nowhere to go and must be dropped without blocking.
	b.Publish(ctx, testSignal(domain.SignalLeadCreated))
	<-entered
	b.Publish(ctx, testSignal(domain.SignalLeadUpdated))

	done := make(chan struct{})
	go func() {
		b.Publish(ctx, testSignal(domain.SignalLeadConverted))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}

	close(block)
	sigs := slow.waitFor(t, 2)
	assert.Len(t, sigs, 2)
}

func TestPublish_HandlerErrorDoesNotStopDispatch(t *testing.T) {
	t.Parallel()

	b := newTestBus(t, 16)
	failing := &recordingHandler{name: "failing", err: errors.New("boom")}
	b.Subscribe(failing)
	b.Start()

	ctx := context.Background()
	b.Publish(ctx, testSignal(domain.SignalLeadCreated))
	b.Publish(ctx, testSignal(domain.SignalLeadUpdated))

	sigs := failing.waitFor(t, 2)
	assert.Len(t, sigs, 2)
}

func TestClose_DrainsQueuedSignals(t *testing.T) {
	t.Parallel()

	b := New(config.BusConfig{QueueSize: 64, Workers: 1}, nil, slog.New(slog.DiscardHandler))

	slow := &recordingHandler{name: "slow", delay: 10 * time.Millisecond}
	b.Subscribe(slow)
	b.Start()

	ctx := context.Background()
	const n = 10
	for range n {
		b.Publish(ctx, testSignal(domain.SignalLeadCreated))
	}

	// Every signal fit in the queue; Close must not return until the
	// worker has handled all of them.
	b.Close()
	assert.Len(t, slow.signals(), n)
}

func TestClose_PublishAfterCloseIsIgnored(t *testing.T) {
	t.Parallel()

	b := newTestBus(t, 16)
	h := &recordingHandler{name: "scoring"}
	b.Subscribe(h)
	b.Start()
	b.Close()

	assert.NotPanics(t, func() {
		b.Publish(context.Background(), testSignal(domain.SignalLeadCreated))
	})
	assert.Empty(t, h.signals())
}

func TestSubscribe_AfterStartPanics(t *testing.T) {
	t.Parallel()

	b := newTestBus(t, 16)
	b.Start()

	assert.Panics(t, func() {
		b.Subscribe(&recordingHandler{name: "late"})
	})
}
