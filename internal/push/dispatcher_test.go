package push

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/relaynotify/notifyd/internal/budget"
	"github.com/relaynotify/notifyd/internal/deliverylog"
	"github.com/relaynotify/notifyd/internal/registry"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []string
	fail     error
	blockFor time.Duration
}

func (f *fakeSender) Send(ctx context.Context, d registry.Device, n Notification) error {
	if f.blockFor > 0 {
		select {
		case <-time.After(f.blockFor):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, d.ID)
	return f.fail
}

func newTestDispatcher(t *testing.T, limit int, sender Sender) (*Dispatcher, *registry.MemoryRegistry, *deliverylog.MemoryLog, *budget.Gate) {
	t.Helper()
	reg := registry.NewMemory()
	if err := reg.Register(context.Background(), registry.Device{ID: "dev-1", Platform: registry.PlatformAPNs, Token: "tok"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	log := deliverylog.NewMemory()
	gate := budget.New(limit, budget.Discard{}, nil)
	d := NewDispatcher(reg, sender, gate, nil, log, nil)
	return d, reg, log, gate
}

func TestDispatchSucceeds(t *testing.T) {
	sender := &fakeSender{}
	d, _, log, _ := newTestDispatcher(t, 5, sender)

	if err := d.Dispatch(context.Background(), "dev-1", Notification{Title: "hi"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for len(log.Attempts) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("no delivery attempt recorded")
		}
		time.Sleep(time.Millisecond)
	}
	if log.Attempts[0].Outcome != deliverylog.OutcomeSent {
		t.Fatalf("outcome = %v, want sent", log.Attempts[0].Outcome)
	}
}

func TestDispatchUnknownDeviceFails(t *testing.T) {
	sender := &fakeSender{}
	d, _, _, _ := newTestDispatcher(t, 5, sender)

	if err := d.Dispatch(context.Background(), "missing", Notification{}); err == nil {
		t.Fatalf("expected error for unknown device")
	}
}

func TestDispatchRejectedOverBudget(t *testing.T) {
	sender := &fakeSender{blockFor: time.Hour}
	d, _, log, gate := newTestDispatcher(t, 1, sender)

	if err := d.Dispatch(context.Background(), "dev-1", Notification{}); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for gate.Size() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("first task never became live")
		}
		time.Sleep(time.Millisecond)
	}

	err := d.Dispatch(context.Background(), "dev-1", Notification{})
	if !errors.Is(err, ErrOverBudget) {
		t.Fatalf("want ErrOverBudget, got %v", err)
	}

	deadline = time.Now().Add(time.Second)
	for len(log.Attempts) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("rejected attempt not recorded")
		}
		time.Sleep(time.Millisecond)
	}
	if log.Attempts[0].Outcome != deliverylog.OutcomeRejected {
		t.Fatalf("outcome = %v, want rejected", log.Attempts[0].Outcome)
	}

	gate.ShutdownGraceful()
}

func TestDispatchRateLimited(t *testing.T) {
	sender := &fakeSender{}
	reg := registry.NewMemory()
	_ = reg.Register(context.Background(), registry.Device{ID: "dev-1", Platform: registry.PlatformFCM, Token: "tok"})
	log := deliverylog.NewMemory()
	gate := budget.New(5, budget.Discard{}, nil)
	limiter := NewProviderLimiter(0, 1) // zero rate: first call consumes burst, rest denied
	d := NewDispatcher(reg, sender, gate, limiter, log, nil)

	_ = d.Dispatch(context.Background(), "dev-1", Notification{})
	err := d.Dispatch(context.Background(), "dev-1", Notification{})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("want ErrRateLimited, got %v", err)
	}
}
