// Package push dispatches notifications to devices through the Thread
// Budget admission controller, so that a provider connection that blocks
// for seconds can never accumulate unboundedly many in-flight goroutines.
package push

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/relaynotify/notifyd/internal/budget"
	"github.com/relaynotify/notifyd/internal/deliverylog"
	"github.com/relaynotify/notifyd/internal/observability"
	"github.com/relaynotify/notifyd/internal/registry"
	"github.com/relaynotify/notifyd/internal/zlog"
)

// ErrOverBudget is returned when the Thread Budget rejected the delivery
// attempt; the caller made no network call.
var ErrOverBudget = errors.New("push: thread budget exhausted, delivery dropped")

// ErrRateLimited is returned when the per-provider rate limiter denied the
// attempt before it could consume a budget slot.
var ErrRateLimited = errors.New("push: provider rate limit exceeded")

// Notification is the payload to deliver to one device.
type Notification struct {
	Title   string
	Body    string
	Payload map[string]string
}

// Sender performs the actual outbound call to a push provider. Real
// implementations wrap an HTTP client to APNs/FCM; tests supply a fake.
type Sender interface {
	Send(ctx context.Context, d registry.Device, n Notification) error
}

// Dispatcher wires the Device Registry, the per-provider rate limiter, the
// Thread Budget, and the Delivery Log together.
type Dispatcher struct {
	registry registry.Registry
	sender   Sender
	gate     *budget.Gate
	limiter  *ProviderLimiter
	log      deliverylog.Log
	logger   zlog.Logger
}

// NewDispatcher builds a Dispatcher. gate must already be constructed via
// budget.New; limiter may be nil to disable provider rate limiting.
func NewDispatcher(reg registry.Registry, sender Sender, gate *budget.Gate, limiter *ProviderLimiter, log deliverylog.Log, logger zlog.Logger) *Dispatcher {
	if limiter == nil {
		limiter = NewProviderLimiter(1e9, 1) // effectively unlimited
	}
	if logger == nil {
		logger = zlog.NewDiscard()
	}
	return &Dispatcher{registry: reg, sender: sender, gate: gate, limiter: limiter, log: log, logger: logger}
}

// Dispatch resolves deviceID, admits the send through the Thread Budget,
// and returns once the admission decision is made — it does not wait for
// the network call to complete.
func (d *Dispatcher) Dispatch(ctx context.Context, deviceID string, n Notification) error {
	device, err := d.registry.Lookup(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("push: resolving device %s: %w", deviceID, err)
	}

	if !d.limiter.Allow(string(device.Platform)) {
		observability.DeliveryRejections.WithLabelValues("rate_limited").Inc()
		d.recordAsync(deviceID, string(device.Platform), deliverylog.OutcomeRejected, "rate limited")
		return ErrRateLimited
	}

	attemptID := uuid.NewString()
	outcome := d.gate.TryRun(func(taskCtx context.Context) {
		d.run(taskCtx, attemptID, device, n)
	})

	if outcome == budget.Rejected {
		observability.DeliveryRejections.WithLabelValues("over_budget").Inc()
		d.recordAsync(deviceID, string(device.Platform), deliverylog.OutcomeRejected, "thread budget exhausted")
		return ErrOverBudget
	}
	return nil
}

// run executes inside the Worker Runner's goroutine and owns writing the
// terminal outcome to the Delivery Log; a write failure here is logged and
// swallowed, never propagated back through the budget.
func (d *Dispatcher) run(ctx context.Context, attemptID string, device registry.Device, n Notification) {
	provider := string(device.Platform)
	start := time.Now()
	err := d.sender.Send(ctx, device, n)
	observability.DeliveryLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	outcome := deliverylog.OutcomeSent
	detail := ""
	switch {
	case ctx.Err() != nil:
		outcome = deliverylog.OutcomeCancelled
		detail = ctx.Err().Error()
	case err != nil:
		outcome = deliverylog.OutcomeFailed
		detail = err.Error()
	}
	observability.DeliveryAttempts.WithLabelValues(provider, string(outcome)).Inc()

	d.record(attemptID, device.ID, provider, outcome, detail)
}

func (d *Dispatcher) record(attemptID, deviceID, provider string, outcome deliverylog.Outcome, detail string) {
	recordCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.log.Record(recordCtx, deliverylog.Attempt{
		ID:          attemptID,
		DeviceID:    deviceID,
		Provider:    provider,
		Outcome:     outcome,
		Detail:      detail,
		AttemptedAt: time.Now(),
	}); err != nil {
		d.logger.Warn("failed to record delivery attempt", "device_id", deviceID, "error", err)
	}
}

func (d *Dispatcher) recordAsync(deviceID, provider string, outcome deliverylog.Outcome, detail string) {
	go d.record(uuid.NewString(), deviceID, provider, outcome, detail)
}
