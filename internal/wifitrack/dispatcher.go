package wifitrack

import (
	"log/slog"
	"sync/atomic"
)

// notifyChanCapacity matches the teacher's rawNotifyCh/publicNotifyCh
// buffer size — large enough to absorb a burst of reconciliation
// passes without blocking the worker, small enough that a truly stuck
// consumer is detected (via dropped-notification logging) quickly.
const notifyChanCapacity = 64

// NotificationKind identifies which lifecycle/broadcast event a
// Notification carries.
type NotificationKind int

const (
	NotifyWifiStateChanged NotificationKind = iota
	NotifyEntriesChanged
	NotifyNumSavedChanged
	NotifyNumSavedSubscriptionsChanged
)

// Notification is one posted event. Only the fields relevant to Kind
// are populated.
type Notification struct {
	Kind                  NotificationKind
	WifiState             WifiState
	NumSaved              int
	NumSavedSubscriptions int
}

// Dispatcher marshals notifications onto the consumer's preferred
// thread (§4.H). Every notification is posted through a buffered
// channel; there is no synchronous call path — this is the one
// deliberate divergence from the teacher's StateCallback, which invokes
// consumers synchronously on its own fan-out goroutine. A Wi-Fi UI
// consumer must never be called back on the worker goroutine, so this
// module never offers that option.
//
// A nil listener is permitted: Post still runs, Listen's channel is
// simply never drained elsewhere if the caller chooses not to range
// over it.
type Dispatcher struct {
	ch      chan Notification
	logger  *slog.Logger
	stopped atomic.Bool
}

// NewDispatcher constructs a Dispatcher with the standard buffer size.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		ch:     make(chan Notification, notifyChanCapacity),
		logger: logger.With(slog.String("component", "dispatcher")),
	}
}

// Post enqueues n for delivery. Non-blocking: if the channel is full,
// the notification is logged and dropped rather than stalling the
// worker goroutine that produced it. After Stop, Post is a no-op —
// this is what makes testable property 5 ("no further listener calls
// are posted after on_stop") hold.
func (d *Dispatcher) Post(n Notification) {
	if d.stopped.Load() {
		return
	}
	select {
	case d.ch <- n:
	default:
		d.logger.Warn("notification channel full, dropping", slog.Int("kind", int(n.Kind)))
	}
}

// Listen returns the channel consumers range over to receive posted
// notifications, mirroring Manager.StateChanges().
func (d *Dispatcher) Listen() <-chan Notification {
	return d.ch
}

// Stop marks the dispatcher stopped; subsequent Post calls are no-ops.
// It does not close the channel, so a consumer mid-range over Listen()
// simply stops receiving rather than observing a close-triggered
// zero-value read.
func (d *Dispatcher) Stop() {
	d.stopped.Store(true)
}
