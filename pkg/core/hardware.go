package core

import (
	"context"
	"time"
)

// Collaborator interfaces. The drivers behind them (motor pin, screen,
// alarm queue, wire protocol) live outside this core; the dispatcher
// only ever talks to these contracts.

// Vibrator drives the vibration motor. Pin(true) keeps the motor
// running until Pin(false); Pulse runs it for a bounded duration.
type Vibrator interface {
	Pin(on bool)
	PinState() bool
	Pulse(d time.Duration)
}

// View names a UI surface the display can switch to.
type View string

// ViewNotifier is the notification viewer surface.
const ViewNotifier View = "notifier"

// Display wakes the screen and switches the foreground view.
type Display interface {
	Wake()
	Switch(v View)
}

// Scheduler registers one-shot delayed callbacks with the external
// alarm queue. Entries are identified by key: arming an already-armed
// key replaces the pending entry, and Cancel is cancel-by-identity.
// The scheduler owns the entries; this core only registers and cancels.
type Scheduler interface {
	Arm(key string, at time.Time, fn func())
	Cancel(key string)
}

// Transport carries diagnostic records back across the transport
// boundary to the companion.
type Transport interface {
	WriteDiagnostic(ctx context.Context, d Diagnostic) error
}

// No-op fallbacks used when a collaborator is not wired in, so a
// headless service (tests, host-side tooling) stays usable.

type nopVibrator struct{ on bool }

func (v *nopVibrator) Pin(on bool)           { v.on = on }
func (v *nopVibrator) PinState() bool        { return v.on }
func (v *nopVibrator) Pulse(d time.Duration) {}

type nopDisplay struct{}

func (nopDisplay) Wake()         {}
func (nopDisplay) Switch(v View) {}

type nopScheduler struct{}

func (nopScheduler) Arm(key string, at time.Time, fn func()) {}
func (nopScheduler) Cancel(key string)                       {}

type nopTransport struct{}

func (nopTransport) WriteDiagnostic(ctx context.Context, d Diagnostic) error { return nil }
