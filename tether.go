package tether

import (
	"log/slog"
	"time"

	"github.com/aretw0/tether/internal/platform"
	"github.com/aretw0/tether/pkg/core"
)

// --- Types ---

// Service is the command dispatcher; see core.Service.
type Service = core.Service

// Notification is a pending entry awaiting display.
type Notification = core.Notification

// Fields holds the non-tag fields of a decoded command.
type Fields = core.Fields

// Event represents a change in the notification store.
type Event = core.Event

// Diagnostic is the outbound record written on dispatch failures.
type Diagnostic = core.Diagnostic

// --- Configuration ---

// Option defines a functional option for configuring the bridge.
type Option = platform.Option

// WithStore injects a custom notification store.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithSpoolDir persists pending notifications as YAML files under dir.
func WithSpoolDir(dir string) Option {
	return platform.WithSpoolDir(dir)
}

// WithVibrator wires the vibration motor driver.
func WithVibrator(v core.Vibrator) Option {
	return platform.WithVibrator(v)
}

// WithDisplay wires the display driver.
func WithDisplay(d core.Display) Option {
	return platform.WithDisplay(d)
}

// WithScheduler wires the external alarm scheduler.
func WithScheduler(s core.Scheduler) Option {
	return platform.WithScheduler(s)
}

// WithTransport wires the outbound diagnostic channel.
func WithTransport(t core.Transport) Option {
	return platform.WithTransport(t)
}

// WithFilters sets the notification admission filters.
func WithFilters(entries ...string) Option {
	return platform.WithFilters(entries...)
}

// WithNotifyLevel sets the user's notify level.
func WithNotifyLevel(level int) Option {
	return platform.WithNotifyLevel(level)
}

// WithNotifyDuration sets the vibration pulse length.
func WithNotifyDuration(d time.Duration) Option {
	return platform.WithNotifyDuration(d)
}

// WithLogger sets the logger for the service and adapters.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithEventBuffer sets the store event channel capacity.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// --- Factory ---

// New creates a new bridge Service.
func New(opts ...Option) (*core.Service, error) {
	return platform.New(opts...)
}
