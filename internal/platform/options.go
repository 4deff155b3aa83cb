package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/tether/pkg/core"
)

// options holds the internal configuration for the bridge service.
type options struct {
	store     core.Store
	vibrator  core.Vibrator
	display   core.Display
	scheduler core.Scheduler
	transport core.Transport

	filters        []string
	notifyLevel    int
	notifyDuration time.Duration

	spoolDir    string
	logger      *slog.Logger
	eventBuffer int
	clock       func() time.Time
}

// Option defines a functional option for configuring the bridge.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		notifyLevel:    core.NotifyLevelSilent + 1,
		notifyDuration: core.DefaultNotifyDuration,
	}
}

// WithStore injects a custom notification store (e.g. mock, SQL).
// If provided, the default in-memory store and WithSpoolDir are skipped.
func WithStore(store core.Store) Option {
	return func(o *options) { o.store = store }
}

// WithSpoolDir persists pending notifications as YAML files under dir,
// so they survive a daemon restart.
func WithSpoolDir(dir string) Option {
	return func(o *options) { o.spoolDir = dir }
}

// WithVibrator wires the vibration motor driver.
func WithVibrator(v core.Vibrator) Option {
	return func(o *options) { o.vibrator = v }
}

// WithDisplay wires the display driver.
func WithDisplay(d core.Display) Option {
	return func(o *options) { o.display = d }
}

// WithScheduler wires the alarm scheduler. Defaults to the process-local
// timer scheduler.
func WithScheduler(s core.Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// WithTransport wires the outbound diagnostic channel back to the
// companion.
func WithTransport(t core.Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithFilters sets the notification admission filters. An empty list
// admits everything.
func WithFilters(entries ...string) Option {
	return func(o *options) { o.filters = entries }
}

// WithNotifyLevel sets the user's notify level. Levels at or below
// core.NotifyLevelSilent suppress vibration and wake sequences.
func WithNotifyLevel(level int) Option {
	return func(o *options) { o.notifyLevel = level }
}

// WithNotifyDuration sets the vibration pulse length.
func WithNotifyDuration(d time.Duration) Option {
	return func(o *options) { o.notifyDuration = d }
}

// WithLogger sets the logger for the service and adapters.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithEventBuffer sets the store event channel capacity.
func WithEventBuffer(size int) Option {
	return func(o *options) { o.eventBuffer = size }
}

// WithClock overrides the time source. Used by tests.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}
