package main

import (
	"log/slog"
	"time"

	"github.com/aretw0/tether/pkg/core"
)

// Host-side stand-ins for the device drivers. They log what the real
// hardware would do, which is exactly what a protocol replay session
// needs to see.

type logVibrator struct {
	logger *slog.Logger
	on     bool
}

func (v *logVibrator) Pin(on bool) {
	v.on = on
	v.logger.Info("vibrator pin", "on", on)
}

func (v *logVibrator) PinState() bool { return v.on }

func (v *logVibrator) Pulse(d time.Duration) {
	v.logger.Info("vibrator pulse", "duration", d)
}

type logDisplay struct {
	logger *slog.Logger
}

func (d *logDisplay) Wake() {
	d.logger.Info("display wake")
}

func (d *logDisplay) Switch(v core.View) {
	d.logger.Info("display switch", "view", string(v))
}

var _ core.Vibrator = (*logVibrator)(nil)
var _ core.Display = (*logDisplay)(nil)
