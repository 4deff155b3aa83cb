package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// handleCall raises a call alert. The call state must be "incoming" or
// "outgoing"; anything else ("reject", "start", ...) is a handler
// failure and produces no call notification.
//
// Above silent mode the alert additionally wakes the display, switches
// to the notifier view, and schedules three short vibration pulses
// roughly 300ms apart. The pulses run through the external scheduler so
// the dispatch loop is never blocked waiting between them.
func (s *Service) handleCall(ctx context.Context, fields Fields) error {
	state, err := fields.String("cmd")
	if err != nil {
		return err
	}
	if state != "incoming" && state != "outgoing" {
		return fmt.Errorf("%q: %w", state, ErrInvalidCallState)
	}

	name := fields.StringOr("name", "")
	number := fields.StringOr("number", "")
	rest := joinFields(fields, "name", "number")

	n := Notification{
		ID:    IDCall,
		Title: strings.ToUpper(state),
		Body:  fmt.Sprintf("%s at %s\n%s", name, number, rest),
	}
	if err := s.store.Save(ctx, n); err != nil {
		return err
	}

	if s.notifyLevel <= NotifyLevelSilent {
		s.logger.Debug("call alert muted", "state", state)
		return nil
	}

	s.display.Wake()
	s.display.Switch(ViewNotifier)
	s.scheduleCallPulses()
	s.logger.Info("call alert raised", "state", state)
	return nil
}

// scheduleCallPulses registers the bounded pulse sequence. Each pulse
// has its own scheduler key, so a second call event re-arms the same
// three entries instead of stacking new ones.
func (s *Service) scheduleCallPulses() {
	now := s.clock()
	for i := 0; i < callPulseCount; i++ {
		key := fmt.Sprintf("%s-%d", callPulseKey, i)
		s.scheduler.Arm(key, now.Add(time.Duration(i)*callPulseGap), s.callPulse)
	}
}

func (s *Service) callPulse() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vibrator.Pulse(s.notifyDuration)
}
