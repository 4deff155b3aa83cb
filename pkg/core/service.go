package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// NotifyLevelSilent is the notify-level threshold at or below which
// vibration and wake sequences are suppressed. Notifications are still
// stored in silent mode; only the alerting side effects are skipped.
const NotifyLevelSilent = 1

// DefaultNotifyDuration is the vibration pulse length used when the
// user setting is not wired in.
const DefaultNotifyDuration = 500 * time.Millisecond

const (
	findTimeout    = 5 * time.Second
	findTimeoutKey = "find-timeout"

	callPulseCount = 3
	callPulseGap   = 300 * time.Millisecond
	callPulseKey   = "call-pulse"
)

// Config carries the collaborators and settings for a Service. Only
// Store is mandatory; absent hardware collaborators fall back to no-ops
// so the core stays usable headless.
type Config struct {
	Store     Store
	Vibrator  Vibrator
	Display   Display
	Scheduler Scheduler
	Transport Transport

	Filters        *FilterSet
	NotifyLevel    int
	NotifyDuration time.Duration

	Logger          *slog.Logger
	EventBufferSize int

	// Clock is the time source for scheduler deadlines. Defaults to
	// time.Now; tests inject a fixed clock.
	Clock func() time.Time
}

// Service is the command dispatcher plus its error-containment
// boundary. Dispatch executes to completion before the next message is
// processed; the mutex enforces that even when scheduler callbacks fire
// from another goroutine.
type Service struct {
	mu sync.Mutex

	store     Store
	vibrator  Vibrator
	display   Display
	scheduler Scheduler
	transport Transport

	filters        *FilterSet
	notifyLevel    int
	notifyDuration time.Duration

	logger          *slog.Logger
	eventBufferSize int
	clock           func() time.Time

	musicState Fields
	musicInfo  Fields
	weather    Fields
}

// NewService creates a Service from the given configuration, applying
// no-op fallbacks for absent collaborators.
func NewService(cfg Config) *Service {
	s := &Service{
		store:           cfg.Store,
		vibrator:        cfg.Vibrator,
		display:         cfg.Display,
		scheduler:       cfg.Scheduler,
		transport:       cfg.Transport,
		filters:         cfg.Filters,
		notifyLevel:     cfg.NotifyLevel,
		notifyDuration:  cfg.NotifyDuration,
		logger:          cfg.Logger,
		eventBufferSize: cfg.EventBufferSize,
		clock:           cfg.Clock,
	}
	if s.vibrator == nil {
		s.vibrator = &nopVibrator{}
	}
	if s.display == nil {
		s.display = nopDisplay{}
	}
	if s.scheduler == nil {
		s.scheduler = nopScheduler{}
	}
	if s.transport == nil {
		s.transport = nopTransport{}
	}
	if s.filters == nil {
		s.filters = NewFilterSet()
	}
	if s.notifyDuration <= 0 {
		s.notifyDuration = DefaultNotifyDuration
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

// Dispatch classifies one inbound message and applies exactly one state
// mutation. It never returns an error and never lets a panic escape:
// every failure is funnelled to the transport as a diagnostic and to
// the user as a "GB_except" notification, so the run loop always
// regains control.
func (s *Service) Dispatch(ctx context.Context, raw map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, err := DecodeCommand(raw)
	if err != nil {
		s.report(ctx, "?", nil, err)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.report(ctx, cmd.Tag, cmd.Fields, fmt.Errorf("handler panic: %v", r))
		}
	}()

	if err := s.handle(ctx, cmd); err != nil {
		s.report(ctx, cmd.Tag, cmd.Fields, err)
	}
}

// handle routes by kind. The switch is exhaustive over the known kinds
// with a default arm, so an unrecognized tag is a handled case rather
// than a runtime fallthrough.
func (s *Service) handle(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case KindFind:
		return s.handleFind(cmd.Fields)
	case KindNotify:
		return s.handleNotify(ctx, cmd.Fields)
	case KindNotifyDelete:
		return s.handleNotifyDelete(ctx, cmd.Fields)
	case KindCall:
		return s.handleCall(ctx, cmd.Fields)
	case KindMusicState:
		s.musicState = cmd.Fields.Clone()
		return nil
	case KindMusicInfo:
		s.musicInfo = cmd.Fields.Clone()
		return nil
	case KindWeather:
		s.weather = cmd.Fields.Clone()
		return nil
	case KindAlarm, KindVibrate:
		// Handled by the alarm subsystem, not this core.
		return nil
	default:
		s.unsupported(ctx, cmd)
		return nil
	}
}

// handleFind starts or stops the "find device" vibration. The pin is
// driven to the inverse of n; while it is on, a safety-net entry in the
// external scheduler bounds the vibration to five seconds in case the
// companion never sends the stop.
func (s *Service) handleFind(fields Fields) error {
	n, err := fields.Bool("n")
	if err != nil {
		return err
	}
	pin := !n
	s.vibrator.Pin(pin)
	if pin {
		s.scheduler.Arm(findTimeoutKey, s.clock().Add(findTimeout), s.stopFind)
		s.logger.Debug("find started", "timeout", findTimeout)
	} else {
		s.scheduler.Cancel(findTimeoutKey)
		s.logger.Debug("find stopped")
	}
	return nil
}

// stopFind is the safety-net callback: if the pin still indicates
// vibration when the timer fires, force it off.
func (s *Service) stopFind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vibrator.PinState() {
		s.vibrator.Pin(false)
		s.logger.Warn("find vibration stopped by safety net")
	}
}

// handleNotify stores an incoming notification if the filter set admits
// it. A rejected payload is a silent drop, not an error.
func (s *Service) handleNotify(ctx context.Context, fields Fields) error {
	id, err := fields.Int("id")
	if err != nil {
		return err
	}
	payload := fields.Clone()
	delete(payload, "id")

	if !s.filters.Admit(payload) {
		s.logger.Debug("notification rejected by filter", "id", id)
		return nil
	}

	s.vibrator.Pulse(s.notifyDuration)
	return s.store.Save(ctx, notificationFromPayload(id, payload))
}

func (s *Service) handleNotifyDelete(ctx context.Context, fields Fields) error {
	id, err := fields.Int("id")
	if err != nil {
		return err
	}
	// Deleting an absent id is a no-op by Store contract.
	return s.store.Delete(ctx, id)
}

// unsupported surfaces an unrecognized tag as a notification so the
// user learns about it even without developer tooling attached.
func (s *Service) unsupported(ctx context.Context, cmd Command) {
	body := fmt.Sprintf("companion task not implemented: %q: %q", cmd.Tag, joinFields(cmd.Fields))
	s.errorToNotification(ctx, Notification{
		ID:    IDUnsupported,
		Title: "GB_no_task",
		Body:  body,
	})
	s.logger.Info("unsupported companion task", "tag", cmd.Tag)
}

// report is the error-containment boundary: every handler failure is
// serialized to the transport and surfaced as a "GB_except"
// notification. It never re-raises.
func (s *Service) report(ctx context.Context, task string, fields Fields, err error) {
	msg := fmt.Sprintf("bridge error: %v - %s:%s", err, task, joinFields(fields))
	if werr := s.transport.WriteDiagnostic(ctx, ErrorDiagnostic(msg)); werr != nil {
		s.logger.Error("diagnostic write failed", "error", werr)
	}
	s.errorToNotification(ctx, Notification{
		ID:    IDException,
		Title: "GB_except",
		Body:  msg,
	})
	s.logger.Error("dispatch failed", "task", task, "error", err)
}

// errorToNotification stores a synthetic notification and pulses the
// vibrator unless the user is in silent mode. Storage failures here are
// logged and swallowed; there is nowhere further to escalate.
func (s *Service) errorToNotification(ctx context.Context, n Notification) {
	if err := s.store.Save(ctx, n); err != nil {
		s.logger.Error("could not store report notification", "title", n.Title, "error", err)
		return
	}
	if s.notifyLevel > NotifyLevelSilent {
		s.vibrator.Pulse(s.notifyDuration)
	}
}

// notificationFromPayload lifts the free-form payload into the stored
// shape: title and body move to their own fields, everything else stays
// as auxiliary metadata.
func notificationFromPayload(id int, payload Fields) Notification {
	n := Notification{ID: id}
	extra := Metadata{}
	for k, v := range payload {
		switch k {
		case "title":
			n.Title = fmt.Sprint(v)
		case "body":
			n.Body = fmt.Sprint(v)
		default:
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		n.Extra = extra
	}
	return n
}

// joinFields renders fields as sorted "key:value" pairs joined with
// "/", the shape used in report and unsupported-task bodies.
func joinFields(fields Fields, exclude ...string) string {
	skip := make(map[string]bool, len(exclude))
	for _, k := range exclude {
		skip[k] = true
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if !skip[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s:%v", k, fields[k]))
	}
	return strings.Join(pairs, "/")
}

// MusicState returns the latest musicstate payload, or nil.
func (s *Service) MusicState() Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.musicState.Clone()
}

// MusicInfo returns the latest musicinfo payload, or nil.
func (s *Service) MusicInfo() Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.musicInfo.Clone()
}

// Weather returns the latest weather payload, or nil.
func (s *Service) Weather() Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.weather.Clone()
}

// Notifications lists the pending notifications in insertion order.
func (s *Service) Notifications(ctx context.Context) ([]Notification, error) {
	return s.store.List(ctx)
}

// Pop removes and returns a notification, transferring ownership to the
// caller. This is how the viewing collaborator consumes entries.
func (s *Service) Pop(ctx context.Context, id int) (Notification, error) {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return Notification{}, err
	}
	return n, nil
}

// Watch observes changes in the notification store if supported.
func (s *Service) Watch(ctx context.Context) (<-chan Event, error) {
	w, ok := s.store.(Watchable)
	if !ok {
		return nil, fmt.Errorf("store does not support watching")
	}
	return w.Watch(ctx)
}
