package core_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/tether/pkg/core"
)

// MockStore implements core.Store in memory with insertion order.
// It deliberately does NOT implement core.Watchable to test the fallback error.
type MockStore struct {
	byID    map[int]core.Notification
	order   []int
	saveErr error
	panicOn int // Save panics for this id when non-zero
}

func NewMockStore() *MockStore {
	return &MockStore{byID: make(map[int]core.Notification)}
}

func (m *MockStore) Save(ctx context.Context, n core.Notification) error {
	if m.panicOn != 0 && n.ID == m.panicOn {
		panic("store blew up")
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.byID[n.ID]; !ok {
		m.order = append(m.order, n.ID)
	}
	m.byID[n.ID] = n
	return nil
}

func (m *MockStore) Get(ctx context.Context, id int) (core.Notification, error) {
	n, ok := m.byID[id]
	if !ok {
		return core.Notification{}, core.ErrNotFound
	}
	return n, nil
}

func (m *MockStore) List(ctx context.Context) ([]core.Notification, error) {
	var out []core.Notification
	for _, id := range m.order {
		out = append(out, m.byID[id])
	}
	return out, nil
}

func (m *MockStore) Delete(ctx context.Context, id int) error {
	if _, ok := m.byID[id]; !ok {
		return nil
	}
	delete(m.byID, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MockStore) Initialize(ctx context.Context) error { return nil }

type MockVibrator struct {
	on     bool
	pins   []bool
	pulses []time.Duration
}

func (v *MockVibrator) Pin(on bool) {
	v.on = on
	v.pins = append(v.pins, on)
}

func (v *MockVibrator) PinState() bool { return v.on }

func (v *MockVibrator) Pulse(d time.Duration) {
	v.pulses = append(v.pulses, d)
}

type MockDisplay struct {
	woke     int
	switches []core.View
}

func (d *MockDisplay) Wake() { d.woke++ }

func (d *MockDisplay) Switch(v core.View) { d.switches = append(d.switches, v) }

// MockScheduler records armed entries and lets tests fire them manually.
type MockScheduler struct {
	armed    map[string]func()
	deadline map[string]time.Time
	canceled []string
}

func NewMockScheduler() *MockScheduler {
	return &MockScheduler{
		armed:    make(map[string]func()),
		deadline: make(map[string]time.Time),
	}
}

func (s *MockScheduler) Arm(key string, at time.Time, fn func()) {
	s.armed[key] = fn
	s.deadline[key] = at
}

func (s *MockScheduler) Cancel(key string) {
	delete(s.armed, key)
	delete(s.deadline, key)
	s.canceled = append(s.canceled, key)
}

// Fire invokes an armed callback the way the timer would.
func (s *MockScheduler) Fire(key string) bool {
	fn, ok := s.armed[key]
	if !ok {
		return false
	}
	delete(s.armed, key)
	fn()
	return true
}

type MockTransport struct {
	diags []core.Diagnostic
}

func (t *MockTransport) WriteDiagnostic(ctx context.Context, d core.Diagnostic) error {
	t.diags = append(t.diags, d)
	return nil
}

type fixture struct {
	store     *MockStore
	vibrator  *MockVibrator
	display   *MockDisplay
	scheduler *MockScheduler
	transport *MockTransport
	service   *core.Service
}

func newFixture(mutate ...func(*core.Config)) *fixture {
	f := &fixture{
		store:     NewMockStore(),
		vibrator:  &MockVibrator{},
		display:   &MockDisplay{},
		scheduler: NewMockScheduler(),
		transport: &MockTransport{},
	}
	cfg := core.Config{
		Store:       f.store,
		Vibrator:    f.vibrator,
		Display:     f.display,
		Scheduler:   f.scheduler,
		Transport:   f.transport,
		NotifyLevel: 2,
		Clock:       func() time.Time { return time.Unix(1000, 0) },
	}
	for _, m := range mutate {
		m(&cfg)
	}
	f.service = core.NewService(cfg)
	return f
}

func TestDispatch_NotifyLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.TODO()

	// 1. Store a notification
	f.service.Dispatch(ctx, map[string]any{
		"t": "notify", "id": float64(42), "title": "Mail", "body": "hello", "src": "Gmail",
	})
	n, err := f.store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("notification not stored: %v", err)
	}
	if n.Title != "Mail" || n.Body != "hello" {
		t.Errorf("unexpected notification: %+v", n)
	}
	if n.Extra["src"] != "Gmail" {
		t.Errorf("expected src in extra metadata, got %+v", n.Extra)
	}
	if len(f.vibrator.pulses) != 1 {
		t.Errorf("expected 1 pulse, got %d", len(f.vibrator.pulses))
	}

	// 2. Same id overwrites
	f.service.Dispatch(ctx, map[string]any{"t": "notify", "id": float64(42), "title": "Mail2"})
	n, _ = f.store.Get(ctx, 42)
	if n.Title != "Mail2" {
		t.Errorf("expected overwrite, got title %q", n.Title)
	}
	if list, _ := f.store.List(ctx); len(list) != 1 {
		t.Errorf("expected 1 pending entry, got %d", len(list))
	}

	// 3. Dismiss
	f.service.Dispatch(ctx, map[string]any{"t": "notify-", "id": float64(42)})
	if _, err := f.store.Get(ctx, 42); err == nil {
		t.Error("expected notification gone after notify-")
	}

	// 4. Dismissing again is a no-op, not an error
	f.service.Dispatch(ctx, map[string]any{"t": "notify-", "id": float64(42)})
	if len(f.transport.diags) != 0 {
		t.Errorf("unexpected diagnostics: %+v", f.transport.diags)
	}
}

func TestDispatch_NotifyDoesNotMutateInput(t *testing.T) {
	f := newFixture()
	raw := map[string]any{"t": "notify", "id": float64(7), "title": "x"}

	f.service.Dispatch(context.TODO(), raw)

	if _, ok := raw["t"]; !ok {
		t.Error("inbound payload lost its tag")
	}
	if _, ok := raw["id"]; !ok {
		t.Error("inbound payload lost its id")
	}
}

func TestDispatch_NotifyFiltered(t *testing.T) {
	f := newFixture(func(cfg *core.Config) {
		cfg.Filters = core.NewFilterSet("signal")
	})
	ctx := context.TODO()

	// 1. Value substring match admits (case-insensitive)
	f.service.Dispatch(ctx, map[string]any{"t": "notify", "id": float64(1), "src": "Signal"})
	if _, err := f.store.Get(ctx, 1); err != nil {
		t.Errorf("matching notification was rejected: %v", err)
	}

	// 2. No match drops silently
	f.service.Dispatch(ctx, map[string]any{"t": "notify", "id": float64(2), "src": "Spam Inc"})
	if _, err := f.store.Get(ctx, 2); err == nil {
		t.Error("non-matching notification was admitted")
	}
	if len(f.transport.diags) != 0 {
		t.Errorf("drop should be silent, got diagnostics %+v", f.transport.diags)
	}
}

func TestDispatch_Find(t *testing.T) {
	f := newFixture()
	ctx := context.TODO()

	// 1. n=false starts vibration and arms the safety net
	f.service.Dispatch(ctx, map[string]any{"t": "find", "n": false})
	if !f.vibrator.on {
		t.Fatal("expected vibration pin on")
	}
	if _, ok := f.scheduler.armed["find-timeout"]; !ok {
		t.Fatal("expected safety-net timer armed")
	}
	if got := f.scheduler.deadline["find-timeout"]; got != time.Unix(1005, 0) {
		t.Errorf("expected 5s deadline, got %v", got)
	}

	// 2. Safety net forces the pin off
	f.scheduler.Fire("find-timeout")
	if f.vibrator.on {
		t.Error("expected pin off after safety net fired")
	}

	// 3. n=true stops vibration and cancels the timer
	f.service.Dispatch(ctx, map[string]any{"t": "find", "n": false})
	f.service.Dispatch(ctx, map[string]any{"t": "find", "n": true})
	if f.vibrator.on {
		t.Error("expected pin off")
	}
	found := false
	for _, k := range f.scheduler.canceled {
		if k == "find-timeout" {
			found = true
		}
	}
	if !found {
		t.Error("expected safety-net timer canceled")
	}
}

func TestDispatch_FindMissingField(t *testing.T) {
	f := newFixture()

	f.service.Dispatch(context.TODO(), map[string]any{"t": "find"})

	if len(f.transport.diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(f.transport.diags))
	}
	n, err := f.store.Get(context.TODO(), core.IDException)
	if err != nil {
		t.Fatalf("expected GB_except notification: %v", err)
	}
	if n.Title != "GB_except" {
		t.Errorf("expected GB_except, got %q", n.Title)
	}
}

func TestDispatch_CallIncoming(t *testing.T) {
	f := newFixture()
	ctx := context.TODO()

	f.service.Dispatch(ctx, map[string]any{
		"t": "call", "cmd": "incoming", "name": "Alice", "number": "+491234",
	})

	n, err := f.store.Get(ctx, core.IDCall)
	if err != nil {
		t.Fatalf("expected call notification: %v", err)
	}
	if n.Title != "INCOMING" {
		t.Errorf("expected title INCOMING, got %q", n.Title)
	}
	if !strings.Contains(n.Body, "Alice at +491234") {
		t.Errorf("expected caller line in body, got %q", n.Body)
	}
	if f.display.woke != 1 {
		t.Errorf("expected display wake, got %d", f.display.woke)
	}
	if len(f.display.switches) != 1 || f.display.switches[0] != core.ViewNotifier {
		t.Errorf("expected switch to notifier view, got %+v", f.display.switches)
	}

	// Three pulse entries armed 300ms apart, fired via the scheduler
	for i, key := range []string{"call-pulse-0", "call-pulse-1", "call-pulse-2"} {
		want := time.Unix(1000, 0).Add(time.Duration(i) * 300 * time.Millisecond)
		if got := f.scheduler.deadline[key]; got != want {
			t.Errorf("pulse %d: expected deadline %v, got %v", i, want, got)
		}
		if !f.scheduler.Fire(key) {
			t.Errorf("pulse %d not armed", i)
		}
	}
	if len(f.vibrator.pulses) != 3 {
		t.Errorf("expected 3 pulses, got %d", len(f.vibrator.pulses))
	}
}

func TestDispatch_CallInvalidState(t *testing.T) {
	f := newFixture()
	ctx := context.TODO()

	f.service.Dispatch(ctx, map[string]any{"t": "call", "cmd": "rejected"})

	if _, err := f.store.Get(ctx, core.IDCall); err == nil {
		t.Error("rejected call must not produce a call notification")
	}
	n, err := f.store.Get(ctx, core.IDException)
	if err != nil {
		t.Fatalf("expected GB_except notification: %v", err)
	}
	if !strings.Contains(n.Body, "rejected") {
		t.Errorf("expected offending state in body, got %q", n.Body)
	}
	if len(f.transport.diags) != 1 {
		t.Errorf("expected 1 diagnostic, got %d", len(f.transport.diags))
	}
}

func TestDispatch_CallMuted(t *testing.T) {
	f := newFixture(func(cfg *core.Config) {
		cfg.NotifyLevel = core.NotifyLevelSilent
	})
	ctx := context.TODO()

	f.service.Dispatch(ctx, map[string]any{"t": "call", "cmd": "outgoing", "name": "Bob"})

	// The notification is stored either way
	n, err := f.store.Get(ctx, core.IDCall)
	if err != nil {
		t.Fatalf("expected call notification: %v", err)
	}
	if n.Title != "OUTGOING" {
		t.Errorf("expected title OUTGOING, got %q", n.Title)
	}
	// But the alert sequence is suppressed
	if f.display.woke != 0 {
		t.Error("muted call must not wake the display")
	}
	if len(f.scheduler.armed) != 0 {
		t.Errorf("muted call must not arm pulses, got %v", f.scheduler.armed)
	}
}

func TestDispatch_UnknownTag(t *testing.T) {
	f := newFixture()
	ctx := context.TODO()

	f.service.Dispatch(ctx, map[string]any{"t": "selfie", "camera": "front"})

	n, err := f.store.Get(ctx, core.IDUnsupported)
	if err != nil {
		t.Fatalf("expected GB_no_task notification: %v", err)
	}
	if n.Title != "GB_no_task" {
		t.Errorf("expected GB_no_task, got %q", n.Title)
	}
	if !strings.Contains(n.Body, "selfie") {
		t.Errorf("expected tag in body, got %q", n.Body)
	}
	// An unknown tag is a handled case, not a failure
	if len(f.transport.diags) != 0 {
		t.Errorf("unexpected diagnostics: %+v", f.transport.diags)
	}
}

func TestDispatch_MissingTag(t *testing.T) {
	f := newFixture()
	ctx := context.TODO()

	f.service.Dispatch(ctx, map[string]any{"id": float64(1)})

	if len(f.transport.diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(f.transport.diags))
	}
	if f.transport.diags[0].T != "error" {
		t.Errorf("expected error diagnostic, got %q", f.transport.diags[0].T)
	}
	if _, err := f.store.Get(ctx, core.IDException); err != nil {
		t.Errorf("expected GB_except notification: %v", err)
	}
}

func TestDispatch_ContainsPanic(t *testing.T) {
	f := newFixture()
	f.store.panicOn = 9
	ctx := context.TODO()

	// Must not panic outward
	f.service.Dispatch(ctx, map[string]any{"t": "notify", "id": float64(9), "title": "boom"})

	if len(f.transport.diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(f.transport.diags))
	}
	if !strings.Contains(f.transport.diags[0].Msg, "handler panic") {
		t.Errorf("expected panic report, got %q", f.transport.diags[0].Msg)
	}

	// The service keeps working afterwards
	f.service.Dispatch(ctx, map[string]any{"t": "notify", "id": float64(10), "title": "ok"})
	if _, err := f.store.Get(ctx, 10); err != nil {
		t.Errorf("service broken after contained panic: %v", err)
	}
}

func TestDispatch_SilentErrorDoesNotPulse(t *testing.T) {
	f := newFixture(func(cfg *core.Config) {
		cfg.NotifyLevel = core.NotifyLevelSilent
	})

	f.service.Dispatch(context.TODO(), map[string]any{"t": "find"})

	if len(f.vibrator.pulses) != 0 {
		t.Errorf("silent mode must not pulse on error reports, got %d", len(f.vibrator.pulses))
	}
	if _, err := f.store.Get(context.TODO(), core.IDException); err != nil {
		t.Errorf("error notification must still be stored: %v", err)
	}
}

func TestDispatch_StateCaches(t *testing.T) {
	f := newFixture()
	ctx := context.TODO()

	f.service.Dispatch(ctx, map[string]any{"t": "musicstate", "state": "play", "position": float64(14)})
	f.service.Dispatch(ctx, map[string]any{"t": "musicinfo", "artist": "Kraftwerk", "track": "Autobahn"})
	f.service.Dispatch(ctx, map[string]any{"t": "weather", "temp": float64(291)})

	if got := f.service.MusicState(); got["state"] != "play" {
		t.Errorf("unexpected music state: %+v", got)
	}
	if got := f.service.MusicInfo(); got["artist"] != "Kraftwerk" {
		t.Errorf("unexpected music info: %+v", got)
	}
	if got := f.service.Weather(); got["temp"] != float64(291) {
		t.Errorf("unexpected weather: %+v", got)
	}

	// A newer payload replaces the cache wholesale
	f.service.Dispatch(ctx, map[string]any{"t": "musicstate", "state": "pause"})
	got := f.service.MusicState()
	if got["state"] != "pause" {
		t.Errorf("expected replaced state, got %+v", got)
	}
	if _, ok := got["position"]; ok {
		t.Error("stale field survived cache replacement")
	}

	// The accessor hands out a copy
	got["state"] = "tampered"
	if f.service.MusicState()["state"] != "pause" {
		t.Error("cache mutated through accessor copy")
	}
}

func TestDispatch_AlarmAndVibrateAreAcknowledged(t *testing.T) {
	f := newFixture()
	ctx := context.TODO()

	f.service.Dispatch(ctx, map[string]any{"t": "alarm", "d": []any{}})
	f.service.Dispatch(ctx, map[string]any{"t": "vibrate", "n": float64(2)})

	if len(f.transport.diags) != 0 {
		t.Errorf("alarm/vibrate must not be reported as unsupported: %+v", f.transport.diags)
	}
	if list, _ := f.store.List(ctx); len(list) != 0 {
		t.Errorf("alarm/vibrate must not store notifications: %+v", list)
	}
}

func TestService_Pop(t *testing.T) {
	f := newFixture()
	ctx := context.TODO()

	f.service.Dispatch(ctx, map[string]any{"t": "notify", "id": float64(5), "title": "once"})

	n, err := f.service.Pop(ctx, 5)
	if err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	if n.Title != "once" {
		t.Errorf("unexpected notification: %+v", n)
	}
	if _, err := f.service.Pop(ctx, 5); err == nil {
		t.Error("expected error popping consumed notification")
	}
}

func TestService_WatchUnsupported(t *testing.T) {
	f := newFixture()

	if _, err := f.service.Watch(context.TODO()); err == nil {
		t.Fatal("expected error for non-watchable store")
	}
}
