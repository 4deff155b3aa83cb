package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/tether/pkg/adapters/fs"
	"github.com/aretw0/tether/pkg/adapters/mem"
	"github.com/aretw0/tether/pkg/adapters/sched"
	"github.com/aretw0/tether/pkg/core"
)

// New wires the adapters to the core and returns the dispatcher service.
//
//	svc, err := tether.New(tether.WithFilters("signal", "alarm"))
func New(opts ...Option) (*core.Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	store, err := initStore(o)
	if err != nil {
		return nil, err
	}

	scheduler := o.scheduler
	if scheduler == nil {
		scheduler = sched.New(o.logger)
	}

	return core.NewService(core.Config{
		Store:           store,
		Vibrator:        o.vibrator,
		Display:         o.display,
		Scheduler:       scheduler,
		Transport:       o.transport,
		Filters:         core.NewFilterSet(o.filters...),
		NotifyLevel:     o.notifyLevel,
		NotifyDuration:  o.notifyDuration,
		Logger:          o.logger,
		EventBufferSize: o.eventBuffer,
		Clock:           o.clock,
	}), nil
}

// initStore resolves the notification store: an injected one wins, then
// the on-disk spool, then the in-memory default.
func initStore(o *options) (core.Store, error) {
	var store core.Store

	switch {
	case o.store != nil:
		store = o.store
	case o.spoolDir != "":
		store = fs.NewSpool(fs.Config{
			Dir:         o.spoolDir,
			Logger:      o.logger,
			EventBuffer: o.eventBuffer,
		})
	default:
		var memOpts []mem.Option
		if o.eventBuffer > 0 {
			memOpts = append(memOpts, mem.WithEventBuffer(o.eventBuffer))
		}
		store = mem.New(memOpts...)
	}

	if err := store.Initialize(context.Background()); err != nil {
		return nil, fmt.Errorf("store initialization failed: %w", err)
	}
	return store, nil
}
