package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/tether/pkg/core"
)

type tetherSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits notification store
// events. It bridges the typed event channel from Service.Watch to the
// generic lifecycle Event interface, so a host application can supervise
// the bridge alongside its other components.
func NewSource(events <-chan core.Event) lifecycle.Source {
	return &tetherSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *tetherSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *tetherSource) Start(ctx context.Context) error {
	// The bridge goroutine runs under lifecycle.Go so it is tracked and
	// torn down with the rest of the host application.
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				// core.Event implements lifecycle.Event (has String())
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
