package fs

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/tether/pkg/core"
)

// watchWorker tails the spool directory with fsnotify and republishes
// file changes as store events. Its main consumer is the notification
// viewer: when another process pops an entry by deleting its file, the
// viewer hears about it without polling.
type watchWorker struct {
	*worker.BaseWorker
	spool   *Spool
	events  chan<- core.Event
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

func newWatchWorker(spool *Spool, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("spool-watcher"),
		spool:      spool,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(w.spool.config.Dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch spool directory: %w", err)
	}
	w.watcher = watcher

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

func (w *watchWorker) run(ctx context.Context) error {
	defer close(w.events)
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.processFilesystemEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.spool.config.Logger.Error("fsnotify error", "error", err)
			if w.spool.config.ErrorHandler != nil {
				w.spool.config.ErrorHandler(err)
			}
		}
	}
}

// processFilesystemEvent filters and maps one fsnotify event. Temp
// files from in-flight atomic writes and foreign files are ignored.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) {
	eType := mapEventType(event)
	if eType == "" {
		return
	}

	id, err := idFromPath(event.Name)
	if err != nil {
		w.spool.config.Logger.Debug("ignoring foreign spool file", "path", event.Name)
		return
	}

	select {
	case w.events <- core.Event{Type: eType, ID: id, Timestamp: time.Now().Unix()}:
	case <-ctx.Done():
	}
}

// mapEventType translates fsnotify operations to store event types.
// A rename out of the directory looks like a delete to the spool.
func mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		return core.EventCreate
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	default:
		return ""
	}
}

// Watch implements core.Watchable. Each call spawns its own worker;
// cancelling ctx stops it and closes the channel.
func (s *Spool) Watch(ctx context.Context) (<-chan core.Event, error) {
	events := make(chan core.Event, s.config.EventBuffer)
	w := newWatchWorker(s, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

var _ core.Watchable = (*Spool)(nil)
