// Package fs provides the on-disk notification spool. A bridge daemon
// that restarts should not lose the notifications the companion already
// delivered, so each pending entry is written as one YAML file in the
// spool directory. Writes are atomic (temp file + rename) so a crash
// never leaves a half-written entry behind.
package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/introspection"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/tether/pkg/core"
)

const spoolExt = ".yaml"

// Config holds the configuration for the spool.
type Config struct {
	// Dir is the spool directory. Created by Initialize if absent.
	Dir string

	// Logger is optional.
	Logger *slog.Logger

	// ErrorHandler receives asynchronous watcher errors. Optional.
	ErrorHandler func(error)

	// EventBuffer is the watch channel capacity. Defaults to 16.
	EventBuffer int
}

// Spool implements core.Store backed by one YAML file per notification.
type Spool struct {
	config Config
	clock  func() time.Time
}

// spoolDoc is the on-disk shape of a pending notification. StoredAt
// records first insertion so List can reproduce insertion order.
type spoolDoc struct {
	ID       int           `yaml:"id"`
	Title    string        `yaml:"title,omitempty"`
	Body     string        `yaml:"body,omitempty"`
	Extra    core.Metadata `yaml:"extra,omitempty"`
	StoredAt time.Time     `yaml:"stored_at"`
}

// NewSpool creates a spool rooted at config.Dir.
func NewSpool(config Config) *Spool {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 16
	}
	return &Spool{config: config, clock: time.Now}
}

// Initialize creates the spool directory if needed.
func (s *Spool) Initialize(ctx context.Context) error {
	if s.config.Dir == "" {
		return fmt.Errorf("spool directory not configured")
	}
	if err := os.MkdirAll(s.config.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create spool directory: %w", err)
	}
	return nil
}

// Save persists a notification, overwriting an existing entry with the
// same id. The original StoredAt is kept on overwrite so the entry does
// not move in the listing.
func (s *Spool) Save(ctx context.Context, n core.Notification) error {
	doc := spoolDoc{
		ID:       n.ID,
		Title:    n.Title,
		Body:     n.Body,
		Extra:    n.Extra,
		StoredAt: s.clock(),
	}
	if prev, err := s.readDoc(n.ID); err == nil {
		doc.StoredAt = prev.StoredAt
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode notification %d: %w", n.ID, err)
	}
	return writeFileAtomic(s.path(n.ID), data, 0o644)
}

// Get retrieves a notification by id.
func (s *Spool) Get(ctx context.Context, id int) (core.Notification, error) {
	doc, err := s.readDoc(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.Notification{}, core.ErrNotFound
		}
		return core.Notification{}, err
	}
	return doc.notification(), nil
}

// List returns all pending notifications in insertion order.
func (s *Spool) List(ctx context.Context) ([]core.Notification, error) {
	entries, err := os.ReadDir(s.config.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read spool directory: %w", err)
	}

	var docs []spoolDoc
	for _, entry := range entries {
		if entry.IsDir() || !isSpoolFile(entry.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.config.Dir, entry.Name()))
		if err != nil {
			s.config.Logger.Debug("skipping unreadable spool entry", "name", entry.Name(), "error", err)
			continue
		}
		var doc spoolDoc
		if err := yaml.Unmarshal(data, &doc); err != nil {
			s.config.Logger.Debug("skipping corrupt spool entry", "name", entry.Name(), "error", err)
			continue
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].StoredAt.Equal(docs[j].StoredAt) {
			return docs[i].StoredAt.Before(docs[j].StoredAt)
		}
		return docs[i].ID < docs[j].ID
	})

	out := make([]core.Notification, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.notification())
	}
	return out, nil
}

// Delete removes a notification file. Absent ids are a no-op.
func (s *Spool) Delete(ctx context.Context, id int) error {
	err := os.Remove(s.path(id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete notification %d: %w", id, err)
	}
	return nil
}

func (s *Spool) path(id int) string {
	return filepath.Join(s.config.Dir, strconv.Itoa(id)+spoolExt)
}

func (s *Spool) readDoc(id int) (spoolDoc, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return spoolDoc{}, err
	}
	var doc spoolDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return spoolDoc{}, fmt.Errorf("failed to decode notification %d: %w", id, err)
	}
	return doc, nil
}

func (d spoolDoc) notification() core.Notification {
	return core.Notification{ID: d.ID, Title: d.Title, Body: d.Body, Extra: d.Extra}
}

// isSpoolFile filters directory entries down to committed spool files,
// excluding in-flight atomic temp files.
func isSpoolFile(name string) bool {
	if strings.HasPrefix(name, TempFilePrefix) {
		return false
	}
	if filepath.Ext(name) != spoolExt {
		return false
	}
	_, err := strconv.Atoi(strings.TrimSuffix(name, spoolExt))
	return err == nil
}

// idFromPath resolves a spool file path back to its notification id.
func idFromPath(path string) (int, error) {
	name := filepath.Base(path)
	if !isSpoolFile(name) {
		return 0, fmt.Errorf("not a spool file: %s", name)
	}
	return strconv.Atoi(strings.TrimSuffix(name, spoolExt))
}

// SpoolState exposes internal state for observability.
type SpoolState struct {
	Dir     string `json:"dir"`
	Pending int    `json:"pending"`
}

// State implements introspection.Introspectable.
func (s *Spool) State() any {
	pending := 0
	if entries, err := os.ReadDir(s.config.Dir); err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && isSpoolFile(entry.Name()) {
				pending++
			}
		}
	}
	return SpoolState{Dir: s.config.Dir, Pending: pending}
}

// ComponentType implements introspection.Component.
func (s *Spool) ComponentType() string { return "fs-spool" }

var _ core.Store = (*Spool)(nil)
var _ introspection.Introspectable = (*Spool)(nil)
var _ introspection.Component = (*Spool)(nil)
