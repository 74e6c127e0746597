package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/handiism/tagbot/internal/model"
)

// Persister saves snapshots. *persist.Gateway implements it.
type Persister interface {
	Save(ctx context.Context, snap *model.Snapshot) error
}

// Manager owns the live configuration snapshot.
//
// Readers get an independent clone from View. Writers go through Update,
// which applies a mutation to a clone, swaps it in only when the mutation
// succeeds, and then persists the result.
type Manager struct {
	mu      sync.RWMutex
	current *model.Snapshot

	// saveMu orders writes to the store so the last write is always the
	// latest snapshot.
	saveMu sync.Mutex
	store  Persister
	logger *slog.Logger
}

// NewManager creates a manager holding snap. store may be nil.
func NewManager(snap *model.Snapshot, store Persister, logger *slog.Logger) *Manager {
	if snap == nil {
		snap = model.DefaultSnapshot()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{current: snap.Clone(), store: store, logger: logger}
}

// View returns a copy of the current snapshot.
func (m *Manager) View() *model.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone()
}

// Update applies fn to a copy of the snapshot. If fn returns an error the
// live snapshot is left untouched and the error is returned. Otherwise the
// copy becomes the live snapshot and is persisted. Persistence failures
// are logged, not returned: the change is already live.
func (m *Manager) Update(ctx context.Context, fn func(*model.Snapshot) error) error {
	m.mu.Lock()
	next := m.current.Clone()
	if err := fn(next); err != nil {
		m.mu.Unlock()
		return err
	}
	m.current = next
	m.mu.Unlock()

	m.persist(ctx)
	return nil
}

// Replace swaps in snap wholesale, as done after a reset.
func (m *Manager) Replace(ctx context.Context, snap *model.Snapshot) {
	_ = m.Update(ctx, func(s *model.Snapshot) error {
		*s = *snap.Clone()
		return nil
	})
}

func (m *Manager) persist(ctx context.Context) {
	if m.store == nil {
		return
	}
	m.saveMu.Lock()
	defer m.saveMu.Unlock()
	snap := m.View()
	if err := m.store.Save(ctx, snap); err != nil {
		m.logger.Error("failed to persist settings", slog.String("error", err.Error()))
	}
}
