package archive

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/park285/Cheese-Checkers/internal/checkers"
)

// memstore is the in-process archive used when no database is configured.
type memstore struct {
	mu    sync.RWMutex
	games map[string]checkers.Snapshot
}

func NewMemoryStore() Store {
	return &memstore{games: make(map[string]checkers.Snapshot)}
}

func (m *memstore) Save(_ context.Context, snap checkers.Snapshot) error {
	if strings.TrimSpace(snap.ID) == "" {
		return errors.New("archive: snapshot has no id")
	}
	snap.History = append([]checkers.Move(nil), snap.History...)
	snap.Pending = append([]checkers.Move(nil), snap.Pending...)
	m.mu.Lock()
	m.games[snap.ID] = snap
	m.mu.Unlock()
	return nil
}

func (m *memstore) Load(_ context.Context, id string) (*checkers.Snapshot, error) {
	m.mu.RLock()
	snap, ok := m.games[strings.TrimSpace(id)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	snap.History = append([]checkers.Move(nil), snap.History...)
	return &snap, nil
}

func (m *memstore) List(_ context.Context, limit int) ([]Summary, error) {
	m.mu.RLock()
	items := make([]Summary, 0, len(m.games))
	for _, s := range m.games {
		items = append(items, summarize(s))
	}
	m.mu.RUnlock()
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID < items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memstore) Close() error { return nil }
