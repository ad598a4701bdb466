// Package cache implements the draft.LocalCache durable client cache.
package cache

import (
	"sort"
	"sync"

	"github.com/peterkuimelis/draftsync/internal/draft"
)

type key struct {
	sessionID string
	slot      int
}

// Memory is an in-process draft.LocalCache for tests and ephemeral runs.
type Memory struct {
	mu      sync.Mutex
	records map[key]draft.PlayerRecord
}

func NewMemory() *Memory {
	return &Memory{records: make(map[key]draft.PlayerRecord)}
}

// Load implements draft.LocalCache.
func (m *Memory) Load(sessionID string, slot int) (draft.PlayerRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key{sessionID, slot}]
	return rec, ok, nil
}

// Save implements draft.LocalCache. The stored version increases
// monotonically regardless of the version on the incoming record.
func (m *Memory) Save(rec draft.PlayerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{rec.SessionID, rec.PlayerSlot}
	if prev, ok := m.records[k]; ok && prev.Version >= rec.Version {
		rec.Version = prev.Version + 1
	} else if rec.Version < 1 {
		rec.Version = 1
	}
	m.records[k] = rec
	return nil
}

// Remove implements draft.LocalCache.
func (m *Memory) Remove(sessionID string, slot int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key{sessionID, slot})
	return nil
}

// Sessions implements draft.LocalCache.
func (m *Memory) Sessions() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for k := range m.records {
		if !seen[k.sessionID] {
			seen[k.sessionID] = true
			out = append(out, k.sessionID)
		}
	}
	sort.Strings(out)
	return out, nil
}
