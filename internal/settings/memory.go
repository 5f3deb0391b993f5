package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sungwon/notify-mailer/internal/storage"
)

// MemoryStore is an in-process Store used by the CLI's offline mode and by
// tests. Rows are returned in insertion order.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string][]storage.Setting
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string][]storage.Setting)}
}

// Put appends a row holding the JSON encoding of value.
func (m *MemoryStore) Put(category, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s/%s: %w", category, key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := category + "/" + key
	m.rows[id] = append(m.rows[id], storage.Setting{
		ID:        uuid.New(),
		Category:  category,
		Key:       key,
		Value:     raw,
		UpdatedAt: time.Now(),
	})
	return nil
}

// ListSettings implements Store.
func (m *MemoryStore) ListSettings(_ context.Context, category, key string) ([]storage.Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.rows[category+"/"+key]
	out := make([]storage.Setting, len(rows))
	copy(out, rows)
	return out, nil
}
