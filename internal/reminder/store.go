package reminder

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Kuzmenkoav1982/famcal/internal/model"
)

// DefaultMarkerPrefix namespaces marker keys in a shared key/value store.
const DefaultMarkerPrefix = "famcal_notified"

// MarkerStore is the durable "already notified" ledger. Keys look like
// "<prefix>_<eventId>_<YYYY-MM-DD>". The Scheduler is the only writer;
// implementations must tolerate concurrent readers.
type MarkerStore interface {
	Has(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string) error
	Delete(ctx context.Context, key string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

func MarkerKey(prefix, eventID string, day model.Date) string {
	return prefix + "_" + eventID + "_" + day.String()
}

// MarkerDay extracts the day encoded at the end of a marker key.
func MarkerDay(key string) (model.Date, bool) {
	i := strings.LastIndexByte(key, '_')
	if i < 0 || i == len(key)-1 {
		return model.Date{}, false
	}
	day, err := model.ParseDate(key[i+1:])
	if err != nil {
		return model.Date{}, false
	}
	return day, true
}

// MemoryStore keeps markers in process memory. It is the store used by tests
// and by hosts that accept losing the ledger on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]struct{})}
}

func (m *MemoryStore) Has(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.keys[key]
	return ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = struct{}{}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func (m *MemoryStore) ListKeys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.keys))
	for k := range m.keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}
