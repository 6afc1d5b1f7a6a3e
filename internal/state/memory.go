package state

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryRecord struct {
	res       Resource
	seq       int64
	entry     *Entry
	touchedAt time.Time
}

// Memory is a process-local Repository. Records idle for longer than ttl are
// dropped lazily on access and by Sweep, except event counters, which must
// never restart.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	records map[string]*memoryRecord
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, records: make(map[string]*memoryRecord)}
}

func (m *Memory) expired(r *memoryRecord, now time.Time) bool {
	return m.ttl > 0 && !r.res.durable() && now.Sub(r.touchedAt) > m.ttl
}

func (m *Memory) record(viewerID string, res Resource) *memoryRecord {
	now := m.now()
	k := key(viewerID, res)
	r, ok := m.records[k]
	if ok && m.expired(r, now) {
		ok = false
	}
	if !ok {
		r = &memoryRecord{res: res}
		m.records[k] = r
	}
	r.touchedAt = now
	return r
}

func (m *Memory) Next(ctx context.Context, viewerID string, res Resource) (int64, error) {
	if viewerID == "" {
		return 0, fmt.Errorf("viewer id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.record(viewerID, res)
	r.seq++
	return r.seq, nil
}

func (m *Memory) Commit(ctx context.Context, viewerID string, res Resource, e Entry, mode CommitMode) (bool, error) {
	if viewerID == "" {
		return false, fmt.Errorf("viewer id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.record(viewerID, res)
	if !accepts(mode, r.entry, e) {
		return false, nil
	}
	if e.SavedAt.IsZero() {
		e.SavedAt = m.now()
	}
	r.entry = &e
	return true, nil
}

func (m *Memory) Load(ctx context.Context, viewerID string, res Resource) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[key(viewerID, res)]
	if !ok || r.entry == nil || m.expired(r, m.now()) {
		return Entry{}, ErrNotFound
	}
	return *r.entry, nil
}

// Sweep drops expired records and returns how many were removed.
func (m *Memory) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for k, r := range m.records {
		if m.expired(r, now) {
			delete(m.records, k)
			n++
		}
	}
	return n
}

// Reset drops the committed entries for the given resources. Sequences are
// kept so numbers handed out earlier stay below any later one.
func (m *Memory) Reset(ctx context.Context, viewerID string, res ...Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rs := range res {
		if r, ok := m.records[key(viewerID, rs)]; ok {
			r.entry = nil
		}
	}
	return nil
}
