package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/printshop/personalizer/internal/domain/personalization"
)

type draftEntry struct {
	areas     map[string]personalization.Draft
	expiresAt time.Time
}

// InMemoryDraftStore keeps drafts in process memory.
// Suitable for single-instance deployments and testing.
type InMemoryDraftStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*draftEntry
	now     func() time.Time
}

// NewInMemoryDraftStore creates a new in-memory draft store
func NewInMemoryDraftStore(ttl time.Duration) *InMemoryDraftStore {
	return &InMemoryDraftStore{
		ttl:     ttl,
		entries: make(map[string]*draftEntry),
		now:     time.Now,
	}
}

// SaveDraft stores the design of one area
func (s *InMemoryDraftStore) SaveDraft(_ context.Context, sessionID string, productID uuid.UUID, areaKey string, draft personalization.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := draftKey(sessionID, productID)
	e := s.live(key)
	if e == nil {
		e = &draftEntry{areas: make(map[string]personalization.Draft)}
		s.entries[key] = e
	}
	e.areas[areaKey] = draft
	e.expiresAt = s.now().Add(s.ttl)
	return nil
}

// LoadDrafts returns a copy of the drafts of a product
func (s *InMemoryDraftStore) LoadDrafts(_ context.Context, sessionID string, productID uuid.UUID) (map[string]personalization.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drafts := make(map[string]personalization.Draft)
	if e := s.live(draftKey(sessionID, productID)); e != nil {
		for k, v := range e.areas {
			drafts[k] = v
		}
	}
	return drafts, nil
}

// ClearDrafts forgets the drafts of a product
func (s *InMemoryDraftStore) ClearDrafts(_ context.Context, sessionID string, productID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, draftKey(sessionID, productID))
	return nil
}

// live returns the entry if present and not expired. Caller holds mu.
func (s *InMemoryDraftStore) live(key string) *draftEntry {
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil
	}
	return e
}

// InMemoryLineLocker implements personalization.LineLocker within one process
type InMemoryLineLocker struct {
	mu     sync.Mutex
	ttl    time.Duration
	leases map[uuid.UUID]lease
	seq    uint64
	now    func() time.Time
}

type lease struct {
	token     uint64
	expiresAt time.Time
}

// NewInMemoryLineLocker creates a locker whose leases expire after ttl
func NewInMemoryLineLocker(ttl time.Duration) *InMemoryLineLocker {
	return &InMemoryLineLocker{
		ttl:    ttl,
		leases: make(map[uuid.UUID]lease),
		now:    time.Now,
	}
}

// Acquire takes a lease on the line
func (l *InMemoryLineLocker) Acquire(_ context.Context, lineID uuid.UUID) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur, held := l.leases[lineID]; held && l.now().Before(cur.expiresAt) {
		return nil, false, nil
	}

	l.seq++
	token := l.seq
	l.leases[lineID] = lease{token: token, expiresAt: l.now().Add(l.ttl)}

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, held := l.leases[lineID]; held && cur.token == token {
			delete(l.leases, lineID)
		}
	}
	return release, true, nil
}

var (
	_ personalization.DraftStore = (*InMemoryDraftStore)(nil)
	_ personalization.LineLocker = (*InMemoryLineLocker)(nil)
)
