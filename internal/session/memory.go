package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cx-tal-miterani/airline-reservation/internal/auth"
)

const janitorInterval = time.Minute

type memoryItem struct {
	ctx        auth.AuthContext
	expiration int64
}

// MemoryStore is an in-process session store for single-instance deployments
// and tests. Expired entries are dropped on Get and swept periodically by a
// janitor goroutine.
type MemoryStore struct {
	ttl   time.Duration
	items map[string]memoryItem
	mu    sync.RWMutex
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryStore creates a memory-backed session store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		ttl:   ttl,
		items: make(map[string]memoryItem),
		stop:  make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) Create(_ context.Context, ac auth.AuthContext) (string, error) {
	token := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[token] = memoryItem{
		ctx:        ac,
		expiration: time.Now().Add(s.ttl).UnixNano(),
	}
	return token, nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (*auth.AuthContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, found := s.items[token]
	if !found {
		return nil, ErrSessionNotFound
	}
	if time.Now().UnixNano() > item.expiration {
		delete(s.items, token)
		return nil, ErrSessionNotFound
	}

	ac := item.ctx
	return &ac, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
	return nil
}

// Close stops the janitor goroutine.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep(time.Now().UnixNano())
		}
	}
}

func (s *MemoryStore) sweep(now int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, item := range s.items {
		if now > item.expiration {
			delete(s.items, token)
		}
	}
}
