package linking

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/osse101/banklink/internal/domain"
)

// MemoryStore is a Repository kept in process memory. Entries are dropped
// after ttl or once the store is full, whichever comes first.
type MemoryStore struct {
	lru *expirable.LRU[string, domain.PendingLink]
	now func() time.Time
}

// NewMemoryStore creates a store holding at most size links for ttl each.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = DefaultPendingStoreSize
	}
	if ttl <= 0 {
		ttl = domain.DefaultPendingLinkTTL
	}
	return &MemoryStore{
		lru: expirable.NewLRU[string, domain.PendingLink](size, nil, ttl),
		now: time.Now,
	}
}

func (s *MemoryStore) SavePendingLink(_ context.Context, link domain.PendingLink) error {
	if link.AttemptID == "" {
		return domain.ErrAttemptIDMissing
	}
	s.lru.Add(link.AttemptID, link)
	return nil
}

func (s *MemoryStore) GetPendingLink(_ context.Context, attemptID string) (domain.PendingLink, error) {
	link, ok := s.lru.Get(attemptID)
	if !ok || s.expired(link) {
		return domain.PendingLink{}, fmt.Errorf("%w: %s", domain.ErrPendingLinkNotFound, attemptID)
	}
	return link, nil
}

func (s *MemoryStore) DeletePendingLink(_ context.Context, attemptID string) error {
	s.lru.Remove(attemptID)
	return nil
}

// CleanupExpired removes links whose ExpiresAt has passed.
func (s *MemoryStore) CleanupExpired(ctx context.Context) (int64, error) {
	var removed int64
	for _, link := range s.lru.Values() {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if s.expired(link) && s.lru.Remove(link.AttemptID) {
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored links.
func (s *MemoryStore) Len() int {
	return s.lru.Len()
}

func (s *MemoryStore) expired(link domain.PendingLink) bool {
	return !link.ExpiresAt.IsZero() && !s.now().Before(link.ExpiresAt)
}
