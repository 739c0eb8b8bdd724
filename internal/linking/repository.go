package linking

import (
	"context"

	"github.com/osse101/banklink/internal/domain"
)

// Repository persists the minimum needed to resume an attempt after a
// restart. It is satisfied by the Postgres store and by MemoryStore.
type Repository interface {
	SavePendingLink(ctx context.Context, link domain.PendingLink) error
	GetPendingLink(ctx context.Context, attemptID string) (domain.PendingLink, error)
	DeletePendingLink(ctx context.Context, attemptID string) error
	CleanupExpired(ctx context.Context) (int64, error)
}
