package linking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/banklink/internal/domain"
)

func TestMemoryStore_SaveGetDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore(8, time.Hour)
	link := domain.PendingLink{
		AttemptID: "bank-1",
		Partner:   domain.PartnerYodlee,
		Currency:  "GBP",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}

	require.NoError(t, store.SavePendingLink(ctx, link))
	got, err := store.GetPendingLink(ctx, "bank-1")
	require.NoError(t, err)
	assert.Equal(t, link, got)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.DeletePendingLink(ctx, "bank-1"))
	_, err = store.GetPendingLink(ctx, "bank-1")
	assert.ErrorIs(t, err, domain.ErrPendingLinkNotFound)

	// deleting again is not an error
	assert.NoError(t, store.DeletePendingLink(ctx, "bank-1"))
}

func TestMemoryStore_RequiresAttemptID(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0, 0)
	err := store.SavePendingLink(context.Background(), domain.PendingLink{Partner: domain.PartnerPlaid})
	assert.ErrorIs(t, err, domain.ErrAttemptIDMissing)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(8, time.Hour)
	store.now = func() time.Time { return now }

	require.NoError(t, store.SavePendingLink(ctx, domain.PendingLink{
		AttemptID: "old", Partner: domain.PartnerYapily, ExpiresAt: now.Add(-time.Minute),
	}))
	require.NoError(t, store.SavePendingLink(ctx, domain.PendingLink{
		AttemptID: "edge", Partner: domain.PartnerYapily, ExpiresAt: now,
	}))
	require.NoError(t, store.SavePendingLink(ctx, domain.PendingLink{
		AttemptID: "fresh", Partner: domain.PartnerYapily, ExpiresAt: now.Add(time.Minute),
	}))

	_, err := store.GetPendingLink(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrPendingLinkNotFound)
	_, err = store.GetPendingLink(ctx, "edge")
	assert.ErrorIs(t, err, domain.ErrPendingLinkNotFound)

	removed, err := store.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, 1, store.Len())

	got, err := store.GetPendingLink(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.AttemptID)
}

func TestMemoryStore_CleanupHonorsContext(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(8, time.Hour)
	require.NoError(t, store.SavePendingLink(context.Background(), domain.PendingLink{AttemptID: "a"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	removed, err := store.CleanupExpired(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, removed)
}
