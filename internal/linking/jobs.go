package linking

import (
	"context"
	"errors"

	"github.com/osse101/banklink/internal/domain"
	"github.com/osse101/banklink/internal/worker"
)

// savePendingLinkJob writes a pending link off the intent path.
func savePendingLinkJob(repo Repository, link domain.PendingLink) worker.Job {
	return worker.JobFunc(func(ctx context.Context) error {
		return repo.SavePendingLink(ctx, link)
	})
}

// deletePendingLinkJob removes a pending link once its attempt finished.
func deletePendingLinkJob(repo Repository, attemptID string) worker.Job {
	return worker.JobFunc(func(ctx context.Context) error {
		err := repo.DeletePendingLink(ctx, attemptID)
		if errors.Is(err, domain.ErrPendingLinkNotFound) {
			return nil
		}
		return err
	})
}
