package backend

import (
	"context"

	"github.com/osse101/banklink/internal/domain"
)

// Client is the backend collaborator the orchestrator drives.
type Client interface {
	// SubmitAccountSelection forwards the user's choice. The backend may echo
	// the updated record; a nil record means the caller must poll for it.
	SubmitAccountSelection(ctx context.Context, req SubmitRequest) (*domain.LinkedBank, error)
	GetLinkedBank(ctx context.Context, attemptID string) (domain.LinkedBank, error)
	UpdateApprovalCallback(ctx context.Context, callbackPath string) error
	GetApprovalStatus(ctx context.Context, callbackPath string) (domain.LinkedBank, error)
	RefreshSDKToken(ctx context.Context, accountID string) (domain.RefreshInfo, error)
}

// SubmitRequest is a partner-specific account selection.
type SubmitRequest struct {
	AttemptID  string
	Partner    domain.Partner
	Attributes Attributes
}

// Attributes are the provider fields sent with a submission. Each partner
// fills a different subset.
type Attributes struct {
	AccountID         string `json:"accountId,omitempty"`
	ProviderAccountID string `json:"providerAccountId,omitempty"`
	InstitutionID     string `json:"institutionId,omitempty"`
	PublicToken       string `json:"publicToken,omitempty"`
	Callback          string `json:"callback,omitempty"`
}
