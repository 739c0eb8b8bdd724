package domain

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// Partner identifies a bank-connectivity provider.
type Partner string

// ParsePartner normalizes a partner name and rejects unknown ones.
func ParsePartner(s string) (Partner, error) {
	p := Partner(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case PartnerYodlee, PartnerYapily, PartnerPlaid:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPartner, s)
}

// DisplayName returns the partner name in title case, e.g. "Yapily".
func (p Partner) DisplayName() string {
	return cases.Title(language.English).String(strings.ToLower(string(p)))
}

// NormalizeCurrency validates an ISO 4217 code and returns it upper-cased.
func NormalizeCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return unit.String(), nil
}

// LinkedBankState is the lifecycle state of a linked bank record.
type LinkedBankState string

// ParseLinkedBankState maps a backend wire value onto a lifecycle state.
// Review states are still pending; anything unrecognised is UNKNOWN.
func ParseLinkedBankState(wire string) LinkedBankState {
	switch s := strings.ToUpper(wire); s {
	case string(StateCreated), string(StateActive), string(StateBlocked), string(StatePending):
		return LinkedBankState(s)
	case wireStateFraudReview, wireStateManualReview:
		return StatePending
	default:
		return StateUnknown
	}
}

// IsTerminal reports whether further polling can change the outcome.
func (s LinkedBankState) IsTerminal() bool {
	switch s {
	case StateActive, StateBlocked, StateUnknown:
		return true
	}
	return false
}

// LinkedBankErrorStatus explains a BLOCKED record.
type LinkedBankErrorStatus string

// ParseLinkedBankErrorStatus maps a backend error code onto an error status.
// An empty code is NONE; an unrecognised one is UNKNOWN.
func ParseLinkedBankErrorStatus(wire string) LinkedBankErrorStatus {
	if wire == "" {
		return ErrorStatusNone
	}
	if status, ok := wireErrorStatuses[strings.ToUpper(wire)]; ok {
		return status
	}
	return ErrorStatusUnknown
}

// LinkedBank is the server-owned snapshot of authorization progress.
type LinkedBank struct {
	ID               string                `json:"id"`
	Partner          Partner               `json:"partner"`
	Currency         string                `json:"currency"`
	State            LinkedBankState       `json:"state"`
	ErrorStatus      LinkedBankErrorStatus `json:"error_status"`
	AuthorisationURL string                `json:"authorisation_url,omitempty"`
	CallbackPath     string                `json:"callback_path,omitempty"`
	BankName         string                `json:"bank_name,omitempty"`
	AccountName      string                `json:"account_name,omitempty"`
	AccountNumber    string                `json:"account_number,omitempty"`
	AccountType      string                `json:"account_type,omitempty"`
}

// Selection is the user's account choice for one linking attempt.
// Which identifiers are required depends on the partner.
type Selection struct {
	AttemptID         string  `json:"attempt_id"`
	Partner           Partner `json:"partner"`
	Currency          string  `json:"currency"`
	AccountID         string  `json:"account_id,omitempty"`
	ProviderAccountID string  `json:"provider_account_id,omitempty"`
	InstitutionID     string  `json:"institution_id,omitempty"`
	PublicToken       string  `json:"-"`
}

// RefreshInfo is what an SDK-token partner needs to reopen its widget.
type RefreshInfo struct {
	AccountID      string    `json:"account_id"`
	Partner        Partner   `json:"partner"`
	LinkToken      string    `json:"link_token"`
	LinkURL        string    `json:"link_url"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
}

// PendingLink is the persisted part of an attempt that allows resuming after a restart.
type PendingLink struct {
	AttemptID string
	Partner   Partner
	Currency  string
	CreatedAt time.Time
	ExpiresAt time.Time
}
