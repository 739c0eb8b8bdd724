package domain

import "time"

// ============================================================================
// Partners
// ============================================================================

const (
	PartnerYodlee Partner = "YODLEE"
	PartnerYapily Partner = "YAPILY"
	PartnerPlaid  Partner = "PLAID"
)

// ============================================================================
// Linked bank lifecycle states
// ============================================================================

const (
	StateCreated LinkedBankState = "CREATED"
	StatePending LinkedBankState = "PENDING"
	StateActive  LinkedBankState = "ACTIVE"
	StateBlocked LinkedBankState = "BLOCKED"
	StateUnknown LinkedBankState = "UNKNOWN"
)

// Wire values the backend reports that collapse onto StatePending.
const (
	wireStateFraudReview  = "FRAUD_REVIEW"
	wireStateManualReview = "MANUAL_REVIEW"
)

// ============================================================================
// Linked bank error statuses
// ============================================================================

const (
	ErrorStatusNone                   LinkedBankErrorStatus = "NONE"
	ErrorStatusAlreadyLinked          LinkedBankErrorStatus = "ACCOUNT_ALREADY_LINKED"
	ErrorStatusInfoNotFound           LinkedBankErrorStatus = "NOT_INFO_FOUND"
	ErrorStatusAccountTypeUnsupported LinkedBankErrorStatus = "ACCOUNT_TYPE_UNSUPPORTED"
	ErrorStatusNamesMismatched        LinkedBankErrorStatus = "NAMES_MISMATCHED"
	ErrorStatusRejected               LinkedBankErrorStatus = "REJECTED"
	ErrorStatusExpired                LinkedBankErrorStatus = "EXPIRED"
	ErrorStatusFailure                LinkedBankErrorStatus = "FAILURE"
	ErrorStatusInternalFailure        LinkedBankErrorStatus = "INTERNAL_FAILURE"
	ErrorStatusInvalid                LinkedBankErrorStatus = "INVALID"
	ErrorStatusFraud                  LinkedBankErrorStatus = "FRAUD"
	ErrorStatusUnknown                LinkedBankErrorStatus = "UNKNOWN"
)

// wireErrorStatuses maps backend error codes onto error statuses.
var wireErrorStatuses = map[string]LinkedBankErrorStatus{
	"BANK_TRANSFER_ACCOUNT_ALREADY_LINKED":  ErrorStatusAlreadyLinked,
	"BANK_TRANSFER_ACCOUNT_INFO_NOT_FOUND":  ErrorStatusInfoNotFound,
	"BANK_TRANSFER_ACCOUNT_NOT_SUPPORTED":   ErrorStatusAccountTypeUnsupported,
	"BANK_TRANSFER_ACCOUNT_NAME_MISMATCH":   ErrorStatusNamesMismatched,
	"BANK_TRANSFER_ACCOUNT_REJECTED":        ErrorStatusRejected,
	"BANK_TRANSFER_ACCOUNT_EXPIRED":         ErrorStatusExpired,
	"BANK_TRANSFER_ACCOUNT_FAILED":          ErrorStatusFailure,
	"BANK_TRANSFER_ACCOUNT_FAILED_INTERNAL": ErrorStatusInternalFailure,
	"BANK_TRANSFER_ACCOUNT_INVALID":         ErrorStatusInvalid,
	"BANK_TRANSFER_ACCOUNT_REJECTED_FRAUD":  ErrorStatusFraud,
}

// ============================================================================
// Timing
// ============================================================================

const (
	// DefaultPendingLinkTTL bounds how long a submitted attempt stays resumable.
	DefaultPendingLinkTTL = 24 * time.Hour
)
