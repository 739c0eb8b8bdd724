package classifier

import (
	"errors"
	"strings"

	"github.com/osse101/banklink/internal/domain"
	"github.com/osse101/banklink/internal/poll"
)

// Kind is a member of the closed error taxonomy shown to the user.
type Kind string

const (
	KindAlreadyLinked      Kind = "ALREADY_LINKED"
	KindAccountUnsupported Kind = "ACCOUNT_UNSUPPORTED"
	KindInfoNotFound       Kind = "INFO_NOT_FOUND"
	KindNamesMismatched    Kind = "NAMES_MISMATCHED"
	KindRejected           Kind = "REJECTED"
	KindExpired            Kind = "EXPIRED"
	KindGenericFailure     Kind = "GENERIC_FAILURE"
	KindInternalFailure    Kind = "INTERNAL_FAILURE"
	KindInvalid            Kind = "INVALID"
	KindFraud              Kind = "FRAUD"
	KindTimeout            Kind = "TIMEOUT"
	KindTransportFailure   Kind = "TRANSPORT_FAILURE"
	KindServerDriven       Kind = "SERVER_DRIVEN"
)

// Recovery says what a retry should do for a given kind.
type Recovery int

const (
	// RecoveryResubmit re-enters linking with the same selection.
	RecoveryResubmit Recovery = iota
	// RecoveryReselect sends the user back to pick another account.
	RecoveryReselect
	// RecoveryNone leaves cancel as the only way out.
	RecoveryNone
)

// Recovery returns the recoverability class of k.
func (k Kind) Recovery() Recovery {
	switch k {
	case KindAlreadyLinked, KindAccountUnsupported, KindInfoNotFound, KindNamesMismatched, KindInvalid:
		return RecoveryReselect
	case KindRejected, KindFraud:
		return RecoveryNone
	default:
		return RecoveryResubmit
	}
}

// Error is a classified linking failure. Title, Message and Icons are only set
// for KindServerDriven and carry backend copy verbatim.
type Error struct {
	Kind    Kind     `json:"kind"`
	Title   string   `json:"title,omitempty"`
	Message string   `json:"message,omitempty"`
	Icons   []string `json:"icons,omitempty"`
	Cause   error    `json:"-"`
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(string(e.Kind)))
	if e.Title != "" {
		b.WriteString(": ")
		b.WriteString(e.Title)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Recoverable reports whether a retry intent can make progress.
func (e *Error) Recoverable() bool {
	return e.Kind.Recovery() != RecoveryNone
}

var statusKinds = map[domain.LinkedBankErrorStatus]Kind{
	domain.ErrorStatusAlreadyLinked:          KindAlreadyLinked,
	domain.ErrorStatusInfoNotFound:           KindInfoNotFound,
	domain.ErrorStatusAccountTypeUnsupported: KindAccountUnsupported,
	domain.ErrorStatusNamesMismatched:        KindNamesMismatched,
	domain.ErrorStatusRejected:               KindRejected,
	domain.ErrorStatusExpired:                KindExpired,
	domain.ErrorStatusFailure:                KindGenericFailure,
	domain.ErrorStatusInternalFailure:        KindInternalFailure,
	domain.ErrorStatusInvalid:                KindInvalid,
	domain.ErrorStatusFraud:                  KindFraud,
}

// ClassifyRecord maps a terminal record onto the taxonomy. It returns nil only
// for ACTIVE records. A non-terminal record is a timeout: the caller stopped
// waiting before the backend decided.
func ClassifyRecord(rec domain.LinkedBank) *Error {
	switch rec.State {
	case domain.StateActive:
		return nil
	case domain.StateBlocked:
		if kind, ok := statusKinds[rec.ErrorStatus]; ok {
			return &Error{Kind: kind}
		}
		// NONE or UNKNOWN while BLOCKED is anomalous and still surfaces.
		return &Error{Kind: KindGenericFailure}
	case domain.StateCreated, domain.StatePending:
		return &Error{Kind: KindTimeout}
	default:
		return &Error{Kind: KindGenericFailure}
	}
}

// ClassifyOutcome classifies the result of a polling run. Cancelled outcomes
// are not errors and yield nil, as do final ACTIVE records.
func ClassifyOutcome(out poll.Outcome[domain.LinkedBank]) *Error {
	switch out.Kind {
	case poll.Final:
		return ClassifyRecord(out.Value)
	case poll.TimedOut:
		if !out.Observed && out.Err != nil {
			return ClassifyTransport(out.Err)
		}
		return &Error{Kind: KindTimeout}
	default:
		return nil
	}
}

// ClassifyTransport classifies a failed backend call. Backend-authored copy is
// passed through when it is structurally complete.
func ClassifyTransport(err error) *Error {
	var serverErr *domain.ServerError
	if errors.As(err, &serverErr) && serverErr.Title != "" && serverErr.Message != "" {
		return &Error{
			Kind:    KindServerDriven,
			Title:   serverErr.Title,
			Message: serverErr.Message,
			Icons:   append([]string(nil), serverErr.Icons...),
			Cause:   err,
		}
	}
	return &Error{Kind: KindTransportFailure, Cause: err}
}

// NoHandler is the error for an authorization URL nothing can open.
func NoHandler() *Error {
	return &Error{Kind: KindGenericFailure, Cause: domain.ErrNoHandler}
}
