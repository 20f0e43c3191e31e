// Package errs defines the error taxonomy shared across the core (spec.md
// §7) and ActionLimiter, a per-account, per-action minimum-interval gate.
// Handlers send a rejected action's Code to the client in game.ErrorEvent.
package errs

import "fmt"

// Category buckets an error by how it should propagate: some close the
// session, some produce an in-band ErrorResponse and continue, some are
// logged and retried.
type Category int

const (
	// Protocol errors: unknown opcode, oversized frame, malformed payload,
	// invalid sequence, bad HMAC, session unknown. Closes the session.
	Protocol Category = iota
	// Authorisation errors: unauthenticated, character not owned, banned
	// account, multi-login denied. Closes the session.
	Authorisation
	// Validation errors: input out of bounds, stat overdraw, invalid
	// class. Session continues.
	Validation
	// State errors: target missing/dead, out of range, insufficient
	// resource, cooldown active. Session continues.
	State
	// Resource errors: channel full, inventory full. Session continues.
	Resource
	// Transient errors: persistence/cache unavailable. Logged and
	// retried; never surfaced to raw internals.
	Transient
)

func (c Category) String() string {
	switch c {
	case Protocol:
		return "protocol"
	case Authorisation:
		return "authorisation"
	case Validation:
		return "validation"
	case State:
		return "state"
	case Resource:
		return "resource"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}

// ClosesSession reports whether an error in this category must terminate
// the owning session after the ErrorResponse is sent.
func (c Category) ClosesSession() bool {
	return c == Protocol || c == Authorisation
}

// Code is a stable numeric identifier sent to clients in an ErrorResponse,
// independent of Go error text (which may change freely).
type Code uint16

const (
	CodeUnknownOpcode Code = iota + 1
	CodeOversizedFrame
	CodeMalformedPayload
	CodeInvalidSequence
	CodeBadHMAC
	CodeUnknownSession

	CodeUnauthenticated
	CodeCharacterNotOwned
	CodeBannedAccount
	CodeMultiLoginDenied

	CodeInputOutOfBounds
	CodeStatOverdraw
	CodeInvalidClass

	CodeTargetMissing
	CodeTargetDead
	CodeOutOfRange
	CodeInsufficientResource
	CodeCooldownActive
	CodeUnknownSkill
	CodeSkillNotLearned

	CodeChannelFull
	CodeInventoryFull
	CodeLootNotOwned

	CodeStoreUnavailable
	CodeCacheUnavailable

	CodeServerError
)

// Error is the taxonomy-tagged error type carried through the core. It
// wraps an underlying cause for logging while keeping a stable Code/
// Category pair for client-facing and propagation-policy decisions.
type Error struct {
	Category Category
	Code     Code
	Opcode   uint16 // originating opcode, for ErrorResponse tagging
	cause    error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Category, e.cause)
	}
	return e.Category.String()
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a taxonomy error with no wrapped cause.
func New(cat Category, code Code, opcode uint16) *Error {
	return &Error{Category: cat, Code: code, Opcode: opcode}
}

// Wrap attaches cause to a taxonomy error for logging, keeping Code/
// Category as the client-facing contract.
func Wrap(cat Category, code Code, opcode uint16, cause error) *Error {
	return &Error{Category: cat, Code: code, Opcode: opcode, cause: cause}
}

// As reports whether err is (or wraps) a taxonomy Error, returning it.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	if ok {
		return e, true
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return As(u.Unwrap())
	}
	return nil, false
}
