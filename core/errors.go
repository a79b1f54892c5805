package core

import "errors"

// Registration-time errors. These abort program startup; none of them are
// expected to be recovered from.
var (
	ErrInvalidProjectID   = errors.New("fastpubsub: project id must be a non-empty, trimmed string")
	ErrInvalidPrefix      = errors.New("fastpubsub: prefix does not match the allowed pattern")
	ErrInvalidRouter      = errors.New("fastpubsub: router cannot include itself or an ancestor")
	ErrDuplicatePrefix    = errors.New("fastpubsub: sibling router already uses this prefix")
	ErrDuplicateAlias     = errors.New("fastpubsub: subscriber alias already registered on this router")
	ErrInvalidMiddleware  = errors.New("fastpubsub: middleware failed validation")
	ErrInvalidRetryPolicy = errors.New("fastpubsub: invalid retry policy")
)

// Publish/start-time errors.
var (
	ErrUnserializablePayload      = errors.New("fastpubsub: publisher cannot serialize payload")
	ErrNoSubscribersSelected      = errors.New("fastpubsub: no subscribers remain after selection")
	ErrSubscriptionNotProvisioned = errors.New("fastpubsub: subscription not found; set Lifecycle.Autocreate to provision it")
)

// Drop and Retry are the two control-flow signals a handler may return in
// place of a plain error. Drop acknowledges the message as successfully
// consumed without further action; Retry negatively acknowledges it so the
// bus redelivers per the subscriber's retry policy.
var (
	Drop  = errors.New("fastpubsub: drop message (ack, do not redeliver)")
	Retry = errors.New("fastpubsub: retry message (nack, redeliver)")
)

// IsDrop reports whether err is, or wraps, Drop.
func IsDrop(err error) bool { return errors.Is(err, Drop) }

// IsRetry reports whether err is, or wraps, Retry.
func IsRetry(err error) bool { return errors.Is(err, Retry) }
