package relay

import "errors"

// Error kinds surfaced by the relays. The HTTP layer maps each kind to a
// status code; none of them are retried locally.
var (
	// ErrConfiguration: signing keys or base URL unset. Admin-facing.
	ErrConfiguration = errors.New("signing configuration missing")

	// ErrInvalidCallback: callback URL outside the trusted base. Rejected
	// before any redirect header is written.
	ErrInvalidCallback = errors.New("invalid callback url")

	// ErrMissingParameters: required query or session fields absent.
	ErrMissingParameters = errors.New("missing parameters")

	// ErrInvalidToken: signature mismatch on an inbound call. Treated as a
	// possible forgery and logged as such.
	ErrInvalidToken = errors.New("invalid token")

	// ErrNotFound: activity or user lookup missed.
	ErrNotFound = errors.New("not found")

	// ErrRemoteService: the quiz service answered non-200 or not at all.
	ErrRemoteService = errors.New("quiz service unavailable")

	// ErrInternal: local persistence failed mid-operation.
	ErrInternal = errors.New("internal failure")
)
