// Package session threads visitor state across the redirect hops of the
// auth relay. Nothing here is ambient: every piece of state lives in an
// explicit record keyed by the session id carried in the visitor's cookie,
// and is abandoned to expiry if the visitor never comes back.
package session

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("session: not found")

type Consent int

const (
	ConsentUnset Consent = iota
	ConsentAgreed
	ConsentDeclined
)

// PendingAuthRequest captures the intent of an /auth hit so it survives the
// login and consent round-trips. Consumed when the signed redirect is issued.
type PendingAuthRequest struct {
	CourseID       int64  `json:"course_id"`
	CourseModuleID int64  `json:"cm_id"`
	CallbackURL    string `json:"callback_url"`
}

// State is one visitor's server-side session.
type State struct {
	SID     string
	UserID  int64 // 0 while anonymous
	Consent Consent
	Pending *PendingAuthRequest

	// WantsURL is where a visitor who logged in without a pending auth
	// request should land afterwards.
	WantsURL string
}

func (s State) Authenticated() bool { return s.UserID != 0 }

type Store interface {
	Get(ctx context.Context, sid string) (State, error)
	Put(ctx context.Context, st State) error
	Delete(ctx context.Context, sid string) error
}
