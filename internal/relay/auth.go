// Package relay implements the signed-callback protocol between the bridge
// and the quiz service: the multi-redirect auth flow out, and the report and
// rename callbacks in. State between redirect hops lives in the session
// store; each entry point runs one request to completion.
package relay

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quizlink/quizlink-bridge/internal/activity"
	"github.com/quizlink/quizlink-bridge/internal/session"
	"github.com/quizlink/quizlink-bridge/internal/token"
)

// Options carries the deployment-level settings the relays need.
type Options struct {
	AccessKeyID       string
	BaseURL           string // trusted prefix for callback URLs
	PublicURL         string
	LoginURL          string
	ShowConsentScreen bool
	Version           string
	Protocol          token.ProtocolVersion
}

// Redirect is the outcome of a successful relay step.
type Redirect struct {
	URL string
}

type AuthRelay struct {
	opts     Options
	signer   *token.Signer
	sessions session.Store
	store    activity.Store
	log      zerolog.Logger
}

func NewAuthRelay(opts Options, signer *token.Signer, sessions session.Store, store activity.Store, log zerolog.Logger) *AuthRelay {
	return &AuthRelay{opts: opts, signer: signer, sessions: sessions, store: store, log: log}
}

// BeginRequest is the decoded /auth query.
type BeginRequest struct {
	CourseID       int64
	CourseModuleID int64
	CallbackURL    string
	RedirectTo     string // optional, appended to the callback
}

// Begin handles an /auth hit. The callback prefix check runs before any
// session write or redirect: it is the only open-redirect guard in the flow.
func (a *AuthRelay) Begin(ctx context.Context, sid string, req BeginRequest) (Redirect, error) {
	if req.CourseID == 0 || req.CourseModuleID == 0 || req.CallbackURL == "" {
		return Redirect{}, ErrMissingParameters
	}
	if !a.validCallback(req.CallbackURL) {
		a.log.Warn().Str("callback", req.CallbackURL).Msg("auth rejected: callback outside trusted base")
		return Redirect{}, ErrInvalidCallback
	}

	callback := req.CallbackURL
	if req.RedirectTo != "" {
		callback += sep(callback) + "redirectTo=" + url.QueryEscape(req.RedirectTo)
	}

	st, err := a.sessions.Get(ctx, sid)
	if err != nil && err != session.ErrNotFound {
		return Redirect{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	st.SID = sid
	st.Pending = &session.PendingAuthRequest{
		CourseID:       req.CourseID,
		CourseModuleID: req.CourseModuleID,
		CallbackURL:    callback,
	}

	if !st.Authenticated() {
		// Come back through Resume once the host has logged the visitor in.
		st.WantsURL = a.opts.PublicURL + "/auth?" + token.CanonicalQuery(token.Payload{
			"course":   fmt.Sprint(req.CourseID),
			"cm":       fmt.Sprint(req.CourseModuleID),
			"callback": callback,
		})
		if err := a.sessions.Put(ctx, st); err != nil {
			return Redirect{}, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		return Redirect{URL: a.opts.LoginURL}, nil
	}

	if err := a.sessions.Put(ctx, st); err != nil {
		return Redirect{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return a.finish(ctx, st)
}

// Resume is the login-completed signal. It reports false when the session
// has no business with the relay, so the caller can fall through to the
// host's normal post-login behaviour.
func (a *AuthRelay) Resume(ctx context.Context, sid string, userID int64) (Redirect, bool, error) {
	st, err := a.sessions.Get(ctx, sid)
	if err == session.ErrNotFound {
		return Redirect{}, false, nil
	}
	if err != nil {
		return Redirect{}, false, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	wants := st.WantsURL
	st.UserID = userID
	st.WantsURL = ""
	if err := a.sessions.Put(ctx, st); err != nil {
		return Redirect{}, false, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if st.Pending == nil {
		if wants != "" {
			return Redirect{URL: wants}, true, nil
		}
		return Redirect{}, false, nil
	}
	rd, err := a.finish(ctx, st)
	return rd, true, err
}

// RecordConsent stores the visitor's decision and resumes the relay. A
// decline still proceeds: the redirect simply carries a blank email.
func (a *AuthRelay) RecordConsent(ctx context.Context, sid string, agreed bool, redirectURL string) (Redirect, error) {
	st, err := a.sessions.Get(ctx, sid)
	if err == session.ErrNotFound {
		return Redirect{}, ErrMissingParameters
	}
	if err != nil {
		return Redirect{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if agreed {
		st.Consent = session.ConsentAgreed
	} else {
		st.Consent = session.ConsentDeclined
	}
	if err := a.sessions.Put(ctx, st); err != nil {
		return Redirect{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if redirectURL != "" {
		return Redirect{URL: redirectURL}, nil
	}
	return a.finish(ctx, st)
}

// Continue resumes a relay whose consent is already resolved, as when the
// consent page is revisited after the decision was stored.
func (a *AuthRelay) Continue(ctx context.Context, sid string) (Redirect, error) {
	st, err := a.sessions.Get(ctx, sid)
	if err == session.ErrNotFound {
		return Redirect{}, ErrMissingParameters
	}
	if err != nil {
		return Redirect{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return a.finish(ctx, st)
}

// ConsentState reports the stored decision for the consent page.
func (a *AuthRelay) ConsentState(ctx context.Context, sid string) (session.Consent, error) {
	st, err := a.sessions.Get(ctx, sid)
	if err == session.ErrNotFound {
		return session.ConsentUnset, nil
	}
	if err != nil {
		return session.ConsentUnset, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return st.Consent, nil
}

// finish is the REDIRECTING step: role, access check, consent policy, signed
// envelope, and consumption of the pending request.
func (a *AuthRelay) finish(ctx context.Context, st session.State) (Redirect, error) {
	if st.Pending == nil || !st.Authenticated() {
		return Redirect{}, ErrMissingParameters
	}
	pending := *st.Pending
	if !a.validCallback(pending.CallbackURL) {
		return Redirect{}, ErrInvalidCallback
	}

	act, cm, err := a.store.GetByCourseModule(ctx, pending.CourseModuleID)
	if err != nil {
		return Redirect{}, fmt.Errorf("%w: course module %d: %v", ErrNotFound, pending.CourseModuleID, err)
	}
	user, err := a.store.GetUser(ctx, st.UserID)
	if err != nil {
		return Redirect{}, fmt.Errorf("%w: user %d: %v", ErrNotFound, st.UserID, err)
	}
	role, err := a.store.RoleFor(ctx, cm.CourseID, user.ID)
	if err != nil {
		return Redirect{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	// Teachers implicitly consent; students are prompted once per session
	// while the consent screen is enabled.
	if role == activity.RoleTeacher || !a.opts.ShowConsentScreen {
		if st.Consent == session.ConsentUnset {
			st.Consent = session.ConsentAgreed
			if err := a.sessions.Put(ctx, st); err != nil {
				return Redirect{}, fmt.Errorf("%w: %v", ErrInternal, err)
			}
		}
	} else if st.Consent == session.ConsentUnset {
		return Redirect{URL: a.opts.PublicURL + "/consent"}, nil
	}

	hasAccess, err := a.store.UserCanAccess(ctx, cm.ID, user.ID)
	if err != nil {
		return Redirect{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	ts := isoNow()
	signed := token.Payload{
		"accessKeyId":    a.opts.AccessKeyID,
		"hasAccess":      token.FormatBool(hasAccess),
		"moodleUsername": user.Username,
		"role":           string(role),
		"ts":             ts,
		"version":        a.opts.Version,
		"eventSlug":      act.EventSlug,
	}
	tok, err := a.signer.Sign(a.opts.Protocol.AuthAction(), signed)
	if err != nil {
		return Redirect{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	email := ""
	if st.Consent == session.ConsentAgreed {
		email = user.Email
	}
	payload := token.Payload{
		"moodleUsername": user.Username,
		"displayName":    user.DisplayName(),
		"firstName":      user.FirstName,
		"lastName":       user.LastName,
		"email":          email,
		"role":           string(role),
		"hasAccess":      token.FormatBool(hasAccess),
		"accessKeyId":    a.opts.AccessKeyID,
		"ts":             ts,
		"token":          tok,
		"version":        a.opts.Version,
		"eventSlug":      act.EventSlug,
	}

	// Consume the pending request; the consent decision outlives it.
	st.Pending = nil
	if err := a.sessions.Put(ctx, st); err != nil {
		return Redirect{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	dest := pending.CallbackURL + sep(pending.CallbackURL) + token.CanonicalQuery(payload)
	a.log.Info().Int64("cm", cm.ID).Int64("user", user.ID).Str("role", string(role)).Msg("auth relay redirect issued")
	return Redirect{URL: dest}, nil
}

func (a *AuthRelay) validCallback(cb string) bool {
	base := strings.TrimRight(a.opts.BaseURL, "/")
	return base != "" && cb != "" && strings.HasPrefix(cb, base)
}

func sep(u string) string {
	if strings.Contains(u, "?") {
		return "&"
	}
	return "?"
}

func isoNow() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}
