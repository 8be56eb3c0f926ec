package relay

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quizlink/quizlink-bridge/internal/activity"
	"github.com/quizlink/quizlink-bridge/internal/session"
	"github.com/quizlink/quizlink-bridge/internal/token"
)

// Launcher builds the signed frame URL for the in-LMS view of an activity.
// The quiz service validates the JOIN token and mounts the event inside the
// returned URL.
type Launcher struct {
	opts     Options
	signer   *token.Signer
	sessions session.Store
	store    activity.Store
	log      zerolog.Logger
}

func NewLauncher(opts Options, signer *token.Signer, sessions session.Store, store activity.Store, log zerolog.Logger) *Launcher {
	return &Launcher{opts: opts, signer: signer, sessions: sessions, store: store, log: log}
}

// LaunchResult carries either the frame URL or a consent-prompt redirect.
type LaunchResult struct {
	FrameURL   string
	ConsentURL string
}

func (l *Launcher) Build(ctx context.Context, sid string, userID, cmID int64) (LaunchResult, error) {
	act, cm, err := l.store.GetByCourseModule(ctx, cmID)
	if err != nil {
		return LaunchResult{}, fmt.Errorf("%w: course module %d: %v", ErrNotFound, cmID, err)
	}
	if act.EditURL == "" {
		// Created locally but the remote event never materialized.
		return LaunchResult{}, fmt.Errorf("%w: activity %d has no linked event", ErrNotFound, act.ID)
	}
	user, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return LaunchResult{}, fmt.Errorf("%w: user %d: %v", ErrNotFound, userID, err)
	}
	role, err := l.store.RoleFor(ctx, cm.CourseID, userID)
	if err != nil {
		return LaunchResult{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	st, err := l.sessions.Get(ctx, sid)
	if err != nil && err != session.ErrNotFound {
		return LaunchResult{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	st.SID = sid
	st.UserID = userID
	if role == activity.RoleTeacher || !l.opts.ShowConsentScreen {
		if st.Consent == session.ConsentUnset {
			st.Consent = session.ConsentAgreed
		}
	} else if st.Consent == session.ConsentUnset {
		if err := l.sessions.Put(ctx, st); err != nil {
			return LaunchResult{}, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		return LaunchResult{ConsentURL: l.opts.PublicURL + "/consent"}, nil
	}
	if err := l.sessions.Put(ctx, st); err != nil {
		return LaunchResult{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	hasAccess, err := l.store.UserCanAccess(ctx, cm.ID, userID)
	if err != nil {
		return LaunchResult{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	canEdit := role == activity.RoleTeacher
	ts := isoNow()
	authURL := fmt.Sprintf("%s/auth?course=%d&cm=%d", l.opts.PublicURL, cm.CourseID, cm.ID)
	reportURL := fmt.Sprintf("%s/report?cm=%d", l.opts.PublicURL, cm.ID)
	courseURL := fmt.Sprintf("%s/course/%d", l.opts.PublicURL, cm.CourseID)

	signed := token.Payload{
		"accessKeyId":    l.opts.AccessKeyID,
		"authUrl":        authURL,
		"canEdit":        token.FormatBool(canEdit),
		"courseUrl":      courseURL,
		"moodleUsername": user.Username,
		"reportUrl":      reportURL,
		"ts":             ts,
		"version":        l.opts.Version,
		"eventSlug":      act.EventSlug,
	}
	tok, err := l.signer.Sign(l.opts.Protocol.JoinAction(), signed)
	if err != nil {
		return LaunchResult{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	email := ""
	if st.Consent == session.ConsentAgreed {
		email = user.Email
	}
	frame := token.Payload{
		"accessKeyId":    l.opts.AccessKeyID,
		"authUrl":        authURL,
		"canEdit":        token.FormatBool(canEdit),
		"courseUrl":      courseURL,
		"displayName":    user.DisplayName(),
		"email":          email,
		"firstName":      user.FirstName,
		"hasAccess":      token.FormatBool(hasAccess),
		"lastName":       user.LastName,
		"moodleUsername": user.Username,
		"reportUrl":      reportURL,
		"role":           string(role),
		"token":          tok,
		"ts":             ts,
		"version":        l.opts.Version,
		"eventSlug":      act.EventSlug,
	}
	return LaunchResult{FrameURL: act.EditURL + sep(act.EditURL) + token.CanonicalQuery(frame)}, nil
}
