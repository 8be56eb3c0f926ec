// Package events holds the lifecycle hooks the embedding system invokes
// when activities are created, renamed, or a user finishes logging in.
package events

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quizlink/quizlink-bridge/internal/activity"
	"github.com/quizlink/quizlink-bridge/internal/relay"
	"github.com/quizlink/quizlink-bridge/internal/remote"
)

// Lifecycle is what the embedding system calls into.
type Lifecycle interface {
	OnActivityCreated(ctx context.Context, act activity.Activity, cm activity.CourseModule, actor activity.User, opts CreateOptions) (activity.Activity, error)
	OnActivityRenamed(ctx context.Context, act activity.Activity) error
	OnUserLoggedIn(ctx context.Context, sid string, userID int64) (relay.Redirect, bool, error)
}

// CreateOptions carries the optional inputs of activity creation.
type CreateOptions struct {
	// QuizExport is a pre-rendered quiz document to seed the event with.
	QuizExport string
	// SourceEventID duplicates an existing event instead of creating one.
	SourceEventID string
}

type Handler struct {
	store     activity.Store
	remote    *remote.Client
	auth      *relay.AuthRelay
	publicURL string
	log       zerolog.Logger
}

func NewHandler(store activity.Store, client *remote.Client, auth *relay.AuthRelay, publicURL string, log zerolog.Logger) *Handler {
	return &Handler{store: store, remote: client, auth: auth, publicURL: publicURL, log: log}
}

// OnActivityCreated registers the freshly stored activity with the quiz
// service and links the returned event. If the remote call fails the local
// record is deleted again, so no activity ever points at a non-existent
// event.
func (h *Handler) OnActivityCreated(ctx context.Context, act activity.Activity, cm activity.CourseModule, actor activity.User, opts CreateOptions) (activity.Activity, error) {
	req := remote.CreateEventRequest{
		ActivityID:    act.ID,
		Name:          act.Name,
		Description:   act.Intro,
		Quiz:          opts.QuizExport,
		MoodleUserID:  actor.ID,
		DisplayName:   actor.DisplayName(),
		FirstName:     actor.FirstName,
		LastName:      actor.LastName,
		Email:         actor.Email,
		AuthURL:       fmt.Sprintf("%s/auth?course=%d&cm=%d", h.publicURL, cm.CourseID, cm.ID),
		CourseURL:     fmt.Sprintf("%s/course/%d", h.publicURL, cm.CourseID),
		ReportURL:     fmt.Sprintf("%s/report?cm=%d", h.publicURL, cm.ID),
		SourceEventID: opts.SourceEventID,
	}
	resp, err := h.remote.CreateEvent(ctx, req)
	if err != nil {
		// Compensating cleanup: keep local and remote state consistent.
		if delErr := h.store.DeleteActivity(ctx, act.ID); delErr != nil {
			h.log.Error().Err(delErr).Int64("activity", act.ID).Msg("cleanup after failed event creation also failed")
		}
		return activity.Activity{}, fmt.Errorf("%w: create event: %v", relay.ErrRemoteService, err)
	}
	if err := h.store.SetEventLink(ctx, act.ID, resp.ViewURL, resp.EventSlug); err != nil {
		return activity.Activity{}, fmt.Errorf("%w: %v", relay.ErrInternal, err)
	}
	act.EditURL = resp.ViewURL
	act.EventSlug = resp.EventSlug
	h.log.Info().Int64("activity", act.ID).Str("slug", resp.EventSlug).Msg("event created on quiz service")
	return act, nil
}

// OnActivityRenamed pushes a local rename out to the linked event.
func (h *Handler) OnActivityRenamed(ctx context.Context, act activity.Activity) error {
	if act.EventSlug == "" {
		return nil
	}
	if err := h.remote.RenameEvent(ctx, act.EventSlug, act.Name); err != nil {
		return fmt.Errorf("%w: rename event: %v", relay.ErrRemoteService, err)
	}
	return nil
}

// OnUserLoggedIn resumes a pending auth relay, if there is one.
func (h *Handler) OnUserLoggedIn(ctx context.Context, sid string, userID int64) (relay.Redirect, bool, error) {
	return h.auth.Resume(ctx, sid, userID)
}
