package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/quizlink/quizlink-bridge/internal/activity"
	"github.com/quizlink/quizlink-bridge/internal/events"
	"github.com/quizlink/quizlink-bridge/internal/relay"
	"github.com/quizlink/quizlink-bridge/internal/session"
)

// UserLookup is the slice of the activity store the handlers need for
// resolving the session user.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (activity.User, error)
}

type createActivityReq struct {
	CourseID         int64  `json:"course_id"`
	Name             string `json:"name"`
	Intro            string `json:"intro,omitempty"`
	Grade            int64  `json:"grade"`
	CustomCompletion bool   `json:"custom_completion,omitempty"`
	AuthorID         int64  `json:"author_id"`
	QuizExport       string `json:"quiz,omitempty"`
	SourceEventID    string `json:"event_id,omitempty"`
}

type createActivityResp struct {
	Activity     activity.Activity     `json:"activity"`
	CourseModule activity.CourseModule `json:"course_module"`
}

// POST /hooks/activity-created — the host tells the bridge a new activity
// was added; the bridge registers it with the quiz service.
func ActivityCreatedHandler(store activity.Store, lifecycle events.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createActivityReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.CourseID == 0 || req.Name == "" || req.AuthorID == 0 {
			writeError(w, relay.ErrMissingParameters)
			return
		}
		actor, err := store.GetUser(r.Context(), req.AuthorID)
		if err != nil {
			writeError(w, relay.ErrNotFound)
			return
		}
		act := activity.Activity{
			CourseID:         req.CourseID,
			Name:             req.Name,
			Intro:            req.Intro,
			Grade:            req.Grade,
			CustomCompletion: req.CustomCompletion,
			AuthorID:         req.AuthorID,
		}
		if err := store.CreateActivity(r.Context(), &act); err != nil {
			writeError(w, relay.ErrInternal)
			return
		}
		cm, err := store.AddCourseModule(r.Context(), act.CourseID, act.ID)
		if err != nil {
			writeError(w, relay.ErrInternal)
			return
		}
		linked, err := lifecycle.OnActivityCreated(r.Context(), act, cm, actor, events.CreateOptions{
			QuizExport:    req.QuizExport,
			SourceEventID: req.SourceEventID,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, createActivityResp{Activity: linked, CourseModule: cm})
	}
}

type loggedInReq struct {
	UserID int64 `json:"user_id"`
}

// POST /hooks/logged-in — the host signals that the session's visitor is
// now authenticated; a pending auth relay resumes here.
func LoggedInHandler(lifecycle events.Lifecycle, cookies *session.Cookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loggedInReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}
		sid := cookies.Ensure(w, r)
		rd, handled, err := lifecycle.OnUserLoggedIn(r.Context(), sid, req.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !handled {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, map[string]string{"redirect": rd.URL})
	}
}
