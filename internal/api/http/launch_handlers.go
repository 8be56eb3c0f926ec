package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/quizlink/quizlink-bridge/internal/relay"
	"github.com/quizlink/quizlink-bridge/internal/remote"
	"github.com/quizlink/quizlink-bridge/internal/session"
)

// GET /launch?cm= — returns the signed frame URL for the activity.
func LaunchHandler(launcher *relay.Launcher, cookies *session.Cookies, sessions session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmID, err := strconv.ParseInt(r.URL.Query().Get("cm"), 10, 64)
		if err != nil {
			writeError(w, relay.ErrMissingParameters)
			return
		}
		sid := cookies.Ensure(w, r)
		st, err := sessions.Get(r.Context(), sid)
		if err != nil || !st.Authenticated() {
			http.Error(w, "login required", http.StatusUnauthorized)
			return
		}
		res, err := launcher.Build(r.Context(), sid, st.UserID, cmID)
		if err != nil {
			writeError(w, err)
			return
		}
		if res.ConsentURL != "" {
			http.Redirect(w, r, res.ConsentURL, http.StatusFound)
			return
		}
		writeJSON(w, map[string]string{"frameUrl": res.FrameURL})
	}
}

// GET /events — the duplicate-event picker: the caller's existing events on
// the quiz service.
func EventsListHandler(client *remote.Client, cookies *session.Cookies, sessions session.Store, users UserLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := cookies.Ensure(w, r)
		st, err := sessions.Get(r.Context(), sid)
		if err != nil || !st.Authenticated() {
			http.Error(w, "login required", http.StatusUnauthorized)
			return
		}
		user, err := users.GetUser(r.Context(), st.UserID)
		if err != nil {
			writeError(w, relay.ErrNotFound)
			return
		}
		events, err := client.ListEvents(r.Context(), user.Username, user.Email)
		if err != nil {
			writeError(w, relay.ErrRemoteService)
			return
		}
		writeJSON(w, events)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
