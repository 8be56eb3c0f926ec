package http

import (
	"net/http"
	"strconv"

	"github.com/quizlink/quizlink-bridge/internal/relay"
	"github.com/quizlink/quizlink-bridge/internal/session"
)

// GET /auth?course=&cm=&callback=[&redirectTo=]
func AuthHandler(auth *relay.AuthRelay, cookies *session.Cookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, err1 := strconv.ParseInt(r.URL.Query().Get("course"), 10, 64)
		cmID, err2 := strconv.ParseInt(r.URL.Query().Get("cm"), 10, 64)
		callback := r.URL.Query().Get("callback")
		if err1 != nil || err2 != nil || callback == "" {
			writeError(w, relay.ErrMissingParameters)
			return
		}
		sid := cookies.Ensure(w, r)
		rd, err := auth.Begin(r.Context(), sid, relay.BeginRequest{
			CourseID:       courseID,
			CourseModuleID: cmID,
			CallbackURL:    callback,
			RedirectTo:     r.URL.Query().Get("redirectTo"),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		http.Redirect(w, r, rd.URL, http.StatusFound)
	}
}

// GET /consent[?hasConsented=0|1][&redirectUrl=]
func ConsentHandler(auth *relay.AuthRelay, cookies *session.Cookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := cookies.Ensure(w, r)
		redirectURL := r.URL.Query().Get("redirectUrl")

		if raw := r.URL.Query().Get("hasConsented"); raw != "" {
			agreed := raw == "1" || raw == "true"
			rd, err := auth.RecordConsent(r.Context(), sid, agreed, redirectURL)
			if err != nil {
				writeError(w, err)
				return
			}
			http.Redirect(w, r, rd.URL, http.StatusFound)
			return
		}

		state, err := auth.ConsentState(r.Context(), sid)
		if err != nil {
			writeError(w, err)
			return
		}
		if state != session.ConsentUnset {
			if redirectURL != "" {
				http.Redirect(w, r, redirectURL, http.StatusFound)
				return
			}
			rd, err := auth.Continue(r.Context(), sid)
			if err != nil {
				writeError(w, err)
				return
			}
			http.Redirect(w, r, rd.URL, http.StatusFound)
			return
		}

		renderConsentPrompt(w, redirectURL)
	}
}

// GET|POST /report?cm=&moodleUsername=&completion=&score=&accessKeyId=&ts=&token=
func ReportHandler(report *relay.ReportRelay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeError(w, relay.ErrMissingParameters)
			return
		}
		cmID, err := strconv.ParseInt(r.Form.Get("cm"), 10, 64)
		if err != nil {
			writeError(w, relay.ErrMissingParameters)
			return
		}
		rawScore := r.Form.Get("score")
		score, err := strconv.ParseFloat(rawScore, 64)
		if err != nil {
			writeError(w, relay.ErrMissingParameters)
			return
		}
		rep := relay.Report{
			CourseModuleID: cmID,
			Username:       r.Form.Get("moodleUsername"),
			Completion:     r.Form.Get("completion"),
			Score:          score,
			RawScore:       rawScore,
			TS:             r.Form.Get("ts"),
			Token:          r.Form.Get("token"),
		}
		if rep.Username == "" || rep.Completion == "" || rep.TS == "" || rep.Token == "" {
			writeError(w, relay.ErrMissingParameters)
			return
		}
		if err := report.Process(r.Context(), rep); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]string{"status": "ok"})
	}
}

// ReportV1Handler is the retired legacy report surface: always 400.
func ReportV1Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "this report endpoint is deprecated, use the v3 endpoint", http.StatusBadRequest)
	}
}

// POST /rename {cmid, name, ts, token}
func RenameHandler(rename *relay.RenameRelay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		cmID, err := strconv.ParseInt(r.Form.Get("cmid"), 10, 64)
		if err != nil {
			http.Error(w, "cmid required", http.StatusBadRequest)
			return
		}
		reqErr := rename.Process(r.Context(), relay.RenameRequest{
			CourseModuleID: cmID,
			Name:           r.Form.Get("name"),
			TS:             r.Form.Get("ts"),
			Token:          r.Form.Get("token"),
		})
		if reqErr != nil {
			// Contract: bad token is 403, everything else is 400.
			if statusFor(reqErr) == http.StatusForbidden {
				http.Error(w, reqErr.Error(), http.StatusForbidden)
			} else {
				http.Error(w, reqErr.Error(), http.StatusBadRequest)
			}
			return
		}
		writeJSON(w, map[string]string{"status": "ok"})
	}
}
