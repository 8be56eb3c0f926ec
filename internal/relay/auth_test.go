package relay

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/quizlink/quizlink-bridge/internal/activity"
	"github.com/quizlink/quizlink-bridge/internal/session"
	"github.com/quizlink/quizlink-bridge/internal/token"
)

const (
	testBase     = "https://svc.example"
	testCallback = "https://svc.example/cb"
)

func testOptions(showConsent bool) Options {
	return Options{
		AccessKeyID:       "AK123",
		BaseURL:           testBase,
		PublicURL:         "https://lms.example/bridge",
		LoginURL:          "https://lms.example/login",
		ShowConsentScreen: showConsent,
		Version:           "2024041600",
		Protocol:          token.ProtocolV3,
	}
}

func authFixture(t *testing.T, showConsent bool) (*AuthRelay, *fakeStore, *session.MemoryStore, *token.Signer) {
	t.Helper()
	store := newFakeStore()
	store.addActivity(activity.Activity{
		ID: 1, CourseID: 5, Name: "Quiz Night", Grade: 100,
		EventSlug: "slug-1", EditURL: "https://svc.example/events/slug-1",
	}, 9)
	store.addUser(activity.User{
		ID: 7, Username: "alice", FirstName: "Alice", LastName: "Liddell", Email: "alice@example.org",
	}, 5, false)
	store.addUser(activity.User{
		ID: 8, Username: "bob", FirstName: "Bob", LastName: "Carroll", Email: "bob@example.org",
	}, 5, true)

	sessions := session.NewMemoryStore()
	signer := token.NewSigner("s3cret")
	return NewAuthRelay(testOptions(showConsent), signer, sessions, store, zerolog.Nop()), store, sessions, signer
}

func beginReq() BeginRequest {
	return BeginRequest{CourseID: 5, CourseModuleID: 9, CallbackURL: testCallback}
}

func TestBeginRejectsUntrustedCallback(t *testing.T) {
	a, _, sessions, _ := authFixture(t, true)
	_, err := a.Begin(context.Background(), "sid-1", BeginRequest{
		CourseID: 5, CourseModuleID: 9, CallbackURL: "https://evil.example/cb",
	})
	if !errors.Is(err, ErrInvalidCallback) {
		t.Fatalf("want ErrInvalidCallback, got %v", err)
	}
	// Nothing may be persisted before the guard.
	if _, err := sessions.Get(context.Background(), "sid-1"); err != session.ErrNotFound {
		t.Fatal("session must not be written for a rejected callback")
	}
}

func TestBeginRequiresParameters(t *testing.T) {
	a, _, _, _ := authFixture(t, true)
	_, err := a.Begin(context.Background(), "sid-1", BeginRequest{CourseID: 5})
	if !errors.Is(err, ErrMissingParameters) {
		t.Fatalf("want ErrMissingParameters, got %v", err)
	}
}

func TestBeginAnonymousCapturesIntent(t *testing.T) {
	a, _, sessions, _ := authFixture(t, true)
	rd, err := a.Begin(context.Background(), "sid-1", beginReq())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if rd.URL != "https://lms.example/login" {
		t.Fatalf("anonymous visitor should bounce to login, got %q", rd.URL)
	}
	st, err := sessions.Get(context.Background(), "sid-1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if st.Pending == nil {
		t.Fatal("pending auth request not captured")
	}
	if st.Pending.CourseID != 5 || st.Pending.CourseModuleID != 9 || st.Pending.CallbackURL != testCallback {
		t.Fatalf("pending request wrong: %+v", st.Pending)
	}
}

func TestStudentIsPromptedForConsent(t *testing.T) {
	a, _, sessions, _ := authFixture(t, true)
	seedAuthed(t, sessions, "sid-1", 7)

	rd, err := a.Begin(context.Background(), "sid-1", beginReq())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !strings.HasSuffix(rd.URL, "/consent") {
		t.Fatalf("student with unresolved consent should see the prompt, got %q", rd.URL)
	}
}

func TestConsentAgreedIncludesEmail(t *testing.T) {
	a, _, sessions, signer := authFixture(t, true)
	seedAuthed(t, sessions, "sid-1", 7)
	if _, err := a.Begin(context.Background(), "sid-1", beginReq()); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	rd, err := a.RecordConsent(context.Background(), "sid-1", true, "")
	if err != nil {
		t.Fatalf("RecordConsent: %v", err)
	}
	q := redirectQuery(t, rd.URL)
	if got := q.Get("email"); got != "alice@example.org" {
		t.Fatalf("consented email: got %q", got)
	}
	if got := q.Get("role"); got != "student" {
		t.Fatalf("role: got %q", got)
	}
	verifyAuthToken(t, signer, q)

	// The pending request is consumed; the consent decision survives.
	st, err := sessions.Get(context.Background(), "sid-1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if st.Pending != nil {
		t.Fatal("pending auth request should be consumed by the redirect")
	}
	if st.Consent != session.ConsentAgreed {
		t.Fatal("consent decision should outlive the pending request")
	}
}

func TestConsentDeclinedBlanksEmail(t *testing.T) {
	a, _, sessions, _ := authFixture(t, true)
	seedAuthed(t, sessions, "sid-1", 7)
	if _, err := a.Begin(context.Background(), "sid-1", beginReq()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	rd, err := a.RecordConsent(context.Background(), "sid-1", false, "")
	if err != nil {
		t.Fatalf("RecordConsent: %v", err)
	}
	q := redirectQuery(t, rd.URL)
	if got := q.Get("email"); got != "" {
		t.Fatalf("declined consent must blank the email, got %q", got)
	}
}

func TestTeacherBypassesConsent(t *testing.T) {
	a, _, sessions, _ := authFixture(t, true)
	seedAuthed(t, sessions, "sid-2", 8)

	rd, err := a.Begin(context.Background(), "sid-2", beginReq())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if strings.HasSuffix(rd.URL, "/consent") {
		t.Fatal("teacher must never see the consent prompt")
	}
	q := redirectQuery(t, rd.URL)
	if got := q.Get("role"); got != "teacher" {
		t.Fatalf("role: got %q", got)
	}
	if got := q.Get("email"); got != "bob@example.org" {
		t.Fatalf("teacher email implied by role: got %q", got)
	}
}

func TestConsentScreenDisabledSkipsPrompt(t *testing.T) {
	a, _, sessions, _ := authFixture(t, false)
	seedAuthed(t, sessions, "sid-1", 7)
	rd, err := a.Begin(context.Background(), "sid-1", beginReq())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if strings.HasSuffix(rd.URL, "/consent") {
		t.Fatal("prompt must not show when the consent screen is disabled")
	}
}

func TestResumeAfterLogin(t *testing.T) {
	a, _, _, _ := authFixture(t, false)
	if _, err := a.Begin(context.Background(), "sid-1", beginReq()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	rd, handled, err := a.Resume(context.Background(), "sid-1", 7)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if !handled {
		t.Fatal("resume with a pending request should be handled")
	}
	q := redirectQuery(t, rd.URL)
	if got := q.Get("moodleUsername"); got != "alice" {
		t.Fatalf("username: got %q", got)
	}
}

func TestResumeWithoutPendingIsNotHandled(t *testing.T) {
	a, _, _, _ := authFixture(t, false)
	_, handled, err := a.Resume(context.Background(), "sid-unknown", 7)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if handled {
		t.Fatal("a session with no relay business must fall through")
	}
}

func TestFinishReportsMissingActivity(t *testing.T) {
	a, _, sessions, _ := authFixture(t, false)
	seedAuthed(t, sessions, "sid-1", 7)
	_, err := a.Begin(context.Background(), "sid-1", BeginRequest{
		CourseID: 5, CourseModuleID: 404, CallbackURL: testCallback,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

/* ---- helpers ---- */

func seedAuthed(t *testing.T, sessions session.Store, sid string, userID int64) {
	t.Helper()
	if err := sessions.Put(context.Background(), session.State{SID: sid, UserID: userID}); err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func redirectQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	if !strings.HasPrefix(raw, testCallback) {
		t.Fatalf("redirect should target the callback, got %q", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	return u.Query()
}

// verifyAuthToken recomputes the signed envelope from the redirect query and
// checks the embedded token against it.
func verifyAuthToken(t *testing.T, signer *token.Signer, q url.Values) {
	t.Helper()
	payload := token.Payload{
		"accessKeyId":    q.Get("accessKeyId"),
		"hasAccess":      q.Get("hasAccess"),
		"moodleUsername": q.Get("moodleUsername"),
		"role":           q.Get("role"),
		"ts":             q.Get("ts"),
		"version":        q.Get("version"),
		"eventSlug":      q.Get("eventSlug"),
	}
	ok, err := signer.Verify(token.ActionAuthV3, payload, q.Get("token"))
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if !ok {
		t.Fatal("redirect token does not verify against its own payload")
	}
}
