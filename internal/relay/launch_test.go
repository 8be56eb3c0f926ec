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

func launchFixture(t *testing.T, showConsent bool) (*Launcher, *fakeStore, *session.MemoryStore, *token.Signer) {
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
	return NewLauncher(testOptions(showConsent), signer, sessions, store, zerolog.Nop()), store, sessions, signer
}

func frameQuery(t *testing.T, frameURL string) url.Values {
	t.Helper()
	u, err := url.Parse(frameURL)
	if err != nil {
		t.Fatalf("parse frame url: %v", err)
	}
	return u.Query()
}

func TestLaunchTeacherGetsEditableFrame(t *testing.T) {
	l, _, _, signer := launchFixture(t, true)

	res, err := l.Build(context.Background(), "sid-1", 8, 9)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.ConsentURL != "" {
		t.Fatal("teacher must not be sent to the consent prompt")
	}
	if !strings.HasPrefix(res.FrameURL, "https://svc.example/events/slug-1?") {
		t.Fatalf("frame url: %s", res.FrameURL)
	}

	q := frameQuery(t, res.FrameURL)
	if q.Get("canEdit") != "1" || q.Get("role") != "teacher" {
		t.Fatalf("teacher frame params: canEdit=%q role=%q", q.Get("canEdit"), q.Get("role"))
	}
	if q.Get("email") != "bob@example.org" {
		t.Fatalf("teacher email: %q", q.Get("email"))
	}

	ok, err := signer.Verify(token.ActionJoinV3, token.Payload{
		"accessKeyId":    "AK123",
		"authUrl":        q.Get("authUrl"),
		"canEdit":        q.Get("canEdit"),
		"courseUrl":      q.Get("courseUrl"),
		"moodleUsername": q.Get("moodleUsername"),
		"reportUrl":      q.Get("reportUrl"),
		"ts":             q.Get("ts"),
		"version":        q.Get("version"),
		"eventSlug":      q.Get("eventSlug"),
	}, q.Get("token"))
	if err != nil || !ok {
		t.Fatalf("frame token does not verify (ok=%v err=%v)", ok, err)
	}
}

func TestLaunchStudentWithoutConsentGetsPrompt(t *testing.T) {
	l, _, sessions, _ := launchFixture(t, true)

	res, err := l.Build(context.Background(), "sid-1", 7, 9)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.FrameURL != "" || res.ConsentURL == "" {
		t.Fatalf("want consent redirect, got %+v", res)
	}
	st, err := sessions.Get(context.Background(), "sid-1")
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if st.UserID != 7 {
		t.Fatalf("session user: %d", st.UserID)
	}
}

func TestLaunchDeclinedConsentBlanksEmail(t *testing.T) {
	l, _, sessions, _ := launchFixture(t, true)
	if err := sessions.Put(context.Background(), session.State{SID: "sid-1", UserID: 7, Consent: session.ConsentDeclined}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	res, err := l.Build(context.Background(), "sid-1", 7, 9)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	q := frameQuery(t, res.FrameURL)
	if q.Get("email") != "" {
		t.Fatalf("declined consent must blank the email, got %q", q.Get("email"))
	}
	if q.Get("moodleUsername") != "alice" {
		t.Fatalf("username still expected: %q", q.Get("moodleUsername"))
	}
}

func TestLaunchUnlinkedActivity(t *testing.T) {
	l, store, _, _ := launchFixture(t, false)
	store.addActivity(activity.Activity{ID: 2, CourseID: 5, Name: "Draft", Grade: 100}, 10)

	if _, err := l.Build(context.Background(), "sid-1", 8, 10); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for unlinked activity, got %v", err)
	}
}
