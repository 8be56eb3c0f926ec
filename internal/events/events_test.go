package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/quizlink/quizlink-bridge/internal/activity"
	"github.com/quizlink/quizlink-bridge/internal/relay"
	"github.com/quizlink/quizlink-bridge/internal/remote"
	"github.com/quizlink/quizlink-bridge/internal/token"
)

// recordStore tracks only the calls OnActivityCreated makes.
type recordStore struct {
	activity.Store

	deleted  []int64
	linked   map[int64][2]string
	linkFail error
}

func (s *recordStore) DeleteActivity(_ context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *recordStore) SetEventLink(_ context.Context, activityID int64, editURL, eventSlug string) error {
	if s.linkFail != nil {
		return s.linkFail
	}
	if s.linked == nil {
		s.linked = make(map[int64][2]string)
	}
	s.linked[activityID] = [2]string{editURL, eventSlug}
	return nil
}

func testHandler(t *testing.T, remoteHandler http.Handler) (*Handler, *recordStore) {
	t.Helper()
	srv := httptest.NewServer(remoteHandler)
	t.Cleanup(srv.Close)
	store := &recordStore{}
	client := remote.NewClient(srv.URL, "AK123", "2024041600", token.NewSigner("s3cret"), zerolog.Nop())
	return NewHandler(store, client, nil, "https://bridge.example", zerolog.Nop()), store
}

func TestOnActivityCreatedLinksEvent(t *testing.T) {
	h, store := testHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["authUrl"] != "https://bridge.example/auth?course=5&cm=9" {
			t.Errorf("authUrl: %v", body["authUrl"])
		}
		json.NewEncoder(w).Encode(remote.CreateEventResponse{ViewURL: "https://quiz.example/e/slug-1", EventSlug: "slug-1"})
	}))

	act := activity.Activity{ID: 1, CourseID: 5, Name: "Quiz Night"}
	cm := activity.CourseModule{ID: 9, CourseID: 5, ActivityID: 1}
	teacher := activity.User{ID: 8, Username: "bob", FirstName: "Bob", LastName: "Teacher", Email: "bob@example.org"}

	out, err := h.OnActivityCreated(context.Background(), act, cm, teacher, CreateOptions{})
	if err != nil {
		t.Fatalf("OnActivityCreated: %v", err)
	}
	if out.EditURL != "https://quiz.example/e/slug-1" || out.EventSlug != "slug-1" {
		t.Fatalf("returned activity not linked: %+v", out)
	}
	if got := store.linked[1]; got != [2]string{"https://quiz.example/e/slug-1", "slug-1"} {
		t.Fatalf("stored link: %v", got)
	}
	if len(store.deleted) != 0 {
		t.Fatal("successful creation must not delete the activity")
	}
}

func TestOnActivityCreatedCleansUpOnRemoteFailure(t *testing.T) {
	h, store := testHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service down", http.StatusBadGateway)
	}))

	act := activity.Activity{ID: 1, CourseID: 5, Name: "Quiz Night"}
	cm := activity.CourseModule{ID: 9, CourseID: 5, ActivityID: 1}

	_, err := h.OnActivityCreated(context.Background(), act, cm, activity.User{ID: 8}, CreateOptions{})
	if !errors.Is(err, relay.ErrRemoteService) {
		t.Fatalf("want ErrRemoteService, got %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != 1 {
		t.Fatalf("local record not cleaned up: deleted=%v", store.deleted)
	}
}

func TestOnActivityRenamedSkipsUnlinked(t *testing.T) {
	called := false
	h, _ := testHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	if err := h.OnActivityRenamed(context.Background(), activity.Activity{ID: 1, Name: "New"}); err != nil {
		t.Fatalf("OnActivityRenamed: %v", err)
	}
	if called {
		t.Fatal("activity without an event slug must not call the quiz service")
	}
}

func TestOnActivityRenamedPushesRename(t *testing.T) {
	var got map[string]string
	h, _ := testHandler(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))

	err := h.OnActivityRenamed(context.Background(), activity.Activity{ID: 1, Name: "New", EventSlug: "slug-1"})
	if err != nil {
		t.Fatalf("OnActivityRenamed: %v", err)
	}
	if got["slug"] != "slug-1" || got["name"] != "New" {
		t.Fatalf("rename body: %v", got)
	}
}
