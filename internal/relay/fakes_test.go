package relay

import (
	"context"
	"fmt"

	"github.com/quizlink/quizlink-bridge/internal/activity"
)

/* ---- in-memory fakes satisfying activity.Store and grade.Store ---- */

type pair struct{ a, b int64 }

type fakeStore struct {
	activities  map[int64]activity.Activity
	modules     map[int64]activity.CourseModule
	users       map[int64]activity.User
	teachers    map[pair]bool // (courseID,userID)
	enrolled    map[pair]bool
	completions map[pair]activity.Completion // (activityID,userID)
	nextID      int64
	deleted     []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		activities:  map[int64]activity.Activity{},
		modules:     map[int64]activity.CourseModule{},
		users:       map[int64]activity.User{},
		teachers:    map[pair]bool{},
		enrolled:    map[pair]bool{},
		completions: map[pair]activity.Completion{},
	}
}

func (s *fakeStore) addActivity(a activity.Activity, cmID int64) {
	s.activities[a.ID] = a
	s.modules[cmID] = activity.CourseModule{ID: cmID, CourseID: a.CourseID, ActivityID: a.ID, Visible: true}
}

func (s *fakeStore) addUser(u activity.User, courseID int64, teacher bool) {
	s.users[u.ID] = u
	s.enrolled[pair{courseID, u.ID}] = true
	if teacher {
		s.teachers[pair{courseID, u.ID}] = true
	}
}

func (s *fakeStore) CreateActivity(_ context.Context, a *activity.Activity) error {
	s.nextID++
	a.ID = s.nextID
	s.activities[a.ID] = *a
	return nil
}

func (s *fakeStore) AddCourseModule(_ context.Context, courseID, activityID int64) (activity.CourseModule, error) {
	s.nextID++
	cm := activity.CourseModule{ID: s.nextID, CourseID: courseID, ActivityID: activityID, Visible: true}
	s.modules[cm.ID] = cm
	return cm, nil
}

func (s *fakeStore) GetActivity(_ context.Context, id int64) (activity.Activity, error) {
	a, ok := s.activities[id]
	if !ok {
		return activity.Activity{}, activity.ErrNotFound
	}
	return a, nil
}

func (s *fakeStore) GetByCourseModule(_ context.Context, cmID int64) (activity.Activity, activity.CourseModule, error) {
	cm, ok := s.modules[cmID]
	if !ok {
		return activity.Activity{}, activity.CourseModule{}, activity.ErrNotFound
	}
	a, ok := s.activities[cm.ActivityID]
	if !ok {
		return activity.Activity{}, activity.CourseModule{}, activity.ErrNotFound
	}
	return a, cm, nil
}

func (s *fakeStore) UpdateName(_ context.Context, activityID int64, name string) error {
	a, ok := s.activities[activityID]
	if !ok {
		return activity.ErrNotFound
	}
	a.Name = name
	s.activities[activityID] = a
	return nil
}

func (s *fakeStore) SetEventLink(_ context.Context, activityID int64, editURL, eventSlug string) error {
	a, ok := s.activities[activityID]
	if !ok {
		return activity.ErrNotFound
	}
	a.EditURL, a.EventSlug = editURL, eventSlug
	s.activities[activityID] = a
	return nil
}

func (s *fakeStore) DeleteActivity(_ context.Context, id int64) error {
	delete(s.activities, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeStore) GetUser(_ context.Context, id int64) (activity.User, error) {
	u, ok := s.users[id]
	if !ok {
		return activity.User{}, activity.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeStore) GetUserByUsername(_ context.Context, username string) (activity.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return activity.User{}, activity.ErrUserNotFound
}

func (s *fakeStore) UsernamesByID(_ context.Context, ids []int64) (map[int64]string, error) {
	out := map[int64]string{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u.Username
		}
	}
	return out, nil
}

func (s *fakeStore) RoleFor(_ context.Context, courseID, userID int64) (activity.Role, error) {
	if s.teachers[pair{courseID, userID}] {
		return activity.RoleTeacher, nil
	}
	return activity.RoleStudent, nil
}

func (s *fakeStore) UserCanAccess(_ context.Context, cmID, userID int64) (bool, error) {
	cm, ok := s.modules[cmID]
	if !ok {
		return false, activity.ErrNotFound
	}
	return cm.Visible && s.enrolled[pair{cm.CourseID, userID}], nil
}

func (s *fakeStore) UpsertCompletion(_ context.Context, c activity.Completion) error {
	k := pair{c.ActivityID, c.UserID}
	if prev, ok := s.completions[k]; ok {
		c.TimeCreated = prev.TimeCreated
	}
	s.completions[k] = c
	return nil
}

func (s *fakeStore) GetCompletion(_ context.Context, activityID, userID int64) (activity.Completion, error) {
	c, ok := s.completions[pair{activityID, userID}]
	if !ok {
		return activity.Completion{}, activity.ErrNotFound
	}
	return c, nil
}

type fakeGrades struct {
	maxByActivity map[int64]float64
	defaultMax    float64

	grades      map[pair]float64 // (activityID,userID)
	itemNames   map[int64]string
	completions map[pair]activity.CompletionStatus // (cmID,userID)
	failNext    error
}

func newFakeGrades() *fakeGrades {
	return &fakeGrades{
		maxByActivity: map[int64]float64{},
		grades:        map[pair]float64{},
		itemNames:     map[int64]string{},
		completions:   map[pair]activity.CompletionStatus{},
	}
}

func (g *fakeGrades) UpsertGrade(_ context.Context, a activity.Activity, userID int64, raw float64) error {
	if g.failNext != nil {
		return g.failNext
	}
	g.grades[pair{a.ID, userID}] = raw
	return nil
}

func (g *fakeGrades) UpdateItemName(_ context.Context, activityID int64, name string) error {
	g.itemNames[activityID] = name
	return nil
}

func (g *fakeGrades) MaxGrade(_ context.Context, a activity.Activity) (float64, error) {
	if max, ok := g.maxByActivity[a.ID]; ok {
		return max, nil
	}
	if a.Grade > 0 {
		return float64(a.Grade), nil
	}
	if g.defaultMax > 0 {
		return g.defaultMax, nil
	}
	return 100, nil
}

func (g *fakeGrades) SetCompletion(_ context.Context, cmID, userID int64, state activity.CompletionStatus) error {
	if g.failNext != nil {
		return g.failNext
	}
	g.completions[pair{cmID, userID}] = state
	return nil
}

var errBoom = fmt.Errorf("boom")
