package activity

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("activity: not found")
	ErrUserNotFound = errors.New("activity: user not found")
)

// Store is the bridge's view of the host data it needs: activities with
// their course-module handles, users, enrolment-derived capabilities, and
// per-user completion rows.
type Store interface {
	CreateActivity(ctx context.Context, a *Activity) error
	AddCourseModule(ctx context.Context, courseID, activityID int64) (CourseModule, error)
	GetActivity(ctx context.Context, id int64) (Activity, error)
	GetByCourseModule(ctx context.Context, cmID int64) (Activity, CourseModule, error)
	UpdateName(ctx context.Context, activityID int64, name string) error
	SetEventLink(ctx context.Context, activityID int64, editURL, eventSlug string) error
	DeleteActivity(ctx context.Context, id int64) error

	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	UsernamesByID(ctx context.Context, ids []int64) (map[int64]string, error)

	// RoleFor derives the visitor's role from the course-update capability:
	// holders are teachers, everyone else is a student.
	RoleFor(ctx context.Context, courseID, userID int64) (Role, error)

	// UserCanAccess reports whether the module is visible to the user.
	UserCanAccess(ctx context.Context, cmID, userID int64) (bool, error)

	UpsertCompletion(ctx context.Context, c Completion) error
	GetCompletion(ctx context.Context, activityID, userID int64) (Completion, error)
}
