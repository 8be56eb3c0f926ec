package activity

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) CreateActivity(ctx context.Context, a *Activity) error {
	now := time.Now().Unix()
	a.TimeCreated, a.TimeModified = now, now
	return s.db.QueryRowContext(ctx, `
		INSERT INTO activities (course_id, name, intro, event_slug, edit_url, grade, custom_completion, author_id, time_created, time_modified)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id`,
		a.CourseID, a.Name, a.Intro, a.EventSlug, a.EditURL, a.Grade, boolInt(a.CustomCompletion), a.AuthorID, a.TimeCreated, a.TimeModified).
		Scan(&a.ID)
}

func (s *SQLStore) AddCourseModule(ctx context.Context, courseID, activityID int64) (CourseModule, error) {
	cm := CourseModule{CourseID: courseID, ActivityID: activityID, Visible: true}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO course_modules (course_id, activity_id, visible)
		VALUES ($1,$2,1)
		RETURNING id`, courseID, activityID).Scan(&cm.ID)
	return cm, err
}

func (s *SQLStore) GetActivity(ctx context.Context, id int64) (Activity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, course_id, name, intro, event_slug, edit_url, grade, custom_completion, author_id, time_created, time_modified
		FROM activities WHERE id=$1`, id)
	return scanActivity(row)
}

func (s *SQLStore) GetByCourseModule(ctx context.Context, cmID int64) (Activity, CourseModule, error) {
	var cm CourseModule
	var visible int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, course_id, activity_id, visible FROM course_modules WHERE id=$1`, cmID).
		Scan(&cm.ID, &cm.CourseID, &cm.ActivityID, &visible)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Activity{}, CourseModule{}, ErrNotFound
		}
		return Activity{}, CourseModule{}, err
	}
	cm.Visible = visible != 0
	a, err := s.GetActivity(ctx, cm.ActivityID)
	return a, cm, err
}

func (s *SQLStore) UpdateName(ctx context.Context, activityID int64, name string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE activities SET name=$1, time_modified=$2 WHERE id=$3`,
		name, time.Now().Unix(), activityID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (s *SQLStore) SetEventLink(ctx context.Context, activityID int64, editURL, eventSlug string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE activities SET edit_url=$1, event_slug=$2, time_modified=$3 WHERE id=$4`,
		editURL, eventSlug, time.Now().Unix(), activityID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (s *SQLStore) DeleteActivity(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id=$1`, id)
	return err
}

func (s *SQLStore) GetUser(ctx context.Context, id int64) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, firstname, lastname, email FROM users WHERE id=$1`, id)
	return scanUser(row)
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, firstname, lastname, email FROM users WHERE username=$1`, username)
	return scanUser(row)
}

func (s *SQLStore) UsernamesByID(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	for _, id := range ids {
		var username string
		err := s.db.QueryRowContext(ctx, `SELECT username FROM users WHERE id=$1`, id).Scan(&username)
		if errors.Is(err, sql.ErrNoRows) {
			continue // deleted users drop out of the mapping
		}
		if err != nil {
			return nil, err
		}
		out[id] = username
	}
	return out, nil
}

func (s *SQLStore) RoleFor(ctx context.Context, courseID, userID int64) (Role, error) {
	var canUpdate int
	err := s.db.QueryRowContext(ctx, `
		SELECT can_update_course FROM enrolments WHERE course_id=$1 AND user_id=$2`,
		courseID, userID).Scan(&canUpdate)
	if errors.Is(err, sql.ErrNoRows) {
		return RoleStudent, nil
	}
	if err != nil {
		return "", err
	}
	if canUpdate != 0 {
		return RoleTeacher, nil
	}
	return RoleStudent, nil
}

func (s *SQLStore) UserCanAccess(ctx context.Context, cmID, userID int64) (bool, error) {
	var visible int
	var courseID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT course_id, visible FROM course_modules WHERE id=$1`, cmID).
		Scan(&courseID, &visible)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	if visible == 0 {
		return false, nil
	}
	var one int
	err = s.db.QueryRowContext(ctx, `
		SELECT 1 FROM enrolments WHERE course_id=$1 AND user_id=$2`, courseID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLStore) UpsertCompletion(ctx context.Context, c Completion) error {
	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO completion (activity_id, user_id, grade, status, time_created, time_modified)
		VALUES ($1,$2,$3,$4,$5,$5)
		ON CONFLICT (activity_id, user_id)
		DO UPDATE SET grade=EXCLUDED.grade, status=EXCLUDED.status, time_modified=EXCLUDED.time_modified`,
		c.ActivityID, c.UserID, c.Grade, string(c.Status), now)
	return err
}

func (s *SQLStore) GetCompletion(ctx context.Context, activityID, userID int64) (Completion, error) {
	var c Completion
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT activity_id, user_id, grade, status, time_created, time_modified
		FROM completion WHERE activity_id=$1 AND user_id=$2`, activityID, userID).
		Scan(&c.ActivityID, &c.UserID, &c.Grade, &status, &c.TimeCreated, &c.TimeModified)
	if errors.Is(err, sql.ErrNoRows) {
		return Completion{}, ErrNotFound
	}
	c.Status = CompletionStatus(status)
	return c, err
}

func scanActivity(row *sql.Row) (Activity, error) {
	var a Activity
	var custom int
	err := row.Scan(&a.ID, &a.CourseID, &a.Name, &a.Intro, &a.EventSlug, &a.EditURL,
		&a.Grade, &custom, &a.AuthorID, &a.TimeCreated, &a.TimeModified)
	if errors.Is(err, sql.ErrNoRows) {
		return Activity{}, ErrNotFound
	}
	a.CustomCompletion = custom != 0
	return a, err
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
