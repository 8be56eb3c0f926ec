package grade

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/quizlink/quizlink-bridge/internal/activity"
)

type SQLStore struct {
	db     *sql.DB
	driver string
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// ensureItem creates or refreshes the grade item for the activity and
// returns its id. Item typing follows the activity's signed grade field.
func (s *SQLStore) ensureItem(ctx context.Context, a activity.Activity) (int64, error) {
	gradeMax, scaleID := float64(0), int64(0)
	t := TypeFor(a)
	switch t {
	case TypeValue:
		gradeMax = float64(a.Grade)
	case TypeScale:
		scaleID = -a.Grade
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO grade_items (course_id, activity_id, item_name, grade_type, grade_max, scale_id)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (activity_id)
		DO UPDATE SET item_name=EXCLUDED.item_name, grade_type=EXCLUDED.grade_type,
			grade_max=EXCLUDED.grade_max, scale_id=EXCLUDED.scale_id
		RETURNING id`,
		a.CourseID, a.ID, a.Name, string(t), gradeMax, scaleID).Scan(&id)
	return id, err
}

func (s *SQLStore) UpsertGrade(ctx context.Context, a activity.Activity, userID int64, raw float64) error {
	itemID, err := s.ensureItem(ctx, a)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO grades (grade_item_id, user_id, raw_grade, time_modified)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (grade_item_id, user_id)
		DO UPDATE SET raw_grade=EXCLUDED.raw_grade, time_modified=EXCLUDED.time_modified`,
		itemID, userID, raw, time.Now().Unix())
	return err
}

func (s *SQLStore) UpdateItemName(ctx context.Context, activityID int64, name string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE grade_items SET item_name=$1 WHERE activity_id=$2`, name, activityID)
	return err
}

func (s *SQLStore) MaxGrade(ctx context.Context, a activity.Activity) (float64, error) {
	var max float64
	err := s.db.QueryRowContext(ctx, `
		SELECT grade_max FROM grade_items WHERE activity_id=$1`, a.ID).Scan(&max)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	if max > 0 {
		return max, nil
	}
	// The item is created lazily on the first grade write, so a first report
	// arrives before any grade_items row exists. The activity's configured
	// max is authoritative in that window.
	if TypeFor(a) == TypeValue {
		return float64(a.Grade), nil
	}
	if def, ok := s.defaultMax(ctx); ok {
		return def, nil
	}
	return 100, nil
}

// defaultMax reads the deployment-wide grade point default, if set.
func (s *SQLStore) defaultMax(ctx context.Context) (float64, bool) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM settings WHERE name='gradepointdefault'`).Scan(&raw)
	if err != nil {
		return 0, false
	}
	def, err := strconv.ParseFloat(raw, 64)
	if err != nil || def <= 0 {
		return 0, false
	}
	return def, true
}

func (s *SQLStore) SetCompletion(ctx context.Context, cmID, userID int64, state activity.CompletionStatus) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO module_completion (cm_id, user_id, state, time_modified)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (cm_id, user_id)
		DO UPDATE SET state=EXCLUDED.state, time_modified=EXCLUDED.time_modified`,
		cmID, userID, string(state), time.Now().Unix())
	return err
}
