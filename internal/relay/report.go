package relay

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quizlink/quizlink-bridge/internal/activity"
	"github.com/quizlink/quizlink-bridge/internal/grade"
	"github.com/quizlink/quizlink-bridge/internal/token"
)

// Report is one inbound completion/grade callback from the quiz service.
type Report struct {
	CourseModuleID int64
	Username       string
	Completion     string
	Score          float64

	// RawScore is the score exactly as it appeared on the wire. The token
	// covers that byte sequence, so verification must not re-format it.
	RawScore string

	TS    string
	Token string
}

func (r Report) scoreField() string {
	if r.RawScore != "" {
		return r.RawScore
	}
	return token.FormatFloat(r.Score)
}

type ReportRelay struct {
	opts   Options
	signer *token.Signer
	store  activity.Store
	grades grade.Store
	log    zerolog.Logger
}

func NewReportRelay(opts Options, signer *token.Signer, store activity.Store, grades grade.Store, log zerolog.Logger) *ReportRelay {
	return &ReportRelay{opts: opts, signer: signer, store: store, grades: grades, log: log}
}

// Process verifies and persists one report. Replaying an identical report is
// safe: the completion row and the grade upsert both converge on the same
// stored state.
func (r *ReportRelay) Process(ctx context.Context, rep Report) error {
	signed := token.Payload{
		"accessKeyId":    r.opts.AccessKeyID,
		"completion":     rep.Completion,
		"moodleUsername": rep.Username,
		"score":          rep.scoreField(),
		"ts":             rep.TS,
	}
	ok, err := r.signer.Verify(r.opts.Protocol.ReportAction(), signed, rep.Token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if !ok {
		r.log.Warn().
			Int64("cm", rep.CourseModuleID).
			Str("username", rep.Username).
			Msg("report rejected: token mismatch, possible forgery")
		return ErrInvalidToken
	}

	act, cm, err := r.store.GetByCourseModule(ctx, rep.CourseModuleID)
	if err != nil {
		return fmt.Errorf("%w: course module %d: %v", ErrNotFound, rep.CourseModuleID, err)
	}
	user, err := r.store.GetUserByUsername(ctx, rep.Username)
	if err != nil {
		return fmt.Errorf("%w: user %q: %v", ErrNotFound, rep.Username, err)
	}

	status := MapCompletion(rep.Completion)

	max, err := r.grades.MaxGrade(ctx, act)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	raw := grade.Scale(rep.Score, max)

	if err := r.store.UpsertCompletion(ctx, activity.Completion{
		ActivityID: act.ID,
		UserID:     user.ID,
		Grade:      rep.Score,
		Status:     status,
	}); err != nil {
		return fmt.Errorf("%w: completion upsert: %v", ErrInternal, err)
	}
	if err := r.grades.UpsertGrade(ctx, act, user.ID, raw); err != nil {
		return fmt.Errorf("%w: grade upsert: %v", ErrInternal, err)
	}
	if err := r.grades.SetCompletion(ctx, cm.ID, user.ID, status); err != nil {
		return fmt.Errorf("%w: completion state: %v", ErrInternal, err)
	}

	r.log.Info().
		Int64("activity", act.ID).
		Int64("user", user.ID).
		Str("status", string(status)).
		Float64("raw_grade", raw).
		Msg("report applied")
	return nil
}

// MapCompletion is the closed three-way mapping for the completion tag.
// Unrecognized tags count as a fail.
func MapCompletion(tag string) activity.CompletionStatus {
	switch tag {
	case "passed":
		return activity.CompletionPass
	case "incomplete":
		return activity.CompletionIncomplete
	default:
		return activity.CompletionFail
	}
}
