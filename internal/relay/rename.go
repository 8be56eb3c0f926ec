package relay

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quizlink/quizlink-bridge/internal/activity"
	"github.com/quizlink/quizlink-bridge/internal/grade"
	"github.com/quizlink/quizlink-bridge/internal/token"
)

// RenameRelay applies quiz-service-initiated renames to the activity and
// its gradebook item.
type RenameRelay struct {
	opts   Options
	signer *token.Signer
	store  activity.Store
	grades grade.Store
	log    zerolog.Logger
}

func NewRenameRelay(opts Options, signer *token.Signer, store activity.Store, grades grade.Store, log zerolog.Logger) *RenameRelay {
	return &RenameRelay{opts: opts, signer: signer, store: store, grades: grades, log: log}
}

type RenameRequest struct {
	CourseModuleID int64
	Name           string
	TS             string
	Token          string
}

func (r *RenameRelay) Process(ctx context.Context, req RenameRequest) error {
	if req.Name == "" || req.CourseModuleID == 0 {
		return ErrMissingParameters
	}
	signed := token.Payload{
		"accessKeyId": r.opts.AccessKeyID,
		"cmid":        fmt.Sprint(req.CourseModuleID),
		"name":        req.Name,
		"ts":          req.TS,
	}
	ok, err := r.signer.Verify(token.ActionRename, signed, req.Token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if !ok {
		r.log.Warn().Int64("cm", req.CourseModuleID).Msg("rename rejected: token mismatch")
		return ErrInvalidToken
	}

	act, _, err := r.store.GetByCourseModule(ctx, req.CourseModuleID)
	if err != nil {
		return fmt.Errorf("%w: course module %d: %v", ErrNotFound, req.CourseModuleID, err)
	}
	if err := r.store.UpdateName(ctx, act.ID, req.Name); err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if err := r.grades.UpdateItemName(ctx, act.ID, req.Name); err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	r.log.Info().Int64("activity", act.ID).Str("name", req.Name).Msg("activity renamed by quiz service")
	return nil
}
