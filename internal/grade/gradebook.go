// Package grade adapts the host gradebook for the relays: one grade item
// per activity, one raw grade per (item, user), plus the module completion
// tracker. The quiz service always reports scores on a 0-100 basis; Scale
// converts them onto the item's configured maximum.
package grade

import (
	"context"

	"github.com/quizlink/quizlink-bridge/internal/activity"
)

type Type string

const (
	TypeValue Type = "value" // positive max points
	TypeScale Type = "scale" // negative activity grade selects a scale
	TypeText  Type = "text"  // zero: feedback only, no numeric grade
)

// TypeFor maps the activity's signed grade field onto an item type.
func TypeFor(a activity.Activity) Type {
	switch {
	case a.Grade > 0:
		return TypeValue
	case a.Grade < 0:
		return TypeScale
	default:
		return TypeText
	}
}

// Store is what the relays need from the gradebook.
type Store interface {
	// UpsertGrade writes the raw grade under the activity's grade item,
	// creating the item on first use.
	UpsertGrade(ctx context.Context, a activity.Activity, userID int64, raw float64) error

	// UpdateItemName keeps the gradebook label in sync on rename.
	UpdateItemName(ctx context.Context, activityID int64, name string) error

	// MaxGrade resolves the effective maximum: the activity's grade item,
	// then the activity's configured max, then the deployment-wide default,
	// then 100.
	MaxGrade(ctx context.Context, a activity.Activity) (float64, error)

	// SetCompletion records the module completion state for the user.
	SetCompletion(ctx context.Context, cmID, userID int64, state activity.CompletionStatus) error
}

// Scale converts a 0-100 score onto max points.
func Scale(score, max float64) float64 {
	return score * max / 100
}
