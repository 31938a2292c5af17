package driven

import (
	"context"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
)

// PlanStore persists generated lesson plans as immutable artifacts.
type PlanStore interface {
	// Save writes the plan as a new artifact and returns its location.
	// Saving a plan for a previously generated topic creates a new
	// artifact; existing artifacts are never overwritten.
	Save(ctx context.Context, plan *domain.LessonPlan) (string, error)
}
