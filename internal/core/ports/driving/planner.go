package driving

import (
	"context"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
)

// PlannerService turns a topic query into a persisted lesson plan.
type PlannerService interface {
	// Generate retrieves context for the query, drives the external
	// generation call, validates the structured output, and persists
	// it as a new artifact. It returns the plan and the artifact path.
	Generate(ctx context.Context, query domain.Query) (*domain.LessonPlan, string, error)
}
