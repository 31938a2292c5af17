package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// durationPattern accepts values like "10 minutes", "45 min", "1 hour".
var durationPattern = regexp.MustCompile(`^\d+\s*(minutes?|mins?|hours?|hrs?)$`)

// Activity is one teaching activity within a lesson plan.
type Activity struct {
	// Type classifies the activity (e.g. "introduction", "group work").
	Type string `json:"type"`

	// Duration is a human-readable length like "10 minutes".
	Duration string `json:"duration"`

	// Description explains what the activity involves.
	Description string `json:"description"`
}

// Assessment groups the formative and summative assessment items.
type Assessment struct {
	Formative []string `json:"formative"`
	Summative []string `json:"summative"`
}

// LessonPlan is the structured output of one generation request.
// Plans are immutable once created; regenerating the same topic
// produces a new artifact rather than mutating a prior one.
type LessonPlan struct {
	Topic       string     `json:"topic"`
	Chapter     string     `json:"chapter"`
	Subject     string     `json:"subject"`
	Duration    string     `json:"duration"`
	Objectives  []string   `json:"objectives"`
	KeyConcepts []string   `json:"key_concepts"`
	Activities  []Activity `json:"activities"`
	Assessment  Assessment `json:"assessment"`
	GeneratedAt time.Time  `json:"generated_at"`
	Model       string     `json:"model,omitempty"`
}

// ValidDuration reports whether a duration string is parseable.
func ValidDuration(s string) bool {
	return durationPattern.MatchString(strings.ToLower(strings.TrimSpace(s)))
}

// Validate checks the structural requirements of a generated plan:
// required fields present, non-empty objectives and activities, and
// parseable duration fields. All failures wrap ErrMalformedPlan.
func (p *LessonPlan) Validate() error {
	if strings.TrimSpace(p.Topic) == "" {
		return fmt.Errorf("%w: missing topic", ErrMalformedPlan)
	}
	if strings.TrimSpace(p.Duration) == "" {
		return fmt.Errorf("%w: missing duration", ErrMalformedPlan)
	}
	if !ValidDuration(p.Duration) {
		return fmt.Errorf("%w: unparseable duration %q", ErrMalformedPlan, p.Duration)
	}
	if len(p.Objectives) == 0 {
		return fmt.Errorf("%w: no objectives", ErrMalformedPlan)
	}
	if len(p.Activities) == 0 {
		return fmt.Errorf("%w: no activities", ErrMalformedPlan)
	}
	for i, a := range p.Activities {
		if strings.TrimSpace(a.Description) == "" {
			return fmt.Errorf("%w: activity %d has no description", ErrMalformedPlan, i)
		}
		if !ValidDuration(a.Duration) {
			return fmt.Errorf("%w: activity %d has unparseable duration %q", ErrMalformedPlan, i, a.Duration)
		}
	}
	return nil
}
