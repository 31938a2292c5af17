// Package file persists lesson plans as JSON artifacts on disk.
// Artifacts are immutable: regenerating a topic writes a new file
// instead of overwriting a prior one.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
	"github.com/eduplan-labs/eduplan-cli/internal/core/ports/driven"
)

// Ensure PlanStore implements the interface.
var _ driven.PlanStore = (*PlanStore)(nil)

// DefaultDir is the default output directory for plan artifacts.
const DefaultDir = "plans"

// timestampLayout names artifacts down to the second; a counter
// suffix resolves same-second collisions.
const timestampLayout = "20060102T150405"

// PlanStore writes lesson plan artifacts to a directory.
type PlanStore struct {
	dir string

	// now is swappable in tests.
	now func() time.Time
}

// NewPlanStore creates a plan store rooted at dir.
func NewPlanStore(dir string) *PlanStore {
	if dir == "" {
		dir = DefaultDir
	}
	return &PlanStore{dir: dir, now: time.Now}
}

// Save writes the plan as a new artifact and returns its path.
func (s *PlanStore) Save(_ context.Context, plan *domain.LessonPlan) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("creating plans directory: %w", err)
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling plan: %w", err)
	}

	base := fmt.Sprintf("%s_%s", slug(plan.Topic), s.now().UTC().Format(timestampLayout))

	// O_EXCL guarantees no existing artifact is ever overwritten.
	for attempt := 0; ; attempt++ {
		name := base + ".json"
		if attempt > 0 {
			name = fmt.Sprintf("%s_%d.json", base, attempt)
		}
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating plan artifact: %w", err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("writing plan artifact: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("closing plan artifact: %w", err)
		}
		return path, nil
	}
}

// slug lowercases the topic and collapses non-alphanumeric runs into
// single hyphens.
func slug(topic string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(topic) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		out = "plan"
	}
	return out
}
