package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
	"github.com/eduplan-labs/eduplan-cli/internal/core/ports/driven"
	"github.com/eduplan-labs/eduplan-cli/internal/core/ports/driving"
	"github.com/eduplan-labs/eduplan-cli/internal/logger"
)

// Ensure PlannerService implements the interface.
var _ driving.PlannerService = (*PlannerService)(nil)

// planPrompt instructs the generation model to answer with the strict
// JSON shape of domain.LessonPlan.
const planPrompt = `You are an experienced teacher preparing a lesson plan.

Use ONLY the educational context below. If the context says no relevant
content was found, produce a generic but pedagogically sound plan for
the topic and say so in the first objective.

EDUCATIONAL CONTEXT:
%s

Create a lesson plan for the topic %q (chapter: %s, subject: %s).

Respond with a single JSON object and nothing else, using exactly this
shape:
{
  "topic": "...",
  "chapter": "...",
  "subject": "...",
  "duration": "45 minutes",
  "objectives": ["..."],
  "key_concepts": ["..."],
  "activities": [
    {"type": "introduction", "duration": "10 minutes", "description": "..."}
  ],
  "assessment": {"formative": ["..."], "summative": ["..."]}
}`

// PlannerService generates and persists lesson plans.
type PlannerService struct {
	retriever  driving.RetrievalService
	llm        driven.LLMService
	plans      driven.PlanStore
	maxContext int
	maxTokens  int
}

// NewPlannerService creates a planner service.
func NewPlannerService(
	retriever driving.RetrievalService,
	llm driven.LLMService,
	plans driven.PlanStore,
) *PlannerService {
	return &PlannerService{
		retriever:  retriever,
		llm:        llm,
		plans:      plans,
		maxContext: DefaultMaxContextLength,
		maxTokens:  1500,
	}
}

// SetMaxContextLength overrides the assembled context budget in runes.
func (s *PlannerService) SetMaxContextLength(n int) {
	if n > 0 {
		s.maxContext = n
	}
}

// SetMaxTokens overrides the generation token limit.
func (s *PlannerService) SetMaxTokens(n int) {
	if n > 0 {
		s.maxTokens = n
	}
}

// Generate retrieves context for the query, invokes the external
// generation call once, validates the structured output, and persists
// it as a new artifact. Generation failures wrap
// domain.ErrGenerationUnavailable; schema failures wrap
// domain.ErrMalformedPlan.
func (s *PlannerService) Generate(ctx context.Context, query domain.Query) (*domain.LessonPlan, string, error) {
	result, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, "", err
	}

	assembled := AssembleContext(result, s.maxContext)
	if assembled.Empty {
		logger.Warn("No relevant chunks found for %q", query.Topic)
	}

	chapter := query.Chapter
	if chapter == "" {
		chapter = "All Chapters"
	}
	subject := query.Subject
	if subject == "" {
		subject = "All Subjects"
	}
	prompt := fmt.Sprintf(planPrompt, assembled.Text, query.Topic, chapter, subject)

	logger.Section("Generation")
	raw, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   s.maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}

	plan, err := parsePlan(raw)
	if err != nil {
		return nil, "", err
	}

	// The query filters are authoritative for the plan's metadata.
	plan.Topic = query.Topic
	if query.Chapter != "" {
		plan.Chapter = query.Chapter
	}
	if query.Subject != "" {
		plan.Subject = query.Subject
	}
	plan.GeneratedAt = time.Now().UTC()
	plan.Model = s.llm.ModelName()

	if err := plan.Validate(); err != nil {
		return nil, "", err
	}

	path, err := s.plans.Save(ctx, plan)
	if err != nil {
		return nil, "", fmt.Errorf("save lesson plan: %w", err)
	}
	logger.Info("Lesson plan saved to %s", path)

	return plan, path, nil
}

// parsePlan extracts the JSON object from the model output, tolerating
// markdown code fences and surrounding prose.
func parsePlan(raw string) (*domain.LessonPlan, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in model output", domain.ErrMalformedPlan)
	}

	var plan domain.LessonPlan
	if err := json.Unmarshal([]byte(text[start:end+1]), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPlan, err)
	}
	return &plan, nil
}
