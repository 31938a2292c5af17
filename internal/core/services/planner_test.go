package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
)

// stubRetriever serves a fixed retrieval result.
type stubRetriever struct {
	result domain.RetrievalResult
	err    error
}

func (s *stubRetriever) Retrieve(context.Context, domain.Query) (domain.RetrievalResult, error) {
	return s.result, s.err
}

const fencedPlanJSON = "```json\n" + `{
  "topic": "ignored by override",
  "chapter": "model-invented chapter",
  "subject": "Science",
  "duration": "45 minutes",
  "objectives": ["Explain evaporation"],
  "key_concepts": ["evaporation", "condensation"],
  "activities": [
    {"type": "introduction", "duration": "10 minutes", "description": "Discuss rain"}
  ],
  "assessment": {"formative": ["exit ticket"], "summative": ["quiz"]}
}` + "\n```"

func retrievedResult() domain.RetrievalResult {
	return domain.RetrievalResult{Hits: []domain.ScoredChunk{
		scored("c1", "ch1", "Evaporation turns water into vapour.", domain.ContentBody, 0.9),
	}}
}

func TestGenerate_ParsesFencedJSONAndSaves(t *testing.T) {
	llm := &fakeLLM{response: fencedPlanJSON}
	plans := &fakePlanStore{}
	svc := NewPlannerService(&stubRetriever{result: retrievedResult()}, llm, plans)

	plan, path, err := svc.Generate(context.Background(), domain.Query{
		Topic:   "The Water Cycle",
		Chapter: "ch1",
	})
	require.NoError(t, err)
	assert.Equal(t, "plans/fake.json", path)

	// Query metadata overrides whatever the model invented.
	assert.Equal(t, "The Water Cycle", plan.Topic)
	assert.Equal(t, "ch1", plan.Chapter)
	assert.Equal(t, "fake-llm", plan.Model)
	assert.False(t, plan.GeneratedAt.IsZero())
	assert.Equal(t, []string{"evaporation", "condensation"}, plan.KeyConcepts)

	require.Len(t, plans.saved, 1)

	// The retrieved context reaches the prompt.
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Evaporation turns water into vapour.")
	assert.Contains(t, llm.prompts[0], `"The Water Cycle"`)
}

func TestGenerate_EmptyChapterDefaultsInPrompt(t *testing.T) {
	llm := &fakeLLM{response: fencedPlanJSON}
	svc := NewPlannerService(&stubRetriever{result: retrievedResult()}, llm, &fakePlanStore{})

	plan, _, err := svc.Generate(context.Background(), domain.Query{Topic: "Water"})
	require.NoError(t, err)

	assert.Contains(t, llm.prompts[0], "All Chapters")
	assert.Contains(t, llm.prompts[0], "All Subjects")
	// Without a query filter the model's chapter stands.
	assert.Equal(t, "model-invented chapter", plan.Chapter)
}

func TestGenerate_NoContextStillGenerates(t *testing.T) {
	llm := &fakeLLM{response: fencedPlanJSON}
	svc := NewPlannerService(&stubRetriever{}, llm, &fakePlanStore{})

	_, _, err := svc.Generate(context.Background(), domain.Query{Topic: "Unknown Topic"})
	require.NoError(t, err)
	assert.Contains(t, llm.prompts[0], NoContextMarker)
}

func TestGenerate_LLMFailureWrapsGenerationUnavailable(t *testing.T) {
	llm := &fakeLLM{err: errBoom}
	plans := &fakePlanStore{}
	svc := NewPlannerService(&stubRetriever{result: retrievedResult()}, llm, plans)

	_, _, err := svc.Generate(context.Background(), domain.Query{Topic: "Water"})
	require.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	assert.Empty(t, plans.saved)
}

func TestGenerate_MalformedOutput(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"no json", "Sorry, I cannot help with that."},
		{"invalid json", "{not json}"},
		{"schema violation", `{"topic": "Water", "duration": "whenever", "objectives": ["x"], "activities": [{"type": "a", "duration": "10 minutes", "description": "d"}]}`},
		{"missing activities", `{"topic": "Water", "duration": "45 minutes", "objectives": ["x"], "activities": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans := &fakePlanStore{}
			svc := NewPlannerService(&stubRetriever{result: retrievedResult()}, &fakeLLM{response: tt.response}, plans)

			_, _, err := svc.Generate(context.Background(), domain.Query{Topic: "Water"})
			require.ErrorIs(t, err, domain.ErrMalformedPlan)
			assert.Empty(t, plans.saved, "malformed plans are never persisted")
		})
	}
}

func TestGenerate_RetrievalErrorPropagates(t *testing.T) {
	svc := NewPlannerService(&stubRetriever{err: domain.ErrInvalidQuery}, &fakeLLM{}, &fakePlanStore{})

	_, _, err := svc.Generate(context.Background(), domain.Query{Topic: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestParsePlan_SurroundingProse(t *testing.T) {
	raw := "Here is your plan:\n" + `{"topic": "T", "duration": "45 minutes", "objectives": ["o"], "activities": [{"type": "a", "duration": "5 minutes", "description": "d"}]}` + "\nHope this helps!"

	plan, err := parsePlan(raw)
	require.NoError(t, err)
	assert.Equal(t, "T", plan.Topic)
}
