package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
	"github.com/eduplan-labs/eduplan-cli/internal/core/ports/driven"
)

// fakeEmbedder embeds every text as the same scripted vector.
type fakeEmbedder struct {
	mu     sync.Mutex
	model  domain.ModelInfo
	vector []float32
	err    error
	calls  int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		model:  domain.ModelInfo{Name: "fake-embed", Dimensions: 3},
		vector: []float32{1, 0, 0},
	}
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) (*domain.EmbeddingBatch, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = f.vector
	}
	return &domain.EmbeddingBatch{Vectors: vectors, Model: f.model}, nil
}

func (f *fakeEmbedder) ActiveModel(context.Context) (domain.ModelInfo, error) {
	if f.err != nil {
		return domain.ModelInfo{}, f.err
	}
	return f.model, nil
}

func (f *fakeEmbedder) Close() error { return nil }

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeIndex serves scripted hits and records upserts.
type fakeIndex struct {
	mu         sync.Mutex
	serverSide bool
	hits       []driven.VectorHit
	upserted   []domain.EmbeddingRecord
	searches   int
	lastFetch  int
	lastFilter domain.Filter
}

func (f *fakeIndex) Upsert(_ context.Context, records []domain.EmbeddingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, records...)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, filter domain.Filter, k int) ([]driven.VectorHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	f.lastFetch = k
	f.lastFilter = filter
	if k > len(f.hits) {
		k = len(f.hits)
	}
	return f.hits[:k], nil
}

func (f *fakeIndex) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserted), nil
}

func (f *fakeIndex) ServerSideFiltering() bool { return f.serverSide }
func (f *fakeIndex) Close() error              { return nil }

// fakeIndexProvider hands out one collection per model dimension.
type fakeIndexProvider struct {
	mu          sync.Mutex
	serverSide  bool
	collections map[int]*fakeIndex
}

func newFakeIndexProvider(serverSide bool) *fakeIndexProvider {
	return &fakeIndexProvider{
		serverSide:  serverSide,
		collections: make(map[int]*fakeIndex),
	}
}

func (p *fakeIndexProvider) Collection(_ context.Context, model domain.ModelInfo) (driven.VectorIndex, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx, ok := p.collections[model.Dimensions]
	if !ok {
		idx = &fakeIndex{serverSide: p.serverSide}
		p.collections[model.Dimensions] = idx
	}
	return idx, nil
}

func (p *fakeIndexProvider) Close() error { return nil }

// fakeDocStore is a map-backed document store.
type fakeDocStore struct {
	mu     sync.Mutex
	docs   map[string]domain.Document
	chunks map[string]domain.Chunk
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{
		docs:   make(map[string]domain.Document),
		chunks: make(map[string]domain.Chunk),
	}
}

func (s *fakeDocStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, chunk := range s.chunks {
		if chunk.DocumentID == doc.ID {
			delete(s.chunks, id)
		}
	}
	s.docs[doc.ID] = *doc
	return nil
}

func (s *fakeDocStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

func (s *fakeDocStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (s *fakeDocStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chunk, ok := s.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

func (s *fakeDocStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var chunks []domain.Chunk
	for _, chunk := range s.chunks {
		if chunk.DocumentID == documentID {
			chunks = append(chunks, chunk)
		}
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Position < chunks[j].Position })
	return chunks, nil
}

func (s *fakeDocStore) ListDocuments(context.Context) ([]domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].SourceFile < docs[j].SourceFile })
	return docs, nil
}

func (s *fakeDocStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	for chunkID, chunk := range s.chunks {
		if chunk.DocumentID == id {
			delete(s.chunks, chunkID)
		}
	}
	return nil
}

// fakeLLM answers with a scripted response.
type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) ModelName() string          { return "fake-llm" }
func (f *fakeLLM) Ping(context.Context) error { return nil }
func (f *fakeLLM) Close() error               { return nil }

// fakePlanStore records saved plans.
type fakePlanStore struct {
	saved []*domain.LessonPlan
	err   error
}

func (f *fakePlanStore) Save(_ context.Context, plan *domain.LessonPlan) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, plan)
	return "plans/fake.json", nil
}

// storeChunk seeds a chunk into a fakeDocStore.
func storeChunk(s *fakeDocStore, id, docID, chapter, subject, text string) {
	s.chunks[id] = domain.Chunk{
		ID:          id,
		DocumentID:  docID,
		Text:        text,
		Chapter:     chapter,
		Subject:     subject,
		ContentType: domain.ContentBody,
	}
}

var errBoom = errors.New("boom")
