package domain

import "fmt"

// ModelInfo identifies the embedding model that produced a vector.
// Vectors carrying different ModelInfo values must never be compared
// or stored in the same collection.
type ModelInfo struct {
	// Name is the model identifier (e.g. "nvidia/nv-embed-v2").
	Name string

	// Dimensions is the fixed vector size declared by the model.
	Dimensions int
}

// CollectionName returns the physical index collection for this model.
// Collection identity is keyed by dimension so that switching embedding
// models switches collections instead of corrupting an existing one.
func (m ModelInfo) CollectionName(base string) string {
	return fmt.Sprintf("%s_%d", base, m.Dimensions)
}

// EmbeddingBatch is the result of embedding a sequence of texts.
// Vectors are positionally aligned to the input sequence and all carry
// the same model tag.
type EmbeddingBatch struct {
	Vectors [][]float32
	Model   ModelInfo
}

// EmbeddingRecord is one chunk vector plus the metadata stored
// alongside it in the vector index.
type EmbeddingRecord struct {
	ChunkID     string
	DocumentID  string
	Vector      []float32
	Model       ModelInfo
	Chapter     string
	Subject     string
	ContentType ContentType
	Text        string
}
