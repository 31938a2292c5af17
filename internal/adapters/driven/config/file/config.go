// Package file loads the eduplan TOML configuration file.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultIndexBackend   = "chromem"
	DefaultCollectionBase = "chunks"
)

// Config is the full eduplan configuration.
type Config struct {
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Index      IndexConfig      `toml:"index"`
	Generation GenerationConfig `toml:"generation"`
	Chunking   ChunkingConfig   `toml:"chunking"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
	Output     OutputConfig     `toml:"output"`
}

// EmbeddingConfig selects the primary and fallback embedding models.
type EmbeddingConfig struct {
	// Primary is the hosted embedding endpoint.
	Primary ModelConfig `toml:"primary"`

	// Fallback is the local embedding endpoint used when the primary
	// is unreachable.
	Fallback ModelConfig `toml:"fallback"`

	// BatchSize is the maximum number of texts per embedding request.
	BatchSize int `toml:"batch_size"`

	// RequestsPerSecond rate-limits embedding requests.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ModelConfig describes one model endpoint.
type ModelConfig struct {
	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`

	// APIKeyEnv names the environment variable carrying the API key,
	// so keys never live in the config file itself.
	APIKeyEnv string `toml:"api_key_env"`
}

// APIKey resolves the API key from the environment.
func (m ModelConfig) APIKey() string {
	if m.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(m.APIKeyEnv)
}

// IndexConfig selects and locates the vector index backend.
type IndexConfig struct {
	// Backend is one of "chromem", "qdrant" or "memory".
	Backend string `toml:"backend"`

	// Path is the on-disk location for embedded backends.
	Path string `toml:"path"`

	// URL is the server address for the qdrant backend.
	URL string `toml:"url"`

	// CollectionBase is the base collection name; the embedding
	// model's dimension is appended per collection.
	CollectionBase string `toml:"collection_base"`
}

// GenerationConfig configures the LLM used for plan generation.
type GenerationConfig struct {
	BaseURL   string `toml:"base_url"`
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
	MaxTokens int    `toml:"max_tokens"`
}

// APIKey resolves the generation API key from the environment.
func (g GenerationConfig) APIKey() string {
	if g.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(g.APIKeyEnv)
}

// ChunkingConfig tunes the chunker. Zero values take the chunker's
// defaults.
type ChunkingConfig struct {
	ChunkSize int `toml:"chunk_size"`
	MinChunk  int `toml:"min_chunk"`
	Overlap   int `toml:"overlap"`
}

// RetrievalConfig tunes retrieval and context assembly.
type RetrievalConfig struct {
	TopK             int `toml:"top_k"`
	MaxContextLength int `toml:"max_context_length"`
}

// OutputConfig locates generated artifacts.
type OutputConfig struct {
	// PlansDir is where lesson plan artifacts are written.
	PlansDir string `toml:"plans_dir"`

	// DataDir is where the metadata database lives.
	DataDir string `toml:"data_dir"`
}

// DefaultPath returns the default config file location,
// ~/.eduplan/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".eduplan", "config.toml"), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Embedding: EmbeddingConfig{
			Primary: ModelConfig{
				APIKeyEnv: "NVIDIA_API_KEY",
			},
			Fallback: ModelConfig{},
		},
		Index: IndexConfig{
			Backend:        DefaultIndexBackend,
			CollectionBase: DefaultCollectionBase,
		},
		Generation: GenerationConfig{
			APIKeyEnv: "OPENAI_API_KEY",
		},
	}
}

// Load reads the config file at path, layering it over the defaults.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Index.Backend == "" {
		cfg.Index.Backend = DefaultIndexBackend
	}
	if cfg.Index.CollectionBase == "" {
		cfg.Index.CollectionBase = DefaultCollectionBase
	}

	return cfg, nil
}
