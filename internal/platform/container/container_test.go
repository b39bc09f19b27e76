package container

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/doc-rag/internal/core/ingestion"
	"github.com/jinford/doc-rag/internal/infra/gemini"
	"github.com/jinford/doc-rag/internal/infra/langchain"
	"github.com/jinford/doc-rag/internal/infra/openai"
	"github.com/jinford/doc-rag/internal/platform/config"
)

type memoryStore struct {
	records []ingestion.Record
}

func (s *memoryStore) AddDocuments(_ context.Context, records []ingestion.Record) ([]string, error) {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		s.records = append(s.records, r)
		ids = append(ids, r.ID.String())
	}
	return ids, nil
}

type constEmbedder struct{}

func (constEmbedder) Embed(context.Context, ingestion.EmbedRequest) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (constEmbedder) ModelName() string { return "const" }

type wordCounter struct{}

func (wordCounter) CountTokens(text string) int { return len(text) / 4 }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		VectorStore: config.VectorStoreConfig{CollectionName: "file_embeddings"},
		Upload: config.UploadConfig{
			Dir:               t.TempDir(),
			MaxFileSize:       1024 * 1024,
			ReadChunkSize:     4096,
			AllowedExtensions: []string{"txt"},
			ProcessExtensions: []string{"txt"},
		},
		Chunking:  config.ChunkingConfig{Size: 2000, Overlap: 200},
		Embedding: config.EmbeddingConfig{Provider: config.ProviderOpenAI, OpenAIAPIKey: "k"},
		Worker:    config.WorkerConfig{PoolSize: 1, QueueSize: 4},
	}
}

func TestNew_WiresPipeline(t *testing.T) {
	cfg := testConfig(t)
	store := &memoryStore{}

	c, err := New(context.Background(), cfg,
		WithContainerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithContainerVectorStore(store),
		WithContainerEmbedder(constEmbedder{}),
		WithContainerTokenCounter(wordCounter{}),
	)
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Database)
	assert.Equal(t, []string{"txt"}, c.Guard.AllowedExtensions())

	path := filepath.Join(cfg.Upload.Dir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	result, err := c.Pipeline.Process(context.Background(), ingestion.Job{Path: path, Source: "hello.txt"})
	require.NoError(t, err)
	assert.Equal(t, &ingestion.Result{Status: ingestion.StatusProcessed, Chunks: 1}, result)
	require.Len(t, store.records, 1)
	assert.Equal(t, "hello.txt", store.records[0].Metadata[ingestion.MetadataSource])

	d, err := c.NewDispatcher()
	require.NoError(t, err)
	require.NoError(t, d.Close(time.Second))
}

func TestNewEmbedder_Providers(t *testing.T) {
	ctx := context.Background()

	e, err := NewEmbedder(ctx, config.EmbeddingConfig{Provider: config.ProviderGemini, GoogleAPIKey: "k", GeminiModel: "models/embedding-001"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &gemini.Embedder{}, e)

	e, err = NewEmbedder(ctx, config.EmbeddingConfig{Provider: config.ProviderOpenAI, OpenAIAPIKey: "k"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &openai.Embedder{}, e)

	e, err = NewEmbedder(ctx, config.EmbeddingConfig{Provider: config.ProviderCompatible, BaseURL: "http://localhost:11434/v1", CompatibleModel: "nomic-embed-text"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &langchain.Embedder{}, e)

	_, err = NewEmbedder(ctx, config.EmbeddingConfig{Provider: config.ProviderGemini}, nil)
	assert.ErrorIs(t, err, gemini.ErrAPIKeyNotSet)

	_, err = NewEmbedder(ctx, config.EmbeddingConfig{Provider: config.ProviderOpenAI}, nil)
	assert.Error(t, err)

	_, err = NewEmbedder(ctx, config.EmbeddingConfig{Provider: "unknown"}, nil)
	assert.Error(t, err)
}
