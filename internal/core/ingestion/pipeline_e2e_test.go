package ingestion_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/doc-rag/internal/core/ingestion"
	"github.com/jinford/doc-rag/internal/core/ingestion/chunk"
	"github.com/jinford/doc-rag/internal/infra/extract"
)

type fixedEmbedder struct {
	calls int
}

func (e *fixedEmbedder) Embed(context.Context, ingestion.EmbedRequest) ([]float32, error) {
	e.calls++
	return []float32{0.1, 0.2, 0.3}, nil
}

func (e *fixedEmbedder) ModelName() string { return "fixed" }

type recordingStore struct {
	calls   int
	records []ingestion.Record
}

func (s *recordingStore) AddDocuments(_ context.Context, records []ingestion.Record) ([]string, error) {
	s.calls++
	s.records = append(s.records, records...)
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID.String()
	}
	return ids, nil
}

func newPipeline(t *testing.T, embedder ingestion.Embedder, store ingestion.VectorStore) *ingestion.Pipeline {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	chunker, err := chunk.NewDefaultChunker(chunk.DefaultSize, chunk.DefaultOverlap)
	require.NoError(t, err)
	return ingestion.NewPipeline(extract.New(extract.WithLogger(logger)), chunker, embedder, store,
		ingestion.WithPipelineLogger(logger))
}

func TestPipeline_HelloWorldTextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	embedder := &fixedEmbedder{}
	store := &recordingStore{}
	result, err := newPipeline(t, embedder, store).Process(context.Background(), ingestion.Job{Path: path, Source: "hello.txt"})
	require.NoError(t, err)

	assert.Equal(t, &ingestion.Result{Status: ingestion.StatusProcessed, Chunks: 1}, result)
	assert.Equal(t, 1, embedder.calls)
	require.Len(t, store.records, 1)

	record := store.records[0]
	assert.Equal(t, "hello world", record.Content)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, record.Embedding)
	assert.Equal(t, 0, record.Metadata[ingestion.MetadataChunkSequence])
	assert.Equal(t, "hello world", record.Metadata[ingestion.MetadataContent])
}

func TestPipeline_EmptyTextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	embedder := &fixedEmbedder{}
	store := &recordingStore{}
	result, err := newPipeline(t, embedder, store).Process(context.Background(), ingestion.Job{Path: path})
	require.NoError(t, err)

	assert.Equal(t, &ingestion.Result{Status: ingestion.StatusNoTextExtracted, Chunks: 0}, result)
	assert.Zero(t, embedder.calls)
	assert.Zero(t, store.calls)
}

func TestPipeline_MissingFileFails(t *testing.T) {
	store := &recordingStore{}
	_, err := newPipeline(t, &fixedEmbedder{}, store).Process(context.Background(),
		ingestion.Job{Path: filepath.Join(t.TempDir(), "gone.txt")})

	assert.ErrorIs(t, err, extract.ErrExtraction)
	assert.Zero(t, store.calls)
}
