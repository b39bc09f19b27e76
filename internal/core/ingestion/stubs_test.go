package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubEmbedder struct {
	mu       sync.Mutex
	requests []EmbedRequest
	dim      int
	failAt   int // -1 で失敗しない
	dims     map[int]int
}

func newStubEmbedder(dim int) *stubEmbedder {
	return &stubEmbedder{dim: dim, failAt: -1}
}

func (e *stubEmbedder) Embed(ctx context.Context, req EmbedRequest) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := len(e.requests)
	e.requests = append(e.requests, req)
	if idx == e.failAt {
		return nil, errors.New("upstream unavailable")
	}
	dim := e.dim
	if d, ok := e.dims[idx]; ok {
		dim = d
	}
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(idx) + float32(i)/10
	}
	return v, nil
}

func (e *stubEmbedder) ModelName() string { return "stub-model" }

type stubStore struct {
	mu      sync.Mutex
	calls   int
	records []Record
	err     error
}

func (s *stubStore) AddDocuments(ctx context.Context, records []Record) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	s.records = append(s.records, records...)
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID.String()
	}
	return ids, nil
}

type stubExtractor struct {
	text string
	err  error
}

func (e *stubExtractor) Extract(ctx context.Context, path string) (string, error) {
	if e.err != nil {
		return "", fmt.Errorf("extract %s: %w", path, e.err)
	}
	return e.text, nil
}
