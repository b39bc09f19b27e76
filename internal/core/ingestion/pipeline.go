package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jinford/doc-rag/internal/core/ingestion/chunk"
)

// Pipeline は 抽出 → 空判定 → 分割 → Embedding → 保存 を順に実行する
type Pipeline struct {
	extractor TextExtractor
	chunker   *chunk.DefaultChunker
	generator *EmbeddingGenerator
	writer    *StoreWriter
	logger    *slog.Logger
}

type pipelineOptions struct {
	logger *slog.Logger
}

// PipelineOption は Pipeline のオプション設定
type PipelineOption func(*pipelineOptions)

// WithPipelineLogger は Pipeline にロガーを設定する
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(o *pipelineOptions) {
		o.logger = logger
	}
}

// NewPipeline は新しいPipelineを作成する
func NewPipeline(
	extractor TextExtractor,
	chunker *chunk.DefaultChunker,
	embedder Embedder,
	store VectorStore,
	opts ...PipelineOption,
) *Pipeline {
	options := pipelineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	return &Pipeline{
		extractor: extractor,
		chunker:   chunker,
		generator: NewEmbeddingGenerator(embedder, options.logger),
		writer:    NewStoreWriter(store, options.logger),
		logger:    options.logger,
	}
}

// Process は1ファイル分のパイプラインを実行する
//
// 失敗した場合はログに記録したうえでエラーをそのまま返す。保存済みファイルは削除しない。
func (p *Pipeline) Process(ctx context.Context, job Job) (*Result, error) {
	result, err := p.process(ctx, job)
	if err != nil {
		p.logger.Error("ファイルの処理に失敗",
			"path", job.Path,
			"source", job.Source,
			"error", err,
		)
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) process(ctx context.Context, job Job) (*Result, error) {
	startTime := time.Now()

	text, err := p.extractor.Extract(ctx, job.Path)
	if err != nil {
		return nil, fmt.Errorf("テキスト抽出に失敗: %w", err)
	}

	if strings.TrimSpace(text) == "" {
		p.logger.Info("テキストが抽出されませんでした", "path", job.Path)
		return &Result{Status: StatusNoTextExtracted, Chunks: 0}, nil
	}

	chunks := p.chunker.Chunk(text)
	contents := make([]string, len(chunks))
	totalTokens := 0
	for i, c := range chunks {
		contents[i] = c.Content
		totalTokens += c.Tokens
	}

	p.logger.Info("チャンクを作成",
		"path", job.Path,
		"chunks", len(chunks),
		"tokens", totalTokens,
	)

	embeddings, err := p.generator.EmbedDocuments(ctx, contents)
	if err != nil {
		return nil, err
	}

	stored, err := p.writer.StoreEmbeddings(ctx, job.Source, contents, embeddings)
	if err != nil {
		return nil, err
	}

	p.logger.Info("ファイルの処理が完了",
		"path", job.Path,
		"chunks", len(chunks),
		"stored", stored,
		"duration", time.Since(startTime),
	)

	return &Result{Status: StatusProcessed, Chunks: len(chunks)}, nil
}
