package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jinford/doc-rag/internal/core/ingestion"
	"github.com/jinford/doc-rag/internal/core/ingestion/chunk"
	"github.com/jinford/doc-rag/internal/core/intake"
	"github.com/jinford/doc-rag/internal/infra/extract"
	"github.com/jinford/doc-rag/internal/infra/gemini"
	"github.com/jinford/doc-rag/internal/infra/langchain"
	"github.com/jinford/doc-rag/internal/infra/openai"
	"github.com/jinford/doc-rag/internal/infra/postgres"
	"github.com/jinford/doc-rag/internal/platform/config"
	"github.com/jinford/doc-rag/internal/platform/database"
)

// Container はアプリケーションの依存関係を保持する
type Container struct {
	Config      *config.Config
	Database    *database.Database // WithContainerVectorStore を使った場合は nil
	VectorStore ingestion.VectorStore
	Embedder    ingestion.Embedder
	Guard       *intake.Guard
	Pipeline    *ingestion.Pipeline

	logger *slog.Logger
}

type containerOptions struct {
	logger       *slog.Logger
	embedder     ingestion.Embedder
	vectorStore  ingestion.VectorStore
	tokenCounter chunk.TokenCounter
}

// ContainerOption は Container 構築時のオプション
type ContainerOption func(*containerOptions)

// WithContainerLogger はロガーを差し替える
func WithContainerLogger(logger *slog.Logger) ContainerOption {
	return func(opts *containerOptions) {
		opts.logger = logger
	}
}

// WithContainerEmbedder はカスタム Embedder を注入する
func WithContainerEmbedder(embedder ingestion.Embedder) ContainerOption {
	return func(opts *containerOptions) {
		opts.embedder = embedder
	}
}

// WithContainerVectorStore はベクトルストアを差し替える（データベースに接続しない）
func WithContainerVectorStore(store ingestion.VectorStore) ContainerOption {
	return func(opts *containerOptions) {
		opts.vectorStore = store
	}
}

// WithContainerTokenCounter は TokenCounter を差し替える
func WithContainerTokenCounter(counter chunk.TokenCounter) ContainerOption {
	return func(opts *containerOptions) {
		opts.tokenCounter = counter
	}
}

// New は設定からコンテナを生成する
func New(ctx context.Context, cfg *config.Config, opts ...ContainerOption) (*Container, error) {
	options := containerOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	c := &Container{
		Config: cfg,
		logger: options.logger,
	}

	// ベクトルストア
	store := options.vectorStore
	if store == nil {
		db, err := database.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("データベース初期化に失敗しました: %w", err)
		}
		c.Database = db
		store = postgres.NewVectorStore(db.Pool,
			postgres.WithCollectionName(cfg.VectorStore.CollectionName),
			postgres.WithVectorStoreLogger(options.logger),
		)
	}
	c.VectorStore = store

	// Embedder
	embedder := options.embedder
	if embedder == nil {
		var err error
		embedder, err = NewEmbedder(ctx, cfg.Embedding, options.logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("Embedderの初期化に失敗しました: %w", err)
		}
	}
	c.Embedder = embedder

	// 受付
	guard, err := intake.NewGuard(intake.Policy{
		Dir:               cfg.Upload.Dir,
		MaxFileSize:       cfg.Upload.MaxFileSize,
		ReadChunkSize:     cfg.Upload.ReadChunkSize,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
	}, intake.WithGuardLogger(options.logger))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("アップロード受付の初期化に失敗しました: %w", err)
	}
	c.Guard = guard

	// チャンカー（トークン数はログ用なので取得できなくても続行する）
	counter := options.tokenCounter
	if counter == nil {
		tc, err := chunk.NewTiktokenCounter()
		if err != nil {
			options.logger.Warn("トークンカウンターを初期化できません", "error", err)
		} else {
			counter = tc
		}
	}
	var chunkerOpts []chunk.Option
	if counter != nil {
		chunkerOpts = append(chunkerOpts, chunk.WithTokenCounter(counter))
	}
	chunker, err := chunk.NewDefaultChunker(cfg.Chunking.Size, cfg.Chunking.Overlap, chunkerOpts...)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("チャンカーの初期化に失敗しました: %w", err)
	}

	extractor := extract.New(
		extract.WithLogger(options.logger),
		extract.WithAntiwordPath(cfg.AntiwordPath),
	)

	c.Pipeline = ingestion.NewPipeline(extractor, chunker, embedder, store,
		ingestion.WithPipelineLogger(options.logger),
	)

	return c, nil
}

// NewEmbedder は設定されたプロバイダの Embedder を生成する
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig, logger *slog.Logger) (ingestion.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.NewEmbedder(ctx, cfg.GoogleAPIKey, gemini.WithEmbeddingModel(cfg.GeminiModel))
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OpenAI API key not set: please set OPENAI_API_KEY environment variable")
		}
		return openai.NewEmbedder(cfg.OpenAIAPIKey,
			openai.WithEmbeddingModel(cfg.OpenAIModel),
			openai.WithEmbeddingDimension(cfg.OpenAIDimension),
		), nil
	case config.ProviderCompatible:
		return langchain.NewEmbedder(langchain.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.CompatibleModel,
			Token:   cfg.CompatibleToken,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}

// NewDispatcher はパイプラインを実行するバックグラウンドディスパッチャを生成する
func (c *Container) NewDispatcher(opts ...ingestion.DispatcherOption) (*ingestion.Dispatcher, error) {
	base := []ingestion.DispatcherOption{
		ingestion.WithPoolSize(c.Config.Worker.PoolSize),
		ingestion.WithQueueSize(c.Config.Worker.QueueSize),
		ingestion.WithDispatcherLogger(c.logger),
	}
	return ingestion.NewDispatcher(c.Pipeline, append(base, opts...)...)
}

// Logger はロガーを返す
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Close は保持しているリソースを解放する
func (c *Container) Close() {
	if c.Database != nil {
		c.Database.Close()
	}
}
