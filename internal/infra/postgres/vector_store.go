package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/jinford/doc-rag/internal/core/ingestion"
	"github.com/jinford/doc-rag/internal/platform/database"
)

const (
	collectionTable = "langchain_pg_collection"

	// DefaultCollectionName はコレクション未指定時の名前
	DefaultCollectionName = "file_embeddings"
)

const (
	selectCollectionSQL = `SELECT uuid FROM langchain_pg_collection WHERE name = $1`

	insertCollectionSQL = `INSERT INTO langchain_pg_collection (uuid, name, cmetadata) VALUES ($1, $2, $3)`

	upsertEmbeddingSQL = `
INSERT INTO langchain_pg_embedding (id, collection_id, embedding, document, cmetadata)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    embedding = EXCLUDED.embedding,
    document = EXCLUDED.document,
    cmetadata = EXCLUDED.cmetadata`

	countEmbeddingsSQL = `
SELECT count(*)
FROM langchain_pg_embedding e
JOIN langchain_pg_collection c ON c.uuid = e.collection_id
WHERE c.name = $1`
)

// VectorStore は LangChain PGVector 互換のテーブルにレコードを書き込みます
type VectorStore struct {
	db         database.TxBeginner
	collection string
	logger     *slog.Logger
}

// VectorStoreOption は VectorStore のオプション設定
type VectorStoreOption func(*VectorStore)

// WithCollectionName はコレクション名を設定します
func WithCollectionName(name string) VectorStoreOption {
	return func(s *VectorStore) {
		if name != "" {
			s.collection = name
		}
	}
}

// WithVectorStoreLogger はロガーを設定します
func WithVectorStoreLogger(logger *slog.Logger) VectorStoreOption {
	return func(s *VectorStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewVectorStore は新しい VectorStore を作成します
func NewVectorStore(db database.TxBeginner, opts ...VectorStoreOption) *VectorStore {
	s := &VectorStore{
		db:         db,
		collection: DefaultCollectionName,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// コンパイル時の型チェック
var _ ingestion.VectorStore = (*VectorStore)(nil)

// CollectionName はコレクション名を返します
func (s *VectorStore) CollectionName() string {
	return s.collection
}

// AddDocuments はレコードを1トランザクションで書き込み、IDを返します
func (s *VectorStore) AddDocuments(ctx context.Context, records []ingestion.Record) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}

	ids, err := database.Transact(ctx, s.db, func(tx pgx.Tx) ([]string, error) {
		collectionID, err := s.ensureCollection(ctx, tx)
		if err != nil {
			return nil, err
		}

		batch := &pgx.Batch{}
		ids := make([]string, 0, len(records))
		for _, r := range records {
			metadata, err := MetadataToJSON(r.Metadata)
			if err != nil {
				return nil, err
			}
			batch.Queue(upsertEmbeddingSQL,
				r.ID.String(),
				collectionID,
				pgvector.NewVector(r.Embedding),
				r.Content,
				metadata,
			)
			ids = append(ids, r.ID.String())
		}

		results := tx.SendBatch(ctx, batch)
		for i := range records {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return nil, fmt.Errorf("failed to insert embedding %d: %w", i, err)
			}
		}
		if err := results.Close(); err != nil {
			return nil, fmt.Errorf("failed to close batch: %w", err)
		}

		return ids, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Embeddingを保存", "collection", s.collection, "count", len(ids))
	return ids, nil
}

// CountDocuments はコレクション内のレコード数を返します
func (s *VectorStore) CountDocuments(ctx context.Context) (int, error) {
	return database.Transact(ctx, s.db, func(tx pgx.Tx) (int, error) {
		var count int
		if err := tx.QueryRow(ctx, countEmbeddingsSQL, s.collection).Scan(&count); err != nil {
			return 0, fmt.Errorf("failed to count embeddings: %w", err)
		}
		return count, nil
	})
}

// ensureCollection はコレクションを取得し、存在しなければ作成します
func (s *VectorStore) ensureCollection(ctx context.Context, tx pgx.Tx) (pgtype.UUID, error) {
	if err := database.AcquireXactLock(ctx, tx, database.GenerateLockID(collectionTable, s.collection)); err != nil {
		return pgtype.UUID{}, err
	}

	var id pgtype.UUID
	err := tx.QueryRow(ctx, selectCollectionSQL, s.collection).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return pgtype.UUID{}, fmt.Errorf("failed to get collection: %w", err)
	}

	id = UUIDToPgtype(uuid.New())
	if _, err := tx.Exec(ctx, insertCollectionSQL, id, s.collection, []byte("{}")); err != nil {
		return pgtype.UUID{}, fmt.Errorf("failed to create collection: %w", err)
	}

	s.logger.Info("コレクションを作成", "collection", s.collection, "uuid", PgtypeToUUID(id))
	return id, nil
}
