package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jinford/doc-rag/internal/platform/database"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema は pgvector 拡張とコレクション/Embeddingテーブルを作成します（冪等）
func EnsureSchema(ctx context.Context, db database.TxBeginner) error {
	_, err := database.Transact(ctx, db, func(tx pgx.Tx) (struct{}, error) {
		// 複数プロセスが同時に起動した場合に備えて直列化する
		if err := database.AcquireXactLock(ctx, tx, database.GenerateLockID("schema", collectionTable)); err != nil {
			return struct{}{}, err
		}
		if _, err := tx.Exec(ctx, schemaSQL); err != nil {
			return struct{}{}, fmt.Errorf("failed to apply schema: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}
