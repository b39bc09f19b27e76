package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jinford/doc-rag/internal/infra/postgres"
	"github.com/jinford/doc-rag/internal/platform/config"
	"github.com/jinford/doc-rag/internal/platform/database"
)

// MigrateAction は pgvector 拡張とベクトルストアのテーブルを作成するコマンドのアクション
func MigrateAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	logger := newLogger(cfg.Log)

	db, err := database.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("データベース初期化に失敗しました: %w", err)
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db.Pool); err != nil {
		return fmt.Errorf("スキーマの作成に失敗: %w", err)
	}

	logger.Info("データベースのマイグレーションが完了", "collection", cfg.VectorStore.CollectionName)
	return nil
}
