package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/jinford/doc-rag/internal/infra/postgres"
	"github.com/jinford/doc-rag/internal/interface/httpapi"
)

// drainTimeout は停止時に実行中のジョブを待つ最大時間
const drainTimeout = 2 * time.Minute

// ServerStartAction はHTTPサーバを起動するコマンドのアクション
func ServerStartAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	logger := appCtx.Logger()
	cont := appCtx.Container
	cfg := appCtx.Config

	// 起動時にスキーマを作成する
	if err := postgres.EnsureSchema(ctx, cont.Database.Pool); err != nil {
		return fmt.Errorf("スキーマの作成に失敗: %w", err)
	}
	logger.Info("データベースのマイグレーションが完了")

	dispatcher, err := cont.NewDispatcher()
	if err != nil {
		return fmt.Errorf("ディスパッチャの初期化に失敗: %w", err)
	}
	defer func() {
		if err := dispatcher.Close(drainTimeout); err != nil {
			logger.Warn("ディスパッチャの停止に失敗", "error", err)
		}
	}()

	port := cfg.Server.Port
	if cmd.IsSet("port") {
		port = cmd.Int("port")
	}

	server := httpapi.NewServer(cont.Guard, dispatcher,
		httpapi.WithProcessExtensions(cfg.Upload.ProcessExtensions),
		httpapi.WithHealthChecker(cont.Database),
		httpapi.WithLogger(logger),
	)

	return server.Serve(ctx, fmt.Sprintf(":%d", port))
}
