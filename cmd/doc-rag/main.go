package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	appcli "github.com/jinford/doc-rag/internal/interface/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 構造化ログの設定（設定ファイル読み込み後に上書きされる）
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	app := &cli.Command{
		Name:  "doc-rag",
		Usage: "アップロードされた文書をベクトル化して保存するインジェストサーバ",
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "サーバ関連コマンド",
				Commands: []*cli.Command{
					{
						Name:  "start",
						Usage: "HTTPサーバを起動",
						Flags: []cli.Flag{
							envFlag(),
							&cli.IntFlag{
								Name:  "port",
								Usage: "HTTPポート（省略時は環境変数またはデフォルトの8080）",
								Value: 8080,
							},
						},
						Action: appcli.ServerStartAction,
					},
				},
			},
			{
				Name:  "ingest",
				Usage: "ローカルファイルを抽出・分割・ベクトル化して保存",
				Flags: []cli.Flag{
					envFlag(),
					&cli.StringFlag{
						Name:     "file",
						Usage:    "処理するファイルのパス",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "メタデータに記録する元ファイル名（省略時はファイル名）",
					},
				},
				Action: appcli.IngestAction,
			},
			{
				Name:   "migrate",
				Usage:  "pgvector 拡張とベクトルストアのテーブルを作成",
				Flags:  []cli.Flag{envFlag()},
				Action: appcli.MigrateAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func envFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "env",
		Usage: "環境変数ファイルパス",
		Value: ".env",
	}
}
