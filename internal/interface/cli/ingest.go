package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/jinford/doc-rag/internal/core/ingestion"
)

// IngestAction はローカルファイル1件をその場でパイプライン処理するコマンドのアクション
func IngestAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	path := cmd.String("file")

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("ファイルを開けません: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("ディレクトリは指定できません: %s", path)
	}

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	source := cmd.String("source")
	if source == "" {
		source = filepath.Base(path)
	}

	result, err := appCtx.Container.Pipeline.Process(ctx, ingestion.Job{Path: path, Source: source})
	if err != nil {
		return err
	}

	fmt.Printf("ファイル: %s (%s)\n", path, humanize.IBytes(uint64(info.Size())))
	fmt.Printf("ステータス: %s\n", result.Status)
	fmt.Printf("チャンク数: %d\n", result.Chunks)
	return nil
}
