package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

const (
	// DefaultReadChunkSize はストリームを読み込む単位（バイト）
	DefaultReadChunkSize = 1024 * 1024
	// sniffLength はMIME判定に使う先頭バイト数
	sniffLength = 512
)

// Policy はアップロード受付のポリシー
type Policy struct {
	Dir               string   // 保存先ディレクトリ
	MaxFileSize       int64    // 上限サイズ（バイト）
	ReadChunkSize     int      // 読み込み単位（バイト）
	AllowedExtensions []string // 許可する拡張子（ドットなし）
}

// StoredFile は保存済みのアップロードファイル
type StoredFile struct {
	Path         string
	OriginalName string
	Extension    string // 小文字、ドットなし
	Size         int64
	ContentType  string
}

// Guard はアップロードされたストリームを検証しながらディスクに書き込む
type Guard struct {
	policy   Policy
	allowed  map[string]struct{}
	detector *ContentTypeDetector
	newKey   func() string
	logger   *slog.Logger
}

// GuardOption は Guard のオプション設定
type GuardOption func(*Guard)

// WithGuardLogger はロガーを設定する
func WithGuardLogger(logger *slog.Logger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithKeyGenerator は保存ファイル名のプレフィックス生成関数を差し替える
func WithKeyGenerator(fn func() string) GuardOption {
	return func(g *Guard) {
		if fn != nil {
			g.newKey = fn
		}
	}
}

// NewGuard は新しい Guard を作成する
func NewGuard(policy Policy, opts ...GuardOption) (*Guard, error) {
	if policy.Dir == "" {
		return nil, errors.New("upload dir is required")
	}
	if policy.MaxFileSize <= 0 {
		return nil, fmt.Errorf("max file size must be > 0 (got %d)", policy.MaxFileSize)
	}
	if policy.ReadChunkSize <= 0 {
		policy.ReadChunkSize = DefaultReadChunkSize
	}

	allowed := make(map[string]struct{}, len(policy.AllowedExtensions))
	for _, ext := range policy.AllowedExtensions {
		ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		if ext != "" {
			allowed[ext] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return nil, errors.New("at least one allowed extension is required")
	}

	g := &Guard{
		policy:   policy,
		allowed:  allowed,
		detector: NewContentTypeDetector(),
		newKey:   func() string { return uuid.NewString() },
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// AllowedExtensions は許可されている拡張子をソートして返す
func (g *Guard) AllowedExtensions() []string {
	exts := make([]string, 0, len(g.allowed))
	for ext := range g.allowed {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// MaxFileSize は上限サイズを返す
func (g *Guard) MaxFileSize() int64 {
	return g.policy.MaxFileSize
}

// Extension は最後のドット以降を小文字で返す。ドットが無い場合はファイル名全体を返す
func Extension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	return strings.ToLower(filename[idx+1:])
}

// ValidateFilename はファイル名を検証し、拡張子を返す
func (g *Guard) ValidateFilename(filename string) (string, error) {
	ext := Extension(filename)
	if _, ok := g.allowed[ext]; !ok || !strings.Contains(filename, ".") {
		return "", newError(ErrInvalidFileType,
			fmt.Sprintf("Unsupported file type '.%s'. Allowed types: %s", ext, strings.Join(g.AllowedExtensions(), ", ")),
			nil)
	}

	if filename == "" || filename == "." || filename == ".." ||
		strings.ContainsAny(filename, `/\`+"\x00") ||
		filepath.Base(filename) != filename {
		return "", newError(ErrInvalidFileName, fmt.Sprintf("Invalid file name '%s'", filename), nil)
	}

	return ext, nil
}

// Accept はファイル名を検証したうえでストリームを保存先に書き込む
//
// 失敗時（上限超過・I/Oエラー・キャンセル）は書きかけのファイルを必ず削除する。
func (g *Guard) Accept(ctx context.Context, filename string, r io.Reader) (*StoredFile, error) {
	ext, err := g.ValidateFilename(filename)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(g.policy.Dir, 0o755); err != nil {
		return nil, newError(ErrInternal, "Internal server error", fmt.Errorf("create upload dir: %w", err))
	}

	path := filepath.Join(g.policy.Dir, g.newKey()+"_"+filename)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, newError(ErrInternal, "Internal server error", fmt.Errorf("create %s: %w", path, err))
	}

	size, head, err := g.copy(ctx, f, r)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = newError(ErrInternal, "Internal server error", fmt.Errorf("close %s: %w", path, closeErr))
	}
	if err != nil {
		g.remove(path)
		g.logger.Warn("アップロードを中断", "filename", filename, "path", path, "error", err)
		return nil, err
	}

	stored := &StoredFile{
		Path:         path,
		OriginalName: filename,
		Extension:    ext,
		Size:         size,
		ContentType:  g.detector.DetectContentType(filename, head),
	}

	g.logger.Info("ファイルを保存",
		"filename", filename,
		"path", path,
		"size", humanize.IBytes(uint64(size)),
		"contentType", stored.ContentType,
	)

	return stored, nil
}

// copy は ReadChunkSize 単位で読み込みながら書き込み、合計サイズと先頭バイトを返す
func (g *Guard) copy(ctx context.Context, w io.Writer, r io.Reader) (int64, []byte, error) {
	buf := make([]byte, g.policy.ReadChunkSize)
	var size int64
	var head []byte

	for {
		if err := ctx.Err(); err != nil {
			return size, head, newError(ErrInternal, "Internal server error", err)
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			size += int64(n)
			if size > g.policy.MaxFileSize {
				return size, head, newError(ErrFileTooLarge,
					fmt.Sprintf("File too large. Max allowed size is %s", humanize.IBytes(uint64(g.policy.MaxFileSize))),
					nil)
			}
			if head == nil {
				head = append([]byte(nil), buf[:min(n, sniffLength)]...)
			}
			if _, err := w.Write(buf[:n]); err != nil {
				return size, head, newError(ErrInternal, "Internal server error", fmt.Errorf("write: %w", err))
			}
		}
		if errors.Is(readErr, io.EOF) {
			return size, head, nil
		}
		if readErr != nil {
			return size, head, newError(ErrInternal, "Internal server error", fmt.Errorf("read: %w", readErr))
		}
	}
}

func (g *Guard) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		g.logger.Error("書きかけのファイルを削除できません", "path", path, "error", err)
	}
}
