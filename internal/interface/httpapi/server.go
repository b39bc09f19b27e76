package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jinford/doc-rag/internal/core/ingestion"
	"github.com/jinford/doc-rag/internal/core/intake"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// Intake はアップロードストリームを検証して保存する
type Intake interface {
	Accept(ctx context.Context, filename string, r io.Reader) (*intake.StoredFile, error)
}

// JobQueue は保存済みファイルをバックグラウンド処理に回す
type JobQueue interface {
	Enqueue(job ingestion.Job) error
}

// HealthChecker は依存先の疎通を確認する
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server はアップロードAPIを提供する
type Server struct {
	intake      Intake
	queue       JobQueue
	health      HealthChecker
	processExts map[string]struct{}
	logger      *slog.Logger
}

// Option は Server のオプション設定
type Option func(*Server)

// WithProcessExtensions はパイプライン処理対象の拡張子を設定する
func WithProcessExtensions(exts []string) Option {
	return func(s *Server) {
		s.processExts = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
			if ext != "" {
				s.processExts[ext] = struct{}{}
			}
		}
	}
}

// WithHealthChecker はヘルスチェック対象を設定する
func WithHealthChecker(h HealthChecker) Option {
	return func(s *Server) {
		s.health = h
	}
}

// WithLogger はロガーを設定する
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer は新しい Server を作成する
func NewServer(in Intake, queue JobQueue, opts ...Option) *Server {
	s := &Server{
		intake:      in,
		queue:       queue,
		processExts: map[string]struct{}{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler はルーティング済みの http.Handler を返す
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /upload/", s.handleUpload)
	return mux
}

// Serve は ctx がキャンセルされるまでHTTPサーバを動かし、その後グレースフルに停止する
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTPサーバを起動", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("HTTPサーバを停止")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.logger.Error("ヘルスチェックに失敗", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
