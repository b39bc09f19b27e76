package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// Database設定
	Database DatabaseConfig

	// ベクトルストア設定
	VectorStore VectorStoreConfig

	// アップロード受付設定
	Upload UploadConfig

	// チャンク分割設定
	Chunking ChunkingConfig

	// Embedding設定
	Embedding EmbeddingConfig

	// バックグラウンド処理設定
	Worker WorkerConfig

	// HTTPサーバ設定
	Server ServerConfig

	// ログ設定
	Log LogConfig

	// 旧形式 .doc の抽出に使う antiword のパス
	AntiwordPath string
}

// DatabaseConfig はデータベース接続設定
type DatabaseConfig struct {
	// ConnectionString が設定されている場合は個別の項目より優先されます
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	DBName           string
	SSLMode          string
}

// VectorStoreConfig はベクトルストアの設定
type VectorStoreConfig struct {
	CollectionName string
}

// UploadConfig はアップロード受付の設定
type UploadConfig struct {
	Dir               string
	MaxFileSize       int64
	ReadChunkSize     int
	AllowedExtensions []string // 受け付ける拡張子（ドットなし、小文字）
	ProcessExtensions []string // パイプライン処理対象の拡張子
}

// ChunkingConfig はテキスト分割の設定（単位は文字）
type ChunkingConfig struct {
	Size    int
	Overlap int
}

// EmbeddingConfig はEmbeddingプロバイダの設定
type EmbeddingConfig struct {
	Provider string // "gemini", "openai" or "compatible"

	GoogleAPIKey string
	GeminiModel  string

	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIDimension int

	// OpenAI互換API（ollama等）向け
	BaseURL         string
	CompatibleModel string
	CompatibleToken string
}

// WorkerConfig はバックグラウンドワーカーの設定
type WorkerConfig struct {
	PoolSize  int
	QueueSize int
}

// ServerConfig はHTTPサーバ設定
type ServerConfig struct {
	Port int
}

// LogConfig はログ出力設定
type LogConfig struct {
	Level  string
	Format string
}

const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderCompatible = "compatible"
)

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			ConnectionString: getEnv("POSTGRES_CONNECTION", ""),
			Host:             getEnv("DB_HOST", "localhost"),
			Port:             getEnvAsInt("DB_PORT", 5432),
			User:             getEnv("DB_USER", "docrag"),
			Password:         getEnv("DB_PASSWORD", ""),
			DBName:           getEnv("DB_NAME", "docrag"),
			SSLMode:          getEnv("DB_SSLMODE", "disable"),
		},
		VectorStore: VectorStoreConfig{
			CollectionName: getEnv("VECTOR_COLLECTION", "file_embeddings"),
		},
		Upload: UploadConfig{
			Dir:               getEnv("UPLOAD_DIR", "uploads"),
			MaxFileSize:       getEnvAsInt64("MAX_FILE_SIZE", 10*1024*1024),
			ReadChunkSize:     getEnvAsInt("UPLOAD_READ_CHUNK_SIZE", 1024*1024),
			AllowedExtensions: getEnvAsList("ALLOWED_EXTENSIONS", []string{"pdf", "docx", "doc", "txt"}),
			ProcessExtensions: getEnvAsList("PROCESS_EXTENSIONS", []string{"pdf", "docx", "doc", "txt"}),
		},
		Chunking: ChunkingConfig{
			Size:    getEnvAsInt("TEXT_CHUNK_SIZE", 2000),
			Overlap: getEnvAsInt("TEXT_CHUNK_OVERLAP", 200),
		},
		Embedding: EmbeddingConfig{
			Provider:        strings.ToLower(getEnv("EMBEDDING_PROVIDER", ProviderGemini)),
			GoogleAPIKey:    getEnv("GOOGLE_API_KEY", ""),
			GeminiModel:     getEnv("GEMINI_EMBEDDING_MODEL", "models/embedding-001"),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:     getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			OpenAIDimension: getEnvAsInt("OPENAI_EMBEDDING_DIMENSION", 1536),
			BaseURL:         getEnv("EMBEDDING_BASE_URL", "http://localhost:11434/v1"),
			CompatibleModel: getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			CompatibleToken: getEnv("EMBEDDING_API_TOKEN", "none"),
		},
		Worker: WorkerConfig{
			PoolSize:  getEnvAsInt("WORKER_POOL_SIZE", 4),
			QueueSize: getEnvAsInt("WORKER_QUEUE_SIZE", 256),
		},
		Server: ServerConfig{
			Port: getEnvAsInt("HTTP_PORT", 8080),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		AntiwordPath: getEnv("ANTIWORD_PATH", "antiword"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate は設定値の整合性を検証します
func (c *Config) Validate() error {
	var errs []error

	if c.Upload.Dir == "" {
		errs = append(errs, errors.New("UPLOAD_DIR must not be empty"))
	}
	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("MAX_FILE_SIZE must be > 0 (got %d)", c.Upload.MaxFileSize))
	}
	if c.Upload.ReadChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("UPLOAD_READ_CHUNK_SIZE must be > 0 (got %d)", c.Upload.ReadChunkSize))
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		errs = append(errs, errors.New("ALLOWED_EXTENSIONS must not be empty"))
	}
	if c.Chunking.Size <= 0 {
		errs = append(errs, fmt.Errorf("TEXT_CHUNK_SIZE must be > 0 (got %d)", c.Chunking.Size))
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		errs = append(errs, fmt.Errorf("TEXT_CHUNK_OVERLAP must be in [0, %d) (got %d)", c.Chunking.Size, c.Chunking.Overlap))
	}
	switch c.Embedding.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderCompatible:
	default:
		errs = append(errs, fmt.Errorf("unknown EMBEDDING_PROVIDER: %q", c.Embedding.Provider))
	}
	if c.Worker.PoolSize <= 0 {
		errs = append(errs, fmt.Errorf("WORKER_POOL_SIZE must be > 0 (got %d)", c.Worker.PoolSize))
	}
	if c.Worker.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("WORKER_QUEUE_SIZE must be > 0 (got %d)", c.Worker.QueueSize))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// DSN はpgx向けの接続文字列を返します
func (d DatabaseConfig) DSN() string {
	if d.ConnectionString != "" {
		return d.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.DBName,
		d.SSLMode,
	)
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsInt64 は環境変数を64bit整数として取得します
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList はカンマ区切りの環境変数を小文字のリストとして取得します
// 先頭のドットは取り除きます（".pdf" と "pdf" は同じ扱い）
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		v = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(v)), ".")
		if v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
