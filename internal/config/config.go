package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendFile     = "file"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Store    StoreConfig    `mapstructure:"store"`
	Autosave AutosaveConfig `mapstructure:"autosave"`
	PDF      PDFConfig      `mapstructure:"pdf"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Clamd    ClamdConfig    `mapstructure:"clamd"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port           int   `mapstructure:"port"`
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	PublicEndpoint   string `mapstructure:"public_endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	BucketLookup     string `mapstructure:"bucket_lookup"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

// StoreConfig 选择简历文档的持久化后端：postgres（远端）或 file（本地目录）。
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
}

// AutosaveConfig controls the debounce delay between the last edit and the save.
// 超过 IdleTTL 未被访问的会话会被写回并从内存回收。
type AutosaveConfig struct {
	Delay   time.Duration `mapstructure:"delay"`
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

// PDFConfig configures the headless browser used for export.
type PDFConfig struct {
	ChromeBin      string        `mapstructure:"chrome_bin"`
	Timeout        time.Duration `mapstructure:"timeout"`
	PreviewQuality int           `mapstructure:"preview_quality"`
}

// WorkerConfig 控制 asynq worker 的并发。
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// ClamdConfig 配置上传文件的病毒扫描；Addr 为空时跳过扫描。
type ClamdConfig struct {
	Addr string `mapstructure:"addr"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Addr returns host:port for go-redis and asynq.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.max_upload_bytes", 10<<20)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "resumeforge")
	v.SetDefault("database.user", "resumeforge")
	v.SetDefault("database.password", "resumeforge")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.public_endpoint", "http://localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "resumes")
	v.SetDefault("minio.region", "us-east-1")
	v.SetDefault("minio.bucket_lookup", "auto")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("store.backend", StoreBackendPostgres)
	v.SetDefault("store.dir", "./data/resumes")
	v.SetDefault("autosave.delay", "1500ms")
	v.SetDefault("autosave.idle_ttl", "30m")
	v.SetDefault("pdf.timeout", "30s")
	v.SetDefault("pdf.preview_quality", 80)
	v.SetDefault("worker.concurrency", 4)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                 "API_PORT",
		"api.max_upload_bytes":     "API_MAX_UPLOAD_BYTES",
		"database.host":            "DATABASE_HOST",
		"database.port":            "DATABASE_PORT",
		"database.name":            "POSTGRES_DB",
		"database.user":            "POSTGRES_USER",
		"database.password":        "POSTGRES_PASSWORD",
		"database.sslmode":         "DATABASE_SSLMODE",
		"redis.host":               "REDIS_HOST",
		"redis.port":               "REDIS_PORT",
		"redis.password":           "REDIS_PASSWORD",
		"minio.endpoint":           "MINIO_ENDPOINT",
		"minio.public_endpoint":    "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":      "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":  "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":            "MINIO_USE_SSL",
		"minio.bucket":             "MINIO_BUCKET",
		"minio.region":             "MINIO_REGION",
		"minio.bucket_lookup":      "MINIO_BUCKET_LOOKUP",
		"minio.auto_create_bucket": "MINIO_AUTO_CREATE_BUCKET",
		"store.backend":            "STORE_BACKEND",
		"store.dir":                "STORE_DIR",
		"autosave.delay":           "AUTOSAVE_DELAY",
		"autosave.idle_ttl":        "AUTOSAVE_IDLE_TTL",
		"pdf.chrome_bin":           "CHROME_BIN",
		"pdf.timeout":              "PDF_TIMEOUT",
		"pdf.preview_quality":      "PDF_PREVIEW_QUALITY",
		"worker.concurrency":       "WORKER_CONCURRENCY",
		"clamd.addr":               "CLAMD_ADDR",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.API.MaxUploadBytes <= 0 {
		return errors.New("api max upload bytes must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.PublicEndpoint == "" {
		return errors.New("minio public endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	switch cfg.Store.Backend {
	case StoreBackendPostgres:
	case StoreBackendFile:
		if cfg.Store.Dir == "" {
			return errors.New("store dir is required for the file backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if cfg.Autosave.Delay <= 0 {
		return errors.New("autosave delay must be positive")
	}
	if cfg.Autosave.IdleTTL <= cfg.Autosave.Delay {
		return errors.New("autosave idle ttl must be longer than the autosave delay")
	}
	if cfg.PDF.Timeout <= 0 {
		return errors.New("pdf timeout must be positive")
	}
	if cfg.PDF.PreviewQuality < 1 || cfg.PDF.PreviewQuality > 100 {
		return errors.New("pdf preview quality must be between 1 and 100")
	}
	if cfg.Worker.Concurrency <= 0 {
		return errors.New("worker concurrency must be positive")
	}
	return nil
}
