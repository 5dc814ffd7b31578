package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resumeForge/internal/config"
)

// 自动保存每次写入整份 JSONB 文档，超过该阈值的写入记为慢查询。
const slowSaveThreshold = 500 * time.Millisecond

// InitDatabase 打开 PostgreSQL 连接。GORM 日志经由默认 slog 输出，只记录警告、错误与慢查询。
func InitDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormLogger := logger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             slowSaveThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap db: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Migrate 创建或更新 resumes 表。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Resume{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
