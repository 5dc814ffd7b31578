package store

import (
	"fmt"

	"resumeForge/internal/config"
	"resumeForge/internal/database"
)

// Open 按配置选择持久化后端。postgres 后端会连接数据库并迁移表结构。
func Open(cfg config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendFile:
		fs, err := NewFileStore(cfg.Store.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case config.StoreBackendPostgres, "":
		db, err := database.InitDatabase(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		return NewGormStore(db), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
