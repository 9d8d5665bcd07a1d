package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Victor-talka/talka-history/internal/config"
	"github.com/Victor-talka/talka-history/internal/database"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:          "sqlite",
			Path:            filepath.Join(t.TempDir(), "test.db"),
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Hour,
		},
		Upload: config.UploadConfig{MaxFileSize: 1 << 20},
		Admin:  config.AdminConfig{Username: "admin", Password: "admin123", Bootstrap: true},
	}
}

func newTestDB(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()
	db, err := database.Initialize(cfg.Database, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
