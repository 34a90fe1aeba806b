package repos

import (
	"database/sql"
	"testing"

	"github.com/avoss/kinodigest/lib/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Attribute{},
		&models.Movie{},
		&models.Performance{},
		&models.Recipient{},
	))
	return db
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}
