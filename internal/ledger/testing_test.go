package ledger

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cryptocutie-bot/internal/models"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// SQLite allows one writer; a single connection makes transactions queue
	// instead of failing with "database is locked".
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *gorm.DB) {
	t.Helper()
	db := setupLedgerTestDB(t)
	log, _ := test.NewNullLogger()
	opts = append([]Option{WithLogger(log)}, opts...)
	return NewStore(db, DefaultRules(), opts...), db
}

func int64Ptr(v int64) *int64 {
	return &v
}
