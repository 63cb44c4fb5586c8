package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cryptocutie-bot/internal/ledger"
	"cryptocutie-bot/internal/models"
)

type fakeSender struct {
	mu     sync.Mutex
	sent   []int64
	fail   map[int64]bool
	onSend func()
}

func (f *fakeSender) Notify(_ context.Context, userID int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onSend != nil {
		f.onSend()
	}
	if f.fail[userID] {
		return errors.New("blocked by user")
	}
	f.sent = append(f.sent, userID)
	return nil
}

type checkerEnv struct {
	checker *Checker
	store   *ledger.Store
	db      *gorm.DB
	mr      *miniredis.Miniredis
	logs    *test.Hook
}

func setupChecker(t *testing.T, sender Sender) checkerEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))

	log, hook := test.NewNullLogger()
	rules := ledger.DefaultRules()
	store := ledger.NewStore(db, rules, ledger.WithLogger(log))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return checkerEnv{
		checker: NewChecker(store, rdb, sender, rules, 0, log, nil),
		store:   store,
		db:      db,
		mr:      mr,
		logs:    hook,
	}
}

func TestCheckEligibleNotifiesOnce(t *testing.T) {
	sender := &fakeSender{}
	env := setupChecker(t, sender)
	checker, store, mr := env.checker, env.store, env.mr
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		_, _, err := store.CreateIfAbsent(ctx, ledger.Registration{UserID: id})
		require.NoError(t, err)
	}
	_, err := store.Credit(ctx, 2, ledger.Units(5), models.EntryAdminCredit)
	require.NoError(t, err)

	assert.Equal(t, 1, checker.CheckEligible(ctx))
	assert.Equal(t, []int64{2}, sender.sent)
	assert.True(t, mr.Exists("notified_eligible_2"))

	assert.Equal(t, 0, checker.CheckEligible(ctx))
	assert.Equal(t, []int64{2}, sender.sent)
}

func TestCheckEligibleRetriesFailedSend(t *testing.T) {
	sender := &fakeSender{fail: map[int64]bool{1: true}}
	env := setupChecker(t, sender)
	checker, store, mr := env.checker, env.store, env.mr
	ctx := context.Background()

	_, _, err := store.CreateIfAbsent(ctx, ledger.Registration{UserID: 1})
	require.NoError(t, err)
	_, err = store.Credit(ctx, 1, ledger.Units(10), models.EntryAdminCredit)
	require.NoError(t, err)

	assert.Equal(t, 0, checker.CheckEligible(ctx))
	assert.False(t, mr.Exists("notified_eligible_1"))

	sender.fail = nil
	assert.Equal(t, 1, checker.CheckEligible(ctx))
	assert.Equal(t, []int64{1}, sender.sent)
}

func TestCheckEligiblePagesThroughAllAccounts(t *testing.T) {
	sender := &fakeSender{}
	env := setupChecker(t, sender)
	ctx := context.Background()

	accounts := make([]models.Account, 0, batchSize+1)
	for id := int64(1); id <= batchSize+1; id++ {
		accounts = append(accounts, models.Account{UserID: id, Balance: int64(ledger.Units(6))})
	}
	require.NoError(t, env.db.CreateInBatches(&accounts, 100).Error)

	assert.Equal(t, batchSize+1, env.checker.CheckEligible(ctx))
	assert.Contains(t, sender.sent, int64(batchSize+1))
	assert.Equal(t, 0, env.checker.CheckEligible(ctx))
}

func TestCheckEligibleLogsFlagCleanupFailure(t *testing.T) {
	sender := &fakeSender{fail: map[int64]bool{1: true}}
	env := setupChecker(t, sender)
	ctx := context.Background()

	_, _, err := env.store.CreateIfAbsent(ctx, ledger.Registration{UserID: 1})
	require.NoError(t, err)
	_, err = env.store.Credit(ctx, 1, ledger.Units(5), models.EntryAdminCredit)
	require.NoError(t, err)

	// Redis goes away between setting the flag and clearing it.
	sender.onSend = env.mr.Close

	assert.Equal(t, 0, env.checker.CheckEligible(ctx))
	var messages []string
	for _, e := range env.logs.AllEntries() {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "Failed to clear notification flag, user will not be notified until it expires")
}
