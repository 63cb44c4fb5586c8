package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptocutie-bot/internal/config"
)

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	log, hook := test.NewNullLogger()

	rdb, err := ConnectRedis(context.Background(), &config.Config{RedisHost: mr.Host(), RedisPort: mr.Port()}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	assert.Equal(t, "Connected to Redis", hook.LastEntry().Message)
}

func TestConnectRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()
	mr.Close()
	log, _ := test.NewNullLogger()

	_, err := ConnectRedis(context.Background(), &config.Config{RedisHost: host, RedisPort: port}, log)
	assert.ErrorContains(t, err, "failed to connect to redis")
}
