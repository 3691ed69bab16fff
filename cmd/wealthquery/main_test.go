package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wealth-query-agent/internal/config"
	"github.com/wealth-query-agent/internal/jsonx"
	"github.com/wealth-query-agent/internal/store"
	"go.uber.org/zap/zaptest"
)

const offlineConfig = `
ai:
  provider: stub
sql:
  driver: sqlite
  dsn: ":memory:"
log:
  level: error
`

func writeConfig(t *testing.T) string {
	t.Helper()
	for _, key := range []string{"MONGODB_URL", "SQL_DRIVER", "SQL_DSN", "AI_PROVIDER", "CACHE_ENABLED", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(offlineConfig), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAsk_PrintsResult(t *testing.T) {
	path := writeConfig(t)

	out, err := execute(t, "--config", path, "ask", "Which", "clients", "are", "from", "Mumbai?")
	require.NoError(t, err)

	var res map[string]interface{}
	require.NoError(t, jsonx.UnmarshalFromString(out, &res))
	assert.Equal(t, true, res["success"])
	assert.NotEmpty(t, res["request_id"])
	assert.Contains(t, res["text_response"], "Based on your query")

	analysis, ok := res["query_analysis"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "fallback", analysis["origin"])
}

func TestAsk_RejectsShortQuery(t *testing.T) {
	path := writeConfig(t)

	_, err := execute(t, "--config", path, "ask", " a ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 3 characters")
}

func TestSeed_InMemoryStoresAlreadyPopulated(t *testing.T) {
	path := writeConfig(t)

	out, err := execute(t, "--config", path, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 0 profiles and 0 transactions")
}

func TestBuildApp_OfflineDefaults(t *testing.T) {
	ctx := context.Background()
	a, err := buildApp(ctx, config.Default(), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close()

	_, isMemory := a.profiles.(*store.MemoryProfileStore)
	assert.True(t, isMemory)
	require.NotNil(t, a.transactions)

	recent, err := a.transactions.Recent(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, recent, len(store.SampleTransactions()))

	stats := store.ComputeStats(ctx, a.profiles, a.transactions)
	assert.Equal(t, store.StatsLive, stats.Source)
}

func TestBuildApp_CacheEnabledWithoutRedis(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Enabled = true

	a, err := buildApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.cache)
	assert.Nil(t, a.redis)
}

func TestBuildApp_UnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.AI.Provider = "mystery"

	_, err := buildApp(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestIsMemoryDSN(t *testing.T) {
	assert.True(t, isMemoryDSN(":memory:"))
	assert.True(t, isMemoryDSN("file:test?mode=memory&cache=shared"))
	assert.False(t, isMemoryDSN("/var/lib/wealth/investments.db"))
}
