package cmd

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"skillswap/internal/api/router"
	"skillswap/internal/config"
	"skillswap/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTesterFindsNoRaceViolations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger.SetOutput(io.Discard)

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "loadtest-secret"
	cfg.Auth.Issuer = "skillswap-test"
	cfg.Auth.TokenTTLHours = 1
	cfg.Auth.BcryptCost = 4

	comp, err := router.NewComponents(context.Background(), cfg)
	require.NoError(t, err)
	defer comp.Close()

	srv := httptest.NewServer(router.NewRouter(cfg, comp))
	defer srv.Close()

	lt := NewLoadTester(LoadTestConfig{
		BaseURL:         srv.URL,
		Pairs:           4,
		CreateAttempts:  8,
		DecideAttempts:  8,
		ConcurrentUsers: 16,
	})
	require.NoError(t, lt.Initialize())
	lt.RunLoadTest()

	creates, decisions := lt.Violations()
	assert.Zero(t, creates)
	assert.Zero(t, decisions)
	assert.Zero(t, lt.results.FailedReqs)
	assert.Equal(t, 4*8*2, lt.results.TotalRequests)
	assert.Equal(t, 4*2, lt.results.SuccessfulReqs)
}

func TestShouldRebuildIndex(t *testing.T) {
	cfg := &config.Config{}
	assert.False(t, shouldRebuildIndex(cfg))

	cfg.Store.Driver = router.DriverPostgres
	assert.True(t, shouldRebuildIndex(cfg))

	cfg.Index.Driver = router.DriverRedis
	assert.False(t, shouldRebuildIndex(cfg))

	cfg.Index.RebuildOnStart = true
	assert.True(t, shouldRebuildIndex(cfg))
}
