package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 4, cfg.JWTExpiryHours)
	assert.Equal(t, time.Hour, cfg.RoomTTL)
	assert.Equal(t, 10, cfg.MaxParticipants)
	assert.Equal(t, 10*time.Second, cfg.SyncInitialDelay)
	assert.Equal(t, 15*time.Second, cfg.SyncInterval)
	assert.True(t, cfg.SignalRelayFallback)
	assert.True(t, cfg.LeaveOnDisconnect)
	assert.Equal(t, "127.0.0.1", cfg.DB.Host)
	assert.Equal(t, "clov", cfg.DB.Name)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ROOM_TTL_SECONDS", "120")
	t.Setenv("SYNC_INTERVAL", "2s")
	t.Setenv("LEAVE_ON_DISCONNECT", "false")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOG_LEVEL", "loud")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.RoomTTL)
	assert.Equal(t, 2*time.Second, cfg.SyncInterval)
	assert.False(t, cfg.LeaveOnDisconnect)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "info", cfg.LogLevel, "invalid level falls back to info")
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing redis", func(t *testing.T) {
		t.Setenv("REDIS_ADDR", "")
		t.Setenv("JWT_SECRET", "secret")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "REDIS_ADDR")
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("REDIS_ADDR", "127.0.0.1:6379")
		t.Setenv("JWT_SECRET", "")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("bad number", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("ROOM_MAX_PARTICIPANTS", "ten")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "ROOM_MAX_PARTICIPANTS")
	})

	t.Run("bad duration", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("RATE_LIMIT_WINDOW", "soon")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "RATE_LIMIT_WINDOW")
	})
}

func TestCORS_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS("http://app.test"))
	router.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/x", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://app.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestLoggerMiddleware_LevelByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, hook := test.NewNullLogger()
	router := gin.New()
	router.Use(LoggerMiddleware(log))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok?token=secret", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok", entries[0].Data["path"], "query strings are not logged")
	assert.Equal(t, logrus.WarnLevel, entries[1].Level)
	assert.Equal(t, http.StatusNotFound, entries[1].Data["status_code"])
}
