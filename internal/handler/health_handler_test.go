package handler_test

import (
	"net/http"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-course-api/internal/config"
	"github.com/noah-isme/gema-course-api/internal/handler"
)

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{AppName: "GEMA Courses API", AppEnv: "test"}

	db, err := gorm.Open(sqlite.Open("file:health?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()
	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(cfg, db, cache))

	resp, payload := doRequest(t, app, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, payload.Success)

	var data handler.HealthResponse
	decodeData(t, payload, &data)
	require.Equal(t, "ok", data.Status)
	require.Equal(t, cfg.AppName, data.Service)
	require.Equal(t, cfg.AppEnv, data.Environment)
	require.Equal(t, "ok", data.Checks["database"])
	require.Equal(t, "ok", data.Checks["redis"])
	require.WithinDuration(t, time.Now().UTC(), data.Timestamp, 2*time.Second)
}

func TestHealthCheckDegradedWhenDatabaseUnreachable(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:health_closed?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(config.Config{AppName: "GEMA Courses API"}, db, nil))

	resp, payload := doRequest(t, app, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	require.False(t, payload.Success)

	var data handler.HealthResponse
	decodeData(t, payload, &data)
	require.Equal(t, "degraded", data.Status)
	require.Equal(t, "unreachable", data.Checks["database"])
	require.NotContains(t, data.Checks, "redis")
}
