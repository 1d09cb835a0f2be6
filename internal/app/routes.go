package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/simp-lee/medibook/internal/domain"
	"github.com/simp-lee/medibook/internal/middleware"
	"github.com/simp-lee/medibook/internal/pkg"
)

// RouteDeps holds all dependencies needed to register routes.
type RouteDeps struct {
	Modules []Module
	Tokens  domain.TokenService
	DB      *gorm.DB
	Redis   *redis.Client // nil when revocations are kept in memory
}

// RegisterRoutes registers all application routes on the given gin.Engine.
func RegisterRoutes(r *gin.Engine, deps *RouteDeps) error {
	if r == nil {
		return errors.New("router is nil")
	}
	if deps == nil {
		return errors.New("route dependencies are nil")
	}
	if len(deps.Modules) == 0 {
		return errors.New("at least one module is required")
	}
	if deps.Tokens == nil {
		return errors.New("token service is required")
	}

	// Health check
	r.GET("/health", healthHandler(deps.DB, deps.Redis))

	public := r.Group("/api/v1")
	protected := public.Group("", middleware.Auth(deps.Tokens))

	// Register module routes
	for i, m := range deps.Modules {
		if m == nil {
			return fmt.Errorf("module at index %d is nil", i)
		}
		m.RegisterRoutes(public, protected)
	}

	r.NoRoute(noRouteHandler())

	return nil
}

// healthHandler returns a handler that pings the database and, when
// configured, Redis.
func healthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		components := gin.H{"database": pingDatabase(ctx, db)}
		if rdb != nil {
			components["redis"] = pingRedis(ctx, rdb)
		}

		status, code := "ok", http.StatusOK
		for _, v := range components {
			if v != "ok" {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}

		c.JSON(code, gin.H{
			"status":     status,
			"components": components,
		})
	}
}

func pingDatabase(ctx context.Context, db *gorm.DB) string {
	if db == nil {
		return "error"
	}
	sqlDB, err := db.DB()
	if err != nil {
		return "error"
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return "error"
	}
	return "ok"
}

func pingRedis(ctx context.Context, rdb *redis.Client) string {
	if err := rdb.Ping(ctx).Err(); err != nil {
		return "error"
	}
	return "ok"
}

// noRouteHandler answers unknown paths with the JSON envelope.
func noRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, pkg.Response{Code: http.StatusNotFound, Message: "not found"})
	}
}
