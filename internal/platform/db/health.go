package db

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// StatusOK is reported when the store is reachable and the schema exists.
const StatusOK = "OK"

// HealthReport is the result of probing the store.
type HealthReport struct {
	Status       string `json:"status"`
	Schema       string `json:"schema"`
	SchemaExists bool   `json:"schema_exists"`
}

// CheckHealth runs a trivial query and checks the schema namespace.
func CheckHealth(ctx context.Context, q Querier, schema string) (*HealthReport, error) {
	var one int
	if err := q.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return nil, err
	}
	exists, err := SchemaExists(ctx, q, schema)
	if err != nil {
		return nil, err
	}
	report := &HealthReport{Status: StatusOK, Schema: schema, SchemaExists: exists}
	if !exists {
		report.Status = fmt.Sprintf("Connected, but schema '%s' not found", schema)
	}
	return report, nil
}

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// HealthHandler serves GET /health for the HTTP transport.
func HealthHandler(pool *pgxpool.Pool, schema string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		stats := GetPoolStats(pool)
		report, err := CheckHealth(ctx, pool, schema)
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"error":  Classify(err).Error(),
				"pool":   stats,
			})
		}

		code := http.StatusOK
		if !report.SchemaExists {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, map[string]interface{}{
			"status": report.Status,
			"schema": report.Schema,
			"pool":   stats,
		})
	}
}
