package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds database tracing configuration.
type DBTracingConfig struct {
	Enabled         bool
	DBName          string
	LogFullSQL      bool // include bound variables; never enable with real personal data
	SlowQueryThresh time.Duration
}

// DefaultDBTracingConfig returns tracing off, variables hidden and a 200ms slow threshold.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		DBName:          "postgresql",
		SlowQueryThresh: 200 * time.Millisecond,
	}
}

const dbStartKey = "telemetry:query_start"

// RegisterDBTracing installs the otelgorm plugin on db and flags spans of
// queries slower than cfg.SlowQueryThresh.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	slow := &slowQueryMarker{threshold: cfg.SlowQueryThresh}
	cb := db.Callback()
	if err := errors.Join(
		cb.Create().Before("gorm:create").Register("telemetry:start_create", slow.start),
		cb.Query().Before("gorm:query").Register("telemetry:start_query", slow.start),
		cb.Update().Before("gorm:update").Register("telemetry:start_update", slow.start),
		cb.Delete().Before("gorm:delete").Register("telemetry:start_delete", slow.start),
		cb.Row().Before("gorm:row").Register("telemetry:start_row", slow.start),
		cb.Raw().Before("gorm:raw").Register("telemetry:start_raw", slow.start),
		cb.Create().After("gorm:create").Register("telemetry:end_create", slow.end),
		cb.Query().After("gorm:query").Register("telemetry:end_query", slow.end),
		cb.Update().After("gorm:update").Register("telemetry:end_update", slow.end),
		cb.Delete().After("gorm:delete").Register("telemetry:end_delete", slow.end),
		cb.Row().After("gorm:row").Register("telemetry:end_row", slow.end),
		cb.Raw().After("gorm:raw").Register("telemetry:end_raw", slow.end),
	); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh))
	return nil
}

type slowQueryMarker struct {
	threshold time.Duration
}

func (m *slowQueryMarker) start(db *gorm.DB) {
	db.InstanceSet(dbStartKey, time.Now())
}

func (m *slowQueryMarker) end(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}
	v, ok := db.InstanceGet(dbStartKey)
	if !ok {
		return
	}
	started, ok := v.(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(started); m.threshold > 0 && elapsed > m.threshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
