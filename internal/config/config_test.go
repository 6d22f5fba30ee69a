package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("COMMISSION_FALLBACK_SALESPERSON_ID", "12345")
	t.Setenv("EXPORT_PDF_ENABLED", "off")
	t.Setenv("EXPORT_S3_BUCKET", "reports")
	t.Setenv("COMMISSION_SYNC_LOCK_TTL", "90s")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, int64(12345), cfg.FallbackSalespersonID)
	assert.False(t, cfg.Export.PDFEnabled)
	assert.True(t, cfg.Export.XLSXEnabled)
	assert.True(t, cfg.Export.Archive.Enabled())
	assert.Equal(t, 90*time.Second, cfg.SyncLockTTL)
}

func TestLoadFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("DATABASE_MAX_OPEN_CONN", "many")
	t.Setenv("COMMISSION_SYNC_LOCK_TTL", "-5s")
	t.Setenv("SCHEDULER_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 20, cfg.DBMaxOpenConn)
	assert.Equal(t, 10*time.Minute, cfg.SyncLockTTL)
	assert.True(t, cfg.SchedulerEnabled)
}

func TestLoadReadsObservabilitySettings(t *testing.T) {
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "HTTP")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.5")
	t.Setenv("DEPLOYMENT_ENV", "staging")

	cfg := Load()

	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, "http", cfg.Observability.OtelProtocol)
	assert.Equal(t, 0.5, cfg.Observability.SamplingRatio)
	assert.Equal(t, "staging", cfg.Environment)
}
