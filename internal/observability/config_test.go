package observability

import (
	"testing"

	"github.com/smallbiznis/salescommission/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigNormalizesTelemetry(t *testing.T) {
	cfg := LoadConfig(config.Config{
		Environment:  " production ",
		AppVersion:   "1.2.0",
		OTLPEndpoint: "collector:4318",
		Observability: config.ObservabilityConfig{
			LogLevel:      "info",
			OtelEnabled:   true,
			OtelProtocol:  "http/protobuf",
			SamplingRatio: 4,
		},
	})

	assert.Equal(t, "salescommission", cfg.ServiceName)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.OtelEnabled)
	assert.Equal(t, "http/protobuf", cfg.OtelExporterProtocol)
	assert.Equal(t, 0.1, cfg.OtelSamplingRatio)
	assert.False(t, cfg.Debug())
}

func TestLoadConfigDisablesOtelWithoutEndpoint(t *testing.T) {
	cfg := LoadConfig(config.Config{
		AppName:     "commission-worker",
		Environment: "test",
		Observability: config.ObservabilityConfig{
			OtelEnabled:  true,
			OtelProtocol: "udp",
		},
	})

	assert.Equal(t, "commission-worker", cfg.ServiceName)
	assert.False(t, cfg.OtelEnabled)
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.True(t, cfg.Debug())
}
