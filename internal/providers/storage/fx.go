package storage

import (
	"context"

	"github.com/smallbiznis/salescommission/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("storage",
	fx.Provide(NewProvider),
)

// NewProvider builds the S3 archive when EXPORT_S3_BUCKET is set.
func NewProvider(cfg config.Config, log *zap.Logger) (Provider, error) {
	archive := cfg.Export.Archive
	if !archive.Enabled() {
		return NoOpProvider{}, nil
	}
	p, err := NewS3Provider(context.Background(), archive)
	if err != nil {
		return nil, err
	}
	log.Info("storage.archive.enabled", zap.String("bucket", archive.Bucket), zap.String("endpoint", archive.Endpoint))
	return p, nil
}
