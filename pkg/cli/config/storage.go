package config

import (
	"context"

	"github.com/m-mizutani/imgharvest/pkg/domain/interfaces"
	"github.com/m-mizutani/imgharvest/pkg/infra/storage"
	"github.com/m-mizutani/imgharvest/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// DefaultStorageRoot is the local download folder
const DefaultStorageRoot = "downloaded_images"

// Storage holds image destination configuration. A GCS bucket takes precedence
// over the local root.
type Storage struct {
	Root      string
	GCSBucket string
	GCSPrefix string
}

// Flags returns CLI flags for storage configuration
func (c *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "root",
			Aliases:     []string{"o"},
			Usage:       "Local folder where images are saved",
			Value:       DefaultStorageRoot,
			Destination: &c.Root,
			Sources:     cli.EnvVars("IMGHARVEST_ROOT"),
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Save images to this Google Cloud Storage bucket instead of the local folder",
			Destination: &c.GCSBucket,
			Sources:     cli.EnvVars("IMGHARVEST_GCS_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object name prefix inside the GCS bucket",
			Value:       DefaultStorageRoot,
			Destination: &c.GCSPrefix,
			Sources:     cli.EnvVars("IMGHARVEST_GCS_PREFIX"),
		},
	}
}

// New builds the configured storage. The returned function releases it.
func (c *Storage) New(ctx context.Context) (interfaces.ImageStorage, func(), error) {
	logger := logging.From(ctx)

	if c.GCSBucket != "" {
		st, err := storage.NewGCS(ctx, c.GCSBucket, c.GCSPrefix)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using GCS storage", "bucket", c.GCSBucket, "prefix", c.GCSPrefix)
		return st, func() {
			if err := st.Close(); err != nil {
				logger.Warn("Failed to close GCS client", "error", err)
			}
		}, nil
	}

	st, err := storage.NewLocal(c.Root)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Using local storage", "root", c.Root)
	return st, func() {}, nil
}
