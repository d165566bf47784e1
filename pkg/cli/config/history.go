package config

import (
	"context"

	"github.com/m-mizutani/imgharvest/pkg/domain/interfaces"
	"github.com/m-mizutani/imgharvest/pkg/infra/history"
	"github.com/m-mizutani/imgharvest/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// History holds run history configuration. Without a Firestore project the
// history is kept in memory.
type History struct {
	FirestoreProject    string
	FirestoreDatabase   string
	FirestoreCollection string
	MemoryCapacity      int
}

// Flags returns CLI flags for history configuration
func (c *History) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "Google Cloud project of the Firestore run history",
			Destination: &c.FirestoreProject,
			Sources:     cli.EnvVars("IMGHARVEST_FIRESTORE_PROJECT"),
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Usage:       "Firestore database ID",
			Destination: &c.FirestoreDatabase,
			Sources:     cli.EnvVars("IMGHARVEST_FIRESTORE_DATABASE"),
		},
		&cli.StringFlag{
			Name:        "firestore-collection",
			Usage:       "Firestore collection of run records",
			Value:       history.DefaultCollection,
			Destination: &c.FirestoreCollection,
			Sources:     cli.EnvVars("IMGHARVEST_FIRESTORE_COLLECTION"),
		},
		&cli.IntFlag{
			Name:        "history-size",
			Usage:       "Number of runs kept by the in-memory history",
			Value:       history.DefaultMemoryCapacity,
			Destination: &c.MemoryCapacity,
			Sources:     cli.EnvVars("IMGHARVEST_HISTORY_SIZE"),
		},
	}
}

// New builds the history repository. The returned function releases it.
func (c *History) New(ctx context.Context) (interfaces.HistoryRepository, func(), error) {
	if c.FirestoreProject == "" {
		return history.NewMemory(c.MemoryCapacity), func() {}, nil
	}

	repo, err := history.NewFirestore(ctx, c.FirestoreProject, c.FirestoreDatabase,
		[]history.FirestoreOption{history.WithCollection(c.FirestoreCollection)})
	if err != nil {
		return nil, nil, err
	}

	logger := logging.From(ctx)
	logger.Info("Using Firestore run history",
		"project", c.FirestoreProject, "collection", c.FirestoreCollection)
	return repo, func() {
		if err := repo.Close(); err != nil {
			logger.Warn("Failed to close Firestore client", "error", err)
		}
	}, nil
}
