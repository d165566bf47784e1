package history

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/interfaces"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// DefaultCollection is the Firestore collection used for run records
const DefaultCollection = "imgharvest_runs"

// Firestore stores run records as documents keyed by run ID
type Firestore struct {
	client     *firestore.Client
	collection string
}

var _ interfaces.HistoryRepository = (*Firestore)(nil)

type FirestoreOption func(*Firestore)

func WithCollection(name string) FirestoreOption {
	return func(f *Firestore) {
		if name != "" {
			f.collection = name
		}
	}
}

// NewFirestore connects to the given project and database ("" means the default database)
func NewFirestore(ctx context.Context, projectID, databaseID string, opts []FirestoreOption, clientOpts ...option.ClientOption) (*Firestore, error) {
	if projectID == "" {
		return nil, goerr.New("firestore project ID is empty")
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID), goerr.V("database_id", databaseID))
	}

	f := &Firestore{client: client, collection: DefaultCollection}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

func (f *Firestore) PutRun(ctx context.Context, record *model.RunRecord) error {
	if record.ID == "" {
		return goerr.New("run record has no ID")
	}
	if _, err := f.client.Collection(f.collection).Doc(record.ID).Set(ctx, record); err != nil {
		return goerr.Wrap(err, "failed to put run record",
			goerr.V("collection", f.collection), goerr.V("id", record.ID))
	}
	return nil
}

func (f *Firestore) ListRuns(ctx context.Context, limit int) ([]*model.RunRecord, error) {
	query := f.client.Collection(f.collection).OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var records []*model.RunRecord
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list run records", goerr.V("collection", f.collection))
		}

		var rec model.RunRecord
		if err := doc.DataTo(&rec); err != nil {
			return nil, goerr.Wrap(err, "failed to decode run record", goerr.V("doc_id", doc.Ref.ID))
		}
		records = append(records, &rec)
	}
	return records, nil
}
