package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/interfaces"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/m-mizutani/imgharvest/pkg/utils/logging"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCS stores images as objects in a Google Cloud Storage bucket under a prefix
type GCS struct {
	client *gcs.Client
	bucket string
	prefix string
}

var _ interfaces.ImageStorage = (*GCS)(nil)

// NewGCS creates a GCS storage. Credentials come from the environment (ADC)
// unless opts say otherwise.
func NewGCS(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("bucket name is empty", goerr.T(model.ErrTagStorage))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GCS client", goerr.T(model.ErrTagStorage))
	}

	return &GCS{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

// Close releases the underlying client
func (s *GCS) Close() error {
	return s.client.Close()
}

func (s *GCS) objectName(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", goerr.New("invalid object key", goerr.T(model.ErrTagStorage), goerr.V("key", key))
		}
	}
	return path.Join(s.prefix, key), nil
}

// EnsureFolder is a no-op: object storage has no folders
func (s *GCS) EnsureFolder(ctx context.Context, folder string) error {
	_, err := s.objectName(folder)
	return err
}

// Put uploads data as folder/name and returns its gs:// URL
func (s *GCS) Put(ctx context.Context, folder, name string, data []byte) (string, error) {
	objName, err := s.objectName(path.Join(folder, name))
	if err != nil {
		return "", err
	}

	w := s.client.Bucket(s.bucket).Object(objName).NewWriter(ctx)
	w.ContentType = http.DetectContentType(data)

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to upload object", goerr.V("object", objName))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize object", goerr.V("object", objName))
	}

	return "gs://" + s.bucket + "/" + objName, nil
}

// Open returns a reader for the object stored under key
func (s *GCS) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	objName, err := s.objectName(key)
	if err != nil {
		return nil, err
	}
	r, err := s.client.Bucket(s.bucket).Object(objName).NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open object", goerr.V("object", objName))
	}
	return r, nil
}

// Clear deletes every object under the prefix
func (s *GCS) Clear(ctx context.Context) error {
	logger := logging.From(ctx)

	query := &gcs.Query{}
	if s.prefix != "" {
		query.Prefix = s.prefix + "/"
	}

	bucket := s.client.Bucket(s.bucket)
	it := bucket.Objects(ctx, query)
	removed := 0
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to list objects",
				goerr.T(model.ErrTagStorage), goerr.V("bucket", s.bucket))
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
			return goerr.Wrap(err, "failed to delete object",
				goerr.T(model.ErrTagStorage), goerr.V("object", attrs.Name))
		}
		removed++
	}

	logger.Info("Cleared bucket prefix", "bucket", s.bucket, "prefix", s.prefix, "removed", removed)
	return nil
}
