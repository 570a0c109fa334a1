package adapter

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/rfpstudio/rfpflow/pkg/model"
)

// DocumentKind identifies which artifact slot of an RFP a stored file
// belongs to.
type DocumentKind string

const (
	DocumentOriginal DocumentKind = "original"
	DocumentDraft    DocumentKind = "draft"
	DocumentFinal    DocumentKind = "final"
)

// Validate checks if the document kind is valid
func (k DocumentKind) Validate() error {
	switch k {
	case DocumentOriginal, DocumentDraft, DocumentFinal:
		return nil
	default:
		return goerr.New("invalid document kind", goerr.V("kind", string(k)))
	}
}

// DocumentStore persists RFP document artifacts (original upload,
// working draft, final deliverable) and returns a stable URL for the
// record's documents field.
type DocumentStore interface {
	// Upload stores the content for the RFP's artifact slot and returns its URL
	Upload(ctx context.Context, rfpID model.RFPID, kind DocumentKind, name string, content io.Reader) (string, error)
	// Open reads a previously stored artifact back
	Open(ctx context.Context, rfpID model.RFPID, kind DocumentKind, name string) (io.ReadCloser, error)
}

// gcsStore implements DocumentStore on a Cloud Storage bucket, one
// object per artifact under rfps/<id>/<kind>/<name>.
type gcsStore struct {
	bucketName string
	client     *storage.Client
}

// NewDocumentStore creates a Cloud Storage backed DocumentStore
func NewDocumentStore(ctx context.Context, bucketName string) (DocumentStore, error) {
	if bucketName == "" {
		return nil, goerr.New("bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &gcsStore{
		bucketName: bucketName,
		client:     client,
	}, nil
}

func (s *gcsStore) objectKey(rfpID model.RFPID, kind DocumentKind, name string) string {
	return fmt.Sprintf("rfps/%s/%s/%s", rfpID, kind, name)
}

func (s *gcsStore) Upload(ctx context.Context, rfpID model.RFPID, kind DocumentKind, name string, content io.Reader) (string, error) {
	if err := kind.Validate(); err != nil {
		return "", err
	}

	key := s.objectKey(rfpID, kind, name)
	w := s.client.Bucket(s.bucketName).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, content); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write document", goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize document", goerr.V("key", key))
	}

	return fmt.Sprintf("gs://%s/%s", s.bucketName, key), nil
}

func (s *gcsStore) Open(ctx context.Context, rfpID model.RFPID, kind DocumentKind, name string) (io.ReadCloser, error) {
	key := s.objectKey(rfpID, kind, name)
	r, err := s.client.Bucket(s.bucketName).Object(key).NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open document", goerr.V("key", key))
	}
	return r, nil
}
