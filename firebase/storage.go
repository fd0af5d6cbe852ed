package firebase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"syncboard/database"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
)

// StorageBlobStore guarda os anexos num bucket do Firebase Storage.
type StorageBlobStore struct {
	bucketName string
	bucket     *storage.BucketHandle
}

func NewStorageBlobStore(ctx context.Context, app *firebase.App, bucketName string) (*StorageBlobStore, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao obter cliente do Storage: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir bucket %s: %w", bucketName, err)
	}
	return &StorageBlobStore{bucketName: bucketName, bucket: bucket}, nil
}

func (s *StorageBlobStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	w := s.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("erro ao enviar anexo %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("erro ao finalizar anexo %s: %w", name, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, url.PathEscape(name)), nil
}

func (s *StorageBlobStore) Delete(ctx context.Context, name string) error {
	err := s.bucket.Object(name).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return database.ErrNotFound
	}
	return err
}
