package database

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
)

// BlobStore guarda os bytes dos anexos. Delete retorna ErrNotFound para objetos ausentes.
type BlobStore interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, name string) error
}

type memoryBlob struct {
	contentType string
	data        []byte
}

// MemoryBlobStore mantém os anexos em memória e devolve URLs fictícias com BaseURL.
type MemoryBlobStore struct {
	BaseURL string

	mu    sync.Mutex
	blobs map[string]memoryBlob
}

func NewMemoryBlobStore(baseURL string) *MemoryBlobStore {
	return &MemoryBlobStore{BaseURL: baseURL, blobs: make(map[string]memoryBlob)}
}

func (s *MemoryBlobStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", fmt.Errorf("erro ao ler anexo: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[name] = memoryBlob{contentType: contentType, data: buf.Bytes()}
	return s.BaseURL + "/" + url.PathEscape(name), nil
}

func (s *MemoryBlobStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[name]; !ok {
		return ErrNotFound
	}
	delete(s.blobs, name)
	return nil
}

// Get retorna o conteúdo e o content-type de um anexo
func (s *MemoryBlobStore) Get(name string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[name]
	return b.data, b.contentType, ok
}
