package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"syncboard/database"
	"syncboard/models"
	"syncboard/utilities"
)

// AttachmentService grava e remove os bytes dos anexos; a lista de anexos da
// tarefa é atualizada pelo cliente via Update.
type AttachmentService struct {
	blobs database.BlobStore
}

func NewAttachmentService(blobs database.BlobStore) *AttachmentService {
	return &AttachmentService{blobs: blobs}
}

// Upload grava o arquivo com o nome "<uuid>-<arquivo>" e devolve a referência do anexo.
func (s *AttachmentService) Upload(ctx context.Context, filename, contentType string, r io.Reader) (*models.Attachment, error) {
	if s.blobs == nil {
		return nil, newError(ErrUnavailable, "Armazenamento de anexos não configurado.")
	}
	filename = path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if filename == "." || filename == "/" || filename == "" {
		return nil, newError(ErrValidation, "Nenhum arquivo enviado.")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	blobName := newID() + "-" + filename
	url, err := s.blobs.Upload(ctx, blobName, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("erro ao enviar anexo %s: %w", blobName, err)
	}
	utilities.LogInfo("Anexo %s enviado (%s)", blobName, contentType)
	return &models.Attachment{URL: url, Name: blobName, ContentType: contentType}, nil
}

// Delete remove o blob; blob inexistente conta como removido.
func (s *AttachmentService) Delete(ctx context.Context, blobName string) error {
	if s.blobs == nil {
		return newError(ErrUnavailable, "Armazenamento de anexos não configurado.")
	}
	if strings.TrimSpace(blobName) == "" {
		return newError(ErrValidation, "Nome do blob não fornecido.")
	}
	err := s.blobs.Delete(ctx, blobName)
	if errors.Is(err, database.ErrNotFound) {
		utilities.LogDebug("Anexo %s já não existia", blobName)
		return nil
	}
	if err != nil {
		return fmt.Errorf("erro ao eliminar o anexo %s: %w", blobName, err)
	}
	return nil
}
