package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/vestera-as/attachment-api/internal/domain"
	"github.com/vestera-as/attachment-api/internal/hooks"
	"github.com/vestera-as/attachment-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AttachmentRepository is the catalog persistence the service needs
type AttachmentRepository interface {
	Create(ctx context.Context, att *domain.Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error)
	List(ctx context.Context, limit, offset int) ([]domain.Attachment, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindPurgeable(ctx context.Context, cutoff time.Time) ([]domain.Attachment, error)
	HardDelete(ctx context.Context, id uuid.UUID) error
}

// AttachmentService handles attachment uploads, downloads, and deletion.
// Content writes and deletes go through the host hook registry so the
// registered storage adapter owns all blob traffic; downloads read the
// backend directly by stored key.
type AttachmentService struct {
	repo    AttachmentRepository
	hooks   *hooks.Registry
	storage storage.Storage
	logger  *zap.Logger
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(repo AttachmentRepository, registry *hooks.Registry, st storage.Storage, logger *zap.Logger) *AttachmentService {
	return &AttachmentService{
		repo:    repo,
		hooks:   registry,
		storage: st,
		logger:  logger,
	}
}

// Upload stores the content through the upload hook and persists the
// catalog record. When the record insert fails the stored blob is removed
// again (best effort).
func (s *AttachmentService) Upload(ctx context.Context, filename, contentType string, data io.Reader) (*domain.AttachmentDTO, error) {
	if !s.hooks.HasUpload() {
		return nil, ErrUploadsDisabled
	}

	att := &domain.Attachment{
		Filename:    filename,
		ContentType: contentType,
	}

	url, err := s.hooks.RunUpload(ctx, att, data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload attachment: %w", err)
	}
	att.URL = url

	if err := s.repo.Create(ctx, att); err != nil {
		// Try to delete the stored content (best effort cleanup)
		if delErr := s.hooks.RunDelete(ctx, att); delErr != nil {
			s.logger.Warn("failed to cleanup blob after DB error",
				zap.Error(delErr),
				zap.String("storageKey", att.StorageKey),
			)
		}
		return nil, fmt.Errorf("failed to create attachment record: %w", err)
	}

	s.logger.Info("attachment uploaded",
		zap.String("attachmentID", att.ID.String()),
		zap.String("filename", filename),
		zap.Int64("size", att.Size),
	)

	dto := att.ToDTO()
	return &dto, nil
}

// GetByID retrieves an attachment by its ID
func (s *AttachmentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.AttachmentDTO, error) {
	att, err := s.getAttachment(ctx, id)
	if err != nil {
		return nil, err
	}

	dto := att.ToDTO()
	return &dto, nil
}

// List returns a page of attachments plus the total count
func (s *AttachmentService) List(ctx context.Context, limit, offset int) ([]domain.AttachmentDTO, int64, error) {
	attachments, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attachments: %w", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count attachments: %w", err)
	}

	return domain.ToDTOs(attachments), total, nil
}

// Download retrieves an attachment's content for streaming
// Returns: reader, filename, content-type, error
func (s *AttachmentService) Download(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, string, error) {
	if s.storage == nil {
		return nil, "", "", ErrStorageUnavailable
	}

	att, err := s.getAttachment(ctx, id)
	if err != nil {
		return nil, "", "", err
	}

	reader, err := s.storage.Download(ctx, att.StorageKey)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to download attachment: %w", err)
	}

	return reader, att.Filename, att.ContentType, nil
}

// Delete removes the stored content via the delete hook and soft-deletes
// the catalog record. A failing content delete is logged and the record is
// still removed; the purge job retries orphaned blobs later.
func (s *AttachmentService) Delete(ctx context.Context, id uuid.UUID) error {
	att, err := s.getAttachment(ctx, id)
	if err != nil {
		return err
	}

	if err := s.hooks.RunDelete(ctx, att); err != nil {
		s.logger.Warn("failed to delete attachment content",
			zap.Error(err),
			zap.String("storageKey", att.StorageKey),
			zap.String("attachmentID", id.String()),
		)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete attachment record: %w", err)
	}

	s.logger.Info("attachment deleted",
		zap.String("attachmentID", id.String()),
		zap.String("filename", att.Filename),
	)

	return nil
}

// PurgeDeleted permanently removes soft-deleted attachments older than the
// retention window, deleting their blobs first. Returns counts of purged
// and failed attachments.
func (s *AttachmentService) PurgeDeleted(ctx context.Context, retention time.Duration) (purged int, failed int, err error) {
	cutoff := time.Now().UTC().Add(-retention)

	attachments, err := s.repo.FindPurgeable(ctx, cutoff)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to find purgeable attachments: %w", err)
	}

	for i := range attachments {
		att := &attachments[i]

		if err := s.hooks.RunDelete(ctx, att); err != nil {
			s.logger.Warn("purge: failed to delete blob, skipping record",
				zap.Error(err),
				zap.String("attachmentID", att.ID.String()),
				zap.String("storageKey", att.StorageKey),
			)
			failed++
			continue
		}

		if err := s.repo.HardDelete(ctx, att.ID); err != nil {
			s.logger.Warn("purge: failed to remove record",
				zap.Error(err),
				zap.String("attachmentID", att.ID.String()),
			)
			failed++
			continue
		}
		purged++
	}

	if purged > 0 || failed > 0 {
		s.logger.Info("purge completed",
			zap.Int("purged", purged),
			zap.Int("failed", failed),
		)
	}

	return purged, failed, nil
}

func (s *AttachmentService) getAttachment(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	att, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return att, nil
}
