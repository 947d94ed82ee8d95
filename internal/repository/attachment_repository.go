package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vestera-as/attachment-api/internal/domain"
	"gorm.io/gorm"
)

type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(ctx context.Context, att *domain.Attachment) error {
	return r.db.WithContext(ctx).Create(att).Error
}

func (r *AttachmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	var att domain.Attachment
	err := r.db.WithContext(ctx).First(&att, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &att, nil
}

// List returns attachments ordered by creation time, newest first
func (r *AttachmentRepository) List(ctx context.Context, limit, offset int) ([]domain.Attachment, error) {
	var attachments []domain.Attachment
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&attachments).Error
	return attachments, err
}

func (r *AttachmentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Attachment{}).
		Count(&count).Error
	return count, err
}

// Delete soft-deletes an attachment record
func (r *AttachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Attachment{}, "id = ?", id).Error
}

// FindPurgeable returns soft-deleted attachments older than the cutoff
func (r *AttachmentRepository) FindPurgeable(ctx context.Context, cutoff time.Time) ([]domain.Attachment, error) {
	var attachments []domain.Attachment
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Find(&attachments).Error
	return attachments, err
}

// HardDelete permanently removes an attachment record
func (r *AttachmentRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Delete(&domain.Attachment{}, "id = ?", id).Error
}
