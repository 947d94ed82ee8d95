package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields. The ID is assigned client-side in
// BeforeCreate; a DB-side default would need gen_random_uuid, which the
// sqlite test databases cannot migrate. The postgres migration still
// carries the column default for rows inserted outside the application.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns the primary key when the caller did not
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Attachment represents an uploaded file stored in the blob container.
// StorageKey is the blob name inside the container; URL is the public blob
// URL the key can be recovered from.
type Attachment struct {
	BaseModel
	Filename    string         `gorm:"type:varchar(255);not null"`
	ContentType string         `gorm:"type:varchar(100);not null"`
	Size        int64          `gorm:"not null"`
	StorageKey  string         `gorm:"type:varchar(500);not null;unique;column:storage_key"`
	URL         string         `gorm:"type:varchar(1000);not null;column:url"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// AttachmentDTO is the API representation of an attachment
type AttachmentDTO struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	CreatedAt   string    `json:"createdAt"`
}

// ToDTO converts an Attachment to its API representation
func (a *Attachment) ToDTO() AttachmentDTO {
	return AttachmentDTO{
		ID:          a.ID,
		Filename:    a.Filename,
		ContentType: a.ContentType,
		Size:        a.Size,
		URL:         a.URL,
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToDTOs converts a slice of attachments
func ToDTOs(attachments []Attachment) []AttachmentDTO {
	dtos := make([]AttachmentDTO, len(attachments))
	for i := range attachments {
		dtos[i] = attachments[i].ToDTO()
	}
	return dtos
}

// DownloadLink is a signed, time-limited link to an attachment's content
type DownloadLink struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}
