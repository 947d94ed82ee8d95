package testutil

import (
	"testing"

	"github.com/vestera-as/attachment-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory sqlite database with the attachment
// schema migrated. Each call returns a fresh isolated database.
func SetupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open test database")

	err = db.AutoMigrate(&domain.Attachment{})
	require.NoError(t, err, "Failed to migrate test schema")

	return db
}

// CreateTestAttachment inserts an attachment row and returns it
func CreateTestAttachment(t *testing.T, db *gorm.DB, filename, storageKey string) *domain.Attachment {
	att := &domain.Attachment{
		Filename:    filename,
		ContentType: "application/octet-stream",
		Size:        42,
		StorageKey:  storageKey,
		URL:         "http://localhost:8080/blobs/" + storageKey,
	}
	err := db.Create(att).Error
	require.NoError(t, err)
	return att
}
