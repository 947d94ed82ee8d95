package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vestera-as/attachment-api/internal/domain"
	"github.com/vestera-as/attachment-api/internal/hooks"
	"github.com/vestera-as/attachment-api/internal/provider"
	"github.com/vestera-as/attachment-api/internal/repository"
	"github.com/vestera-as/attachment-api/internal/service"
	"github.com/vestera-as/attachment-api/internal/storage"
	"github.com/vestera-as/attachment-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type serviceFixture struct {
	svc     *service.AttachmentService
	storage storage.Storage
	db      *gorm.DB
}

func setupService(t *testing.T) *serviceFixture {
	db := testutil.SetupTestDB(t)

	st, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/blobs")
	require.NoError(t, err)

	reg := hooks.NewRegistry(zap.NewNop())
	require.NoError(t, provider.RegisterWithStorage(reg, st, zap.NewNop()))

	repo := repository.NewAttachmentRepository(db)
	svc := service.NewAttachmentService(repo, reg, st, zap.NewNop())

	return &serviceFixture{svc: svc, storage: st, db: db}
}

// setupServiceWithoutAdapter builds a service whose registry has no hooks,
// as when storage configuration is missing
func setupServiceWithoutAdapter(t *testing.T) *service.AttachmentService {
	db := testutil.SetupTestDB(t)
	reg := hooks.NewRegistry(zap.NewNop())
	repo := repository.NewAttachmentRepository(db)
	return service.NewAttachmentService(repo, reg, nil, zap.NewNop())
}

func TestAttachmentService_Upload(t *testing.T) {
	f := setupService(t)

	dto, err := f.svc.Upload(context.Background(), "report.pdf", "application/pdf", strings.NewReader("pdf content"))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, dto.ID)
	assert.Equal(t, "report.pdf", dto.Filename)
	assert.Equal(t, "application/pdf", dto.ContentType)
	assert.Equal(t, int64(len("pdf content")), dto.Size)
	assert.NotEmpty(t, dto.URL)

	// Record persisted with the storage key
	var att domain.Attachment
	require.NoError(t, f.db.First(&att, "id = ?", dto.ID).Error)
	assert.NotEmpty(t, att.StorageKey)
	assert.Equal(t, dto.URL, att.URL)
}

func TestAttachmentService_Upload_DisabledWithoutAdapter(t *testing.T) {
	svc := setupServiceWithoutAdapter(t)

	_, err := svc.Upload(context.Background(), "report.pdf", "application/pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, service.ErrUploadsDisabled)
}

func TestAttachmentService_Download_UnavailableWithoutAdapter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	reg := hooks.NewRegistry(zap.NewNop())
	repo := repository.NewAttachmentRepository(db)
	svc := service.NewAttachmentService(repo, reg, nil, zap.NewNop())

	// A record from before the adapter was deconfigured still exists;
	// downloading it must fail cleanly, not crash
	att := testutil.CreateTestAttachment(t, db, "orphaned.txt", "orphan-key")

	_, _, _, err := svc.Download(context.Background(), att.ID)
	assert.ErrorIs(t, err, service.ErrStorageUnavailable)
}

func TestAttachmentService_GetByID(t *testing.T) {
	f := setupService(t)

	dto, err := f.svc.Upload(context.Background(), "a.txt", "text/plain", strings.NewReader("a"))
	require.NoError(t, err)

	got, err := f.svc.GetByID(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.ID, got.ID)
	assert.Equal(t, "a.txt", got.Filename)
}

func TestAttachmentService_GetByID_NotFound(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestAttachmentService_List(t *testing.T) {
	f := setupService(t)

	for _, name := range []string{"one.txt", "two.txt", "three.txt"} {
		_, err := f.svc.Upload(context.Background(), name, "text/plain", strings.NewReader(name))
		require.NoError(t, err)
	}

	dtos, total, err := f.svc.List(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, dtos, 2)

	rest, _, err := f.svc.List(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestAttachmentService_Download(t *testing.T) {
	f := setupService(t)

	dto, err := f.svc.Upload(context.Background(), "data.bin", "application/octet-stream", strings.NewReader("binary"))
	require.NoError(t, err)

	reader, filename, contentType, err := f.svc.Download(context.Background(), dto.ID)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "data.bin", filename)
	assert.Equal(t, "application/octet-stream", contentType)
}

func TestAttachmentService_Delete(t *testing.T) {
	f := setupService(t)

	dto, err := f.svc.Upload(context.Background(), "doomed.txt", "text/plain", strings.NewReader("doomed"))
	require.NoError(t, err)

	var att domain.Attachment
	require.NoError(t, f.db.First(&att, "id = ?", dto.ID).Error)

	err = f.svc.Delete(context.Background(), dto.ID)
	require.NoError(t, err)

	// Blob is gone
	_, err = f.storage.Download(context.Background(), att.StorageKey)
	assert.Error(t, err)

	// Record soft-deleted, no longer visible
	_, err = f.svc.GetByID(context.Background(), dto.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	// But still present unscoped for the purge job
	var count int64
	require.NoError(t, f.db.Unscoped().Model(&domain.Attachment{}).Where("id = ?", dto.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAttachmentService_Delete_NotFound(t *testing.T) {
	f := setupService(t)

	err := f.svc.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestAttachmentService_PurgeDeleted(t *testing.T) {
	f := setupService(t)

	dto, err := f.svc.Upload(context.Background(), "old.txt", "text/plain", strings.NewReader("old"))
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(context.Background(), dto.ID))

	// Recent deletion stays within the retention window
	purged, failed, err := f.svc.PurgeDeleted(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, purged)
	assert.Equal(t, 0, failed)

	// Age the deletion past the window
	cutoff := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, f.db.Unscoped().Model(&domain.Attachment{}).
		Where("id = ?", dto.ID).
		Update("deleted_at", cutoff).Error)

	purged, failed, err = f.svc.PurgeDeleted(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)
	assert.Equal(t, 0, failed)

	var count int64
	require.NoError(t, f.db.Unscoped().Model(&domain.Attachment{}).Where("id = ?", dto.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
