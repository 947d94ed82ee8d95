package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vestera-as/attachment-api/internal/repository"
	"github.com/vestera-as/attachment-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// The attachment schema must migrate on sqlite, which rejects
// function-call column defaults in DDL; primary keys come from the
// model's BeforeCreate instead.
func TestAttachmentSchema_MigratesOnSqlite(t *testing.T) {
	db := testutil.SetupTestDB(t)

	att := testutil.CreateTestAttachment(t, db, "first.txt", "first-key")
	assert.NotEqual(t, uuid.Nil, att.ID, "BeforeCreate should assign the primary key")
}

func TestAttachmentRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAttachmentRepository(db)

	att := testutil.CreateTestAttachment(t, db, "invoice.pdf", "key-1.pdf")
	require.NotEqual(t, uuid.Nil, att.ID)

	got, err := repo.GetByID(context.Background(), att.ID)
	require.NoError(t, err)
	assert.Equal(t, "invoice.pdf", got.Filename)
	assert.Equal(t, "key-1.pdf", got.StorageKey)
}

func TestAttachmentRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAttachmentRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAttachmentRepository_ListAndCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAttachmentRepository(db)

	for i := 0; i < 5; i++ {
		testutil.CreateTestAttachment(t, db, fmt.Sprintf("file-%d.txt", i), fmt.Sprintf("key-%d.txt", i))
	}

	page, err := repo.List(context.Background(), 3, 0)
	require.NoError(t, err)
	assert.Len(t, page, 3)

	rest, err := repo.List(context.Background(), 3, 3)
	require.NoError(t, err)
	assert.Len(t, rest, 2)

	total, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func TestAttachmentRepository_SoftDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAttachmentRepository(db)

	att := testutil.CreateTestAttachment(t, db, "doomed.txt", "doomed-key")

	err := repo.Delete(context.Background(), att.ID)
	require.NoError(t, err)

	// Hidden from scoped queries
	_, err = repo.GetByID(context.Background(), att.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	total, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestAttachmentRepository_FindPurgeableAndHardDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAttachmentRepository(db)

	old := testutil.CreateTestAttachment(t, db, "old.txt", "old-key")
	recent := testutil.CreateTestAttachment(t, db, "recent.txt", "recent-key")

	require.NoError(t, repo.Delete(context.Background(), old.ID))
	require.NoError(t, repo.Delete(context.Background(), recent.ID))

	// Age one deletion past the cutoff
	aged := time.Now().UTC().Add(-72 * time.Hour)
	require.NoError(t, db.Unscoped().Model(old).Update("deleted_at", aged).Error)

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	purgeable, err := repo.FindPurgeable(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, purgeable, 1)
	assert.Equal(t, old.ID, purgeable[0].ID)

	err = repo.HardDelete(context.Background(), old.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Unscoped().Table("attachments").Where("id = ?", old.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
