package hooks_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/vestera-as/attachment-api/internal/domain"
	"github.com/vestera-as/attachment-api/internal/hooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistry_EmptyRegistry(t *testing.T) {
	reg := hooks.NewRegistry(zap.NewNop())

	assert.False(t, reg.HasUpload())
	assert.False(t, reg.HasDelete())

	_, err := reg.RunUpload(context.Background(), &domain.Attachment{}, strings.NewReader("data"))
	assert.ErrorIs(t, err, hooks.ErrNoUploadHook)

	err = reg.RunDelete(context.Background(), &domain.Attachment{})
	assert.ErrorIs(t, err, hooks.ErrNoDeleteHook)
}

func TestRegistry_RegisterAndRun(t *testing.T) {
	reg := hooks.NewRegistry(zap.NewNop())

	err := reg.RegisterUpload("test-adapter", func(ctx context.Context, att *domain.Attachment, data io.Reader) (string, error) {
		att.StorageKey = "abc.txt"
		att.Size = 4
		return "http://blobs/abc.txt", nil
	})
	require.NoError(t, err)
	assert.True(t, reg.HasUpload())

	deleted := false
	err = reg.RegisterDelete("test-adapter", func(ctx context.Context, att *domain.Attachment) error {
		deleted = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, reg.HasDelete())

	att := &domain.Attachment{Filename: "abc.txt"}
	url, err := reg.RunUpload(context.Background(), att, strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, "http://blobs/abc.txt", url)
	assert.Equal(t, "abc.txt", att.StorageKey)
	assert.Equal(t, int64(4), att.Size)

	err = reg.RunDelete(context.Background(), att)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestRegistry_DuplicateRegistrationRejected(t *testing.T) {
	reg := hooks.NewRegistry(zap.NewNop())

	noopUpload := func(ctx context.Context, att *domain.Attachment, data io.Reader) (string, error) {
		return "", nil
	}
	noopDelete := func(ctx context.Context, att *domain.Attachment) error {
		return nil
	}

	require.NoError(t, reg.RegisterUpload("first", noopUpload))
	err := reg.RegisterUpload("second", noopUpload)
	assert.ErrorIs(t, err, hooks.ErrHookExists)

	require.NoError(t, reg.RegisterDelete("first", noopDelete))
	err = reg.RegisterDelete("second", noopDelete)
	assert.ErrorIs(t, err, hooks.ErrHookExists)
}

func TestRegistry_Diagnostics(t *testing.T) {
	reg := hooks.NewRegistry(zap.NewNop())

	assert.Empty(t, reg.Diagnostics())

	reg.AddDiagnostic("azure-blob-storage", "connection string missing")

	diags := reg.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, "azure-blob-storage", diags[0].Component)
	assert.Equal(t, "connection string missing", diags[0].Message)
	assert.False(t, diags[0].At.IsZero())

	// Returned slice is a copy
	diags[0].Component = "mutated"
	assert.Equal(t, "azure-blob-storage", reg.Diagnostics()[0].Component)
}
