package storage_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/vestera-as/attachment-api/internal/config"
	"github.com/vestera-as/attachment-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Both backends must satisfy the interface
var (
	_ storage.Storage = (*storage.LocalStorage)(nil)
	_ storage.Storage = (*storage.AzureBlobStorage)(nil)
)

func setupLocalStorage(t *testing.T) *storage.LocalStorage {
	st, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/blobs")
	require.NoError(t, err)
	return st
}

func TestLocalStorage_UploadAndDownload(t *testing.T) {
	st := setupLocalStorage(t)
	content := []byte("hello attachment")

	key, size, err := st.Upload(context.Background(), "report.pdf", "application/pdf", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), size)
	assert.True(t, strings.HasSuffix(key, ".pdf"), "key should keep the original extension")

	reader, err := st.Download(context.Background(), key)
	require.NoError(t, err)
	defer reader.Close()

	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLocalStorage_UploadGeneratesUniqueKeys(t *testing.T) {
	st := setupLocalStorage(t)

	key1, _, err := st.Upload(context.Background(), "same.txt", "text/plain", strings.NewReader("one"))
	require.NoError(t, err)
	key2, _, err := st.Upload(context.Background(), "same.txt", "text/plain", strings.NewReader("two"))
	require.NoError(t, err)

	assert.NotEqual(t, key1, key2)
}

func TestLocalStorage_Delete(t *testing.T) {
	st := setupLocalStorage(t)

	key, _, err := st.Upload(context.Background(), "temp.txt", "text/plain", strings.NewReader("data"))
	require.NoError(t, err)

	err = st.Delete(context.Background(), key)
	assert.NoError(t, err)

	_, err = st.Download(context.Background(), key)
	assert.Error(t, err)
}

func TestLocalStorage_DeleteMissingIsIdempotent(t *testing.T) {
	st := setupLocalStorage(t)

	err := st.Delete(context.Background(), "does-not-exist.bin")
	assert.NoError(t, err)
}

func TestLocalStorage_URLRoundTrip(t *testing.T) {
	st := setupLocalStorage(t)

	key, _, err := st.Upload(context.Background(), "photo.jpg", "image/jpeg", strings.NewReader("jpeg bytes"))
	require.NoError(t, err)

	url := st.URL(key)
	assert.Equal(t, "http://localhost:8080/blobs/"+key, url)

	recovered, err := st.KeyFromURL(url)
	require.NoError(t, err)
	assert.Equal(t, key, recovered)
}

func TestLocalStorage_KeyFromURL_Errors(t *testing.T) {
	st := setupLocalStorage(t)

	tests := []struct {
		name string
		url  string
	}{
		{"foreign host", "http://other-host/blobs/abc.txt"},
		{"missing key", "http://localhost:8080/blobs/"},
		{"empty url", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := st.KeyFromURL(tt.url)
			assert.Error(t, err)
		})
	}
}

// Azurite's well-known development connection string; client construction
// is offline so no storage emulator is needed for these tests.
const devConnectionString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPFmmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func TestAzureBlobStorage_URLRoundTrip(t *testing.T) {
	st, err := storage.NewAzureBlobStorage(devConnectionString, "attachments", zap.NewNop())
	require.NoError(t, err)

	url := st.URL("0f8fad5b-d9cb-469f-a165-70867728950e.pdf")
	assert.Contains(t, url, "/attachments/0f8fad5b-d9cb-469f-a165-70867728950e.pdf")

	key, err := st.KeyFromURL(url)
	require.NoError(t, err)
	assert.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e.pdf", key)
}

func TestAzureBlobStorage_KeyFromURL_Errors(t *testing.T) {
	st, err := storage.NewAzureBlobStorage(devConnectionString, "attachments", zap.NewNop())
	require.NoError(t, err)

	tests := []struct {
		name string
		url  string
	}{
		{"wrong container", "http://127.0.0.1:10000/devstoreaccount1/other/blob.txt"},
		{"no container segment", "http://127.0.0.1:10000/devstoreaccount1"},
		{"empty key", "http://127.0.0.1:10000/devstoreaccount1/attachments/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := st.KeyFromURL(tt.url)
			assert.Error(t, err)
		})
	}
}

func TestNewStorage_ModeValidation(t *testing.T) {
	log := zap.NewNop()

	t.Run("local mode", func(t *testing.T) {
		st, err := storage.NewStorage(&config.StorageConfig{
			Mode:          "local",
			LocalBasePath: t.TempDir(),
			PublicBaseURL: "http://localhost:8080/blobs",
		}, log)
		require.NoError(t, err)
		assert.NotNil(t, st)
	})

	t.Run("azure mode requires connection string", func(t *testing.T) {
		_, err := storage.NewStorage(&config.StorageConfig{
			Mode:      "azure",
			Container: "attachments",
		}, log)
		assert.Error(t, err)
	})

	t.Run("azure mode requires container", func(t *testing.T) {
		_, err := storage.NewStorage(&config.StorageConfig{
			Mode:             "azure",
			ConnectionString: devConnectionString,
		}, log)
		assert.Error(t, err)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := storage.NewStorage(&config.StorageConfig{Mode: "ftp"}, log)
		assert.Error(t, err)
	})
}
