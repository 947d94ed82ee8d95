package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AzureBlobStorage implements Storage interface for Azure Blob Storage
type AzureBlobStorage struct {
	client        *azblob.Client
	containerName string
	logger        *zap.Logger

	ensureOnce sync.Once
	ensureErr  error
}

// NewAzureBlobStorage creates a new Azure Blob Storage instance.
// The container is created on first use if it does not exist.
func NewAzureBlobStorage(connectionString, containerName string, logger *zap.Logger) (*AzureBlobStorage, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	logger.Info("Azure Blob Storage initialized",
		zap.String("container", containerName),
	)

	return &AzureBlobStorage{
		client:        client,
		containerName: containerName,
		logger:        logger,
	}, nil
}

// ensureContainer creates the container if it does not exist. The
// check-then-create is not atomic; a concurrent create from another
// instance surfaces as ContainerAlreadyExists and is tolerated.
func (s *AzureBlobStorage) ensureContainer(ctx context.Context) error {
	s.ensureOnce.Do(func() {
		_, err := s.client.CreateContainer(ctx, s.containerName, nil)
		if err != nil && !strings.Contains(err.Error(), "ContainerAlreadyExists") {
			s.ensureErr = fmt.Errorf("failed to create container: %w", err)
			return
		}
		s.logger.Info("Blob container ready", zap.String("container", s.containerName))
	})
	return s.ensureErr
}

// Upload uploads a file to Azure Blob Storage and returns its key and size
func (s *AzureBlobStorage) Upload(ctx context.Context, filename string, contentType string, data io.Reader) (string, int64, error) {
	if err := s.ensureContainer(ctx); err != nil {
		return "", 0, err
	}

	// Generate unique blob name with UUID and original extension
	fileID := uuid.New().String()
	ext := filepath.Ext(filename)
	blobName := fileID + ext

	// Upload the blob with content type
	uploadOptions := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	}

	// Wrap data in counting reader to track size
	reader := &countingReader{r: data}

	_, err := s.client.UploadStream(ctx, s.containerName, blobName, reader, uploadOptions)
	if err != nil {
		return "", 0, fmt.Errorf("failed to upload blob: %w", err)
	}

	s.logger.Info("Blob uploaded",
		zap.String("blobName", blobName),
		zap.String("container", s.containerName),
		zap.String("contentType", contentType),
		zap.String("originalFilename", filename),
		zap.Int64("size", reader.count),
	)

	return blobName, reader.count, nil
}

// countingReader wraps an io.Reader and counts the number of bytes read
type countingReader struct {
	r     io.Reader
	count int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.count += int64(n)
	return n, err
}

// Download downloads a blob from Azure Blob Storage
func (s *AzureBlobStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, s.containerName, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}

	return resp.Body, nil
}

// Delete deletes a blob from Azure Blob Storage
func (s *AzureBlobStorage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteBlob(ctx, s.containerName, key, nil)
	if err != nil {
		// Check if blob doesn't exist (already deleted)
		if strings.Contains(err.Error(), "BlobNotFound") {
			s.logger.Debug("Blob already deleted or not found",
				zap.String("blobName", key),
				zap.String("container", s.containerName),
			)
			return nil
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	s.logger.Info("Blob deleted",
		zap.String("blobName", key),
		zap.String("container", s.containerName),
	)

	return nil
}

// URL returns the public URL of a blob key
func (s *AzureBlobStorage) URL(key string) string {
	return strings.TrimSuffix(s.client.URL(), "/") + "/" + s.containerName + "/" + key
}

// KeyFromURL recovers the blob key from a blob URL by stripping everything
// up to and including the container segment. This breaks if the key itself
// contains "/<container>/" as an earlier substring of the URL, which cannot
// happen for keys generated by Upload.
func (s *AzureBlobStorage) KeyFromURL(url string) (string, error) {
	marker := "/" + s.containerName + "/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return "", fmt.Errorf("url %q does not reference container %q", url, s.containerName)
	}
	key := url[idx+len(marker):]
	if key == "" {
		return "", fmt.Errorf("url %q has no blob key component", url)
	}
	return key, nil
}
