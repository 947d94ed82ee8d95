// Package provider wires a blob storage backend into the host's hook
// registry. When the required configuration is missing, a diagnostic entry
// is registered instead of the operational hooks and the host keeps running
// with uploads disabled.
package provider

import (
	"context"
	"fmt"
	"io"

	"github.com/vestera-as/attachment-api/internal/config"
	"github.com/vestera-as/attachment-api/internal/domain"
	"github.com/vestera-as/attachment-api/internal/hooks"
	"github.com/vestera-as/attachment-api/internal/storage"
	"go.uber.org/zap"
)

// Name is the adapter name used for hook registration and diagnostics
const Name = "azure-blob-storage"

// Register resolves storage configuration and registers the upload and
// delete hooks on the registry. For azure mode, both the connection string
// and the container name must be present; otherwise a diagnostic is
// recorded and no hooks are registered.
func Register(reg *hooks.Registry, cfg *config.StorageConfig, logger *zap.Logger) (storage.Storage, error) {
	if cfg.Mode == "cloud" || cfg.Mode == "azure" {
		if cfg.ConnectionString == "" || cfg.Container == "" {
			reg.AddDiagnostic(Name,
				"AZURE_STORAGE_CONNECTION_STRING and AZURE_STORAGE_CONTAINER must both be set; uploads are disabled")
			return nil, nil
		}
	}

	st, err := storage.NewStorage(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return st, RegisterWithStorage(reg, st, logger)
}

// RegisterWithStorage registers hooks backed by an already-constructed
// storage backend. Split out so tests can inject a backend directly.
func RegisterWithStorage(reg *hooks.Registry, st storage.Storage, logger *zap.Logger) error {
	uploadHook := func(ctx context.Context, att *domain.Attachment, data io.Reader) (string, error) {
		key, size, err := st.Upload(ctx, att.Filename, att.ContentType, data)
		if err != nil {
			return "", fmt.Errorf("upload hook: %w", err)
		}
		att.StorageKey = key
		att.Size = size
		return st.URL(key), nil
	}

	deleteHook := func(ctx context.Context, att *domain.Attachment) error {
		key := att.StorageKey
		if key == "" {
			// Records created by other hosts carry only the URL; recover
			// the key from it.
			var err error
			key, err = st.KeyFromURL(att.URL)
			if err != nil {
				return fmt.Errorf("delete hook: %w", err)
			}
		}
		if err := st.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete hook: %w", err)
		}
		return nil
	}

	if err := reg.RegisterUpload(Name, uploadHook); err != nil {
		return fmt.Errorf("failed to register upload hook: %w", err)
	}
	if err := reg.RegisterDelete(Name, deleteHook); err != nil {
		return fmt.Errorf("failed to register delete hook: %w", err)
	}

	logger.Info("storage adapter registered", zap.String("adapter", Name))
	return nil
}
