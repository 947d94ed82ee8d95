// Package hooks implements the callback registry the host CMS exposes to
// storage adapters. An adapter registers an upload callback (store bytes,
// return the public URL) and a delete callback (remove by record). Adapters
// that cannot operate register a diagnostic entry instead, which the host
// surfaces in its admin UI.
package hooks

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/vestera-as/attachment-api/internal/domain"
	"go.uber.org/zap"
)

var (
	// ErrNoUploadHook is returned when no adapter has registered an upload callback
	ErrNoUploadHook = errors.New("no upload hook registered")
	// ErrNoDeleteHook is returned when no adapter has registered a delete callback
	ErrNoDeleteHook = errors.New("no delete hook registered")
	// ErrHookExists is returned when a hook point already has a registration
	ErrHookExists = errors.New("hook already registered")
)

// UploadFunc stores the attachment content and returns its public URL.
// Implementations set StorageKey and Size on the attachment.
type UploadFunc func(ctx context.Context, att *domain.Attachment, data io.Reader) (string, error)

// DeleteFunc removes the stored content the attachment record points at
type DeleteFunc func(ctx context.Context, att *domain.Attachment) error

// Diagnostic records why an adapter could not register its hooks
type Diagnostic struct {
	Component string    `json:"component"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

// Registry holds the registered hook callbacks and adapter diagnostics
type Registry struct {
	mu          sync.RWMutex
	uploadName  string
	upload      UploadFunc
	deleteName  string
	delete      DeleteFunc
	diagnostics []Diagnostic
	logger      *zap.Logger
}

// NewRegistry creates an empty hook registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{logger: logger}
}

// RegisterUpload registers the upload callback under the adapter's name.
// Only one upload callback may be registered.
func (r *Registry) RegisterUpload(name string, fn UploadFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.upload != nil {
		return ErrHookExists
	}
	r.uploadName = name
	r.upload = fn

	r.logger.Info("upload hook registered", zap.String("adapter", name))
	return nil
}

// RegisterDelete registers the delete callback under the adapter's name.
// Only one delete callback may be registered.
func (r *Registry) RegisterDelete(name string, fn DeleteFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.delete != nil {
		return ErrHookExists
	}
	r.deleteName = name
	r.delete = fn

	r.logger.Info("delete hook registered", zap.String("adapter", name))
	return nil
}

// HasUpload reports whether an upload callback is registered
func (r *Registry) HasUpload() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.upload != nil
}

// HasDelete reports whether a delete callback is registered
func (r *Registry) HasDelete() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.delete != nil
}

// RunUpload invokes the registered upload callback and returns the stored
// content's public URL. Returns ErrNoUploadHook when nothing is registered.
func (r *Registry) RunUpload(ctx context.Context, att *domain.Attachment, data io.Reader) (string, error) {
	r.mu.RLock()
	fn := r.upload
	r.mu.RUnlock()

	if fn == nil {
		return "", ErrNoUploadHook
	}
	return fn(ctx, att, data)
}

// RunDelete invokes the registered delete callback.
// Returns ErrNoDeleteHook when nothing is registered.
func (r *Registry) RunDelete(ctx context.Context, att *domain.Attachment) error {
	r.mu.RLock()
	fn := r.delete
	r.mu.RUnlock()

	if fn == nil {
		return ErrNoDeleteHook
	}
	return fn(ctx, att)
}

// AddDiagnostic records an adapter problem in place of hook registration
func (r *Registry) AddDiagnostic(component, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.diagnostics = append(r.diagnostics, Diagnostic{
		Component: component,
		Message:   message,
		At:        time.Now().UTC(),
	})

	r.logger.Warn("adapter diagnostic registered",
		zap.String("component", component),
		zap.String("message", message),
	)
}

// Diagnostics returns a copy of the recorded diagnostics
func (r *Registry) Diagnostics() []Diagnostic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Diagnostic, len(r.diagnostics))
	copy(out, r.diagnostics)
	return out
}
