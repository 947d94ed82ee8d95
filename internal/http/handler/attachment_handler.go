package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vestera-as/attachment-api/internal/auth"
	"github.com/vestera-as/attachment-api/internal/domain"
	"github.com/vestera-as/attachment-api/internal/service"
	"go.uber.org/zap"
)

type AttachmentHandler struct {
	attachmentService *service.AttachmentService
	tokens            *auth.TokenIssuer
	maxUploadMB       int64
	logger            *zap.Logger
}

func NewAttachmentHandler(attachmentService *service.AttachmentService, tokens *auth.TokenIssuer, maxUploadMB int64, logger *zap.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
		tokens:            tokens,
		maxUploadMB:       maxUploadMB,
		logger:            logger,
	}
}

// listQuery holds validated pagination parameters
type listQuery struct {
	Limit  int `validate:"gte=1,lte=200"`
	Offset int `validate:"gte=0"`
}

// @Summary Upload attachment
// @Tags Attachments
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Success 201 {object} domain.AttachmentDTO
// @Failure 413 {object} domain.APIError
// @Failure 503 {object} domain.APIError
// @Router /attachments [post]
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Limit request size
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(h.maxUploadMB * 1024 * 1024); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	dto, err := h.attachmentService.Upload(r.Context(), header.Filename, contentType, file)
	if err != nil {
		if errors.Is(err, service.ErrUploadsDisabled) {
			respondWithError(w, http.StatusServiceUnavailable, "Uploads are disabled: storage adapter is not configured")
			return
		}
		h.logger.Error("failed to upload attachment", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to upload attachment")
		return
	}

	respondJSON(w, http.StatusCreated, dto)
}

// @Summary List attachments
// @Tags Attachments
// @Produce json
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Page offset"
// @Success 200 {array} domain.AttachmentDTO
// @Router /attachments [get]
func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := listQuery{Limit: 50, Offset: 0}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid limit: must be an integer")
			return
		}
		q.Limit = n
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid offset: must be an integer")
			return
		}
		q.Offset = n
	}

	if err := validate.Struct(q); err != nil {
		respondValidationError(w, err)
		return
	}

	dtos, total, err := h.attachmentService.List(r.Context(), q.Limit, q.Offset)
	if err != nil {
		h.logger.Error("failed to list attachments", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list attachments")
		return
	}

	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	respondJSON(w, http.StatusOK, dtos)
}

// @Summary Get attachment metadata
// @Tags Attachments
// @Produce json
// @Param id path string true "Attachment ID"
// @Success 200 {object} domain.AttachmentDTO
// @Failure 404 {object} domain.APIError
// @Router /attachments/{id} [get]
func (h *AttachmentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid attachment ID: must be a valid UUID")
		return
	}

	dto, err := h.attachmentService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Attachment not found")
			return
		}
		h.logger.Error("failed to get attachment", zap.Error(err), zap.String("attachment_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to get attachment")
		return
	}

	respondJSON(w, http.StatusOK, dto)
}

// @Summary Download attachment content
// @Tags Attachments
// @Produce application/octet-stream
// @Param id path string true "Attachment ID"
// @Param token query string false "Signed download token"
// @Success 200
// @Failure 401 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 503 {object} domain.APIError
// @Router /attachments/{id}/download [get]
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid attachment ID: must be a valid UUID")
		return
	}

	if h.tokens.Enabled() {
		token := r.URL.Query().Get("token")
		if token == "" {
			respondWithError(w, http.StatusUnauthorized, "Download token required")
			return
		}
		if err := h.tokens.Validate(token, id); err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				respondWithError(w, http.StatusUnauthorized, "Download token has expired")
				return
			}
			respondWithError(w, http.StatusUnauthorized, "Invalid download token")
			return
		}
	}

	reader, filename, contentType, err := h.attachmentService.Download(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Attachment not found")
			return
		}
		if errors.Is(err, service.ErrStorageUnavailable) {
			respondWithError(w, http.StatusServiceUnavailable, "Downloads are disabled: storage adapter is not configured")
			return
		}
		h.logger.Error("failed to download attachment", zap.Error(err), zap.String("attachment_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to download attachment")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.Header().Set("Content-Type", contentType)

	_, _ = io.Copy(w, reader)
}

// @Summary Create signed download link
// @Tags Attachments
// @Produce json
// @Param id path string true "Attachment ID"
// @Success 200 {object} domain.DownloadLink
// @Failure 404 {object} domain.APIError
// @Router /attachments/{id}/link [post]
func (h *AttachmentHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid attachment ID: must be a valid UUID")
		return
	}

	if !h.tokens.Enabled() {
		respondWithError(w, http.StatusConflict, "Signed links are not configured")
		return
	}

	// Verify the attachment exists before issuing a token for it
	if _, err := h.attachmentService.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Attachment not found")
			return
		}
		h.logger.Error("failed to get attachment", zap.Error(err), zap.String("attachment_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to get attachment")
		return
	}

	token, expiresAt, err := h.tokens.Issue(id)
	if err != nil {
		h.logger.Error("failed to issue download token", zap.Error(err), zap.String("attachment_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to create download link")
		return
	}

	link := domain.DownloadLink{
		URL:       fmt.Sprintf("/api/v1/attachments/%s/download?token=%s", id, token),
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}

	respondJSON(w, http.StatusOK, link)
}

// @Summary Delete attachment
// @Tags Attachments
// @Param id path string true "Attachment ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Router /attachments/{id} [delete]
func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid attachment ID: must be a valid UUID")
		return
	}

	if err := h.attachmentService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Attachment not found")
			return
		}
		h.logger.Error("failed to delete attachment", zap.Error(err), zap.String("attachment_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to delete attachment")
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
