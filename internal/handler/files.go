package handler

import (
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"collab-backend/internal/config"
	"collab-backend/internal/history"
	"collab-backend/internal/model"
	"collab-backend/internal/storage"
)

// FileHandler 파일 업로드/삭제 핸들러
type FileHandler struct {
	store *history.Store
	s3    *storage.S3Service
	cfg   *config.Config
}

// NewFileHandler FileHandler 생성
func NewFileHandler(store *history.Store, s3 *storage.S3Service, cfg *config.Config) *FileHandler {
	return &FileHandler{store: store, s3: s3, cfg: cfg}
}

// BulkDeleteRequest criteria-driven cleanup request.
type BulkDeleteRequest struct {
	SenderName      string   `json:"sender_name,omitempty"`
	FilenamePattern string   `json:"filename_pattern,omitempty"`
	StartDate       string   `json:"start_date,omitempty"`
	EndDate         string   `json:"end_date,omitempty"`
	FileTypes       []string `json:"file_types,omitempty"`
}

// UploadFile stores a multipart upload and returns a signed download URL.
func (h *FileHandler) UploadFile(c *fiber.Ctx) error {
	if !h.cfg.Upload.Enabled {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "file upload is disabled",
		})
	}
	if h.s3 == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "file storage is not configured",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no file provided",
		})
	}

	maxBytes := int64(h.cfg.Upload.MaxFileSizeMB) * 1024 * 1024
	if fileHeader.Size > maxBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file size exceeds limit",
		})
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !h.typeAllowed(contentType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file type not allowed",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unreadable file",
		})
	}
	defer src.Close()

	data := make([]byte, fileHeader.Size)
	if _, err := io.ReadFull(src, data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read file",
		})
	}

	key, err := h.s3.Upload(c.Context(), data, fileHeader.Filename, contentType)
	if err != nil {
		log.Printf("[Files] Upload failed for %s: %v", fileHeader.Filename, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to upload file",
		})
	}

	downloadURL, expiresAt, err := h.s3.PresignDownload(c.Context(), key)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to sign download URL",
		})
	}

	rec := model.FileRecord{
		ID:           uuid.New().String(),
		OriginalName: fileHeader.Filename,
		StorageKey:   key,
		ContentType:  contentType,
		Size:         fileHeader.Size,
		UploaderName: c.FormValue("sender"),
		Bucket:       h.s3.Bucket(),
	}
	if err := h.store.SaveFileRecord(c.Context(), &rec); err != nil {
		log.Printf("[Files] Failed to save metadata for %s: %v", key, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save file metadata",
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"file_id":       rec.ID,
		"original_name": rec.OriginalName,
		"content_type":  rec.ContentType,
		"size":          rec.Size,
		"download_url":  downloadURL,
		"expires_at":    expiresAt.Format(time.RFC3339),
	})
}

// typeAllowed matches a content type against the configured allow list.
// Entries like "image/*" match the whole category.
func (h *FileHandler) typeAllowed(contentType string) bool {
	allowed := h.cfg.Upload.AllowedTypes
	if len(allowed) == 0 {
		return true
	}
	for _, t := range allowed {
		if t == contentType {
			return true
		}
		if prefix, ok := strings.CutSuffix(t, "/*"); ok && strings.HasPrefix(contentType, prefix+"/") {
			return true
		}
	}
	return false
}

// GetFileInfo returns file metadata with a freshly signed URL.
func (h *FileHandler) GetFileInfo(c *fiber.Ctx) error {
	if h.s3 == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "file storage is not configured",
		})
	}

	fileID := c.Params("fileId")

	rec, err := h.store.GetFileRecord(c.Context(), fileID)
	if errors.Is(err, history.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "file not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get file",
		})
	}

	downloadURL, expiresAt, err := h.s3.PresignDownload(c.Context(), rec.StorageKey)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to sign download URL",
		})
	}

	return c.JSON(fiber.Map{
		"file_id":       rec.ID,
		"original_name": rec.OriginalName,
		"content_type":  rec.ContentType,
		"size":          rec.Size,
		"upload_time":   rec.CreatedAt.Format(time.RFC3339),
		"download_url":  downloadURL,
		"expires_at":    expiresAt.Format(time.RFC3339),
	})
}

// DeleteFile removes the object, its metadata and any chat messages that
// reference it.
func (h *FileHandler) DeleteFile(c *fiber.Ctx) error {
	fileID := c.Params("fileId")

	rec, err := h.store.GetFileRecord(c.Context(), fileID)
	if errors.Is(err, history.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "file not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get file",
		})
	}

	if h.s3 != nil {
		if err := h.s3.Delete(c.Context(), rec.StorageKey); err != nil {
			// Metadata cleanup still proceeds; an orphaned object beats a
			// dangling record pointing at nothing.
			log.Printf("[Files] Failed to delete object %s: %v", rec.StorageKey, err)
		}
	}

	if err := h.store.DeleteFileRecord(c.Context(), fileID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete file metadata",
		})
	}

	deletedMessages, err := h.store.DeleteFileMessages(c.Context(), fileID)
	if err != nil {
		log.Printf("[Files] Failed to delete messages for %s: %v", fileID, err)
	}

	log.Printf("[Files] Deleted %s (%s), %d messages removed", fileID, rec.OriginalName, deletedMessages)

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       "file deleted",
		"file_id":       fileID,
		"original_name": rec.OriginalName,
	})
}

// BulkDelete removes files and their messages by criteria.
func (h *FileHandler) BulkDelete(c *fiber.Ctx) error {
	var req BulkDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	criteria := history.BulkDeleteCriteria{
		UploaderName:    req.SenderName,
		FilenamePattern: req.FilenamePattern,
		ContentTypes:    req.FileTypes,
	}
	if req.StartDate != "" && req.EndDate != "" {
		start, err1 := time.Parse(time.RFC3339, req.StartDate)
		end, err2 := time.Parse(time.RFC3339, req.EndDate)
		if err1 != nil || err2 != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid date range",
			})
		}
		criteria.Start = &start
		criteria.End = &end
	}

	result, err := h.store.BulkDeleteFiles(c.Context(), criteria)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "bulk delete failed",
		})
	}

	if h.s3 != nil {
		for _, key := range result.Keys {
			if err := h.s3.Delete(c.Context(), key); err != nil {
				log.Printf("[Files] Failed to delete object %s: %v", key, err)
			}
		}
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"message":          "bulk delete completed",
		"deleted_files":    result.DeletedFiles,
		"deleted_messages": result.DeletedMessages,
		"total_deleted":    result.DeletedFiles + result.DeletedMessages,
	})
}
