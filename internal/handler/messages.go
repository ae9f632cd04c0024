package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"collab-backend/internal/history"
	"collab-backend/internal/protocol"
	"collab-backend/internal/storage"
)

// MessageHandler 메시지 삭제 핸들러
// Deletion is a request/response call, not a broadcast: other clients keep
// the message in their local log until they reload.
type MessageHandler struct {
	store *history.Store
	s3    *storage.S3Service
}

// NewMessageHandler MessageHandler 생성
func NewMessageHandler(store *history.Store, s3 *storage.S3Service) *MessageHandler {
	return &MessageHandler{store: store, s3: s3}
}

// DeleteMessage removes one message from history. File messages drag their
// stored object and metadata along.
func (h *MessageHandler) DeleteMessage(c *fiber.Ctx) error {
	messageID := c.Params("messageId")

	rec, err := h.store.GetMessage(c.Context(), messageID)
	if errors.Is(err, history.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "message not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get message",
		})
	}

	if rec.Type == string(protocol.MessageFile) && rec.FileID != nil {
		h.deleteAttachedFile(c, *rec.FileID)
	}

	if err := h.store.DeleteMessage(c.Context(), messageID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete message",
		})
	}

	log.Printf("[Messages] Deleted message %s", messageID)

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "message deleted",
		"message_id": messageID,
	})
}

// deleteAttachedFile best-effort removes the file behind a file message.
// Message deletion proceeds either way.
func (h *MessageHandler) deleteAttachedFile(c *fiber.Ctx, fileID string) {
	rec, err := h.store.GetFileRecord(c.Context(), fileID)
	if err != nil {
		log.Printf("[Messages] Attached file %s not found: %v", fileID, err)
		return
	}

	if h.s3 != nil {
		if err := h.s3.Delete(c.Context(), rec.StorageKey); err != nil {
			log.Printf("[Messages] Failed to delete object %s: %v", rec.StorageKey, err)
		}
	}
	if err := h.store.DeleteFileRecord(c.Context(), fileID); err != nil {
		log.Printf("[Messages] Failed to delete file record %s: %v", fileID, err)
	}
}
