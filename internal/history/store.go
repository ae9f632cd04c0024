package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"collab-backend/internal/model"
	"collab-backend/internal/protocol"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("history: not found")

// Store is the durable side of the chat: messages, join/leave records and
// file metadata. Whiteboard strokes are deliberately not stored here.
type Store struct {
	db *gorm.DB
}

// NewStore Store 생성
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SaveMessage appends one chat message.
func (s *Store) SaveMessage(ctx context.Context, msg protocol.ChatMessage, senderID string) error {
	rec := toRecord(msg, senderID)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("save message %s: %w", msg.ID, err)
	}
	return nil
}

// RecentMessages returns the last limit messages in ascending order, the
// shape a joining client replaces its local log with.
func (s *Store) RecentMessages(ctx context.Context, limit int) ([]protocol.ChatMessage, error) {
	var recs []model.Message
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}

	// Query newest-first, deliver oldest-first.
	out := make([]protocol.ChatMessage, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		out = append(out, toWire(recs[i]))
	}
	return out, nil
}

// GetMessage fetches a single message by id.
func (s *Store) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	var rec model.Message
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	return &rec, nil
}

// DeleteMessage removes one message by id.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Message{})
	if res.Error != nil {
		return fmt.Errorf("delete message %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFileMessages removes all file messages referring to fileID and
// reports how many went away.
func (s *Store) DeleteFileMessages(ctx context.Context, fileID string) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("type = ? AND file_id = ?", string(protocol.MessageFile), fileID).
		Delete(&model.Message{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete file messages %s: %w", fileID, res.Error)
	}
	return res.RowsAffected, nil
}

// SaveUserEvent records a join or leave.
func (s *Store) SaveUserEvent(ctx context.Context, eventType, userID, userName, sessionID string) error {
	evt := model.UserEvent{
		Type:      eventType,
		UserID:    userID,
		UserName:  userName,
		SessionID: sessionID,
	}
	if err := s.db.WithContext(ctx).Create(&evt).Error; err != nil {
		return fmt.Errorf("save user event %s/%s: %w", eventType, userID, err)
	}
	return nil
}

// SaveFileRecord stores uploaded file metadata.
func (s *Store) SaveFileRecord(ctx context.Context, rec *model.FileRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("save file record %s: %w", rec.ID, err)
	}
	return nil
}

// GetFileRecord fetches file metadata by id.
func (s *Store) GetFileRecord(ctx context.Context, id string) (*model.FileRecord, error) {
	var rec model.FileRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get file record %s: %w", id, err)
	}
	return &rec, nil
}

// DeleteFileRecord removes file metadata by id.
func (s *Store) DeleteFileRecord(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.FileRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete file record %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkDeleteCriteria filters for BulkDeleteFiles. Zero-value fields are
// ignored.
type BulkDeleteCriteria struct {
	UploaderName    string
	FilenamePattern string
	Start           *time.Time
	End             *time.Time
	ContentTypes    []string
}

// BulkDeleteResult summarizes a bulk delete run. Keys lists the storage
// objects the caller still has to remove.
type BulkDeleteResult struct {
	DeletedFiles    int64
	DeletedMessages int64
	Keys            []string
}

// BulkDeleteFiles removes matching file records together with the chat
// messages that reference them.
func (s *Store) BulkDeleteFiles(ctx context.Context, c BulkDeleteCriteria) (*BulkDeleteResult, error) {
	q := s.db.WithContext(ctx).Model(&model.FileRecord{})
	if c.UploaderName != "" {
		q = q.Where("uploader_name = ?", c.UploaderName)
	}
	if c.Start != nil && c.End != nil {
		q = q.Where("created_at BETWEEN ? AND ?", *c.Start, *c.End)
	}
	if len(c.ContentTypes) > 0 {
		q = q.Where("content_type IN ?", c.ContentTypes)
	}

	var recs []model.FileRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("bulk delete query: %w", err)
	}

	result := &BulkDeleteResult{}
	for _, rec := range recs {
		// Pattern match happens in memory, same as the persistence layer
		// this replaces.
		if c.FilenamePattern != "" &&
			!strings.Contains(strings.ToLower(rec.OriginalName), strings.ToLower(c.FilenamePattern)) {
			continue
		}

		n, err := s.DeleteFileMessages(ctx, rec.ID)
		if err != nil {
			return result, err
		}
		result.DeletedMessages += n

		if err := s.db.WithContext(ctx).Delete(&model.FileRecord{}, "id = ?", rec.ID).Error; err != nil {
			return result, fmt.Errorf("bulk delete record %s: %w", rec.ID, err)
		}
		result.DeletedFiles++
		result.Keys = append(result.Keys, rec.StorageKey)
	}
	return result, nil
}

func toRecord(msg protocol.ChatMessage, senderID string) model.Message {
	rec := model.Message{
		ID:        msg.ID,
		Type:      string(msg.Type),
		Content:   msg.Content,
		Sender:    msg.Sender,
		SenderID:  senderID,
		Timestamp: msg.Timestamp,
	}
	if msg.Type == protocol.MessageFile {
		rec.FileName = &msg.FileName
		rec.FileSize = &msg.FileSize
		rec.FileType = &msg.FileType
		rec.DownloadURL = &msg.DownloadURL
		rec.FileID = &msg.FileID
	}
	return rec
}

func toWire(rec model.Message) protocol.ChatMessage {
	msg := protocol.ChatMessage{
		ID:        rec.ID,
		Type:      protocol.MessageType(rec.Type),
		Content:   rec.Content,
		Sender:    rec.Sender,
		Timestamp: rec.Timestamp,
	}
	if rec.FileName != nil {
		msg.FileName = *rec.FileName
	}
	if rec.FileSize != nil {
		msg.FileSize = *rec.FileSize
	}
	if rec.FileType != nil {
		msg.FileType = *rec.FileType
	}
	if rec.DownloadURL != nil {
		msg.DownloadURL = *rec.DownloadURL
	}
	if rec.FileID != nil {
		msg.FileID = *rec.FileID
	}
	return msg
}
