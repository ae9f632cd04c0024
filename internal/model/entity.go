package model

import (
	"time"
)

// Message 채팅 메시지 영속 레코드
// The wire id is client-generated, so it is the primary key here. Timestamp
// stays in unix millis the way clients send it; CreatedAt orders history.
type Message struct {
	ID          string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Type        string    `gorm:"type:varchar(20);not null;index" json:"type"` // text, file, system
	Content     string    `gorm:"type:text;not null" json:"content"`
	Sender      string    `gorm:"type:varchar(100);not null" json:"sender"`
	SenderID    string    `gorm:"type:varchar(64);index" json:"sender_id"`
	Timestamp   int64     `gorm:"not null" json:"timestamp"`
	FileName    *string   `gorm:"type:varchar(255)" json:"file_name,omitempty"`
	FileSize    *int64    `json:"file_size,omitempty"`
	FileType    *string   `gorm:"type:varchar(100)" json:"file_type,omitempty"`
	DownloadURL *string   `gorm:"type:text" json:"download_url,omitempty"`
	FileID      *string   `gorm:"type:varchar(64);index" json:"file_id,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

// UserEvent 입장/퇴장 기록
type UserEvent struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Type      string    `gorm:"type:varchar(20);not null" json:"type"` // user_joined, user_left
	UserID    string    `gorm:"type:varchar(64);not null;index" json:"user_id"`
	UserName  string    `gorm:"type:varchar(100);not null" json:"user_name"`
	SessionID string    `gorm:"type:varchar(64)" json:"session_id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (UserEvent) TableName() string {
	return "chat_events"
}

// FileRecord 업로드된 파일 메타데이터
type FileRecord struct {
	ID           string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	OriginalName string    `gorm:"type:varchar(255);not null" json:"original_name"`
	StorageKey   string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"storage_key"`
	ContentType  string    `gorm:"type:varchar(100);not null" json:"content_type"`
	Size         int64     `gorm:"not null" json:"size"`
	UploaderName string    `gorm:"type:varchar(100)" json:"uploader_name"`
	Bucket       string    `gorm:"type:varchar(100)" json:"bucket"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (FileRecord) TableName() string {
	return "uploaded_files"
}
