package client

import (
	"context"
	"time"

	"github.com/google/uuid"

	"collab-backend/internal/protocol"
)

// Emitter is the sending half of a Channel. Session takes the interface so
// model behavior is testable without a live connection.
type Emitter interface {
	Send(p protocol.Payload) error
}

// Remover deletes durable records out of band. *Uploader satisfies it.
type Remover interface {
	DeleteMessage(ctx context.Context, messageID string) error
	DeleteFile(ctx context.Context, fileID string) error
}

// Session composes the client models behind one identity. Every local
// action runs as two explicit steps: mutate the local model, then emit the
// event. The relay never echoes events back, so the local mutation is the
// only way the sender sees its own action.
type Session struct {
	UserID   string
	UserName string

	Canvas *Canvas
	Log    *MessageLog
	Roster *Roster

	emitter Emitter
	remover Remover
}

// NewSession Session 생성
func NewSession(userID, userName string, emitter Emitter) *Session {
	return &Session{
		UserID:   userID,
		UserName: userName,
		Canvas:   NewCanvas(),
		Log:      NewMessageLog(),
		Roster:   NewRoster(),
		emitter:  emitter,
	}
}

// SetRemover wires the out-of-band delete client.
func (s *Session) SetRemover(r Remover) {
	s.remover = r
}

// Bind subscribes the session to every server-emitted event kind on ch.
func (s *Session) Bind(ch *Channel) {
	ch.On(protocol.KindChatMessage, s.Dispatch)
	ch.On(protocol.KindRecentMessages, s.Dispatch)
	ch.On(protocol.KindUserJoined, s.Dispatch)
	ch.On(protocol.KindUserLeft, s.Dispatch)
	ch.On(protocol.KindDrawing, s.Dispatch)
	ch.On(protocol.KindClear, s.Dispatch)
}

// Dispatch applies one remote event to the local models. This is the same
// state-update logic the local gesture path uses; the only difference is
// that remote events are not re-emitted.
func (s *Session) Dispatch(p protocol.Payload) {
	switch evt := p.(type) {
	case protocol.ChatMessage:
		s.Log.Append(evt)
	case protocol.RecentMessages:
		s.Log.ReplaceAll(evt)
	case protocol.UserJoined:
		s.Roster.UserJoined(evt)
		s.Log.Append(s.systemMessage(announcement(evt.Name, true)))
	case protocol.UserLeft:
		if s.Roster.UserLeft(evt) {
			s.Log.Append(s.systemMessage(announcement(evt.Name, false)))
		}
	case protocol.Drawing:
		s.Canvas.Apply(evt)
	case protocol.Clear:
		s.Canvas.ApplyClear()
	}
}

// Join announces this identity to the relay. The reply is a
// recent_messages snapshot that replaces the local log.
func (s *Session) Join() error {
	return s.emitter.Send(protocol.JoinChat{UserID: s.UserID, UserName: s.UserName})
}

// SendText appends a text message locally and emits it.
func (s *Session) SendText(content string) (protocol.ChatMessage, error) {
	msg := protocol.ChatMessage{
		ID:        uuid.New().String(),
		Type:      protocol.MessageText,
		Content:   content,
		Sender:    s.UserName,
		Timestamp: time.Now().UnixMilli(),
	}
	s.Log.Append(msg)
	return msg, s.emitter.Send(msg)
}

// SendFileMessage turns an upload result into a file message, appends it
// locally and emits it.
func (s *Session) SendFileMessage(up *UploadResult) (protocol.ChatMessage, error) {
	msg := protocol.ChatMessage{
		ID:          uuid.New().String(),
		Type:        protocol.MessageFile,
		Content:     up.OriginalName,
		Sender:      s.UserName,
		Timestamp:   time.Now().UnixMilli(),
		FileName:    up.OriginalName,
		FileSize:    up.Size,
		FileType:    up.ContentType,
		DownloadURL: up.DownloadURL,
		FileID:      up.FileID,
	}
	s.Log.Append(msg)
	return msg, s.emitter.Send(msg)
}

// StartStroke opens a local stroke and emits the start event. Returns the
// new stroke id for the follow-up draw/end gestures.
func (s *Session) StartStroke(p protocol.Point, color string, width float64) (string, error) {
	strokeID := uuid.New().String()
	s.Canvas.ApplyStart(strokeID, p, color, width)
	return strokeID, s.emitter.Send(protocol.Drawing{
		Type:     protocol.DrawStart,
		StrokeID: strokeID,
		Point:    &p,
		Color:    color,
		Width:    width,
	})
}

// ExtendStroke appends a point locally and emits the draw event.
func (s *Session) ExtendStroke(strokeID string, p protocol.Point) error {
	s.Canvas.ApplyDraw(strokeID, p)
	return s.emitter.Send(protocol.Drawing{
		Type:     protocol.DrawMove,
		StrokeID: strokeID,
		Point:    &p,
	})
}

// EndStroke closes a stroke locally and emits the end marker.
func (s *Session) EndStroke(strokeID string) error {
	s.Canvas.ApplyEnd(strokeID)
	return s.emitter.Send(protocol.Drawing{
		Type:     protocol.DrawEnd,
		StrokeID: strokeID,
	})
}

// ClearCanvas wipes the local whiteboard and emits clear.
func (s *Session) ClearCanvas() error {
	s.Canvas.ApplyClear()
	return s.emitter.Send(protocol.Clear{})
}

// DeleteMessage removes the durable record out of band, then filters the
// message locally. Deletion is not broadcast; other clients keep the
// message until they reload.
func (s *Session) DeleteMessage(ctx context.Context, messageID string) error {
	if s.remover != nil {
		if err := s.remover.DeleteMessage(ctx, messageID); err != nil {
			return err
		}
	}
	s.Log.Remove(messageID)
	return nil
}

// DeleteFile removes an uploaded file and filters its message locally.
func (s *Session) DeleteFile(ctx context.Context, fileID, messageID string) error {
	if s.remover != nil {
		if err := s.remover.DeleteFile(ctx, fileID); err != nil {
			return err
		}
	}
	s.Log.Remove(messageID)
	return nil
}

func (s *Session) systemMessage(content string) protocol.ChatMessage {
	return protocol.ChatMessage{
		ID:        uuid.New().String(),
		Type:      protocol.MessageSystem,
		Content:   content,
		Sender:    "system",
		Timestamp: time.Now().UnixMilli(),
	}
}
