package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collab-backend/internal/protocol"
)

// recordingEmitter captures everything the session sends.
type recordingEmitter struct {
	sent []protocol.Payload
	err  error
}

func (e *recordingEmitter) Send(p protocol.Payload) error {
	if e.err != nil {
		return e.err
	}
	e.sent = append(e.sent, p)
	return nil
}

type recordingRemover struct {
	deletedMessages []string
	deletedFiles    []string
	err             error
}

func (r *recordingRemover) DeleteMessage(_ context.Context, messageID string) error {
	if r.err != nil {
		return r.err
	}
	r.deletedMessages = append(r.deletedMessages, messageID)
	return nil
}

func (r *recordingRemover) DeleteFile(_ context.Context, fileID string) error {
	if r.err != nil {
		return r.err
	}
	r.deletedFiles = append(r.deletedFiles, fileID)
	return nil
}

func newTestSession() (*Session, *recordingEmitter) {
	emitter := &recordingEmitter{}
	return NewSession("u1", "Ann", emitter), emitter
}

func TestSessionJoin(t *testing.T) {
	s, emitter := newTestSession()

	require.NoError(t, s.Join())
	require.Len(t, emitter.sent, 1)
	assert.Equal(t, protocol.JoinChat{UserID: "u1", UserName: "Ann"}, emitter.sent[0])
}

func TestSessionSendTextAppliesLocallyAndEmits(t *testing.T) {
	s, emitter := newTestSession()

	msg, err := s.SendText("hello")
	require.NoError(t, err)

	assert.Equal(t, protocol.MessageText, msg.Type)
	assert.Equal(t, "Ann", msg.Sender)
	assert.NotEmpty(t, msg.ID)

	msgs := s.Log.Messages()
	require.Len(t, msgs, 1, "sender sees its own message without an echo")
	assert.Equal(t, msg, msgs[0])

	require.Len(t, emitter.sent, 1)
	assert.Equal(t, msg, emitter.sent[0])
}

func TestSessionSendTextStillAppliesOnEmitFailure(t *testing.T) {
	emitter := &recordingEmitter{err: errors.New("gone")}
	s := NewSession("u1", "Ann", emitter)

	_, err := s.SendText("hello")
	assert.Error(t, err)
	assert.Equal(t, 1, s.Log.Len(), "local apply happens before the emit")
}

func TestSessionSendFileMessage(t *testing.T) {
	s, emitter := newTestSession()

	up := &UploadResult{
		FileID:       "f1",
		OriginalName: "report.pdf",
		ContentType:  "application/pdf",
		Size:         2048,
		DownloadURL:  "https://files.example.com/abc",
	}
	msg, err := s.SendFileMessage(up)
	require.NoError(t, err)

	assert.Equal(t, protocol.MessageFile, msg.Type)
	assert.Equal(t, "report.pdf", msg.FileName)
	assert.Equal(t, "report.pdf", msg.Content)
	assert.Equal(t, int64(2048), msg.FileSize)
	assert.Equal(t, "application/pdf", msg.FileType)
	assert.Equal(t, "https://files.example.com/abc", msg.DownloadURL)
	assert.Equal(t, "f1", msg.FileID)

	require.Len(t, emitter.sent, 1)
	assert.Equal(t, msg, emitter.sent[0])
}

func TestSessionStrokeGestures(t *testing.T) {
	s, emitter := newTestSession()

	strokeID, err := s.StartStroke(protocol.Point{X: 1, Y: 1}, "#ff0000", 3)
	require.NoError(t, err)
	require.NotEmpty(t, strokeID)
	require.NoError(t, s.ExtendStroke(strokeID, protocol.Point{X: 2, Y: 2}))
	require.NoError(t, s.EndStroke(strokeID))

	stroke, ok := s.Canvas.Stroke(strokeID)
	require.True(t, ok)
	assert.Len(t, stroke.Points, 2)
	assert.True(t, stroke.Closed)

	require.Len(t, emitter.sent, 3)
	start := emitter.sent[0].(protocol.Drawing)
	assert.Equal(t, protocol.DrawStart, start.Type)
	assert.Equal(t, strokeID, start.StrokeID)
	assert.Equal(t, protocol.DrawEnd, emitter.sent[2].(protocol.Drawing).Type)
}

func TestSessionClearCanvas(t *testing.T) {
	s, emitter := newTestSession()

	_, err := s.StartStroke(protocol.Point{X: 1, Y: 1}, "#000", 1)
	require.NoError(t, err)
	require.NoError(t, s.ClearCanvas())

	assert.Empty(t, s.Canvas.Strokes())
	assert.Equal(t, protocol.Clear{}, emitter.sent[len(emitter.sent)-1])
}

func TestSessionDispatchRemoteEvents(t *testing.T) {
	s, emitter := newTestSession()

	s.Dispatch(protocol.ChatMessage{ID: "m1", Type: protocol.MessageText, Content: "hi", Sender: "Bob"})
	s.Dispatch(protocol.UserJoined{ID: "u2", Name: "Bob"})
	s.Dispatch(protocol.Drawing{Type: protocol.DrawStart, StrokeID: "s1", Point: &protocol.Point{X: 1, Y: 1}, Color: "#000", Width: 1})

	assert.True(t, s.Roster.IsOnline("u2"))
	_, ok := s.Canvas.Stroke("s1")
	assert.True(t, ok)

	msgs := s.Log.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, protocol.MessageSystem, msgs[1].Type)
	assert.Equal(t, "Bob joined the chat", msgs[1].Content)

	assert.Empty(t, emitter.sent, "remote events are never re-emitted")
}

func TestSessionDispatchJoinThenLeaveAnnouncesBoth(t *testing.T) {
	s, _ := newTestSession()

	s.Dispatch(protocol.UserJoined{ID: "u1", Name: "Ann"})
	s.Dispatch(protocol.UserLeft{ID: "u1", Name: "Ann"})

	assert.False(t, s.Roster.IsOnline("u1"))
	users := s.Roster.Users()
	require.Len(t, users, 1, "leaving keeps the user on the roster")

	msgs := s.Log.Messages()
	require.Len(t, msgs, 2)
	for _, msg := range msgs {
		assert.Equal(t, protocol.MessageSystem, msg.Type)
		assert.Contains(t, msg.Content, "Ann")
	}
	assert.Equal(t, "Ann joined the chat", msgs[0].Content)
	assert.Equal(t, "Ann left the chat", msgs[1].Content)
}

func TestSessionDispatchUnknownLeaveAddsNothing(t *testing.T) {
	s, _ := newTestSession()

	s.Dispatch(protocol.UserLeft{ID: "ghost", Name: "Ghost"})
	assert.Zero(t, s.Log.Len(), "a leave for an unseen user is not announced")
}

func TestSessionDispatchSnapshotReplacesLog(t *testing.T) {
	s, _ := newTestSession()
	_, err := s.SendText("optimistic")
	require.NoError(t, err)

	s.Dispatch(protocol.RecentMessages{
		{ID: "m1", Type: protocol.MessageText, Content: "history", Sender: "Bob"},
	})

	msgs := s.Log.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "history", msgs[0].Content)
}

func TestSessionDeleteMessageIsLocalOnly(t *testing.T) {
	s, emitter := newTestSession()
	remover := &recordingRemover{}
	s.SetRemover(remover)

	msg, err := s.SendText("delete me")
	require.NoError(t, err)
	sentBefore := len(emitter.sent)

	require.NoError(t, s.DeleteMessage(context.Background(), msg.ID))

	assert.Zero(t, s.Log.Len())
	assert.Equal(t, []string{msg.ID}, remover.deletedMessages)
	assert.Len(t, emitter.sent, sentBefore, "deletion is not broadcast")
}

func TestSessionDeleteMessageKeepsLocalOnRemoverFailure(t *testing.T) {
	s, _ := newTestSession()
	s.SetRemover(&recordingRemover{err: errors.New("denied")})

	msg, err := s.SendText("keep me")
	require.NoError(t, err)

	assert.Error(t, s.DeleteMessage(context.Background(), msg.ID))
	assert.Equal(t, 1, s.Log.Len(), "local log unchanged when the server refuses")
}

func TestSessionDeleteFile(t *testing.T) {
	s, emitter := newTestSession()
	remover := &recordingRemover{}
	s.SetRemover(remover)

	msg, err := s.SendFileMessage(&UploadResult{FileID: "f1", OriginalName: "a.png", Size: 1})
	require.NoError(t, err)
	sentBefore := len(emitter.sent)

	require.NoError(t, s.DeleteFile(context.Background(), "f1", msg.ID))

	assert.Zero(t, s.Log.Len())
	assert.Equal(t, []string{"f1"}, remover.deletedFiles)
	assert.Len(t, emitter.sent, sentBefore, "file deletion is not broadcast")
}
