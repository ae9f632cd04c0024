package protocol

import (
	"encoding/json"
	"fmt"
)

// Kind identifies a wire event.
type Kind string

const (
	KindJoinChat       Kind = "join_chat"
	KindChatMessage    Kind = "chat_message"
	KindDrawing        Kind = "drawing"
	KindClear          Kind = "clear"
	KindRecentMessages Kind = "recent_messages"
	KindUserJoined     Kind = "user_joined"
	KindUserLeft       Kind = "user_left"
	KindError          Kind = "error"
)

// Payload is the closed set of event bodies. Adding a new event means adding
// a type here and a case to Decode, which keeps both paths in one place.
type Payload interface {
	Kind() Kind
}

// MessageType 채팅 메시지 종류
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

// JoinChat client → server: announce identity after connect.
type JoinChat struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

func (JoinChat) Kind() Kind { return KindJoinChat }

// ChatMessage is relayed bidirectionally and persisted by the server.
// File messages carry the metadata returned by the upload endpoint.
type ChatMessage struct {
	ID          string      `json:"id"`
	Type        MessageType `json:"type"`
	Content     string      `json:"content"`
	Sender      string      `json:"sender"`
	Timestamp   int64       `json:"timestamp"` // unix millis, display only
	FileName    string      `json:"fileName,omitempty"`
	FileSize    int64       `json:"fileSize,omitempty"`
	FileType    string      `json:"fileType,omitempty"`
	DownloadURL string      `json:"downloadUrl,omitempty"`
	FileID      string      `json:"fileId,omitempty"`
}

func (ChatMessage) Kind() Kind { return KindChatMessage }

// DrawingType discriminates the drawing sub-union.
type DrawingType string

const (
	DrawStart DrawingType = "start"
	DrawMove  DrawingType = "draw"
	DrawEnd   DrawingType = "end"
)

// Point 캔버스 좌표
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Drawing is one whiteboard event. Start opens a stroke, draw appends a
// point, end closes it. Relayed unchanged, never persisted.
type Drawing struct {
	Type     DrawingType `json:"type"`
	StrokeID string      `json:"strokeId"`
	Point    *Point      `json:"point,omitempty"`
	Color    string      `json:"color,omitempty"`
	Width    float64     `json:"width,omitempty"`
}

func (Drawing) Kind() Kind { return KindDrawing }

// Validate checks the fields required by each drawing type.
func (d Drawing) Validate() error {
	if d.StrokeID == "" {
		return fmt.Errorf("drawing: missing strokeId")
	}
	switch d.Type {
	case DrawStart:
		if d.Point == nil {
			return fmt.Errorf("drawing: start requires a point")
		}
		if d.Color == "" || d.Width <= 0 {
			return fmt.Errorf("drawing: start requires color and width")
		}
	case DrawMove:
		if d.Point == nil {
			return fmt.Errorf("drawing: draw requires a point")
		}
	case DrawEnd:
		// terminal marker, no fields
	default:
		return fmt.Errorf("drawing: unknown type %q", d.Type)
	}
	return nil
}

// Clear wipes the whole whiteboard. No payload.
type Clear struct{}

func (Clear) Kind() Kind { return KindClear }

// RecentMessages server → joining client: one-shot history snapshot.
type RecentMessages []ChatMessage

func (RecentMessages) Kind() Kind { return KindRecentMessages }

// UserJoined server → others after a join_chat.
type UserJoined struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (UserJoined) Kind() Kind { return KindUserJoined }

// UserLeft server → others when a joined connection closes.
type UserLeft struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (UserLeft) Kind() Kind { return KindUserLeft }

// ErrorEvent server → client for malformed or unexpected payloads.
type ErrorEvent struct {
	Message string `json:"message"`
}

func (ErrorEvent) Kind() Kind { return KindError }

// envelope is the outer wire frame.
type envelope struct {
	Event Kind            `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode frames a payload for the wire.
func Encode(p Payload) ([]byte, error) {
	env := envelope{Event: p.Kind()}
	if _, ok := p.(Clear); !ok {
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", p.Kind(), err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// Decode parses a wire frame into its concrete payload. Unknown event kinds
// and malformed bodies are errors, never silently dropped.
func Decode(raw []byte) (Payload, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	unmarshal := func(v Payload) (Payload, error) {
		if len(env.Data) == 0 {
			return nil, fmt.Errorf("decode %s: missing data", env.Event)
		}
		if err := json.Unmarshal(env.Data, v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		return v, nil
	}

	switch env.Event {
	case KindJoinChat:
		p, err := unmarshal(&JoinChat{})
		if err != nil {
			return nil, err
		}
		return *p.(*JoinChat), nil
	case KindChatMessage:
		p, err := unmarshal(&ChatMessage{})
		if err != nil {
			return nil, err
		}
		return *p.(*ChatMessage), nil
	case KindDrawing:
		p, err := unmarshal(&Drawing{})
		if err != nil {
			return nil, err
		}
		d := *p.(*Drawing)
		if err := d.Validate(); err != nil {
			return nil, err
		}
		return d, nil
	case KindClear:
		return Clear{}, nil
	case KindRecentMessages:
		var list RecentMessages
		if len(env.Data) == 0 {
			return RecentMessages{}, nil
		}
		if err := json.Unmarshal(env.Data, &list); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		return list, nil
	case KindUserJoined:
		p, err := unmarshal(&UserJoined{})
		if err != nil {
			return nil, err
		}
		return *p.(*UserJoined), nil
	case KindUserLeft:
		p, err := unmarshal(&UserLeft{})
		if err != nil {
			return nil, err
		}
		return *p.(*UserLeft), nil
	case KindError:
		p, err := unmarshal(&ErrorEvent{})
		if err != nil {
			return nil, err
		}
		return *p.(*ErrorEvent), nil
	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}
}
