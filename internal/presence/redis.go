package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const onlineKey = "presence:online"

// Entry 접속 중인 사용자 상태
type Entry struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	SessionID   string `json:"session_id"`
	ConnectedAt int64  `json:"connected_at"` // unix millis
}

// Manager mirrors the relay's joined connections into Redis so the HTTP
// surface (and any future second relay instance) can answer "who is online"
// without asking the hub.
type Manager struct {
	client *redis.Client
}

// NewManager 생성자
func NewManager(addr, password string, db int) (*Manager, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}

	log.Printf("[Presence] Connected to %s", addr)
	return &Manager{client: rdb}, nil
}

// SetOnline marks a user online. Last join wins when the same id connects
// twice.
func (m *Manager) SetOnline(ctx context.Context, userID, userName, sessionID string) error {
	entry := Entry{
		UserID:      userID,
		UserName:    userName,
		SessionID:   sessionID,
		ConnectedAt: time.Now().UnixMilli(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return m.client.HSet(ctx, onlineKey, userID, data).Err()
}

// SetOffline removes a user from the online set.
func (m *Manager) SetOffline(ctx context.Context, userID string) error {
	return m.client.HDel(ctx, onlineKey, userID).Err()
}

// ListOnline returns everyone currently marked online.
func (m *Manager) ListOnline(ctx context.Context) ([]Entry, error) {
	fields, err := m.client.HGetAll(ctx, onlineKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list online: %w", err)
	}

	entries := make([]Entry, 0, len(fields))
	for _, raw := range fields {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Health checks the Redis connection.
func (m *Manager) Health(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (m *Manager) Close() error {
	return m.client.Close()
}
