package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const sessionTTL = 24 * time.Hour

// Session is the reconnect state kept in redis per connection, keyed
// by an opaque session ID handed to the client after a join.
type Session struct {
	UserID string `json:"userID"`
	GameID string `json:"gameID"`
}

// StoreSession stores the session under a fresh ID with a 24h TTL and
// returns the ID.
func StoreSession(ctx context.Context, rdb *redis.Client, sess Session) (string, error) {
	sessionID := uuid.NewString()
	payload, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	if err := rdb.Set(ctx, "session:"+sessionID, payload, sessionTTL).Err(); err != nil {
		return "", err
	}
	return sessionID, nil
}

// ResumeSession fetches and consumes a stored session. The old ID is
// deleted so each session resumes at most once; the caller issues a
// replacement on the re-join.
func ResumeSession(ctx context.Context, rdb *redis.Client, sessionID string) (*Session, error) {
	payload, err := rdb.Get(ctx, "session:"+sessionID).Result()
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return nil, err
	}
	rdb.Del(ctx, "session:"+sessionID)
	return &sess, nil
}
