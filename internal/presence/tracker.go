package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Activity describes a candidate's live editor state, as seen by the
// review dashboard
type Activity struct {
	Online bool `json:"online"`
	Typing bool `json:"typing"`
}

// Tracker records live candidate activity in Redis using expiring keys.
// A heartbeat refreshes the keys; silence lets them decay, so stale
// sessions disappear without a reaper.
type Tracker struct {
	client    *redis.Client
	onlineTTL time.Duration
	typingTTL time.Duration
}

// NewTracker connects to Redis and verifies the connection
func NewTracker(address, password string, onlineTTL, typingTTL time.Duration) (*Tracker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Tracker{
		client:    client,
		onlineTTL: onlineTTL,
		typingTTL: typingTTL,
	}, nil
}

func onlineKey(submissionID string) string {
	return fmt.Sprintf("presence:%s:online", submissionID)
}

func typingKey(submissionID string) string {
	return fmt.Sprintf("presence:%s:typing", submissionID)
}

// Heartbeat marks the submission's candidate as online, and as typing when
// the heartbeat reports recent keystrokes
func (t *Tracker) Heartbeat(ctx context.Context, submissionID string, typing bool) error {
	if err := t.client.Set(ctx, onlineKey(submissionID), "1", t.onlineTTL).Err(); err != nil {
		return fmt.Errorf("failed to record heartbeat: %w", err)
	}

	if typing {
		if err := t.client.Set(ctx, typingKey(submissionID), "1", t.typingTTL).Err(); err != nil {
			return fmt.Errorf("failed to record typing: %w", err)
		}
	}

	return nil
}

// Get returns the current activity for a submission
func (t *Tracker) Get(ctx context.Context, submissionID string) (*Activity, error) {
	vals, err := t.client.MGet(ctx, onlineKey(submissionID), typingKey(submissionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read presence: %w", err)
	}

	return &Activity{
		Online: vals[0] != nil,
		Typing: vals[1] != nil,
	}, nil
}

// HealthCheck verifies Redis connectivity
func (t *Tracker) HealthCheck(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (t *Tracker) Close() error {
	return t.client.Close()
}
