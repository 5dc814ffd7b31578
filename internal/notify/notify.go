// Package notify carries transient notifications (export finished, save
// failed) to browsers: publishers write to a Redis channel per resume and
// the websocket handler forwards whatever arrives.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// 消息类型。
const (
	TypeExport = "export"
	TypeSave   = "save"
)

// 状态。
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Message 是推送给前端的统一消息格式（通过 Redis Pub/Sub 转发）。
type Message struct {
	Type          string `json:"type"`
	Status        string `json:"status"`
	ResumeID      string `json:"resume_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// Channel returns the pub/sub channel for one resume.
func Channel(resumeID string) string {
	return "resume_notify:" + resumeID
}

// Publisher is the subset of the redis client used to publish.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Send encodes msg and publishes it on the resume's channel.
func Send(ctx context.Context, pub Publisher, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := pub.Publish(ctx, Channel(msg.ResumeID), payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
