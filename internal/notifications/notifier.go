// Package notifications publishes moderation events over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"murmur/internal/middleware"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ModerationChannel carries every moderation event as JSON.
const ModerationChannel = "moderation:events"

// Moderation event types.
const (
	EventReportSubmitted = "report_submitted"
	EventReportResolved  = "report_resolved"
	EventPostRemoved     = "post_removed"
)

// ModerationEvent is the payload published on ModerationChannel.
type ModerationEvent struct {
	Type       string     `json:"type"`
	PostID     uuid.UUID  `json:"post_id"`
	ReportID   *uuid.UUID `json:"report_id,omitempty"`
	ActorID    uuid.UUID  `json:"actor_id"`
	Reason     string     `json:"reason,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishModerationEvent sends event to ModerationChannel. A nil client makes it a no-op.
func (n *Notifier) PublishModerationEvent(ctx context.Context, event ModerationEvent) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, ModerationChannel, string(payload)).Err()
}

// StartModerationSubscriber subscribes to ModerationChannel and calls onEvent for each decoded event
// until ctx is cancelled. It returns once the subscription is confirmed.
func (n *Notifier) StartModerationSubscriber(ctx context.Context, onEvent func(ModerationEvent)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, ModerationChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", ModerationChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event ModerationEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					middleware.Logger.Warn("discarding malformed moderation event",
						slog.String("channel", msg.Channel),
						slog.String("error", err.Error()),
					)
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in moderation subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onEvent(event)
				}()
			}
		}
	}()

	return nil
}

// LogModerationEvent writes an audit line for event.
func LogModerationEvent(event ModerationEvent) {
	attrs := []any{
		slog.String("type", event.Type),
		slog.String("post_id", event.PostID.String()),
		slog.String("actor_id", event.ActorID.String()),
		slog.Time("occurred_at", event.OccurredAt),
	}
	if event.ReportID != nil {
		attrs = append(attrs, slog.String("report_id", event.ReportID.String()))
	}
	middleware.Logger.Info("moderation event", attrs...)
}
