package cache

import (
	"context"
	"strings"
	"time"
)

const (
	TopicStatsKey = "stats:topics"
)

// TopicStatsTTL bounds staleness of the topic aggregate. Overridden from configuration at startup.
var TopicStatsTTL = 30 * time.Second

// SetTopicStatsTTL applies a configured TTL in seconds; non-positive values keep the default.
func SetTopicStatsTTL(seconds int) {
	if seconds > 0 {
		TopicStatsTTL = time.Duration(seconds) * time.Second
	}
}

// InvalidateTopicStats drops the cached topic aggregate after a post is created or removed.
func InvalidateTopicStats(ctx context.Context) {
	Invalidate(ctx, TopicStatsKey)
}

func keyFamily(key string) string {
	if i := strings.Index(key, ":"); i > 0 {
		return key[:i]
	}
	return key
}
