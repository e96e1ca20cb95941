package automod

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// trackScript performs the read-modify-write of one rate record atomically on
// the Redis side, so concurrent messages for the same (guild, user) key are
// serialized without client-side locking. Keys expire on their own once a
// user goes quiet.
const trackScript = `
local data = redis.call('HMGET', KEYS[1], 'count', 'dupes', 'content', 'start')
local now = tonumber(ARGV[2])
local count = tonumber(data[1])
local dupes = tonumber(data[2])
local start = tonumber(data[4])
if not count or now - start > tonumber(ARGV[3]) then
  count = 1
  dupes = 0
  start = now
else
  count = count + 1
  if data[3] == ARGV[1] then
    dupes = dupes + 1
  else
    dupes = 0
  end
end
redis.call('HSET', KEYS[1], 'count', count, 'dupes', dupes, 'content', ARGV[1], 'start', start)
redis.call('EXPIRE', KEYS[1], ARGV[4])
return {count, dupes, start}
`

// RedisTracker is a Tracker backed by Redis, for deployments where more than
// one process consumes gateway events.
type RedisTracker struct {
	client rueidis.Client
	script *rueidis.Lua
	logger *zap.Logger
}

// NewRedisTracker creates a tracker on the given Redis client.
func NewRedisTracker(client rueidis.Client, logger *zap.Logger) *RedisTracker {
	return &RedisTracker{
		client: client,
		script: rueidis.NewLuaScript(trackScript),
		logger: logger.Named("rate_tracker"),
	}
}

// Track implements Tracker.
func (t *RedisTracker) Track(
	ctx context.Context, guildID, userID uint64, content string, now time.Time,
) (RateState, error) {
	key := fmt.Sprintf("rate:%d:%d", guildID, userID)
	windowSecs := int64(RateWindow / time.Second)

	// TTL of two windows keeps expired-but-recent records around long enough
	// for the script's own window check to handle the reset.
	resp := t.script.Exec(ctx, t.client,
		[]string{key},
		[]string{
			content,
			strconv.FormatInt(now.Unix(), 10),
			strconv.FormatInt(windowSecs, 10),
			strconv.FormatInt(windowSecs*2, 10),
		},
	)

	values, err := resp.AsIntSlice()
	if err != nil {
		t.logger.Error("Failed to update rate state",
			zap.Uint64("guildID", guildID),
			zap.Uint64("userID", userID),
			zap.Error(err))

		return RateState{}, fmt.Errorf("failed to update rate state: %w", err)
	}

	if len(values) != 3 {
		return RateState{}, fmt.Errorf("unexpected rate state reply of length %d", len(values))
	}

	return RateState{
		MessageCount:   int(values[0]),
		DuplicateCount: int(values[1]),
		WindowStart:    time.Unix(values[2], 0),
	}, nil
}
