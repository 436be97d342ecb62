package trustweight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultResolveTimeout bounds a whole batch resolution. On timeout
// the caller falls back to DefaultWeight for every user in the batch.
const DefaultResolveTimeout = 2 * time.Second

// weightKeyPrefix namespaces per-user trust weight keys in Redis.
const weightKeyPrefix = "trust:weight:"

// RedisResolver resolves trust weights from Redis, where the trust
// service maintains one key per user. A single MGET serves the whole
// batch so resolution cost does not grow with the event count.
type RedisResolver struct {
	client  *redis.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewRedisResolver creates a Redis-backed trust weight resolver.
// A zero timeout uses DefaultResolveTimeout.
func NewRedisResolver(client *redis.Client, timeout time.Duration, logger *slog.Logger) *RedisResolver {
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisResolver{client: client, timeout: timeout, logger: logger}
}

// BatchWeights resolves the batch with one MGET under the configured
// timeout. Unparseable values are skipped and logged so one corrupt
// key does not poison the batch.
func (r *RedisResolver) BatchWeights(ctx context.Context, userIDs []string) (map[string]float64, error) {
	if len(userIDs) == 0 {
		return map[string]float64{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = weightKeyPrefix + id
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("trust weight resolution timed out after %s: %w", r.timeout, err)
		}
		return nil, fmt.Errorf("failed to resolve trust weights: %w", err)
	}

	result := make(map[string]float64, len(userIDs))
	for i, v := range values {
		if v == nil {
			continue // unknown user, caller defaults
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		w, parseErr := strconv.ParseFloat(s, 64)
		if parseErr != nil {
			r.logger.Warn("skipping unparseable trust weight",
				"user_id", userIDs[i],
				"value", s)
			continue
		}
		result[userIDs[i]] = Clamp(w)
	}
	return result, nil
}
