package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "galleryboard:preview:"
	redisLiveSet   = "galleryboard:preview-live"
)

// RedisRegistry keeps preview bytes in redis. Entries carry no expiry: a handle stays
// readable until it is revoked, and leftovers of a previous run are removed on startup.
type RedisRegistry struct {
	client *redis.Client
}

// NewRedisRegistry connects to the redis server described by a redis:// URL or host:port.
func NewRedisRegistry(connectionString string) (*RedisRegistry, error) {
	opts, err := redis.ParseURL(connectionString)
	if err != nil {
		opts = &redis.Options{Addr: connectionString}
	}
	client := redis.NewClient(opts)
	registry, err := NewRedisRegistryWithClient(context.Background(), client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return registry, nil
}

// NewRedisRegistryWithClient wraps an existing client and drops handles left behind by a
// previous run. Sessions live in-process, so no earlier handle can still be referenced.
func NewRedisRegistryWithClient(ctx context.Context, client *redis.Client) (*RedisRegistry, error) {
	registry := &RedisRegistry{client: client}
	if err := registry.clearStale(ctx); err != nil {
		return nil, err
	}
	return registry, nil
}

func (r *RedisRegistry) clearStale(ctx context.Context) error {
	members, err := r.client.SMembers(ctx, redisLiveSet).Result()
	if err != nil {
		return fmt.Errorf("failed to list stale preview handles: %w", err)
	}
	keys := make([]string, 0, len(members)+1)
	for _, member := range members {
		keys = append(keys, redisKey(Handle(member)))
	}
	keys = append(keys, redisLiveSet)
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear stale preview handles: %w", err)
	}
	if len(members) > 0 {
		slog.Info("stale preview handles removed", "count", len(members), "backend", "redis")
	}
	return nil
}

func redisKey(h Handle) string {
	return redisKeyPrefix + h.ID()
}

func (r *RedisRegistry) CreateHandle(ctx context.Context, file *File) (Handle, error) {
	if err := validateFile(file); err != nil {
		return "", err
	}
	h, err := newHandle()
	if err != nil {
		return "", err
	}

	key := redisKey(h)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"name", file.Name,
			"content_type", file.ContentType,
			"data", file.Data,
		)
		pipe.SAdd(ctx, redisLiveSet, string(h))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to store preview handle: %w", err)
	}
	slog.Debug("preview handle created", "handle", h, "size_bytes", len(file.Data), "backend", "redis")
	return h, nil
}

func (r *RedisRegistry) RevokeHandle(ctx context.Context, h Handle) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisKey(h))
		pipe.SRem(ctx, redisLiveSet, string(h))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to revoke preview handle %s: %w", h, err)
	}
	slog.Debug("preview handle revoked", "handle", h, "backend", "redis")
	return nil
}

func (r *RedisRegistry) Open(ctx context.Context, h Handle) (*File, error) {
	values, err := r.client.HGetAll(ctx, redisKey(h)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read preview handle %s: %w", h, err)
	}
	if len(values) == 0 {
		return nil, ErrNotFound
	}
	return &File{
		Name:        values["name"],
		ContentType: values["content_type"],
		Data:        []byte(values["data"]),
	}, nil
}

// Live counts handles in the live set whose bytes are still stored. Members whose key was
// removed outside the registry are pruned from the set.
func (r *RedisRegistry) Live(ctx context.Context) (int, error) {
	members, err := r.client.SMembers(ctx, redisLiveSet).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list preview handles: %w", err)
	}
	live := 0
	for _, member := range members {
		n, err := r.client.Exists(ctx, redisKey(Handle(member))).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to check preview handle %s: %w", member, err)
		}
		if n > 0 {
			live++
			continue
		}
		if err := r.client.SRem(ctx, redisLiveSet, member).Err(); err != nil {
			slog.Warn("failed to prune preview handle from live set", "handle", member, "backend", "redis", "error", err)
		}
	}
	return live, nil
}

func (r *RedisRegistry) Close() error {
	return r.client.Close()
}
