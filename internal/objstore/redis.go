package objstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps objects in Redis hashes, one hash per object with data and
// content-type fields. Useful when multiple gateway instances share state.
type RedisStore struct {
	client *redis.Client
	prefix string
	bucket string
}

func NewRedisStore(addr, password string, db int, prefix, bucket string) (*RedisStore, error) {
	if prefix == "" {
		prefix = "stdapi:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	return &RedisStore{client: client, prefix: prefix, bucket: bucket}, nil
}

// NewRedisStoreWithClient wires an existing client, used in tests.
func NewRedisStoreWithClient(client *redis.Client, prefix, bucket string) *RedisStore {
	if prefix == "" {
		prefix = "stdapi:"
	}
	return &RedisStore{client: client, prefix: prefix, bucket: bucket}
}

func (r *RedisStore) redisKey(key string) string {
	return r.prefix + "obj:" + key
}

func (r *RedisStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := r.client.HSet(ctx, r.redisKey(key), "data", data, "ct", contentType).Err(); err != nil {
		return "", fmt.Errorf("failed to store object %s: %w", key, err)
	}
	return formatRef(r.bucket, key), nil
}

func (r *RedisStore) Get(ctx context.Context, ref string) ([]byte, string, error) {
	_, key, err := ParseRef(ref)
	if err != nil {
		return nil, "", err
	}
	vals, err := r.client.HGetAll(ctx, r.redisKey(key)).Result()
	if err != nil {
		return nil, "", err
	}
	if len(vals) == 0 {
		return nil, "", &ErrNotFound{Ref: ref}
	}
	return []byte(vals["data"]), vals["ct"], nil
}

func (r *RedisStore) Delete(ctx context.Context, ref string) error {
	_, key, err := ParseRef(ref)
	if err != nil {
		return err
	}
	return r.client.Del(ctx, r.redisKey(key)).Err()
}

func (r *RedisStore) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
