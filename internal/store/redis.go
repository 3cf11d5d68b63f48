package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const jobKeyPrefix = "job:"

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisJobStore keeps each job as a Redis hash with a per-key TTL.
type RedisJobStore struct {
	client *redis.Client
}

func NewRedisJobStore(ctx context.Context, cfg RedisConfig) (*RedisJobStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisJobStore{client: client}, nil
}

func (s *RedisJobStore) Close() error {
	return s.client.Close()
}

func (s *RedisJobStore) SetFields(ctx context.Context, jobID string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	values := make(map[string]any, len(fields))
	for key, value := range fields {
		values[key] = value
	}
	if err := s.client.HSet(ctx, jobKey(jobID), values).Err(); err != nil {
		return fmt.Errorf("hset job fields: %w", err)
	}
	return nil
}

func (s *RedisJobStore) GetAll(ctx context.Context, jobID string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall job: %w", err)
	}
	// HGETALL returns an empty map for missing keys.
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return fields, nil
}

func (s *RedisJobStore) Exists(ctx context.Context, jobID string) (bool, error) {
	count, err := s.client.Exists(ctx, jobKey(jobID)).Result()
	if err != nil {
		return false, fmt.Errorf("exists job: %w", err)
	}
	return count > 0, nil
}

func (s *RedisJobStore) Expire(ctx context.Context, jobID string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, jobKey(jobID), ttl).Err(); err != nil {
		return fmt.Errorf("expire job: %w", err)
	}
	return nil
}

func jobKey(jobID string) string {
	return jobKeyPrefix + jobID
}
