package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"aegis-ledger/internal/domain"
)

// RedisSnapshotStore guarda el snapshot y el nombre de usuario bajo dos
// claves prefijadas. Cada llamada lleva su propio timeout corto para que
// un redis caido degrade rapido en vez de colgar al llamador.
type RedisSnapshotStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

func NewRedisSnapshotStore(client *redis.Client) *RedisSnapshotStore {
	if client == nil {
		return nil
	}
	return &RedisSnapshotStore{
		client:  client,
		prefix:  "ledger:",
		timeout: 500 * time.Millisecond,
	}
}

func (s *RedisSnapshotStore) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Set(ctx, s.prefix+"snapshot", data, 0).Err()
}

func (s *RedisSnapshotStore) LoadSnapshot(ctx context.Context) (domain.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.prefix+"snapshot").Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, nil
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

func (s *RedisSnapshotStore) SaveUserName(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Set(ctx, s.prefix+"user_name", name, 0).Err()
}

func (s *RedisSnapshotStore) LoadUserName(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	name, err := s.client.Get(ctx, s.prefix+"user_name").Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get user name: %w", err)
	}
	return name, nil
}
