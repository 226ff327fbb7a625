package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aegis-ledger/internal/domain"
)

// PgSnapshotStore persiste cada clave del ledger como una fila JSONB.
type PgSnapshotStore struct {
	pool *pgxpool.Pool
}

func NewPgSnapshotStore(pool *pgxpool.Pool) *PgSnapshotStore {
	return &PgSnapshotStore{pool: pool}
}

// EnsureSchema crea la tabla de snapshots si no existe.
func (r *PgSnapshotStore) EnsureSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS ledger_snapshots (
			key        TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	_, err := r.pool.Exec(ctx, query)
	return err
}

func (r *PgSnapshotStore) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return r.upsert(ctx, "snapshot", data)
}

func (r *PgSnapshotStore) LoadSnapshot(ctx context.Context) (domain.Snapshot, error) {
	data, err := r.get(ctx, "snapshot")
	if err != nil {
		return domain.Snapshot{}, err
	}
	if data == nil {
		return domain.Snapshot{}, nil
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

func (r *PgSnapshotStore) SaveUserName(ctx context.Context, name string) error {
	data, err := json.Marshal(name)
	if err != nil {
		return fmt.Errorf("marshal user name: %w", err)
	}
	return r.upsert(ctx, "user_name", data)
}

func (r *PgSnapshotStore) LoadUserName(ctx context.Context) (string, error) {
	data, err := r.get(ctx, "user_name")
	if err != nil {
		return "", err
	}
	if data == nil {
		return "", nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return "", fmt.Errorf("unmarshal user name: %w", err)
	}
	return name, nil
}

func (r *PgSnapshotStore) upsert(ctx context.Context, key string, data []byte) error {
	const query = `
		INSERT INTO ledger_snapshots (key, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`
	_, err := r.pool.Exec(ctx, query, key, data)
	return err
}

func (r *PgSnapshotStore) get(ctx context.Context, key string) ([]byte, error) {
	const query = `
		SELECT data
		FROM ledger_snapshots
		WHERE key = $1
	`
	var data []byte
	err := r.pool.QueryRow(ctx, query, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
