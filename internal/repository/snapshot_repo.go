package repository

import (
	"context"

	"aegis-ledger/internal/domain"
)

// SnapshotStore es el almacenamiento durable clave-valor del ledger:
// una clave para el snapshot completo y otra chica para el nombre
// visible del usuario. No interpreta la semantica de las sesiones.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap domain.Snapshot) error
	LoadSnapshot(ctx context.Context) (domain.Snapshot, error)
	SaveUserName(ctx context.Context, name string) error
	LoadUserName(ctx context.Context) (string, error)
}
