package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"aegis-ledger/internal/domain"
	"aegis-ledger/internal/repository"
)

// PersistenceBridge sincroniza el ledger con el almacenamiento durable.
// La escritura es best-effort: un fallo de storage degrada a warning y
// el estado en memoria sigue siendo la verdad.
type PersistenceBridge struct {
	store  repository.SnapshotStore
	logger *zap.Logger
}

func NewPersistenceBridge(store repository.SnapshotStore, logger *zap.Logger) *PersistenceBridge {
	return &PersistenceBridge{store: store, logger: logger}
}

// Save escribe el snapshot completo. Nunca propaga el error: un storage
// lleno o caido no debe tumbar al controlador de conversacion.
func (b *PersistenceBridge) Save(ctx context.Context, snap domain.Snapshot) {
	if b == nil || b.store == nil {
		return
	}
	if err := b.store.SaveSnapshot(ctx, snap); err != nil {
		b.logger.Warn("snapshot save failed, keeping in-memory state", zap.Error(err))
	}
}

// Load rehidrata el ultimo snapshot durable. Datos ausentes o corruptos
// devuelven un snapshot vacio, nunca un error fatal.
func (b *PersistenceBridge) Load(ctx context.Context) domain.Snapshot {
	if b == nil || b.store == nil {
		return domain.Snapshot{}
	}
	snap, err := b.store.LoadSnapshot(ctx)
	if err != nil {
		b.logger.Warn("snapshot load failed, starting empty", zap.Error(err))
		return domain.Snapshot{}
	}
	return snap
}

// SetUserName guarda el nombre visible bajo su clave propia, best-effort.
func (b *PersistenceBridge) SetUserName(ctx context.Context, name string) {
	if b == nil || b.store == nil {
		return
	}
	if err := b.store.SaveUserName(ctx, name); err != nil {
		b.logger.Warn("user name save failed", zap.Error(err))
	}
}

// UserName lee el nombre visible; ausente o con error devuelve vacio.
func (b *PersistenceBridge) UserName(ctx context.Context) string {
	if b == nil || b.store == nil {
		return ""
	}
	name, err := b.store.LoadUserName(ctx)
	if err != nil {
		b.logger.Warn("user name load failed", zap.Error(err))
		return ""
	}
	return name
}

// Export produce el volcado descargable de todas las sesiones. Solo lee,
// nunca muta el ledger.
func (b *PersistenceBridge) Export(snap domain.Snapshot, userName string, now time.Time) ([]byte, string, error) {
	artifact := domain.Export{
		Sessions:   snap.Sessions,
		ExportedAt: now,
		UserName:   userName,
	}
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("marshal export: %w", err)
	}
	filename := fmt.Sprintf("aegis-sessions-%s.json", now.Format("2006-01-02"))
	return data, filename, nil
}
