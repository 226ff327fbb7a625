package domain

import "time"

// Snapshot es la forma serializada del ledger completo. El puente de
// persistencia solo lee y escribe esta estructura, nunca interpreta
// la semantica de las sesiones.
type Snapshot struct {
	Sessions []Session `json:"sessions"`
}

// Export es el artefacto descargable con todas las sesiones.
type Export struct {
	Sessions   []Session `json:"sessions"`
	ExportedAt time.Time `json:"exported_at"`
	UserName   string    `json:"user_name"`
}
