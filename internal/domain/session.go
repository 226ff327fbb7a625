package domain

import "time"

// Session es un hilo de conversacion con sus agregados derivados.
// Los campos derivados nunca se escriben directamente: solo Recompute
// puede actualizarlos a partir de Messages.
type Session struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Messages          []Message `json:"messages"`
	TotalUserMessages int       `json:"total_user_messages"`
	BlockedMessages   int       `json:"blocked_messages"`
	RiskScore         float64   `json:"risk_score"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Recompute recalcula todos los agregados desde cero a partir de la
// lista de mensajes. Se recalcula completo en cada mutacion para que
// los derivados nunca diverjan del estado crudo.
func (s *Session) Recompute() {
	var users, blocked int
	var threat float64

	for _, m := range s.Messages {
		if m.Role == RoleUser {
			users++
		}
		if m.Status == StatusBlocked {
			blocked++
		}
		threat += m.Classification.ThreatTotal()
	}

	s.TotalUserMessages = users
	s.BlockedMessages = blocked
	s.RiskScore = clamp01(threat / float64(max(len(s.Messages), 1)))
}

// Clone devuelve una copia profunda de la sesion.
func (s Session) Clone() Session {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	for i, m := range s.Messages {
		if m.Classification != nil {
			c := *m.Classification
			c.Layers = make([]LayerResult, len(m.Classification.Layers))
			copy(c.Layers, m.Classification.Layers)
			out.Messages[i].Classification = &c
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
