package domain

import "time"

// MessageStatus representa el ciclo de vida de un mensaje.
// Las transiciones solo avanzan: sent y processing son iniciales,
// secured y blocked son terminales.
type MessageStatus string

const (
	StatusSent       MessageStatus = "sent"
	StatusProcessing MessageStatus = "processing"
	StatusSecured    MessageStatus = "secured"
	StatusBlocked    MessageStatus = "blocked"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message es un turno de conversacion. Inmutable una vez en estado terminal.
type Message struct {
	ID             string          `json:"id"`
	Role           string          `json:"role"`
	Content        string          `json:"content"`
	Status         MessageStatus   `json:"status"`
	Classification *Classification `json:"classification,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Classification es el veredicto estructurado del clasificador externo.
type Classification struct {
	Blocked bool          `json:"blocked"`
	Layers  []LayerResult `json:"layers"`
}

// LayerResult es la decision de una capa del pipeline de seguridad.
type LayerResult struct {
	Layer       int     `json:"layer"`
	Action      string  `json:"action"`
	ThreatScore float64 `json:"threat_score"`
}

// ThreatTotal suma los threat scores de todas las capas del veredicto.
func (c *Classification) ThreatTotal() float64 {
	if c == nil {
		return 0
	}
	var total float64
	for _, l := range c.Layers {
		total += l.ThreatScore
	}
	return total
}

// Terminal indica si el estado ya no admite transiciones.
func (s MessageStatus) Terminal() bool {
	return s == StatusSecured || s == StatusBlocked
}
