package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"aegis-ledger/internal/domain"
)

// ErrSessionNotFound indica que la operacion referencio un id inexistente.
// Es un error de logica del llamador, no una condicion esperada en runtime.
var ErrSessionNotFound = errors.New("session not found")

// DefaultMaxSessions es el limite de retencion por defecto.
const DefaultMaxSessions = 50

// DefaultSessionName es la etiqueta inicial de una sesion nueva.
const DefaultSessionName = "Guest Chat"

// SessionStore es la coleccion acotada de sesiones, ordenada por
// actualizacion mas reciente primero. Es el unico dueno de las sesiones
// y sus mensajes; ningun otro componente los muta directamente.
type SessionStore struct {
	mu       sync.Mutex
	sessions []domain.Session
	activeID string
	capacity int
	onChange func(domain.Snapshot)
	now      func() time.Time
}

// Option configura el SessionStore al construirlo.
type Option func(*SessionStore)

// WithCapacity fija el maximo de sesiones retenidas.
func WithCapacity(n int) Option {
	return func(s *SessionStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithClock reemplaza el reloj, util en tests.
func WithClock(now func() time.Time) Option {
	return func(s *SessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

func New(opts ...Option) *SessionStore {
	s := &SessionStore{
		capacity: DefaultMaxSessions,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registra el callback que se dispara tras cada mutacion, ya
// fuera del lock, con una copia profunda del estado. Es el enganche del
// puente de persistencia.
func (s *SessionStore) OnChange(fn func(domain.Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Create asigna una sesion vacia, la marca activa y la antepone al orden
// de recencia. Si se excede la capacidad, desaloja la mas antigua.
// Siempre tiene exito.
func (s *SessionStore) Create(name string) domain.Session {
	s.mu.Lock()
	created := s.createLocked(name)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return created
}

func (s *SessionStore) createLocked(name string) domain.Session {
	if name == "" {
		name = DefaultSessionName
	}
	now := s.now()
	session := domain.Session{
		ID:        uuid.NewString(),
		Name:      name,
		Messages:  []domain.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.sessions = append([]domain.Session{session}, s.sessions...)
	if len(s.sessions) > s.capacity {
		s.sessions = s.sessions[:s.capacity]
	}
	s.activeID = session.ID

	return session.Clone()
}

// SetActive marca la sesion como activa y la mueve al frente del orden.
func (s *SessionStore) SetActive(id string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	s.moveToFrontLocked(idx)
	s.activeID = id
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Delete elimina la sesion completa de forma atomica. Si era la activa,
// la siguiente por recencia pasa a ser activa; si no queda ninguna, se
// crea una nueva vacia en la misma operacion para sostener el invariante
// de exactamente-una-activa.
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrSessionNotFound
	}

	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	if s.activeID == id {
		if len(s.sessions) > 0 {
			s.activeID = s.sessions[0].ID
		} else {
			s.createLocked("")
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Rename cambia la etiqueta visible de la sesion.
func (s *SessionStore) Rename(id, name string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	s.sessions[idx].Name = name
	s.sessions[idx].UpdatedAt = s.now()
	s.moveToFrontLocked(idx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// UpsertMessages reemplaza la secuencia de mensajes de la sesion,
// recalcula todos los agregados derivados y actualiza UpdatedAt.
func (s *SessionStore) UpsertMessages(id string, messages []domain.Message) (domain.Session, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.Session{}, ErrSessionNotFound
	}

	s.sessions[idx].Messages = make([]domain.Message, len(messages))
	copy(s.sessions[idx].Messages, messages)
	s.sessions[idx].Recompute()
	s.sessions[idx].UpdatedAt = s.now()
	s.moveToFrontLocked(idx)

	updated := s.sessions[0].Clone()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return updated, nil
}

// Get devuelve una copia de la sesion.
func (s *SessionStore) Get(id string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.Session{}, ErrSessionNotFound
	}
	return s.sessions[idx].Clone(), nil
}

// Active devuelve la sesion activa. El bool es falso solo con el store vacio.
func (s *SessionStore) Active() (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(s.activeID)
	if idx < 0 {
		return domain.Session{}, false
	}
	return s.sessions[idx].Clone(), true
}

// ActiveID devuelve el id de la sesion activa.
func (s *SessionStore) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Sessions devuelve copias de todas las sesiones en orden de recencia.
func (s *SessionStore) Sessions() []domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out
}

// Len devuelve la cantidad de sesiones retenidas.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Snapshot produce la forma serializable del estado completo.
func (s *SessionStore) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Restore reemplaza el estado con un snapshot rehidratado. Recalcula los
// agregados por si el snapshot viene de una version que derivaba distinto
// y repara el puntero activo. No dispara el callback de cambio.
func (s *SessionStore) Restore(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]domain.Session, len(snap.Sessions))
	for i, sess := range snap.Sessions {
		sessions[i] = sess.Clone()
		sessions[i].Recompute()
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	if len(sessions) > s.capacity {
		sessions = sessions[:s.capacity]
	}
	s.sessions = sessions
	if len(s.sessions) > 0 {
		s.activeID = s.sessions[0].ID
	} else {
		s.activeID = ""
	}
}

func (s *SessionStore) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, sess := range s.sessions {
		if sess.ID == id {
			return i
		}
	}
	return -1
}

func (s *SessionStore) moveToFrontLocked(idx int) {
	if idx <= 0 {
		return
	}
	sess := s.sessions[idx]
	copy(s.sessions[1:idx+1], s.sessions[:idx])
	s.sessions[0] = sess
}

func (s *SessionStore) snapshotLocked() domain.Snapshot {
	sessions := make([]domain.Session, len(s.sessions))
	for i, sess := range s.sessions {
		sessions[i] = sess.Clone()
	}
	return domain.Snapshot{Sessions: sessions}
}

func (s *SessionStore) notify(snap domain.Snapshot) {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}
