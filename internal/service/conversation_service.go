package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aegis-ledger/internal/classifier"
	"aegis-ledger/internal/domain"
	"aegis-ledger/internal/store"
)

// Textos fijos mostrados al usuario en lugar de detalles de transporte.
const (
	FallbackBlockedContent     = "Your message was blocked by the security layer."
	FallbackUnavailableContent = "I'm currently unable to process your request. Please try again later."
)

var (
	ErrEmptyMessage       = errors.New("message empty")
	ErrSubmissionInFlight = errors.New("submission already in flight")
)

// ConversationService orquesta el ciclo de un turno: anexa el mensaje
// del usuario, llama al clasificador externo y reconcilia el resultado
// (o el fallo) en el ledger.
type ConversationService struct {
	sessions   *store.SessionStore
	classifier classifier.Client
	logger     *zap.Logger
	timeout    time.Duration
	inFlight   atomic.Bool
	now        func() time.Time
}

// SubmitResult es el resultado de un turno completo.
type SubmitResult struct {
	UserMessage      domain.Message `json:"user_message"`
	AssistantMessage domain.Message `json:"assistant_message"`
	Session          domain.Session `json:"session"`
}

func NewConversationService(
	sessions *store.SessionStore,
	cls classifier.Client,
	logger *zap.Logger,
	timeout time.Duration,
) *ConversationService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ConversationService{
		sessions:   sessions,
		classifier: cls,
		logger:     logger,
		timeout:    timeout,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Submit procesa un turno. Rechaza el envio si otro sigue en vuelo; el
// guard se libera en todos los caminos de salida. El estado intermedio
// (mensaje del usuario + placeholder processing) se persiste antes de
// llamar al clasificador, asi un reinicio a mitad de vuelo no lo pierde.
func (s *ConversationService) Submit(ctx context.Context, sessionID, text, role string) (SubmitResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return SubmitResult{}, ErrEmptyMessage
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return SubmitResult{}, ErrSubmissionInFlight
	}
	defer s.inFlight.Store(false)

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return SubmitResult{}, err
	}

	now := s.now()
	userMsg := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Content:   text,
		Status:    domain.StatusSent,
		CreatedAt: now,
	}
	placeholder := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   "",
		Status:    domain.StatusProcessing,
		CreatedAt: now,
	}

	messages := append(session.Messages, userMsg, placeholder)
	if _, err := s.sessions.UpsertMessages(sessionID, messages); err != nil {
		return SubmitResult{}, err
	}

	if role == "" {
		role = "guest"
	}
	scanCtx, cancel := context.WithTimeout(ctx, s.timeout)
	verdict, scanErr := s.classifier.Scan(scanCtx, classifier.Request{
		Message:   text,
		SessionID: sessionID,
		Role:      role,
	})
	cancel()

	updated, assistant, err := s.reconcile(sessionID, placeholder.ID, verdict, scanErr)
	if err != nil {
		return SubmitResult{}, err
	}

	return SubmitResult{
		UserMessage:      userMsg,
		AssistantMessage: assistant,
		Session:          updated,
	}, nil
}

// reconcile aplica el veredicto (o el fallo) sobre el placeholder,
// correlacionando por id de mensaje. Solo aplica si el mensaje sigue en
// processing: una respuesta tardia o duplicada se descarta.
func (s *ConversationService) reconcile(sessionID, messageID string, verdict classifier.Verdict, scanErr error) (domain.Session, domain.Message, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return domain.Session{}, domain.Message{}, err
	}

	idx := -1
	for i, m := range session.Messages {
		if m.ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 || session.Messages[idx].Status != domain.StatusProcessing {
		s.logger.Warn("stale classifier response dropped",
			zap.String("session_id", sessionID),
			zap.String("message_id", messageID),
		)
		return session, domain.Message{}, nil
	}

	msg := &session.Messages[idx]
	switch {
	case scanErr != nil:
		// Fail-closed: cualquier fallo de transporte o protocolo bloquea.
		s.logger.Warn("classifier call failed, blocking message",
			zap.Error(scanErr),
			zap.String("session_id", sessionID),
		)
		msg.Status = domain.StatusBlocked
		msg.Content = FallbackUnavailableContent
	case verdict.Blocked:
		msg.Status = domain.StatusBlocked
		msg.Content = verdict.Response
		if msg.Content == "" {
			msg.Content = FallbackBlockedContent
		}
		msg.Classification = &domain.Classification{Blocked: true, Layers: verdict.Layers}
	default:
		msg.Status = domain.StatusSecured
		msg.Content = verdict.Response
		msg.Classification = &domain.Classification{Blocked: false, Layers: verdict.Layers}
	}

	updated, err := s.sessions.UpsertMessages(sessionID, session.Messages)
	if err != nil {
		return domain.Session{}, domain.Message{}, err
	}

	var assistant domain.Message
	for _, m := range updated.Messages {
		if m.ID == messageID {
			assistant = m
			break
		}
	}
	return updated, assistant, nil
}

// Processing indica si hay un envio en vuelo en este controlador.
func (s *ConversationService) Processing() bool {
	return s.inFlight.Load()
}
