package store

import (
	"testing"
	"time"

	"aegis-ledger/internal/domain"
)

func TestCreate_SetsActiveAndPrepends(t *testing.T) {
	s := New()

	first := s.Create("uno")
	second := s.Create("dos")

	if s.ActiveID() != second.ID {
		t.Fatalf("expected newest session active, got %q", s.ActiveID())
	}
	sessions := s.Sessions()
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != second.ID || sessions[1].ID != first.ID {
		t.Fatalf("expected recency order newest-first")
	}
	if first.Name != "uno" {
		t.Fatalf("expected name preserved, got %q", first.Name)
	}
}

func TestCreate_DefaultName(t *testing.T) {
	s := New()
	created := s.Create("")
	if created.Name != DefaultSessionName {
		t.Fatalf("expected default name, got %q", created.Name)
	}
}

func TestCreate_EvictsOldestBeyondCapacity(t *testing.T) {
	s := New()

	firstID := s.Create("primera").ID
	for i := 1; i < DefaultMaxSessions+1; i++ {
		s.Create("otra")
	}

	if got := s.Len(); got != DefaultMaxSessions {
		t.Fatalf("expected %d sessions after 51 creates, got %d", DefaultMaxSessions, got)
	}
	if _, err := s.Get(firstID); err == nil {
		t.Fatalf("expected first session evicted")
	}
}

func TestCreate_SmallCapacity(t *testing.T) {
	s := New(WithCapacity(2))
	s.Create("a")
	b := s.Create("b")
	c := s.Create("c")

	if s.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", s.Len())
	}
	sessions := s.Sessions()
	if sessions[0].ID != c.ID || sessions[1].ID != b.ID {
		t.Fatalf("expected only the two newest retained")
	}
}

func TestSetActive(t *testing.T) {
	s := New()
	first := s.Create("uno")
	s.Create("dos")

	if err := s.SetActive(first.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.ActiveID() != first.ID {
		t.Fatalf("expected %q active", first.ID)
	}
	if s.Sessions()[0].ID != first.ID {
		t.Fatalf("expected activated session moved to front")
	}

	if err := s.SetActive("nope"); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDelete_ActivePicksNextMostRecent(t *testing.T) {
	s := New()
	older := s.Create("vieja")
	active := s.Create("activa")

	if err := s.Delete(active.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.ActiveID() != older.ID {
		t.Fatalf("expected next-most-recent active, got %q", s.ActiveID())
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", s.Len())
	}
}

func TestDelete_LastSessionRecreatesAtomically(t *testing.T) {
	s := New()
	only := s.Create("unica")

	if err := s.Delete(only.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected fresh session after deleting last, got %d", s.Len())
	}
	if s.ActiveID() == "" || s.ActiveID() == only.ID {
		t.Fatalf("expected a new active session, got %q", s.ActiveID())
	}
}

func TestDelete_InactiveKeepsActive(t *testing.T) {
	s := New()
	older := s.Create("vieja")
	active := s.Create("activa")

	if err := s.Delete(older.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.ActiveID() != active.ID {
		t.Fatalf("expected active unchanged")
	}
}

func TestDelete_NotFound(t *testing.T) {
	s := New()
	s.Create("una")
	if err := s.Delete("nope"); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestUpsertMessages_RecomputesAggregates(t *testing.T) {
	s := New()
	created := s.Create("chat")

	messages := []domain.Message{
		{ID: "m1", Role: domain.RoleUser, Content: "hola", Status: domain.StatusSent},
		{ID: "m2", Role: domain.RoleAssistant, Content: "", Status: domain.StatusBlocked,
			Classification: &domain.Classification{Blocked: true, Layers: []domain.LayerResult{
				{Layer: 1, Action: "BLOCKED", ThreatScore: 0.9},
			}}},
	}
	updated, err := s.UpsertMessages(created.ID, messages)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.TotalUserMessages != 1 {
		t.Fatalf("expected 1 user message, got %d", updated.TotalUserMessages)
	}
	if updated.BlockedMessages != 1 {
		t.Fatalf("expected 1 blocked message, got %d", updated.BlockedMessages)
	}
	if updated.RiskScore != 0.45 {
		t.Fatalf("expected risk 0.45, got %v", updated.RiskScore)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Fatalf("expected updated_at >= created_at")
	}

	if _, err := s.UpsertMessages("nope", nil); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestUpsertMessages_MovesSessionToFront(t *testing.T) {
	s := New()
	older := s.Create("vieja")
	s.Create("nueva")

	if _, err := s.UpsertMessages(older.ID, []domain.Message{
		{ID: "m1", Role: domain.RoleUser, Content: "hola", Status: domain.StatusSent},
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.Sessions()[0].ID != older.ID {
		t.Fatalf("expected upserted session at front")
	}
}

func TestRename(t *testing.T) {
	s := New()
	created := s.Create("antes")

	if err := s.Rename(created.ID, "despues"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got, _ := s.Get(created.ID)
	if got.Name != "despues" {
		t.Fatalf("expected renamed session, got %q", got.Name)
	}
	if err := s.Rename("nope", "x"); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestOnChange_FiresAfterMutations(t *testing.T) {
	s := New()
	var snaps []domain.Snapshot
	s.OnChange(func(snap domain.Snapshot) {
		snaps = append(snaps, snap)
	})

	created := s.Create("chat")
	if _, err := s.UpsertMessages(created.ID, []domain.Message{
		{ID: "m1", Role: domain.RoleUser, Content: "hola", Status: domain.StatusSent},
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := s.Delete(created.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(snaps) != 3 {
		t.Fatalf("expected 3 change notifications, got %d", len(snaps))
	}
	if len(snaps[1].Sessions[0].Messages) != 1 {
		t.Fatalf("expected snapshot to carry the upserted message")
	}
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	s := New()
	created := s.Create("chat")
	if _, err := s.UpsertMessages(created.ID, []domain.Message{
		{ID: "m1", Role: domain.RoleUser, Content: "hola", Status: domain.StatusSent, CreatedAt: time.Now().UTC()},
		{ID: "m2", Role: domain.RoleAssistant, Content: "ok", Status: domain.StatusSecured,
			Classification: &domain.Classification{Layers: []domain.LayerResult{
				{Layer: 1, Action: "PASSED", ThreatScore: 0.1},
			}}},
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	snap := s.Snapshot()

	restored := New()
	restored.Restore(snap)

	if restored.Len() != s.Len() {
		t.Fatalf("expected same session count")
	}
	got, err := restored.Get(created.ID)
	if err != nil {
		t.Fatalf("expected session restored, got %v", err)
	}
	orig, _ := s.Get(created.ID)
	if got.RiskScore != orig.RiskScore || got.TotalUserMessages != orig.TotalUserMessages || got.BlockedMessages != orig.BlockedMessages {
		t.Fatalf("expected aggregates preserved: got %+v want %+v", got, orig)
	}
	if len(got.Messages) != 2 || got.Messages[1].Classification == nil {
		t.Fatalf("expected messages and classification preserved")
	}
	if restored.ActiveID() != created.ID {
		t.Fatalf("expected most recent session active after restore")
	}
}

func TestRestore_SortsByRecencyAndTrims(t *testing.T) {
	now := time.Now().UTC()
	snap := domain.Snapshot{Sessions: []domain.Session{
		{ID: "a", Name: "a", UpdatedAt: now.Add(-2 * time.Hour)},
		{ID: "b", Name: "b", UpdatedAt: now},
		{ID: "c", Name: "c", UpdatedAt: now.Add(-1 * time.Hour)},
	}}

	s := New(WithCapacity(2))
	s.Restore(snap)

	if s.Len() != 2 {
		t.Fatalf("expected trim to capacity, got %d", s.Len())
	}
	sessions := s.Sessions()
	if sessions[0].ID != "b" || sessions[1].ID != "c" {
		t.Fatalf("expected recency order b,c got %s,%s", sessions[0].ID, sessions[1].ID)
	}
	if s.ActiveID() != "b" {
		t.Fatalf("expected most recent active, got %q", s.ActiveID())
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := New()
	created := s.Create("chat")
	if _, err := s.UpsertMessages(created.ID, []domain.Message{
		{ID: "m1", Role: domain.RoleUser, Content: "hola", Status: domain.StatusSent},
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got, _ := s.Get(created.ID)
	got.Messages[0].Content = "mutado"

	again, _ := s.Get(created.ID)
	if again.Messages[0].Content != "hola" {
		t.Fatalf("expected store state isolated from caller mutation")
	}
}
