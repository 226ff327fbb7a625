package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"aegis-ledger/internal/domain"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	repo := NewFileSnapshotStore(path)
	ctx := context.Background()

	snap := domain.Snapshot{Sessions: []domain.Session{
		{
			ID:   "s1",
			Name: "chat",
			Messages: []domain.Message{
				{ID: "m1", Role: domain.RoleUser, Content: "hola", Status: domain.StatusSent, CreatedAt: time.Now().UTC().Truncate(time.Second)},
				{ID: "m2", Role: domain.RoleAssistant, Content: "ok", Status: domain.StatusSecured,
					Classification: &domain.Classification{Layers: []domain.LayerResult{
						{Layer: 1, Action: "PASSED", ThreatScore: 0.1},
					}}},
			},
			TotalUserMessages: 1,
			RiskScore:         0.05,
		},
	}}

	if err := repo.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	loaded, err := repo.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(loaded.Sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(loaded.Sessions))
	}
	got := loaded.Sessions[0]
	if got.ID != "s1" || got.Name != "chat" || len(got.Messages) != 2 {
		t.Fatalf("unexpected session %+v", got)
	}
	if got.Messages[1].Classification == nil || got.Messages[1].Classification.Layers[0].ThreatScore != 0.1 {
		t.Fatalf("expected classification preserved")
	}
	if got.RiskScore != 0.05 || got.TotalUserMessages != 1 {
		t.Fatalf("expected aggregates preserved, got %+v", got)
	}
}

func TestFileStore_MissingFileYieldsEmpty(t *testing.T) {
	repo := NewFileSnapshotStore(filepath.Join(t.TempDir(), "nope.json"))

	snap, err := repo.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(snap.Sessions) != 0 {
		t.Fatalf("expected empty snapshot")
	}
}

func TestFileStore_MalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	if err := os.WriteFile(path, []byte("{corrupt"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	repo := NewFileSnapshotStore(path)

	if _, err := repo.LoadSnapshot(context.Background()); err == nil {
		t.Fatalf("expected error on malformed snapshot")
	}
}

func TestFileStore_UserName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	repo := NewFileSnapshotStore(path)
	ctx := context.Background()

	if name, err := repo.LoadUserName(ctx); err != nil || name != "" {
		t.Fatalf("expected empty name, got %q err=%v", name, err)
	}
	if err := repo.SaveUserName(ctx, "Analyst"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	name, err := repo.LoadUserName(ctx)
	if err != nil || name != "Analyst" {
		t.Fatalf("expected round-tripped name, got %q err=%v", name, err)
	}
}

func TestFileStore_OverwriteKeepsLatest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	repo := NewFileSnapshotStore(path)
	ctx := context.Background()

	if err := repo.SaveSnapshot(ctx, domain.Snapshot{Sessions: []domain.Session{{ID: "a"}}}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := repo.SaveSnapshot(ctx, domain.Snapshot{Sessions: []domain.Session{{ID: "b"}}}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	snap, err := repo.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Sessions) != 1 || snap.Sessions[0].ID != "b" {
		t.Fatalf("expected last write to win, got %+v", snap.Sessions)
	}
}
