package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pdplab/pdplab-go/pkg/extractor"
	"github.com/pdplab/pdplab-go/pkg/models"
	"github.com/pdplab/pdplab-go/pkg/store"
)

type fakeExtractor struct {
	requests []extractor.Request
	deltas   *models.Deltas
	err      error
}

func (f *fakeExtractor) Extract(_ context.Context, req extractor.Request) (*models.Deltas, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.deltas, nil
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "worker_test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedDiscussion(t *testing.T, st store.Store) (*models.Discussion, *models.Statement, *models.Statement) {
	t.Helper()

	discussion := models.NewDiscussion("Initial session", "John")
	if err := st.SaveDiscussion(discussion); err != nil {
		t.Fatalf("Failed to save discussion: %v", err)
	}

	name := "Carol"
	prior := &models.Statement{
		DiscussionID: discussion.ID,
		Order:        1,
		SpeakerType:  models.SpeakerSubject,
		Text:         "My mother Carol raised me alone.",
		Extracting:   true,
		Deltas: &models.Deltas{
			People: []models.Person{{ID: -1, Name: &name}},
		},
	}
	if err := st.SaveStatement(prior); err != nil {
		t.Fatalf("Failed to save prior statement: %v", err)
	}

	pending := &models.Statement{
		DiscussionID: discussion.ID,
		Order:        2,
		SpeakerType:  models.SpeakerSubject,
		Text:         "She has been anxious since the move.",
		Extracting:   true,
	}
	if err := st.SaveStatement(pending); err != nil {
		t.Fatalf("Failed to save pending statement: %v", err)
	}

	return discussion, prior, pending
}

func TestExtractNextStatement(t *testing.T) {
	st := newTestStore(t)
	_, _, pending := seedDiscussion(t, st)

	up := models.ShiftUp
	ex := &fakeExtractor{deltas: &models.Deltas{
		Events: []models.Event{{ID: -1, Kind: models.EventShift, Anxiety: &up}},
	}}
	svc := NewService(st, ex, 1)

	processed, err := svc.ExtractNextStatement(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !processed {
		t.Fatal("Expected a statement to be processed")
	}

	if len(ex.requests) != 1 {
		t.Fatalf("Expected 1 extraction request, got %d", len(ex.requests))
	}
	req := ex.requests[0]
	if req.SpeakerName != "John" {
		t.Errorf("Expected speaker John, got %q", req.SpeakerName)
	}
	if len(req.History) != 1 || req.History[0].Text != "My mother Carol raised me alone." {
		t.Errorf("Expected prior statement in history, got %+v", req.History)
	}
	if len(req.Current.People) != 1 || req.Current.People[0].Name == nil || *req.Current.People[0].Name != "Carol" {
		t.Errorf("Expected cumulative model with Carol, got %+v", req.Current.People)
	}
	if req.Text != pending.Text {
		t.Errorf("Expected pending statement text, got %q", req.Text)
	}

	stored, err := st.GetStatement(pending.ID)
	if err != nil {
		t.Fatalf("Failed to load statement: %v", err)
	}
	if stored.Deltas == nil || len(stored.Deltas.Events) != 1 {
		t.Errorf("Expected committed deltas, got %+v", stored.Deltas)
	}
}

func TestExtractNextStatementNoPending(t *testing.T) {
	st := newTestStore(t)

	svc := NewService(st, &fakeExtractor{deltas: &models.Deltas{}}, 1)
	processed, err := svc.ExtractNextStatement(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if processed {
		t.Error("Expected no statement to be processed")
	}
}

func TestExtractNextStatementFailureLeavesDeltaAbsent(t *testing.T) {
	st := newTestStore(t)
	_, _, pending := seedDiscussion(t, st)

	ex := &fakeExtractor{err: errors.New("model unavailable")}
	svc := NewService(st, ex, 1)

	processed, err := svc.ExtractNextStatement(context.Background())
	if err != nil {
		t.Fatalf("Expected extraction failure to be swallowed, got %v", err)
	}
	if processed {
		t.Error("Expected failed statement not to count as processed")
	}

	stored, err := st.GetStatement(pending.ID)
	if err != nil {
		t.Fatalf("Failed to load statement: %v", err)
	}
	if stored.Deltas != nil {
		t.Errorf("Expected deltas to stay absent after failure, got %+v", stored.Deltas)
	}

	// The statement stays pending, so a later run retries it.
	next, err := st.NextPendingStatement()
	if err != nil {
		t.Fatalf("Failed to query pending: %v", err)
	}
	if next == nil || next.ID != pending.ID {
		t.Errorf("Expected statement %d to remain pending, got %+v", pending.ID, next)
	}
}

func TestRunBatch(t *testing.T) {
	st := newTestStore(t)
	discussion := models.NewDiscussion("Batch session", "Mary")
	if err := st.SaveDiscussion(discussion); err != nil {
		t.Fatalf("Failed to save discussion: %v", err)
	}
	for i := 1; i <= 3; i++ {
		stmt := &models.Statement{
			DiscussionID: discussion.ID,
			Order:        i,
			SpeakerType:  models.SpeakerSubject,
			Text:         "statement",
			Extracting:   true,
		}
		if err := st.SaveStatement(stmt); err != nil {
			t.Fatalf("Failed to save statement: %v", err)
		}
	}

	ex := &fakeExtractor{deltas: &models.Deltas{}}
	svc := NewService(st, ex, 2)
	svc.RunBatch(context.Background())

	if len(ex.requests) != 2 {
		t.Errorf("Expected batch of 2 extractions, got %d", len(ex.requests))
	}

	next, err := st.NextPendingStatement()
	if err != nil {
		t.Fatalf("Failed to query pending: %v", err)
	}
	if next == nil {
		t.Error("Expected one statement still pending after batch")
	}
}
