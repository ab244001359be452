package vaultservice

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/mover"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/testutil"
	"github.com/starford/raido/internal/validator"
)

func testService(t *testing.T) (*Service, storage.Provider) {
	t.Helper()
	_, store := testutil.TestVault(t)
	return New(store, Settings{}, nil), store
}

func TestParseNote(t *testing.T) {
	svc, store := testService(t)
	testutil.WriteNote(t, store, "Notes/a.md", "---\ntitle: A\n---\n# Heading\n[[b]]\n")

	note, err := svc.ParseNote(context.Background(), "Notes/a.md")
	if err != nil {
		t.Fatal(err)
	}
	if note.Identity != "Notes/a" || note.Title != "Heading" {
		t.Errorf("note = %+v", note)
	}
	if len(note.Links) != 1 {
		t.Errorf("links = %+v", note.Links)
	}
}

func TestParseNoteNotFound(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.ParseNote(context.Background(), "missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReadNoteNotFound(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.ReadNote(context.Background(), "missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPlanMovesForcesDryRun(t *testing.T) {
	svc, store := testService(t)
	testutil.WriteNote(t, store, "a.md", "x\n")

	report, err := svc.PlanMoves(context.Background(), []models.Move{{From: "a.md", To: "b.md"}}, mover.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !report.DryRun {
		t.Error("plan must be a dry run")
	}
	if _, err := store.Stat("b.md"); err == nil {
		t.Error("plan must not move files")
	}
}

func TestApplyMovesEndToEnd(t *testing.T) {
	svc, store := testService(t)
	testutil.WriteNote(t, store, "a.md", "see [[b]]\n")
	testutil.WriteNote(t, store, "b.md", "x\n")

	report, err := svc.ApplyMoves(context.Background(), []models.Move{{From: "b.md", To: "sub/b.md"}}, mover.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Moved) != 1 || report.FilesLinkUpdated != 1 {
		t.Errorf("report = %+v", report)
	}
	data, err := store.Read("a.md")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "see [[sub/b|b]]\n" {
		t.Errorf("a = %q", data)
	}
}

func TestValidateLinksRebuildsIndex(t *testing.T) {
	svc, store := testService(t)
	testutil.WriteNote(t, store, "a.md", "[[nowhere]]\n")

	report, err := svc.ValidateLinks(context.Background(), validator.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Broken) != 1 {
		t.Fatalf("broken = %+v", report.Broken)
	}

	// After the target appears, a fresh pass sees it resolved.
	testutil.WriteNote(t, store, "nowhere.md", "x\n")
	report, err = svc.ValidateLinks(context.Background(), validator.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Broken) != 0 {
		t.Errorf("broken = %+v", report.Broken)
	}
}

func TestBacklinks(t *testing.T) {
	svc, store := testService(t)
	testutil.WriteNote(t, store, "a.md", "[[b]]\n")
	testutil.WriteNote(t, store, "b.md", "x\n")

	bl, err := svc.Backlinks(context.Background(), "b")
	if err != nil {
		t.Fatal(err)
	}
	if len(bl) != 1 || bl[0] != "a" {
		t.Errorf("backlinks = %v", bl)
	}
}

func TestAnalyzeVault(t *testing.T) {
	svc, store := testService(t)
	testutil.WriteNote(t, store, "a.md", "#tag [[b]]\n")
	testutil.WriteNote(t, store, "b.md", "x\n")

	report, err := svc.AnalyzeVault(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Notes != 2 || report.Graph.Edges != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestSearch(t *testing.T) {
	svc, store := testService(t)
	testutil.WriteNote(t, store, "a.md", "the blue whale\n")
	testutil.WriteNote(t, store, "b.md", "a red fox\n")

	hits, err := svc.Search(context.Background(), "whale", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Path != "a.md" {
		t.Errorf("hits = %+v", hits)
	}
}
