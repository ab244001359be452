package mover

import (
	"errors"
	"testing"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/testutil"
)

func newEngine(t *testing.T) (*Engine, storage.Provider) {
	t.Helper()
	_, store := testutil.TestVault(t)
	return New(store, false, nil), store
}

func readString(t *testing.T, store storage.Provider, path string) string {
	t.Helper()
	data, err := store.Read(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestMoveRewritesReferences(t *testing.T) {
	e, store := newEngine(t)
	testutil.WriteNote(t, store, "Notes/A.md", "See [[B]] and [[C|third]].\n")
	testutil.WriteNote(t, store, "Notes/B.md", "Next is [[C]].\n")
	testutil.WriteNote(t, store, "Notes/C.md", "Terminal.\n")

	report, err := e.Apply([]models.Move{{From: "Notes/B.md", To: "Archive/B.md"}}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if got := readString(t, store, "Notes/A.md"); got != "See [[Archive/B|B]] and [[C|third]].\n" {
		t.Errorf("A = %q", got)
	}
	// The moved file's own outbound links are untouched; targets keep
	// resolving by name.
	if got := readString(t, store, "Archive/B.md"); got != "Next is [[C]].\n" {
		t.Errorf("B = %q", got)
	}
	if _, err := store.Stat("Notes/B.md"); err == nil {
		t.Error("old path should be gone")
	}
	if report.FilesLinkUpdated != 1 {
		t.Errorf("FilesLinkUpdated = %d", report.FilesLinkUpdated)
	}
}

func TestMoveInversionRestoresBytes(t *testing.T) {
	e, store := newEngine(t)
	original := "See [[B]] once and [md](Notes/B.md) too.\n"
	testutil.WriteNote(t, store, "Notes/A.md", original)
	testutil.WriteNote(t, store, "Notes/B.md", "target\n")

	if _, err := e.Apply([]models.Move{{From: "Notes/B.md", To: "Archive/B.md"}}, Options{}); err != nil {
		t.Fatal(err)
	}
	moved := readString(t, store, "Notes/A.md")
	if moved != "See [[Archive/B|B]] once and [md](Archive/B.md) too.\n" {
		t.Fatalf("after move: %q", moved)
	}

	if _, err := e.Apply([]models.Move{{From: "Archive/B.md", To: "Notes/B.md"}}, Options{}); err != nil {
		t.Fatal(err)
	}
	if got := readString(t, store, "Notes/A.md"); got != original {
		t.Errorf("inverse move did not restore content:\n got %q\nwant %q", got, original)
	}
}

func TestMovePreservesExplicitAlias(t *testing.T) {
	e, store := newEngine(t)
	testutil.WriteNote(t, store, "A.md", "read [[B|the budget doc]]\n")
	testutil.WriteNote(t, store, "B.md", "x\n")

	if _, err := e.Apply([]models.Move{{From: "B.md", To: "Archive/B.md"}}, Options{}); err != nil {
		t.Fatal(err)
	}
	// Display text survives; the bare name still resolves uniquely.
	if got := readString(t, store, "A.md"); got != "read [[B|the budget doc]]\n" {
		t.Errorf("A = %q", got)
	}
}

func TestMoveDoesNotTouchPrefixNames(t *testing.T) {
	e, store := newEngine(t)
	testutil.WriteNote(t, store, "A.md", "[[Foo]] and [[Foobar]]\n")
	testutil.WriteNote(t, store, "Foo.md", "x\n")
	testutil.WriteNote(t, store, "Foobar.md", "y\n")

	if _, err := e.Apply([]models.Move{{From: "Foo.md", To: "Sub/Foo.md"}}, Options{}); err != nil {
		t.Fatal(err)
	}
	if got := readString(t, store, "A.md"); got != "[[Sub/Foo|Foo]] and [[Foobar]]\n" {
		t.Errorf("A = %q", got)
	}
}

func TestMoveBatchIsAtomicOnValidation(t *testing.T) {
	e, store := newEngine(t)
	testutil.WriteNote(t, store, "A.md", "x\n")

	_, err := e.Apply([]models.Move{
		{From: "A.md", To: "Moved/A.md"},
		{From: "Missing.md", To: "Moved/Missing.md"},
	}, Options{})

	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Paths) != 1 || verr.Paths[0] != "Missing.md" {
		t.Errorf("paths = %v", verr.Paths)
	}
	// Nothing was moved.
	if _, err := store.Stat("A.md"); err != nil {
		t.Error("A.md should be untouched")
	}
}

func TestMoveConflictWithoutForce(t *testing.T) {
	e, store := newEngine(t)
	testutil.WriteNote(t, store, "A.md", "x\n")
	testutil.WriteNote(t, store, "B.md", "y\n")

	_, err := e.Apply([]models.Move{{From: "A.md", To: "B.md"}}, Options{})
	var cerr *apperr.ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if len(cerr.Paths) != 1 || cerr.Paths[0] != "B.md" {
		t.Errorf("paths = %v", cerr.Paths)
	}
	if !errors.Is(err, apperr.ErrConflict) {
		t.Error("ConflictError should match ErrConflict")
	}

	// Force overwrites.
	if _, err := e.Apply([]models.Move{{From: "A.md", To: "B.md"}}, Options{Force: true}); err != nil {
		t.Fatal(err)
	}
	if got := readString(t, store, "B.md"); got != "x\n" {
		t.Errorf("B = %q", got)
	}
}

func TestMoveRejectsDuplicateDestinations(t *testing.T) {
	e, store := newEngine(t)
	testutil.WriteNote(t, store, "A.md", "x\n")
	testutil.WriteNote(t, store, "B.md", "y\n")

	_, err := e.Apply([]models.Move{
		{From: "A.md", To: "C.md"},
		{From: "B.md", To: "c.md"},
	}, Options{})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestMoveRejectsChainedMoves(t *testing.T) {
	e, store := newEngine(t)
	testutil.WriteNote(t, store, "A.md", "x\n")
	testutil.WriteNote(t, store, "B.md", "y\n")

	_, err := e.Apply([]models.Move{
		{From: "A.md", To: "B.md"},
		{From: "B.md", To: "C.md"},
	}, Options{})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestMoveRejectsEscape(t *testing.T) {
	e, store := newEngine(t)
	testutil.WriteNote(t, store, "A.md", "x\n")

	_, err := e.Apply([]models.Move{{From: "A.md", To: "../outside.md"}}, Options{})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestMoveRejectsEmptyBatch(t *testing.T) {
	e, _ := newEngine(t)
	_, err := e.Apply(nil, Options{})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestMoveDryRun(t *testing.T) {
	e, store := newEngine(t)
	testutil.WriteNote(t, store, "A.md", "link [[B]]\n")
	testutil.WriteNote(t, store, "B.md", "x\n")

	report, err := e.Apply([]models.Move{{From: "B.md", To: "Sub/B.md"}}, Options{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if !report.DryRun {
		t.Error("report should be marked dry-run")
	}
	if len(report.Moved) != 1 || report.Moved[0].To != "Sub/B.md" {
		t.Errorf("moved = %+v", report.Moved)
	}
	if report.FilesLinkUpdated != 1 {
		t.Errorf("FilesLinkUpdated = %d", report.FilesLinkUpdated)
	}
	// Nothing written.
	if _, err := store.Stat("Sub/B.md"); err == nil {
		t.Error("dry run must not move files")
	}
	if got := readString(t, store, "A.md"); got != "link [[B]]\n" {
		t.Errorf("dry run must not rewrite: %q", got)
	}
}

func TestMoveFolder(t *testing.T) {
	e, store := newEngine(t)
	testutil.WriteNote(t, store, "Projects/X.md", "see [[Y]]\n")
	testutil.WriteNote(t, store, "Projects/Sub/Y.md", "x\n")
	testutil.WriteNote(t, store, "Index.md", "all in [[Projects/X]] and [link](Projects/Sub/Y.md)\n")

	report, err := e.Apply([]models.Move{{From: "Projects", To: "Archive/Projects"}}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Moved) != 2 {
		t.Errorf("moved = %+v", report.Moved)
	}
	if _, err := store.Stat("Archive/Projects/Sub/Y.md"); err != nil {
		t.Errorf("moved file missing: %v", err)
	}
	got := readString(t, store, "Index.md")
	want := "all in [[Archive/Projects/X]] and [link](Archive/Projects/Sub/Y.md)\n"
	if got != want {
		t.Errorf("Index = %q, want %q", got, want)
	}
}

func TestMoveMultipleSameBatch(t *testing.T) {
	e, store := newEngine(t)
	testutil.WriteNote(t, store, "A.md", "[[B]] and [[C]]\n")
	testutil.WriteNote(t, store, "B.md", "x\n")
	testutil.WriteNote(t, store, "C.md", "y\n")

	_, err := e.Apply([]models.Move{
		{From: "B.md", To: "Sub/B.md"},
		{From: "C.md", To: "Sub/C.md"},
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := readString(t, store, "A.md"); got != "[[Sub/B|B]] and [[Sub/C|C]]\n" {
		t.Errorf("A = %q", got)
	}
}

func TestMoveRejectsNonMarkdownSource(t *testing.T) {
	_, store := testutil.TestVault(t)
	e := New(store, false, nil)
	if err := store.Write("asset.txt", []byte("x")); err != nil {
		t.Fatal(err)
	}
	_, err := e.Apply([]models.Move{{From: "asset.txt", To: "b.txt"}}, Options{})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestPlanExpandsFolders(t *testing.T) {
	e, store := newEngine(t)
	testutil.WriteNote(t, store, "P/a.md", "x\n")
	testutil.WriteNote(t, store, "P/b.md", "y\n")

	files, err := e.Plan([]models.Move{{From: "P", To: "Q"}}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %+v", files)
	}
	for _, m := range files {
		if m.From == "P/a.md" && m.To != "Q/a.md" {
			t.Errorf("a: %+v", m)
		}
		if m.From == "P/b.md" && m.To != "Q/b.md" {
			t.Errorf("b: %+v", m)
		}
	}
}
