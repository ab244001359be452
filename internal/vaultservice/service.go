// Package vaultservice wires the core operations behind one explicit session
// object holding the vault root and configuration. There is no ambient
// global state: every caller constructs a Service and passes it around.
package vaultservice

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/starford/raido/internal/analytics"
	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/linkindex"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/mover"
	"github.com/starford/raido/internal/parser"
	"github.com/starford/raido/internal/search"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/validator"
)

// Settings is the per-session vault configuration.
type Settings struct {
	CaseSensitive bool
}

// Service is the session object composing parser, index, mover, validator,
// analytics, and search over one vault. Every operation walks the tree and
// builds a fresh index; nothing is cached across calls.
type Service struct {
	store    storage.Provider
	settings Settings
	logger   *slog.Logger
	engine   *mover.Engine
	checker  *validator.Checker
}

// New creates a vault service.
func New(store storage.Provider, settings Settings, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		settings: settings,
		logger:   logger,
		engine:   mover.New(store, settings.CaseSensitive, logger),
		checker:  validator.New(store, logger),
	}
}

// ParseNote reads one note from disk and parses it.
func (s *Service) ParseNote(_ context.Context, path string) (*models.Note, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return parser.Parse(path, data), nil
}

// ReadNote returns the raw bytes of a note.
func (s *Service) ReadNote(_ context.Context, path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// ListNotes returns metadata for every note in the vault.
func (s *Service) ListNotes(_ context.Context, dir string) ([]models.NoteMetadata, error) {
	return s.store.List(dir)
}

// BuildIndex walks the vault and builds a fresh link index.
func (s *Service) BuildIndex(_ context.Context) (*linkindex.Index, error) {
	return linkindex.Build(s.store, s.settings.CaseSensitive)
}

// PlanMoves validates a batch and reports what ApplyMoves would do, without
// writing anything.
func (s *Service) PlanMoves(_ context.Context, moves []models.Move, opts mover.Options) (*mover.Report, error) {
	opts.DryRun = true
	return s.engine.Apply(moves, opts)
}

// ApplyMoves runs a batch move: relocate files, then rewrite links.
func (s *Service) ApplyMoves(_ context.Context, moves []models.Move, opts mover.Options) (*mover.Report, error) {
	return s.engine.Apply(moves, opts)
}

// ValidateLinks rebuilds the index and runs a validation pass over it.
func (s *Service) ValidateLinks(ctx context.Context, opts validator.Options) (*validator.Report, error) {
	ix, err := s.BuildIndex(ctx)
	if err != nil {
		return nil, err
	}
	return s.checker.Run(ix, opts)
}

// AnalyzeVault rebuilds the index and computes the analytics report.
func (s *Service) AnalyzeVault(ctx context.Context) (*analytics.Report, error) {
	ix, err := s.BuildIndex(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Analyze(ix), nil
}

// Backlinks returns the identities of notes with a resolved link to target.
func (s *Service) Backlinks(ctx context.Context, target string) ([]string, error) {
	ix, err := s.BuildIndex(ctx)
	if err != nil {
		return nil, err
	}
	return ix.Backlinks(target), nil
}

// Search builds an in-memory full-text index from the current snapshot and
// queries it.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	ix, err := s.BuildIndex(ctx)
	if err != nil {
		return nil, err
	}
	db, err := search.Open()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if err := db.IndexSnapshot(ix); err != nil {
		return nil, err
	}
	return db.Search(query, limit)
}
