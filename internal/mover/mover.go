// Package mover applies batch note moves and rewrites referencing links so
// resolved targets keep pointing at the same logical note afterwards.
//
// The contract is two-phase: every precondition for the whole batch is
// validated before any file is touched (all-or-nothing), then files are
// physically moved, then links are rewritten best-effort per file.
package mover

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/resolve"
	"github.com/starford/raido/internal/storage"
)

// Options controls a batch move.
type Options struct {
	Force  bool `json:"force"`   // overwrite existing destinations
	DryRun bool `json:"dry_run"` // plan only, write nothing
}

// Rewrite describes the link changes in one referencing file.
type Rewrite struct {
	Path  string `json:"path"`
	Links int    `json:"links"`
}

// FileError records a per-file failure during the rewrite phase. These are
// recovered locally: the file is skipped and the batch continues.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Report is the outcome of a batch move. FilesLinkUpdated counts files whose
// links changed, not individual links.
type Report struct {
	Moved            []models.Move `json:"moved"`
	FilesLinkUpdated int           `json:"files_link_updated"`
	Rewrites         []Rewrite     `json:"rewrites,omitempty"`
	Errors           []FileError   `json:"errors,omitempty"`
	DryRun           bool          `json:"dry_run,omitempty"`
}

// Engine executes batch moves against a vault.
type Engine struct {
	store         storage.Provider
	caseSensitive bool
	logger        *slog.Logger
}

// New creates a move engine.
func New(store storage.Provider, caseSensitive bool, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, caseSensitive: caseSensitive, logger: logger}
}

// batch is a validated, expanded move set.
type batch struct {
	physical []models.Move // as requested: folders stay folders
	files    []models.Move // one entry per markdown file
}

// Plan validates the batch and expands folder moves into per-file moves
// without touching any file. The returned mapping is what Apply would
// realize.
func (e *Engine) Plan(moves []models.Move, force bool) ([]models.Move, error) {
	b, err := e.plan(moves, force)
	if err != nil {
		return nil, err
	}
	return b.files, nil
}

func (e *Engine) plan(moves []models.Move, force bool) (*batch, error) {
	if len(moves) == 0 {
		return nil, &apperr.ValidationError{Reason: "empty move batch"}
	}

	var missing, escaped, malformed []string
	b := &batch{}

	sources := make(map[string]struct{}, len(moves))
	for _, m := range moves {
		sources[normPath(m.From)] = struct{}{}
	}

	destSeen := make(map[string]struct{}, len(moves))
	var duplicates, chained []string

	for _, m := range moves {
		from, to := normPath(m.From), normPath(m.To)
		if from == "" || to == "" {
			malformed = append(malformed, m.From+" -> "+m.To)
			continue
		}
		if err := e.store.Verify(to); err != nil {
			escaped = append(escaped, m.To)
			continue
		}
		if _, dup := destSeen[e.fold(to)]; dup {
			duplicates = append(duplicates, to)
			continue
		}
		destSeen[e.fold(to)] = struct{}{}
		if _, chain := sources[to]; chain {
			chained = append(chained, to)
			continue
		}

		info, err := e.store.Stat(from)
		if err != nil {
			missing = append(missing, from)
			continue
		}

		if info.IsDir() {
			descendants, err := e.store.List(from)
			if err != nil {
				return nil, fmt.Errorf("mover: enumerate %s: %w", from, err)
			}
			b.physical = append(b.physical, models.Move{From: from, To: to})
			for _, d := range descendants {
				// Per-file destination by prefix substitution.
				suffix := strings.TrimPrefix(d.Path, from)
				b.files = append(b.files, models.Move{From: d.Path, To: to + suffix})
			}
			continue
		}

		if !strings.HasSuffix(strings.ToLower(from), ".md") {
			malformed = append(malformed, from)
			continue
		}
		b.physical = append(b.physical, models.Move{From: from, To: to})
		b.files = append(b.files, models.Move{From: from, To: to})
	}

	switch {
	case len(escaped) > 0:
		return nil, &apperr.ValidationError{Reason: "destination escapes vault root", Paths: escaped}
	case len(missing) > 0:
		return nil, &apperr.ValidationError{Reason: "source does not exist", Paths: missing}
	case len(malformed) > 0:
		return nil, &apperr.ValidationError{Reason: "source is not a markdown file", Paths: malformed}
	case len(duplicates) > 0:
		return nil, &apperr.ValidationError{Reason: "duplicate destination", Paths: duplicates}
	case len(chained) > 0:
		return nil, &apperr.ValidationError{Reason: "destination equals another move's source", Paths: chained}
	}

	var conflicts []string
	for _, m := range b.physical {
		if _, err := e.store.Stat(m.To); err == nil {
			conflicts = append(conflicts, m.To)
		}
	}
	if len(conflicts) > 0 && !force {
		sort.Strings(conflicts)
		return nil, &apperr.ConflictError{Paths: conflicts}
	}
	return b, nil
}

// Apply runs the batch: validate everything, physically move, then rewrite
// links across the remaining vault. With DryRun the plan and the would-be
// rewrites are returned and nothing is written.
func (e *Engine) Apply(moves []models.Move, opts Options) (*Report, error) {
	b, err := e.plan(moves, opts.Force)
	if err != nil {
		return nil, err
	}
	report := &Report{Moved: b.files, DryRun: opts.DryRun}

	if opts.DryRun {
		e.rewriteAll(b, report, false)
		return report, nil
	}

	// Phase 1: physical moves. Must fully succeed before any rewriting; on
	// failure, already-applied moves are rolled back best-effort and the
	// batch is aborted.
	var done []models.Move
	for _, m := range b.physical {
		if err := e.store.Move(m.From, m.To); err != nil {
			for i := len(done) - 1; i >= 0; i-- {
				if rbErr := e.store.Move(done[i].To, done[i].From); rbErr != nil {
					e.logger.Error("mover: rollback failed",
						slog.String("path", done[i].To),
						slog.String("error", rbErr.Error()))
				}
			}
			return nil, fmt.Errorf("mover: move %s -> %s: %w", m.From, m.To, err)
		}
		done = append(done, m)
		e.logger.Info("mover: moved", slog.String("from", m.From), slog.String("to", m.To))
	}

	e.rewriteAll(b, report, true)
	return report, nil
}

// rewriteAll scans every markdown file and rewrites links that referenced a
// moved source. Per-file IO errors are recorded and skipped, never fatal.
// With write=false the same enumeration runs against the pre-move tree.
func (e *Engine) rewriteAll(b *batch, report *Report, write bool) {
	metas, err := e.store.List("")
	if err != nil {
		report.Errors = append(report.Errors, FileError{Path: "", Err: err.Error()})
		return
	}

	nameCount := e.postMoveNameCounts(metas, b.files, write)
	rules := makeRules(b.files)

	// A just-moved file must not have its own self-references re-processed.
	selfByPath := make(map[string]string, len(b.files))
	for _, m := range b.files {
		if write {
			selfByPath[m.To] = resolve.Identity(m.From)
		} else {
			selfByPath[m.From] = resolve.Identity(m.From)
		}
	}

	for _, meta := range metas {
		data, err := e.store.Read(meta.Path)
		if err != nil {
			report.Errors = append(report.Errors, FileError{Path: meta.Path, Err: err.Error()})
			continue
		}
		rewritten, n := rewriteContent(string(data), rules, selfByPath[meta.Path], nameCount)
		if n == 0 || rewritten == string(data) {
			continue
		}
		if write {
			if err := e.store.Write(meta.Path, []byte(rewritten)); err != nil {
				report.Errors = append(report.Errors, FileError{Path: meta.Path, Err: err.Error()})
				continue
			}
			e.logger.Debug("mover: links rewritten",
				slog.String("path", meta.Path), slog.Int("links", n))
		}
		report.Rewrites = append(report.Rewrites, Rewrite{Path: meta.Path, Links: n})
		report.FilesLinkUpdated++
	}
}

// postMoveNameCounts counts basenames as they will exist after the batch, for
// the alias-collapse uniqueness check.
func (e *Engine) postMoveNameCounts(metas []models.NoteMetadata, files []models.Move, moved bool) map[string]int {
	ids := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		ids[resolve.Identity(m.Path)] = struct{}{}
	}
	if !moved {
		for _, m := range files {
			delete(ids, resolve.Identity(m.From))
			ids[resolve.Identity(m.To)] = struct{}{}
		}
	}
	counts := make(map[string]int, len(ids))
	for id := range ids {
		counts[strings.ToLower(baseName(id))]++
	}
	return counts
}

func (e *Engine) fold(s string) string {
	if e.caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

// normPath brings a user-supplied vault path into canonical relative form
// (forward slashes, no leading ./, no trailing /).
func normPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	p = strings.TrimPrefix(p, "./")
	return strings.Trim(p, "/")
}

func baseName(identity string) string {
	if i := strings.LastIndex(identity, "/"); i >= 0 {
		return identity[i+1:]
	}
	return identity
}
