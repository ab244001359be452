package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/mover"
	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/validator"
	"github.com/starford/raido/internal/vaultservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *vaultservice.Service
	broker *sse.Broker
}

// NewHandler creates a new Handler. broker may be nil when SSE is disabled.
func NewHandler(svc *vaultservice.Service, broker *sse.Broker) *Handler {
	return &Handler{svc: svc, broker: broker}
}

// notePath extracts the note path from the URL (everything after /notes/).
// Supports encoded slashes from OpenAPI clients (e.g. topics%2Fnote.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListNotes handles GET /notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	metas, err := h.svc.ListNotes(r.Context(), folder)
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if metas == nil {
		metas = []models.NoteMetadata{}
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: metas, Total: len(metas)})
}

// GetNote handles GET /notes/*.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.ParseNote(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get note failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	backlinks, err := h.svc.Backlinks(r.Context(), path)
	if err != nil {
		slog.Error("backlinks failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if backlinks == nil {
		backlinks = []string{}
	}
	writeJSON(w, http.StatusOK, NoteDetail{
		Path:        note.Path,
		Identity:    note.Identity,
		Title:       note.Title,
		Content:     note.Body,
		Tags:        nonNil(note.Tags),
		Frontmatter: note.Frontmatter,
		Links:       nonNil(note.Links),
		Backlinks:   backlinks,
		Warning:     note.Warning,
	})
}

// MoveNotes handles POST /moves.
func (h *Handler) MoveNotes(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	report, err := h.svc.ApplyMoves(r.Context(), req.Moves, mover.Options{
		DryRun: req.DryRun,
		Force:  req.Force,
	})
	if err != nil {
		h.writeMoveError(w, err)
		return
	}
	if h.broker != nil && !report.DryRun {
		h.broker.Publish(sse.Event{Type: sse.EventNotesMoved, Data: report.Moved})
	}
	writeJSON(w, http.StatusOK, report)
}

// writeMoveError maps the batch error taxonomy to HTTP statuses: validation
// failures are 400, destination conflicts are 409 with the colliding paths.
func (h *Handler) writeMoveError(w http.ResponseWriter, err error) {
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errResponse{Error: verr.Error(), Paths: verr.Paths})
		return
	}
	var cerr *apperr.ConflictError
	if errors.As(err, &cerr) {
		writeJSON(w, http.StatusConflict, errResponse{Error: cerr.Error(), Paths: cerr.Paths})
		return
	}
	slog.Error("move failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

// CheckLinks handles POST /links/check.
func (h *Handler) CheckLinks(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CheckLinksRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
			return
		}
	}
	opts := validator.Options{Fix: req.Fix}
	switch req.Type {
	case "":
	case "wiki":
		opts.Types = []models.LinkType{models.LinkTypeWiki}
	case "markdown":
		opts.Types = []models.LinkType{models.LinkTypeMarkdown}
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("type must be wiki or markdown"))
		return
	}
	report, err := h.svc.ValidateLinks(r.Context(), opts)
	if err != nil {
		slog.Error("check links failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if h.broker != nil && len(report.Fixed) > 0 {
		h.broker.Publish(sse.Event{Type: sse.EventLinksFixed, Data: report.Fixed})
	}
	writeJSON(w, http.StatusOK, report)
}

// Analytics handles GET /analytics.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.AnalyzeVault(r.Context())
	if err != nil {
		slog.Error("analytics failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Search handles GET /search?q=...&limit=N.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	resp := SearchResponse{Results: []SearchResult{}}
	for _, hit := range hits {
		resp.Results = append(resp.Results, SearchResult(hit))
	}
	writeJSON(w, http.StatusOK, resp)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
