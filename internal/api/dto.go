package api

import (
	"github.com/starford/raido/internal/models"
)

// MoveRequest is the request body for POST /moves.
type MoveRequest struct {
	Moves  []models.Move `json:"moves"`
	DryRun bool          `json:"dry_run,omitempty"`
	Force  bool          `json:"force,omitempty"`
}

// CheckLinksRequest is the request body for POST /links/check.
type CheckLinksRequest struct {
	Fix  bool   `json:"fix,omitempty"`
	Type string `json:"type,omitempty"` // "", "wiki", or "markdown"
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.NoteMetadata `json:"notes"`
	Total int                   `json:"total"`
}

// NoteDetail is the response payload for a single note.
type NoteDetail struct {
	Path        string             `json:"path"`
	Identity    string             `json:"identity"`
	Title       string             `json:"title"`
	Content     string             `json:"content"`
	Tags        []string           `json:"tags"`
	Frontmatter models.Frontmatter `json:"frontmatter,omitempty"`
	Links       []models.Link      `json:"links"`
	Backlinks   []string           `json:"backlinks"`
	Warning     string             `json:"warning,omitempty"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}
