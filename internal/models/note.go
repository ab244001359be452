// Package models defines the domain types for Raido.
package models

import "time"

// LinkType discriminates the two reference syntaxes found in note bodies.
type LinkType string

const (
	LinkTypeWiki     LinkType = "wiki"
	LinkTypeMarkdown LinkType = "markdown"
)

// Link is one outbound reference written in a note.
//
// Raw keeps the text exactly as written (including any |alias suffix), Target
// is the raw target with the alias stripped, and Resolved is the identity of
// the note the target points at, or empty when no matching file exists.
// Resolved is a pure function of the current file set and is recomputed on
// every index build; links are never mutated in the index itself, only in the
// underlying file text.
type Link struct {
	Type     LinkType `json:"type"`
	Raw      string   `json:"raw"`
	Target   string   `json:"target"`
	Alias    string   `json:"alias,omitempty"`
	Display  string   `json:"display,omitempty"`
	External bool     `json:"external,omitempty"`
	Resolved string   `json:"resolved,omitempty"`
}

// Field is a single frontmatter entry. Scalar values keep their written form
// verbatim; a value written [a, b, c] is split into List.
type Field struct {
	Key    string   `json:"key"`
	Value  string   `json:"value,omitempty"`
	List   []string `json:"list,omitempty"`
	IsList bool     `json:"is_list,omitempty"`
}

// Frontmatter is a flat, order-preserving key:value list. Nested mappings are
// not supported.
type Frontmatter []Field

// Get returns the first field with the given key.
func (fm Frontmatter) Get(key string) (Field, bool) {
	for _, f := range fm {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Note represents a parsed Markdown file in the vault. It is constructed
// fresh from disk content each time the index is built and never cached
// across operations.
type Note struct {
	Path        string         `json:"path"`     // vault-relative, forward slashes, .md kept
	Identity    string         `json:"identity"` // canonical form, .md stripped
	Title       string         `json:"title,omitempty"`
	Frontmatter Frontmatter    `json:"frontmatter,omitempty"`
	Body        string         `json:"body,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	TagCounts   map[string]int `json:"tag_counts,omitempty"`
	Links       []Link         `json:"links,omitempty"`
	Warning     string         `json:"warning,omitempty"` // e.g. malformed frontmatter degraded to body
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Move is one source→destination rename. From and To are vault-relative paths
// and may name either a markdown file or a folder.
type Move struct {
	From string `json:"from"`
	To   string `json:"to"`
}
