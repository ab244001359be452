// Package linkindex builds the bidirectional link graph over a vault.
//
// Building is always a full pass: walk the tree, parse every note, resolve
// every link against the resulting file set, then invert the relation for
// inbound links. There is no incremental update; mutating operations rebuild
// (or are handed) a fresh index because resolution depends on the file set
// they are about to change.
package linkindex

import (
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/parser"
	"github.com/starford/raido/internal/resolve"
	"github.com/starford/raido/internal/storage"
)

// readConcurrency bounds parallel file reads within a single build pass.
const readConcurrency = 8

// Index is the bidirectional link graph for one snapshot of the vault.
//
// Invariant: Inbound[B] contains A iff some resolved outbound link of A
// targets B. The invariant holds after Build returns; callers mutating the
// vault must rebuild.
type Index struct {
	Notes      map[string]*models.Note // identity → note
	Identities []string                // sorted
	Inbound    map[string][]string     // identity → sorted, deduplicated sources

	resolver *resolve.Resolver
}

// Build walks the vault through the storage provider and constructs the
// full index. File reads are parallelized (bounded) within the pass.
func Build(store storage.Provider, caseSensitive bool) (*Index, error) {
	metas, err := store.List("")
	if err != nil {
		return nil, fmt.Errorf("linkindex: walk vault: %w", err)
	}

	// Each goroutine writes its own slot, so no lock is needed.
	notes := make([]*models.Note, len(metas))
	var g errgroup.Group
	g.SetLimit(readConcurrency)
	for i, m := range metas {
		g.Go(func() error {
			data, err := store.Read(m.Path)
			if err != nil {
				return err
			}
			notes[i] = parser.Parse(m.Path, data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("linkindex: read notes: %w", err)
	}

	ix := &Index{
		Notes:   make(map[string]*models.Note, len(notes)),
		Inbound: make(map[string][]string),
	}
	for _, n := range notes {
		ix.Notes[n.Identity] = n
		ix.Identities = append(ix.Identities, n.Identity)
	}
	sort.Strings(ix.Identities)

	ix.resolver = resolve.New(ix.Identities, caseSensitive)
	ix.resolveAll()
	return ix, nil
}

// resolveAll recomputes every link's resolved target and rebuilds the
// inbound relation by inversion.
func (ix *Index) resolveAll() {
	ix.Inbound = make(map[string][]string)
	seen := make(map[string]map[string]struct{})

	for _, id := range ix.Identities {
		n := ix.Notes[id]
		for i := range n.Links {
			link := &n.Links[i]
			switch link.Type {
			case models.LinkTypeWiki:
				link.Resolved = ix.resolver.Wiki(link.Target)
			case models.LinkTypeMarkdown:
				link.Resolved = ix.resolver.Markdown(n.Path, link.Target)
			}
			if link.Resolved == "" {
				continue
			}
			if seen[link.Resolved] == nil {
				seen[link.Resolved] = make(map[string]struct{})
			}
			if _, dup := seen[link.Resolved][id]; dup {
				continue
			}
			seen[link.Resolved][id] = struct{}{}
			ix.Inbound[link.Resolved] = append(ix.Inbound[link.Resolved], id)
		}
	}
	for target := range ix.Inbound {
		sort.Strings(ix.Inbound[target])
	}
}

// Note returns the note for an identity, or nil.
func (ix *Index) Note(identity string) *models.Note {
	return ix.Notes[identity]
}

// Resolver returns the exact-match resolver built over this snapshot.
func (ix *Index) Resolver() *resolve.Resolver {
	return ix.resolver
}

// Backlinks returns the identities of notes with a resolved link to target.
func (ix *Index) Backlinks(target string) []string {
	return ix.Inbound[resolve.Identity(target)]
}

// Outbound returns the outbound links of the note with the given identity.
func (ix *Index) Outbound(identity string) []models.Link {
	if n := ix.Notes[identity]; n != nil {
		return n.Links
	}
	return nil
}

// Unresolved returns, per source identity (sorted), the outbound links whose
// target matches no note in the snapshot. External links are not included.
func (ix *Index) Unresolved() map[string][]models.Link {
	out := make(map[string][]models.Link)
	for _, id := range ix.Identities {
		for _, link := range ix.Notes[id].Links {
			if link.External || link.Resolved != "" {
				continue
			}
			out[id] = append(out[id], link)
		}
	}
	return out
}
