// Package validator scans the link index for links with no resolvable target
// and proposes (or applies) fuzzy-matched repairs.
//
// Unresolved links are data, not errors: the report enumerates them with
// their suggestion sets. Auto-fix only ever fires on an unambiguous single
// candidate; two or more candidates are always reported instead.
package validator

import (
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/starford/raido/internal/linkindex"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/resolve"
	"github.com/starford/raido/internal/storage"
)

const maxSuggestions = 3

// fuzzDistance bounds the edit-distance fallback that catches near-misses
// substring containment cannot (e.g. Buget → Budget 2024).
const fuzzDistance = 2

// Options controls a validation pass.
type Options struct {
	Fix   bool              `json:"fix"`
	Types []models.LinkType `json:"types,omitempty"` // empty = both
}

// BrokenLink is one unresolved link with its repair suggestions.
type BrokenLink struct {
	Source      string      `json:"source"` // note identity
	Link        models.Link `json:"link"`
	Suggestions []string    `json:"suggestions,omitempty"`
}

// FixedLink records an applied repair.
type FixedLink struct {
	Source string `json:"source"`
	Target string `json:"target"` // written target before the fix
	To     string `json:"to"`     // identity the link now points at
}

// FileError records a file that could not be rewritten during fixing.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Report is the outcome of one validation pass.
type Report struct {
	Broken []BrokenLink `json:"broken"`
	Fixed  []FixedLink  `json:"fixed,omitempty"`
	Errors []FileError  `json:"errors,omitempty"`
}

// Checker runs validation passes against a vault snapshot.
type Checker struct {
	store  storage.Provider
	logger *slog.Logger
}

// New creates a checker.
func New(store storage.Provider, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{store: store, logger: logger}
}

// Run enumerates every unresolved outbound link in the index. With Fix
// enabled, a wiki link with exactly one candidate is rewritten in place;
// fixes are written immediately per file, in a single pass over the notes in
// sorted identity order. Markdown links are reported but never auto-fixed:
// no name-based resolution exists for them.
func (c *Checker) Run(ix *linkindex.Index, opts Options) (*Report, error) {
	report := &Report{}

	for _, id := range ix.Identities {
		note := ix.Note(id)
		var fixes []FixedLink
		for _, link := range note.Links {
			if link.External || link.Resolved != "" {
				continue
			}
			if !typeEnabled(opts.Types, link.Type) {
				continue
			}
			suggestions := Suggest(link.Target, ix.Identities)

			if opts.Fix && link.Type == models.LinkTypeWiki && len(suggestions) == 1 {
				fixes = append(fixes, FixedLink{
					Source: id,
					Target: link.Target,
					To:     suggestions[0],
				})
				continue
			}
			report.Broken = append(report.Broken, BrokenLink{
				Source:      id,
				Link:        link,
				Suggestions: suggestions,
			})
		}
		if len(fixes) == 0 {
			continue
		}
		if err := c.applyFixes(note.Path, fixes); err != nil {
			report.Errors = append(report.Errors, FileError{Path: note.Path, Err: err.Error()})
			continue
		}
		report.Fixed = append(report.Fixed, fixes...)
	}
	return report, nil
}

// applyFixes rewrites the wiki links in one file and writes it back.
func (c *Checker) applyFixes(relPath string, fixes []FixedLink) error {
	data, err := c.store.Read(relPath)
	if err != nil {
		return err
	}
	content := string(data)
	for _, f := range fixes {
		content = rewriteWikiTarget(content, f.Target, f.To)
	}
	if content == string(data) {
		return nil
	}
	if err := c.store.Write(relPath, []byte(content)); err != nil {
		return err
	}
	c.logger.Info("validator: links fixed",
		slog.String("path", relPath), slog.Int("count", len(fixes)))
	return nil
}

var wikilinkRe = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// rewriteWikiTarget replaces the target of every wiki link written as
// oldTarget with newTarget, preserving any alias verbatim.
func rewriteWikiTarget(content, oldTarget, newTarget string) string {
	return wikilinkRe.ReplaceAllStringFunc(content, func(raw string) string {
		inner := raw[2 : len(raw)-2]
		target, alias, hasAlias := strings.Cut(inner, "|")
		if strings.TrimSpace(target) != oldTarget {
			return raw
		}
		if hasAlias {
			return "[[" + newTarget + "|" + alias + "]]"
		}
		return "[[" + newTarget + "]]"
	})
}

// Suggest ranks repair candidates for a broken target: case-insensitive
// substring containment in either direction (against full identities and
// basenames), with a bounded edit-distance fallback when containment finds
// nothing. Capped at 3, ordered by closest length, ties in sorted identity
// order.
func Suggest(target string, identities []string) []string {
	t := strings.ToLower(resolve.Identity(target))
	if t == "" {
		return nil
	}

	type scored struct {
		id    string
		score int
		pos   int
	}
	var matches []scored

	add := func(id string, pos int) {
		base := path.Base(strings.ToLower(id))
		diff := len(base) - len(t)
		if diff < 0 {
			diff = -diff
		}
		matches = append(matches, scored{id: id, score: diff, pos: pos})
	}

	for i, id := range identities {
		idLower := strings.ToLower(id)
		base := path.Base(idLower)
		if strings.Contains(idLower, t) || strings.Contains(t, idLower) ||
			strings.Contains(base, t) || strings.Contains(t, base) {
			add(id, i)
		}
	}

	if len(matches) == 0 {
		for i, id := range identities {
			if withinEditDistance(t, path.Base(strings.ToLower(id)), fuzzDistance) {
				add(id, i)
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score < matches[j].score
		}
		return matches[i].pos < matches[j].pos
	})
	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.id
	}
	return out
}

// withinEditDistance reports whether target is within max edits of the
// candidate basename or of any single word in it.
func withinEditDistance(target, base string, max int) bool {
	if levenshtein(target, base) <= max {
		return true
	}
	for _, word := range strings.Fields(base) {
		if levenshtein(target, word) <= max {
			return true
		}
	}
	return false
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func typeEnabled(types []models.LinkType, t models.LinkType) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}
