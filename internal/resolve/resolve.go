// Package resolve normalizes note identities and resolves raw link targets
// against the known set of notes. Resolution here is exact-match only; fuzzy
// matching for broken links lives in the validator.
package resolve

import (
	"path"
	"sort"
	"strings"
)

// Identity canonicalizes a vault-relative path for equality and lookup:
// forward slashes, cleaned, .md suffix stripped. Case is preserved; whether
// comparisons fold case is a Resolver concern.
func Identity(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "./")
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	if strings.HasSuffix(strings.ToLower(p), ".md") {
		p = p[:len(p)-3]
	}
	return p
}

// IsExternal reports whether a markdown-link target is outside the vault's
// scope: absolute URLs and anything not ending in .md are never resolved.
func IsExternal(target string) bool {
	lower := strings.ToLower(strings.TrimSpace(target))
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return true
	}
	return !strings.HasSuffix(lower, ".md")
}

// Resolver answers exact-match lookups over a fixed set of note identities.
// It is rebuilt together with the link index; it never mutates.
type Resolver struct {
	caseSensitive bool
	byKey         map[string]string   // folded identity → identity
	byName        map[string][]string // folded basename → identities, sorted
}

// New builds a resolver over the given identities. caseSensitive should match
// the host filesystem's behavior.
func New(identities []string, caseSensitive bool) *Resolver {
	r := &Resolver{
		caseSensitive: caseSensitive,
		byKey:         make(map[string]string, len(identities)),
		byName:        make(map[string][]string),
	}
	sorted := make([]string, len(identities))
	copy(sorted, identities)
	sort.Strings(sorted)
	for _, id := range sorted {
		key := r.fold(id)
		if _, ok := r.byKey[key]; !ok {
			r.byKey[key] = id
		}
		name := r.fold(path.Base(id))
		r.byName[name] = append(r.byName[name], id)
	}
	return r
}

func (r *Resolver) fold(s string) string {
	if r.caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

// Wiki resolves a wiki-link target (alias already stripped): exact identity
// match first, then by bare name. An ambiguous bare name resolves to the
// lexicographically first candidate.
func (r *Resolver) Wiki(target string) string {
	t := Identity(target)
	if t == "" {
		return ""
	}
	if id, ok := r.byKey[r.fold(t)]; ok {
		return id
	}
	if !strings.Contains(t, "/") {
		if ids := r.byName[r.fold(t)]; len(ids) > 0 {
			return ids[0]
		}
	}
	return ""
}

// Markdown resolves a markdown-link target written in the note at fromPath.
// External targets are excluded entirely; the rest are matched by exact path,
// first vault-root-relative, then relative to the linking note's directory.
func (r *Resolver) Markdown(fromPath, target string) string {
	if IsExternal(target) {
		return ""
	}
	t := Identity(target)
	if t == "" {
		return ""
	}
	if id, ok := r.byKey[r.fold(t)]; ok {
		return id
	}
	dir := path.Dir(Identity(fromPath))
	if dir != "." && dir != "" {
		joined := path.Clean(dir + "/" + t)
		if id, ok := r.byKey[r.fold(joined)]; ok {
			return id
		}
	}
	return ""
}
