package mover

import (
	"regexp"
	"strings"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/resolve"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)
	mdlinkRe   = regexp.MustCompile(`\[([^\]]*)\]\(([^()\s]+)\)`)
)

// rule is the rewrite instruction derived from one per-file move.
type rule struct {
	from     string // old identity, e.g. Notes/B
	fromName string // old basename, e.g. B
	to       string // new identity, e.g. Archive/B
	toName   string // new basename
	fromPath string // old literal path with extension, for markdown links
	toPath   string // new literal path with extension
}

func makeRules(files []models.Move) []rule {
	rules := make([]rule, 0, len(files))
	for _, m := range files {
		from := resolve.Identity(m.From)
		to := resolve.Identity(m.To)
		rules = append(rules, rule{
			from:     from,
			fromName: baseName(from),
			to:       to,
			toName:   baseName(to),
			fromPath: m.From,
			toPath:   m.To,
		})
	}
	return rules
}

// rewriteContent applies all move rules to one file's text and returns the
// new text plus the number of links changed.
//
// Wiki links are matched case-insensitively against the moved note's old bare
// name or old path identity; matching is over the full target between the
// brackets, so a move of Foo never touches Foobar. Markdown links are matched
// only on the exact literal old relative path. selfFrom suppresses a moved
// file's links to its own old identity.
func rewriteContent(content string, rules []rule, selfFrom string, nameCount map[string]int) (string, int) {
	changed := 0

	out := wikilinkRe.ReplaceAllStringFunc(content, func(raw string) string {
		inner := raw[2 : len(raw)-2]
		target, alias, hasAlias := strings.Cut(inner, "|")
		written := strings.TrimSpace(target)
		t := resolve.Identity(written)
		if t == "" {
			return raw
		}
		bare := !strings.Contains(t, "/")
		for _, r := range rules {
			if r.from == selfFrom {
				continue
			}
			if !strings.EqualFold(t, r.from) && !(bare && strings.EqualFold(t, r.fromName)) {
				continue
			}
			next := rewriteWiki(r, written, strings.TrimSpace(alias), hasAlias, bare, nameCount)
			if next != raw {
				changed++
			}
			return next
		}
		return raw
	})

	out = mdlinkRe.ReplaceAllStringFunc(out, func(raw string) string {
		m := mdlinkRe.FindStringSubmatch(raw)
		for _, r := range rules {
			if r.from == selfFrom {
				continue
			}
			if m[2] != r.fromPath {
				continue
			}
			changed++
			return "[" + m[1] + "](" + r.toPath + ")"
		}
		return raw
	})

	return out, changed
}

// rewriteWiki chooses the new written form of one matched wiki link.
//
// An explicit alias is preserved verbatim. A link that carried an alias equal
// to the new basename collapses back to the bare form when that name is
// unique, which is what makes {A→B} then {B→A} restore the original link
// text byte-for-byte. A bare link without an alias gains one so its display
// text survives the move.
func rewriteWiki(r rule, written, alias string, hasAlias, bare bool, nameCount map[string]int) string {
	nameKey := strings.ToLower(r.toName)
	unique := nameCount[nameKey] == 1

	if hasAlias && alias != "" {
		if alias == r.toName && unique {
			return "[[" + alias + "]]"
		}
		if bare && unique {
			return "[[" + r.toName + "|" + alias + "]]"
		}
		return "[[" + r.to + "|" + alias + "]]"
	}
	if bare {
		return "[[" + r.to + "|" + written + "]]"
	}
	return "[[" + r.to + "]]"
}
