// Package parser extracts frontmatter, links, and tags from Markdown content.
//
// Parsing is regex and line based; the package boundary isolates it so a
// real tokenizer could replace it without touching the index, mover, or
// validator.
package parser

import (
	"path"
	"regexp"
	"strings"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/resolve"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)
	mdlinkRe   = regexp.MustCompile(`\[([^\]]*)\]\(([^()\s]+)\)`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([^\s#]+)`)
	titleRe    = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// Parse extracts frontmatter, body, links, and tags from raw Markdown bytes.
// It never fails: a frontmatter block that does not match the fence pattern
// degrades to body text, and the degradation is recorded on Note.Warning.
func Parse(relPath string, data []byte) *models.Note {
	fm, body, warning := splitFrontmatter(string(data))

	note := &models.Note{
		Path:        relPath,
		Identity:    resolve.Identity(relPath),
		Frontmatter: fm,
		Body:        body,
		Warning:     warning,
	}
	note.Links = extractLinks(body)
	note.Tags, note.TagCounts = extractTags(body, fm)
	note.Title = deriveTitle(body, relPath)
	return note
}

// splitFrontmatter separates a flat key:value frontmatter block (between
// leading --- fences) from the Markdown body. Scalar values are kept verbatim;
// a value written [a, b, c] is split on commas and trimmed. Anything that does
// not fit the flat model degrades silently to "no frontmatter".
func splitFrontmatter(content string) (models.Frontmatter, string, string) {
	rest, ok := cutFence(content)
	if !ok {
		return nil, content, ""
	}

	end, after := findClosingFence(rest)
	if end < 0 {
		return nil, content, "frontmatter fence never closed"
	}
	block := rest[:end]
	body := rest[after:]

	var fm models.Frontmatter
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found || strings.TrimSpace(key) == "" {
			// Not a flat key:value line; the whole block is degraded.
			return nil, content, "malformed frontmatter treated as body"
		}
		fm = append(fm, parseField(strings.TrimSpace(key), strings.TrimSpace(value)))
	}
	return fm, body, ""
}

// findClosingFence locates a line consisting of exactly --- and returns the
// offset of the newline before it plus the offset where the body starts.
func findClosingFence(rest string) (int, int) {
	from := 0
	for {
		i := strings.Index(rest[from:], "\n---")
		if i < 0 {
			return -1, -1
		}
		at := from + i
		tail := rest[at+len("\n---"):]
		switch {
		case tail == "":
			return at, at + len("\n---")
		case strings.HasPrefix(tail, "\n"):
			return at, at + len("\n---") + 1
		case strings.HasPrefix(tail, "\r\n"):
			return at, at + len("\n---") + 2
		}
		from = at + 1
	}
}

// cutFence strips the opening --- fence line, returning the remainder.
func cutFence(content string) (string, bool) {
	switch {
	case strings.HasPrefix(content, "---\n"):
		return content[4:], true
	case strings.HasPrefix(content, "---\r\n"):
		return content[5:], true
	}
	return "", false
}

func parseField(key, value string) models.Field {
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		inner := value[1 : len(value)-1]
		var list []string
		for _, item := range strings.Split(inner, ",") {
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}
		return models.Field{Key: key, List: list, IsList: true}
	}
	return models.Field{Key: key, Value: value}
}

// extractLinks runs the two independent regex passes over the body: wiki
// links first, then markdown links. Raw text is preserved for rewriting.
func extractLinks(body string) []models.Link {
	var out []models.Link

	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		inner := m[1]
		target, alias, hasAlias := strings.Cut(inner, "|")
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		display := target
		if hasAlias {
			display = strings.TrimSpace(alias)
		}
		out = append(out, models.Link{
			Type:    models.LinkTypeWiki,
			Raw:     m[0],
			Target:  target,
			Alias:   strings.TrimSpace(alias),
			Display: display,
		})
	}

	for _, m := range mdlinkRe.FindAllStringSubmatch(body, -1) {
		target := m[2]
		out = append(out, models.Link{
			Type:     models.LinkTypeMarkdown,
			Raw:      m[0],
			Target:   target,
			Display:  m[1],
			External: resolve.IsExternal(target),
		})
	}
	return out
}

// extractTags merges frontmatter "tags" (array values only, presence-counted)
// with inline #tag occurrences in the body (occurrence-counted). A tag name
// may contain / for nesting.
func extractTags(body string, fm models.Frontmatter) ([]string, map[string]int) {
	counts := make(map[string]int)
	var order []string

	add := func(name string, n int) {
		if name == "" {
			return
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name] += n
	}

	if f, ok := fm.Get("tags"); ok && f.IsList {
		for _, t := range f.List {
			add(strings.TrimPrefix(t, "#"), 0)
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1], 1)
	}

	// Frontmatter tags are "present", not occurrence-counted.
	for name, n := range counts {
		if n == 0 {
			counts[name] = 1
		}
	}

	if len(order) == 0 {
		return nil, nil
	}
	return order, counts
}

// deriveTitle returns the first H1 heading of the body, falling back to the
// filename with its extension stripped.
func deriveTitle(body, relPath string) string {
	if m := titleRe.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}
	base := path.Base(strings.ReplaceAll(relPath, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
