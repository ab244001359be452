package resolve

import "testing"

func TestIdentity(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Notes/B.md", "Notes/B"},
		{"./Notes/B.md", "Notes/B"},
		{"Notes\\Sub\\C.md", "Notes/Sub/C"},
		{"Notes/../B.md", "B"},
		{"B.MD", "B"},
		{"B", "B"},
		{"", ""},
		{".", ""},
		{"  Notes/B.md  ", "Notes/B"},
	}
	for _, c := range cases {
		if got := Identity(c.in); got != c.want {
			t.Errorf("Identity(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsExternal(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://example.com", true},
		{"http://example.com/page.md", true},
		{"image.png", true},
		{"doc.pdf", true},
		{"Notes/B.md", false},
		{"b.MD", false},
	}
	for _, c := range cases {
		if got := IsExternal(c.in); got != c.want {
			t.Errorf("IsExternal(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestWikiExactIdentity(t *testing.T) {
	r := New([]string{"Notes/B", "Archive/B", "C"}, false)
	if got := r.Wiki("Notes/B"); got != "Notes/B" {
		t.Errorf("Wiki(Notes/B) = %q", got)
	}
	if got := r.Wiki("Archive/B.md"); got != "Archive/B" {
		t.Errorf("Wiki(Archive/B.md) = %q", got)
	}
}

func TestWikiBareName(t *testing.T) {
	r := New([]string{"Notes/C", "Top"}, false)
	if got := r.Wiki("C"); got != "Notes/C" {
		t.Errorf("Wiki(C) = %q", got)
	}
	if got := r.Wiki("Top"); got != "Top" {
		t.Errorf("Wiki(Top) = %q", got)
	}
	if got := r.Wiki("Missing"); got != "" {
		t.Errorf("Wiki(Missing) = %q, want empty", got)
	}
}

func TestWikiAmbiguousBareNamePicksFirst(t *testing.T) {
	r := New([]string{"Zeta/B", "Alpha/B"}, false)
	if got := r.Wiki("B"); got != "Alpha/B" {
		t.Errorf("Wiki(B) = %q, want Alpha/B", got)
	}
}

func TestWikiPathFormNeverFallsBackToName(t *testing.T) {
	r := New([]string{"Notes/B"}, false)
	if got := r.Wiki("Other/B"); got != "" {
		t.Errorf("Wiki(Other/B) = %q, want empty", got)
	}
}

func TestWikiCaseFolding(t *testing.T) {
	insensitive := New([]string{"Notes/Budget"}, false)
	if got := insensitive.Wiki("notes/budget"); got != "Notes/Budget" {
		t.Errorf("case-insensitive Wiki = %q", got)
	}
	sensitive := New([]string{"Notes/Budget"}, true)
	if got := sensitive.Wiki("notes/budget"); got != "" {
		t.Errorf("case-sensitive Wiki = %q, want empty", got)
	}
}

func TestMarkdownResolution(t *testing.T) {
	r := New([]string{"Notes/B", "Notes/Sub/C", "Top"}, false)

	// Vault-root relative.
	if got := r.Markdown("Notes/A.md", "Notes/B.md"); got != "Notes/B" {
		t.Errorf("root-relative = %q", got)
	}
	// Relative to the linking note's directory.
	if got := r.Markdown("Notes/A.md", "Sub/C.md"); got != "Notes/Sub/C" {
		t.Errorf("note-relative = %q", got)
	}
	// Root match wins over note-relative.
	if got := r.Markdown("Notes/A.md", "Top.md"); got != "Top" {
		t.Errorf("root-first = %q", got)
	}
	// External targets never resolve.
	if got := r.Markdown("Notes/A.md", "https://x.test/B.md"); got != "" {
		t.Errorf("external = %q", got)
	}
	if got := r.Markdown("Notes/A.md", "pic.png"); got != "" {
		t.Errorf("asset = %q", got)
	}
}
