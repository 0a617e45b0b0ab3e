package parser

import (
	"slices"
	"testing"
)

func TestParse_HeaderWins(t *testing.T) {
	m := Parse("---\ntitle: Reading list\ntags:\n  - books\n---\n# Other\nSee #later.\n")
	if m.Title != "Reading list" {
		t.Errorf("title = %q, want %q", m.Title, "Reading list")
	}
	if !slices.Equal(m.Tags, []string{"books", "later"}) {
		t.Errorf("tags = %v, want [books later]", m.Tags)
	}
	if m.Body != "# Other\nSee #later.\n" {
		t.Errorf("body = %q", m.Body)
	}
}

func TestParse_NoHeader(t *testing.T) {
	m := Parse("# Groceries\nmilk #shopping #home #shopping\n")
	if m.Title != "Groceries" {
		t.Errorf("title = %q, want %q", m.Title, "Groceries")
	}
	if !slices.Equal(m.Tags, []string{"shopping", "home"}) {
		t.Errorf("tags = %v, want [shopping home]", m.Tags)
	}
}

func TestParse_InvalidHeaderFallsBack(t *testing.T) {
	note := "---\n: invalid: yaml: {{{\n---\nBody #x\n"
	m := Parse(note)
	if m.Body != note {
		t.Errorf("body = %q, want whole note", m.Body)
	}
	if !slices.Equal(m.Tags, []string{"x"}) {
		t.Errorf("tags = %v, want [x]", m.Tags)
	}
}

func TestParse_UnclosedHeaderIsBody(t *testing.T) {
	note := "---\ntitle: nope\nstill going"
	m := Parse(note)
	if m.Title != "" || m.Body != note {
		t.Errorf("got %+v", m)
	}
}

func TestParse_TagsNeedLeadingLetter(t *testing.T) {
	m := Parse("issue #42 and a#b but #ok/nested")
	if !slices.Equal(m.Tags, []string{"ok/nested"}) {
		t.Errorf("tags = %v, want [ok/nested]", m.Tags)
	}
}

func TestParse_Empty(t *testing.T) {
	m := Parse("")
	if m.Title != "" || m.Tags != nil || m.Body != "" {
		t.Errorf("got %+v", m)
	}
}
