package core

import (
	"strings"
	"testing"
)

func TestItemID_Deterministic(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		title   string
		content string
	}{
		{name: "with url", url: "https://example.com/a", title: "A", content: "body"},
		{name: "without url", title: "A", content: "body"},
		{name: "empty everything"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := ItemID(tt.url, tt.title, tt.content)
			id2 := ItemID(tt.url, tt.title, tt.content)
			if id1 != id2 {
				t.Errorf("ItemID() produced different IDs for same input: %s vs %s", id1, id2)
			}
			if len(id1) != 32 {
				t.Errorf("ItemID() length = %d, want 32", len(id1))
			}
		})
	}
}

func TestItemID_URLWins(t *testing.T) {
	id1 := ItemID("https://example.com/a", "Title one", "content one")
	id2 := ItemID("https://example.com/a", "Title two", "completely different")
	if id1 != id2 {
		t.Errorf("ItemID() should depend only on url when present")
	}
}

func TestItemID_ContentPrefixOnly(t *testing.T) {
	prefix := strings.Repeat("x", 500)
	id1 := ItemID("", "T", prefix+"tail one")
	id2 := ItemID("", "T", prefix+"tail two")
	if id1 != id2 {
		t.Errorf("ItemID() should ignore content beyond the first 500 chars")
	}

	id3 := ItemID("", "Other", prefix)
	if id1 == id3 {
		t.Errorf("ItemID() should depend on title when url is absent")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"hello", 0, ""},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestMetadataStrings(t *testing.T) {
	m := Metadata{
		"typed":   []string{"a", "b"},
		"generic": []any{"c", 1, "d"},
		"scalar":  "e",
	}

	if got := m.Strings("typed"); len(got) != 2 || got[0] != "a" {
		t.Errorf("Strings(typed) = %v", got)
	}
	if got := m.Strings("generic"); len(got) != 2 || got[1] != "d" {
		t.Errorf("Strings(generic) = %v", got)
	}
	if got := m.Strings("scalar"); got != nil {
		t.Errorf("Strings(scalar) = %v, want nil", got)
	}
	if got := m.String("scalar"); got != "e" {
		t.Errorf("String(scalar) = %q", got)
	}
}

func TestMetadataClone(t *testing.T) {
	var nilMeta Metadata
	clone := nilMeta.Clone()
	if clone == nil {
		t.Fatal("Clone() of nil metadata should not be nil")
	}

	m := Metadata{"k": "v"}
	c := m.Clone()
	c["k"] = "changed"
	if m["k"] != "v" {
		t.Errorf("Clone() must not alias the original map")
	}
}

func TestPrimaryTopic(t *testing.T) {
	item := &EnrichedItem{}
	if got := item.PrimaryTopic(); got != UncategorizedTopic {
		t.Errorf("PrimaryTopic() = %q, want %q", got, UncategorizedTopic)
	}
	item.Topics = []string{"NLP", "LLMs"}
	if got := item.PrimaryTopic(); got != "NLP" {
		t.Errorf("PrimaryTopic() = %q, want NLP", got)
	}
}
