package search

import (
	"slices"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  []string
	}{
		{"Login broken", []string{"login", "broken"}},
		{"fix/the-thing!", []string{"fix", "the", "thing"}},
		{"", nil},
		{"   ", nil},
		{"CamelCase stays one token", []string{"camelcase", "stays", "one", "token"}},
	}

	for _, testCase := range tests {
		got := Tokenize(testCase.input)
		if len(got) == 0 && len(testCase.want) == 0 {
			continue
		}
		if !slices.Equal(got, testCase.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", testCase.input, got, testCase.want)
		}
	}
}

func TestSplitQueryQuoting(t *testing.T) {
	t.Parallel()

	got := SplitQuery(`login "broken badly" label:bug`)
	want := []string{"login", "broken badly", "label:bug"}

	if !slices.Equal(got, want) {
		t.Errorf("SplitQuery = %v, want %v", got, want)
	}
}

func TestSplitQueryMalformedFallsBack(t *testing.T) {
	t.Parallel()

	// Unterminated quote: shell splitting fails, naive tokenizer takes
	// over instead of surfacing an error.
	got := SplitQuery(`login "broken`)
	want := []string{"login", "broken"}

	if !slices.Equal(got, want) {
		t.Errorf("SplitQuery = %v, want %v", got, want)
	}
}

func TestSplitQueryLoneQuote(t *testing.T) {
	t.Parallel()

	// A single quote character splits to nothing at all. Callers must
	// tolerate the empty result.
	if got := SplitQuery(`"`); len(got) != 0 {
		t.Errorf("SplitQuery(%q) = %v, want empty", `"`, got)
	}
}

func TestIndexTextAndHits(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	idx.IndexText("issue1", "Login broken")
	idx.IndexText("issue2", "Logout works")

	hits := idx.Hits("login")
	if _, ok := hits["issue1"]; !ok {
		t.Error("login did not hit issue1")
	}
	if _, ok := hits["issue2"]; ok {
		t.Error("login hit issue2")
	}

	// Prefix of an indexed token matches.
	hits = idx.Hits("log")
	if len(hits) != 2 {
		t.Errorf("Hits(log) matched %d ids, want 2", len(hits))
	}

	// Snippet posting lets a phrase prefix match.
	hits = idx.Hits("login bro")
	if _, ok := hits["issue1"]; !ok {
		t.Error("phrase prefix did not hit the snippet posting")
	}
}

func TestSnippetTruncated(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	long := strings.TrimSpace(strings.Repeat("word ", 80)) // 399 chars
	idx.IndexText("id1", long)

	// The snippet is capped at 256 chars: the full value is not a key,
	// but its 256-char prefix is.
	if hits := idx.Hits(long); len(hits) != 0 {
		t.Error("overlong snippet was indexed untruncated")
	}

	if hits := idx.Hits(long[:256]); len(hits) != 1 {
		t.Error("truncated snippet posting missing")
	}
}

func TestSnippetTruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	// A two-byte rune straddling the cap must not be split in half.
	value := strings.Repeat("a", 255) + "é" + strings.Repeat("b", 50)

	idx := NewIndex()
	idx.IndexText("id1", value)

	for _, key := range idx.postings.Keys("") {
		if !utf8.ValidString(key) {
			t.Errorf("posting key %q is not valid UTF-8", key)
		}
	}

	if hits := idx.Hits(strings.Repeat("a", 255)); len(hits) != 1 {
		t.Error("snippet posting missing after rune-boundary truncation")
	}
}

func TestPurgeRemovesEverywhere(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	idx.IndexText("gone", "shared token unique1")
	idx.IndexText("kept", "shared token unique2")

	idx.Purge("gone")

	for _, token := range []string{"shared", "token", "unique1"} {
		if _, ok := idx.Hits(token)["gone"]; ok {
			t.Errorf("purged id still hit by %q", token)
		}
	}

	if _, ok := idx.Hits("shared")["kept"]; !ok {
		t.Error("purge of one id dropped another id's posting")
	}

	// Token unique to the purged id is fully gone.
	if hits := idx.Hits("unique1"); len(hits) != 0 {
		t.Errorf("Hits(unique1) = %v after purge, want empty", hits)
	}
}

func TestReindexAfterPurge(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	idx.IndexText("id1", "old title")
	idx.Purge("id1")
	idx.IndexText("id1", "new title")

	if _, ok := idx.Hits("old")["id1"]; ok {
		t.Error("stale token survived reindex")
	}

	if _, ok := idx.Hits("new")["id1"]; !ok {
		t.Error("fresh token missing after reindex")
	}
}
