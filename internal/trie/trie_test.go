package trie

import (
	"slices"
	"testing"
)

func TestInsertGetDelete(t *testing.T) {
	t.Parallel()

	tr := New[int]()

	tr.Insert("abc", 1)
	tr.Insert("abd", 2)
	tr.Insert("ab", 3)

	if tr.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tr.Len())
	}

	got, ok := tr.Get("abc")
	if !ok || got != 1 {
		t.Errorf("Get(abc) = %d, %v; want 1, true", got, ok)
	}

	if _, ok := tr.Get("a"); ok {
		t.Error("Get(a) found a value on a pure prefix node")
	}

	if !tr.Delete("abc") {
		t.Error("Delete(abc) = false, want true")
	}

	if tr.Delete("abc") {
		t.Error("second Delete(abc) = true, want false")
	}

	if _, ok := tr.Get("abc"); ok {
		t.Error("Get(abc) succeeded after delete")
	}

	if tr.Len() != 2 {
		t.Errorf("Len() = %d after delete, want 2", tr.Len())
	}
}

func TestInsertReplacesValue(t *testing.T) {
	t.Parallel()

	tr := New[string]()
	tr.Insert("k", "old")
	tr.Insert("k", "new")

	got, _ := tr.Get("k")
	if got != "new" {
		t.Errorf("Get(k) = %q, want %q", got, "new")
	}

	if tr.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tr.Len())
	}
}

func TestWalkPrefixLexicographicOrder(t *testing.T) {
	t.Parallel()

	tr := New[int]()
	for i, key := range []string{"zeta", "alpha", "alp", "beta", "alphabet"} {
		tr.Insert(key, i)
	}

	got := tr.Keys("al")
	want := []string{"alp", "alpha", "alphabet"}

	if !slices.Equal(got, want) {
		t.Errorf("Keys(al) = %v, want %v", got, want)
	}

	all := tr.Keys("")
	want = []string{"alp", "alpha", "alphabet", "beta", "zeta"}

	if !slices.Equal(all, want) {
		t.Errorf("Keys(\"\") = %v, want %v", all, want)
	}
}

func TestCountPrefixLimit(t *testing.T) {
	t.Parallel()

	tr := New[int]()
	tr.Insert("aaa", 0)
	tr.Insert("aab", 0)
	tr.Insert("aac", 0)
	tr.Insert("abc", 0)

	tests := []struct {
		prefix string
		limit  int
		want   int
	}{
		{"aa", 0, 3},
		{"aa", 2, 2},
		{"a", 0, 4},
		{"b", 0, 0},
		{"aaa", 2, 1},
	}

	for _, testCase := range tests {
		got := tr.CountPrefix(testCase.prefix, testCase.limit)
		if got != testCase.want {
			t.Errorf("CountPrefix(%q, %d) = %d, want %d",
				testCase.prefix, testCase.limit, got, testCase.want)
		}
	}
}

func TestFirstPrefixDeterministic(t *testing.T) {
	t.Parallel()

	// Insertion order must not affect which entry an ambiguous prefix
	// resolves to.
	a := New[int]()
	a.Insert("abcdef02", 2)
	a.Insert("abcdef01", 1)

	b := New[int]()
	b.Insert("abcdef01", 1)
	b.Insert("abcdef02", 2)

	for _, tr := range []*Trie[int]{a, b} {
		key, value, ok := tr.FirstPrefix("abc")
		if !ok || key != "abcdef01" || value != 1 {
			t.Errorf("FirstPrefix(abc) = %q, %d, %v; want abcdef01, 1, true", key, value, ok)
		}
	}

	if _, _, ok := a.FirstPrefix("zzz"); ok {
		t.Error("FirstPrefix(zzz) = ok on missing prefix")
	}
}

func TestDeletePrunesBranches(t *testing.T) {
	t.Parallel()

	tr := New[int]()
	tr.Insert("deadbeef", 1)
	tr.Delete("deadbeef")

	if count := tr.CountPrefix("de", 0); count != 0 {
		t.Errorf("CountPrefix(de) = %d after delete, want 0", count)
	}

	// Prefix of a surviving sibling stays reachable.
	tr.Insert("deadbeef", 1)
	tr.Insert("dead", 2)
	tr.Delete("deadbeef")

	got := tr.Keys("de")
	if !slices.Equal(got, []string{"dead"}) {
		t.Errorf("Keys(de) = %v, want [dead]", got)
	}
}
