// Package search maintains an inverted text index: lowercase tokens and
// short whole-value snippets mapped to sets of entity ids. Postings are
// stored in a prefix trie so a query token matches every indexed token
// it is a prefix of.
package search

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/shlex"

	"dit/internal/trie"
)

// snippetLen caps the whole-value posting. Indexing a truncated copy of
// the full value lets multi-word queries hit near-exact phrases without
// storing unbounded keys.
const snippetLen = 256

var nonWord = regexp.MustCompile(`\W+`)

// Index is the inverted text index. Not safe for concurrent mutation.
type Index struct {
	postings *trie.Trie[map[string]struct{}]

	// byID records which postings each id appears in, so Purge does
	// not have to scan the whole trie.
	byID map[string][]string
}

// NewIndex returns an empty inverted index.
func NewIndex() *Index {
	return &Index{
		postings: trie.New[map[string]struct{}](),
		byID:     make(map[string][]string),
	}
}

// Tokenize lowercases the value and splits it on non-word runs. Empty
// tokens are dropped.
func Tokenize(value string) []string {
	parts := nonWord.Split(strings.ToLower(value), -1)
	tokens := parts[:0]
	for _, part := range parts {
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

// SplitQuery splits a query with shell-style quoting so quoted phrases
// stay whole. Malformed quoting degrades to the naive tokenizer rather
// than failing.
func SplitQuery(query string) []string {
	parts, err := shlex.Split(query)
	if err != nil {
		return Tokenize(query)
	}
	return parts
}

// IndexText posts each value's snippet and tokens under the given id.
func (idx *Index) IndexText(id string, values ...string) {
	for _, value := range values {
		if value == "" {
			continue
		}
		snippet := strings.ToLower(value)
		if len(snippet) > snippetLen {
			cut := snippetLen
			// Back off to a rune boundary so the key stays valid UTF-8.
			for cut > 0 && !utf8.RuneStart(snippet[cut]) {
				cut--
			}
			snippet = snippet[:cut]
		}
		idx.post(snippet, id)
		for _, token := range Tokenize(value) {
			idx.post(token, id)
		}
	}
}

// Purge removes every posting for id. Postings left empty are deleted
// so stale tokens stop matching prefix walks.
func (idx *Index) Purge(id string) {
	for _, key := range idx.byID[id] {
		set, ok := idx.postings.Get(key)
		if !ok {
			continue
		}
		delete(set, id)
		if len(set) == 0 {
			idx.postings.Delete(key)
		}
	}
	delete(idx.byID, id)
}

// Hits returns the ids posted under any key the token is a prefix of.
func (idx *Index) Hits(token string) map[string]struct{} {
	result := make(map[string]struct{})
	idx.postings.WalkPrefix(strings.ToLower(token), func(_ string, set map[string]struct{}) bool {
		for id := range set {
			result[id] = struct{}{}
		}
		return true
	})
	return result
}

func (idx *Index) post(key, id string) {
	set, ok := idx.postings.Get(key)
	if !ok {
		set = make(map[string]struct{})
		idx.postings.Insert(key, set)
	}
	if _, dup := set[id]; dup {
		return
	}
	set[id] = struct{}{}
	idx.byID[id] = append(idx.byID[id], key)
}
