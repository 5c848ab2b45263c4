// Package trie implements a byte-wise prefix tree with deterministic
// lexicographic traversal. The index uses two of them: one mapping
// entity ids to entities (prefix lookup, short-id computation) and one
// mapping search tokens to id sets (prefix token matching).
package trie

import "sort"

// Trie maps string keys to values of type V. Keys are compared
// byte-wise, so traversal order is lexicographic. The zero value is not
// usable; construct with New.
type Trie[V any] struct {
	root *node[V]
	size int
}

type node[V any] struct {
	children map[byte]*node[V]
	value    V
	hasValue bool
}

// New returns an empty trie.
func New[V any]() *Trie[V] {
	return &Trie[V]{root: &node[V]{}}
}

// Len returns the number of keys stored.
func (t *Trie[V]) Len() int {
	return t.size
}

// Insert stores value under key, replacing any existing value.
func (t *Trie[V]) Insert(key string, value V) {
	current := t.root
	for i := 0; i < len(key); i++ {
		if current.children == nil {
			current.children = make(map[byte]*node[V])
		}
		child, ok := current.children[key[i]]
		if !ok {
			child = &node[V]{}
			current.children[key[i]] = child
		}
		current = child
	}
	if !current.hasValue {
		t.size++
	}
	current.value = value
	current.hasValue = true
}

// Get returns the value stored under exactly key.
func (t *Trie[V]) Get(key string) (V, bool) {
	current := t.find(key)
	if current == nil || !current.hasValue {
		var zero V
		return zero, false
	}
	return current.value, true
}

// Delete removes key from the trie. Returns true if the key was
// present. Emptied branches are pruned so prefix counts stay accurate.
func (t *Trie[V]) Delete(key string) bool {
	// Record the path so empty nodes can be pruned bottom-up.
	path := make([]*node[V], 0, len(key)+1)
	current := t.root
	path = append(path, current)
	for i := 0; i < len(key); i++ {
		child, ok := current.children[key[i]]
		if !ok {
			return false
		}
		current = child
		path = append(path, current)
	}
	if !current.hasValue {
		return false
	}
	var zero V
	current.value = zero
	current.hasValue = false
	t.size--

	for i := len(path) - 1; i > 0; i-- {
		n := path[i]
		if n.hasValue || len(n.children) > 0 {
			break
		}
		delete(path[i-1].children, key[i-1])
	}
	return true
}

// WalkPrefix visits every entry whose key begins with prefix, in
// lexicographic key order. Returning false from fn stops the walk.
func (t *Trie[V]) WalkPrefix(prefix string, fn func(key string, value V) bool) {
	start := t.find(prefix)
	if start == nil {
		return
	}
	walk(start, prefix, fn)
}

// CountPrefix counts entries whose key begins with prefix, stopping
// early once limit is reached. A limit of 0 counts everything.
func (t *Trie[V]) CountPrefix(prefix string, limit int) int {
	count := 0
	t.WalkPrefix(prefix, func(string, V) bool {
		count++
		return limit == 0 || count < limit
	})
	return count
}

// FirstPrefix returns the entry with the lexicographically smallest key
// beginning with prefix. This makes resolution of an ambiguous prefix
// deterministic rather than dependent on insertion order.
func (t *Trie[V]) FirstPrefix(prefix string) (key string, value V, ok bool) {
	t.WalkPrefix(prefix, func(k string, v V) bool {
		key, value, ok = k, v, true
		return false
	})
	return key, value, ok
}

// Keys returns every key with the given prefix in lexicographic order.
// Keys("") lists the whole trie.
func (t *Trie[V]) Keys(prefix string) []string {
	var keys []string
	t.WalkPrefix(prefix, func(k string, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

func (t *Trie[V]) find(key string) *node[V] {
	current := t.root
	for i := 0; i < len(key); i++ {
		child, ok := current.children[key[i]]
		if !ok {
			return nil
		}
		current = child
	}
	return current
}

func walk[V any](n *node[V], key string, fn func(string, V) bool) bool {
	if n.hasValue && !fn(key, n.value) {
		return false
	}
	if len(n.children) == 0 {
		return true
	}
	bytes := make([]byte, 0, len(n.children))
	for b := range n.children {
		bytes = append(bytes, b)
	}
	sort.Slice(bytes, func(i, j int) bool { return bytes[i] < bytes[j] })
	for _, b := range bytes {
		if !walk(n.children[b], key+string(b), fn) {
			return false
		}
	}
	return true
}
