/*
Package trie implements a segment tree for values associated to path-like
keys, with exact, wildcard and longest-prefix lookup.

Keys are split into segments by a configurable separator: '/' for URL paths,
'.' for host names. A segment registered as "*" matches any single segment
during lookup. FindLongestPrefix is the primary operation: among every
registered key that matches a leading portion of the lookup key, it selects
the one consuming the most segments, preferring exact segments over
wildcards at equal depth.
*/
package trie

import (
	"errors"
	"strings"
)

var (
	// ErrTooDeep is returned by Set when the key exceeds the configured
	// maximum segment depth.
	ErrTooDeep = errors.New("key exceeds maximum trie depth")

	// ErrEmptyKey is returned when a key produces no segments.
	ErrEmptyKey = errors.New("empty key")
)

// Wildcard is the segment that matches any single segment during lookup.
const Wildcard = "*"

const defaultMaxDepth = 32

// Options configure a Tree.
type Options struct {

	// Separator splits keys into segments. Defaults to '/'.
	Separator byte

	// MaxDepth limits the number of segments per key. Defaults to 32.
	MaxDepth int

	// AllowPrefix enables true prefix matches in FindLongestPrefix. When
	// disabled, only entries whose full key is consumed by the lookup key
	// can match, which restricts lookup to exact-or-wildcard matches.
	AllowPrefix bool
}

type node struct {
	children map[string]*node
	value    any
	hasValue bool
}

// Tree stores values associated to segmented keys.
type Tree struct {
	root      node
	separator byte
	maxDepth  int
	prefix    bool
	size      int
}

// New creates a Tree with the given options.
func New(o Options) *Tree {
	if o.Separator == 0 {
		o.Separator = '/'
	}

	if o.MaxDepth <= 0 {
		o.MaxDepth = defaultMaxDepth
	}

	return &Tree{
		separator: o.Separator,
		maxDepth:  o.MaxDepth,
		prefix:    o.AllowPrefix,
	}
}

func (t *Tree) split(key string) []string {
	var segments []string
	for _, s := range strings.Split(key, string(t.separator)) {
		if s != "" {
			segments = append(segments, s)
		}
	}

	return segments
}

// Set associates a value with a key, overwriting any previous value.
func (t *Tree) Set(key string, value any) error {
	segments := t.split(key)
	if len(segments) == 0 {
		return ErrEmptyKey
	}

	if len(segments) > t.maxDepth {
		return ErrTooDeep
	}

	n := &t.root
	for _, s := range segments {
		if n.children == nil {
			n.children = make(map[string]*node)
		}

		child, ok := n.children[s]
		if !ok {
			child = &node{}
			n.children[s] = child
		}

		n = child
	}

	if !n.hasValue {
		t.size++
	}

	n.value = value
	n.hasValue = true
	return nil
}

func (t *Tree) lookup(key string) *node {
	segments := t.split(key)
	if len(segments) == 0 {
		return nil
	}

	n := &t.root
	for _, s := range segments {
		child, ok := n.children[s]
		if !ok {
			return nil
		}

		n = child
	}

	return n
}

// Get returns the value stored at exactly key, without wildcard expansion.
func (t *Tree) Get(key string) (any, bool) {
	n := t.lookup(key)
	if n == nil || !n.hasValue {
		return nil, false
	}

	return n.value, true
}

// Has reports whether a value is stored at exactly key.
func (t *Tree) Has(key string) bool {
	n := t.lookup(key)
	return n != nil && n.hasValue
}

// Del removes the value stored at key and prunes any ancestor nodes left
// without values or children. It reports whether a value was removed.
func (t *Tree) Del(key string) bool {
	segments := t.split(key)
	if len(segments) == 0 {
		return false
	}

	path := make([]*node, 0, len(segments)+1)
	n := &t.root
	path = append(path, n)
	for _, s := range segments {
		child, ok := n.children[s]
		if !ok {
			return false
		}

		n = child
		path = append(path, n)
	}

	if !n.hasValue {
		return false
	}

	n.value = nil
	n.hasValue = false
	t.size--

	// prune bottom-up
	for i := len(segments) - 1; i >= 0; i-- {
		child := path[i+1]
		if child.hasValue || len(child.children) > 0 {
			break
		}

		delete(path[i].children, segments[i])
	}

	return true
}

// Size returns the number of stored values.
func (t *Tree) Size() int { return t.size }

type match struct {
	value    any
	depth    int
	wildcard bool
}

// better reports whether m wins over o: greater depth wins, and at equal
// depth an exact path beats one that traversed any wildcard.
func (m match) better(o match) bool {
	if m.depth != o.depth {
		return m.depth > o.depth
	}

	return !m.wildcard && o.wildcard
}

func (t *Tree) collect(n *node, segments []string, depth int, viaWildcard bool, best *match, found *bool) {
	if n.hasValue && (t.prefix || depth == len(segments)) {
		m := match{value: n.value, depth: depth, wildcard: viaWildcard}
		if !*found || m.better(*best) {
			*best = m
			*found = true
		}
	}

	if depth == len(segments) {
		return
	}

	if child, ok := n.children[segments[depth]]; ok && segments[depth] != Wildcard {
		t.collect(child, segments, depth+1, viaWildcard, best, found)
	}

	if child, ok := n.children[Wildcard]; ok {
		t.collect(child, segments, depth+1, true, best, found)
	}
}

// FindLongestPrefix returns the value registered under the deepest key
// matching a leading portion of the lookup key, expanding "*" segments.
// With prefix matching disabled, only keys consuming the whole lookup key
// are considered. At equal depth an exact match beats a wildcard match.
func (t *Tree) FindLongestPrefix(key string) (any, bool) {
	segments := t.split(key)
	if len(segments) == 0 {
		return nil, false
	}

	if len(segments) > t.maxDepth {
		segments = segments[:t.maxDepth]
	}

	var (
		best  match
		found bool
	)

	t.collect(&t.root, segments, 0, false, &best, &found)
	if !found {
		return nil, false
	}

	return best.value, true
}
