package keyword

import "sort"

// FlatNode is the serialized form of one trie node. Children are indices
// into the flat node array, not pointers, so the whole trie round-trips
// through JSON without a recursive object graph.
type FlatNode struct {
	Char     string `json:"char"`
	Children []int  `json:"children,omitempty"`
	IsWord   bool   `json:"isWord,omitempty"`
}

type trieNode struct {
	char     rune
	children []int
	isWord   bool
}

// Trie is a prefix tree over a vocabulary. Nodes live in an index-addressed
// arena; node 0 is the root. A built trie is an immutable snapshot.
type Trie struct {
	nodes []trieNode
}

// BuildTrie constructs a trie over the vocabulary. Terms are inserted in
// sorted order so the node layout, and therefore Search order and the
// serialized form, is deterministic for a given vocabulary.
func BuildTrie(vocab []string) *Trie {
	terms := make([]string, len(vocab))
	copy(terms, vocab)
	sort.Strings(terms)

	t := &Trie{nodes: []trieNode{{}}}
	for _, term := range terms {
		if term == "" {
			continue
		}
		t.insert(term)
	}
	return t
}

// Size returns the total node count, including the root.
func (t *Trie) Size() int {
	return len(t.nodes)
}

func (t *Trie) insert(term string) {
	cur := 0
	for _, r := range term {
		next := -1
		for _, ci := range t.nodes[cur].children {
			if t.nodes[ci].char == r {
				next = ci
				break
			}
		}
		if next < 0 {
			next = len(t.nodes)
			t.nodes = append(t.nodes, trieNode{char: r})
			t.nodes[cur].children = append(t.nodes[cur].children, next)
		}
		cur = next
	}
	t.nodes[cur].isWord = true
}

// Search returns every vocabulary term that begins with prefix, in
// depth-first order. The empty prefix returns the whole vocabulary.
func (t *Trie) Search(prefix string) []string {
	if len(t.nodes) == 0 {
		return nil
	}
	cur := 0
	for _, r := range prefix {
		next := -1
		for _, ci := range t.nodes[cur].children {
			if t.nodes[ci].char == r {
				next = ci
				break
			}
		}
		if next < 0 {
			return nil
		}
		cur = next
	}
	var out []string
	t.walk(cur, []rune(prefix), &out)
	return out
}

func (t *Trie) walk(idx int, path []rune, out *[]string) {
	if t.nodes[idx].isWord {
		*out = append(*out, string(path))
	}
	for _, ci := range t.nodes[idx].children {
		t.walk(ci, append(path, t.nodes[ci].char), out)
	}
}

// Serialize flattens the trie into its storable node-array form.
func (t *Trie) Serialize() []FlatNode {
	flat := make([]FlatNode, len(t.nodes))
	for i, n := range t.nodes {
		char := ""
		if n.char != 0 {
			char = string(n.char)
		}
		flat[i] = FlatNode{Char: char, Children: n.children, IsWord: n.isWord}
	}
	return flat
}

// LoadTrie reconstructs a queryable trie from its flat serialized form.
func LoadTrie(flat []FlatNode) *Trie {
	if len(flat) == 0 {
		return &Trie{nodes: []trieNode{{}}}
	}
	nodes := make([]trieNode, len(flat))
	for i, fn := range flat {
		var char rune
		for _, r := range fn.Char {
			char = r
			break
		}
		nodes[i] = trieNode{char: char, children: fn.Children, isWord: fn.IsWord}
	}
	return &Trie{nodes: nodes}
}
