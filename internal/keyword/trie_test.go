package keyword

import (
	"reflect"
	"sort"
	"strings"
	"testing"
)

func TestTrie_Search(t *testing.T) {
	trie := BuildTrie([]string{"math", "matrix", "matter", "science", "set"})

	got := trie.Search("mat")
	want := []string{"math", "matrix", "matter"}
	sort.Strings(got)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Search(mat) = %v, want %v", got, want)
	}

	if got := trie.Search("matrix"); !reflect.DeepEqual(got, []string{"matrix"}) {
		t.Errorf("Search(matrix) = %v", got)
	}
	if got := trie.Search("x"); got != nil {
		t.Errorf("Search(x) = %v, want nil", got)
	}

	all := trie.Search("")
	if len(all) != 5 {
		t.Errorf("empty prefix returned %d terms, want 5", len(all))
	}
}

func TestTrie_Empty(t *testing.T) {
	trie := BuildTrie(nil)
	if got := trie.Search("a"); got != nil {
		t.Errorf("Search on empty trie = %v, want nil", got)
	}
	if trie.Size() != 1 {
		t.Errorf("empty trie size = %d, want 1 (root)", trie.Size())
	}
}

func TestTrie_RoundTrip(t *testing.T) {
	vocabs := [][]string{
		nil,
		{"a"},
		{"a", "ab", "abc", "b"},
		{"math", "matrix", "science", "set", "算数", "算法"},
	}
	for _, vocab := range vocabs {
		trie := BuildTrie(vocab)
		loaded := LoadTrie(trie.Serialize())
		if loaded.Size() != trie.Size() {
			t.Errorf("vocab %v: size %d after round trip, want %d", vocab, loaded.Size(), trie.Size())
		}
		prefixes := append([]string{""}, vocab...)
		for _, term := range vocab {
			runes := []rune(term)
			for i := 1; i <= len(runes); i++ {
				prefixes = append(prefixes, string(runes[:i]))
			}
		}
		for _, prefix := range prefixes {
			got := loaded.Search(prefix)
			want := trie.Search(prefix)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("vocab %v prefix %q: loaded %v, built %v", vocab, prefix, got, want)
			}
			var expected []string
			for _, term := range vocab {
				if strings.HasPrefix(term, prefix) {
					expected = append(expected, term)
				}
			}
			sort.Strings(got)
			sort.Strings(expected)
			if !reflect.DeepEqual(got, expected) {
				t.Errorf("vocab %v prefix %q: got %v, want %v", vocab, prefix, got, expected)
			}
		}
	}
}

func TestTrie_DeterministicSerialization(t *testing.T) {
	a := BuildTrie([]string{"beta", "alpha", "gamma"})
	b := BuildTrie([]string{"gamma", "alpha", "beta"})
	if !reflect.DeepEqual(a.Serialize(), b.Serialize()) {
		t.Error("serialization depends on vocabulary order")
	}
}
