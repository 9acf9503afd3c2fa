package registry

// wordTrie indexes multi-word type names by word so the lexer can find the
// longest registered name starting at a position without substring scans.
type wordTrie struct {
	children map[string]*wordTrie
	terminal bool
}

func newWordTrie() *wordTrie {
	return &wordTrie{children: make(map[string]*wordTrie)}
}

func (t *wordTrie) insert(words []string) {
	node := t
	for _, w := range words {
		child, ok := node.children[w]
		if !ok {
			child = newWordTrie()
			node.children[w] = child
		}
		node = child
	}
	node.terminal = true
}

// longest returns the length of the longest terminal path that is a
// prefix of words, or 0.
func (t *wordTrie) longest(words []string) int {
	best := 0
	node := t
	for i, w := range words {
		child, ok := node.children[w]
		if !ok {
			break
		}
		node = child
		if node.terminal {
			best = i + 1
		}
	}
	return best
}
