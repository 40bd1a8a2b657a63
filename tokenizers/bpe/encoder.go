package bpe

import (
	"cmp"
	"sort"

	"github.com/emirpasic/gods/v2/trees/binaryheap"

	"github.com/minbpe/go-minbpe/tokenizers/api"
)

// Encoder applies a merge table without the reference encoder's full rescan
// per merge: candidate pairs sit in a priority queue keyed by merge target id,
// and each pop replays the pair's recorded occurrences in ascending position
// order over a doubly-linked node list. Output is identical to applyMerges;
// it only pays off on large merge tables, so the recovered-tokenizer path
// uses it.
type Encoder struct {
	merges *Merges
}

// NewEncoder returns an Encoder over merges. The Encoder keeps no per-call
// state and is safe for concurrent use once merges is immutable.
func NewEncoder(merges *Merges) *Encoder {
	return &Encoder{merges: merges}
}

type encNode struct {
	id    api.Token
	prev  int
	next  int
	alive bool
}

type candidate struct {
	pair Pair
	id   api.Token // merge target, the queue priority
}

// Encode merges ids until no pair present in the merge table remains.
func (e *Encoder) Encode(ids []api.Token) []api.Token {
	if len(ids) < 2 {
		return append([]api.Token(nil), ids...)
	}

	nodes := make([]encNode, len(ids))
	for i, id := range ids {
		nodes[i] = encNode{id: id, prev: i - 1, next: i + 1, alive: true}
	}
	nodes[len(nodes)-1].next = -1

	// One queue entry per distinct pair; occurrences accumulate per pair and
	// are validated at pop time, so stale entries cost nothing but a skip.
	occurrences := make(map[Pair][]int)
	queued := make(map[Pair]bool)
	heap := binaryheap.NewWith(func(a, b candidate) int {
		return cmp.Compare(a.id, b.id)
	})

	// note records the adjacency starting at node left, if it is mergeable.
	// Every adjacency change below goes through note, so the occurrence
	// lists cover all pairs present in the current sequence.
	note := func(left int) {
		right := nodes[left].next
		if right == -1 {
			return
		}
		pair := Pair{nodes[left].id, nodes[right].id}
		target, ok := e.merges.Get(pair)
		if !ok {
			return
		}
		occurrences[pair] = append(occurrences[pair], left)
		if !queued[pair] {
			queued[pair] = true
			heap.Push(candidate{pair: pair, id: target})
		}
	}
	for i := 0; i+1 < len(nodes); i++ {
		note(i)
	}

	for {
		c, ok := heap.Pop()
		if !ok {
			break
		}
		positions := occurrences[c.pair]
		delete(occurrences, c.pair)
		queued[c.pair] = false

		// Ascending position order reproduces the left-to-right
		// non-overlapping replacement rule: a consumed right node fails
		// validation for any later overlapping occurrence.
		sort.Ints(positions)
		for _, pos := range positions {
			n := &nodes[pos]
			if !n.alive || n.id != c.pair.Left {
				continue
			}
			rightIdx := n.next
			if rightIdx == -1 || nodes[rightIdx].id != c.pair.Right {
				continue
			}

			n.id = c.id
			nodes[rightIdx].alive = false
			n.next = nodes[rightIdx].next
			if n.next != -1 {
				nodes[n.next].prev = pos
			}

			if n.prev != -1 {
				note(n.prev)
			}
			note(pos)
		}
	}

	out := make([]api.Token, 0, len(ids))
	for i := 0; i != -1; i = nodes[i].next {
		out = append(out, nodes[i].id)
	}
	return out
}
