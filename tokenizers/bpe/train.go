package bpe

import (
	"runtime"

	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/minbpe/go-minbpe/tokenizers/api"
)

// Below this many chunks the sharded statistics pass costs more than it saves.
const parallelStatsThreshold = 1024

// chunkPairCounts computes the combined pair statistics across all chunks.
//
// Large inputs are sharded over a worker group, one ordered map per contiguous
// chunk range, folded back in shard order. Folding contiguous shards in order
// reproduces the sequential first-seen insertion order exactly, so the
// training tie-break is unaffected by the parallelism.
func chunkPairCounts(chunks [][]api.Token) *Counts {
	workers := runtime.GOMAXPROCS(0)
	if len(chunks) < parallelStatsThreshold || workers < 2 {
		counts := linkedhashmap.New[Pair, Count]()
		for _, ids := range chunks {
			UpdatePairCounts(ids, counts)
		}
		return counts
	}

	if workers > len(chunks) {
		workers = len(chunks)
	}
	locals := make([]*Counts, workers)
	per := (len(chunks) + workers - 1) / workers
	var group errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		lo := w * per
		hi := lo + per
		if hi > len(chunks) {
			hi = len(chunks)
		}
		group.Go(func() error {
			local := linkedhashmap.New[Pair, Count]()
			for _, ids := range chunks[lo:hi] {
				UpdatePairCounts(ids, local)
			}
			locals[w] = local
			return nil
		})
	}
	_ = group.Wait() // workers never fail

	merged := linkedhashmap.New[Pair, Count]()
	for _, local := range locals {
		if local == nil {
			continue
		}
		it := local.Iterator()
		for it.Next() {
			n, _ := merged.Get(it.Key())
			merged.Put(it.Key(), n+it.Value())
		}
	}
	return merged
}

// trainMerges runs the greedy merge loop: repeatedly count pairs across all
// chunks, merge the most frequent pair (first-seen wins ties) into a freshly
// minted id, until vocabSize-256 merges are recorded.
//
// It builds into fresh maps and only returns them on full success, so callers
// can install the result atomically. The chunks slices are consumed.
func trainMerges(chunks [][]api.Token, vocabSize api.Token, verbose bool) (*Merges, *Vocab, error) {
	if vocabSize < 256 {
		return nil, nil, errors.Wrapf(api.ErrConfiguration, "vocab size must be at least 256, got %d", vocabSize)
	}
	numMerges := int(vocabSize) - 256

	merges := linkedhashmap.New[Pair, api.Token]()
	vocab := baseVocab()

	for i := 0; i < numMerges; i++ {
		stats := chunkPairCounts(chunks)
		pair, ok := TopPair(stats)
		if !ok {
			return nil, nil, errors.Wrapf(api.ErrTrainingExhausted,
				"no mergeable pair left at merge %d of %d", i+1, numMerges)
		}

		newID := api.Token(256 + i)
		for ci, ids := range chunks {
			chunks[ci] = MergePair(ids, pair, newID)
		}

		merges.Put(pair, newID)
		left, _ := vocab.Get(pair.Left)
		right, _ := vocab.Get(pair.Right)
		token := make([]byte, 0, len(left)+len(right))
		token = append(append(token, left...), right...)
		vocab.Put(newID, token)

		if verbose {
			occurrences, _ := stats.Get(pair)
			klog.Infof("merge %d/%d: (%d, %d) -> %d (%s) had %d occurrences",
				i+1, numMerges, pair.Left, pair.Right, newID, renderToken(token), occurrences)
		}
	}

	return merges, vocab, nil
}
