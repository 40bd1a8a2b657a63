package bpe

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
	"github.com/pkg/errors"

	"github.com/minbpe/go-minbpe/tokenizers/api"
)

// modelVersion is the fixed first line of every model file; loading anything
// else fails.
const modelVersion = "minbpe v1"

// The model file layout, inspired by (but not equivalent to) SentencePiece's
// model saving:
//
//	line 1: version marker
//	line 2: split pattern (empty if none)
//	line 3: N, the number of special tokens
//	N lines: "<token-text> <token-id>"
//	rest:    one merge per line, "<left-id> <right-id>", in replay order
//
// Merge target ids are not stored: loading assigns them positionally from
// 256, one per line, in file order.

type modelData struct {
	pattern  string
	specials []SpecialToken
	merges   *Merges
}

// saveModel writes <prefix>.model (the load input) and <prefix>.vocab (a
// human-readable listing, never a load input) under dir.
func saveModel(dir, prefix, pattern string, specials []SpecialToken, merges *Merges, vocab *Vocab) error {
	modelPath := filepath.Join(dir, prefix+".model")
	f, err := os.Create(modelPath)
	if err != nil {
		return errors.Wrapf(err, "creating model file %q", modelPath)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, modelVersion)
	fmt.Fprintln(w, pattern)
	fmt.Fprintln(w, len(specials))
	for _, sp := range specials {
		fmt.Fprintf(w, "%s %d\n", sp.Text, sp.ID)
	}

	// Replay order is target-id order. For a trained table that equals
	// insertion order, but sort anyway so the file never depends on it.
	type mergeEntry struct {
		pair Pair
		id   api.Token
	}
	entries := make([]mergeEntry, 0, merges.Size())
	it := merges.Iterator()
	for it.Next() {
		entries = append(entries, mergeEntry{pair: it.Key(), id: it.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
	for _, e := range entries {
		fmt.Fprintf(w, "%d %d\n", e.pair.Left, e.pair.Right)
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "writing model file %q", modelPath)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "closing model file %q", modelPath)
	}

	return writeVocabListing(filepath.Join(dir, prefix+".vocab"), merges, vocab)
}

// writeVocabListing renders the vocabulary for human inspection: merged
// tokens as "[left][right] -> [merged] id", leaf tokens as "[token] id".
func writeVocabListing(path string, merges *Merges, vocab *Vocab) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating vocab file %q", path)
	}
	defer f.Close()

	inverted := make(map[api.Token]Pair, merges.Size())
	mit := merges.Iterator()
	for mit.Next() {
		inverted[mit.Value()] = mit.Key()
	}

	w := bufio.NewWriter(f)
	it := vocab.Iterator()
	for it.Next() {
		id, token := it.Key(), it.Value()
		if pair, ok := inverted[id]; ok {
			left, _ := vocab.Get(pair.Left)
			right, _ := vocab.Get(pair.Right)
			fmt.Fprintf(w, "[%s][%s] -> [%s] %d\n", renderToken(left), renderToken(right), renderToken(token), id)
		} else {
			fmt.Fprintf(w, "[%s] %d\n", renderToken(token), id)
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "writing vocab file %q", path)
	}
	return nil
}

// loadModel parses a model file. Any malformed line is ErrFormat; the caller
// installs nothing unless loadModel succeeds as a whole.
func loadModel(path string) (*modelData, error) {
	if filepath.Ext(path) != ".model" {
		return nil, errors.Wrapf(api.ErrFormat, "model file must have a .model extension, got %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading model file %q", path)
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024) // split patterns can be long

	if !sc.Scan() {
		return nil, errors.Wrapf(api.ErrFormat, "%q: missing version line", path)
	}
	if sc.Text() != modelVersion {
		return nil, errors.Wrapf(api.ErrFormat, "%q: version marker %q, want %q", path, sc.Text(), modelVersion)
	}

	if !sc.Scan() {
		return nil, errors.Wrapf(api.ErrFormat, "%q: missing split-pattern line", path)
	}
	pattern := sc.Text()

	if !sc.Scan() {
		return nil, errors.Wrapf(api.ErrFormat, "%q: missing special-token count line", path)
	}
	numSpecials, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil || numSpecials < 0 {
		return nil, errors.Wrapf(api.ErrFormat, "%q: bad special-token count %q", path, sc.Text())
	}

	specials := make([]SpecialToken, 0, numSpecials)
	for i := 0; i < numSpecials; i++ {
		if !sc.Scan() {
			return nil, errors.Wrapf(api.ErrFormat, "%q: %d special tokens declared, %d found", path, numSpecials, i)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			return nil, errors.Wrapf(api.ErrFormat, "%q: bad special-token line %q", path, sc.Text())
		}
		id, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(api.ErrFormat, "%q: bad special-token id %q", path, fields[1])
		}
		specials = append(specials, SpecialToken{Text: fields[0], ID: api.Token(id)})
	}

	merges := linkedhashmap.New[Pair, api.Token]()
	nextID := api.Token(256)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			return nil, errors.Wrapf(api.ErrFormat, "%q: bad merge line %q", path, sc.Text())
		}
		left, err := strconv.ParseInt(fields[0], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(api.ErrFormat, "%q: bad merge id %q", path, fields[0])
		}
		right, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(api.ErrFormat, "%q: bad merge id %q", path, fields[1])
		}
		merges.Put(Pair{api.Token(left), api.Token(right)}, nextID)
		nextID++
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading model file %q", path)
	}

	return &modelData{pattern: pattern, specials: specials, merges: merges}, nil
}
