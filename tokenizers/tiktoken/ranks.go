// Package tiktoken loads tiktoken-style rank tables and recovers working
// tokenizers from them. A rank table carries no merge list, only tokens with
// ranks; the merges are reconstructed by re-deriving, for every multi-byte
// token, the unique split into two strictly lower-ranked parts.
package tiktoken

import (
	"bufio"
	"encoding/base64"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
	"github.com/pkg/errors"

	"github.com/minbpe/go-minbpe/tokenizers/api"
)

// RankEntry is one rank-table row: a token's bytes and its rank. Ranks double
// as token ids.
type RankEntry struct {
	Bytes []byte
	Rank  api.Token
}

// RankTable maps token bytes to ranks, preserving file order.
type RankTable struct {
	byToken *linkedhashmap.Map[string, api.Token]
}

// NewRankTable builds a table from entries. Later duplicates overwrite
// earlier ones, like repeated lines in a file would.
func NewRankTable(entries []RankEntry) *RankTable {
	table := &RankTable{byToken: linkedhashmap.New[string, api.Token]()}
	for _, e := range entries {
		table.byToken.Put(string(e.Bytes), e.Rank)
	}
	return table
}

// ParseRankTable reads the tiktoken text format: one token per line,
// base64-encoded bytes, a space, the decimal rank. Blank lines are ignored.
func ParseRankTable(r io.Reader) (*RankTable, error) {
	table := &RankTable{byToken: linkedhashmap.New[string, api.Token]()}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, errors.Wrapf(api.ErrFormat, "rank table line %d: want \"<base64> <rank>\", got %q", lineNo, line)
		}
		token, err := base64.StdEncoding.DecodeString(fields[0])
		if err != nil {
			return nil, errors.Wrapf(api.ErrFormat, "rank table line %d: bad base64 %q: %v", lineNo, fields[0], err)
		}
		rank, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil || rank < 0 {
			return nil, errors.Wrapf(api.ErrFormat, "rank table line %d: bad rank %q", lineNo, fields[1])
		}
		table.byToken.Put(string(token), api.Token(rank))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "reading rank table")
	}
	return table, nil
}

// LoadRankTableFile parses the rank table stored at path.
func LoadRankTableFile(path string) (*RankTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening rank table %q", path)
	}
	defer f.Close()
	table, err := ParseRankTable(f)
	if err != nil {
		return nil, errors.Wrapf(err, "rank table %q", path)
	}
	return table, nil
}

// Rank returns the rank of token, if present.
func (t *RankTable) Rank(token []byte) (api.Token, bool) {
	return t.byToken.Get(string(token))
}

// Len returns the number of entries.
func (t *RankTable) Len() int { return t.byToken.Size() }

// Entries returns all entries sorted by ascending rank, the order merge
// recovery replays them in.
func (t *RankTable) Entries() []RankEntry {
	entries := make([]RankEntry, 0, t.byToken.Size())
	it := t.byToken.Iterator()
	for it.Next() {
		entries = append(entries, RankEntry{Bytes: []byte(it.Key()), Rank: it.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })
	return entries
}
