package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	sahilm "github.com/sahilm/fuzzy"

	"github.com/netanel-haber/localfiles.stream/internal/domain"
)

// Result is one matched descriptor with highlight metadata.
type Result struct {
	Descriptor     domain.AssetDescriptor
	MatchedIndexes []int // character positions that matched, for highlighting
	Score          int   // lower is better
}

// Index implements sahilm/fuzzy.Source over descriptor names so filtering
// allocates nothing per keystroke.
type Index struct {
	descriptors []domain.AssetDescriptor
	lowerNames  []string
}

// NewIndex builds a filter index over descriptors.
func NewIndex(descriptors []domain.AssetDescriptor) *Index {
	lower := make([]string, len(descriptors))
	for i, d := range descriptors {
		lower[i] = strings.ToLower(d.Name)
	}
	return &Index{descriptors: descriptors, lowerNames: lower}
}

// String returns the lowercase name at index i (implements fuzzy.Source).
func (idx *Index) String(i int) string { return idx.lowerNames[i] }

// Len returns the number of descriptors (implements fuzzy.Source).
func (idx *Index) Len() int { return len(idx.descriptors) }

// Filter returns descriptors whose name fuzzy-matches query, best first.
// An empty query matches everything in library order.
func (idx *Index) Filter(query string) []Result {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		results := make([]Result, len(idx.descriptors))
		for i, d := range idx.descriptors {
			results[i] = Result{Descriptor: d}
		}
		return results
	}

	matches := sahilm.FindFrom(query, idx)
	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			Descriptor:     idx.descriptors[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          -m.Score, // sahilm scores higher-is-better
		})
	}
	return results
}

// Rank orders descriptors by Levenshtein-ranked match against query,
// dropping non-matches. Used for one-shot queries (CLI), where ranked edit
// distance beats per-character subsequence matching.
func Rank(query string, descriptors []domain.AssetDescriptor) []domain.AssetDescriptor {
	query = strings.TrimSpace(query)
	if query == "" {
		return descriptors
	}

	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = d.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)

	results := make([]domain.AssetDescriptor, 0, len(ranks))
	for _, r := range ranks {
		results = append(results, descriptors[r.OriginalIndex])
	}
	return results
}
