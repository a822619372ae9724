package search

import (
	"testing"

	"github.com/netanel-haber/localfiles.stream/internal/domain"
)

func library() []domain.AssetDescriptor {
	return []domain.AssetDescriptor{
		{ID: "1", Name: "Alien Director's Cut.mp4"},
		{ID: "2", Name: "Blade Runner.mkv"},
		{ID: "3", Name: "The Thing.mp4"},
	}
}

func TestIndex_EmptyQueryKeepsLibraryOrder(t *testing.T) {
	idx := NewIndex(library())

	results := idx.Filter("")
	if len(results) != 3 {
		t.Fatalf("expected all descriptors, got %d", len(results))
	}
	for i, want := range []string{"1", "2", "3"} {
		if results[i].Descriptor.ID != want {
			t.Errorf("position %d: expected id %s, got %s", i, want, results[i].Descriptor.ID)
		}
	}
}

func TestIndex_FilterIsCaseInsensitive(t *testing.T) {
	idx := NewIndex(library())

	results := idx.Filter("BLADE")
	if len(results) != 1 || results[0].Descriptor.ID != "2" {
		t.Fatalf("expected only Blade Runner, got %+v", results)
	}
	if len(results[0].MatchedIndexes) == 0 {
		t.Error("expected highlight positions for the match")
	}
}

func TestIndex_FilterSubsequenceMatch(t *testing.T) {
	idx := NewIndex(library())

	results := idx.Filter("thng")
	if len(results) != 1 || results[0].Descriptor.ID != "3" {
		t.Errorf("expected a subsequence match on The Thing, got %+v", results)
	}
}

func TestIndex_FilterNoMatch(t *testing.T) {
	idx := NewIndex(library())

	if results := idx.Filter("zzzz"); len(results) != 0 {
		t.Errorf("expected no matches, got %+v", results)
	}
}

func TestRank_BestMatchFirst(t *testing.T) {
	ranked := Rank("blade", library())
	if len(ranked) == 0 {
		t.Fatal("expected at least one ranked match")
	}
	if ranked[0].ID != "2" {
		t.Errorf("expected Blade Runner ranked first, got %+v", ranked[0])
	}
}

func TestRank_EmptyQueryPassesThrough(t *testing.T) {
	in := library()
	ranked := Rank("  ", in)
	if len(ranked) != len(in) {
		t.Errorf("expected pass-through, got %d of %d", len(ranked), len(in))
	}
}
