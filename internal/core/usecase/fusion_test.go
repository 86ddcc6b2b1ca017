package usecase

import (
	"math"
	"testing"
	"time"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
)

func TestFuseWeightedCombinesNormalizedScores(t *testing.T) {
	vector := []domain.RetrievedChunk{
		{ChunkID: "a", Score: 0.9},
		{ChunkID: "b", Score: 0.5},
		{ChunkID: "c", Score: 0.1},
	}
	keyword := []domain.RetrievedChunk{
		{ChunkID: "b", Score: 0.8},
		{ChunkID: "c", Score: 0.2},
	}

	fused := fuseWeighted(vector, keyword, 0.7, 0.3)

	scores := make(map[string]float64, len(fused))
	for _, c := range fused {
		scores[c.ChunkID] = c.Score
	}

	// a: nv=1.0, no keyword hit -> 0.7*1.0
	if math.Abs(scores["a"]-0.7) > 1e-9 {
		t.Fatalf("score[a] = %g, want 0.7", scores["a"])
	}
	// b: nv=0.5, nk=1.0 -> 0.35+0.3
	if math.Abs(scores["b"]-0.65) > 1e-9 {
		t.Fatalf("score[b] = %g, want 0.65", scores["b"])
	}
	// c: nv=0.0, nk=0.0
	if math.Abs(scores["c"]) > 1e-9 {
		t.Fatalf("score[c] = %g, want 0", scores["c"])
	}
}

func TestFuseWeightedKeepsSingleSetHits(t *testing.T) {
	vector := []domain.RetrievedChunk{{ChunkID: "v-only", Score: 0.9}}
	keyword := []domain.RetrievedChunk{{ChunkID: "k-only", Score: 0.4}}

	fused := fuseWeighted(vector, keyword, 0.7, 0.3)
	if len(fused) != 2 {
		t.Fatalf("expected both hits kept, got %d", len(fused))
	}
	// Degenerate single-candidate sets normalize to 1.0.
	if fused[0].ChunkID != "v-only" || math.Abs(fused[0].Score-0.7) > 1e-9 {
		t.Fatalf("unexpected first candidate: %+v", fused[0])
	}
	if fused[1].ChunkID != "k-only" || math.Abs(fused[1].Score-0.3) > 1e-9 {
		t.Fatalf("unexpected second candidate: %+v", fused[1])
	}
}

func TestFuseWeightedMonotonicInWeights(t *testing.T) {
	vector := []domain.RetrievedChunk{
		{ChunkID: "both", Score: 0.8},
		{ChunkID: "v2", Score: 0.3},
	}
	keyword := []domain.RetrievedChunk{
		{ChunkID: "both", Score: 0.6},
		{ChunkID: "k2", Score: 0.1},
	}

	scoreOf := func(chunks []domain.RetrievedChunk, id string) float64 {
		for _, c := range chunks {
			if c.ChunkID == id {
				return c.Score
			}
		}
		t.Fatalf("chunk %q missing", id)
		return 0
	}

	prev := -1.0
	for _, vw := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		got := scoreOf(fuseWeighted(vector, keyword, vw, 0.3), "both")
		if got < prev {
			t.Fatalf("score decreased from %g to %g at vector_weight=%g", prev, got, vw)
		}
		prev = got
	}

	prev = -1.0
	for _, kw := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		got := scoreOf(fuseWeighted(vector, keyword, 0.7, kw), "both")
		if got < prev {
			t.Fatalf("score decreased from %g to %g at keyword_weight=%g", prev, got, kw)
		}
		prev = got
	}
}

func TestMergeVariantCandidatesKeepsMaxScorePerChunk(t *testing.T) {
	perVariant := [][]domain.RetrievedChunk{
		{{ChunkID: "a", Score: 0.4}, {ChunkID: "b", Score: 0.9}},
		{{ChunkID: "a", Score: 0.7}, {ChunkID: "c", Score: 0.2}},
	}

	merged := mergeVariantCandidates(perVariant)
	if len(merged) != 3 {
		t.Fatalf("expected 3 deduplicated chunks, got %d", len(merged))
	}
	if merged[0].ChunkID != "b" {
		t.Fatalf("expected b first, got %q", merged[0].ChunkID)
	}
	if merged[1].ChunkID != "a" || merged[1].Score != 0.7 {
		t.Fatalf("expected a with max score 0.7, got %+v", merged[1])
	}
}

func TestSortCandidatesTieBreaks(t *testing.T) {
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	chunks := []domain.RetrievedChunk{
		{ChunkID: "z", Ordinal: 3, Score: 0.5, DocCreatedAt: early},
		{ChunkID: "y", Ordinal: 1, Score: 0.5, DocCreatedAt: early},
		{ChunkID: "b", Ordinal: 1, Score: 0.5, DocCreatedAt: late},
		{ChunkID: "a", Ordinal: 2, Score: 0.9, DocCreatedAt: late},
	}
	sortCandidates(chunks)

	wantOrder := []string{"a", "y", "b", "z"}
	for i, want := range wantOrder {
		if chunks[i].ChunkID != want {
			t.Fatalf("position %d = %q, want %q (full: %+v)", i, chunks[i].ChunkID, want, chunks)
		}
	}
}

func TestTrimCandidatesBoundsOutput(t *testing.T) {
	chunks := []domain.RetrievedChunk{{ChunkID: "a"}, {ChunkID: "b"}, {ChunkID: "c"}}
	if got := trimCandidates(chunks, 2); len(got) != 2 {
		t.Fatalf("expected 2, got %d", len(got))
	}
	if got := trimCandidates(chunks, 5); len(got) != 3 {
		t.Fatalf("expected all 3, got %d", len(got))
	}
	if got := trimCandidates(chunks, 0); len(got) != 3 {
		t.Fatalf("zero limit must not trim, got %d", len(got))
	}
}
