package usecase

import (
	"sort"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
)

// fuseWeighted combines one variant's vector and keyword candidate sets as
// vectorWeight*nv + keywordWeight*nk, where nv/nk are min-max normalized
// within each candidate set. A chunk present in only one set scores zero for
// the missing component rather than being excluded, so keyword-only and
// vector-only hits still compete.
func fuseWeighted(vector, keyword []domain.RetrievedChunk, vectorWeight, keywordWeight float64) []domain.RetrievedChunk {
	vectorNorm := normalizeScores(vector)
	keywordNorm := normalizeScores(keyword)

	acc := make(map[string]domain.RetrievedChunk, len(vector)+len(keyword))
	add := func(chunks []domain.RetrievedChunk) {
		for _, chunk := range chunks {
			if _, ok := acc[chunk.ChunkID]; !ok {
				acc[chunk.ChunkID] = chunk
			}
		}
	}
	add(vector)
	add(keyword)

	out := make([]domain.RetrievedChunk, 0, len(acc))
	for id, chunk := range acc {
		chunk.Score = vectorWeight*vectorNorm[id] + keywordWeight*keywordNorm[id]
		out = append(out, chunk)
	}
	sortCandidates(out)
	return out
}

// mergeVariantCandidates deduplicates across query variants, keeping the
// maximum fused score per chunk.
func mergeVariantCandidates(perVariant [][]domain.RetrievedChunk) []domain.RetrievedChunk {
	best := make(map[string]domain.RetrievedChunk)
	for _, variant := range perVariant {
		for _, chunk := range variant {
			current, ok := best[chunk.ChunkID]
			if !ok || chunk.Score > current.Score {
				best[chunk.ChunkID] = chunk
			}
		}
	}

	out := make([]domain.RetrievedChunk, 0, len(best))
	for _, chunk := range best {
		out = append(out, chunk)
	}
	sortCandidates(out)
	return out
}

// normalizeScores min-max normalizes one candidate set. A degenerate set
// (all scores equal) normalizes to 1.0 so single-hit sets still contribute
// their full weight.
func normalizeScores(chunks []domain.RetrievedChunk) map[string]float64 {
	out := make(map[string]float64, len(chunks))
	if len(chunks) == 0 {
		return out
	}

	minScore, maxScore := chunks[0].Score, chunks[0].Score
	for _, c := range chunks[1:] {
		if c.Score < minScore {
			minScore = c.Score
		}
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}

	span := maxScore - minScore
	for _, c := range chunks {
		if span <= 0 {
			out[c.ChunkID] = 1
			continue
		}
		out[c.ChunkID] = (c.Score - minScore) / span
	}
	return out
}

// sortCandidates orders by fused score descending; ties break by chunk
// ordinal ascending, then document creation order, then chunk id, so results
// are reproducible.
func sortCandidates(chunks []domain.RetrievedChunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Score != chunks[j].Score {
			return chunks[i].Score > chunks[j].Score
		}
		if chunks[i].Ordinal != chunks[j].Ordinal {
			return chunks[i].Ordinal < chunks[j].Ordinal
		}
		if !chunks[i].DocCreatedAt.Equal(chunks[j].DocCreatedAt) {
			return chunks[i].DocCreatedAt.Before(chunks[j].DocCreatedAt)
		}
		return chunks[i].ChunkID < chunks[j].ChunkID
	})
}

func trimCandidates(chunks []domain.RetrievedChunk, limit int) []domain.RetrievedChunk {
	if limit <= 0 || len(chunks) <= limit {
		return chunks
	}
	return chunks[:limit]
}
