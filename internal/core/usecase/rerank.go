package usecase

import "github.com/sandalwoods/six-figure-rag-api/internal/core/domain"

// rerankCandidateMultiple bounds rerank cost: only the top multiple of the
// final context size is sent to the external model.
const rerankCandidateMultiple = 3

func boundRerankCandidates(fused []domain.RetrievedChunk, finalContextSize int) (head, tail []domain.RetrievedChunk) {
	bound := rerankCandidateMultiple * finalContextSize
	if bound <= 0 || bound >= len(fused) {
		return fused, nil
	}
	return fused[:bound], fused[bound:]
}

// applyRerankedOrder takes the external model's ordering as final but guards
// against a misbehaving model: unknown chunk ids are dropped and omitted
// candidates keep their fused order at the end of the head.
func applyRerankedOrder(head, reranked []domain.RetrievedChunk) []domain.RetrievedChunk {
	byID := make(map[string]domain.RetrievedChunk, len(head))
	for _, c := range head {
		byID[c.ChunkID] = c
	}

	out := make([]domain.RetrievedChunk, 0, len(head))
	seen := make(map[string]bool, len(head))
	for _, c := range reranked {
		original, ok := byID[c.ChunkID]
		if !ok || seen[c.ChunkID] {
			continue
		}
		seen[c.ChunkID] = true
		out = append(out, original)
	}
	for _, c := range head {
		if !seen[c.ChunkID] {
			out = append(out, c)
		}
	}
	return out
}
