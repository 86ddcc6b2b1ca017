package chunking

import (
	"strings"
	"unicode"
)

// Splitter segments text into chunks targeting ChunkSize characters with
// Overlap characters carried across boundaries. Breaks prefer whitespace near
// the budget; a run with no whitespace at all is split recursively at the
// midpoint rather than truncated.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize/2 {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

type piece struct {
	text   string
	offset int
}

func (s *Splitter) Split(text string) []string {
	pieces := s.split([]rune(text), 0)
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		out = append(out, p.text)
	}
	return out
}

// splitWithOffsets keeps each chunk's rune offset in the source text so the
// caller can map chunks back to page positions.
func (s *Splitter) splitWithOffsets(text string) []piece {
	return s.split([]rune(text), 0)
}

func (s *Splitter) split(runes []rune, base int) []piece {
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.ChunkSize {
		return appendPiece(nil, runes, 0, base)
	}

	out := make([]piece, 0, len(runes)/s.ChunkSize+1)
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			out = appendPiece(out, runes[start:], start, base)
			break
		}

		if cut := lastSpaceWithin(runes, start+s.ChunkSize*3/4, end); cut > start {
			end = cut
		} else if !hasSpace(runes[start:end]) {
			// Unbreakable run longer than the budget: recurse on halves so
			// nothing is silently dropped.
			mid := start + (end-start)/2
			out = append(out, s.split(runes[start:mid], base+start)...)
			out = append(out, s.split(runes[mid:end], base+mid)...)
			start = end - s.Overlap
			continue
		}

		out = appendPiece(out, runes[start:end], start, base)
		next := end - s.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

func appendPiece(out []piece, runes []rune, offset, base int) []piece {
	trimmed := strings.TrimSpace(string(runes))
	if trimmed == "" {
		return out
	}
	return append(out, piece{text: trimmed, offset: base + offset})
}

func lastSpaceWithin(runes []rune, from, to int) int {
	if from < 0 {
		from = 0
	}
	for i := to - 1; i >= from; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}

func hasSpace(runes []rune) bool {
	for _, r := range runes {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}
