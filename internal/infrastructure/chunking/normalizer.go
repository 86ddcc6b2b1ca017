package chunking

import (
	"strings"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
)

// Normalizer converts extracted document content into an ordered chunk
// sequence. Running text (including titles) accumulates across page
// boundaries and is segmented by the splitter; each table or image element
// becomes its own typed chunk carrying the original representation next to
// the flattened text used for embedding and search.
type Normalizer struct {
	splitter *Splitter
}

func NewNormalizer(chunkSize, overlap int) *Normalizer {
	return &Normalizer{splitter: NewSplitter(chunkSize, overlap)}
}

func (n *Normalizer) Normalize(doc domain.ExtractedDocument) []domain.Chunk {
	var (
		out     []domain.Chunk
		buf     strings.Builder
		marks   []pageMark
		bufPage = 1
	)

	flush := func() {
		text := buf.String()
		buf.Reset()
		if strings.TrimSpace(text) == "" {
			marks = nil
			return
		}
		for _, p := range n.splitter.splitWithOffsets(text) {
			out = append(out, domain.Chunk{
				Page:      pageAtOffset(marks, p.offset, bufPage),
				Content:   p.text,
				CharCount: len([]rune(p.text)),
				Types:     []domain.ChunkType{domain.ChunkText},
				Original:  domain.OriginalContent{Text: p.text},
			})
		}
		marks = nil
	}

	for _, el := range doc.Elements {
		page := el.Page
		if page <= 0 {
			page = bufPage
		}

		switch el.Kind {
		case domain.ElementTable:
			flush()
			bufPage = page
			if chunk, ok := tableChunk(el, page); ok {
				out = append(out, chunk)
			}
		case domain.ElementImage:
			flush()
			bufPage = page
			if chunk, ok := imageChunk(el, page); ok {
				out = append(out, chunk)
			}
		default:
			text := strings.TrimSpace(el.Text)
			if text == "" {
				continue
			}
			if buf.Len() == 0 {
				bufPage = page
			}
			if buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
			marks = append(marks, pageMark{offset: runeLen(buf.String()), page: page})
			buf.WriteString(text)
		}
	}
	flush()

	for i := range out {
		out[i].Ordinal = i
	}
	return out
}

type pageMark struct {
	offset int
	page   int
}

// pageAtOffset maps a chunk's start offset back to the page whose text the
// chunk begins in.
func pageAtOffset(marks []pageMark, offset, fallback int) int {
	page := fallback
	for _, m := range marks {
		if m.offset > offset {
			break
		}
		page = m.page
	}
	return page
}

func tableChunk(el domain.ExtractedElement, page int) (domain.Chunk, bool) {
	flattened := strings.TrimSpace(el.Text)
	if flattened == "" {
		flattened = flattenTableHTML(el.TableHTML)
	}
	if flattened == "" {
		return domain.Chunk{}, false
	}
	original := domain.OriginalContent{Text: strings.TrimSpace(el.Text)}
	if el.TableHTML != "" {
		original.Tables = []string{el.TableHTML}
	}
	return domain.Chunk{
		Page:      page,
		Content:   flattened,
		CharCount: len([]rune(flattened)),
		Types:     []domain.ChunkType{domain.ChunkText, domain.ChunkTable},
		Original:  original,
	}, true
}

func imageChunk(el domain.ExtractedElement, page int) (domain.Chunk, bool) {
	if el.ImageBase64 == "" {
		return domain.Chunk{}, false
	}
	// The caption (or OCR text) is the provisional searchable content; the
	// summarization stage replaces it with an AI-generated index.
	flattened := strings.TrimSpace(el.Text)
	if flattened == "" {
		flattened = "image"
	}
	return domain.Chunk{
		Page:      page,
		Content:   flattened,
		CharCount: len([]rune(flattened)),
		Types:     []domain.ChunkType{domain.ChunkText, domain.ChunkImage},
		Original: domain.OriginalContent{
			Text:   strings.TrimSpace(el.Text),
			Images: []string{el.ImageBase64},
		},
	}, true
}

// flattenTableHTML strips markup so a table lacking a textual summary still
// gets a searchable representation.
func flattenTableHTML(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func runeLen(s string) int {
	return len([]rune(s))
}
