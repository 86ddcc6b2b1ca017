// Package plaintext extracts UTF-8 text and markdown sources as
// paragraph-level elements.
package plaintext

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
)

func Extract(raw []byte, filename string) (domain.ExtractedDocument, error) {
	if !utf8.Valid(raw) {
		return domain.ExtractedDocument{}, domain.WrapError(domain.ErrExtraction, "decode text",
			fmt.Errorf("not valid utf-8: %s", filename))
	}

	var out domain.ExtractedDocument
	for _, paragraph := range strings.Split(string(raw), "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		out.Elements = append(out.Elements, domain.ExtractedElement{
			Kind: domain.ElementText,
			Text: paragraph,
			Page: 1,
		})
	}
	return out, nil
}
