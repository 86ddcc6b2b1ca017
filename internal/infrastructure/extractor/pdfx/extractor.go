// Package pdfx extracts per-page text from PDF sources.
package pdfx

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
)

func Extract(raw []byte) (domain.ExtractedDocument, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return domain.ExtractedDocument{}, domain.WrapError(domain.ErrExtraction, "open pdf", err)
	}

	var out domain.ExtractedDocument
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return domain.ExtractedDocument{}, domain.WrapError(domain.ErrExtraction,
				fmt.Sprintf("extract pdf page %d", pageNum), err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		out.Elements = append(out.Elements, domain.ExtractedElement{
			Kind: domain.ElementText,
			Text: text,
			Page: pageNum,
		})
	}
	return out, nil
}
