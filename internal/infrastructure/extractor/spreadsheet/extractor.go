// Package spreadsheet extracts XLSX workbooks as table elements, one per
// sheet, carrying both a flattened text projection and an HTML table
// representation.
package spreadsheet

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
)

func Extract(raw []byte) (domain.ExtractedDocument, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return domain.ExtractedDocument{}, domain.WrapError(domain.ErrExtraction, "open workbook", err)
	}
	defer f.Close()

	var out domain.ExtractedDocument
	for sheetIndex, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return domain.ExtractedDocument{}, domain.WrapError(domain.ErrExtraction,
				fmt.Sprintf("read sheet %q", sheet), err)
		}
		if len(rows) == 0 {
			continue
		}

		out.Elements = append(out.Elements, domain.ExtractedElement{
			Kind:      domain.ElementTable,
			Text:      flattenRows(sheet, rows),
			TableHTML: rowsToHTML(rows),
			Page:      sheetIndex + 1,
		})
	}
	return out, nil
}

func flattenRows(sheet string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("Sheet: ")
	b.WriteString(sheet)
	for _, row := range rows {
		line := strings.TrimSpace(strings.Join(row, " | "))
		if line == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

func rowsToHTML(rows [][]string) string {
	var b strings.Builder
	b.WriteString("<table>")
	for i, row := range rows {
		cell := "td"
		if i == 0 {
			cell = "th"
		}
		b.WriteString("<tr>")
		for _, v := range row {
			fmt.Fprintf(&b, "<%s>%s</%s>", cell, html.EscapeString(v), cell)
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}
