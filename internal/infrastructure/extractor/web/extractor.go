// Package web extracts readable content from HTML pages: headings and
// paragraphs as text elements, tables as typed table elements with their
// markup preserved.
package web

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
)

func Extract(raw []byte) (domain.ExtractedDocument, error) {
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return domain.ExtractedDocument{}, domain.WrapError(domain.ErrExtraction, "parse html", err)
	}

	var out domain.ExtractedDocument
	walk(root, &out)
	return out, nil
}

func walk(n *html.Node, out *domain.ExtractedDocument) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "nav", "footer", "iframe":
			return
		case "title", "h1", "h2", "h3", "h4", "h5", "h6":
			if text := collectText(n); text != "" {
				out.Elements = append(out.Elements, domain.ExtractedElement{
					Kind: domain.ElementTitle,
					Text: text,
					Page: 1,
				})
			}
			return
		case "table":
			text := collectText(n)
			if text == "" {
				return
			}
			out.Elements = append(out.Elements, domain.ExtractedElement{
				Kind:      domain.ElementTable,
				Text:      text,
				TableHTML: renderNode(n),
				Page:      1,
			})
			return
		case "p", "li", "blockquote", "pre", "td":
			// td handled via table above; bare cells outside tables fall through.
			if n.Data == "td" {
				break
			}
			if text := collectText(n); text != "" {
				out.Elements = append(out.Elements, domain.ExtractedElement{
					Kind: domain.ElementText,
					Text: text,
					Page: 1,
				})
			}
			return
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, out)
	}
}

func collectText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteString(" ")
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func renderNode(n *html.Node) string {
	var b bytes.Buffer
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	return b.String()
}
