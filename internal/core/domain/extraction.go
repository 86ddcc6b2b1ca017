package domain

type ElementKind string

const (
	ElementText  ElementKind = "text"
	ElementTitle ElementKind = "title"
	ElementTable ElementKind = "table"
	ElementImage ElementKind = "image"
)

// ExtractedElement is one structural unit produced by an extractor, in source
// order. Text carries the flattened representation; TableHTML/ImageBase64
// carry the original one when the kind warrants it.
type ExtractedElement struct {
	Kind        ElementKind
	Text        string
	TableHTML   string
	ImageBase64 string
	Page        int
}

type ExtractedDocument struct {
	Elements []ExtractedElement
}

// ElementCounts summarizes extraction output for processing diagnostics.
func (d ExtractedDocument) ElementCounts() map[string]int {
	counts := map[string]int{"text": 0, "titles": 0, "tables": 0, "images": 0}
	for _, el := range d.Elements {
		switch el.Kind {
		case ElementTitle:
			counts["titles"]++
		case ElementTable:
			counts["tables"]++
		case ElementImage:
			counts["images"]++
		default:
			counts["text"]++
		}
	}
	return counts
}
