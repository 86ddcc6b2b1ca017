package openai

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sandalwoods/six-figure-rag-api/internal/core/domain"
)

func buildExpansionPrompt(variantCount int) string {
	return fmt.Sprintf(
		"Generate %d alternative ways to phrase this question for document search. "+
			"Use different keywords and synonyms while maintaining the same intent. "+
			"Return exactly %d variations, one per line, with no numbering or commentary.",
		variantCount, variantCount,
	)
}

// parseQueryVariations accepts one variant per line, tolerating numbering and
// bullet prefixes the model sometimes adds anyway.
func parseQueryVariations(content string, max int) []string {
	out := make([]string, 0, max)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.-*) ")
		line = strings.Trim(line, `"`)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == max {
			break
		}
	}
	return out
}

func buildSummaryPrompt(text string, tables []string) string {
	var b strings.Builder
	b.WriteString("Create a searchable index for this document content.\nCONTENT:\n")
	b.WriteString(text)
	b.WriteString("\n")

	if len(tables) > 0 {
		b.WriteString("TABLES:\n")
		for i, table := range tables {
			fmt.Fprintf(&b, "Table %d:\n%s\n\n", i+1, table)
		}
	}

	b.WriteString(`
Generate a structured search index (aim for 250-400 words):

QUESTIONS: List 5-7 key questions this content answers (use what/how/why/when/who variations)

KEYWORDS: Include specific data (numbers, dates, percentages, amounts), core concepts, technical terms and casual alternatives, industry terminology

VISUALS (if images present): chart/graph types and what they show, visible trends, key insights

DATA RELATIONSHIPS (if tables present): column headers and their meaning, key metrics, notable values

Focus on terms users would actually search for. Be specific and comprehensive.

SEARCH INDEX:`)
	return b.String()
}

func buildRerankSystemPrompt() string {
	return "You rank document passages by relevance to a query. " +
		"Reply with the passage numbers in descending order of relevance, " +
		"comma-separated, nothing else. Example: 3,1,2"
}

func buildRerankUserPrompt(query string, candidates []domain.RetrievedChunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nPassages:\n", query)
	for i, c := range candidates {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, truncateOnRuneBoundary(c.Content, 800))
	}
	return b.String()
}

func truncateOnRuneBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// parseRerankOrder parses a comma-separated 1-based ranking into 0-based
// indices, ignoring duplicates and out-of-range values.
func parseRerankOrder(content string, candidateCount int) []int {
	content = strings.TrimSpace(content)
	fields := strings.FieldsFunc(content, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n'
	})

	out := make([]int, 0, candidateCount)
	seen := make(map[int]bool, candidateCount)
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			continue
		}
		idx := n - 1
		if idx < 0 || idx >= candidateCount || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out
}
