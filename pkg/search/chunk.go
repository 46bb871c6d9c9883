package search

import (
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the rune budget Split uses when given a non-positive size
const DefaultChunkSize = 1200

// Split cuts text into chunks of at most size runes along paragraph
// boundaries. A paragraph longer than size is cut on whitespace, or hard
// when a single word exceeds size. Blank input yields no chunks.
func Split(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, para := range paragraphs(text) {
		n := utf8.RuneCountInString(para)
		if n > size {
			flush()
			chunks = append(chunks, splitLong(para, size)...)
			continue
		}
		if curLen > 0 && curLen+2+n > size {
			flush()
		}
		if curLen > 0 {
			cur.WriteString("\n\n")
			curLen += 2
		}
		cur.WriteString(para)
		curLen += n
	}
	flush()
	return chunks
}

func paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitLong(para string, size int) []string {
	var (
		out []string
		cur []rune
	)
	for _, word := range strings.Fields(para) {
		w := []rune(word)
		for len(w) > size {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = cur[:0]
			}
			out = append(out, string(w[:size]))
			w = w[size:]
		}
		if len(cur) > 0 && len(cur)+1+len(w) > size {
			out = append(out, string(cur))
			cur = cur[:0]
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, w...)
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}
