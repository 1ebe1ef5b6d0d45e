// Package chunk splits extracted document text into overlapping windows
// sized for embedding, preferring paragraph and sentence boundaries over
// hard character cuts.
package chunk

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"studyflow/internal/models"
)

type Chunk struct {
	Text      string
	WordCount int
	CharCount int
}

type Chunker struct {
	size     int
	overlap  int
	minChars int
}

func New(size, overlap, minChars int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	if minChars < 0 {
		minChars = 0
	}
	return &Chunker{size: size, overlap: overlap, minChars: minChars}
}

var paragraphSep = regexp.MustCompile(`\n\s*\n`)

// Split chunks text extracted from a document of the given file type.
// Transcripts and PDF text get cleaned up first; chunks shorter than the
// configured minimum are dropped as too thin to retrieve against.
func (c *Chunker) Split(text, fileType string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	switch fileType {
	case models.FileTypeVideo:
		text = prepareTranscript(text)
	case models.FileTypePDF:
		text = preparePDFText(text)
	}

	paragraphs := splitParagraphs(text)
	parts := make([]string, 0, len(paragraphs))
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			parts = append(parts, s)
		}
		current.Reset()
	}

	for _, p := range paragraphs {
		if fits(current.Len(), p, c.size) {
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(p)
			continue
		}
		flush()
		if utf8.RuneCountInString(p) > c.size {
			sentenceParts := c.splitBySentences(p)
			if len(sentenceParts) > 0 {
				parts = append(parts, sentenceParts[:len(sentenceParts)-1]...)
				current.WriteString(sentenceParts[len(sentenceParts)-1])
			}
			continue
		}
		current.WriteString(p)
	}
	flush()

	if c.overlap > 0 {
		parts = c.applyOverlap(parts)
	}

	out := make([]Chunk, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if utf8.RuneCountInString(p) < c.minChars {
			continue
		}
		out = append(out, Chunk{
			Text:      p,
			WordCount: len(strings.Fields(p)),
			CharCount: utf8.RuneCountInString(p),
		})
	}
	return out
}

func (c *Chunker) splitBySentences(text string) []string {
	sentences := splitSentences(text)
	parts := make([]string, 0, len(sentences))
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			parts = append(parts, s)
		}
		current.Reset()
	}

	for _, s := range sentences {
		if fits(current.Len(), s, c.size) {
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(s)
			continue
		}
		flush()
		if utf8.RuneCountInString(s) > c.size {
			charParts := c.splitByCharacters(s)
			if len(charParts) > 0 {
				parts = append(parts, charParts[:len(charParts)-1]...)
				current.WriteString(charParts[len(charParts)-1])
			}
			continue
		}
		current.WriteString(s)
	}
	flush()
	return parts
}

// splitByCharacters is the last resort for text with no usable boundaries.
func (c *Chunker) splitByCharacters(text string) []string {
	runes := []rune(text)
	parts := make([]string, 0, len(runes)/c.size+1)
	for i := 0; i < len(runes); i += c.size {
		end := i + c.size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[i:end]))
	}
	return parts
}

// applyOverlap prefixes every chunk after the first with the tail of its
// unmodified predecessor, so retrieval hits keep their leading context.
func (c *Chunker) applyOverlap(parts []string) []string {
	if len(parts) <= 1 {
		return parts
	}
	out := make([]string, 0, len(parts))
	out = append(out, parts[0])
	for i := 1; i < len(parts); i++ {
		prev := []rune(parts[i-1])
		tail := prev
		if len(prev) > c.overlap {
			tail = prev[len(prev)-c.overlap:]
		}
		out = append(out, string(tail)+" "+parts[i])
	}
	return out
}

func fits(currentLen int, next string, size int) bool {
	if currentLen == 0 {
		return utf8.RuneCountInString(next) <= size
	}
	return currentLen+2+utf8.RuneCountInString(next) <= size
}

func splitParagraphs(text string) []string {
	raw := paragraphSep.Split(text, -1)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences breaks text after runs of sentence terminators followed by
// whitespace. Text with no terminators comes back as a single sentence.
func splitSentences(text string) []string {
	out := make([]string, 0, 8)
	start := 0
	for i := 0; i < len(text); i++ {
		if !isTerminator(text[i]) {
			continue
		}
		j := i + 1
		for j < len(text) && isTerminator(text[j]) {
			j++
		}
		if j < len(text) && !isSpace(text[j]) {
			i = j - 1
			continue
		}
		if s := strings.TrimSpace(text[start:j]); s != "" {
			out = append(out, s)
		}
		start = j
		i = j - 1
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}
