package features

import (
	"context"
	"strings"

	"studyflow/internal/models"
	"studyflow/internal/providers"
)

const emptyDocumentSummary = "No content found for this document. The document may still be processing or there was an error during processing."

// Documents whose combined text exceeds this many characters are summarized
// from a representative subset instead of the full text.
const summaryFullTextLimit = 15000

// maxSummaryWords bounds how long a caller may ask a summary to be.
const maxSummaryWords = 2000

type SummaryResult struct {
	DocumentID         string `json:"document_id"`
	DocumentName       string `json:"document_name"`
	Summary            string `json:"summary"`
	WordCount          int    `json:"word_count"`
	ChunksUsed         int    `json:"chunks_used"`
	MaxLengthRequested int    `json:"max_length_requested"`
}

// Summarize condenses a completed document. Short documents are summarized
// whole; long ones from chunks at the start, middle, and end.
func (s *Service) Summarize(ctx context.Context, userID, documentID string, maxLength int) (SummaryResult, error) {
	if maxLength <= 0 {
		maxLength = 500
	}
	if maxLength > maxSummaryWords {
		maxLength = maxSummaryWords
	}
	doc, err := s.requireCompleted(ctx, userID, documentID)
	if err != nil {
		return SummaryResult{}, err
	}
	result := SummaryResult{
		DocumentID:         doc.DocumentID,
		DocumentName:       doc.Filename,
		MaxLengthRequested: maxLength,
	}

	chunks, err := s.chunks.ListChunksByDocument(ctx, doc.DocumentID)
	if err != nil {
		return SummaryResult{}, err
	}
	if len(chunks) == 0 {
		result.Summary = emptyDocumentSummary
		return result, nil
	}

	text := joinChunkTexts(representativeChunks(chunks, summaryFullTextLimit))

	resp, _, err := s.generateWithFailover(ctx, providers.GenerateRequest{
		Operation: "summary",
		System:    summarySystemPrompt,
		Prompt:    summaryPrompt(maxLength),
		Context:   []string{text},
		MaxTokens: maxLength * 2,
	})
	if err != nil {
		return SummaryResult{}, err
	}
	result.Summary = resp.Text
	result.WordCount = len(strings.Fields(resp.Text))
	result.ChunksUsed = len(chunks)
	return result, nil
}

// representativeChunks keeps every chunk while the combined text fits the
// limit. Beyond it, the first three, up to two middle, and last three chunks
// stand in for the whole document, deduplicated in reading order.
func representativeChunks(chunks []models.Chunk, limit int) []models.Chunk {
	if combinedLen(chunks) <= limit {
		return chunks
	}
	n := len(chunks)
	picked := make([]models.Chunk, 0, 8)
	picked = append(picked, chunks[:min(3, n)]...)
	if n > 6 {
		mid := n/2 - 1
		picked = append(picked, chunks[mid:min(mid+2, n)]...)
	}
	if n > 3 {
		picked = append(picked, chunks[n-3:]...)
	}

	seen := make(map[int]bool, len(picked))
	unique := picked[:0]
	for _, c := range picked {
		if seen[c.ChunkIndex] {
			continue
		}
		seen[c.ChunkIndex] = true
		unique = append(unique, c)
	}
	return unique
}

func combinedLen(chunks []models.Chunk) int {
	total := 0
	for i, c := range chunks {
		if i > 0 {
			total++
		}
		total += len(c.Text)
	}
	return total
}

func joinChunkTexts(chunks []models.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, " ")
}
