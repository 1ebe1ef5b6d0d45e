package features

import (
	"context"
	"strings"

	"studyflow/internal/providers"
	"studyflow/internal/util"
)

const noContextAnswer = "I couldn't find relevant information in the document to answer your question."

type SourceRef struct {
	ChunkID        string  `json:"chunk_id"`
	ChunkIndex     int     `json:"chunk_index"`
	Content        string  `json:"content"`
	RelevanceScore float64 `json:"relevance_score"`
}

type QuestionResult struct {
	DocumentID  string      `json:"document_id"`
	Question    string      `json:"question"`
	Answer      string      `json:"answer"`
	Sources     []SourceRef `json:"sources"`
	ContextUsed bool        `json:"context_used"`
}

// AnswerQuestion embeds the question, retrieves the closest chunks of the
// document, and asks the model to answer from that context alone.
func (s *Service) AnswerQuestion(ctx context.Context, userID, documentID, question string) (QuestionResult, error) {
	if strings.TrimSpace(question) == "" {
		return QuestionResult{}, util.ErrValidation("question is required")
	}
	doc, err := s.requireCompleted(ctx, userID, documentID)
	if err != nil {
		return QuestionResult{}, err
	}

	queryVec, err := s.embedQueryWithFailover(ctx, question)
	if err != nil {
		return QuestionResult{}, err
	}
	hits, err := s.search.SearchChunks(ctx, doc.DocumentID, queryVec, s.topK)
	if err != nil {
		return QuestionResult{}, err
	}
	result := QuestionResult{
		DocumentID: doc.DocumentID,
		Question:   question,
		Sources:    []SourceRef{},
	}
	if len(hits) == 0 {
		result.Answer = noContextAnswer
		return result, nil
	}

	contextTexts := make([]string, 0, len(hits))
	for _, h := range hits {
		contextTexts = append(contextTexts, h.Text)
		result.Sources = append(result.Sources, SourceRef{
			ChunkID:        h.ChunkID,
			ChunkIndex:     h.ChunkIndex,
			Content:        truncateContent(h.Text, 200),
			RelevanceScore: h.Score,
		})
	}

	resp, _, err := s.generateWithFailover(ctx, providers.GenerateRequest{
		Operation: "question",
		System:    questionSystemPrompt,
		Prompt:    questionPrompt(question),
		Context:   contextTexts,
		MaxTokens: 1000,
	})
	if err != nil {
		return QuestionResult{}, err
	}
	result.Answer = resp.Text
	result.ContextUsed = true
	return result, nil
}

func truncateContent(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
