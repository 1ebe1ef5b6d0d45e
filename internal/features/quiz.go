package features

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"studyflow/internal/models"
	"studyflow/internal/providers"
	"studyflow/internal/util"
)

const maxQuizQuestions = 20

type QuizResult struct {
	DocumentID     string                `json:"document_id"`
	DocumentName   string                `json:"document_name"`
	Questions      []models.QuizQuestion `json:"questions"`
	TotalQuestions int                   `json:"total_questions"`
	Difficulty     string                `json:"difficulty"`
	ChunksUsed     int                   `json:"chunks_used"`
}

// GenerateQuiz builds a multiple-choice quiz from chunks spread across the
// document. Model output is parsed strictly; questions that fail validation
// are dropped, and an entirely invalid payload is an error, never a
// passed-through response.
func (s *Service) GenerateQuiz(ctx context.Context, userID, documentID string, numQuestions int, difficulty string) (QuizResult, error) {
	if numQuestions <= 0 {
		numQuestions = 5
	}
	if numQuestions > maxQuizQuestions {
		numQuestions = maxQuizQuestions
	}
	switch difficulty {
	case "easy", "medium", "hard":
	default:
		difficulty = "medium"
	}
	doc, err := s.requireCompleted(ctx, userID, documentID)
	if err != nil {
		return QuizResult{}, err
	}

	chunks, err := s.chunks.ListChunksByDocument(ctx, doc.DocumentID)
	if err != nil {
		return QuizResult{}, err
	}
	if len(chunks) == 0 {
		return QuizResult{}, fmt.Errorf("%w: document has no chunks", util.ErrGenerationFailed)
	}
	selected := diverseChunks(chunks, numQuestions)

	resp, _, err := s.generateWithFailover(ctx, providers.GenerateRequest{
		Operation: "quiz",
		System:    quizSystemPrompt,
		Prompt:    quizPrompt(numQuestions, difficulty),
		Context:   []string{joinChunkTexts(selected)},
		MaxTokens: 2000,
	})
	if err != nil {
		return QuizResult{}, err
	}

	questions, err := parseQuizPayload(resp.Text, numQuestions)
	if err != nil {
		return QuizResult{}, err
	}
	return QuizResult{
		DocumentID:     doc.DocumentID,
		DocumentName:   doc.Filename,
		Questions:      questions,
		TotalQuestions: len(questions),
		Difficulty:     difficulty,
		ChunksUsed:     len(selected),
	}, nil
}

// diverseChunks samples evenly across the document so questions are not all
// drawn from the opening pages. Up to twice the question count is kept for
// coverage.
func diverseChunks(chunks []models.Chunk, numQuestions int) []models.Chunk {
	if len(chunks) <= numQuestions {
		return chunks
	}
	step := len(chunks) / numQuestions
	if step < 1 {
		step = 1
	}
	limit := numQuestions * 2
	selected := make([]models.Chunk, 0, limit)
	for i := 0; i < len(chunks) && len(selected) < limit; i += step {
		selected = append(selected, chunks[i])
	}
	return selected
}

type quizPayload struct {
	Questions []rawQuizQuestion `json:"questions"`
}

type rawQuizQuestion struct {
	Question      string          `json:"question"`
	Options       []string        `json:"options"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
}

// parseQuizPayload extracts the JSON object from model output, which often
// arrives wrapped in prose or markdown fences, and validates every question.
func parseQuizPayload(text string, limit int) ([]models.QuizQuestion, error) {
	raw := extractJSONObject(text)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in model output", util.ErrInvalidQuiz)
	}
	var payload quizPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidQuiz, err)
	}
	if len(payload.Questions) == 0 {
		return nil, fmt.Errorf("%w: payload has no questions", util.ErrInvalidQuiz)
	}

	out := make([]models.QuizQuestion, 0, limit)
	for _, q := range payload.Questions {
		if len(out) >= limit {
			break
		}
		valid, ok := validateQuizQuestion(q)
		if !ok {
			continue
		}
		out = append(out, valid)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no question passed validation", util.ErrInvalidQuiz)
	}
	return out, nil
}

func validateQuizQuestion(q rawQuizQuestion) (models.QuizQuestion, bool) {
	if strings.TrimSpace(q.Question) == "" || len(q.Options) < 2 {
		return models.QuizQuestion{}, false
	}
	var answer int
	if err := json.Unmarshal(q.CorrectAnswer, &answer); err != nil {
		return models.QuizQuestion{}, false
	}
	if answer < 0 || answer >= len(q.Options) {
		return models.QuizQuestion{}, false
	}
	return models.QuizQuestion{
		Question:      q.Question,
		Options:       q.Options,
		CorrectAnswer: answer,
	}, true
}

// extractJSONObject returns the outermost {...} span, tolerating leading and
// trailing prose around the object.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return text[start : end+1]
}
