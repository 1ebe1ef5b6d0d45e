package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"studyflow/internal/features"
	"studyflow/internal/models"
	"studyflow/internal/util"
)

func TestQuestionEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.feats.question = features.QuestionResult{
		DocumentID: "doc1",
		Question:   "What is covered?",
		Answer:     "The document covers chunked retrieval.",
		Sources: []features.SourceRef{
			{ChunkID: "c1", ChunkIndex: 0, Content: "chunked retrieval", RelevanceScore: 0.9},
		},
		ContextUsed: true,
	}

	rec := ts.do(t, jsonRequest(t, http.MethodPost, "/api/features/question", map[string]any{
		"document_id": "doc1",
		"question":    "What is covered?",
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp features.QuestionResult
	decodeJSON(t, rec.Body, &resp)
	require.Equal(t, "The document covers chunked retrieval.", resp.Answer)
	require.Len(t, resp.Sources, 1)
	require.True(t, resp.ContextUsed)
}

func TestQuestionRequiresDocumentID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, jsonRequest(t, http.MethodPost, "/api/features/question", map[string]any{
		"question": "anything",
	}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "SF-API-4001", errorCode(t, rec))
}

func TestQuestionValidationErrorMapsTo400(t *testing.T) {
	ts := newTestServer(t)
	ts.feats.err = util.ErrValidation("question must not be empty")

	rec := ts.do(t, jsonRequest(t, http.MethodPost, "/api/features/question", map[string]any{
		"document_id": "doc1",
		"question":    "   ",
	}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "SF-API-4001", errorCode(t, rec))
}

func TestQuestionUnknownDocumentMapsTo404(t *testing.T) {
	ts := newTestServer(t)
	ts.feats.err = util.ErrDocumentNotFound

	rec := ts.do(t, jsonRequest(t, http.MethodPost, "/api/features/question", map[string]any{
		"document_id": "missing",
		"question":    "anything",
	}))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "SF-API-4004", errorCode(t, rec))
}

func TestQuestionNotReadyMapsTo409(t *testing.T) {
	ts := newTestServer(t)
	ts.feats.err = fmt.Errorf("%w (status: processing)", util.ErrDocumentNotReady)

	rec := ts.do(t, jsonRequest(t, http.MethodPost, "/api/features/question", map[string]any{
		"document_id": "doc1",
		"question":    "anything",
	}))
	require.Equal(t, http.StatusConflict, rec.Code)

	var env errorEnvelope
	decodeJSON(t, rec.Body, &env)
	require.Equal(t, "SF-API-4009", env.Error.Code)
	require.Contains(t, env.Error.Details, "processing")
}

func TestSummaryEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.feats.summary = features.SummaryResult{
		DocumentID:         "doc1",
		DocumentName:       "notes.pdf",
		Summary:            "A short summary.",
		WordCount:          3,
		ChunksUsed:         12,
		MaxLengthRequested: 500,
	}

	rec := ts.do(t, jsonRequest(t, http.MethodPost, "/api/features/summary", map[string]any{
		"document_id": "doc1",
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp features.SummaryResult
	decodeJSON(t, rec.Body, &resp)
	require.Equal(t, "A short summary.", resp.Summary)
	require.Equal(t, 12, resp.ChunksUsed)
}

func TestQuizEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.feats.quiz = features.QuizResult{
		DocumentID:   "doc1",
		DocumentName: "notes.pdf",
		Questions: []models.QuizQuestion{
			{Question: "Q1?", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 2},
		},
		TotalQuestions: 1,
		Difficulty:     "medium",
	}

	rec := ts.do(t, jsonRequest(t, http.MethodPost, "/api/features/quiz", map[string]any{
		"document_id":   "doc1",
		"num_questions": 1,
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp features.QuizResult
	decodeJSON(t, rec.Body, &resp)
	require.Len(t, resp.Questions, 1)
	require.Equal(t, 2, resp.Questions[0].CorrectAnswer)
}

func TestQuizGenerationFailureMapsTo502(t *testing.T) {
	ts := newTestServer(t)
	ts.feats.err = fmt.Errorf("%w: model returned prose", util.ErrInvalidQuiz)

	rec := ts.do(t, jsonRequest(t, http.MethodPost, "/api/features/quiz", map[string]any{
		"document_id": "doc1",
	}))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "SF-API-5020", errorCode(t, rec))
}

func TestGenerationFailedMapsTo502(t *testing.T) {
	ts := newTestServer(t)
	ts.feats.err = fmt.Errorf("%w: all providers exhausted", util.ErrGenerationFailed)

	rec := ts.do(t, jsonRequest(t, http.MethodPost, "/api/features/summary", map[string]any{
		"document_id": "doc1",
	}))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "SF-API-5020", errorCode(t, rec))
}

func TestAvailableEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.feats.avail = features.Availability{
		DocumentID:   "doc1",
		DocumentName: "notes.pdf",
		Status:       models.StatusCompleted,
		AvailableFeatures: map[string]bool{
			"question_answer": true,
			"summary":         true,
			"quiz":            true,
		},
		ChunkCount: 7,
	}

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/features/available/doc1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp features.Availability
	decodeJSON(t, rec.Body, &resp)
	require.True(t, resp.AvailableFeatures["quiz"])
	require.Equal(t, 7, resp.ChunkCount)
}

func TestAvailableUnknownDocument(t *testing.T) {
	ts := newTestServer(t)
	ts.feats.err = util.ErrDocumentNotFound

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/features/available/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
