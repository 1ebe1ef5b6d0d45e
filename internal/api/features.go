package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

type questionRequest struct {
	DocumentID string `json:"document_id"`
	Question   string `json:"question"`
}

func (s *Server) handleQuestion(c echo.Context) error {
	var req questionRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, fmt.Errorf("malformed request body"))
	}
	if req.DocumentID == "" {
		return writeError(c, http.StatusBadRequest, fmt.Errorf("document_id is required"))
	}
	res, err := s.feats.AnswerQuestion(c.Request().Context(), userID(c), req.DocumentID, req.Question)
	if err != nil {
		return featureError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type summaryRequest struct {
	DocumentID string `json:"document_id"`
	MaxLength  int    `json:"max_length"`
}

func (s *Server) handleSummary(c echo.Context) error {
	var req summaryRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, fmt.Errorf("malformed request body"))
	}
	if req.DocumentID == "" {
		return writeError(c, http.StatusBadRequest, fmt.Errorf("document_id is required"))
	}
	res, err := s.feats.Summarize(c.Request().Context(), userID(c), req.DocumentID, req.MaxLength)
	if err != nil {
		return featureError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type quizRequest struct {
	DocumentID   string `json:"document_id"`
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty"`
}

func (s *Server) handleQuiz(c echo.Context) error {
	var req quizRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, fmt.Errorf("malformed request body"))
	}
	if req.DocumentID == "" {
		return writeError(c, http.StatusBadRequest, fmt.Errorf("document_id is required"))
	}
	res, err := s.feats.GenerateQuiz(c.Request().Context(), userID(c), req.DocumentID, req.NumQuestions, req.Difficulty)
	if err != nil {
		return featureError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleAvailable(c echo.Context) error {
	res, err := s.feats.Available(c.Request().Context(), userID(c), c.Param("document_id"))
	if err != nil {
		return featureError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
