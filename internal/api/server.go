// Package api exposes the HTTP surface: document upload and lifecycle
// endpoints under /api/upload, study features under /api/features, and a
// health probe. Handlers stay thin; document state lives in storage and
// processing runs through Temporal.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"studyflow/internal/config"
	"studyflow/internal/features"
	"studyflow/internal/models"
	"studyflow/internal/workflows"
)

const Version = "1.0.0"

type DocumentStore interface {
	InsertDocument(ctx context.Context, d models.Document) error
	GetDocument(ctx context.Context, userID, documentID string) (models.Document, error)
	ListDocuments(ctx context.Context, userID string) ([]models.Document, error)
	DeleteDocument(ctx context.Context, userID, documentID string) (bool, error)
	FilenameExists(ctx context.Context, userID, filename string) (bool, error)
}

type FeatureService interface {
	AnswerQuestion(ctx context.Context, userID, documentID, question string) (features.QuestionResult, error)
	Summarize(ctx context.Context, userID, documentID string, maxLength int) (features.SummaryResult, error)
	GenerateQuiz(ctx context.Context, userID, documentID string, numQuestions int, difficulty string) (features.QuizResult, error)
	Available(ctx context.Context, userID, documentID string) (features.Availability, error)
}

type QueueEstimator interface {
	Status(ctx context.Context) (models.QueueStatus, error)
	EstimateWait(ctx context.Context, fileType string) (models.QueueInfo, error)
}

type WorkflowStarter interface {
	StartDocumentProcessing(ctx context.Context, doc models.Document) (string, error)
	DocumentProgress(ctx context.Context, documentID string) (workflows.DocumentStatus, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	DB        Pinger
	Documents DocumentStore
	Features  FeatureService
	Queue     QueueEstimator
	Workflows WorkflowStarter
	Logger    *zap.Logger
}

type Server struct {
	cfg    config.Config
	db     Pinger
	docs   DocumentStore
	feats  FeatureService
	queue  QueueEstimator
	wf     WorkflowStarter
	logger *zap.Logger
	echo   *echo.Echo
}

func NewServer(cfg config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		cfg:    cfg,
		db:     deps.DB,
		docs:   deps.Documents,
		feats:  deps.Features,
		queue:  deps.Queue,
		wf:     deps.Workflows,
		logger: logger,
		echo:   e,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/api/health", s.handleHealth)

	up := s.echo.Group("/api/upload")
	up.POST("/file", s.handleUploadFile)
	up.GET("/status/:document_id", s.handleUploadStatus)
	up.GET("/documents", s.handleListDocuments)
	up.DELETE("/documents/:document_id", s.handleDeleteDocument)
	up.GET("/queue", s.handleQueueStatus)

	ft := s.echo.Group("/api/features")
	ft.POST("/question", s.handleQuestion)
	ft.POST("/summary", s.handleSummary)
	ft.POST("/quiz", s.handleQuiz)
	ft.GET("/available/:document_id", s.handleAvailable)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	return s.echo.Start(s.cfg.APIAddr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			s.logger.Warn("health check db ping failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "degraded", Version: Version})
		}
	}
	return c.JSON(http.StatusOK, healthResponse{Status: "ok", Version: Version})
}

// userID scopes repository operations. Absent header means single-user
// local mode.
func userID(c echo.Context) string {
	if v := c.Request().Header.Get("X-User-ID"); v != "" {
		return v
	}
	return "local"
}
