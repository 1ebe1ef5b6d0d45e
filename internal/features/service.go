// Package features answers questions, writes summaries, and builds quizzes
// over completed documents. Retrieval happens against the chunk store; the
// language model only ever sees retrieved document text.
package features

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"studyflow/internal/models"
	"studyflow/internal/providers"
	"studyflow/internal/util"
)

type DocumentGetter interface {
	GetDocument(ctx context.Context, userID, documentID string) (models.Document, error)
}

type ChunkLister interface {
	ListChunksByDocument(ctx context.Context, documentID string) ([]models.Chunk, error)
}

type ChunkSearcher interface {
	SearchChunks(ctx context.Context, documentID string, queryVec []float32, topK int) ([]models.ChunkResult, error)
}

type Service struct {
	docs     DocumentGetter
	chunks   ChunkLister
	search   ChunkSearcher
	prov     *providers.Manager
	topK     int
	embedDim int
	cooldown time.Duration
	logger   *zap.Logger

	mu            sync.Mutex
	disabledUntil map[string]time.Time

	// Stubbed in tests to keep failover deterministic.
	now   func() time.Time
	sleep func(time.Duration)
}

func NewService(docs DocumentGetter, chunks ChunkLister, search ChunkSearcher, prov *providers.Manager, topK, embedDim, cooldownSecs int, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = 5
	}
	if cooldownSecs <= 0 {
		cooldownSecs = 900
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		docs:          docs,
		chunks:        chunks,
		search:        search,
		prov:          prov,
		topK:          topK,
		embedDim:      embedDim,
		cooldown:      time.Duration(cooldownSecs) * time.Second,
		logger:        logger,
		disabledUntil: map[string]time.Time{},
		now:           time.Now,
		sleep:         time.Sleep,
	}
}

// requireCompleted loads the document and rejects feature calls until
// processing has finished. The model is never invoked for documents that
// are pending, processing, or failed.
func (s *Service) requireCompleted(ctx context.Context, userID, documentID string) (models.Document, error) {
	doc, err := s.docs.GetDocument(ctx, userID, documentID)
	if err != nil {
		return models.Document{}, err
	}
	if doc.Status != models.StatusCompleted {
		return models.Document{}, fmt.Errorf("%w (status: %s)", util.ErrDocumentNotReady, doc.Status)
	}
	return doc, nil
}

type Availability struct {
	DocumentID        string          `json:"document_id"`
	DocumentName      string          `json:"document_name"`
	Status            string          `json:"status"`
	AvailableFeatures map[string]bool `json:"available_features"`
	ChunkCount        int             `json:"chunk_count"`
	ProcessedAt       *time.Time      `json:"processed_at,omitempty"`
}

func (s *Service) Available(ctx context.Context, userID, documentID string) (Availability, error) {
	doc, err := s.docs.GetDocument(ctx, userID, documentID)
	if err != nil {
		return Availability{}, err
	}
	ready := doc.Status == models.StatusCompleted && doc.ChunkCount > 0
	return Availability{
		DocumentID:   doc.DocumentID,
		DocumentName: doc.Filename,
		Status:       doc.Status,
		AvailableFeatures: map[string]bool{
			"question_answer": ready,
			"summary":         ready,
			"quiz":            ready,
		},
		ChunkCount:  doc.ChunkCount,
		ProcessedAt: doc.ProcessedAt,
	}, nil
}
