package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"studyflow/internal/models"
	"studyflow/internal/util"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

func fileTypeForName(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".pdf":
		return models.FileTypePDF, true
	case videoExtensions[ext]:
		return models.FileTypeVideo, true
	default:
		return "", false
	}
}

type uploadResponse struct {
	DocumentID string           `json:"document_id"`
	Filename   string           `json:"filename"`
	FileType   string           `json:"file_type"`
	Status     string           `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	QueueInfo  models.QueueInfo `json:"queue_info"`
}

func (s *Server) handleUploadFile(c echo.Context) error {
	ctx := c.Request().Context()
	user := userID(c)

	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, http.StatusBadRequest, fmt.Errorf("no file provided"))
	}
	fileType, ok := fileTypeForName(fh.Filename)
	if !ok {
		return writeError(c, http.StatusUnsupportedMediaType, fmt.Errorf("unsupported file extension %q", filepath.Ext(fh.Filename)))
	}
	if fh.Size > s.cfg.MaxFileSizeBytes {
		return writeError(c, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds limit of %d bytes", s.cfg.MaxFileSizeBytes))
	}

	dstDir := filepath.Join(s.cfg.UploadDir, user)
	if err := util.EnsureDir(dstDir); err != nil {
		return writeError(c, http.StatusInternalServerError, err)
	}
	filename := filepath.Base(fh.Filename)
	exists, err := s.docs.FilenameExists(ctx, user, filename)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, err)
	}
	if exists {
		filename = util.SuffixTimestamp(filename, time.Now().Unix())
	}

	src, err := fh.Open()
	if err != nil {
		return writeError(c, http.StatusInternalServerError, fmt.Errorf("open upload: %w", err))
	}
	defer src.Close()

	path := util.SafeJoin(dstDir, filename)
	written, err := util.WriteReaderAtomic(path, src)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, fmt.Errorf("store upload: %w", err))
	}
	if written > s.cfg.MaxFileSizeBytes {
		_ = os.Remove(path)
		return writeError(c, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds limit of %d bytes", s.cfg.MaxFileSizeBytes))
	}

	doc := models.Document{
		DocumentID:  uuid.NewString(),
		UserID:      user,
		Filename:    filename,
		FileType:    fileType,
		Status:      models.StatusPending,
		FileSize:    written,
		StoragePath: path,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.docs.InsertDocument(ctx, doc); err != nil {
		_ = os.Remove(path)
		return writeError(c, http.StatusInternalServerError, err)
	}

	workflowID, err := s.wf.StartDocumentProcessing(ctx, doc)
	if err != nil {
		s.logger.Error("start processing workflow failed",
			zap.String("document_id", doc.DocumentID), zap.Error(err))
		return writeError(c, http.StatusInternalServerError, err)
	}
	s.logger.Info("document accepted",
		zap.String("document_id", doc.DocumentID),
		zap.String("file_type", fileType),
		zap.Int64("file_size", written),
		zap.String("workflow_id", workflowID),
	)

	queueInfo, err := s.queue.EstimateWait(ctx, fileType)
	if err != nil {
		s.logger.Warn("queue estimate failed", zap.Error(err))
		queueInfo = models.QueueInfo{Queue: fileType, Position: 1}
	}

	return c.JSON(http.StatusAccepted, uploadResponse{
		DocumentID: doc.DocumentID,
		Filename:   doc.Filename,
		FileType:   doc.FileType,
		Status:     doc.Status,
		CreatedAt:  doc.CreatedAt,
		QueueInfo:  queueInfo,
	})
}

type statusResponse struct {
	DocumentID   string           `json:"document_id"`
	Filename     string           `json:"filename"`
	FileType     string           `json:"file_type"`
	Status       string           `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	Progress     *models.Progress `json:"progress,omitempty"`
	ChunkCount   int              `json:"chunk_count,omitempty"`
	ProcessedAt  *time.Time       `json:"processed_at,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
}

func (s *Server) handleUploadStatus(c echo.Context) error {
	ctx := c.Request().Context()
	doc, err := s.docs.GetDocument(ctx, userID(c), c.Param("document_id"))
	if err != nil {
		return storeError(c, err)
	}

	resp := statusResponse{
		DocumentID: doc.DocumentID,
		Filename:   doc.Filename,
		FileType:   doc.FileType,
		Status:     doc.Status,
		CreatedAt:  doc.CreatedAt,
	}
	switch doc.Status {
	case models.StatusProcessing:
		// Live progress comes from the workflow query; a miss just means
		// the run finished or has not been picked up yet.
		if st, qErr := s.wf.DocumentProgress(ctx, doc.DocumentID); qErr == nil {
			resp.Progress = &models.Progress{
				Percent:           float64(st.Percent),
				CurrentStep:       st.CurrentStep,
				SegmentsDone:      st.ProcessedSegments,
				SegmentsTotal:     st.TotalSegments,
				EstimatedSecsLeft: st.RemainingSeconds,
			}
		}
	case models.StatusCompleted:
		resp.ChunkCount = doc.ChunkCount
		resp.ProcessedAt = doc.ProcessedAt
	case models.StatusFailed:
		resp.ErrorMessage = doc.ErrorMessage
	}
	return c.JSON(http.StatusOK, resp)
}

type documentListItem struct {
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"file_type"`
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunk_count"`
	FileSize   int64     `json:"file_size"`
	CreatedAt  time.Time `json:"created_at"`
}

func (s *Server) handleListDocuments(c echo.Context) error {
	docs, err := s.docs.ListDocuments(c.Request().Context(), userID(c))
	if err != nil {
		return writeError(c, http.StatusInternalServerError, err)
	}
	items := make([]documentListItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, documentListItem{
			DocumentID: d.DocumentID,
			Filename:   d.Filename,
			FileType:   d.FileType,
			Status:     d.Status,
			ChunkCount: d.ChunkCount,
			FileSize:   d.FileSize,
			CreatedAt:  d.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"documents":   items,
		"total_count": len(items),
	})
}

func (s *Server) handleDeleteDocument(c echo.Context) error {
	ctx := c.Request().Context()
	user := userID(c)
	id := c.Param("document_id")

	doc, err := s.docs.GetDocument(ctx, user, id)
	if err != nil {
		return storeError(c, err)
	}
	deleted, err := s.docs.DeleteDocument(ctx, user, id)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, err)
	}
	if !deleted {
		return writeError(c, http.StatusNotFound, util.ErrDocumentNotFound)
	}
	if doc.StoragePath != "" {
		if rmErr := os.Remove(doc.StoragePath); rmErr != nil && !os.IsNotExist(rmErr) {
			s.logger.Warn("remove stored file failed",
				zap.String("document_id", id), zap.Error(rmErr))
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleQueueStatus(c echo.Context) error {
	status, err := s.queue.Status(c.Request().Context())
	if err != nil {
		return writeError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, status)
}
