// Package queue estimates processing wait from live document counts. PDFs
// run on a concurrent pool; media runs strictly one at a time, so the two
// queues are costed separately.
package queue

import (
	"context"
	"fmt"

	"studyflow/internal/models"
)

// Per-item processing cost used for wait estimates, in minutes. Media is
// dominated by transcription, PDFs by embedding.
const (
	mediaMinutesPerItem = 12
	pdfMinutesPerItem   = 4
)

type Counter interface {
	CountByTypeAndStatus(ctx context.Context, fileType, status string) (int, error)
}

type Estimator struct {
	counter       Counter
	maxPDFWorkers int
}

func NewEstimator(counter Counter, maxPDFWorkers int) *Estimator {
	if maxPDFWorkers <= 0 {
		maxPDFWorkers = 1
	}
	return &Estimator{counter: counter, maxPDFWorkers: maxPDFWorkers}
}

// Status reports both queues for the queue endpoint.
func (e *Estimator) Status(ctx context.Context) (models.QueueStatus, error) {
	pdf, err := e.queueStats(ctx, models.FileTypePDF)
	if err != nil {
		return models.QueueStatus{}, err
	}
	media, err := e.queueStats(ctx, models.FileTypeVideo)
	if err != nil {
		return models.QueueStatus{}, err
	}
	return models.QueueStatus{
		PDF:           pdf,
		Media:         media,
		TotalPending:  pdf.Pending + media.Pending,
		ActiveWorkers: pdf.Processing + media.Processing,
		MaxWorkers:    e.maxPDFWorkers + 1,
	}, nil
}

// EstimateWait predicts how long a new upload of the given type would sit
// before a worker picks it up.
func (e *Estimator) EstimateWait(ctx context.Context, fileType string) (models.QueueInfo, error) {
	pending, processing, err := e.counts(ctx, fileType)
	if err != nil {
		return models.QueueInfo{}, err
	}
	info := models.QueueInfo{Position: pending + 1}
	if fileType == models.FileTypeVideo {
		info.Queue = "media"
		info.EstimatedWaitMinutes = estimateMediaWait(pending, processing)
	} else {
		info.Queue = "pdf"
		info.EstimatedWaitMinutes = estimatePDFWait(pending, processing, e.maxPDFWorkers)
	}
	return info, nil
}

func (e *Estimator) queueStats(ctx context.Context, fileType string) (models.QueueStats, error) {
	pending, processing, err := e.counts(ctx, fileType)
	if err != nil {
		return models.QueueStats{}, err
	}
	stats := models.QueueStats{Pending: pending, Processing: processing}
	if fileType == models.FileTypeVideo {
		stats.EstimatedWaitMinutes = estimateMediaWait(pending, processing)
	} else {
		stats.EstimatedWaitMinutes = estimatePDFWait(pending, processing, e.maxPDFWorkers)
	}
	return stats, nil
}

func (e *Estimator) counts(ctx context.Context, fileType string) (pending, processing int, err error) {
	pending, err = e.counter.CountByTypeAndStatus(ctx, fileType, models.StatusPending)
	if err != nil {
		return 0, 0, fmt.Errorf("count pending: %w", err)
	}
	processing, err = e.counter.CountByTypeAndStatus(ctx, fileType, models.StatusProcessing)
	if err != nil {
		return 0, 0, fmt.Errorf("count processing: %w", err)
	}
	return pending, processing, nil
}

// estimateMediaWait assumes one sequential media worker. A busy worker adds
// a full item's cost on top of the backlog.
func estimateMediaWait(pending, processing int) int {
	if pending == 0 && processing == 0 {
		return 0
	}
	wait := pending * mediaMinutesPerItem
	if processing > 0 {
		wait += mediaMinutesPerItem
	}
	return wait
}

// estimatePDFWait spreads the backlog across the worker pool. A free worker
// means the next upload starts immediately.
func estimatePDFWait(pending, processing, workers int) int {
	if workers <= 0 {
		workers = 1
	}
	if processing < workers {
		return 0
	}
	if pending == 0 {
		return 0
	}
	return pending * pdfMinutesPerItem / workers
}
