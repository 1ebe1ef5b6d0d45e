package models

import "time"

// Document statuses. Transitions run pending -> processing -> completed|failed;
// completed and failed are terminal.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// File types accepted at upload.
const (
	FileTypePDF   = "pdf"
	FileTypeVideo = "video"
)

type Document struct {
	DocumentID          string     `json:"document_id"`
	UserID              string     `json:"user_id"`
	Filename            string     `json:"filename"`
	FileType            string     `json:"file_type"`
	Status              string     `json:"status"`
	FileSize            int64      `json:"file_size"`
	StoragePath         string     `json:"storage_path"`
	ChunkCount          int        `json:"chunk_count"`
	ErrorMessage        string     `json:"error_message,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	ProcessingStartedAt *time.Time `json:"processing_started_at,omitempty"`
	ProcessedAt         *time.Time `json:"processed_at,omitempty"`
}

// Terminal reports whether no further automatic transition may happen.
func (d Document) Terminal() bool {
	return d.Status == StatusCompleted || d.Status == StatusFailed
}

type Chunk struct {
	ChunkID    string         `json:"chunk_id"`
	DocumentID string         `json:"document_id"`
	UserID     string         `json:"user_id"`
	ChunkIndex int            `json:"chunk_index"`
	Text       string         `json:"chunk_text"`
	Metadata   map[string]int `json:"chunk_metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ChunkResult is one similarity-search hit for a document.
type ChunkResult struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"chunk_text,omitempty"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"relevance_score"`
}

// Progress describes a processing document for status polling.
type Progress struct {
	Percent           float64 `json:"percent"`
	CurrentStep       string  `json:"current_step"`
	SegmentsDone      int     `json:"segments_done,omitempty"`
	SegmentsTotal     int     `json:"segments_total,omitempty"`
	EstimatedSecsLeft int     `json:"estimated_seconds_left,omitempty"`
}

// QueueInfo is returned with upload acceptance and by the queue endpoint.
type QueueInfo struct {
	Queue                string `json:"queue"`
	Position             int    `json:"position"`
	EstimatedWaitMinutes int    `json:"estimated_wait_minutes"`
}

type QueueStats struct {
	Pending              int `json:"pending"`
	Processing           int `json:"processing"`
	EstimatedWaitMinutes int `json:"estimated_wait_minutes"`
}

// QueueStatus is the full picture returned by the queue endpoint.
type QueueStatus struct {
	PDF           QueueStats `json:"pdf"`
	Media         QueueStats `json:"media"`
	TotalPending  int        `json:"total_pending"`
	ActiveWorkers int        `json:"active_workers"`
	MaxWorkers    int        `json:"max_workers"`
}

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
}
