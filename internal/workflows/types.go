package workflows

type DocumentProcessInput struct {
	DocumentID            string `json:"document_id"`
	UserID                string `json:"user_id"`
	Filename              string `json:"filename"`
	FileType              string `json:"file_type"`
	StoragePath           string `json:"storage_path"`
	ChunkSize             int    `json:"chunk_size"`
	ChunkOverlap          int    `json:"chunk_overlap"`
	EmbedProviders        int    `json:"embed_providers"`
	CooldownSeconds       int    `json:"cooldown_seconds"`
	ProcessTimeoutMinutes int    `json:"process_timeout_minutes"`
}

type DocumentStatus struct {
	DocumentID  string            `json:"document_id"`
	Filename    string            `json:"filename"`
	FileType    string            `json:"file_type"`
	CurrentStep string            `json:"current_step"`
	Status      string            `json:"status"`
	Percent     int               `json:"percent"`
	FailReason  string            `json:"fail_reason,omitempty"`
	ChunkCount  int               `json:"chunk_count"`
	Providers   []string          `json:"providers_used"`
	RetryCounts map[string]int    `json:"retry_counts"`
	Steps       map[string]string `json:"steps"`

	// Segment progress, populated while a video transcribes.
	ProcessedSegments int `json:"processed_segments,omitempty"`
	TotalSegments     int `json:"total_segments,omitempty"`
	SkippedSegments   int `json:"skipped_segments,omitempty"`
	RemainingSeconds  int `json:"estimated_remaining_seconds,omitempty"`
}
