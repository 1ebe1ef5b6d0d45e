package activities

type MarkProcessingInput struct {
	DocumentID string `json:"document_id"`
}

type MarkProcessingOutput struct {
	Claimed bool `json:"claimed"`
}

type ExtractTextInput struct {
	DocumentID  string `json:"document_id"`
	StoragePath string `json:"storage_path"`
	FileType    string `json:"file_type"`
}

type ExtractTextOutput struct {
	Text string `json:"text"`
}

type PrepareAudioInput struct {
	DocumentID  string `json:"document_id"`
	StoragePath string `json:"storage_path"`
}

type PrepareAudioOutput struct {
	WorkDir         string    `json:"work_dir"`
	AudioPath       string    `json:"audio_path"`
	DurationSeconds float64   `json:"duration_seconds"`
	SegmentStarts   []float64 `json:"segment_starts"`
	SegmentSeconds  int       `json:"segment_seconds"`
}

type TranscribeSegmentInput struct {
	DocumentID   string  `json:"document_id"`
	AudioPath    string  `json:"audio_path"`
	StartSeconds float64 `json:"start_seconds"`
	Index        int     `json:"index"`
}

type TranscribeSegmentOutput struct {
	Text string `json:"text"`
}

type CleanupAudioInput struct {
	WorkDir string `json:"work_dir"`
}

type ChunkTextInput struct {
	DocumentID   string `json:"document_id"`
	UserID       string `json:"user_id"`
	FileType     string `json:"file_type"`
	Text         string `json:"text"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

type ChunkItem struct {
	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
	WordCount  int    `json:"word_count"`
	CharCount  int    `json:"char_count"`
}

type ChunkTextOutput struct {
	Chunks []ChunkItem `json:"chunks"`
}

type EmbedChunksInput struct {
	Operation     string      `json:"operation"`
	DocumentID    string      `json:"document_id"`
	ProviderIndex int         `json:"provider_index"`
	Input         []ChunkItem `json:"input"`
}

type EmbedChunksOutput struct {
	Vectors      [][]float32 `json:"vectors"`
	ProviderName string      `json:"provider_name"`
	Model        string      `json:"model"`
}

type UpsertChunksInput struct {
	Chunks  []ChunkItem `json:"chunks"`
	Vectors [][]float32 `json:"vectors,omitempty"`
}

type MarkCompletedInput struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}

type MarkFailedInput struct {
	DocumentID string `json:"document_id"`
	Message    string `json:"message"`
}
