package providers

import "context"

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Key   string `json:"key"`
}

type GenerateRequest struct {
	Operation string   `json:"operation"`
	System    string   `json:"system,omitempty"`
	Prompt    string   `json:"prompt"`
	Context   []string `json:"context"`
	MaxTokens int      `json:"max_tokens,omitempty"`
}

type GenerateResponse struct {
	Text string `json:"text"`
}

type EmbedRequest struct {
	Operation string   `json:"operation"`
	Inputs    []string `json:"inputs"`
	Dimension int      `json:"dimension"`
}

// TranscribeRequest points at one audio segment on local disk.
type TranscribeRequest struct {
	AudioPath string `json:"audio_path"`
	Language  string `json:"language"`
}

type TranscribeResponse struct {
	Text string `json:"text"`
}

type LLMProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error)
}

type EmbeddingProvider interface {
	Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error)
}

type SpeechProvider interface {
	Transcribe(ctx context.Context, req TranscribeRequest) (TranscribeResponse, ProviderInfo, error)
}

// EmbedOperationQuery marks single-query embedding requests; local models
// encode queries and passages differently.
const (
	EmbedOperationQuery  = "query"
	EmbedOperationChunks = "chunks"
)
