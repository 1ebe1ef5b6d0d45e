package providers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	openaiChatModel  = openai.ChatModelGPT4oMini
	openaiEmbedModel = openai.EmbeddingModelTextEmbedding3Small
	openaiAudioModel = openai.AudioModelWhisper1
)

// OpenAIProvider backs generation, embeddings, and speech-to-text with the
// official SDK. text-embedding-3-small accepts a dimensions parameter, so
// vectors come back already sized for the store.
type OpenAIProvider struct {
	keyName string
	apiKey  string
	client  openai.Client
}

func NewOpenAIProvider(keyName string) *OpenAIProvider {
	apiKey := resolveOpenAIKey(keyName)
	return &OpenAIProvider{
		keyName: keyName,
		apiKey:  apiKey,
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
	}
}

func (o *OpenAIProvider) info() ProviderInfo {
	return ProviderInfo{Name: "openai", Key: o.keyName}
}

func (o *OpenAIProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := o.info()
	info.Model = string(openaiEmbedModel)
	if o.apiKey == "" {
		return nil, info, fmt.Errorf("openai key missing for alias %q", o.keyName)
	}
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: req.Inputs},
		Model: openaiEmbedModel,
	}
	if req.Dimension > 0 {
		params.Dimensions = openai.Int(int64(req.Dimension))
	}
	resp, err := o.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, info, fmt.Errorf("openai embeddings: %w", err)
	}
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = toFloat32(d.Embedding)
	}
	return out, info, nil
}

func (o *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := o.info()
	info.Model = string(openaiChatModel)
	if o.apiKey == "" {
		return GenerateResponse{}, info, fmt.Errorf("openai key missing for alias %q", o.keyName)
	}
	prompt := req.Prompt
	if len(req.Context) > 0 {
		prompt = prompt + "\n\nContext:\n" + strings.Join(req.Context, "\n\n")
	}
	system := req.System
	if system == "" {
		system = "You are a study assistant. Ground every response in the provided document content."
	}
	params := openai.ChatCompletionNewParams{
		Model: openaiChatModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return GenerateResponse{}, info, fmt.Errorf("openai returned empty choices")
	}
	return GenerateResponse{Text: resp.Choices[0].Message.Content}, info, nil
}

func (o *OpenAIProvider) Transcribe(ctx context.Context, req TranscribeRequest) (TranscribeResponse, ProviderInfo, error) {
	info := o.info()
	info.Model = string(openaiAudioModel)
	if o.apiKey == "" {
		return TranscribeResponse{}, info, fmt.Errorf("openai key missing for alias %q", o.keyName)
	}
	f, err := os.Open(req.AudioPath)
	if err != nil {
		return TranscribeResponse{}, info, fmt.Errorf("open audio segment: %w", err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		Model: openaiAudioModel,
		File:  f,
	}
	if req.Language != "" {
		params.Language = openai.String(req.Language)
	}
	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return TranscribeResponse{}, info, fmt.Errorf("openai transcription: %w", err)
	}
	return TranscribeResponse{Text: resp.Text}, info, nil
}

func resolveOpenAIKey(alias string) string {
	if alias != "" {
		k := os.Getenv("STUDYFLOW_OPENAI_KEY_" + sanitizeEnvToken(alias))
		if k != "" {
			return k
		}
	}
	return os.Getenv("OPENAI_API_KEY")
}

func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
