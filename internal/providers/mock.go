package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MockProvider is the deterministic offline fallback. Vectors depend only on
// the input text, generation only on the operation, so tests and keyless
// environments behave the same run to run.
type MockProvider struct {
	dim int
}

func NewMockProvider(dim int) *MockProvider {
	if dim <= 0 {
		dim = 384
	}
	return &MockProvider{dim: dim}
}

func (m *MockProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	_ = ctx
	dim := req.Dimension
	if dim <= 0 {
		dim = m.dim
	}
	vectors := make([][]float32, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		vectors = append(vectors, deterministicVector(input, dim))
	}
	return vectors, ProviderInfo{Name: "mock", Model: fmt.Sprintf("mock-embed-%d", dim), Key: "mock"}, nil
}

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	op := strings.ToLower(req.Operation)
	text := "Mock response."
	switch {
	case strings.Contains(op, "question"):
		b := strings.Builder{}
		b.WriteString("Based on the provided material, the answer is deterministic mock output.")
		for i := range req.Context {
			b.WriteString(" [C")
			b.WriteString(strconv.Itoa(i + 1))
			b.WriteString("]")
		}
		text = b.String()
	case strings.Contains(op, "summary"):
		text = "This document covers its subject in several sections. " +
			"The mock summary lists the main points in order and notes that " +
			"a real provider is needed for semantic quality."
	case strings.Contains(op, "quiz"):
		text = mockQuizJSON
	}
	return GenerateResponse{Text: text}, ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}, nil
}

func (m *MockProvider) Transcribe(ctx context.Context, req TranscribeRequest) (TranscribeResponse, ProviderInfo, error) {
	_ = ctx
	text := fmt.Sprintf("Deterministic transcript for %s.", req.AudioPath)
	return TranscribeResponse{Text: text}, ProviderInfo{Name: "mock", Model: "mock-whisper-v1", Key: "mock"}, nil
}

// mockQuizJSON passes the strict quiz schema so offline quiz generation
// still exercises the full validation path.
const mockQuizJSON = `{"questions":[
{"question":"What is the primary topic of this document?","options":["Its main subject","An unrelated topic","Nothing at all","Only formatting"],"correct_answer":0},
{"question":"How is the material organized?","options":["Randomly","In ordered sections","As images only","It is empty"],"correct_answer":1},
{"question":"What should replace this mock output in production?","options":["Nothing","A slower mock","A real generation provider","More mocks"],"correct_answer":2}
]}`

func deterministicVector(input string, dim int) []float32 {
	vec := make([]float32, dim)
	seed := []byte(input)
	if len(seed) == 0 {
		seed = []byte("empty")
	}
	for i := 0; i < dim; i++ {
		h := sha256.Sum256(append(seed, byte(i%251)))
		u := binary.BigEndian.Uint32(h[:4])
		v := float32(u%2000)/1000.0 - 1.0
		vec[i] = v
	}
	return normalize(vec)
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}
