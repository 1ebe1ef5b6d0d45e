package providers

import (
	"context"
	"fmt"
	"sync"

	fastembed "github.com/anush008/fastembed-go"
)

// LocalProvider embeds with an ONNX model on this machine, no API key and no
// network after the first model download.
type LocalProvider struct {
	model     *fastembed.FlagEmbedding
	modelName string
	dim       int
	batchSize int
	mu        sync.Mutex
}

var localModels = map[string]fastembed.EmbeddingModel{
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
	"fast-all-MiniLM-L6-v2":                  fastembed.AllMiniLML6V2,
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-small-en":                      fastembed.BGESmallEN,
}

var localModelDims = map[fastembed.EmbeddingModel]int{
	fastembed.AllMiniLML6V2: 384,
	fastembed.BGESmallENV15: 384,
	fastembed.BGESmallEN:    384,
}

func NewLocalProvider(modelName, cacheDir string, wantDim, batchSize int) (*LocalProvider, error) {
	model, ok := localModels[modelName]
	if !ok {
		return nil, fmt.Errorf("unsupported local embedding model %q", modelName)
	}
	dim := localModelDims[model]
	if wantDim > 0 && dim != wantDim {
		return nil, fmt.Errorf("local model %s produces %d-dim vectors, store expects %d", modelName, dim, wantDim)
	}
	if cacheDir == "" {
		cacheDir = "./local_cache"
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	showProgress := false
	flagEmbed, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                model,
		CacheDir:             cacheDir,
		MaxLength:            512,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("init local embedding model: %w", err)
	}
	return &LocalProvider{model: flagEmbed, modelName: modelName, dim: dim, batchSize: batchSize}, nil
}

func (p *LocalProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := ProviderInfo{Name: "local", Model: p.modelName, Key: "local"}
	if len(req.Inputs) == 0 {
		return nil, info, fmt.Errorf("no embedding inputs")
	}
	// The ONNX runtime is not context-aware; respect cancellation up front.
	select {
	case <-ctx.Done():
		return nil, info, ctx.Err()
	default:
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if req.Operation == EmbedOperationQuery && len(req.Inputs) == 1 {
		vec, err := p.model.QueryEmbed(req.Inputs[0])
		if err != nil {
			return nil, info, fmt.Errorf("local query embed: %w", err)
		}
		return [][]float32{matchDimension(vec, req.Dimension)}, info, nil
	}

	vecs, err := p.model.PassageEmbed(req.Inputs, p.batchSize)
	if err != nil {
		return nil, info, fmt.Errorf("local passage embed: %w", err)
	}
	out := make([][]float32, len(vecs))
	for i, v := range vecs {
		out[i] = matchDimension(v, req.Dimension)
	}
	return out, info, nil
}

func (p *LocalProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model != nil {
		return p.model.Destroy()
	}
	return nil
}
