package features

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"studyflow/internal/providers"
	"studyflow/internal/util"
)

// generateWithFailover walks the preferred provider order until one call
// succeeds. Quota failures put a provider on cooldown for the configured
// period; rate and transient failures get two quick retries against the
// same provider; anything else disables it briefly and moves on.
func (s *Service) generateWithFailover(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	order := s.prov.PreferredLLMOrder()
	if len(order) == 0 {
		return providers.GenerateResponse{}, providers.ProviderInfo{}, util.ErrGenerationFailed
	}
	retryCounts := map[string]int{}
	var lastErr error
	for attempt := 0; attempt < len(order)*4; attempt++ {
		if err := ctx.Err(); err != nil {
			return providers.GenerateResponse{}, providers.ProviderInfo{}, err
		}
		idx := order[attempt%len(order)]
		if s.providerDisabled(llmKey(idx)) {
			continue
		}
		p, ref := s.prov.LLMProviderByIndex(idx)
		resp, info, err := p.Generate(ctx, req)
		if err == nil {
			return resp, info, nil
		}
		lastErr = err
		errType := providers.ClassifyError(err)
		s.logger.Warn("generation call failed",
			zap.String("operation", req.Operation),
			zap.String("provider", ref.Name),
			zap.String("error_type", string(errType)),
			zap.Error(err))
		key := llmKey(idx)
		retryCounts[key]++
		switch errType {
		case providers.ErrorQuota:
			s.disableProvider(key, s.cooldown)
		case providers.ErrorRate:
			if retryCounts[key] <= 2 {
				s.sleep(time.Duration(retryCounts[key]*2) * time.Second)
				attempt--
			} else {
				s.disableProvider(key, 2*time.Minute)
			}
		case providers.ErrorTransient:
			if retryCounts[key] <= 2 {
				s.sleep(time.Duration(retryCounts[key]) * time.Second)
				attempt--
			}
		case providers.ErrorContext:
			return providers.GenerateResponse{}, providers.ProviderInfo{}, err
		default:
			s.disableProvider(key, time.Minute)
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no generation provider available")
	}
	return providers.GenerateResponse{}, providers.ProviderInfo{}, fmt.Errorf("%w: %v", util.ErrGenerationFailed, lastErr)
}

// embedQueryWithFailover embeds a single query string, failing over across
// embedding providers the same way generation does.
func (s *Service) embedQueryWithFailover(ctx context.Context, text string) ([]float32, error) {
	order := s.prov.PreferredEmbedOrder()
	if len(order) == 0 {
		return nil, fmt.Errorf("no embedding provider available")
	}
	req := providers.EmbedRequest{
		Operation: providers.EmbedOperationQuery,
		Inputs:    []string{text},
		Dimension: s.embedDim,
	}
	retryCounts := map[string]int{}
	var lastErr error
	for attempt := 0; attempt < len(order)*4; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		idx := order[attempt%len(order)]
		if s.providerDisabled(embedKey(idx)) {
			continue
		}
		p, ref := s.prov.EmbedProviderByIndex(idx)
		vecs, _, err := p.Embed(ctx, req)
		if err == nil && len(vecs) == 1 {
			return vecs[0], nil
		}
		if err == nil {
			err = fmt.Errorf("expected 1 query vector, got %d", len(vecs))
		}
		lastErr = err
		errType := providers.ClassifyError(err)
		s.logger.Warn("query embedding failed",
			zap.String("provider", ref.Name),
			zap.String("error_type", string(errType)),
			zap.Error(err))
		key := embedKey(idx)
		retryCounts[key]++
		switch errType {
		case providers.ErrorQuota:
			s.disableProvider(key, s.cooldown)
		case providers.ErrorRate:
			if retryCounts[key] <= 2 {
				s.sleep(time.Duration(retryCounts[key]*2) * time.Second)
				attempt--
			} else {
				s.disableProvider(key, 2*time.Minute)
			}
		case providers.ErrorTransient:
			if retryCounts[key] <= 2 {
				s.sleep(time.Duration(retryCounts[key]) * time.Second)
				attempt--
			}
		default:
			s.disableProvider(key, time.Minute)
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no embedding provider available")
	}
	return nil, fmt.Errorf("embed query: %w", lastErr)
}

func (s *Service) providerDisabled(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.disabledUntil[key]
	return ok && s.now().Before(until)
}

func (s *Service) disableProvider(key string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabledUntil[key] = s.now().Add(d)
}

func llmKey(idx int) string   { return fmt.Sprintf("llm-%d", idx) }
func embedKey(idx int) string { return fmt.Sprintf("embed-%d", idx) }
