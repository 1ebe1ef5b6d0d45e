package providers

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryEmbed wraps Embed with exponential backoff. Rate limits and transient
// faults retry until maxElapsed; everything else fails immediately.
func RetryEmbed(ctx context.Context, p EmbeddingProvider, req EmbedRequest, maxElapsed time.Duration) ([][]float32, ProviderInfo, error) {
	var vecs [][]float32
	var info ProviderInfo
	operation := func() error {
		v, i, err := p.Embed(ctx, req)
		if err != nil {
			if Retryable(ClassifyError(err)) {
				return err
			}
			return backoff.Permanent(err)
		}
		vecs, info = v, i
		return nil
	}
	err := backoff.Retry(operation, backoff.WithContext(newBackOff(maxElapsed), ctx))
	return vecs, info, err
}

// RetryTranscribe applies the same bounded retry to speech-to-text calls.
func RetryTranscribe(ctx context.Context, p SpeechProvider, req TranscribeRequest, maxElapsed time.Duration) (TranscribeResponse, ProviderInfo, error) {
	var resp TranscribeResponse
	var info ProviderInfo
	operation := func() error {
		r, i, err := p.Transcribe(ctx, req)
		if err != nil {
			if Retryable(ClassifyError(err)) {
				return err
			}
			return backoff.Permanent(err)
		}
		resp, info = r, i
		return nil
	}
	err := backoff.Retry(operation, backoff.WithContext(newBackOff(maxElapsed), ctx))
	return resp, info, err
}

func newBackOff(maxElapsed time.Duration) *backoff.ExponentialBackOff {
	if maxElapsed <= 0 {
		maxElapsed = 30 * time.Second
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = maxElapsed
	return b
}
