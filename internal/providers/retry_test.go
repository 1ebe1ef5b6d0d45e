package providers

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyEmbedProvider struct {
	failures int
	calls    int
	err      error
}

func (f *flakyEmbedProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, ProviderInfo{Name: "flaky"}, f.err
	}
	return [][]float32{{1, 0}}, ProviderInfo{Name: "flaky"}, nil
}

func TestRetryEmbedRecoversFromTransientFailure(t *testing.T) {
	p := &flakyEmbedProvider{failures: 1, err: errors.New("upstream timeout")}
	vecs, _, err := RetryEmbed(context.Background(), p, EmbedRequest{Inputs: []string{"x"}}, 5*time.Second)
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if p.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", p.calls)
	}
	if len(vecs) != 1 {
		t.Fatalf("expected 1 vector, got %d", len(vecs))
	}
}

func TestRetryEmbedStopsOnPermanentError(t *testing.T) {
	p := &flakyEmbedProvider{failures: 10, err: errors.New("invalid model")}
	_, _, err := RetryEmbed(context.Background(), p, EmbedRequest{Inputs: []string{"x"}}, 5*time.Second)
	if err == nil {
		t.Fatal("expected error")
	}
	if p.calls != 1 {
		t.Fatalf("permanent errors must not retry, got %d calls", p.calls)
	}
}

func TestRetryEmbedHonorsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &flakyEmbedProvider{failures: 10, err: errors.New("upstream timeout")}
	_, _, err := RetryEmbed(ctx, p, EmbedRequest{Inputs: []string{"x"}}, 5*time.Second)
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
}
