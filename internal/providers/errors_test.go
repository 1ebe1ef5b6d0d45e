package providers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/openai/openai-go"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]ErrorType{
		"insufficient_quota":             ErrorQuota,
		"no credits remaining":           ErrorQuota,
		"429 rate":                       ErrorRate,
		"context too long":               ErrorContext,
		"timeout":                        ErrorTransient,
		"service temporarily overloaded": ErrorTransient,
		"bad request":                    ErrorPermanent,
		"model not found":                ErrorPermanent,
	}
	for msg, want := range cases {
		if got := ClassifyError(errors.New(msg)); got != want {
			t.Fatalf("classify %q: got %s want %s", msg, got, want)
		}
	}
}

func TestClassifyErrorSDKStatusCodes(t *testing.T) {
	cases := map[int]ErrorType{
		429: ErrorRate,
		402: ErrorQuota,
		500: ErrorTransient,
		503: ErrorTransient,
		400: ErrorPermanent,
		401: ErrorPermanent,
	}
	for code, want := range cases {
		err := fmt.Errorf("call failed: %w", &openai.Error{StatusCode: code})
		if got := ClassifyError(err); got != want {
			t.Fatalf("classify status %d: got %s want %s", code, got, want)
		}
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(ErrorRate) || !Retryable(ErrorTransient) {
		t.Fatal("rate and transient failures should be retryable")
	}
	if Retryable(ErrorQuota) || Retryable(ErrorPermanent) || Retryable(ErrorContext) {
		t.Fatal("quota, permanent and context failures should not be retryable")
	}
}
