package providers

import (
	"errors"
	"strings"

	"github.com/openai/openai-go"
)

type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
	ErrorContext   ErrorType = "context"
)

// ClassifyError buckets provider failures for retry and failover decisions.
// SDK errors are classified by status code, everything else by message.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return ErrorRate
		case apiErr.StatusCode == 402:
			return ErrorQuota
		case apiErr.StatusCode >= 500:
			return ErrorTransient
		default:
			return ErrorPermanent
		}
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate"), strings.Contains(e, "429"):
		return ErrorRate
	case strings.Contains(e, "context"), strings.Contains(e, "too long"):
		return ErrorContext
	case strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}

// Retryable reports whether a failure class is worth another attempt against
// the same provider.
func Retryable(t ErrorType) bool {
	return t == ErrorRate || t == ErrorTransient
}
