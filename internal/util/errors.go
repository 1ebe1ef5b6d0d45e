package util

import "errors"

var (
	ErrNoExtractableText = errors.New("no extractable text found in document")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrDocumentNotReady  = errors.New("document is not ready")
	ErrInvalidQuiz       = errors.New("quiz payload failed validation")
	ErrGenerationFailed  = errors.New("generation failed")

	ErrQuotaExhausted = errors.New("provider quota exhausted")
	ErrRateLimited    = errors.New("provider rate limited")
	ErrTransient      = errors.New("transient provider error")
	ErrPermanent      = errors.New("permanent provider error")
	ErrContextTooLong = errors.New("context too long")
)

// ValidationError marks a client mistake; handlers map it to a 4xx response
// with the message as detail.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func ErrValidation(msg string) error { return &ValidationError{Msg: msg} }
