package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"studyflow/internal/util"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func writeError(c echo.Context, status int, err error) error {
	return c.JSON(status, errorEnvelope{Error: toAPIError(status, err)})
}

func toAPIError(status int, err error) apiError {
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	if status >= 500 && status != http.StatusBadGateway {
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "SF-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "SF-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "SF-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	}

	out := apiError{Code: "SF-API-4001", Message: "Invalid request. Check inputs and retry."}
	switch status {
	case http.StatusNotFound:
		out = apiError{Code: "SF-API-4004", Message: "Requested document was not found."}
	case http.StatusConflict:
		out = apiError{Code: "SF-API-4009", Message: "Document is not ready for this operation. Check its status and retry."}
	case http.StatusRequestEntityTooLarge:
		out = apiError{Code: "SF-API-4013", Message: "Uploaded file exceeds the size limit."}
	case http.StatusUnsupportedMediaType:
		out = apiError{Code: "SF-API-4015", Message: "Unsupported file type. Upload a PDF or video file."}
	case http.StatusBadGateway:
		out = apiError{Code: "SF-API-5020", Message: "Generation failed. Retry shortly."}
	}

	// 4xx details stay user-safe: they carry our own sentinel text only.
	if err != nil && status >= 400 && status < 500 {
		out.Details = err.Error()
	}
	return out
}

// featureError maps service errors onto the transport taxonomy.
func featureError(c echo.Context, err error) error {
	var ve *util.ValidationError
	switch {
	case errors.As(err, &ve):
		return writeError(c, http.StatusBadRequest, err)
	case errors.Is(err, util.ErrDocumentNotFound):
		return writeError(c, http.StatusNotFound, err)
	case errors.Is(err, util.ErrDocumentNotReady):
		return writeError(c, http.StatusConflict, err)
	case errors.Is(err, util.ErrInvalidQuiz), errors.Is(err, util.ErrGenerationFailed):
		return writeError(c, http.StatusBadGateway, err)
	default:
		return writeError(c, http.StatusInternalServerError, err)
	}
}

func storeError(c echo.Context, err error) error {
	if errors.Is(err, util.ErrDocumentNotFound) {
		return writeError(c, http.StatusNotFound, err)
	}
	return writeError(c, http.StatusInternalServerError, err)
}
