package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"studyflow/internal/util"
)

type PDF struct{}

func (PDF) Extract(ctx context.Context, path string) (string, error) {
	_ = ctx
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	text := strings.TrimSpace(buf.String())
	text = util.SanitizeText(text)
	if text == "" {
		return "", util.ErrNoExtractableText
	}
	return text, nil
}
