// Package extract turns uploaded files into plain text. The PDF path reads
// embedded text directly; the video path extracts the audio track and runs
// speech-to-text segment by segment.
package extract

import (
	"context"
	"fmt"

	"studyflow/internal/models"
)

type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ForType returns the one-shot extractor for fileType. Video has no
// one-shot path; its audio is prepared and transcribed segment by segment
// through the Video phases.
func ForType(fileType string) (Extractor, error) {
	switch fileType {
	case models.FileTypePDF:
		return PDF{}, nil
	default:
		return nil, fmt.Errorf("no one-shot extractor for file type: %s", fileType)
	}
}
