package extract

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"studyflow/internal/util"
)

// FallbackTranscript stands in for documents whose audio carries no usable
// speech, so the pipeline still completes with something to study.
const FallbackTranscript = "No clear speech detected in this video. The video may contain background music, noise, or speech that was not clearly audible."

// TranscribeFunc converts one audio segment to text. The extractor stays
// agnostic of provider selection and retry; callers wire that in.
type TranscribeFunc func(ctx context.Context, audioPath string) (string, error)

// Video extracts speech from an uploaded media file in two phases:
// PrepareAudio converts the audio track to mono 16 kHz WAV (capped at
// MaxSeconds) and lays out SegmentSeconds slices; TranscribeSegment cuts
// one slice and transcribes it under SegmentTimeout. Callers drive the
// segment loop, which lets them report per-segment progress and skip
// segments that fail instead of failing the whole document.
type Video struct {
	Transcribe     TranscribeFunc
	SegmentSeconds int
	MaxSeconds     int
	SegmentTimeout time.Duration
	WorkDir        string
	Logger         *zap.Logger
}

// AudioPrep describes the extracted audio track and its segment layout.
// WorkDir holds the WAV plus per-segment cuts; remove it once every
// segment has been transcribed.
type AudioPrep struct {
	WorkDir        string
	AudioPath      string
	DurationSecs   float64
	SegmentStarts  []float64
	SegmentSeconds int
}

func (v *Video) PrepareAudio(ctx context.Context, path string) (AudioPrep, error) {
	logger := v.logger()
	segSeconds := v.segmentSeconds()
	maxSeconds := v.MaxSeconds
	if maxSeconds <= 0 {
		maxSeconds = 600
	}

	workDir, err := os.MkdirTemp(v.WorkDir, "studyflow-audio-")
	if err != nil {
		return AudioPrep{}, fmt.Errorf("create audio workdir: %w", err)
	}
	wavPath := filepath.Join(workDir, "audio.wav")
	if err := extractAudioTrack(ctx, path, wavPath, maxSeconds); err != nil {
		os.RemoveAll(workDir)
		return AudioPrep{}, err
	}

	duration, err := probeDuration(ctx, wavPath)
	if err != nil {
		logger.Warn("ffprobe failed, transcribing audio as a single segment", zap.Error(err))
		duration = float64(segSeconds)
	}
	starts := segmentStarts(duration, segSeconds)
	logger.Info("audio track prepared",
		zap.String("path", path),
		zap.Float64("duration_secs", duration),
		zap.Int("segments", len(starts)))
	return AudioPrep{
		WorkDir:        workDir,
		AudioPath:      wavPath,
		DurationSecs:   duration,
		SegmentStarts:  starts,
		SegmentSeconds: segSeconds,
	}, nil
}

// TranscribeSegment cuts one slice out of the prepared audio and runs it
// through the transcriber. Audio with no recognizable speech comes back as
// an empty string, not an error.
func (v *Video) TranscribeSegment(ctx context.Context, audioPath string, startSecs float64, index int) (string, error) {
	if v.Transcribe == nil {
		return "", fmt.Errorf("no transcriber configured")
	}
	segTimeout := v.SegmentTimeout
	if segTimeout <= 0 {
		segTimeout = 300 * time.Second
	}
	segPath := filepath.Join(filepath.Dir(audioPath), fmt.Sprintf("seg-%03d.wav", index))
	if err := cutSegment(ctx, audioPath, segPath, startSecs, v.segmentSeconds()); err != nil {
		return "", err
	}
	defer os.Remove(segPath)

	segCtx, cancel := context.WithTimeout(ctx, segTimeout)
	defer cancel()
	text, err := v.Transcribe(segCtx, segPath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (v *Video) segmentSeconds() int {
	if v.SegmentSeconds <= 0 {
		return 60
	}
	return v.SegmentSeconds
}

func (v *Video) logger() *zap.Logger {
	if v.Logger == nil {
		return zap.NewNop()
	}
	return v.Logger
}

// AssembleTranscript joins segment texts into the document transcript,
// substituting FallbackTranscript when no segment produced usable speech.
func AssembleTranscript(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			kept = append(kept, t)
		}
	}
	transcript := util.SanitizeText(strings.Join(kept, " "))
	if strings.TrimSpace(transcript) == "" {
		return FallbackTranscript
	}
	return transcript
}

// extractAudioTrack pulls the audio out of a media container as mono 16 kHz
// PCM, the format speech models expect, keeping only the first maxSeconds.
func extractAudioTrack(ctx context.Context, src, dst string, maxSeconds int) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", src,
		"-t", strconv.Itoa(maxSeconds),
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		dst,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("extract audio track: %w (output: %s)", err, tail(string(output), 500))
	}
	return nil
}

func cutSegment(ctx context.Context, src, dst string, startSecs float64, lengthSecs int) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", src,
		"-ss", strconv.FormatFloat(startSecs, 'f', 2, 64),
		"-t", strconv.Itoa(lengthSecs),
		"-c", "copy",
		dst,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("cut audio segment: %w (output: %s)", err, tail(string(output), 500))
	}
	return nil
}

func probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("probe audio duration: %w (output: %s)", err, tail(string(output), 500))
	}
	return parseDuration(string(output))
}

func parseDuration(out string) (float64, error) {
	s := strings.TrimSpace(out)
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, fmt.Errorf("implausible duration %q", s)
	}
	return d, nil
}

// segmentStarts lays out segment offsets covering the full duration. A
// non-positive duration still yields one segment so short clips are not
// silently skipped.
func segmentStarts(duration float64, segmentSeconds int) []float64 {
	if segmentSeconds <= 0 {
		segmentSeconds = 60
	}
	if duration <= 0 {
		return []float64{0}
	}
	starts := make([]float64, 0, int(duration)/segmentSeconds+1)
	for s := 0.0; s < duration; s += float64(segmentSeconds) {
		starts = append(starts, s)
	}
	if len(starts) == 0 {
		starts = append(starts, 0)
	}
	return starts
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
