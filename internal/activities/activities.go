package activities

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"studyflow/internal/chunk"
	"studyflow/internal/config"
	"studyflow/internal/extract"
	"studyflow/internal/providers"
	"studyflow/internal/storage"
	"studyflow/internal/util"
	"studyflow/internal/vector"
)

type Activities struct {
	cfg       config.Config
	docRepo   *storage.DocumentRepo
	chunkRepo *storage.ChunkRepo
	providers *providers.Manager
	logger    *zap.Logger
}

func New(cfg config.Config, db *storage.DB, logger *zap.Logger) (*Activities, error) {
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Activities{
		cfg:       cfg,
		docRepo:   storage.NewDocumentRepo(db),
		chunkRepo: storage.NewChunkRepo(db),
		providers: pm,
		logger:    logger,
	}, nil
}

// MarkProcessingActivity claims the document. The guarded update makes the
// claim atomic: a second workflow for the same document sees Claimed=false
// and stops instead of double-processing.
func (a *Activities) MarkProcessingActivity(ctx context.Context, in MarkProcessingInput) (MarkProcessingOutput, error) {
	claimed, err := a.docRepo.MarkProcessing(ctx, in.DocumentID)
	if err != nil {
		return MarkProcessingOutput{}, err
	}
	return MarkProcessingOutput{Claimed: claimed}, nil
}

func (a *Activities) ExtractTextActivity(ctx context.Context, in ExtractTextInput) (ExtractTextOutput, error) {
	extractor, err := extract.ForType(in.FileType)
	if err != nil {
		return ExtractTextOutput{}, err
	}
	text, err := extractor.Extract(ctx, in.StoragePath)
	if err != nil {
		return ExtractTextOutput{}, err
	}
	return ExtractTextOutput{Text: text}, nil
}

// PrepareAudioActivity converts the uploaded video's audio track to WAV and
// lays out the transcription segments. The workflow transcribes them one by
// one and removes the workdir afterwards with CleanupAudioActivity. The WAV
// lives on local disk, so the segment activities must run on the same host;
// the media task queue's single worker guarantees that.
func (a *Activities) PrepareAudioActivity(ctx context.Context, in PrepareAudioInput) (PrepareAudioOutput, error) {
	prep, err := a.videoExtractor().PrepareAudio(ctx, in.StoragePath)
	if err != nil {
		return PrepareAudioOutput{}, err
	}
	return PrepareAudioOutput{
		WorkDir:         prep.WorkDir,
		AudioPath:       prep.AudioPath,
		DurationSeconds: prep.DurationSecs,
		SegmentStarts:   prep.SegmentStarts,
		SegmentSeconds:  prep.SegmentSeconds,
	}, nil
}

func (a *Activities) TranscribeSegmentActivity(ctx context.Context, in TranscribeSegmentInput) (TranscribeSegmentOutput, error) {
	text, err := a.videoExtractor().TranscribeSegment(ctx, in.AudioPath, in.StartSeconds, in.Index)
	if err != nil {
		return TranscribeSegmentOutput{}, err
	}
	return TranscribeSegmentOutput{Text: text}, nil
}

func (a *Activities) CleanupAudioActivity(ctx context.Context, in CleanupAudioInput) error {
	_ = ctx
	// Only remove directories PrepareAudioActivity created.
	if !strings.HasPrefix(filepath.Base(in.WorkDir), "studyflow-audio-") {
		return fmt.Errorf("refusing to remove %q", in.WorkDir)
	}
	return os.RemoveAll(in.WorkDir)
}

func (a *Activities) videoExtractor() *extract.Video {
	return &extract.Video{
		Transcribe:     a.transcribeSegment,
		SegmentSeconds: a.cfg.SegmentSeconds,
		MaxSeconds:     a.cfg.MaxMediaSeconds,
		SegmentTimeout: time.Duration(a.cfg.SegmentTimeoutSec) * time.Second,
		Logger:         a.logger,
	}
}

// transcribeSegment walks the speech providers in preference order. Each
// provider gets a bounded retry window before the next one is tried.
func (a *Activities) transcribeSegment(ctx context.Context, audioPath string) (string, error) {
	order := a.providers.PreferredSpeechOrder()
	var lastErr error
	for _, idx := range order {
		p, ref := a.providers.SpeechProviderByIndex(idx)
		resp, _, err := providers.RetryTranscribe(ctx, p, providers.TranscribeRequest{
			AudioPath: audioPath,
			Language:  "en",
		}, 2*time.Minute)
		if err == nil {
			return resp.Text, nil
		}
		lastErr = err
		a.logger.Warn("speech provider failed",
			zap.String("provider", ref.Name),
			zap.String("audio_path", audioPath),
			zap.Error(err))
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no speech provider configured")
	}
	return "", fmt.Errorf("transcribe segment: %w", lastErr)
}

func (a *Activities) ChunkTextActivity(ctx context.Context, in ChunkTextInput) (ChunkTextOutput, error) {
	_ = ctx
	if in.ChunkSize <= 0 {
		in.ChunkSize = a.cfg.ChunkSize
	}
	if in.ChunkOverlap < 0 || in.ChunkOverlap >= in.ChunkSize {
		in.ChunkOverlap = a.cfg.ChunkOverlap
	}

	splitter := chunk.New(in.ChunkSize, in.ChunkOverlap, a.cfg.MinChunkChars)
	parts := splitter.Split(in.Text, in.FileType)
	chunks := make([]ChunkItem, 0, len(parts))
	for idx, part := range parts {
		text := util.SanitizeText(part.Text)
		if text == "" {
			continue
		}
		contentHash := util.SHA256Hex([]byte(text))
		chunkID := util.SHA256Hex([]byte(fmt.Sprintf("%s:%d:%s", in.DocumentID, idx, contentHash)))
		chunks = append(chunks, ChunkItem{
			ChunkID:    chunkID,
			DocumentID: in.DocumentID,
			UserID:     in.UserID,
			ChunkIndex: idx,
			Text:       text,
			WordCount:  part.WordCount,
			CharCount:  part.CharCount,
		})
	}
	return ChunkTextOutput{Chunks: chunks}, nil
}

func (a *Activities) EmbedChunksActivity(ctx context.Context, in EmbedChunksInput) (EmbedChunksOutput, error) {
	inputs := make([]string, 0, len(in.Input))
	for _, c := range in.Input {
		inputs = append(inputs, c.Text)
	}
	batch := a.cfg.EmbedBatchSize
	if batch <= 0 {
		batch = 64
	}
	provider, _ := a.providers.EmbedProviderByIndex(in.ProviderIndex)
	vectors := make([][]float32, 0, len(inputs))
	var info providers.ProviderInfo
	for start := 0; start < len(inputs); start += batch {
		end := start + batch
		if end > len(inputs) {
			end = len(inputs)
		}
		vs, i, err := providers.RetryEmbed(ctx, provider, providers.EmbedRequest{
			Operation: in.Operation,
			Inputs:    inputs[start:end],
			Dimension: a.cfg.EmbedDim,
		}, 30*time.Second)
		if err != nil {
			return EmbedChunksOutput{}, err
		}
		vectors = append(vectors, vs...)
		info = i
	}
	if len(vectors) != len(inputs) {
		return EmbedChunksOutput{}, fmt.Errorf("embedding count mismatch: %d inputs, %d vectors", len(inputs), len(vectors))
	}
	return EmbedChunksOutput{
		Vectors:      vectors,
		ProviderName: info.Name,
		Model:        info.Model,
	}, nil
}

func (a *Activities) UpsertChunksActivity(ctx context.Context, in UpsertChunksInput) error {
	records := make([]storage.ChunkRecord, 0, len(in.Chunks))
	for i, c := range in.Chunks {
		var embedding *string
		if i < len(in.Vectors) && len(in.Vectors[i]) > 0 {
			lit := vector.ToLiteral(in.Vectors[i])
			embedding = &lit
		}
		records = append(records, storage.ChunkRecord{
			ChunkID:    c.ChunkID,
			DocumentID: c.DocumentID,
			UserID:     c.UserID,
			ChunkIndex: c.ChunkIndex,
			Text:       c.Text,
			Metadata: map[string]int{
				"word_count": c.WordCount,
				"char_count": c.CharCount,
			},
			EmbeddingVector: embedding,
		})
	}
	return a.chunkRepo.InsertChunks(ctx, records)
}

func (a *Activities) MarkCompletedActivity(ctx context.Context, in MarkCompletedInput) error {
	return a.docRepo.MarkCompleted(ctx, in.DocumentID, in.ChunkCount)
}

func (a *Activities) MarkFailedActivity(ctx context.Context, in MarkFailedInput) error {
	return a.docRepo.MarkFailed(ctx, in.DocumentID, in.Message)
}
