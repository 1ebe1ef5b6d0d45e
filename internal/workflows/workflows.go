package workflows

import (
	"fmt"
	"strings"
	"time"

	"studyflow/internal/activities"
	"studyflow/internal/extract"
	"studyflow/internal/models"
	"studyflow/internal/providers"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	QueryGetDocumentStatus = "GetDocumentStatus"

	StepClaim    = "claim"
	StepExtract  = "extract_text"
	StepChunk    = "chunk_text"
	StepEmbed    = "embed_chunks"
	StepUpsert   = "upsert_chunks"
	StepComplete = "mark_completed"
)

type providerState struct {
	disabledUntil map[int]time.Time
}

func newProviderState() providerState {
	return providerState{disabledUntil: map[int]time.Time{}}
}

var defaultRetryPolicy = &temporal.RetryPolicy{
	InitialInterval:    2 * time.Second,
	BackoffCoefficient: 2,
	MaximumInterval:    20 * time.Second,
	MaximumAttempts:    2,
}

// DocumentProcessWorkflow runs the ingestion pipeline for one uploaded
// document: claim, extract text, chunk, embed, upsert, mark completed.
// Pipeline failures are written back to the documents table and the
// workflow finishes cleanly with "failed" so status polling stays accurate.
// A per-run deadline (ProcessTimeoutMinutes) bounds the pipeline between
// steps; overruns fail the document the same way.
func DocumentProcessWorkflow(ctx workflow.Context, input DocumentProcessInput) (string, error) {
	status := DocumentStatus{
		DocumentID:  input.DocumentID,
		Filename:    input.Filename,
		FileType:    input.FileType,
		CurrentStep: "init",
		Status:      models.StatusProcessing,
		RetryCounts: map[string]int{},
		Steps:       map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetDocumentStatus, func() (DocumentStatus, error) {
		return status, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy:         defaultRetryPolicy,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	cooldown := durationOrDefault(input.CooldownSeconds, 900)
	timeout := time.Duration(input.ProcessTimeoutMinutes) * time.Minute
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	deadline := workflow.Now(ctx).Add(timeout)
	providerCount := input.EmbedProviders
	if providerCount <= 0 {
		providerCount = 1
	}
	state := newProviderState()

	status.CurrentStep = StepClaim
	status.Steps[status.CurrentStep] = "processing"
	var claimOut activities.MarkProcessingOutput
	if err := workflow.ExecuteActivity(ctx, "MarkProcessingActivity", activities.MarkProcessingInput{DocumentID: input.DocumentID}).Get(ctx, &claimOut); err != nil {
		return "", err
	}
	if !claimOut.Claimed {
		// Another run already owns this document.
		status.Steps[status.CurrentStep] = "skipped"
		status.Status = "skipped"
		return status.Status, nil
	}
	status.Steps[status.CurrentStep] = "done"
	status.Percent = 5

	status.CurrentStep = StepExtract
	status.Steps[status.CurrentStep] = "processing"
	var text string
	if input.FileType == models.FileTypeVideo {
		transcript, err := transcribeVideo(ctx, &status, input)
		if err != nil {
			return failDocument(ctx, &status, "text extraction failed: "+err.Error())
		}
		text = transcript
	} else {
		var textOut activities.ExtractTextOutput
		if err := workflow.ExecuteActivity(ctx, "ExtractTextActivity", activities.ExtractTextInput{
			DocumentID:  input.DocumentID,
			StoragePath: input.StoragePath,
			FileType:    input.FileType,
		}).Get(ctx, &textOut); err != nil {
			reason := "text extraction failed: " + err.Error()
			if isNoTextError(err) {
				reason = "no extractable text found in document"
			}
			return failDocument(ctx, &status, reason)
		}
		text = textOut.Text
	}
	status.Steps[status.CurrentStep] = "done"
	status.Percent = 40

	status.CurrentStep = StepChunk
	status.Steps[status.CurrentStep] = "processing"
	if workflow.Now(ctx).After(deadline) {
		return failDocument(ctx, &status, fmt.Sprintf("processing timed out after %s", timeout))
	}
	var chunkOut activities.ChunkTextOutput
	if err := workflow.ExecuteActivity(ctx, "ChunkTextActivity", activities.ChunkTextInput{
		DocumentID:   input.DocumentID,
		UserID:       input.UserID,
		FileType:     input.FileType,
		Text:         text,
		ChunkSize:    input.ChunkSize,
		ChunkOverlap: input.ChunkOverlap,
	}).Get(ctx, &chunkOut); err != nil {
		return failDocument(ctx, &status, "chunking failed: "+err.Error())
	}
	if len(chunkOut.Chunks) == 0 {
		return failDocument(ctx, &status, "document produced no usable text chunks")
	}
	status.Steps[status.CurrentStep] = "done"
	status.Percent = 55
	status.ChunkCount = len(chunkOut.Chunks)

	status.CurrentStep = StepEmbed
	status.Steps[status.CurrentStep] = "processing"
	embedOut, err := callEmbedWithFailover(ctx, &state, providerCount, cooldown, activities.EmbedChunksInput{
		Operation:  "document_embed",
		DocumentID: input.DocumentID,
		Input:      chunkOut.Chunks,
	}, status.RetryCounts)
	if err != nil {
		return failDocument(ctx, &status, "embedding failed: "+err.Error())
	}
	status.Providers = append(status.Providers, embedOut.ProviderName)
	status.Steps[status.CurrentStep] = "done"
	status.Percent = 80

	status.CurrentStep = StepUpsert
	status.Steps[status.CurrentStep] = "processing"
	if workflow.Now(ctx).After(deadline) {
		return failDocument(ctx, &status, fmt.Sprintf("processing timed out after %s", timeout))
	}
	if err := workflow.ExecuteActivity(ctx, "UpsertChunksActivity", activities.UpsertChunksInput{
		Chunks:  chunkOut.Chunks,
		Vectors: embedOut.Vectors,
	}).Get(ctx, nil); err != nil {
		return failDocument(ctx, &status, "chunk persistence failed: "+err.Error())
	}
	status.Steps[status.CurrentStep] = "done"
	status.Percent = 95

	status.CurrentStep = StepComplete
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "MarkCompletedActivity", activities.MarkCompletedInput{
		DocumentID: input.DocumentID,
		ChunkCount: len(chunkOut.Chunks),
	}).Get(ctx, nil); err != nil {
		return failDocument(ctx, &status, "completion update failed: "+err.Error())
	}
	status.Steps[status.CurrentStep] = "done"
	status.CurrentStep = "done"
	status.Status = models.StatusCompleted
	status.Percent = 100
	return status.Status, nil
}

// transcribeVideo runs the segmented speech pipeline: one activity prepares
// the audio track, then every segment is transcribed in order so status
// queries see per-segment progress while long videos process. A segment
// that still fails after its activity retries is skipped; the remaining
// audio produces the transcript.
func transcribeVideo(ctx workflow.Context, status *DocumentStatus, input DocumentProcessInput) (string, error) {
	vctx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy:         defaultRetryPolicy,
	})

	var prep activities.PrepareAudioOutput
	if err := workflow.ExecuteActivity(vctx, "PrepareAudioActivity", activities.PrepareAudioInput{
		DocumentID:  input.DocumentID,
		StoragePath: input.StoragePath,
	}).Get(vctx, &prep); err != nil {
		return "", err
	}

	total := len(prep.SegmentStarts)
	status.TotalSegments = total
	started := workflow.Now(ctx)
	parts := make([]string, 0, total)
	for i, start := range prep.SegmentStarts {
		var seg activities.TranscribeSegmentOutput
		err := workflow.ExecuteActivity(vctx, "TranscribeSegmentActivity", activities.TranscribeSegmentInput{
			DocumentID:   input.DocumentID,
			AudioPath:    prep.AudioPath,
			StartSeconds: start,
			Index:        i,
		}).Get(vctx, &seg)
		if err != nil {
			status.SkippedSegments++
		} else if seg.Text != "" {
			parts = append(parts, seg.Text)
		}
		done := i + 1
		status.ProcessedSegments = done
		status.Percent = 5 + 35*done/total
		elapsed := workflow.Now(ctx).Sub(started)
		status.RemainingSeconds = int((elapsed / time.Duration(done) * time.Duration(total-done)).Seconds())
	}
	status.RemainingSeconds = 0

	// Best effort; leftover temp audio is not worth failing the document.
	_ = workflow.ExecuteActivity(vctx, "CleanupAudioActivity", activities.CleanupAudioInput{
		WorkDir: prep.WorkDir,
	}).Get(vctx, nil)

	return extract.AssembleTranscript(parts), nil
}

// failDocument records the failure on the document row and finishes the
// workflow with a clean "failed" result so pollers see the terminal state.
func failDocument(ctx workflow.Context, status *DocumentStatus, reason string) (string, error) {
	status.Status = models.StatusFailed
	status.FailReason = reason
	status.Steps[status.CurrentStep] = "failed"
	if err := workflow.ExecuteActivity(ctx, "MarkFailedActivity", activities.MarkFailedInput{
		DocumentID: status.DocumentID,
		Message:    reason,
	}).Get(ctx, nil); err != nil {
		return "", err
	}
	return status.Status, nil
}

func callEmbedWithFailover(ctx workflow.Context, state *providerState, providerCount int, cooldown time.Duration, input activities.EmbedChunksInput, retryCounts map[string]int) (activities.EmbedChunksOutput, error) {
	if retryCounts == nil {
		retryCounts = map[string]int{}
	}
	var lastErr error
	maxAttempts := providerCount * 4
	if maxAttempts <= 0 {
		maxAttempts = 4
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		idx := attempt % providerCount
		if isProviderDisabled(ctx, state, idx) {
			continue
		}
		input.ProviderIndex = idx
		var out activities.EmbedChunksOutput
		err := workflow.ExecuteActivity(ctx, "EmbedChunksActivity", input).Get(ctx, &out)
		if err == nil {
			return out, nil
		}
		lastErr = err
		errType := providers.ClassifyError(err)
		key := fmt.Sprintf("embed-%d", idx)
		retryCounts[key]++
		switch errType {
		case providers.ErrorQuota:
			disableProviderUntil(ctx, state, idx, cooldown)
		case providers.ErrorRate:
			if retryCounts[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(retryCounts[key]*2)*time.Second)
				attempt--
			} else {
				disableProviderUntil(ctx, state, idx, 2*time.Minute)
			}
		case providers.ErrorTransient:
			if retryCounts[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(retryCounts[key])*time.Second)
				attempt--
			}
		default:
			disableProviderUntil(ctx, state, idx, time.Minute)
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("all embed providers exhausted")
	}
	return activities.EmbedChunksOutput{}, lastErr
}

func isProviderDisabled(ctx workflow.Context, state *providerState, idx int) bool {
	until, ok := state.disabledUntil[idx]
	if !ok {
		return false
	}
	return workflow.Now(ctx).Before(until)
}

func disableProviderUntil(ctx workflow.Context, state *providerState, idx int, d time.Duration) {
	state.disabledUntil[idx] = workflow.Now(ctx).Add(d)
}

func isNoTextError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no extractable text")
}

func durationOrDefault(seconds int, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
