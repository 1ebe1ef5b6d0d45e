package workflows

import (
	"context"
	"errors"
	"strings"
	"testing"

	"studyflow/internal/activities"
	"studyflow/internal/extract"
	"studyflow/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func registerPipelineActivities(env *testsuite.TestWorkflowEnvironment) {
	registerActivityName(env, "MarkProcessingActivity", func(context.Context, activities.MarkProcessingInput) (activities.MarkProcessingOutput, error) {
		return activities.MarkProcessingOutput{}, nil
	})
	registerActivityName(env, "ExtractTextActivity", func(context.Context, activities.ExtractTextInput) (activities.ExtractTextOutput, error) {
		return activities.ExtractTextOutput{}, nil
	})
	registerActivityName(env, "PrepareAudioActivity", func(context.Context, activities.PrepareAudioInput) (activities.PrepareAudioOutput, error) {
		return activities.PrepareAudioOutput{}, nil
	})
	registerActivityName(env, "TranscribeSegmentActivity", func(context.Context, activities.TranscribeSegmentInput) (activities.TranscribeSegmentOutput, error) {
		return activities.TranscribeSegmentOutput{}, nil
	})
	registerActivityName(env, "CleanupAudioActivity", func(context.Context, activities.CleanupAudioInput) error { return nil })
	registerActivityName(env, "ChunkTextActivity", func(context.Context, activities.ChunkTextInput) (activities.ChunkTextOutput, error) {
		return activities.ChunkTextOutput{}, nil
	})
	registerActivityName(env, "EmbedChunksActivity", func(context.Context, activities.EmbedChunksInput) (activities.EmbedChunksOutput, error) {
		return activities.EmbedChunksOutput{}, nil
	})
	registerActivityName(env, "UpsertChunksActivity", func(context.Context, activities.UpsertChunksInput) error { return nil })
	registerActivityName(env, "MarkCompletedActivity", func(context.Context, activities.MarkCompletedInput) error { return nil })
	registerActivityName(env, "MarkFailedActivity", func(context.Context, activities.MarkFailedInput) error { return nil })
}

func testChunks() []activities.ChunkItem {
	return []activities.ChunkItem{
		{ChunkID: "c1", DocumentID: "doc1", UserID: "local", ChunkIndex: 0, Text: "first chunk"},
		{ChunkID: "c2", DocumentID: "doc1", UserID: "local", ChunkIndex: 1, Text: "second chunk"},
	}
}

func TestDocumentProcessWorkflowSuccess(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentProcessWorkflow)
	registerPipelineActivities(env)

	env.OnActivity("MarkProcessingActivity", mock.Anything, activities.MarkProcessingInput{DocumentID: "doc1"}).Return(activities.MarkProcessingOutput{Claimed: true}, nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, activities.ExtractTextInput{DocumentID: "doc1", StoragePath: "/tmp/d.pdf", FileType: models.FileTypePDF}).Return(activities.ExtractTextOutput{Text: "body of the document"}, nil)
	env.OnActivity("ChunkTextActivity", mock.Anything, mock.Anything).Return(activities.ChunkTextOutput{Chunks: testChunks()}, nil)
	env.OnActivity("EmbedChunksActivity", mock.Anything, mock.Anything).Return(activities.EmbedChunksOutput{Vectors: [][]float32{{0.1}, {0.2}}, ProviderName: "mock", Model: "mock-embed"}, nil)
	env.OnActivity("UpsertChunksActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("MarkCompletedActivity", mock.Anything, activities.MarkCompletedInput{DocumentID: "doc1", ChunkCount: 2}).Return(nil)

	env.ExecuteWorkflow(DocumentProcessWorkflow, DocumentProcessInput{
		DocumentID:  "doc1",
		UserID:      "local",
		Filename:    "d.pdf",
		FileType:    models.FileTypePDF,
		StoragePath: "/tmp/d.pdf",
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, models.StatusCompleted, out)

	qv, err := env.QueryWorkflow(QueryGetDocumentStatus)
	require.NoError(t, err)
	var st DocumentStatus
	require.NoError(t, qv.Get(&st))
	require.Equal(t, models.StatusCompleted, st.Status)
	require.Equal(t, 100, st.Percent)
	require.Equal(t, 2, st.ChunkCount)
	require.Contains(t, st.Providers, "mock")
	require.Equal(t, "done", st.Steps[StepEmbed])
}

func TestDocumentProcessWorkflowNoTextFailsGracefully(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentProcessWorkflow)
	registerPipelineActivities(env)

	env.OnActivity("MarkProcessingActivity", mock.Anything, mock.Anything).Return(activities.MarkProcessingOutput{Claimed: true}, nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, mock.Anything).Return(activities.ExtractTextOutput{}, errors.New("no extractable text found in document"))
	env.OnActivity("MarkFailedActivity", mock.Anything, mock.MatchedBy(func(in activities.MarkFailedInput) bool {
		return in.DocumentID == "doc1" && strings.Contains(in.Message, "no extractable text")
	})).Return(nil)

	env.ExecuteWorkflow(DocumentProcessWorkflow, DocumentProcessInput{
		DocumentID:  "doc1",
		UserID:      "local",
		Filename:    "d.pdf",
		FileType:    models.FileTypePDF,
		StoragePath: "/tmp/d.pdf",
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, models.StatusFailed, out)
	env.AssertNotCalled(t, "ChunkTextActivity", mock.Anything, mock.Anything)
}

func TestDocumentProcessWorkflowSkipsWhenNotClaimed(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentProcessWorkflow)
	registerPipelineActivities(env)

	env.OnActivity("MarkProcessingActivity", mock.Anything, mock.Anything).Return(activities.MarkProcessingOutput{Claimed: false}, nil)

	env.ExecuteWorkflow(DocumentProcessWorkflow, DocumentProcessInput{
		DocumentID: "doc1",
		FileType:   models.FileTypePDF,
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "skipped", out)
	env.AssertNotCalled(t, "ExtractTextActivity", mock.Anything, mock.Anything)
}

func TestDocumentProcessWorkflowZeroChunksFails(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentProcessWorkflow)
	registerPipelineActivities(env)

	env.OnActivity("MarkProcessingActivity", mock.Anything, mock.Anything).Return(activities.MarkProcessingOutput{Claimed: true}, nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, mock.Anything).Return(activities.ExtractTextOutput{Text: "tiny"}, nil)
	env.OnActivity("ChunkTextActivity", mock.Anything, mock.Anything).Return(activities.ChunkTextOutput{}, nil)
	env.OnActivity("MarkFailedActivity", mock.Anything, mock.MatchedBy(func(in activities.MarkFailedInput) bool {
		return strings.Contains(in.Message, "no usable text chunks")
	})).Return(nil)

	env.ExecuteWorkflow(DocumentProcessWorkflow, DocumentProcessInput{
		DocumentID: "doc1",
		FileType:   models.FileTypePDF,
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, models.StatusFailed, out)
	env.AssertNotCalled(t, "EmbedChunksActivity", mock.Anything, mock.Anything)
}

func TestDocumentProcessWorkflowVideoTranscribesSegments(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentProcessWorkflow)
	registerPipelineActivities(env)

	env.OnActivity("MarkProcessingActivity", mock.Anything, mock.Anything).Return(activities.MarkProcessingOutput{Claimed: true}, nil)
	env.OnActivity("PrepareAudioActivity", mock.Anything, activities.PrepareAudioInput{DocumentID: "doc1", StoragePath: "/tmp/lecture.mp4"}).Return(activities.PrepareAudioOutput{
		WorkDir:         "/tmp/studyflow-audio-test",
		AudioPath:       "/tmp/studyflow-audio-test/audio.wav",
		DurationSeconds: 150,
		SegmentStarts:   []float64{0, 60, 120},
		SegmentSeconds:  60,
	}, nil)
	env.OnActivity("TranscribeSegmentActivity", mock.Anything, mock.MatchedBy(func(in activities.TranscribeSegmentInput) bool {
		return in.Index == 0
	})).Return(activities.TranscribeSegmentOutput{Text: "first segment speech"}, nil)
	// The middle segment keeps failing; the workflow skips it.
	env.OnActivity("TranscribeSegmentActivity", mock.Anything, mock.MatchedBy(func(in activities.TranscribeSegmentInput) bool {
		return in.Index == 1
	})).Return(activities.TranscribeSegmentOutput{}, errors.New("whisper unavailable"))
	env.OnActivity("TranscribeSegmentActivity", mock.Anything, mock.MatchedBy(func(in activities.TranscribeSegmentInput) bool {
		return in.Index == 2
	})).Return(activities.TranscribeSegmentOutput{Text: "third segment speech"}, nil)
	env.OnActivity("CleanupAudioActivity", mock.Anything, activities.CleanupAudioInput{WorkDir: "/tmp/studyflow-audio-test"}).Return(nil)
	env.OnActivity("ChunkTextActivity", mock.Anything, mock.MatchedBy(func(in activities.ChunkTextInput) bool {
		return in.Text == "first segment speech third segment speech"
	})).Return(activities.ChunkTextOutput{Chunks: testChunks()}, nil)
	env.OnActivity("EmbedChunksActivity", mock.Anything, mock.Anything).Return(activities.EmbedChunksOutput{Vectors: [][]float32{{0.1}, {0.2}}, ProviderName: "mock", Model: "mock-embed"}, nil)
	env.OnActivity("UpsertChunksActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("MarkCompletedActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(DocumentProcessWorkflow, DocumentProcessInput{
		DocumentID:  "doc1",
		UserID:      "local",
		Filename:    "lecture.mp4",
		FileType:    models.FileTypeVideo,
		StoragePath: "/tmp/lecture.mp4",
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, models.StatusCompleted, out)
	env.AssertNotCalled(t, "ExtractTextActivity", mock.Anything, mock.Anything)

	qv, err := env.QueryWorkflow(QueryGetDocumentStatus)
	require.NoError(t, err)
	var st DocumentStatus
	require.NoError(t, qv.Get(&st))
	require.Equal(t, 3, st.TotalSegments)
	require.Equal(t, 3, st.ProcessedSegments)
	require.Equal(t, 1, st.SkippedSegments)
}

func TestDocumentProcessWorkflowVideoNoSpeechUsesFallback(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentProcessWorkflow)
	registerPipelineActivities(env)

	env.OnActivity("MarkProcessingActivity", mock.Anything, mock.Anything).Return(activities.MarkProcessingOutput{Claimed: true}, nil)
	env.OnActivity("PrepareAudioActivity", mock.Anything, mock.Anything).Return(activities.PrepareAudioOutput{
		WorkDir:        "/tmp/studyflow-audio-test",
		AudioPath:      "/tmp/studyflow-audio-test/audio.wav",
		SegmentStarts:  []float64{0, 60},
		SegmentSeconds: 60,
	}, nil)
	env.OnActivity("TranscribeSegmentActivity", mock.Anything, mock.Anything).Return(activities.TranscribeSegmentOutput{}, nil)
	env.OnActivity("CleanupAudioActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("ChunkTextActivity", mock.Anything, mock.MatchedBy(func(in activities.ChunkTextInput) bool {
		return in.Text == extract.FallbackTranscript
	})).Return(activities.ChunkTextOutput{Chunks: testChunks()[:1]}, nil)
	env.OnActivity("EmbedChunksActivity", mock.Anything, mock.Anything).Return(activities.EmbedChunksOutput{Vectors: [][]float32{{0.1}}, ProviderName: "mock", Model: "mock-embed"}, nil)
	env.OnActivity("UpsertChunksActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("MarkCompletedActivity", mock.Anything, activities.MarkCompletedInput{DocumentID: "doc1", ChunkCount: 1}).Return(nil)

	env.ExecuteWorkflow(DocumentProcessWorkflow, DocumentProcessInput{
		DocumentID:  "doc1",
		UserID:      "local",
		Filename:    "silent.mp4",
		FileType:    models.FileTypeVideo,
		StoragePath: "/tmp/silent.mp4",
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, models.StatusCompleted, out)
}

func TestDocumentProcessWorkflowEmbedFailsOverToSecondProvider(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentProcessWorkflow)
	registerPipelineActivities(env)

	env.OnActivity("MarkProcessingActivity", mock.Anything, mock.Anything).Return(activities.MarkProcessingOutput{Claimed: true}, nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, mock.Anything).Return(activities.ExtractTextOutput{Text: "body of the document"}, nil)
	env.OnActivity("ChunkTextActivity", mock.Anything, mock.Anything).Return(activities.ChunkTextOutput{Chunks: testChunks()}, nil)
	env.OnActivity("EmbedChunksActivity", mock.Anything, mock.MatchedBy(func(in activities.EmbedChunksInput) bool {
		return in.ProviderIndex == 0
	})).Return(activities.EmbedChunksOutput{}, errors.New("invalid model requested"))
	env.OnActivity("EmbedChunksActivity", mock.Anything, mock.MatchedBy(func(in activities.EmbedChunksInput) bool {
		return in.ProviderIndex == 1
	})).Return(activities.EmbedChunksOutput{Vectors: [][]float32{{0.1}, {0.2}}, ProviderName: "ollama", Model: "all-minilm"}, nil)
	env.OnActivity("UpsertChunksActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("MarkCompletedActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(DocumentProcessWorkflow, DocumentProcessInput{
		DocumentID:     "doc1",
		UserID:         "local",
		Filename:       "d.pdf",
		FileType:       models.FileTypePDF,
		StoragePath:    "/tmp/d.pdf",
		EmbedProviders: 2,
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, models.StatusCompleted, out)

	qv, err := env.QueryWorkflow(QueryGetDocumentStatus)
	require.NoError(t, err)
	var st DocumentStatus
	require.NoError(t, qv.Get(&st))
	require.Contains(t, st.Providers, "ollama")
}
