package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.MarkProcessingActivity)
	w.RegisterActivity(a.ExtractTextActivity)
	w.RegisterActivity(a.PrepareAudioActivity)
	w.RegisterActivity(a.TranscribeSegmentActivity)
	w.RegisterActivity(a.CleanupAudioActivity)
	w.RegisterActivity(a.ChunkTextActivity)
	w.RegisterActivity(a.EmbedChunksActivity)
	w.RegisterActivity(a.UpsertChunksActivity)
	w.RegisterActivity(a.MarkCompletedActivity)
	w.RegisterActivity(a.MarkFailedActivity)
}
