package api

import (
	"context"
	"fmt"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"

	"studyflow/internal/config"
	"studyflow/internal/models"
	"studyflow/internal/workflows"
)

// TemporalStarter launches and queries document processing workflows.
// PDFs and media run on separate task queues so transcription cannot
// starve PDF throughput.
type TemporalStarter struct {
	client         tclient.Client
	cfg            config.Config
	embedProviders int
}

func NewTemporalStarter(client tclient.Client, cfg config.Config, embedProviders int) *TemporalStarter {
	if embedProviders <= 0 {
		embedProviders = 1
	}
	return &TemporalStarter{client: client, cfg: cfg, embedProviders: embedProviders}
}

func documentWorkflowID(documentID string) string {
	return "doc-process-" + documentID
}

func (t *TemporalStarter) StartDocumentProcessing(ctx context.Context, doc models.Document) (string, error) {
	taskQueue := t.cfg.PDFTaskQueue
	if doc.FileType == models.FileTypeVideo {
		taskQueue = t.cfg.MediaTaskQueue
	}
	timeout := time.Duration(t.cfg.ProcessTimeoutMin) * time.Minute
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	// The workflow enforces the deadline itself and records the failure on
	// the document row; the execution timeout is a wider backstop so that
	// write still happens before the server gives up on the run.
	we, err := t.client.ExecuteWorkflow(ctx, tclient.StartWorkflowOptions{
		ID:                                       documentWorkflowID(doc.DocumentID),
		TaskQueue:                                taskQueue,
		WorkflowExecutionTimeout:                 timeout + 10*time.Minute,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.DocumentProcessWorkflow, workflows.DocumentProcessInput{
		DocumentID:            doc.DocumentID,
		UserID:                doc.UserID,
		Filename:              doc.Filename,
		FileType:              doc.FileType,
		StoragePath:           doc.StoragePath,
		ChunkSize:             t.cfg.ChunkSize,
		ChunkOverlap:          t.cfg.ChunkOverlap,
		EmbedProviders:        t.embedProviders,
		CooldownSeconds:       t.cfg.CooldownSecs,
		ProcessTimeoutMinutes: t.cfg.ProcessTimeoutMin,
	})
	if err != nil {
		return "", fmt.Errorf("start document workflow: %w", err)
	}
	return we.GetID(), nil
}

func (t *TemporalStarter) DocumentProgress(ctx context.Context, documentID string) (workflows.DocumentStatus, error) {
	resp, err := t.client.QueryWorkflow(ctx, documentWorkflowID(documentID), "", workflows.QueryGetDocumentStatus)
	if err != nil {
		return workflows.DocumentStatus{}, err
	}
	var st workflows.DocumentStatus
	if err := resp.Get(&st); err != nil {
		return workflows.DocumentStatus{}, err
	}
	return st, nil
}
