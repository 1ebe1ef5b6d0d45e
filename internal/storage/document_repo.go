package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"studyflow/internal/models"
	"studyflow/internal/util"
)

type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) InsertDocument(ctx context.Context, d models.Document) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO documents (document_id, user_id, filename, file_type, status, file_size, storage_path, chunk_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, 0)`,
		d.DocumentID, d.UserID, d.Filename, d.FileType, d.Status, d.FileSize, d.StoragePath,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

const documentColumns = `
document_id, user_id, filename, file_type, status, file_size, storage_path,
chunk_count, COALESCE(error_message,''), created_at, processing_started_at, processed_at`

func scanDocument(row pgx.Row) (models.Document, error) {
	var d models.Document
	err := row.Scan(&d.DocumentID, &d.UserID, &d.Filename, &d.FileType, &d.Status, &d.FileSize,
		&d.StoragePath, &d.ChunkCount, &d.ErrorMessage, &d.CreatedAt, &d.ProcessingStartedAt, &d.ProcessedAt)
	return d, err
}

func (r *DocumentRepo) GetDocument(ctx context.Context, userID, documentID string) (models.Document, error) {
	d, err := scanDocument(r.db.Pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE user_id=$1 AND document_id=$2`,
		userID, documentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Document{}, util.ErrDocumentNotFound
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

// GetDocumentAny loads a document without user scoping; the worker uses it
// since workflow inputs already carry the verified owner.
func (r *DocumentRepo) GetDocumentAny(ctx context.Context, documentID string) (models.Document, error) {
	d, err := scanDocument(r.db.Pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE document_id=$1`, documentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Document{}, util.ErrDocumentNotFound
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

func (r *DocumentRepo) ListDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepo) FilenameExists(ctx context.Context, userID, filename string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE user_id=$1 AND filename=$2)`,
		userID, filename).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check filename: %w", err)
	}
	return exists, nil
}

// MarkProcessing claims a pending document. The status guard makes the claim
// atomic: a second caller sees claimed=false and must not run the pipeline.
func (r *DocumentRepo) MarkProcessing(ctx context.Context, documentID string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
UPDATE documents SET status=$2, processing_started_at=NOW()
WHERE document_id=$1 AND status=$3`,
		documentID, models.StatusProcessing, models.StatusPending)
	if err != nil {
		return false, fmt.Errorf("mark processing: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *DocumentRepo) MarkCompleted(ctx context.Context, documentID string, chunkCount int) error {
	tag, err := r.db.Pool.Exec(ctx, `
UPDATE documents SET status=$2, chunk_count=$3, error_message=NULL, processed_at=NOW()
WHERE document_id=$1 AND status=$4`,
		documentID, models.StatusCompleted, chunkCount, models.StatusProcessing)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark completed %s: document not in processing", documentID)
	}
	return nil
}

// MarkFailed records the failure cause. Terminal rows are left untouched.
func (r *DocumentRepo) MarkFailed(ctx context.Context, documentID, message string) error {
	_, err := r.db.Pool.Exec(ctx, `
UPDATE documents SET status=$2, error_message=$3, processed_at=NOW()
WHERE document_id=$1 AND status IN ($4, $5)`,
		documentID, models.StatusFailed, message, models.StatusPending, models.StatusProcessing)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// DeleteDocument removes the row; chunks go with it via the FK cascade.
// Returns false when no row matched.
func (r *DocumentRepo) DeleteDocument(ctx context.Context, userID, documentID string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM documents WHERE user_id=$1 AND document_id=$2`, userID, documentID)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CountByTypeAndStatus feeds the queue wait estimates.
func (r *DocumentRepo) CountByTypeAndStatus(ctx context.Context, fileType, status string) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE file_type=$1 AND status=$2`,
		fileType, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}
