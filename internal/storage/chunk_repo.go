package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"studyflow/internal/models"
)

type ChunkRecord struct {
	ChunkID         string
	DocumentID      string
	UserID          string
	ChunkIndex      int
	Text            string
	Metadata        map[string]int
	EmbeddingVector *string
}

type ChunkRepo struct {
	db *DB
}

func NewChunkRepo(db *DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// InsertChunks writes a document's chunk batch in one transaction so a
// completed document never has a partial chunk set.
func (r *ChunkRepo) InsertChunks(ctx context.Context, chunks []ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx insert chunks: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, c := range chunks {
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshal chunk metadata %s: %w", c.ChunkID, err)
		}
		_, err = tx.Exec(ctx, `
INSERT INTO document_chunks (chunk_id, document_id, user_id, chunk_index, chunk_text, chunk_metadata, embedding)
VALUES ($1, $2, $3, $4, $5, $6::jsonb, CASE WHEN $7::text IS NULL THEN NULL ELSE $7::vector END)
ON CONFLICT (chunk_id)
DO UPDATE SET
  chunk_text = EXCLUDED.chunk_text,
  chunk_metadata = EXCLUDED.chunk_metadata,
  embedding = COALESCE(EXCLUDED.embedding, document_chunks.embedding)`,
			c.ChunkID, c.DocumentID, c.UserID, c.ChunkIndex, c.Text, meta, c.EmbeddingVector,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ChunkID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

func (r *ChunkRepo) ListChunksByDocument(ctx context.Context, documentID string) ([]models.Chunk, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT chunk_id, document_id, user_id, chunk_index, chunk_text, chunk_metadata, created_at
FROM document_chunks
WHERE document_id=$1
ORDER BY chunk_index ASC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list chunks by document: %w", err)
	}
	defer rows.Close()
	out := make([]models.Chunk, 0, 64)
	for rows.Next() {
		var c models.Chunk
		var meta []byte
		if err := rows.Scan(&c.ChunkID, &c.DocumentID, &c.UserID, &c.ChunkIndex, &c.Text, &meta, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk by document: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &c.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal chunk metadata %s: %w", c.ChunkID, err)
			}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk by document: %w", err)
	}
	return out, nil
}

// CountEmbeddedChunks counts persisted chunks that actually carry an
// embedding; completion finalizes chunk_count from this value.
func (r *ChunkRepo) CountEmbeddedChunks(ctx context.Context, documentID string) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM document_chunks WHERE document_id=$1 AND embedding IS NOT NULL`,
		documentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count embedded chunks: %w", err)
	}
	return n, nil
}
