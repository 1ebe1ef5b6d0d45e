package vector

import (
	"context"
	"fmt"
	"strings"

	"studyflow/internal/models"

	"github.com/jackc/pgx/v5"
)

type Searcher struct {
	q Queryer
}

type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func NewSearcher(q Queryer) *Searcher {
	return &Searcher{q: q}
}

// SearchChunks returns the topK chunks of one document ordered by ascending
// cosine distance to queryVec. Score is 1 - distance, so higher is closer.
func (s *Searcher) SearchChunks(ctx context.Context, documentID string, queryVec []float32, topK int) ([]models.ChunkResult, error) {
	if topK <= 0 {
		topK = 5
	}
	vecLiteral := ToLiteral(queryVec)

	query := `
SELECT c.chunk_id,
       c.document_id,
       c.chunk_index,
       c.chunk_text,
       LEFT(c.chunk_text, 200) AS snippet,
       1 - (c.embedding <=> $2::vector) AS score
FROM document_chunks c
WHERE c.document_id = $1
  AND c.embedding IS NOT NULL
ORDER BY c.embedding <=> $2::vector
LIMIT $3`

	rows, err := s.q.Query(ctx, query, documentID, vecLiteral, topK)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	results := make([]models.ChunkResult, 0, topK)
	for rows.Next() {
		var r models.ChunkResult
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.ChunkIndex, &r.Text, &r.Snippet, &r.Score); err != nil {
			return nil, fmt.Errorf("scan chunk result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, nil
}

func ToLiteral(v []float32) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		parts = append(parts, fmt.Sprintf("%f", x))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
