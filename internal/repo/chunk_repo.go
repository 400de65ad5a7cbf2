package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/repowhisper/internal/model"
)

// ChunkRepo stores embedded code chunks. Every query carries the user id so
// one tenant can never see another tenant's rows.
type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Upsert writes a batch of chunks, overwriting rows whose chunk id already
// exists. Chunk ids are content-addressed, so re-indexing is idempotent.
func (r *ChunkRepo) Upsert(ctx context.Context, chunks []model.CodeChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO code_chunks (chunk_id, user_id, repo_id, file_path, start_line, end_line, content, content_hash, embedding, indexed_at) VALUES ")
	args := make([]interface{}, 0, len(chunks)*10)
	for i, c := range chunks {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 10
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10)
		args = append(args,
			c.ChunkID, c.UserID, c.RepoID, c.FilePath, c.StartLine, c.EndLine,
			c.Content, c.ContentHash, pgvector.NewVector(c.Embedding), c.IndexedAt)
	}
	sb.WriteString(` ON CONFLICT (chunk_id) DO UPDATE SET
		content = EXCLUDED.content,
		content_hash = EXCLUDED.content_hash,
		embedding = EXCLUDED.embedding,
		indexed_at = EXCLUDED.indexed_at`)
	_, err := r.db.ExecContext(ctx, sb.String(), args...)
	return err
}

// SearchNearest returns up to limit chunks ordered by cosine distance to the
// query embedding, each paired with its distance. Filtering by repo id is
// optional.
func (r *ChunkRepo) SearchNearest(ctx context.Context, userID, repoID string, embedding []float32, limit int) ([]model.CodeChunk, []float32, error) {
	const queryAll = "SELECT " +
		"chunk_id, user_id, repo_id, file_path, start_line, end_line, content, content_hash, indexed_at, " +
		"embedding <=> $2 AS distance FROM code_chunks WHERE user_id = $1 " +
		"ORDER BY distance ASC LIMIT $3"
	const queryByRepo = "SELECT " +
		"chunk_id, user_id, repo_id, file_path, start_line, end_line, content, content_hash, indexed_at, " +
		"embedding <=> $3 AS distance FROM code_chunks WHERE user_id = $1 AND repo_id = $2 " +
		"ORDER BY distance ASC LIMIT $4"

	query := queryAll
	args := []interface{}{userID, pgvector.NewVector(embedding), limit}
	if repoID != "" {
		query = queryByRepo
		args = []interface{}{userID, repoID, pgvector.NewVector(embedding), limit}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var chunks []model.CodeChunk
	var distances []float32
	for rows.Next() {
		var c model.CodeChunk
		var distance float64
		if err := rows.Scan(&c.ChunkID, &c.UserID, &c.RepoID, &c.FilePath,
			&c.StartLine, &c.EndLine, &c.Content, &c.ContentHash, &c.IndexedAt, &distance); err != nil {
			return nil, nil, err
		}
		chunks = append(chunks, c)
		distances = append(distances, float32(distance))
	}
	return chunks, distances, rows.Err()
}

// DeleteStale removes chunks of a repo that were not touched by the given
// indexing pass.
func (r *ChunkRepo) DeleteStale(ctx context.Context, userID, repoID string, indexedBefore int64) (int64, error) {
	const query = "DELETE FROM code_chunks WHERE user_id = $1 AND repo_id = $2 AND indexed_at < $3"
	res, err := r.db.ExecContext(ctx, query, userID, repoID, indexedBefore)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteOrphans removes chunks whose owning repo row no longer exists.
// Search already filters them out, so this only reclaims space.
func (r *ChunkRepo) DeleteOrphans(ctx context.Context) (int64, error) {
	const query = `DELETE FROM code_chunks c
		WHERE NOT EXISTS (SELECT 1 FROM repositories r WHERE r.id = c.repo_id)`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountByRepo returns the number of stored chunks for the repo.
func (r *ChunkRepo) CountByRepo(ctx context.Context, userID, repoID string) (int64, error) {
	const query = "SELECT COUNT(1) FROM code_chunks WHERE user_id = $1 AND repo_id = $2"
	var count int64
	if err := r.db.QueryRowContext(ctx, query, userID, repoID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
