package model

// CodeChunk is one embeddable span of a source file. The chunk id is derived
// from (repo_id, file_path, start_line, end_line), so re-indexing the same
// range overwrites instead of duplicating.
type CodeChunk struct {
	ChunkID     string    `json:"chunk_id"`
	UserID      string    `json:"user_id"`
	RepoID      string    `json:"repo_id"`
	FilePath    string    `json:"file_path"`
	StartLine   int       `json:"start_line"`
	EndLine     int       `json:"end_line"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
	Embedding   []float32 `json:"-"`
	IndexedAt   int64     `json:"indexed_at"`
}

type ScoredChunk struct {
	Chunk CodeChunk `json:"chunk"`
	Score float32   `json:"score"`
}
