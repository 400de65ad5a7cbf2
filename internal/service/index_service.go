package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/repowhisper/internal/ai"
	"github.com/xxxsen/repowhisper/internal/chunker"
	"github.com/xxxsen/repowhisper/internal/config"
	"github.com/xxxsen/repowhisper/internal/model"
	"github.com/xxxsen/repowhisper/internal/pathguard"
	"github.com/xxxsen/repowhisper/internal/pkg/errors"
)

// Directories that never contain indexable user code.
var skipDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"venv":         {},
	".venv":        {},
	"__pycache__":  {},
	"build":        {},
	"dist":         {},
	".next":        {},
	"Pods":         {},
	".build":       {},
	"DerivedData":  {},
	"target":       {},
	"vendor":       {},
}

type IndexRequest struct {
	RootPath string
	Mode     model.IndexMode
	// Files lists repo-relative paths for manual mode.
	Files []string
	// Include and Exclude hold doublestar globs for guided mode, matched
	// against repo-relative paths.
	Include []string
	Exclude []string
}

type FileFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

type IndexResult struct {
	RepoID        string        `json:"repo_id"`
	FilesIndexed  int           `json:"files_indexed"`
	ChunksIndexed int           `json:"chunks_indexed"`
	Failures      []FileFailure `json:"failures,omitempty"`
	DurationMS    int64         `json:"duration_ms"`
}

// IndexService walks a sandboxed repository, chunks eligible files, embeds
// each chunk and upserts the result. A single bad file is recorded as a
// failure and never aborts the pass.
type IndexService struct {
	repos    RepositoryStore
	chunks   ChunkStore
	embedder ai.IEmbedder
	guard    *pathguard.Validator
	splitter *chunker.Chunker
	cfg      config.IndexConfig
	embedDim int
	exts     map[string]struct{}
	now      func() time.Time
}

func NewIndexService(repos RepositoryStore, chunks ChunkStore, embedder ai.IEmbedder, guard *pathguard.Validator, cfg config.IndexConfig, embedDim int) *IndexService {
	exts := make(map[string]struct{}, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}
	return &IndexService{
		repos:    repos,
		chunks:   chunks,
		embedder: embedder,
		guard:    guard,
		splitter: chunker.New(chunker.Options{MaxChars: cfg.MaxChunkChars, OverlapLines: cfg.OverlapLines}),
		cfg:      cfg,
		embedDim: embedDim,
		exts:     exts,
		now:      time.Now,
	}
}

func (s *IndexService) Index(ctx context.Context, userID string, req *IndexRequest) (*IndexResult, error) {
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("%w: unknown index mode: %s", errors.ErrInvalid, req.Mode)
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("embedding model not configured")
	}
	root, err := s.guard.Validate(req.RootPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: root path is not a directory", errors.ErrInvalid)
	}

	repository, err := s.repos.CreateOrGet(ctx, userID, root, req.Mode)
	if err != nil {
		return nil, err
	}

	start := s.now()
	files, failures, err := s.collectFiles(root, req)
	if err != nil {
		return nil, err
	}

	result := &IndexResult{RepoID: repository.ID, Failures: failures}
	indexedAt := start.UnixMilli()
	for _, rel := range files {
		count, err := s.indexFile(ctx, userID, repository.ID, root, rel, indexedAt)
		if err != nil {
			result.Failures = append(result.Failures, FileFailure{Path: rel, Reason: err.Error()})
			logutil.GetLogger(ctx).Warn("index file failed",
				zap.String("repo_id", repository.ID), zap.String("file", rel), zap.Error(err))
			continue
		}
		result.FilesIndexed++
		result.ChunksIndexed += count
	}

	// A full pass saw every eligible file, so anything untouched was removed
	// from the working tree.
	if req.Mode == model.IndexModeFull {
		if _, err := s.chunks.DeleteStale(ctx, userID, repository.ID, indexedAt); err != nil {
			logutil.GetLogger(ctx).Warn("prune stale chunks failed",
				zap.String("repo_id", repository.ID), zap.Error(err))
		}
	}

	if err := s.repos.UpdateLastIndexed(ctx, userID, repository.ID, indexedAt); err != nil {
		return nil, err
	}
	result.DurationMS = s.now().Sub(start).Milliseconds()
	return result, nil
}

func (s *IndexService) collectFiles(root string, req *IndexRequest) ([]string, []FileFailure, error) {
	switch req.Mode {
	case model.IndexModeManual:
		return s.collectManual(root, req.Files)
	case model.IndexModeGuided:
		return s.collectWalk(root, req.Include, req.Exclude)
	default:
		return s.collectWalk(root, nil, nil)
	}
}

func (s *IndexService) collectManual(root string, files []string) ([]string, []FileFailure, error) {
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("%w: manual mode requires a file list", errors.ErrInvalid)
	}
	var selected []string
	var failures []FileFailure
	for _, rel := range files {
		full := filepath.Join(root, rel)
		resolved, err := s.guard.Validate(full)
		if err != nil {
			failures = append(failures, FileFailure{Path: rel, Reason: "path outside allowed roots"})
			continue
		}
		if !strings.HasPrefix(resolved, root+string(os.PathSeparator)) {
			failures = append(failures, FileFailure{Path: rel, Reason: "path outside repository root"})
			continue
		}
		if _, ok := s.exts[strings.ToLower(filepath.Ext(resolved))]; !ok {
			failures = append(failures, FileFailure{Path: rel, Reason: "unsupported file type"})
			continue
		}
		relResolved, err := filepath.Rel(root, resolved)
		if err != nil {
			failures = append(failures, FileFailure{Path: rel, Reason: err.Error()})
			continue
		}
		selected = append(selected, relResolved)
	}
	return selected, failures, nil
}

func (s *IndexService) collectWalk(root string, include, exclude []string) ([]string, []FileFailure, error) {
	var selected []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if _, ok := s.exts[strings.ToLower(filepath.Ext(name))]; !ok {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if len(include) > 0 && !matchAny(include, rel) {
			return nil
		}
		if matchAny(exclude, rel) {
			return nil
		}
		selected = append(selected, rel)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return selected, nil, nil
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func (s *IndexService) indexFile(ctx context.Context, userID, repoID, root, rel string, indexedAt int64) (int, error) {
	full := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil {
		return 0, err
	}
	if info.Size() > s.cfg.MaxFileBytes {
		return 0, fmt.Errorf("file exceeds %d bytes", s.cfg.MaxFileBytes)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return 0, err
	}
	if isBinary(data) {
		return 0, fmt.Errorf("binary file")
	}

	lang := chunker.DetectLanguage(rel)
	pieces := s.splitter.Chunk(string(data), lang)
	if len(pieces) == 0 {
		return 0, nil
	}

	batch := make([]model.CodeChunk, 0, len(pieces))
	for _, piece := range pieces {
		vec, err := s.embedder.Embed(ctx, piece.Content, taskTypeDocument)
		if err != nil {
			return 0, fmt.Errorf("embed chunk: %w", err)
		}
		if s.embedDim > 0 && len(vec) != s.embedDim {
			return 0, fmt.Errorf("embedding dimension %d, want %d", len(vec), s.embedDim)
		}
		batch = append(batch, model.CodeChunk{
			ChunkID:     ChunkID(repoID, rel, piece.StartLine, piece.EndLine),
			UserID:      userID,
			RepoID:      repoID,
			FilePath:    rel,
			StartLine:   piece.StartLine,
			EndLine:     piece.EndLine,
			Content:     piece.Content,
			ContentHash: hashContent(piece.Content),
			Embedding:   vec,
			IndexedAt:   indexedAt,
		})
	}
	if err := s.chunks.Upsert(ctx, batch); err != nil {
		return 0, err
	}
	return len(batch), nil
}

// ChunkID derives a stable id from the chunk coordinates so re-indexing the
// same span overwrites the previous row.
func ChunkID(repoID, filePath string, startLine, endLine int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%d|%d", repoID, filePath, startLine, endLine))
	return hex.EncodeToString(sum[:])[:32]
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func isBinary(data []byte) bool {
	probe := data
	if len(probe) > 8000 {
		probe = probe[:8000]
	}
	for _, b := range probe {
		if b == 0 {
			return true
		}
	}
	return false
}
