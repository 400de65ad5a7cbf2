package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/repowhisper/internal/ai"
	"github.com/xxxsen/repowhisper/internal/config"
	"github.com/xxxsen/repowhisper/internal/model"
)

type AdviseRequest struct {
	SessionID string
	RepoID    string
}

// AdvisorService fuses the session transcript, the latest screenshot and
// matching code snippets into one talking point. The AI path may fail or time
// out; the rule-based path never does, so every call with a live session gets
// an answer.
type AdvisorService struct {
	sessions  SessionStore
	search    *SearchService
	generator ai.IGenerator
	cfg       config.AdvisorConfig
}

func NewAdvisorService(sessions SessionStore, search *SearchService, generator ai.IGenerator, cfg config.AdvisorConfig) *AdvisorService {
	return &AdvisorService{
		sessions:  sessions,
		search:    search,
		generator: generator,
		cfg:       cfg,
	}
}

func (s *AdvisorService) Advise(ctx context.Context, userID string, req *AdviseRequest) (*model.AdviceResult, error) {
	session, err := s.sessions.Get(userID, req.SessionID)
	if err != nil {
		return nil, err
	}
	transcript := strings.TrimSpace(session.TranscriptSegment)
	snippets := s.lookupSnippets(ctx, userID, transcript, req.RepoID)

	if s.generator != nil && transcript != "" {
		if result := s.adviseAI(ctx, session, transcript, snippets); result != nil {
			return result, nil
		}
	}
	return s.adviseRuleBased(transcript, snippets), nil
}

// lookupSnippets is best effort. Search failures degrade the advice instead
// of failing the call.
func (s *AdvisorService) lookupSnippets(ctx context.Context, userID, transcript, repoID string) []model.ScoredChunk {
	if transcript == "" || s.search == nil {
		return nil
	}
	results, err := s.search.Search(ctx, userID, &SearchRequest{
		Query:  transcript,
		RepoID: repoID,
		TopK:   s.cfg.SnippetLimit,
	})
	if err != nil {
		logutil.GetLogger(ctx).Warn("snippet lookup failed", zap.Error(err))
		return nil
	}
	return results
}

func (s *AdvisorService) adviseAI(ctx context.Context, session *model.SessionContext, transcript string, snippets []model.ScoredChunk) *model.AdviceResult {
	tctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSec)*time.Second)
	defer cancel()
	prompt := buildPrompt(session, transcript, snippets)
	text, err := s.generator.Generate(tctx, prompt)
	if err != nil {
		logutil.GetLogger(ctx).Warn("ai advice failed, falling back", zap.Error(err))
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return &model.AdviceResult{
		TalkingPoint: text,
		Confidence:   0.9,
		Source:       model.AdviceSourceAI,
	}
}

func buildPrompt(session *model.SessionContext, transcript string, snippets []model.ScoredChunk) string {
	var sb strings.Builder
	sb.WriteString("You are assisting a developer during a live coding conversation.\n")
	sb.WriteString("Latest transcript segment:\n")
	sb.WriteString(transcript)
	sb.WriteString("\n")
	if session.Screenshot != nil {
		sb.WriteString("The speaker also shared a screenshot of their screen.\n")
	}
	if len(snippets) > 0 {
		sb.WriteString("Relevant code from their repository:\n")
		for _, item := range snippets {
			fmt.Fprintf(&sb, "--- %s (lines %d-%d)\n%s\n",
				item.Chunk.FilePath, item.Chunk.StartLine, item.Chunk.EndLine, item.Chunk.Content)
		}
	}
	sb.WriteString("Reply with one short, concrete talking point the developer can say next. Plain text only.\n")
	return sb.String()
}

var (
	debugKeywords = []string{"error", "bug", "issue", "crash", "exception", "fail"}
	perfKeywords  = []string{"performance", "slow", "optimize", "latency", "memory"}
)

func (s *AdvisorService) adviseRuleBased(transcript string, snippets []model.ScoredChunk) *model.AdviceResult {
	lowered := strings.ToLower(transcript)
	if containsAny(lowered, debugKeywords) {
		return &model.AdviceResult{
			TalkingPoint: "Suggest walking through the failing path step by step and checking recent changes around it.",
			Confidence:   0.65,
			Source:       model.AdviceSourceRuleBased,
		}
	}
	if containsAny(lowered, perfKeywords) {
		return &model.AdviceResult{
			TalkingPoint: "Suggest profiling the hot path before optimizing, so the discussion stays on measured numbers.",
			Confidence:   0.65,
			Source:       model.AdviceSourceRuleBased,
		}
	}
	if file := matchSnippetFile(lowered, snippets); file != "" {
		return &model.AdviceResult{
			TalkingPoint: fmt.Sprintf("Bring up %s, it looks closest to what is being discussed.", file),
			Confidence:   0.5,
			Source:       model.AdviceSourceRuleBased,
		}
	}
	return &model.AdviceResult{
		TalkingPoint: "Ask the speaker to narrow down which part of the codebase they want to focus on.",
		Confidence:   0.4,
		Source:       model.AdviceSourceRuleBased,
	}
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// matchSnippetFile looks for a snippet whose file name shows up in the
// transcript words.
func matchSnippetFile(lowered string, snippets []model.ScoredChunk) string {
	words := strings.FieldsFunc(lowered, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '_')
	})
	wordSet := make(map[string]struct{}, len(words))
	for _, word := range words {
		wordSet[word] = struct{}{}
	}
	for _, item := range snippets {
		base := strings.ToLower(path.Base(item.Chunk.FilePath))
		name := strings.TrimSuffix(base, path.Ext(base))
		if name == "" {
			continue
		}
		if _, ok := wordSet[name]; ok {
			return item.Chunk.FilePath
		}
	}
	if len(snippets) > 0 {
		return snippets[0].Chunk.FilePath
	}
	return ""
}
