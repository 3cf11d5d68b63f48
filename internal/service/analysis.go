package service

import (
	"log"
	"strings"
	"time"

	"github.com/mfpereira/llmstxt-api/internal/analyzer"
	"github.com/mfpereira/llmstxt-api/internal/cache"
	"github.com/mfpereira/llmstxt-api/internal/tokencount"
)

// TextAnalysis is the analyzer endpoint payload: total tokens always, section
// breakdown and full budget analysis only for LLMs.txt-shaped content.
type TextAnalysis struct {
	TotalTokens int                `json:"total_tokens"`
	Model       string             `json:"model_name"`
	Sections    map[string]int     `json:"sections,omitempty"`
	Analysis    *analyzer.Analysis `json:"analysis,omitempty"`
}

// AnalysisService analyzes posted text without going through the job queue.
// Results for identical content and model are served from a short-lived
// cache; the analysis is deterministic so cached values never go stale.
type AnalysisService struct {
	counter *tokencount.Counter
	results *cache.ResultCache
	logger  *log.Logger
}

func NewAnalysisService(counter *tokencount.Counter, logger *log.Logger) *AnalysisService {
	if counter == nil {
		counter = tokencount.New(logger)
	}
	return &AnalysisService{
		counter: counter,
		results: cache.NewResultCache(cache.Config{TTL: 10 * time.Minute, MaxEntries: 4000}),
		logger:  logger,
	}
}

// AnalyzeText counts tokens for content under model and, when the content is
// sectioned LLMs.txt, runs the full budget analysis including content-type
// detection.
func (s *AnalysisService) AnalyzeText(content, model string) (*TextAnalysis, error) {
	if content == "" {
		return nil, analyzer.ErrEmptyContent
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-3.5-turbo"
	}

	signature := cache.BuildSignature(content, model)
	if cached, ok := s.results.Get(signature); ok {
		if analysis, ok := cached.(*TextAnalysis); ok {
			return analysis, nil
		}
	}

	result := &TextAnalysis{
		TotalTokens: s.counter.Count(content, model),
		Model:       model,
	}

	sectionMap := analyzer.SplitSections(content)
	if !strings.HasPrefix(content, "# ") || len(sectionMap) == 0 {
		s.results.Set(signature, result)
		return result, nil
	}

	sectionTokens := make(map[string]int, len(sectionMap))
	for name, text := range sectionMap {
		sectionTokens[name] = s.counter.Count(text, model)
	}
	result.Sections = sectionTokens

	docAnalyzer := analyzer.New(model, s.logger)
	analysis, err := docAnalyzer.AnalyzeSections(sectionTokens)
	if err != nil {
		// Structured analysis is best effort for posted text; the basic
		// count is still useful.
		if s.logger != nil {
			s.logger.Printf("document analysis degraded to plain count: %v", err)
		}
		s.results.Set(signature, result)
		return result, nil
	}

	sample, err := docAnalyzer.ExtractContentSample(content, sectionMap, analyzer.DefaultSampleSize)
	if err == nil {
		if contentType := docAnalyzer.DetectContentType(sample, sectionMap); contentType != "" {
			analysis.ContentType = contentType
			if chunking, ok := analyzer.ChunkingFor(contentType); ok {
				analysis.Chunking = &chunking
			}
		}
	}

	result.Analysis = analysis
	s.results.Set(signature, result)
	return result, nil
}
