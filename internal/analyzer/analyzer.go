// Package analyzer implements token-budget analysis for LLMs.txt documents:
// per-section token accounting against model context limits, heuristic
// content-type detection, and chunking-parameter recommendation.
package analyzer

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/mfpereira/llmstxt-api/internal/tokencount"
)

var (
	// ErrEmptySections is returned when an empty section map is analyzed.
	ErrEmptySections = errors.New("section map cannot be empty")
	// ErrEmptyContent is returned when empty text is passed to an analyzer
	// entry point.
	ErrEmptyContent = errors.New("content cannot be empty")
)

const (
	// expensiveSectionShare flags sections individually consuming more than
	// this share of the model limit.
	expensiveSectionShare = 0.25
	// nearLimitShare triggers the near-limit warning.
	nearLimitShare = 0.8
	// rawSectionShare triggers the raw-section exclusion hint.
	rawSectionShare = 0.2
	// DefaultSampleSize bounds the representative excerpt used for
	// content-type detection.
	DefaultSampleSize = 50000
)

// CountFunc counts tokens for text under a model. Must never fail.
type CountFunc func(text, model string) int

// Analysis describes one document snapshot against a model budget.
type Analysis struct {
	TotalTokens       int                     `json:"total_tokens"`
	ModelLimit        int                     `json:"model_limit"`
	ExceedsLimit      bool                    `json:"exceeds_limit"`
	Percentages       map[string]float64      `json:"percentages"`
	ExpensiveSections []string                `json:"expensive_sections"`
	Recommendations   []string                `json:"recommendations"`
	ContentType       string                  `json:"content_type,omitempty"`
	Chunking          *ChunkingRecommendation `json:"chunking_recommendation,omitempty"`
}

// Analyzer evaluates token budgets for one target model.
type Analyzer struct {
	model  string
	count  CountFunc
	logger *log.Logger
}

func New(model string, logger *log.Logger) *Analyzer {
	if strings.TrimSpace(model) == "" {
		model = "gpt-3.5-turbo"
	}
	return &Analyzer{
		model:  model,
		count:  tokencount.Count,
		logger: logger,
	}
}

// Model returns the model this analyzer is configured for.
func (a *Analyzer) Model() string { return a.model }

// AnalyzeSections evaluates a section→token-count map against the model
// limit and produces ordered recommendations.
func (a *Analyzer) AnalyzeSections(sections map[string]int) (*Analysis, error) {
	if len(sections) == 0 {
		return nil, ErrEmptySections
	}

	totalTokens := 0
	for _, tokens := range sections {
		totalTokens += tokens
	}
	modelLimit := ModelLimitFor(a.model)

	percentages := make(map[string]float64, len(sections))
	for name, tokens := range sections {
		if totalTokens > 0 {
			percentages[name] = float64(tokens) / float64(totalTokens) * 100
		} else {
			percentages[name] = 0
		}
	}

	sorted := sortSectionsByTokens(sections)
	exceedsLimit := totalTokens > modelLimit

	expensive := make([]string, 0)
	threshold := float64(modelLimit) * expensiveSectionShare
	for _, section := range sorted {
		if float64(section.tokens) > threshold {
			expensive = append(expensive, section.name)
		}
	}

	recommendations := a.buildRecommendations(sections, totalTokens, modelLimit, exceedsLimit, expensive)

	return &Analysis{
		TotalTokens:       totalTokens,
		ModelLimit:        modelLimit,
		ExceedsLimit:      exceedsLimit,
		Percentages:       percentages,
		ExpensiveSections: expensive,
		Recommendations:   recommendations,
	}, nil
}

func (a *Analyzer) buildRecommendations(
	sections map[string]int,
	totalTokens int,
	modelLimit int,
	exceedsLimit bool,
	expensive []string,
) []string {
	recommendations := make([]string, 0, 5)

	if exceedsLimit {
		recommendations = append(recommendations, fmt.Sprintf(
			"The document exceeds the %s limit of %d tokens.", a.model, modelLimit,
		))

		if model, limit, ok := smallestSuitableModel(totalTokens); ok {
			recommendations = append(recommendations, fmt.Sprintf(
				"Consider using %s, which supports up to %d tokens.", model, limit,
			))
		} else {
			recommendations = append(recommendations,
				"The document exceeds the limit of every known model. Consider splitting it into multiple documents.",
			)
		}

		if contentTokens, ok := contentSectionTokens(sections); ok && contentTokens < modelLimit {
			recommendations = append(recommendations, fmt.Sprintf(
				"Use the 'llms-min' profile to reduce the document to ~%d tokens.", contentTokens,
			))
		}

		if len(expensive) > 0 {
			recommendations = append(recommendations, fmt.Sprintf(
				"The sections consuming the most tokens are: %s.", strings.Join(expensive, ", "),
			))
			recommendations = append(recommendations,
				"Consider splitting the document or using a smaller chunk size.",
			)
		}
		return recommendations
	}

	recommendations = append(recommendations, fmt.Sprintf(
		"The document is within the limit of %d tokens for %s.", modelLimit, a.model,
	))

	if float64(totalTokens) > float64(modelLimit)*nearLimitShare {
		recommendations = append(recommendations,
			"The document is near the model limit. Consider monitoring its growth.",
		)
	}

	if rawTokens, ok := sections["# Raw"]; ok && float64(rawTokens) > float64(totalTokens)*rawSectionShare {
		recommendations = append(recommendations,
			"The Raw section consumes a large share of tokens. Consider the 'llms-min' profile to exclude it.",
		)
	}

	return recommendations
}

// AnalyzeDocument runs the full pipeline on an LLMs.txt document: section
// split, per-section token counting, sample extraction, content-type
// detection, and budget analysis.
func (a *Analyzer) AnalyzeDocument(content string) (*Analysis, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	sectionMap := SplitSections(content)
	if len(sectionMap) == 0 {
		// Unsectioned text is analyzed as a single content block.
		sectionMap = map[string]string{"# Content": content}
	}

	sectionTokens := make(map[string]int, len(sectionMap))
	for name, text := range sectionMap {
		sectionTokens[name] = a.count(text, a.model)
	}

	analysis, err := a.AnalyzeSections(sectionTokens)
	if err != nil {
		return nil, err
	}

	sample, err := a.ExtractContentSample(content, sectionMap, DefaultSampleSize)
	if err != nil {
		return nil, err
	}
	if contentType := a.DetectContentType(sample, sectionMap); contentType != "" {
		analysis.ContentType = contentType
		if chunking, ok := ChunkingFor(contentType); ok {
			analysis.Chunking = &chunking
		}
	}
	return analysis, nil
}

// SplitSections breaks an LLMs.txt document into its top-level sections.
// A section starts at a line consisting of a single '#' heading and is keyed
// by that heading.
func SplitSections(content string) map[string]string {
	sections := make(map[string]string)
	var current string
	var body strings.Builder

	flush := func() {
		if current != "" {
			sections[current] = body.String()
			body.Reset()
		}
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			flush()
			current = trimmed
			continue
		}
		if current != "" {
			body.WriteString(line)
			body.WriteString("\n")
		}
	}
	flush()
	return sections
}

// RecommendationsText renders an analysis as human-readable markdown.
func (a *Analyzer) RecommendationsText(analysis *Analysis) string {
	lines := []string{
		"## Token Analysis",
		fmt.Sprintf("Total: %d tokens (%s)", analysis.TotalTokens, a.model),
		fmt.Sprintf("Model limit: %d tokens", analysis.ModelLimit),
		"",
		"### Distribution by section:",
	}

	for _, name := range sortedSectionNames(analysis.Percentages) {
		lines = append(lines, fmt.Sprintf("- %s: %.1f%%", name, analysis.Percentages[name]))
	}

	lines = append(lines, "", "### Recommendations:")
	for _, recommendation := range analysis.Recommendations {
		lines = append(lines, "- "+recommendation)
	}

	if analysis.ContentType != "" && analysis.Chunking != nil {
		lines = append(lines,
			"",
			"### Chunking suggestion:",
			fmt.Sprintf("Detected content type: **%s** (%s)", analysis.ContentType, analysis.Chunking.Description),
			fmt.Sprintf("- chunk size: %d", analysis.Chunking.ChunkSize),
			fmt.Sprintf("- chunk overlap: %d", analysis.Chunking.ChunkOverlap),
		)
	}
	return strings.Join(lines, "\n")
}

type sectionTokens struct {
	name   string
	tokens int
}

func sortSectionsByTokens(sections map[string]int) []sectionTokens {
	sorted := make([]sectionTokens, 0, len(sections))
	for name, tokens := range sections {
		sorted = append(sorted, sectionTokens{name: name, tokens: tokens})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].tokens == sorted[j].tokens {
			return sorted[i].name < sorted[j].name
		}
		return sorted[i].tokens > sorted[j].tokens
	})
	return sorted
}

// smallestSuitableModel finds the model with the smallest context window that
// still fits totalTokens. Ties and iteration order are made deterministic by
// sorting on limit, then name.
func smallestSuitableModel(totalTokens int) (string, int, bool) {
	type candidate struct {
		name  string
		limit int
	}
	candidates := make([]candidate, 0)
	for name, limit := range modelLimits {
		if limit >= totalTokens {
			candidates = append(candidates, candidate{name: name, limit: limit})
		}
	}
	if len(candidates) == 0 {
		return "", 0, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].limit == candidates[j].limit {
			return candidates[i].name < candidates[j].name
		}
		return candidates[i].limit < candidates[j].limit
	})
	return candidates[0].name, candidates[0].limit, true
}

func contentSectionTokens(sections map[string]int) (int, bool) {
	for _, name := range sortedIntKeys(sections) {
		if strings.HasSuffix(strings.ToLower(name), "content") {
			return sections[name], true
		}
	}
	return 0, false
}

func sortedIntKeys(values map[string]int) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedSectionNames(values map[string]float64) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
