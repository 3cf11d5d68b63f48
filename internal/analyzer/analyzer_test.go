package analyzer

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeSectionsEmpty(t *testing.T) {
	a := New("gpt-4", nil)
	_, err := a.AnalyzeSections(map[string]int{})
	require.ErrorIs(t, err, ErrEmptySections)
}

func TestAnalyzeSectionsExceedsLimit(t *testing.T) {
	a := New("gpt-4", nil)
	analysis, err := a.AnalyzeSections(map[string]int{
		"# Content": 10000,
		"# Tables":  20000,
	})
	require.NoError(t, err)

	assert.Equal(t, 30000, analysis.TotalTokens)
	assert.Equal(t, 8192, analysis.ModelLimit)
	assert.True(t, analysis.ExceedsLimit)

	// Both sections consume more than a quarter of the limit, ordered by cost.
	assert.Equal(t, []string{"# Tables", "# Content"}, analysis.ExpensiveSections)

	require.NotEmpty(t, analysis.Recommendations)
	assert.Equal(t, "The document exceeds the gpt-4 limit of 8192 tokens.", analysis.Recommendations[0])
	assert.Contains(t, analysis.Recommendations, "Consider using gpt-4-32k, which supports up to 32768 tokens.")
}

func TestAnalyzeSectionsWithinLimit(t *testing.T) {
	a := New("gpt-3.5-turbo", nil)
	analysis, err := a.AnalyzeSections(map[string]int{
		"# Title":   100,
		"# Content": 1000,
		"# Summary": 200,
	})
	require.NoError(t, err)

	assert.Equal(t, 1300, analysis.TotalTokens)
	assert.False(t, analysis.ExceedsLimit)
	assert.Empty(t, analysis.ExpensiveSections)
	assert.Equal(t, "The document is within the limit of 16385 tokens for gpt-3.5-turbo.", analysis.Recommendations[0])
}

func TestAnalyzeSectionsPercentagesSumToHundred(t *testing.T) {
	a := New("gpt-4o", nil)
	analysis, err := a.AnalyzeSections(map[string]int{
		"# Title":   37,
		"# Content": 4211,
		"# Tables":  953,
		"# Raw":     118,
	})
	require.NoError(t, err)

	sum := 0.0
	for _, pct := range analysis.Percentages {
		sum += pct
	}
	assert.InDelta(t, 100.0, sum, 1e-6)
}

func TestAnalyzeSectionsNearLimitWarning(t *testing.T) {
	a := New("gpt-4", nil)

	analysis, err := a.AnalyzeSections(map[string]int{"# Content": 7000})
	require.NoError(t, err)
	assert.Contains(t, analysis.Recommendations,
		"The document is near the model limit. Consider monitoring its growth.")

	analysis, err = a.AnalyzeSections(map[string]int{"# Content": 6000})
	require.NoError(t, err)
	assert.NotContains(t, analysis.Recommendations,
		"The document is near the model limit. Consider monitoring its growth.")
}

func TestAnalyzeSectionsMinProfileSuggestion(t *testing.T) {
	a := New("gpt-4", nil)
	analysis, err := a.AnalyzeSections(map[string]int{
		"# Content": 3000,
		"# Raw":     7000,
	})
	require.NoError(t, err)

	require.True(t, analysis.ExceedsLimit)
	assert.Contains(t, analysis.Recommendations,
		"Use the 'llms-min' profile to reduce the document to ~3000 tokens.")
}

func TestAnalyzeSectionsRawShareHint(t *testing.T) {
	a := New("gpt-4", nil)
	analysis, err := a.AnalyzeSections(map[string]int{
		"# Content": 100,
		"# Raw":     50,
	})
	require.NoError(t, err)

	assert.False(t, analysis.ExceedsLimit)
	assert.Contains(t, analysis.Recommendations,
		"The Raw section consumes a large share of tokens. Consider the 'llms-min' profile to exclude it.")
}

func TestAnalyzeSectionsDeterministic(t *testing.T) {
	a := New("gpt-4", nil)
	sections := map[string]int{
		"# Title":   40,
		"# Content": 9000,
		"# Tables":  2500,
		"# Images":  700,
		"# Raw":     3100,
	}

	first, err := a.AnalyzeSections(sections)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := a.AnalyzeSections(sections)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAnalyzeDocumentEmpty(t *testing.T) {
	a := New("gpt-4", nil)
	_, err := a.AnalyzeDocument("")
	require.ErrorIs(t, err, ErrEmptyContent)
}

func TestAnalyzeDocumentUnsectionedText(t *testing.T) {
	a := New("gpt-3.5-turbo", nil)
	analysis, err := a.AnalyzeDocument("plain text with no headings at all, just prose")
	require.NoError(t, err)

	assert.Greater(t, analysis.TotalTokens, 0)
	require.Len(t, analysis.Percentages, 1)
	assert.InDelta(t, 100.0, analysis.Percentages["# Content"], 1e-6)
}

func TestAnalyzeDocumentDetectsLegalContent(t *testing.T) {
	doc := strings.Join([]string{
		"# Title: Regulamento Interno",
		"",
		"# Content",
		"Art. 1º Esta lei estabelece a norma aplicável ao contrato.",
		"§ 1º O parágrafo único do artigo anterior define o regulamento.",
		"Art. 2º O decreto revoga a legislação anterior e toda cláusula contrária.",
	}, "\n")

	a := New("gpt-4o", nil)
	analysis, err := a.AnalyzeDocument(doc)
	require.NoError(t, err)

	assert.Equal(t, ContentTypeLegal, analysis.ContentType)
	require.NotNil(t, analysis.Chunking)
	assert.Equal(t, 800, analysis.Chunking.ChunkSize)
	assert.Equal(t, 200, analysis.Chunking.ChunkOverlap)
}

func TestSplitSections(t *testing.T) {
	doc := "# Title: Doc\nfirst\n\n# Content\nbody line 1\nbody line 2\n\n# Raw\nraw text\n"

	sections := SplitSections(doc)
	require.Len(t, sections, 3)
	assert.Contains(t, sections, "# Title: Doc")
	assert.Contains(t, sections["# Content"], "body line 1")
	assert.Contains(t, sections["# Raw"], "raw text")
}

func TestSplitSectionsIgnoresSubHeadings(t *testing.T) {
	doc := "# Content\n## sub heading\ntext\n"
	sections := SplitSections(doc)
	require.Len(t, sections, 1)
	assert.Contains(t, sections["# Content"], "## sub heading")
}

func TestModelLimitFor(t *testing.T) {
	assert.Equal(t, 8192, ModelLimitFor("gpt-4"))
	assert.Equal(t, 200000, ModelLimitFor("claude-3-opus"))
	assert.Equal(t, DefaultModelLimit, ModelLimitFor("some-unknown-model"))
}

func TestSmallestSuitableModel(t *testing.T) {
	name, limit, ok := smallestSuitableModel(30000)
	require.True(t, ok)
	assert.Equal(t, "gpt-4-32k", name)
	assert.Equal(t, 32768, limit)

	_, _, ok = smallestSuitableModel(math.MaxInt)
	assert.False(t, ok)
}

func TestRecommendationsText(t *testing.T) {
	a := New("gpt-4", nil)
	analysis, err := a.AnalyzeSections(map[string]int{"# Content": 1000})
	require.NoError(t, err)

	text := a.RecommendationsText(analysis)
	assert.Contains(t, text, "## Token Analysis")
	assert.Contains(t, text, "Total: 1000 tokens (gpt-4)")
	assert.Contains(t, text, "- # Content: 100.0%")
}
