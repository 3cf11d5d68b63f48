package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/mfpereira/llmstxt-api/internal/analyzer"
)

func TestAnalyzeTextEmpty(t *testing.T) {
	svc := NewAnalysisService(nil, nil)
	if _, err := svc.AnalyzeText("", "gpt-4"); !errors.Is(err, analyzer.ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestAnalyzeTextPlainText(t *testing.T) {
	svc := NewAnalysisService(nil, nil)
	result, err := svc.AnalyzeText("just some plain prose without headings", "")
	if err != nil {
		t.Fatalf("AnalyzeText failed: %v", err)
	}
	if result.TotalTokens <= 0 {
		t.Errorf("expected a positive token count, got %d", result.TotalTokens)
	}
	if result.Model != "gpt-3.5-turbo" {
		t.Errorf("expected default model, got %q", result.Model)
	}
	if result.Sections != nil || result.Analysis != nil {
		t.Error("plain text must not produce a section breakdown")
	}
}

func TestAnalyzeTextCachesResults(t *testing.T) {
	svc := NewAnalysisService(nil, nil)

	first, err := svc.AnalyzeText("repeatable content", "gpt-4")
	if err != nil {
		t.Fatalf("AnalyzeText failed: %v", err)
	}
	second, err := svc.AnalyzeText("repeatable content", "gpt-4")
	if err != nil {
		t.Fatalf("AnalyzeText failed: %v", err)
	}
	if first != second {
		t.Error("expected the second call to be served from cache")
	}
}

func TestAnalyzeTextCaseDifferingContentNotShared(t *testing.T) {
	legal := strings.Join([]string{
		"# Content",
		"Art. 1º determina o procedimento e o prazo do processo.",
	}, "\n")
	lowered := strings.ToLower(legal)

	svc := NewAnalysisService(nil, nil)
	if _, err := svc.AnalyzeText(legal, "gpt-4"); err != nil {
		t.Fatalf("AnalyzeText failed: %v", err)
	}

	// Classification weighs case-sensitive markers like "Art.", so the
	// lower-cased twin must not be served the original's cached result.
	result, err := svc.AnalyzeText(lowered, "gpt-4")
	if err != nil {
		t.Fatalf("AnalyzeText failed: %v", err)
	}
	if result.Analysis != nil && result.Analysis.ContentType == analyzer.ContentTypeLegal {
		t.Error("lower-cased content must be analyzed on its own, not from cache")
	}
}

func TestAnalyzeTextSectionedDocument(t *testing.T) {
	doc := strings.Join([]string{
		"# Title: Relatório",
		"Relatório Anual",
		"",
		"# Content",
		"Art. 1º desta lei define a norma e o regulamento do contrato firmado.",
		"§ único: o decreto revoga a legislação e a cláusula anterior.",
		"",
		"# Raw",
		"raw dump",
	}, "\n")

	svc := NewAnalysisService(nil, nil)
	result, err := svc.AnalyzeText(doc, "gpt-4o")
	if err != nil {
		t.Fatalf("AnalyzeText failed: %v", err)
	}

	if len(result.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %v", result.Sections)
	}
	if result.Analysis == nil {
		t.Fatal("sectioned content must produce a full analysis")
	}
	if result.Analysis.ContentType != analyzer.ContentTypeLegal {
		t.Errorf("expected legal classification, got %q", result.Analysis.ContentType)
	}
	if result.Analysis.Chunking == nil {
		t.Error("detected content type must carry a chunking recommendation")
	}
}
