package converter

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/mfpereira/llmstxt-api/internal/quality"
)

// LocalConverter converts text-based documents (pdf, txt, md, html) without
// an external engine. OCR-related request fields are accepted and ignored.
type LocalConverter struct {
	minParagraphLength int
	maxSummaryLength   int
	logger             *log.Logger
}

type LocalConfig struct {
	MinParagraphLength int
	MaxSummaryLength   int
	Logger             *log.Logger
}

func NewLocalConverter(cfg LocalConfig) *LocalConverter {
	if cfg.MinParagraphLength <= 0 {
		cfg.MinParagraphLength = 40
	}
	if cfg.MaxSummaryLength <= 0 {
		cfg.MaxSummaryLength = 1000
	}
	return &LocalConverter{
		minParagraphLength: cfg.MinParagraphLength,
		maxSummaryLength:   cfg.MaxSummaryLength,
		logger:             cfg.Logger,
	}
}

func (c *LocalConverter) Convert(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := c.extractText(req.FilePath)
	if err != nil {
		return nil, err
	}

	doc := c.buildDocument(req.FilePath, text)

	profile := req.Profile
	if profile == "" {
		profile = "llms-full"
	}

	llms := c.renderLLMS(doc, profile, text)
	validated, err := quality.ValidateLLMS(llms, profile)
	if err != nil {
		return nil, fmt.Errorf("validate output: %w", err)
	}
	for _, issue := range validated.Issues {
		if c.logger != nil {
			c.logger.Printf("output quality issue code=%s message=%q", issue.Code, issue.Message)
		}
	}

	formats := make(map[string]string)
	formats["llms"] = validated.Content
	for _, format := range req.ExportFormats {
		switch format {
		case "llms":
			// Always rendered.
		case "md":
			formats["md"] = c.renderMarkdown(doc)
		case "txt":
			formats["txt"] = text
		default:
			if c.logger != nil {
				c.logger.Printf("skipping unsupported export format %q", format)
			}
		}
	}
	return &Result{Formats: formats, Document: doc}, nil
}

func (c *LocalConverter) extractText(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "txt", "md":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return string(raw), nil
	case "html", "htm":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		return stripHTML(string(raw)), nil
	case "pdf":
		return extractPDFText(path)
	default:
		return "", unsupported(ext)
	}
}

func extractPDFText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	var buffer bytes.Buffer
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract text from page %d: %w", pageIndex, err)
		}
		buffer.WriteString(text)
		buffer.WriteString("\n\n")
	}
	return buffer.String(), nil
}

var (
	htmlTagPattern    = regexp.MustCompile(`(?s)<[^>]*>`)
	htmlScriptPattern = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	blankLinePattern  = regexp.MustCompile(`\n{3,}`)
)

func stripHTML(raw string) string {
	cleaned := htmlScriptPattern.ReplaceAllString(raw, "")
	cleaned = htmlTagPattern.ReplaceAllString(cleaned, "\n")
	cleaned = strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`).Replace(cleaned)
	cleaned = blankLinePattern.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

func (c *LocalConverter) buildDocument(path, text string) *Document {
	paragraphs := make([]string, 0)
	for _, paragraph := range strings.Split(text, "\n\n") {
		trimmed := strings.TrimSpace(paragraph)
		if trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	// Uploaded temp files are prefixed with the job id.
	if index := strings.Index(title, "_"); index > 0 && index < len(title)-1 {
		title = title[index+1:]
	}

	return &Document{
		Title:      title,
		Source:     base,
		Paragraphs: paragraphs,
	}
}

// renderLLMS builds the LLMs.txt representation: metadata headings, an
// automatic summary, the main content, and (profile permitting) the raw text.
func (c *LocalConverter) renderLLMS(doc *Document, profile, raw string) string {
	sections := make([]string, 0, 8)
	sections = append(sections, "# Title: "+doc.Title)
	sections = append(sections, "# Source: "+doc.Source)

	if profile == "llms-ctx" || profile == "llms-full" {
		if summary := c.autoSummary(doc); summary != "" {
			sections = append(sections, "# Summary", summary)
		}
	}

	sections = append(sections, "# Content")
	sections = append(sections, strings.Join(doc.Paragraphs, "\n\n"))

	if profile == "llms-raw" || profile == "llms-full" {
		sections = append(sections, "# Raw", raw)
	}
	return strings.Join(sections, "\n")
}

func (c *LocalConverter) renderMarkdown(doc *Document) string {
	lines := []string{"# " + doc.Title, ""}
	lines = append(lines, strings.Join(doc.Paragraphs, "\n\n"))
	return strings.Join(lines, "\n")
}

// autoSummary picks the first significant paragraph, truncated to the
// configured summary length.
func (c *LocalConverter) autoSummary(doc *Document) string {
	for _, paragraph := range doc.Paragraphs {
		if len(paragraph) >= c.minParagraphLength {
			if len(paragraph) > c.maxSummaryLength {
				return paragraph[:c.maxSummaryLength]
			}
			return paragraph
		}
	}
	return ""
}
