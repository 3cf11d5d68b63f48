package analyzer

import (
	"sort"
	"strings"
)

const (
	metadataSectionCap = 1000
	maxLeadParagraphs  = 20
	maxSampledHeadings = 100
)

// metadataSectionPrefixes marks sections copied into the sample in full
// (truncated per section).
var metadataSectionPrefixes = []string{"# Title", "# Date", "# Source"}

// ExtractContentSample builds a bounded, representative excerpt of the
// document for content-type detection: metadata sections, the leading
// paragraphs of the content section, the summary, and, if the sample is
// still small, headings from the structural sections. The result is
// hard-truncated to maxSize. Unexpected internal faults fall back to the
// first maxSize characters instead of propagating.
func (a *Analyzer) ExtractContentSample(content string, sectionMap map[string]string, maxSize int) (sample string, err error) {
	if content == "" {
		return "", ErrEmptyContent
	}
	if maxSize <= 0 {
		maxSize = DefaultSampleSize
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			if a != nil && a.logger != nil {
				a.logger.Printf("content sample extraction degraded, using head fallback: %v", recovered)
			}
			sample = truncate(content, maxSize)
			err = nil
		}
	}()

	parts := make([]string, 0, 8)

	for _, name := range sortedStringKeys(sectionMap) {
		if hasMetadataPrefix(name) {
			parts = append(parts, name)
			parts = append(parts, truncate(sectionMap[name], metadataSectionCap))
		}
	}

	if contentText := sectionMap["# Content"]; contentText != "" {
		paragraphs := strings.Split(contentText, "\n\n")
		if len(paragraphs) > maxLeadParagraphs {
			paragraphs = paragraphs[:maxLeadParagraphs]
		}
		for _, paragraph := range paragraphs {
			if len(strings.Join(parts, "\n"))+len(paragraph) >= maxSize {
				break
			}
			parts = append(parts, paragraph)
		}
	}

	if summary := sectionMap["# Summary"]; summary != "" {
		parts = append(parts, summary)
	}

	if len(strings.Join(parts, "\n")) < maxSize/2 {
		parts = append(parts, sampleHeadings(sectionMap, maxSampledHeadings)...)
	}

	return truncate(strings.Join(parts, "\n"), maxSize), nil
}

// sampleHeadings extracts sub-headings ("##", "###", ...) from the large
// structural sections, up to the given cap.
func sampleHeadings(sectionMap map[string]string, limit int) []string {
	headings := make([]string, 0)
	for _, name := range []string{"# Content", "# Tables"} {
		text, ok := sectionMap[name]
		if !ok {
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "#") {
				headings = append(headings, trimmed)
				if len(headings) >= limit {
					return headings
				}
			}
		}
	}
	return headings
}

func hasMetadataPrefix(name string) bool {
	for _, prefix := range metadataSectionPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func truncate(text string, maxSize int) string {
	if len(text) <= maxSize {
		return text
	}
	return text[:maxSize]
}

func sortedStringKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
