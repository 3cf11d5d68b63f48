package analyzer

import "strings"

// Structural bonus weights applied on top of keyword scores.
const (
	educationalMarkerBonus = 10
	programmingVocabBonus  = 5
	legalMarkerBonus       = 5
	scientificSectionBonus = 8

	// minConfidenceScore is the score a label must exceed to be returned.
	minConfidenceScore = 1
)

// DetectContentType classifies the document genre from a representative text
// sample and the section map. Returns the winning label, or an empty string
// when no label scores above the confidence threshold. The result is
// deterministic: keyword matching is case-insensitive substring search and
// ties are broken by table-definition order.
func (a *Analyzer) DetectContentType(sample string, sectionMap map[string]string) string {
	if sample == "" {
		return ""
	}

	normalized := strings.ToLower(sample)

	scores := make(map[string]int, len(contentTypeProfiles))
	for _, profile := range contentTypeProfiles {
		score := 0
		for _, keyword := range profile.Keywords {
			if strings.Contains(normalized, strings.ToLower(keyword)) {
				score++
			}
		}
		scores[profile.Label] = score
	}

	// Structural signals.
	if strings.Contains(sample, "BNCC") ||
		strings.Contains(sample, "Base Nacional") ||
		strings.Contains(sample, "Ministério da Educação") {
		scores[ContentTypeEducational] += educationalMarkerBonus
	}
	if containsAny(normalized, "código", "programa", "função", "biblioteca") {
		scores[ContentTypeTechnical] += programmingVocabBonus
	}
	if strings.Contains(sample, "§") ||
		strings.Contains(sample, "Art.") ||
		strings.Contains(sample, "Artigo") {
		scores[ContentTypeLegal] += legalMarkerBonus
	}
	if hasAnySection(sectionMap, "# Abstract", "# Introduction", "# Methodology") {
		scores[ContentTypeScientific] += scientificSectionBonus
	}

	if a != nil && a.logger != nil {
		for _, profile := range contentTypeProfiles {
			a.logger.Printf("content type score label=%s score=%d", profile.Label, scores[profile.Label])
		}
	}

	// First label reaching the maximum, in table order.
	winner := ""
	best := 0
	for _, profile := range contentTypeProfiles {
		if scores[profile.Label] > best {
			best = scores[profile.Label]
			winner = profile.Label
		}
	}
	if best <= minConfidenceScore {
		return ""
	}
	return winner
}

func containsAny(normalized string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}

func hasAnySection(sectionMap map[string]string, names ...string) bool {
	for _, name := range names {
		if _, ok := sectionMap[name]; ok {
			return true
		}
	}
	return false
}
