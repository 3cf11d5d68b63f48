// Package quality checks rendered LLMs.txt output before it is handed to a
// job result: required sections per profile, non-empty content, and basic
// formatting hygiene.
package quality

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrOutputRejected = errors.New("output failed quality checks")

// Issue is one non-fatal finding about a rendered document.
type Issue struct {
	Code    string
	Message string
}

// ValidationResult carries the possibly corrected document plus findings.
type ValidationResult struct {
	Content   string
	Issues    []Issue
	Corrected bool
}

var excessBlankLines = regexp.MustCompile(`\n{3,}`)

// requiredSections lists the headings every profile must render, plus the
// profile-conditional ones.
var requiredSections = []string{"# Title:", "# Source:", "# Content"}

// ValidateLLMS checks a rendered LLMs.txt document against the structural
// expectations of its profile. Missing required sections reject the output;
// formatting problems are corrected in place and reported as issues.
func ValidateLLMS(content, profile string) (ValidationResult, error) {
	if strings.TrimSpace(content) == "" {
		return ValidationResult{}, fmt.Errorf("%w: empty document", ErrOutputRejected)
	}

	result := ValidationResult{Content: content}

	for _, heading := range requiredSections {
		if !containsHeading(content, heading) {
			return ValidationResult{}, fmt.Errorf("%w: missing %q section", ErrOutputRejected, strings.TrimSuffix(heading, ":"))
		}
	}

	if profile == "llms-ctx" || profile == "llms-full" {
		if !containsHeading(content, "# Summary") {
			result.Issues = append(result.Issues, Issue{
				Code:    "missing_summary",
				Message: "profile " + profile + " normally includes a summary section",
			})
		}
	}
	if profile == "llms-raw" || profile == "llms-full" {
		if !containsHeading(content, "# Raw") {
			return ValidationResult{}, fmt.Errorf("%w: profile %s requires the raw section", ErrOutputRejected, profile)
		}
	}

	if cleaned := excessBlankLines.ReplaceAllString(result.Content, "\n\n"); cleaned != result.Content {
		result.Content = cleaned
		result.Corrected = true
		result.Issues = append(result.Issues, Issue{
			Code:    "excess_blank_lines",
			Message: "collapsed runs of blank lines",
		})
	}
	if !strings.HasSuffix(result.Content, "\n") {
		result.Content += "\n"
		result.Corrected = true
	}

	return result, nil
}

func containsHeading(content, heading string) bool {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), heading) {
			return true
		}
	}
	return false
}
