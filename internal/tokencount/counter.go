// Package tokencount approximates LLM token counts for text under a named
// model. Exact tokenizers are not linked in; each model family gets a tuned
// approximation and the counter degrades through an ordered strategy list
// instead of returning errors.
package tokencount

import (
	"fmt"
	"log"
	"math"
	"strings"
)

// Encoder approximates the tokenizer of one model family.
type Encoder interface {
	Name() string
	Encode(text string) (int, error)
}

// ratioEncoder estimates tokens from rune and word counts. The rule of thumb
// is ~4 characters or ~3/4 of a word per token; CharsPerToken tunes the
// character side per model family.
type ratioEncoder struct {
	name          string
	charsPerToken float64
}

func (e ratioEncoder) Name() string { return e.name }

func (e ratioEncoder) Encode(text string) (int, error) {
	if e.charsPerToken <= 0 {
		return 0, fmt.Errorf("encoder %s: invalid chars-per-token ratio", e.name)
	}
	runes := len([]rune(text))
	if runes == 0 {
		return 0, nil
	}
	byChars := int(math.Ceil(float64(runes) / e.charsPerToken))
	byWords := int(math.Ceil(float64(len(strings.Fields(text))) * 4.0 / 3.0))
	if byWords > byChars {
		return byWords, nil
	}
	return byChars, nil
}

// familyEncoder binds a model-name prefix to its encoder.
type familyEncoder struct {
	prefix  string
	encoder Encoder
}

// universalEncoder is the fallback used for unrecognized models, mirroring
// the cl100k_base catch-all of OpenAI tooling.
var universalEncoder Encoder = ratioEncoder{name: "cl100k_base", charsPerToken: 4.0}

var defaultFamilies = []familyEncoder{
	{prefix: "gpt-4o", encoder: ratioEncoder{name: "o200k_base", charsPerToken: 4.2}},
	{prefix: "gpt-4", encoder: ratioEncoder{name: "cl100k_base", charsPerToken: 4.0}},
	{prefix: "gpt-3.5", encoder: ratioEncoder{name: "cl100k_base", charsPerToken: 4.0}},
	{prefix: "claude", encoder: ratioEncoder{name: "claude", charsPerToken: 3.8}},
	{prefix: "gemini", encoder: ratioEncoder{name: "gemini", charsPerToken: 4.0}},
	{prefix: "llama", encoder: ratioEncoder{name: "llama", charsPerToken: 3.6}},
	{prefix: "mistral", encoder: ratioEncoder{name: "mistral", charsPerToken: 3.6}},
}

// Strategy is one tier of the degradation ladder. Tiers are tried in order;
// the first one that returns without error or panic wins.
type Strategy struct {
	Name  string
	Count func(text string) (int, error)
}

// Counter resolves a strategy list per model and never fails: empty text is
// zero tokens, and when every tier misbehaves the count is a constant 1.
type Counter struct {
	families []familyEncoder
	fallback Encoder
	logger   *log.Logger
}

func New(logger *log.Logger) *Counter {
	return &Counter{
		families: defaultFamilies,
		fallback: universalEncoder,
		logger:   logger,
	}
}

// Count returns the approximate token count of text under model. It never
// returns an error; degraded tiers are only visible in logs.
func (c *Counter) Count(text, model string) int {
	if text == "" {
		return 0
	}
	for _, strategy := range c.StrategiesFor(model) {
		count, err := safeCount(strategy, text)
		if err == nil {
			return count
		}
		if c.logger != nil {
			c.logger.Printf("token count tier %s degraded model=%s err=%v", strategy.Name, model, err)
		}
	}
	return 1
}

// StrategiesFor exposes the ordered tier list for a model: the family encoder
// when the model is recognized, the universal fallback encoder, then a coarse
// character heuristic.
func (c *Counter) StrategiesFor(model string) []Strategy {
	strategies := make([]Strategy, 0, 3)
	if encoder, ok := c.encoderFor(model); ok {
		strategies = append(strategies, Strategy{Name: encoder.Name(), Count: encoder.Encode})
	}
	strategies = append(strategies,
		Strategy{Name: c.fallback.Name(), Count: c.fallback.Encode},
		Strategy{Name: "char-heuristic", Count: charHeuristic},
	)
	return strategies
}

func (c *Counter) encoderFor(model string) (Encoder, bool) {
	normalized := strings.ToLower(strings.TrimSpace(model))
	for _, family := range c.families {
		if strings.HasPrefix(normalized, family.prefix) {
			return family.encoder, true
		}
	}
	return nil, false
}

func charHeuristic(text string) (int, error) {
	return len(text) / 4, nil
}

func safeCount(strategy Strategy, text string) (count int, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("tier %s panicked: %v", strategy.Name, recovered)
		}
	}()
	return strategy.Count(text)
}

var defaultCounter = New(nil)

// Count approximates tokens using the default counter.
func Count(text, model string) int {
	return defaultCounter.Count(text, model)
}
