package decode

import (
	"fmt"
	"strings"

	"github.com/carrycooldude/EdgeAIApp/internal/config"
	"github.com/carrycooldude/EdgeAIApp/internal/fallback"
	"github.com/carrycooldude/EdgeAIApp/internal/logger"
	"github.com/carrycooldude/EdgeAIApp/internal/metrics"
)

// Result is the outcome of cleaning one decoded generation.
type Result struct {
	Text        string
	Substituted bool
}

// Filter applies the degenerate-output guards to decoded text. The
// model is small enough to loop on a word or drift into noise, so
// everything it says passes through here before reaching a caller.
type Filter struct {
	cfg       config.Filter
	responder *fallback.Responder
}

// NewFilter validates the thresholds. A nil responder gets the builtin
// keyword table.
func NewFilter(cfg config.Filter, r *fallback.Responder) (*Filter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("decode filter: %w", err)
	}
	if r == nil {
		r = fallback.New()
	}
	return &Filter{cfg: cfg, responder: r}, nil
}

// Clean runs the guards over decoded text and returns either the
// cleaned text or the keyword response for prompt when the text fails
// them. The returned text is never empty.
func (f *Filter) Clean(prompt, decoded string) Result {
	words := strings.Fields(decoded)
	words = f.collapseRuns(words)
	if len(words) > f.cfg.MinWordsForCap {
		words = f.capOccurrences(words)
	}

	text := strings.Join(words, " ")
	if f.degenerate(words, text) {
		metrics.RecordFallbackSubstitution()
		logger.Log.Debug("degenerate output replaced",
			"words", len(words), "chars", len(text))
		return Result{Text: f.responder.Respond(prompt), Substituted: true}
	}
	return Result{Text: text, Substituted: false}
}

// collapseRuns keeps at most MaxConsecutiveRepeats copies of a word in
// any consecutive run.
func (f *Filter) collapseRuns(words []string) []string {
	kept := make([]string, 0, len(words))
	run := 0
	for i, w := range words {
		if i > 0 && w == words[i-1] {
			run++
		} else {
			run = 1
		}
		if run <= f.cfg.MaxConsecutiveRepeats {
			kept = append(kept, w)
		}
	}
	return kept
}

// capOccurrences drops occurrences of a word beyond
// MaxWordOccurrences, counted across the whole output.
func (f *Filter) capOccurrences(words []string) []string {
	counts := make(map[string]int, len(words))
	kept := make([]string, 0, len(words))
	for _, w := range words {
		counts[w]++
		if counts[w] <= f.cfg.MaxWordOccurrences {
			kept = append(kept, w)
		}
	}
	return kept
}

// degenerate reports whether the cleaned output still is not worth
// returning: too short, empty, or dominated by a single word. The
// ratio is measured on the cleaned words.
func (f *Filter) degenerate(words []string, text string) bool {
	if len(text) <= f.cfg.MinChars {
		return true
	}
	if len(words) == 0 {
		return true
	}
	counts := make(map[string]int, len(words))
	maxFreq := 0
	for _, w := range words {
		counts[w]++
		if counts[w] > maxFreq {
			maxFreq = counts[w]
		}
	}
	ratio := float64(maxFreq) / float64(len(words))
	return ratio > f.cfg.MaxRepetitionRatio
}
