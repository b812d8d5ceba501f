package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Request defaults applied when a caller leaves a field unset or passes
// a non-positive value.
const (
	DefaultMaxTokens   = 48
	DefaultTemperature = 0.75
)

// Model describes the shape of the on-device model. The JSON tags match
// the configuration artifact shipped alongside the weights; fields the
// artifact omits keep their defaults.
type Model struct {
	Dim              int     `json:"dim"`
	NHeads           int     `json:"n_heads"`
	NLayers          int     `json:"n_layers"`
	VocabSize        int     `json:"vocab_size"`
	NormEps          float64 `json:"norm_eps"`
	MultipleOf       int     `json:"multiple_of"`
	FFNDimMultiplier float64 `json:"ffn_dim_multiplier"`
	MaxSeqLen        int     `json:"max_seq_len"`
}

func DefaultModel() Model {
	return Model{
		Dim:              256,
		NHeads:           8,
		NLayers:          4,
		VocabSize:        512,
		NormEps:          1e-5,
		MultipleOf:       32,
		FFNDimMultiplier: 4.0,
		MaxSeqLen:        256,
	}
}

func (m Model) Validate() error {
	if m.Dim <= 0 {
		return fmt.Errorf("invalid dim: %d (must be positive)", m.Dim)
	}
	if m.NHeads <= 0 {
		return fmt.Errorf("invalid n_heads: %d (must be positive)", m.NHeads)
	}
	if m.NLayers <= 0 {
		return fmt.Errorf("invalid n_layers: %d (must be positive)", m.NLayers)
	}
	if m.VocabSize <= 0 {
		return fmt.Errorf("invalid vocab_size: %d (must be positive)", m.VocabSize)
	}
	if m.NormEps <= 0 {
		return fmt.Errorf("invalid norm_eps: %f (must be positive)", m.NormEps)
	}
	if m.MultipleOf <= 0 {
		return fmt.Errorf("invalid multiple_of: %d (must be positive)", m.MultipleOf)
	}
	if m.FFNDimMultiplier <= 0 {
		return fmt.Errorf("invalid ffn_dim_multiplier: %f (must be positive)", m.FFNDimMultiplier)
	}
	if m.MaxSeqLen <= 0 {
		return fmt.Errorf("invalid max_seq_len: %d (must be positive)", m.MaxSeqLen)
	}
	if m.FFNDim() <= 0 {
		return fmt.Errorf("invalid ffn dim: %d (derived from dim %d * multiplier %f)",
			m.FFNDim(), m.Dim, m.FFNDimMultiplier)
	}
	return nil
}

// FFNDim is the derived feed-forward width: dim * ffn_dim_multiplier,
// rounded, then padded up to a multiple of multiple_of. Identical for
// every layer.
func (m Model) FFNDim() int {
	ffn := int(math.Round(float64(m.Dim) * m.FFNDimMultiplier))
	if m.MultipleOf > 0 && ffn%m.MultipleOf != 0 {
		ffn = ((ffn / m.MultipleOf) + 1) * m.MultipleOf
	}
	return ffn
}

// LoadModel reads a configuration artifact. Fields absent from the file
// keep their defaults; the merged result is validated.
func LoadModel(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Model{}, fmt.Errorf("read model config: %w", err)
	}
	m := DefaultModel()
	if err := json.Unmarshal(data, &m); err != nil {
		return Model{}, fmt.Errorf("parse model config %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return Model{}, fmt.Errorf("model config %s: %w", path, err)
	}
	return m, nil
}

// Filter holds the decode-repair thresholds. They are empirically chosen
// constants, not load-bearing invariants; tests tune them freely.
type Filter struct {
	// MaxConsecutiveRepeats is how many times a word may appear in a row
	// before further consecutive copies are suppressed.
	MaxConsecutiveRepeats int
	// MaxWordOccurrences caps total occurrences of a single word once
	// the output is longer than MinWordsForCap words.
	MaxWordOccurrences int
	MinWordsForCap     int
	// MaxRepetitionRatio is the accepted ceiling for
	// maxWordFrequency/totalWords in assembled output.
	MaxRepetitionRatio float64
	// MinChars is the minimum assembled length; shorter decodes are
	// replaced by the templated fallback.
	MinChars int
}

func DefaultFilter() Filter {
	return Filter{
		MaxConsecutiveRepeats: 2,
		MaxWordOccurrences:    3,
		MinWordsForCap:        5,
		MaxRepetitionRatio:    0.3,
		MinChars:              10,
	}
}

func (f Filter) Validate() error {
	if f.MaxConsecutiveRepeats <= 0 {
		return fmt.Errorf("invalid max_consecutive_repeats: %d (must be positive)", f.MaxConsecutiveRepeats)
	}
	if f.MaxWordOccurrences <= 0 {
		return fmt.Errorf("invalid max_word_occurrences: %d (must be positive)", f.MaxWordOccurrences)
	}
	if f.MinWordsForCap <= 0 {
		return fmt.Errorf("invalid min_words_for_cap: %d (must be positive)", f.MinWordsForCap)
	}
	if f.MaxRepetitionRatio <= 0 || f.MaxRepetitionRatio > 1 {
		return fmt.Errorf("invalid max_repetition_ratio: %f (must be in (0,1])", f.MaxRepetitionRatio)
	}
	if f.MinChars < 0 {
		return fmt.Errorf("invalid min_chars: %d (must be non-negative)", f.MinChars)
	}
	return nil
}
