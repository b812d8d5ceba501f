package engine

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/carrycooldude/EdgeAIApp/internal/vocab"
)

// SamplerConfig tunes the token chooser. The zero value of any field
// falls back to the matching default, so a partially filled struct is
// safe to pass.
type SamplerConfig struct {
	// Temperature schedule by step index: early (steps 0-2) is
	// conservative, mid (3-9) loosens, late (10+) is the most free.
	EarlyTemperature float64
	MidTemperature   float64
	LateTemperature  float64

	// Nucleus cut applied after the top-k truncation.
	TopP float64

	// Dynamic top-k: BaseTopK for steps 0-1, widening linearly to
	// MaxTopK by step 15.
	BaseTopK int
	MaxTopK  int

	// Multiplier in (0,1] applied to the exponentiated logit of any
	// token seen in the last RepetitionWindow emissions. 1 disables
	// the penalty.
	RepetitionPenalty float64
	RepetitionWindow  int

	// Seed fixes the random stream for reproducible runs. 0 seeds
	// from the wall clock.
	Seed int64
}

func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		EarlyTemperature:  0.35,
		MidTemperature:    0.6,
		LateTemperature:   0.85,
		TopP:              0.9,
		BaseTopK:          3,
		MaxTopK:           20,
		RepetitionPenalty: 0.75,
		RepetitionWindow:  5,
	}
}

type Sampler struct {
	cfg   SamplerConfig
	seed  int64
	calls int64
}

func NewSampler(cfg SamplerConfig) *Sampler {
	def := DefaultSamplerConfig()
	if cfg.EarlyTemperature <= 0 {
		cfg.EarlyTemperature = def.EarlyTemperature
	}
	if cfg.MidTemperature <= 0 {
		cfg.MidTemperature = def.MidTemperature
	}
	if cfg.LateTemperature <= 0 {
		cfg.LateTemperature = def.LateTemperature
	}
	if cfg.TopP <= 0 || cfg.TopP > 1 {
		cfg.TopP = def.TopP
	}
	if cfg.BaseTopK <= 0 {
		cfg.BaseTopK = def.BaseTopK
	}
	if cfg.MaxTopK < cfg.BaseTopK {
		cfg.MaxTopK = cfg.BaseTopK
		if def.MaxTopK > cfg.MaxTopK {
			cfg.MaxTopK = def.MaxTopK
		}
	}
	if cfg.RepetitionPenalty <= 0 || cfg.RepetitionPenalty > 1 {
		cfg.RepetitionPenalty = def.RepetitionPenalty
	}
	if cfg.RepetitionWindow <= 0 {
		cfg.RepetitionWindow = def.RepetitionWindow
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{cfg: cfg, seed: seed}
}

type tokenProb struct {
	id   int
	prob float64
}

// Sample picks the next token id from raw logits. previous holds the
// tokens emitted so far and step is the index of the emission being
// chosen. Returns EOS when no valid candidate survives, which the step
// loop treats as termination.
func (s *Sampler) Sample(logits []float32, previous []int, step int) int {
	if len(logits) == 0 {
		return vocab.EOS
	}

	temp := s.temperature(step)

	// Exponentiate with max subtraction for stability. NaN and Inf
	// entries are dropped rather than poisoning the distribution.
	maxLogit := math.Inf(-1)
	for _, v := range logits {
		f := float64(v)
		if !math.IsNaN(f) && !math.IsInf(f, 0) && f > maxLogit {
			maxLogit = f
		}
	}
	if math.IsInf(maxLogit, -1) {
		return vocab.EOS
	}

	candidates := make([]tokenProb, 0, len(logits))
	for i, v := range logits {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		p := math.Exp((f - maxLogit) / temp)
		if p > 0 {
			candidates = append(candidates, tokenProb{id: i, prob: p})
		}
	}
	if len(candidates) == 0 {
		return vocab.EOS
	}

	s.applyRepetitionPenalty(candidates, previous)
	normalize(candidates)

	// Stable sort keeps equal-probability ties in id order, which
	// keeps fixed-seed runs reproducible across platforms.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].prob > candidates[j].prob
	})

	candidates = applyTopK(candidates, s.topK(step))
	candidates = applyTopP(candidates, s.cfg.TopP)
	if len(candidates) == 0 {
		return vocab.EOS
	}

	return s.drawFrom(candidates, step)
}

// temperature implements the three-band schedule.
func (s *Sampler) temperature(step int) float64 {
	switch {
	case step < 3:
		return s.cfg.EarlyTemperature
	case step < 10:
		return s.cfg.MidTemperature
	default:
		return s.cfg.LateTemperature
	}
}

// topK widens from BaseTopK at steps 0-1 to MaxTopK by step 15. The
// ramp is monotone, so later steps are never more restrictive.
func (s *Sampler) topK(step int) int {
	if step <= 1 {
		return s.cfg.BaseTopK
	}
	span := s.cfg.MaxTopK - s.cfg.BaseTopK
	k := s.cfg.BaseTopK + (step-1)*span/14
	if k > s.cfg.MaxTopK {
		k = s.cfg.MaxTopK
	}
	return k
}

// applyRepetitionPenalty scales down the exponentiated weight of every
// token id present in the recent emission window. Runs before
// normalization so the surviving mass is redistributed.
func (s *Sampler) applyRepetitionPenalty(candidates []tokenProb, previous []int) {
	if len(previous) == 0 || s.cfg.RepetitionPenalty >= 1 {
		return
	}
	start := len(previous) - s.cfg.RepetitionWindow
	if start < 0 {
		start = 0
	}
	recent := make(map[int]struct{}, s.cfg.RepetitionWindow)
	for _, id := range previous[start:] {
		recent[id] = struct{}{}
	}
	for i := range candidates {
		if _, ok := recent[candidates[i].id]; ok {
			candidates[i].prob *= s.cfg.RepetitionPenalty
		}
	}
}

func normalize(candidates []tokenProb) {
	sum := 0.0
	for _, c := range candidates {
		sum += c.prob
	}
	if sum <= 0 {
		return
	}
	for i := range candidates {
		candidates[i].prob /= sum
	}
}

func applyTopK(candidates []tokenProb, k int) []tokenProb {
	if k <= 0 || k >= len(candidates) {
		return candidates
	}
	return candidates[:k]
}

// applyTopP keeps the smallest prefix of the sorted candidates whose
// cumulative probability reaches p, then renormalizes it.
func applyTopP(candidates []tokenProb, p float64) []tokenProb {
	if p >= 1.0 || p <= 0.0 {
		return candidates
	}
	sum := 0.0
	for i, c := range candidates {
		sum += c.prob
		if sum >= p {
			selected := candidates[:i+1]
			normalize(selected)
			return selected
		}
	}
	return candidates
}

// drawFrom runs the inverse-CDF walk over the surviving candidates.
// Each call gets a fresh source mixing the base seed, the step index
// and a call counter, so retries of the same step never replay the
// same draw.
func (s *Sampler) drawFrom(candidates []tokenProb, step int) int {
	s.calls++
	rng := rand.New(rand.NewSource(s.seed + int64(step)*1_000_003 + s.calls))

	sum := 0.0
	for _, c := range candidates {
		sum += c.prob
	}
	r := rng.Float64() * sum
	acc := 0.0
	for _, c := range candidates {
		acc += c.prob
		if r < acc {
			return c.id
		}
	}
	return candidates[0].id
}
