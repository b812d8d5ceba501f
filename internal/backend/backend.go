// Package backend runs the generation cascade: an ordered list of
// tiers tried best-first until one produces usable text. Tier failures
// are logged and counted, never surfaced; the caller sees whichever
// answer the first surviving tier produced.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/carrycooldude/EdgeAIApp/internal/logger"
	"github.com/carrycooldude/EdgeAIApp/internal/metrics"
)

// Canonical tier names, in cascade order.
const (
	TierLite         = "lite"
	TierNPU          = "npu"
	TierVendorFlight = "vendor-flight"
	TierVendorDirect = "vendor-direct"
	TierSoftware     = "software"
	TierCanned       = "canned"
)

// Tier is one rung of the cascade. Ready is a cheap availability
// probe; Run produces text or fails. Empty output counts as failure.
type Tier interface {
	Name() string
	Ready() bool
	Run(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// fallbackReporter is implemented by tiers whose successful output may
// be a templated response rather than model text.
type fallbackReporter interface {
	TookFallback() bool
}

// Result is the outcome of one cascade pass.
type Result struct {
	Text        string
	Tier        string
	Substituted bool
}

type Cascade struct {
	tiers []Tier
}

// New builds a cascade over the given tiers, tried in order. The
// assembler is expected to place a tier that cannot fail last; the
// cascade itself does not add one.
func New(tiers ...Tier) (*Cascade, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("cascade: no tiers configured")
	}
	return &Cascade{tiers: tiers}, nil
}

// Names returns the configured tier names in order.
func (c *Cascade) Names() []string {
	names := make([]string, len(c.tiers))
	for i, t := range c.tiers {
		names[i] = t.Name()
	}
	return names
}

// Generate walks the tiers until one answers. A tier that is not
// ready, returns an error, or returns blank output is skipped and the
// next one is consulted. With a terminal tier configured the returned
// text is never empty.
func (c *Cascade) Generate(ctx context.Context, prompt string, maxTokens int) Result {
	for _, tier := range c.tiers {
		name := tier.Name()
		if !tier.Ready() {
			metrics.RecordTierFailure(name, "unavailable")
			logger.Log.Debug("tier unavailable", "tier", name)
			continue
		}

		metrics.RecordTierAttempt(name)
		out, err := tier.Run(ctx, prompt, maxTokens)
		if err != nil {
			metrics.RecordTierFailure(name, "error")
			logger.Log.Warn("tier failed", "tier", name, "error", err.Error())
			continue
		}
		if strings.TrimSpace(out) == "" {
			metrics.RecordTierFailure(name, "empty")
			logger.Log.Warn("tier returned empty output", "tier", name)
			continue
		}

		metrics.RecordTierSuccess(name)
		res := Result{Text: out, Tier: name}
		if fr, ok := tier.(fallbackReporter); ok {
			res.Substituted = fr.TookFallback()
		}
		return res
	}

	// Reachable only when the cascade was assembled without a
	// terminal tier.
	logger.Log.Error("every tier failed", "tiers", len(c.tiers))
	return Result{}
}
