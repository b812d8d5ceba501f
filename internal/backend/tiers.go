package backend

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/carrycooldude/EdgeAIApp/internal/decode"
	"github.com/carrycooldude/EdgeAIApp/internal/engine"
	"github.com/carrycooldude/EdgeAIApp/internal/fallback"
	"github.com/carrycooldude/EdgeAIApp/internal/native"
	"github.com/carrycooldude/EdgeAIApp/internal/vocab"
)

// NativeTier adapts a native runtime into a cascade rung. The
// availability probe runs once and is cached; a runtime that was down
// at startup stays out of the cascade for the process lifetime.
type NativeTier struct {
	name      string
	rt        native.Runtime
	modelPath string

	probeOnce sync.Once
	ready     bool
}

func NewNativeTier(name string, rt native.Runtime, modelPath string) *NativeTier {
	return &NativeTier{name: name, rt: rt, modelPath: modelPath}
}

func (t *NativeTier) Name() string { return t.name }

func (t *NativeTier) Ready() bool {
	t.probeOnce.Do(func() {
		t.ready = t.rt.Initialize(context.Background(), t.modelPath)
	})
	return t.ready
}

func (t *NativeTier) Run(ctx context.Context, prompt string, maxTokens int) (string, error) {
	out, err := t.rt.RunInference(ctx, prompt, maxTokens)
	if err != nil {
		return "", err
	}
	if native.IsFailure(out) {
		return "", fmt.Errorf("backend %s: no usable output (%q)", t.name, strings.TrimSpace(out))
	}
	return out, nil
}

// Release tears the runtime down. After Release the tier reports not
// ready until a process restart.
func (t *NativeTier) Release() {
	t.probeOnce.Do(func() {})
	t.ready = false
	t.rt.Release()
}

// SoftwareTier runs the in-process forward pass and cleans its output
// through the decode filter. Because the filter substitutes a canned
// response for degenerate text, a ready software tier always answers.
type SoftwareTier struct {
	eng    *engine.Engine
	voc    *vocab.Vocabulary
	filter *decode.Filter

	substituted bool // last run only; generations are serialized upstream
}

func NewSoftwareTier(eng *engine.Engine, voc *vocab.Vocabulary, filter *decode.Filter) *SoftwareTier {
	return &SoftwareTier{eng: eng, voc: voc, filter: filter}
}

func (t *SoftwareTier) Name() string { return TierSoftware }

func (t *SoftwareTier) Ready() bool {
	return t.eng != nil && t.voc != nil && t.filter != nil
}

func (t *SoftwareTier) Run(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ids, _, err := t.eng.Generate(ctx, prompt, maxTokens)
	if err != nil {
		return "", err
	}
	res := t.filter.Clean(prompt, t.voc.Decode(ids))
	t.substituted = res.Substituted
	return res.Text, nil
}

func (t *SoftwareTier) TookFallback() bool { return t.substituted }

// CannedTier answers from the keyword table. It is always ready and
// never returns empty text, which is what makes the cascade total.
type CannedTier struct {
	responder *fallback.Responder
}

func NewCannedTier(r *fallback.Responder) *CannedTier {
	if r == nil {
		r = fallback.New()
	}
	return &CannedTier{responder: r}
}

func (t *CannedTier) Name() string { return TierCanned }

func (t *CannedTier) Ready() bool { return true }

func (t *CannedTier) Run(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return t.responder.Respond(prompt), nil
}

func (t *CannedTier) TookFallback() bool { return true }
