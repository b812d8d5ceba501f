// Package native holds the adapters that bridge the generation
// cascade to out-of-process inference backends. Every backend follows
// the same three-primitive contract: initialize against a model
// artifact, run inference, release. Backends signal inability to serve
// through sentinel replies rather than errors, so an adapter can treat
// "the runtime answered but refused" and "the runtime is absent" the
// same way.
package native

import (
	"context"
	"strings"
)

// Sentinel replies. A backend that has not been initialized, or whose
// underlying call is compiled out, answers with one of these instead
// of generated text.
const (
	SentinelNotInitialized = "NOT_INITIALIZED"
	SentinelNoop           = "NOOP"
)

// Runtime is the contract every native backend adapter implements.
// Initialize reports readiness instead of returning an error; a false
// return means the tier is unavailable, not that the program is
// broken. RunInference may return an error, an empty string, or a
// sentinel; all three count as a tier failure upstream. Release is
// idempotent.
type Runtime interface {
	Initialize(ctx context.Context, modelPath string) bool
	RunInference(ctx context.Context, text string, maxTokens int) (string, error)
	Release()
}

// IsFailure reports whether a backend reply counts as a failed
// attempt: empty output or a sentinel.
func IsFailure(out string) bool {
	switch strings.TrimSpace(out) {
	case "", SentinelNotInitialized, SentinelNoop:
		return true
	}
	return false
}
