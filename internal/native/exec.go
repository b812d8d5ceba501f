package native

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/carrycooldude/EdgeAIApp/internal/logger"
)

// ExecRuntime drives an inference helper binary. The binary reads the
// prompt on stdin and writes its reply to stdout; a missing binary or
// model artifact just means the tier is unavailable on this device.
type ExecRuntime struct {
	binary    string
	path      string // resolved binary path
	modelPath string
}

// NewExecRuntime wraps the named helper binary, looked up on PATH at
// Initialize time.
func NewExecRuntime(binary string) *ExecRuntime {
	return &ExecRuntime{binary: binary}
}

func (r *ExecRuntime) Initialize(ctx context.Context, modelPath string) bool {
	path, err := exec.LookPath(r.binary)
	if err != nil {
		logger.Log.Debug("runner binary not found", "binary", r.binary)
		return false
	}
	if modelPath != "" {
		if _, err := os.Stat(modelPath); err != nil {
			logger.Log.Debug("model artifact missing for runner",
				"binary", r.binary, "model", modelPath)
			return false
		}
	}
	r.path = path
	r.modelPath = modelPath
	return true
}

func (r *ExecRuntime) RunInference(ctx context.Context, text string, maxTokens int) (string, error) {
	if r.path == "" {
		return SentinelNotInitialized, nil
	}

	args := []string{"generate", "--max-tokens", strconv.Itoa(maxTokens)}
	if r.modelPath != "" {
		args = append(args, "--model", r.modelPath)
	}
	cmd := exec.CommandContext(ctx, r.path, args...)
	cmd.Stdin = strings.NewReader(text)

	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (r *ExecRuntime) Release() {
	r.path = ""
	r.modelPath = ""
}
