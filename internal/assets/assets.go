package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// EnvDir overrides the asset directory when no explicit dir is
// configured.
const EnvDir = "EDGEAI_ASSETS"

const manifestName = "manifest.json"

// Logical asset kinds the engine asks for.
const (
	KindModel     = "model"
	KindTokenizer = "tokenizer"
	KindConfig    = "config"
)

// ErrNotFound reports that an asset does not exist. The contract with
// callers is exactly "a readable path, or does-not-exist" - no copy or
// extraction mechanics live here.
var ErrNotFound = errors.New("asset not found")

// conventional maps kinds to the filenames used when the manifest does
// not name a path.
var conventional = map[string]string{
	KindModel:     "weights.eaiw",
	KindTokenizer: "vocab.txt",
	KindConfig:    "params.json",
}

// Manifest is the optional manifest.json at the asset-dir root.
type Manifest struct {
	Assets map[string]string `json:"assets"`
}

// Resolver maps logical asset kinds to files on the device filesystem.
type Resolver struct {
	dir      string
	manifest map[string]string
}

// NewResolver builds a resolver rooted at dir; when dir is empty the
// EDGEAI_ASSETS environment variable is consulted. A missing manifest
// is fine; a malformed one is an error.
func NewResolver(dir string) (*Resolver, error) {
	if dir == "" {
		dir = os.Getenv(EnvDir)
	}
	r := &Resolver{dir: dir}
	if dir == "" {
		return r, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("read asset manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse asset manifest in %s: %w", dir, err)
	}
	r.manifest = m.Assets
	return r, nil
}

// Dir returns the resolver root, "" when assets are not configured.
func (r *Resolver) Dir() string {
	return r.dir
}

// Resolve returns a readable path for the asset kind, or an error
// wrapping ErrNotFound. Manifest entries win over conventional
// filenames.
func (r *Resolver) Resolve(kind string) (string, error) {
	if r.dir == "" {
		return "", fmt.Errorf("asset %s: no asset directory: %w", kind, ErrNotFound)
	}

	rel, ok := r.manifest[kind]
	if !ok || rel == "" {
		rel, ok = conventional[kind]
		if !ok {
			return "", fmt.Errorf("asset %s: unknown kind: %w", kind, ErrNotFound)
		}
	}

	path := filepath.Join(r.dir, rel)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("asset %s at %s: %w", kind, path, ErrNotFound)
		}
		return "", fmt.Errorf("asset %s at %s: %w", kind, path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("asset %s at %s is a directory: %w", kind, path, ErrNotFound)
	}
	return path, nil
}
