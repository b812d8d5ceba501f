// gen_assets writes a complete asset directory for local runs: model
// config, vocabulary and a seeded weights file that LoadFile accepts.
//
//	go run ./scripts/gen_assets -dir assets -dim 64
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/carrycooldude/EdgeAIApp/internal/config"
	"github.com/carrycooldude/EdgeAIApp/internal/params"
	"github.com/carrycooldude/EdgeAIApp/internal/vocab"
)

var (
	dir    = flag.String("dir", "assets", "Output directory")
	dim    = flag.Int("dim", 64, "Hidden dimension")
	layers = flag.Int("layers", 2, "Transformer block count")
	seed   = flag.Int64("seed", params.DefaultSeed, "Initialization seed")
	half   = flag.Bool("half", false, "Store weights in half precision")
)

func main() {
	flag.Parse()

	voc := vocab.Default()
	cfg := config.DefaultModel()
	cfg.Dim = *dim
	cfg.NLayers = *layers
	cfg.VocabSize = voc.Size()
	if err := cfg.Validate(); err != nil {
		fail(err)
	}

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		fail(err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		fail(err)
	}
	if err := os.WriteFile(filepath.Join(*dir, "params.json"), append(raw, '\n'), 0o644); err != nil {
		fail(err)
	}

	var words strings.Builder
	for id := vocab.EOS + 1; id < voc.Size(); id++ {
		words.WriteString(voc.Word(id))
		words.WriteByte('\n')
	}
	if err := os.WriteFile(filepath.Join(*dir, "vocab.txt"), []byte(words.String()), 0o644); err != nil {
		fail(err)
	}

	store, err := params.Build(cfg, *seed)
	if err != nil {
		fail(err)
	}
	weightsPath := filepath.Join(*dir, "weights.eaiw")
	if err := params.WriteFile(weightsPath, store, *half); err != nil {
		fail(err)
	}

	fmt.Printf("wrote %s: dim=%d layers=%d vocab=%d parameters=%d (%d bytes on disk)\n",
		*dir, cfg.Dim, cfg.NLayers, cfg.VocabSize, store.NumParameters(), fileSize(weightsPath))
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
