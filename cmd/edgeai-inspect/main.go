// edgeai-inspect prints what the service would assemble from an asset
// directory: the resolved artifacts, the effective model config and the
// weight tensor table.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/carrycooldude/EdgeAIApp/internal/assets"
	"github.com/carrycooldude/EdgeAIApp/internal/config"
	"github.com/carrycooldude/EdgeAIApp/internal/params"
	"github.com/carrycooldude/EdgeAIApp/internal/vocab"
)

var assetsDir = flag.String("assets", "", "Asset directory (defaults to EDGEAI_ASSETS)")

func main() {
	flag.Parse()

	resolver, err := assets.NewResolver(*assetsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if resolver.Dir() == "" {
		fmt.Println("assets: none configured, everything falls back to builtins")
	} else {
		fmt.Printf("assets: %s\n", resolver.Dir())
	}

	cfg := config.DefaultModel()
	if path, err := resolver.Resolve(assets.KindConfig); err == nil {
		loaded, lerr := config.LoadModel(path)
		if lerr != nil {
			fmt.Printf("config: %s (unusable: %v)\n", path, lerr)
		} else {
			cfg = loaded
			fmt.Printf("config: %s\n", path)
		}
	} else {
		fmt.Println("config: builtin defaults")
	}

	voc := vocab.Default()
	if path, err := resolver.Resolve(assets.KindTokenizer); err == nil {
		loaded, lerr := vocab.Load(path)
		if lerr != nil {
			fmt.Printf("vocabulary: %s (unusable: %v)\n", path, lerr)
		} else {
			voc = loaded
			fmt.Printf("vocabulary: %s\n", path)
		}
	} else {
		fmt.Println("vocabulary: builtin table")
	}
	// The table is authoritative for the output dimension, same as the
	// service assembly.
	cfg.VocabSize = voc.Size()

	fmt.Printf("  dim=%d heads=%d layers=%d ffn=%d vocab=%d\n",
		cfg.Dim, cfg.NHeads, cfg.NLayers, cfg.FFNDim(), cfg.VocabSize)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config invalid: %v\n", err)
		os.Exit(1)
	}

	path, err := resolver.Resolve(assets.KindModel)
	if err != nil {
		fmt.Println("weights: none, the software tier would use the seeded build")
		return
	}
	store, err := params.LoadFile(path, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "weights: %s unusable: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("weights: %s (%d parameters, %d bytes resident)\n",
		path, store.NumParameters(), store.SizeBytes())
	for _, name := range store.Names() {
		buf, _ := store.Tensor(name)
		fmt.Printf("  %-40s %d\n", name, len(buf))
	}
}
