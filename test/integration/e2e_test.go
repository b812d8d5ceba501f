package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carrycooldude/EdgeAIApp/internal/backend"
	"github.com/carrycooldude/EdgeAIApp/internal/config"
	"github.com/carrycooldude/EdgeAIApp/internal/edge"
	"github.com/carrycooldude/EdgeAIApp/internal/params"
	"github.com/carrycooldude/EdgeAIApp/internal/server"
	"github.com/carrycooldude/EdgeAIApp/internal/vocab"
)

// writeAssets builds a complete asset directory: model config,
// vocabulary and a matching weights file.
func writeAssets(t *testing.T, dir string) config.Model {
	t.Helper()

	words := []string{
		"the", "sun", "rises", "over", "hills", "and", "light",
		"fills", "every", "valley", "morning", "air", "is", "cool",
	}
	cfg := config.Model{
		Dim: 16, NHeads: 2, NLayers: 2,
		VocabSize: len(words) + 3, // reserved markers
		NormEps:   1e-5, MultipleOf: 8, FFNDimMultiplier: 2.0, MaxSeqLen: 32,
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal model config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "params.json"), raw, 0o644); err != nil {
		t.Fatalf("write params.json: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "vocab.txt"),
		[]byte(strings.Join(words, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write vocab.txt: %v", err)
	}

	store, err := params.Build(cfg, params.DefaultSeed)
	if err != nil {
		t.Fatalf("build parameters: %v", err)
	}
	if err := params.WriteFile(filepath.Join(dir, "weights.eaiw"), store, false); err != nil {
		t.Fatalf("write weights: %v", err)
	}
	return cfg
}

// TestFullStack drives the whole assembly over HTTP: assets on disk,
// native tiers pointed at dead endpoints, generation falling through
// to the software engine, history recorded in SQLite.
func TestFullStack(t *testing.T) {
	assetsDir := t.TempDir()
	cfg := writeAssets(t, assetsDir)

	opts := edge.DefaultOptions()
	opts.AssetsDir = assetsDir
	opts.HistoryPath = filepath.Join(t.TempDir(), "history.db")
	opts.Sampler.Seed = 7
	// Native endpoints that cannot exist, so every accelerator tier
	// fails its probe and the cascade advances silently.
	opts.LiteRunner = "edgeai-integration-no-such-lite"
	opts.NPURunner = "edgeai-integration-no-such-npu"
	opts.FlightAddr = "127.0.0.1:1"
	opts.SocketNetwork = "tcp"
	opts.SocketAddr = "127.0.0.1:1"

	svc := edge.NewService(opts)
	t.Cleanup(svc.Release)

	ts := httptest.NewServer(server.New(svc).Handler())
	t.Cleanup(ts.Close)

	// Health first: six tiers assembled, software engine live, vocab
	// taken from the asset table.
	hres, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	var health server.HealthResponse
	if err := json.NewDecoder(hres.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	hres.Body.Close()
	wantTiers := []string{
		backend.TierLite, backend.TierNPU, backend.TierVendorFlight,
		backend.TierVendorDirect, backend.TierSoftware, backend.TierCanned,
	}
	if len(health.Tiers) != len(wantTiers) {
		t.Fatalf("tiers = %v, want %v", health.Tiers, wantTiers)
	}
	for i, name := range wantTiers {
		if health.Tiers[i] != name {
			t.Errorf("tiers[%d] = %q, want %q", i, health.Tiers[i], name)
		}
	}
	if !health.SoftwareEngine {
		t.Fatal("software engine not ready with valid assets")
	}
	if health.VocabSize != cfg.VocabSize {
		t.Errorf("vocab_size = %d, want %d", health.VocabSize, cfg.VocabSize)
	}

	// Generate: the accelerators are dead, so the software tier must
	// answer.
	body, _ := json.Marshal(server.GenerateRequest{Prompt: "the sun rises", MaxTokens: 16})
	gres, err := http.Post(ts.URL+"/api/generate", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/generate: %v", err)
	}
	if gres.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d", gres.StatusCode)
	}
	var gen server.GenerateResponse
	if err := json.NewDecoder(gres.Body).Decode(&gen); err != nil {
		t.Fatalf("decode generate: %v", err)
	}
	gres.Body.Close()
	if gen.Text == "" {
		t.Fatal("generated text is empty")
	}
	if gen.Tier != backend.TierSoftware {
		t.Errorf("tier = %q, want %q", gen.Tier, backend.TierSoftware)
	}
	if !gen.Substituted {
		// The sampled text may legitimately pass the filter; both
		// outcomes are valid, but unfiltered words must come from the
		// table.
		voc, err := vocab.Load(filepath.Join(assetsDir, "vocab.txt"))
		if err != nil {
			t.Fatalf("reload vocabulary: %v", err)
		}
		for _, w := range strings.Fields(gen.Text) {
			if voc.ID(w) == vocab.UNK {
				t.Errorf("generated word %q not in vocabulary", w)
			}
		}
	}

	// The request must be on record.
	histRes, err := http.Get(ts.URL + "/api/history")
	if err != nil {
		t.Fatalf("GET /api/history: %v", err)
	}
	var entries []map[string]interface{}
	if err := json.NewDecoder(histRes.Body).Decode(&entries); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	histRes.Body.Close()
	if len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}
	if entries[0]["prompt"] != "the sun rises" {
		t.Errorf("recorded prompt = %v", entries[0]["prompt"])
	}

	// Metrics reflect the cascade walk: the dead lite tier shows up as
	// a failure, the request counter moved.
	mres, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	raw, err := io.ReadAll(mres.Body)
	mres.Body.Close()
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	mbody := string(raw)
	for _, want := range []string{
		"edgeai_generate_requests_total",
		fmt.Sprintf("tier=%q", backend.TierLite),
	} {
		if !strings.Contains(mbody, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}
