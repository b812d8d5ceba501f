// Package edge assembles the full generation stack behind one facade:
// vocabulary, parameter store, forward-pass engine, decode filter, the
// backend cascade and the history log. The facade owns the lifecycle
// guarantees: initialization happens exactly once, one generation runs
// at a time, and a request always gets an answer.
package edge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/carrycooldude/EdgeAIApp/internal/assets"
	"github.com/carrycooldude/EdgeAIApp/internal/backend"
	"github.com/carrycooldude/EdgeAIApp/internal/config"
	"github.com/carrycooldude/EdgeAIApp/internal/decode"
	"github.com/carrycooldude/EdgeAIApp/internal/engine"
	"github.com/carrycooldude/EdgeAIApp/internal/fallback"
	"github.com/carrycooldude/EdgeAIApp/internal/history"
	"github.com/carrycooldude/EdgeAIApp/internal/logger"
	"github.com/carrycooldude/EdgeAIApp/internal/metrics"
	"github.com/carrycooldude/EdgeAIApp/internal/native"
	"github.com/carrycooldude/EdgeAIApp/internal/params"
	"github.com/carrycooldude/EdgeAIApp/internal/vocab"
)

// MaxTokensCeiling is the hard upper clamp on a single generation.
const MaxTokensCeiling = 256

// Default native endpoints. All of them are expected to be absent on
// most devices; absence only narrows the cascade.
const (
	DefaultLiteRunner  = "edgeai-lite-runner"
	DefaultNPURunner   = "edgeai-npu-runner"
	DefaultFlightAddr  = "127.0.0.1:8815"
	DefaultSocketAddr  = "/run/edgeai/inference.sock"
	DefaultSocketProto = "unix"
)

// ErrReleased is returned when a released service is asked to
// generate.
var ErrReleased = errors.New("service released")

// Options configure the service assembly. Zero values select the
// builtin defaults.
type Options struct {
	Model   config.Model
	Filter  config.Filter
	Sampler engine.SamplerConfig

	// Seed drives the reproducible parameter build.
	Seed int64

	// MaxParameters caps the parameter build; exceeding it disables
	// the software tier instead of failing initialization.
	MaxParameters int64

	// AssetsDir roots the asset resolver. Empty falls back to the
	// EDGEAI_ASSETS environment variable.
	AssetsDir string

	// HistoryPath enables the generation log when non-empty.
	HistoryPath string

	// MaxTokens is the per-request default.
	MaxTokens int

	// Native endpoints.
	LiteRunner    string
	NPURunner     string
	FlightAddr    string
	SocketNetwork string
	SocketAddr    string

	// DisableNative drops tiers 1-4 from the cascade. Useful for
	// tests and for devices known to carry no runtimes.
	DisableNative bool
}

func DefaultOptions() Options {
	return Options{
		Model:         config.DefaultModel(),
		Filter:        config.DefaultFilter(),
		Seed:          params.DefaultSeed,
		MaxParameters: params.DefaultMaxParameters,
		MaxTokens:     config.DefaultMaxTokens,
		LiteRunner:    DefaultLiteRunner,
		NPURunner:     DefaultNPURunner,
		FlightAddr:    DefaultFlightAddr,
		SocketNetwork: DefaultSocketProto,
		SocketAddr:    DefaultSocketAddr,
	}
}

// Request is one generation ask. Temperature is carried for API
// compatibility and recorded; sampling follows the fixed step schedule.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Result is the answer the caller sees.
type Result struct {
	Text            string
	Tier            string
	TokensGenerated int
	Duration        time.Duration
	Substituted     bool
}

type Service struct {
	opts Options

	initOnce sync.Once
	initErr  error

	mu       sync.Mutex // serializes generations and release
	released bool

	cfg       config.Model
	voc       *vocab.Vocabulary
	eng       *engine.Engine
	cascade   *backend.Cascade
	hist      *history.Store
	responder *fallback.Responder
	releasers []interface{ Release() }
}

func NewService(opts Options) *Service {
	if opts.Seed == 0 {
		opts.Seed = params.DefaultSeed
	}
	if opts.MaxParameters <= 0 {
		opts.MaxParameters = params.DefaultMaxParameters
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = config.DefaultMaxTokens
	}
	return &Service{opts: opts, responder: fallback.New()}
}

// Initialize assembles the stack. It runs at most once; later calls
// return the first outcome. Component failures narrow the cascade
// instead of failing initialization, so a device with no working
// backend at all still answers from the keyword table.
func (s *Service) Initialize(ctx context.Context) error {
	// Checked before the once so a cancelled caller does not burn the
	// only build attempt.
	if err := ctx.Err(); err != nil {
		return err
	}
	s.initOnce.Do(func() { s.initErr = s.build() })
	return s.initErr
}

func (s *Service) build() error {
	start := time.Now()

	resolver, err := assets.NewResolver(s.opts.AssetsDir)
	if err != nil {
		logger.Log.Warn("asset manifest unusable, continuing without assets", "error", err.Error())
		resolver = &assets.Resolver{}
	}

	s.cfg = s.loadModelConfig(resolver)
	s.voc = s.loadVocabulary(resolver)

	// The vocabulary table is authoritative for the output dimension.
	if s.voc.Size() != s.cfg.VocabSize {
		logger.Log.Debug("overriding vocab_size from table",
			"config", s.cfg.VocabSize, "table", s.voc.Size())
		s.cfg.VocabSize = s.voc.Size()
	}
	metrics.RecordVocabulary(s.voc.Size())

	store := s.loadParameters(resolver)
	if store != nil {
		metrics.RecordParameterStore(store.SizeBytes())
		eng, err := engine.New(s.cfg, store, s.voc, engine.NewSampler(s.opts.Sampler))
		if err != nil {
			logger.Log.Warn("software engine unavailable", "error", err.Error())
		} else {
			s.eng = eng
		}
	}

	filter, err := decode.NewFilter(s.filterConfig(), s.responder)
	if err != nil {
		logger.Log.Warn("invalid filter thresholds, using defaults", "error", err.Error())
		filter, _ = decode.NewFilter(config.DefaultFilter(), s.responder)
	}

	tiers := s.assembleTiers(resolver, filter)
	cascade, err := backend.New(tiers...)
	if err != nil {
		return fmt.Errorf("assemble cascade: %w", err)
	}
	s.cascade = cascade

	if s.opts.HistoryPath != "" {
		hist, err := history.Open(s.opts.HistoryPath)
		if err != nil {
			logger.Log.Warn("history store unavailable", "path", s.opts.HistoryPath, "error", err.Error())
		} else {
			s.hist = hist
		}
	}

	logger.Log.Info("edge service initialized",
		"tiers", strings.Join(cascade.Names(), ","),
		"vocab", s.voc.Size(),
		"software", s.eng != nil,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (s *Service) loadModelConfig(resolver *assets.Resolver) config.Model {
	cfg := s.opts.Model
	if cfg.Dim == 0 {
		cfg = config.DefaultModel()
	}
	path, err := resolver.Resolve(assets.KindConfig)
	if err != nil {
		return cfg
	}
	loaded, err := config.LoadModel(path)
	if err != nil {
		logger.Log.Warn("model config artifact unusable, keeping defaults",
			"path", path, "error", err.Error())
		return cfg
	}
	logger.Log.Debug("model config loaded", "path", path, "dim", loaded.Dim)
	return loaded
}

func (s *Service) loadVocabulary(resolver *assets.Resolver) *vocab.Vocabulary {
	path, err := resolver.Resolve(assets.KindTokenizer)
	if err != nil {
		return vocab.Default()
	}
	voc, err := vocab.Load(path)
	if err != nil {
		logger.Log.Warn("vocabulary artifact unusable, using builtin table",
			"path", path, "error", err.Error())
		return vocab.Default()
	}
	logger.Log.Debug("vocabulary loaded", "path", path, "words", voc.Size())
	return voc
}

// loadParameters prefers a weights artifact and falls back to the
// seeded build. Either failing just means no software tier.
func (s *Service) loadParameters(resolver *assets.Resolver) *params.Store {
	if path, err := resolver.Resolve(assets.KindModel); err == nil {
		store, err := params.LoadFile(path, s.cfg)
		if err == nil {
			logger.Log.Info("weights loaded", "path", path, "parameters", store.NumParameters())
			return store
		}
		logger.Log.Warn("weights artifact unusable, rebuilding from seed",
			"path", path, "error", err.Error())
	}

	store, err := params.BuildWithBudget(s.cfg, s.opts.Seed, s.opts.MaxParameters)
	if err != nil {
		logger.Log.Warn("parameter build failed, software tier disabled", "error", err.Error())
		return nil
	}
	return store
}

func (s *Service) filterConfig() config.Filter {
	f := s.opts.Filter
	def := config.DefaultFilter()
	if f.MaxConsecutiveRepeats <= 0 {
		f.MaxConsecutiveRepeats = def.MaxConsecutiveRepeats
	}
	if f.MaxWordOccurrences <= 0 {
		f.MaxWordOccurrences = def.MaxWordOccurrences
	}
	if f.MinWordsForCap <= 0 {
		f.MinWordsForCap = def.MinWordsForCap
	}
	if f.MaxRepetitionRatio <= 0 {
		f.MaxRepetitionRatio = def.MaxRepetitionRatio
	}
	if f.MinChars <= 0 {
		f.MinChars = def.MinChars
	}
	return f
}

func (s *Service) assembleTiers(resolver *assets.Resolver, filter *decode.Filter) []backend.Tier {
	var tiers []backend.Tier

	if !s.opts.DisableNative {
		modelPath := ""
		if p, err := resolver.Resolve(assets.KindModel); err == nil {
			modelPath = p
		}

		lite := backend.NewNativeTier(backend.TierLite,
			native.NewExecRuntime(s.orDefault(s.opts.LiteRunner, DefaultLiteRunner)), modelPath)
		npu := backend.NewNativeTier(backend.TierNPU,
			native.NewExecRuntime(s.orDefault(s.opts.NPURunner, DefaultNPURunner)), modelPath)
		vendorFlight := backend.NewNativeTier(backend.TierVendorFlight,
			native.NewFlightRuntime(s.orDefault(s.opts.FlightAddr, DefaultFlightAddr)), modelPath)
		vendorDirect := backend.NewNativeTier(backend.TierVendorDirect,
			native.NewSocketRuntime(
				s.orDefault(s.opts.SocketNetwork, DefaultSocketProto),
				s.orDefault(s.opts.SocketAddr, DefaultSocketAddr)), modelPath)

		tiers = append(tiers, lite, npu, vendorFlight, vendorDirect)
		s.releasers = append(s.releasers, lite, npu, vendorFlight, vendorDirect)
	}

	tiers = append(tiers,
		backend.NewSoftwareTier(s.eng, s.voc, filter),
		backend.NewCannedTier(s.responder))
	return tiers
}

func (s *Service) orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Generate runs one request through the cascade. The returned text is
// never empty; the only error a caller can see is use after Release.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	if err := s.Initialize(ctx); err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return Result{}, ErrReleased
	}

	prompt := strings.TrimSpace(req.Prompt)
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.opts.MaxTokens
	}
	if maxTokens > MaxTokensCeiling {
		maxTokens = MaxTokensCeiling
	}
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = config.DefaultTemperature
	}

	start := time.Now()
	res := s.cascade.Generate(ctx, prompt, maxTokens)
	if res.Text == "" {
		// Only possible with a hand-assembled cascade missing the
		// terminal tier; answer anyway.
		res = backend.Result{Text: s.responder.Respond(prompt), Tier: backend.TierCanned, Substituted: true}
	}
	duration := time.Since(start)

	tokens := len(strings.Fields(res.Text))
	metrics.RecordGeneration(tokens, duration)
	logger.Log.Info("generation complete",
		"tier", res.Tier, "tokens", tokens, "temperature", temperature,
		"duration_ms", duration.Milliseconds(), "substituted", res.Substituted)

	if s.hist != nil {
		err := s.hist.Append(ctx, history.Entry{
			Prompt:     prompt,
			Response:   res.Text,
			Tier:       res.Tier,
			Tokens:     tokens,
			DurationMS: duration.Milliseconds(),
		})
		if err != nil {
			logger.Log.Warn("history write failed", "error", err.Error())
		}
	}

	return Result{
		Text:            res.Text,
		Tier:            res.Tier,
		TokensGenerated: tokens,
		Duration:        duration,
		Substituted:     res.Substituted,
	}, nil
}

// RunInference is the total convenience wrapper: it always returns
// usable text, falling back to the keyword table even on misuse.
func (s *Service) RunInference(ctx context.Context, prompt string, maxTokens int) string {
	res, err := s.Generate(ctx, Request{Prompt: prompt, MaxTokens: maxTokens})
	if err != nil {
		return s.responder.Respond(prompt)
	}
	return res.Text
}

// History returns recent generations, oldest first. Without a
// configured history store it returns an empty slice.
func (s *Service) History(ctx context.Context, limit int) ([]history.Entry, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	if s.hist == nil {
		return nil, nil
	}
	return s.hist.Recent(ctx, limit)
}

// Config returns the resolved model configuration. Valid after
// Initialize.
func (s *Service) Config() config.Model {
	return s.cfg
}

// Tiers returns the assembled cascade order. Valid after Initialize.
func (s *Service) Tiers() []string {
	if s.cascade == nil {
		return nil
	}
	return s.cascade.Names()
}

// SoftwareReady reports whether the in-process engine came up.
func (s *Service) SoftwareReady() bool {
	return s.eng != nil
}

// Release tears down native runtimes and the history store. Idempotent;
// generations after Release fail with ErrReleased.
func (s *Service) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true

	for _, r := range s.releasers {
		r.Release()
	}
	if s.hist != nil {
		if err := s.hist.Close(); err != nil {
			logger.Log.Warn("history close failed", "error", err.Error())
		}
	}
	logger.Log.Info("edge service released")
}
