package engine

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/carrycooldude/EdgeAIApp/internal/config"
	"github.com/carrycooldude/EdgeAIApp/internal/logger"
	"github.com/carrycooldude/EdgeAIApp/internal/metrics"
	"github.com/carrycooldude/EdgeAIApp/internal/params"
	"github.com/carrycooldude/EdgeAIApp/internal/vocab"
)

// Leaky recurrent update: after each emitted token the persistent
// hidden vector becomes carryWeight*old + blendWeight*embedding(token).
const (
	carryWeight = 0.8
	blendWeight = 0.2
)

// AttemptFactor bounds the step loop. A generation consumes at most
// AttemptFactor*maxTokens forward passes, so it always terminates even
// when every sample is rejected.
const AttemptFactor = 2

// Weights groups the resolved tensors by role. Per-layer slices are
// indexed by layer number.
type Weights struct {
	TokenEmb []float32 // vocab x dim
	Output   []float32 // vocab x dim
	Norm     []float32 // dim

	AttnQ [][]float32 // dim x dim
	AttnO [][]float32 // dim x dim
	FfnUp [][]float32 // ffn x dim
	FfnDn [][]float32 // dim x ffn
}

// Engine is the in-process forward pass. A single hidden vector of
// length dim carries all sequence state across steps; there is no
// positional attention and no key/value cache. That shape is the
// contract, not an oversight to repair.
type Engine struct {
	cfg     config.Model
	voc     *vocab.Vocabulary
	sampler *Sampler
	weights *Weights

	hidden []float32 // persistent recurrent state

	// per-step scratch, reused across calls
	work     []float32
	attn     []float32
	attnOut  []float32
	ffnInner []float32
	ffnOut   []float32
	logits   []float32
}

// New resolves every tensor up front so generation never fails on a
// missing name mid-stream. A nil sampler gets the default config.
func New(cfg config.Model, store *params.Store, v *vocab.Vocabulary, s *Sampler) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine init: %w", err)
	}
	if v == nil {
		return nil, fmt.Errorf("engine init: nil vocabulary")
	}
	if v.Size() != cfg.VocabSize {
		return nil, fmt.Errorf("engine init: vocabulary size %d does not match config vocab_size %d",
			v.Size(), cfg.VocabSize)
	}
	if s == nil {
		s = NewSampler(DefaultSamplerConfig())
	}

	w, err := resolveWeights(cfg, store)
	if err != nil {
		return nil, fmt.Errorf("engine init: %w", err)
	}

	dim, ffn := cfg.Dim, cfg.FFNDim()
	return &Engine{
		cfg:      cfg,
		voc:      v,
		sampler:  s,
		weights:  w,
		hidden:   make([]float32, dim),
		work:     make([]float32, dim),
		attn:     make([]float32, dim),
		attnOut:  make([]float32, dim),
		ffnInner: make([]float32, ffn),
		ffnOut:   make([]float32, dim),
		logits:   make([]float32, cfg.VocabSize),
	}, nil
}

func resolveWeights(cfg config.Model, store *params.Store) (*Weights, error) {
	w := &Weights{}
	var err error
	if w.TokenEmb, err = store.Tensor(params.TokenEmbeddings); err != nil {
		return nil, err
	}
	if w.Output, err = store.Tensor(params.Output); err != nil {
		return nil, err
	}
	if w.Norm, err = store.Tensor(params.Norm); err != nil {
		return nil, err
	}
	for i := 0; i < cfg.NLayers; i++ {
		wq, err := store.Tensor(params.AttentionWQ(i))
		if err != nil {
			return nil, err
		}
		wo, err := store.Tensor(params.AttentionWO(i))
		if err != nil {
			return nil, err
		}
		up, err := store.Tensor(params.FeedForwardW1(i))
		if err != nil {
			return nil, err
		}
		dn, err := store.Tensor(params.FeedForwardW2(i))
		if err != nil {
			return nil, err
		}
		w.AttnQ = append(w.AttnQ, wq)
		w.AttnO = append(w.AttnO, wo)
		w.FfnUp = append(w.FfnUp, up)
		w.FfnDn = append(w.FfnDn, dn)
	}
	return w, nil
}

// Generate runs one Prime followed by up to AttemptFactor*maxTokens
// Step passes and returns the emitted token ids together with the
// number of forward-pass attempts consumed. The ids never include BOS;
// the loop stops on EOS or PAD, on reaching maxTokens emissions, or on
// the attempt ceiling.
func (e *Engine) Generate(ctx context.Context, prompt string, maxTokens int) ([]int, int, error) {
	if maxTokens <= 0 {
		return nil, 0, fmt.Errorf("generate: invalid maxTokens %d (must be positive)", maxTokens)
	}

	input := e.voc.Encode(prompt)
	unknown := 0
	for _, tok := range input[1:] { // skip the BOS prefix
		if tok == vocab.UNK {
			unknown++
		}
	}
	metrics.RecordUnknownTokens(unknown)
	e.prime(input)

	emitted := make([]int, 0, maxTokens)
	attempts := 0
	maxAttempts := AttemptFactor * maxTokens
	for len(emitted) < maxTokens && attempts < maxAttempts {
		select {
		case <-ctx.Done():
			return emitted, attempts, ctx.Err()
		default:
		}
		attempts++

		e.step()
		tok := e.sampler.Sample(e.logits, emitted, len(emitted))
		if tok == vocab.EOS || tok == vocab.PAD {
			break
		}
		if tok == vocab.BOS || tok < 0 || tok >= e.cfg.VocabSize {
			// The attempt is spent but nothing is emitted and the
			// recurrent state does not move.
			continue
		}
		e.blendToken(tok)
		emitted = append(emitted, tok)
	}

	metrics.RecordStepAttempts(attempts)
	logger.Log.Debug("forward pass complete",
		"prompt_tokens", len(input), "emitted", len(emitted), "attempts", attempts)
	return emitted, attempts, nil
}

// prime folds the whole prompt into the hidden vector: the average of
// the input embedding rows, scaled elementwise by norm.weight. No
// concatenation, no positions.
func (e *Engine) prime(input []int) {
	dim := e.cfg.Dim
	for i := range e.hidden {
		e.hidden[i] = 0
	}
	count := 0
	for _, tok := range input {
		if tok < 0 || tok >= e.cfg.VocabSize {
			continue
		}
		row := e.weights.TokenEmb[tok*dim : (tok+1)*dim]
		for i, v := range row {
			e.hidden[i] += v
		}
		count++
	}
	if count > 0 {
		inv := float32(1.0) / float32(count)
		for i := range e.hidden {
			e.hidden[i] *= inv
		}
	}
	for i := range e.hidden {
		e.hidden[i] *= e.weights.Norm[i]
	}
}

// step computes logits for the current hidden vector. The blocks run
// on a working copy; the persistent state moves only through
// blendToken, so a step whose sample is rejected leaves the recurrence
// exactly where it was.
func (e *Engine) step() {
	copy(e.work, e.hidden)

	for l := 0; l < e.cfg.NLayers; l++ {
		// Degenerate attention over the single current vector:
		// project through wq, back through wo, add as residual.
		matVec(e.attn, e.weights.AttnQ[l], e.work)
		matVec(e.attnOut, e.weights.AttnO[l], e.attn)
		for i := range e.work {
			e.work[i] += e.attnOut[i]
		}

		matVec(e.ffnInner, e.weights.FfnUp[l], e.work)
		relu(e.ffnInner)
		matVec(e.ffnOut, e.weights.FfnDn[l], e.ffnInner)
		for i := range e.work {
			e.work[i] += e.ffnOut[i]
		}
	}

	matVec(e.logits, e.weights.Output, e.work)
}

// blendToken applies the leaky recurrent update for an emitted token.
func (e *Engine) blendToken(tok int) {
	dim := e.cfg.Dim
	row := e.weights.TokenEmb[tok*dim : (tok+1)*dim]
	for i := range e.hidden {
		e.hidden[i] = carryWeight*e.hidden[i] + blendWeight*row[i]
	}
}

// parallelRowThreshold is the matrix size above which matVec fans rows
// out across cores. Small projections stay serial to avoid goroutine
// overhead dominating the arithmetic.
const parallelRowThreshold = 1 << 15

// matVec computes dst = w * x for a row-major [len(dst) x len(x)]
// weight matrix.
func matVec(dst, w, x []float32) {
	rows, cols := len(dst), len(x)
	if rows*cols < parallelRowThreshold {
		for r := 0; r < rows; r++ {
			dst[r] = dotRow(w, x, r*cols)
		}
		return
	}

	workers := runtime.NumCPU()
	chunk := (rows + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < rows; start += chunk {
		end := start + chunk
		if end > rows {
			end = rows
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for r := lo; r < hi; r++ {
				dst[r] = dotRow(w, x, r*cols)
			}
		}(start, end)
	}
	wg.Wait()
}

func dotRow(w, x []float32, off int) float32 {
	var sum float32
	for k, v := range x {
		sum += w[off+k] * v
	}
	return sum
}

func relu(x []float32) {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
}
