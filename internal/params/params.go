package params

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/carrycooldude/EdgeAIApp/internal/config"
)

// DefaultSeed is the fixed initialization seed. Builds with the same
// seed are bit-for-bit identical.
const DefaultSeed int64 = 1337

// DefaultMaxParameters caps the total float count of a build. The cap
// stands in for host memory pressure: exceeding it fails the build the
// same way an allocation failure would, and the cascade treats that as
// the software tier being unavailable.
const DefaultMaxParameters int64 = 64 << 20

// ErrBudgetExceeded reports a build larger than the parameter budget.
var ErrBudgetExceeded = errors.New("parameter budget exceeded")

// Tensor names. Layer tensors are addressed through the helper funcs.
const (
	TokenEmbeddings = "tok_embeddings.weight"
	Output          = "output.weight"
	Norm            = "norm.weight"
)

func AttentionWQ(layer int) string {
	return fmt.Sprintf("layers.%d.attention.wq.weight", layer)
}

func AttentionWO(layer int) string {
	return fmt.Sprintf("layers.%d.attention.wo.weight", layer)
}

func FeedForwardW1(layer int) string {
	return fmt.Sprintf("layers.%d.feed_forward.w1.weight", layer)
}

func FeedForwardW2(layer int) string {
	return fmt.Sprintf("layers.%d.feed_forward.w2.weight", layer)
}

// Store maps tensor names to flat float buffers. Built once; read-only
// afterwards - generation never writes to it, so concurrent reads need
// no locking.
type Store struct {
	tensors map[string][]float32
	params  int64
}

// Tensor returns the named buffer. The slice aliases store memory;
// callers must treat it as read-only.
func (s *Store) Tensor(name string) ([]float32, error) {
	t, ok := s.tensors[name]
	if !ok {
		return nil, fmt.Errorf("unknown tensor %q", name)
	}
	return t, nil
}

func (s *Store) Has(name string) bool {
	_, ok := s.tensors[name]
	return ok
}

// Names returns all tensor names, sorted.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.tensors))
	for n := range s.tensors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NumParameters is the total float count across tensors.
func (s *Store) NumParameters() int64 {
	return s.params
}

// SizeBytes is the resident tensor size.
func (s *Store) SizeBytes() int64 {
	return s.params * 4
}

// shape describes one tensor of a build: its name, element count and
// init scale. Build order is fixed; changing it changes every build.
type shape struct {
	name  string
	size  int
	scale float64
}

func shapes(cfg config.Model) []shape {
	dim := cfg.Dim
	ffn := cfg.FFNDim()
	vocab := cfg.VocabSize

	embScale := math.Sqrt(1.0 / float64(dim))
	outScale := math.Sqrt(1.0 / float64(dim*vocab))
	attnScale := math.Sqrt(2.0 / float64(dim+dim))
	ffnScale := math.Sqrt(2.0 / float64(dim+ffn))

	out := make([]shape, 0, 3+4*cfg.NLayers)
	out = append(out, shape{TokenEmbeddings, vocab * dim, embScale})
	for i := 0; i < cfg.NLayers; i++ {
		out = append(out,
			shape{AttentionWQ(i), dim * dim, attnScale},
			shape{AttentionWO(i), dim * dim, attnScale},
			shape{FeedForwardW1(i), dim * ffn, ffnScale},
			shape{FeedForwardW2(i), dim * ffn, ffnScale},
		)
	}
	out = append(out,
		shape{Output, vocab * dim, outScale},
		shape{Norm, dim, 0}, // scale unused; norm weights are ones
	)
	return out
}

// Build populates a store from the seeded Gaussian initializer.
func Build(cfg config.Model, seed int64) (*Store, error) {
	return BuildWithBudget(cfg, seed, DefaultMaxParameters)
}

// BuildWithBudget is Build with an explicit parameter cap; tests use a
// tiny cap to exercise the allocation-failure path.
func BuildWithBudget(cfg config.Model, seed int64, maxParams int64) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("build parameter store: %w", err)
	}

	specs := shapes(cfg)
	var total int64
	for _, sp := range specs {
		total += int64(sp.size)
	}
	if total > maxParams {
		return nil, fmt.Errorf("build parameter store: %d parameters over cap %d: %w",
			total, maxParams, ErrBudgetExceeded)
	}

	g := newGaussian(seed)
	store := &Store{tensors: make(map[string][]float32, len(specs)), params: total}
	for _, sp := range specs {
		buf := make([]float32, sp.size)
		if sp.name == Norm {
			for i := range buf {
				buf[i] = 1.0
			}
		} else {
			for i := range buf {
				buf[i] = float32(g.next() * sp.scale)
			}
		}
		store.tensors[sp.name] = buf
	}
	return store, nil
}

// gaussian draws standard-normal samples via the Box-Muller transform
// over a seeded uniform source. The transform is part of the
// reproducibility contract, so it is spelled out here instead of using
// rand.NormFloat64.
type gaussian struct {
	rng   *rand.Rand
	spare float64
	has   bool
}

func newGaussian(seed int64) *gaussian {
	return &gaussian{rng: rand.New(rand.NewSource(seed))}
}

func (g *gaussian) next() float64 {
	if g.has {
		g.has = false
		return g.spare
	}
	var u1 float64
	for {
		u1 = g.rng.Float64()
		if u1 > 0 {
			break
		}
	}
	u2 := g.rng.Float64()

	r := math.Sqrt(-2.0 * math.Log(u1))
	theta := 2.0 * math.Pi * u2
	g.spare = r * math.Sin(theta)
	g.has = true
	return r * math.Cos(theta)
}
