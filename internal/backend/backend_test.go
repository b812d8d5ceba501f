package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/carrycooldude/EdgeAIApp/internal/fallback"
)

// stubTier is an instrumented cascade rung.
type stubTier struct {
	name     string
	ready    bool
	out      string
	err      error
	fellBack bool

	readyCalls int
	runCalls   int
}

func (s *stubTier) Name() string { return s.name }

func (s *stubTier) Ready() bool {
	s.readyCalls++
	return s.ready
}

func (s *stubTier) Run(ctx context.Context, prompt string, maxTokens int) (string, error) {
	s.runCalls++
	return s.out, s.err
}

func (s *stubTier) TookFallback() bool { return s.fellBack }

func TestNewRequiresTiers(t *testing.T) {
	if _, err := New(); err == nil {
		t.Error("New() accepted an empty cascade")
	}
}

func TestCascadeOrdering(t *testing.T) {
	a := &stubTier{name: "a", ready: false}
	b := &stubTier{name: "b", ready: true, err: errors.New("backend exploded")}
	c := &stubTier{name: "c", ready: true, out: "text from c"}
	d := &stubTier{name: "d", ready: true, out: "text from d"}

	cas, err := New(a, b, c, d)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res := cas.Generate(context.Background(), "hello", 8)
	if res.Tier != "c" {
		t.Fatalf("selected tier %q, want %q", res.Tier, "c")
	}
	if res.Text != "text from c" {
		t.Errorf("text = %q, want %q", res.Text, "text from c")
	}

	if a.runCalls != 0 {
		t.Errorf("unready tier was run %d times", a.runCalls)
	}
	if b.runCalls != 1 {
		t.Errorf("failing tier run %d times, want 1", b.runCalls)
	}
	if d.runCalls != 0 || d.readyCalls != 0 {
		t.Errorf("tier after the winner was consulted (ready=%d run=%d)", d.readyCalls, d.runCalls)
	}
}

func TestCascadeSkipsBlankOutput(t *testing.T) {
	blank := &stubTier{name: "blank", ready: true, out: "   \n"}
	next := &stubTier{name: "next", ready: true, out: "real answer"}

	cas, err := New(blank, next)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res := cas.Generate(context.Background(), "hello", 8)
	if res.Tier != "next" {
		t.Errorf("selected tier %q, want %q", res.Tier, "next")
	}
}

func TestCascadeSubstitutedFlag(t *testing.T) {
	sub := &stubTier{name: "sub", ready: true, out: "templated words", fellBack: true}

	cas, err := New(sub)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res := cas.Generate(context.Background(), "hello", 8)
	if !res.Substituted {
		t.Error("Substituted flag not propagated from tier")
	}
}

func TestCascadeAllTiersFailing(t *testing.T) {
	down := &stubTier{name: "down", ready: false}
	broken := &stubTier{name: "broken", ready: true, err: errors.New("nope")}

	cas, err := New(down, broken)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res := cas.Generate(context.Background(), "hello", 8)
	if res.Tier != "" || res.Text != "" {
		t.Errorf("cascade without terminal tier fabricated a result: %+v", res)
	}
}

func TestCascadeTerminalTierAlwaysAnswers(t *testing.T) {
	down := &stubTier{name: "down", ready: false}
	broken := &stubTier{name: "broken", ready: true, err: errors.New("nope")}
	canned := NewCannedTier(fallback.New())

	cas, err := New(down, broken, canned)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for _, prompt := range []string{"hello", "", "unmatched gibberish xyzzy"} {
		res := cas.Generate(context.Background(), prompt, 8)
		if res.Text == "" {
			t.Errorf("prompt %q produced empty text", prompt)
		}
		if res.Tier != TierCanned {
			t.Errorf("prompt %q served by %q, want %q", prompt, res.Tier, TierCanned)
		}
		if !res.Substituted {
			t.Errorf("prompt %q not flagged substituted", prompt)
		}
	}
}

func TestCascadeGreetingDeterministic(t *testing.T) {
	// With every native tier down, "hello" resolves to the fixed
	// greeting on every call.
	cas, err := New(
		&stubTier{name: TierLite},
		&stubTier{name: TierNPU},
		&stubTier{name: TierVendorFlight},
		&stubTier{name: TierVendorDirect},
		NewCannedTier(nil),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	want := fallback.New().Respond("hello")
	for i := 0; i < 5; i++ {
		res := cas.Generate(context.Background(), "hello", 16)
		if res.Text != want {
			t.Fatalf("call %d: text = %q, want %q", i, res.Text, want)
		}
	}
}

func TestCascadeNames(t *testing.T) {
	cas, err := New(&stubTier{name: "x"}, &stubTier{name: "y"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	names := cas.Names()
	if len(names) != 2 || names[0] != "x" || names[1] != "y" {
		t.Errorf("Names() = %v", names)
	}
}
