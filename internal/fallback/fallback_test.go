package fallback

import (
	"strings"
	"testing"
)

func TestRespond(t *testing.T) {
	r := New()

	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{"hello keyword", "hello", "Hello! I'm your on-device assistant. How can I help you today?"},
		{"hello inside sentence", "well hello friend", "Hello! I'm your on-device assistant. How can I help you today?"},
		{"case insensitive", "HELLO THERE", "Hello! I'm your on-device assistant. How can I help you today?"},
		{"specific beats prefix", "hello how are you", "I'm doing well, thank you for asking! How can I help you today?"},
		{"thank matches thanks", "thanks a lot", "You're welcome! Happy to help."},
		{"weather", "what is the weather like", "I can't reach a live forecast from here, but carrying an umbrella never hurts."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Respond(tt.prompt); got != tt.want {
				t.Errorf("Respond(%q) = %q, want %q", tt.prompt, got, tt.want)
			}
		})
	}
}

func TestRespondIsTotal(t *testing.T) {
	r := New()

	prompts := []string{"", "   ", "xqzv unmatched gibberish", "42", strings.Repeat("a", 10_000)}
	for _, p := range prompts {
		if got := r.Respond(p); got == "" {
			t.Errorf("Respond(%q) returned empty string", p)
		}
	}
}

func TestRespondDeterministic(t *testing.T) {
	r := New()

	first := r.Respond("hello")
	for i := 0; i < 50; i++ {
		if got := r.Respond("hello"); got != first {
			t.Fatalf("call %d: Respond changed from %q to %q", i, first, got)
		}
	}
}

func TestFirstMatchWins(t *testing.T) {
	r := NewWithTable([]Entry{
		{"alpha", "first"},
		{"alpha beta", "second"},
	}, "default")

	// Table order decides, not match length.
	if got := r.Respond("alpha beta"); got != "first" {
		t.Errorf("Respond = %q, want %q", got, "first")
	}
}

func TestNewWithTableCopies(t *testing.T) {
	entries := []Entry{{"ping", "pong"}}
	r := NewWithTable(entries, "default")
	entries[0].Response = "mutated"

	if got := r.Respond("ping"); got != "pong" {
		t.Errorf("responder must not alias caller table: %q", got)
	}
}

func TestDefaultTerminal(t *testing.T) {
	r := NewWithTable(nil, "nothing matched")
	if got := r.Respond("whatever"); got != "nothing matched" {
		t.Errorf("Respond = %q, want terminal default", got)
	}
}

func TestBuiltinTableResponsesNonEmpty(t *testing.T) {
	for _, e := range defaultEntries {
		if e.Keyword == "" || e.Response == "" {
			t.Errorf("malformed entry %+v", e)
		}
		if e.Keyword != strings.ToLower(e.Keyword) {
			t.Errorf("keyword %q must be lower-case", e.Keyword)
		}
	}
}
