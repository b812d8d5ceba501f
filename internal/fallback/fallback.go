package fallback

import "strings"

// Entry pairs a prompt keyword with its canned reply.
type Entry struct {
	Keyword  string
	Response string
}

// defaultEntries is checked in order, first substring match wins. More
// specific keywords go before their prefixes ("how are you" before
// "how").
var defaultEntries = []Entry{
	{"how are you", "I'm doing well, thank you for asking! How can I help you today?"},
	{"hello", "Hello! I'm your on-device assistant. How can I help you today?"},
	{"good morning", "Good morning! Hope your day is off to a great start."},
	{"good evening", "Good evening! What can I do for you?"},
	{"hey", "Hey there! What can I do for you?"},
	{"your name", "I'm Edge, a small assistant that runs entirely on this device."},
	{"who are you", "I'm Edge, a small assistant that runs entirely on this device."},
	{"what can you do", "I can chat with you right here on the device - no network needed. Ask me anything."},
	{"weather", "I can't reach a live forecast from here, but carrying an umbrella never hurts."},
	{"time", "I don't keep a clock myself, but your status bar should have the answer."},
	{"thank", "You're welcome! Happy to help."},
	{"bye", "Goodbye! Talk to you soon."},
	{"goodbye", "Goodbye! Talk to you soon."},
	{"joke", "I'd tell you a joke about neural networks, but you might not get the connection."},
	{"help", "Just type what's on your mind and I'll do my best to answer right here on the device."},
	{"music", "I can't play songs myself, but a little music is always a good idea."},
	{"food", "I never say no to talking about food. What are you in the mood for?"},
}

// defaultResponse is the terminal case when no keyword matches.
const defaultResponse = "That's an interesting one. I'm still learning, so could you try saying it another way?"

// Responder answers any prompt from an immutable ordered keyword table.
// Respond is a total function: there is always a reply.
type Responder struct {
	entries  []Entry
	fallback string
}

// New returns the responder backed by the built-in table.
func New() *Responder {
	return &Responder{entries: defaultEntries, fallback: defaultResponse}
}

// NewWithTable returns a responder over a caller-supplied table. The
// slice is copied; entry order is preserved.
func NewWithTable(entries []Entry, fallback string) *Responder {
	r := &Responder{
		entries:  make([]Entry, len(entries)),
		fallback: fallback,
	}
	copy(r.entries, entries)
	return r
}

// Respond returns the reply for the first entry whose keyword occurs in
// the lower-cased prompt, or the terminal default.
func (r *Responder) Respond(prompt string) string {
	p := strings.ToLower(prompt)
	for _, e := range r.entries {
		if strings.Contains(p, e.Keyword) {
			return e.Response
		}
	}
	return r.fallback
}
