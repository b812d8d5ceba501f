package vocab

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Reserved token ids. PAD shares the unknown slot; both decode to
// nothing.
const (
	UNK = 0
	PAD = 0
	BOS = 1
	EOS = 2
)

// Markers occupying the reserved slots in every table.
var specials = []string{"<unk>", "<s>", "</s>"}

// Vocabulary is an immutable word <-> id table. Construct once with
// New, Load or Default; lookups never fail, unknown words degrade to
// UNK.
type Vocabulary struct {
	words []string
	ids   map[string]int
}

// New builds a table from a complete word list. The first three entries
// are expected to be the special markers; duplicate words keep their
// first id.
func New(words []string) *Vocabulary {
	v := &Vocabulary{
		words: make([]string, len(words)),
		ids:   make(map[string]int, len(words)),
	}
	copy(v.words, words)
	for i, w := range words {
		if _, seen := v.ids[w]; !seen {
			v.ids[w] = i
		}
	}
	return v
}

// Load reads a word-per-line table. Lines are lower-cased and trimmed;
// blank lines and '#' comments are skipped; the special markers are
// prepended. Duplicate words keep their first id.
func Load(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary: %w", err)
	}
	defer f.Close()

	words := make([]string, 0, 512)
	words = append(words, specials...)
	seen := make(map[string]bool, 512)
	for _, s := range specials {
		seen[s] = true
	}

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.ToLower(strings.TrimSpace(sc.Text()))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		if seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
	}
	if len(words) == len(specials) {
		return nil, fmt.Errorf("vocabulary %s: no words", path)
	}
	return New(words), nil
}

// Default returns the built-in conversational table used when no
// tokenizer asset is present.
func Default() *Vocabulary {
	return New(defaultWords)
}

// Size is the number of table entries, special markers included.
func (v *Vocabulary) Size() int {
	return len(v.words)
}

// ID maps a word to its token id, UNK when absent.
func (v *Vocabulary) ID(word string) int {
	if id, ok := v.ids[word]; ok {
		return id
	}
	return UNK
}

// Word maps a token id back to its word, "" when out of range.
func (v *Vocabulary) Word(id int) string {
	if id < 0 || id >= len(v.words) {
		return ""
	}
	return v.words[id]
}

// Encode lower-cases text, splits it on whitespace and maps each word
// through the table, substituting UNK for unknown words. The result is
// always prefixed with BOS, so even "" encodes to [BOS].
func (v *Vocabulary) Encode(text string) []int {
	words := strings.Fields(strings.ToLower(text))
	ids := make([]int, 0, len(words)+1)
	ids = append(ids, BOS)
	for _, w := range words {
		ids = append(ids, v.ID(w))
	}
	return ids
}

// Decode maps ids back to text: BOS is dropped, the sequence stops at
// the first EOS, UNK/PAD and out-of-range ids are skipped, words are
// joined with single spaces.
func (v *Vocabulary) Decode(ids []int) string {
	var sb strings.Builder
	for _, id := range ids {
		if id == EOS {
			break
		}
		if id == BOS || id == UNK {
			continue
		}
		w := v.Word(id)
		if w == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(w)
	}
	return sb.String()
}
