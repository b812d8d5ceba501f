package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultModel(t *testing.T) {
	m := DefaultModel()

	if m.Dim != 256 {
		t.Errorf("expected Dim 256, got %d", m.Dim)
	}
	if m.NHeads != 8 {
		t.Errorf("expected NHeads 8, got %d", m.NHeads)
	}
	if m.NLayers != 4 {
		t.Errorf("expected NLayers 4, got %d", m.NLayers)
	}
	if m.VocabSize != 512 {
		t.Errorf("expected VocabSize 512, got %d", m.VocabSize)
	}
	if m.NormEps != 1e-5 {
		t.Errorf("expected NormEps 1e-5, got %v", m.NormEps)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("default model should validate: %v", err)
	}
}

func TestModelValidate(t *testing.T) {
	valid := DefaultModel()

	tests := []struct {
		name    string
		mutate  func(*Model)
		wantErr bool
	}{
		{"valid config", func(m *Model) {}, false},
		{"zero dim", func(m *Model) { m.Dim = 0 }, true},
		{"negative dim", func(m *Model) { m.Dim = -1 }, true},
		{"zero heads", func(m *Model) { m.NHeads = 0 }, true},
		{"zero layers", func(m *Model) { m.NLayers = 0 }, true},
		{"zero vocab", func(m *Model) { m.VocabSize = 0 }, true},
		{"zero eps", func(m *Model) { m.NormEps = 0 }, true},
		{"zero multiple_of", func(m *Model) { m.MultipleOf = 0 }, true},
		{"zero multiplier", func(m *Model) { m.FFNDimMultiplier = 0 }, true},
		{"zero seq len", func(m *Model) { m.MaxSeqLen = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)
			err := m.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFFNDim(t *testing.T) {
	tests := []struct {
		name       string
		dim        int
		multiplier float64
		multipleOf int
		want       int
	}{
		{"exact multiple", 256, 4.0, 32, 1024},
		{"rounds up to multiple", 100, 4.0, 32, 416}, // 400 -> 416
		{"small model", 64, 2.0, 32, 128},
		{"fractional multiplier", 256, 2.5, 32, 640},
		{"padding needed", 48, 1.5, 32, 96}, // 72 -> 96
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Model{Dim: tt.dim, FFNDimMultiplier: tt.multiplier, MultipleOf: tt.multipleOf}
			if got := m.FFNDim(); got != tt.want {
				t.Errorf("FFNDim() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLoadModel(t *testing.T) {
	dir := t.TempDir()

	t.Run("partial artifact keeps defaults", func(t *testing.T) {
		path := filepath.Join(dir, "params.json")
		artifact := `{"dim": 128, "n_layers": 2, "vocab_size": 300}`
		if err := os.WriteFile(path, []byte(artifact), 0o644); err != nil {
			t.Fatalf("write artifact: %v", err)
		}

		m, err := LoadModel(path)
		if err != nil {
			t.Fatalf("LoadModel() error = %v", err)
		}
		if m.Dim != 128 || m.NLayers != 2 || m.VocabSize != 300 {
			t.Errorf("artifact fields not applied: %+v", m)
		}
		if m.NHeads != DefaultModel().NHeads {
			t.Errorf("missing field should keep default NHeads, got %d", m.NHeads)
		}
		if m.NormEps != DefaultModel().NormEps {
			t.Errorf("missing field should keep default NormEps, got %v", m.NormEps)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadModel(filepath.Join(dir, "nope.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		os.WriteFile(path, []byte("{dim:"), 0o644)
		if _, err := LoadModel(path); err == nil {
			t.Error("expected error for malformed json")
		}
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.json")
		os.WriteFile(path, []byte(`{"dim": -5}`), 0o644)
		if _, err := LoadModel(path); err == nil {
			t.Error("expected validation error for negative dim")
		}
	})
}

func TestDefaultFilter(t *testing.T) {
	f := DefaultFilter()

	if f.MaxConsecutiveRepeats != 2 {
		t.Errorf("expected MaxConsecutiveRepeats 2, got %d", f.MaxConsecutiveRepeats)
	}
	if f.MaxWordOccurrences != 3 {
		t.Errorf("expected MaxWordOccurrences 3, got %d", f.MaxWordOccurrences)
	}
	if f.MaxRepetitionRatio != 0.3 {
		t.Errorf("expected MaxRepetitionRatio 0.3, got %v", f.MaxRepetitionRatio)
	}
	if f.MinChars != 10 {
		t.Errorf("expected MinChars 10, got %d", f.MinChars)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("default filter should validate: %v", err)
	}
}

func TestFilterValidate(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		wantErr bool
	}{
		{"valid", DefaultFilter(), false},
		{"zero consecutive", Filter{0, 3, 5, 0.3, 10}, true},
		{"zero occurrences", Filter{2, 0, 5, 0.3, 10}, true},
		{"zero words cap", Filter{2, 3, 0, 0.3, 10}, true},
		{"ratio zero", Filter{2, 3, 5, 0, 10}, true},
		{"ratio above one", Filter{2, 3, 5, 1.5, 10}, true},
		{"negative chars", Filter{2, 3, 5, 0.3, -1}, true},
		{"ratio exactly one", Filter{2, 3, 5, 1.0, 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
