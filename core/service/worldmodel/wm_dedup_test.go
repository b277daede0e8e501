package worldmodel

import (
	"testing"
)

// TestNormalizeName tests the canonical dedup key.
func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase and trim", "  Slim Jeans  ", "slim jeans"},
		{"apostrophes dropped", "Men's Shirts", "mens shirts"},
		{"curly apostrophe dropped", "Men’s Shirts", "mens shirts"},
		{"punctuation becomes space", "Tops & T-Shirts", "tops t shirts"},
		{"whitespace collapsed", "Slim   \t Jeans", "slim jeans"},
		{"empty stays empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.in); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestCandidateKeys tests the fuzzy-match key expansion.
func TestCandidateKeys(t *testing.T) {
	containsKey := func(keys []string, want string) bool {
		for _, k := range keys {
			if k == want {
				return true
			}
		}
		return false
	}

	t.Run("original key always first", func(t *testing.T) {
		keys := CandidateKeys("Men's Shirts")
		if len(keys) == 0 || keys[0] != "mens shirts" {
			t.Fatalf("keys = %v, want first key %q", keys, "mens shirts")
		}
	})

	t.Run("gendered prefix stripped", func(t *testing.T) {
		keys := CandidateKeys("Men's Shirts")
		if !containsKey(keys, "shirts") {
			t.Errorf("keys = %v, want %q included", keys, "shirts")
		}
	})

	t.Run("plural toggled", func(t *testing.T) {
		keys := CandidateKeys("Men's Shirts")
		if !containsKey(keys, "mens shirt") {
			t.Errorf("keys = %v, want %q included", keys, "mens shirt")
		}
		if !containsKey(keys, "shirt") {
			t.Errorf("keys = %v, want %q included", keys, "shirt")
		}
	})

	t.Run("singular toggled to plural", func(t *testing.T) {
		keys := CandidateKeys("mens shirt")
		if !containsKey(keys, "mens shirts") {
			t.Errorf("keys = %v, want %q included", keys, "mens shirts")
		}
	})

	t.Run("promo suffix stripped", func(t *testing.T) {
		keys := CandidateKeys("Dresses Sale")
		if !containsKey(keys, "dresses") {
			t.Errorf("keys = %v, want %q included", keys, "dresses")
		}
	})

	t.Run("no duplicate keys", func(t *testing.T) {
		keys := CandidateKeys("Shirts")
		seen := map[string]bool{}
		for _, k := range keys {
			if seen[k] {
				t.Errorf("duplicate key %q in %v", k, keys)
			}
			seen[k] = true
		}
	})

	t.Run("empty name yields no keys", func(t *testing.T) {
		if keys := CandidateKeys("  "); keys != nil {
			t.Errorf("keys = %v, want nil", keys)
		}
	})

	t.Run("es plural toggled", func(t *testing.T) {
		keys := CandidateKeys("dresses")
		if !containsKey(keys, "dress") {
			t.Errorf("keys = %v, want %q included", keys, "dress")
		}
	})
}
