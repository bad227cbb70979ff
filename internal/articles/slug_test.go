package articles

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "DRAGONS", "dragons"},
		{"spaces to dashes", "How to train your dragon", "how-to-train-your-dragon"},
		{"trim whitespace", "  Effective Go  ", "effective-go"},
		{"punctuation removal", "Hello, World!", "hello-world"},
		{"slashes", "sci-fi/fantasy", "sci-fi-fantasy"},
		{"multiple dashes collapsed", "slow--burn", "slow-burn"},
		{"leading and trailing dashes", "--dragons--", "dragons"},
		{"numbers allowed", "Top 10 Books", "top-10-books"},
		{"empty title", "", ""},
		{"only special characters", "!@#$%", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Slugify(test.input); got != test.expected {
				t.Fatalf("Slugify(%q) = %q, want %q", test.input, got, test.expected)
			}
		})
	}
}
