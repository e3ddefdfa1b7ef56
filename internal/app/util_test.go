package app

import (
	"testing"
)

func TestNz(t *testing.T) {
	tests := []struct {
		s        string
		fallback string
		expected string
	}{
		{"hello", "default", "hello"},
		{"", "default", "default"},
		{"   ", "default", "default"},
		{"\t\n", "default", "default"},
		{"  content  ", "default", "  content  "},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			result := nz(tt.s, tt.fallback)
			if result != tt.expected {
				t.Errorf("nz(%q, %q) = %q, want %q", tt.s, tt.fallback, result, tt.expected)
			}
		})
	}
}
