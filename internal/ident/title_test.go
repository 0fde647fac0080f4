package ident_test

import (
	"testing"

	"vodflow/internal/ident"
)

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"separators collapse", "/media/summer_trip-2024.final.mp4", "Summer Trip 2024 Final"},
		{"plain name", "abc123.mp4", "Abc123"},
		{"empty path", "", "Unknown Media"},
		{"only punctuation", "___.mp4", "Unknown Media"},
		{"already spaced", "Home Movie.mkv", "Home Movie"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ident.DisplayTitle(tc.path); got != tc.want {
				t.Fatalf("DisplayTitle(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}
