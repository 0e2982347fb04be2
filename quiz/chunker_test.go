package quiz

import (
	"strings"
	"testing"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWords int
		want     []string
	}{
		{name: "empty", text: "", maxWords: 3, want: nil},
		{name: "whitespace only", text: " \n\t\f ", maxWords: 3, want: nil},
		{name: "exact windows", text: "a b c d e f", maxWords: 3, want: []string{"a b c", "d e f"}},
		{name: "short tail", text: "a b c d e", maxWords: 2, want: []string{"a b", "c d", "e"}},
		{name: "collapses whitespace", text: "a\n\nb\fc", maxWords: 5, want: []string{"a b c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunk(tt.text, tt.maxWords)
			if len(got) != len(tt.want) {
				t.Fatalf("len: want=%d got=%d (%q)", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("chunk %d: want=%q got=%q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestChunkDefaultSize(t *testing.T) {
	text := strings.Repeat("word ", 2*DefaultChunkWords+1)
	got := Chunk(text, 0)
	if len(got) != 3 {
		t.Fatalf("len: want=%d got=%d", 3, len(got))
	}
	if n := len(strings.Fields(got[0])); n != DefaultChunkWords {
		t.Fatalf("first chunk words: want=%d got=%d", DefaultChunkWords, n)
	}
}
