package conv

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		maxLength int
		want      []string
	}{
		{name: "empty", text: "", maxLength: 10, want: nil},
		{name: "shorter than limit", text: "hello", maxLength: 10, want: []string{"hello"}},
		{name: "exact limit", text: "hello", maxLength: 5, want: []string{"hello"}},
		{name: "split evenly", text: "abcdef", maxLength: 2, want: []string{"ab", "cd", "ef"}},
		{name: "remainder", text: "abcdefg", maxLength: 3, want: []string{"abc", "def", "g"}},
		{name: "ignores word boundaries", text: "hello world", maxLength: 4, want: []string{"hell", "o wo", "rld"}},
		{name: "multibyte runes", text: "привет", maxLength: 4, want: []string{"прив", "ет"}},
		{name: "non-positive limit", text: "abc", maxLength: 0, want: []string{"abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunk(tt.text, tt.maxLength))
		})
	}
}

func TestChunk_Properties(t *testing.T) {
	texts := []string{
		"a",
		strings.Repeat("x", 4999),
		strings.Repeat("🦊 fox ", 700),
		"line one\nline two\n\n  trailing  ",
		"\xff\xfeinvalid utf8",
	}

	for _, text := range texts {
		for _, limit := range []int{1, 3, 7, 2000} {
			chunks := Chunk(text, limit)
			require.NotEmpty(t, chunks)
			assert.Equal(t, text, strings.Join(chunks, ""))
			for _, c := range chunks {
				assert.NotEmpty(t, c)
				assert.LessOrEqual(t, utf8.RuneCountInString(c), limit)
			}
		}
	}
}
