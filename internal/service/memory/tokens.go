package memory

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/chorus/internal/core"
)

var (
	tk     *tiktoken.Tiktoken
	tkOnce sync.Once
)

// per-message framing overhead of chat formats
const turnOverhead = 4

func getTokenizer() *tiktoken.Tiktoken {
	tkOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			tk = enc
		}
	})
	return tk
}

func countTokens(text string) int {
	if text == "" {
		return 0
	}
	if enc := getTokenizer(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (utf8.RuneCountInString(text) + 3) / 4
}

// EstimateTokens approximates the prompt size of a model call. Image parts
// are not counted.
func EstimateTokens(system string, turns []core.Turn) int {
	total := 0
	if system != "" {
		total += countTokens(system) + turnOverhead
	}
	for _, t := range turns {
		total += countTokens(t.Text()) + turnOverhead
	}
	return total
}
