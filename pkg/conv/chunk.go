package conv

import "unicode/utf8"

// Chunk splits text into consecutive pieces of at most maxLength runes.
// Splitting is positional: joining the pieces yields text unchanged.
// A non-positive maxLength returns the text as a single piece.
func Chunk(text string, maxLength int) []string {
	if text == "" {
		return nil
	}
	if maxLength <= 0 {
		return []string{text}
	}

	var chunks []string
	start, runes := 0, 0
	for i := 0; i < len(text); {
		_, size := utf8.DecodeRuneInString(text[i:])
		if runes == maxLength {
			chunks = append(chunks, text[start:i])
			start, runes = i, 0
		}
		i += size
		runes++
	}
	return append(chunks, text[start:])
}
