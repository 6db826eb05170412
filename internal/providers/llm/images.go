package llm

import (
	"encoding/base64"
	"strings"
)

// decodeDataURL splits a base64 data URL into its media type and bytes.
// Inbound photos and console files arrive in this form.
func decodeDataURL(u string) (mediaType string, data []byte, ok bool) {
	rest, found := strings.CutPrefix(u, "data:")
	if !found {
		return "", nil, false
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", nil, false
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 || mediaType == "" {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	return mediaType, data, true
}

// imagePlaceholder stands in for an image a provider cannot take natively.
// Data URLs are never inlined as text.
func imagePlaceholder(u string) string {
	if strings.HasPrefix(u, "data:") {
		return "[image]"
	}
	return "[image: " + u + "]"
}
