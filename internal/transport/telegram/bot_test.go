package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sandevgo/chorus/pkg/conv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

func TestChannelID(t *testing.T) {
	id := ChannelID(-100123)
	assert.Equal(t, "tg:-100123", id)

	parsed, err := ParseChannelID(id)
	require.NoError(t, err)
	assert.Equal(t, int64(-100123), parsed)
}

func TestParseChannelID_Invalid(t *testing.T) {
	tests := []string{"#general", "tg:", "tg:abc", ""}
	for _, tc := range tests {
		t.Run(tc, func(t *testing.T) {
			_, err := ParseChannelID(tc)
			assert.Error(t, err)
		})
	}
}

func TestSplitHTML(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		assert.Equal(t, []string{"hello"}, splitHTML("hello", 10))
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, splitHTML("", 10))
	})

	t.Run("prefers newline breaks", func(t *testing.T) {
		text := strings.Repeat("a", 8) + "\n" + strings.Repeat("b", 8)
		chunks := splitHTML(text, 10)
		require.Len(t, chunks, 2)
		assert.Equal(t, strings.Repeat("a", 8), chunks[0])
		assert.Equal(t, strings.Repeat("b", 8), chunks[1])
	})

	t.Run("hard cut without newlines", func(t *testing.T) {
		chunks := splitHTML(strings.Repeat("x", 25), 10)
		require.Len(t, chunks, 3)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), 10)
		}
	})

	t.Run("non-ASCII persona replies", func(t *testing.T) {
		for _, body := range []string{
			strings.Repeat("я", 2000),
			strings.Repeat("猫", 1400),
			strings.Repeat("Привет **мир** ", 200),
		} {
			html := conv.PersonaHTML("Nova 🦊", body)
			chunks := splitHTML(html, maxTelegramMsgLen)
			require.NotEmpty(t, chunks)
			assertChunksParse(t, chunks, maxTelegramMsgLen)
			assert.Equal(t, visibleText(html), visibleText(strings.Join(chunks, "")))
		}
	})

	t.Run("open tags are closed and reopened", func(t *testing.T) {
		html := `<b>` + strings.Repeat("word ", 10) + `</b> and <a href="https://x.io">` + strings.Repeat("link ", 6) + `</a>`
		chunks := splitHTML(html, 24)
		require.Greater(t, len(chunks), 2)
		assertChunksParse(t, chunks, 24+len(`<a href="https://x.io">`))
		assert.True(t, strings.HasPrefix(chunks[1], "<b>"), chunks[1])
	})
}

// assertChunksParse checks every chunk is valid UTF-8, within limit and
// balanced, with no cut inside a tag or entity.
func assertChunksParse(t *testing.T, chunks []string, limit int) {
	t.Helper()
	for i, c := range chunks {
		assert.True(t, utf8.ValidString(c), "chunk %d is not valid UTF-8", i)
		assert.LessOrEqual(t, len(c), limit, "chunk %d", i)

		var stack []openTag
		for j := 0; j < len(c); {
			tok := nextToken(c[j:])
			j += len(tok)
			if strings.HasPrefix(tok, "<") {
				require.True(t, strings.HasSuffix(tok, ">"), "chunk %d cut inside a tag: %q", i, tok)
				if strings.HasPrefix(tok, "</") {
					require.NotEmpty(t, stack, "chunk %d closes an unopened tag", i)
				}
			}
			stack = applyTag(stack, tok)
		}
		assert.Empty(t, stack, "chunk %d leaves tags open: %q", i, c)
	}
}

func visibleText(html string) string {
	var sb strings.Builder
	for i := 0; i < len(html); {
		tok := nextToken(html[i:])
		i += len(tok)
		if !strings.HasPrefix(tok, "<") {
			sb.WriteString(tok)
		}
	}
	return strings.Join(strings.Fields(sb.String()), "")
}

func TestChatAndAuthorNames(t *testing.T) {
	assert.Equal(t, "Lounge", chatName(&tele.Chat{ID: 1, Title: "Lounge"}))
	assert.Equal(t, "alice", chatName(&tele.Chat{ID: 1, Username: "alice"}))
	assert.Equal(t, "42", chatName(&tele.Chat{ID: 42}))

	assert.Equal(t, "bob", authorName(&tele.User{Username: "bob", FirstName: "Bob"}))
	assert.Equal(t, "Bob Smith", authorName(&tele.User{FirstName: "Bob", LastName: "Smith"}))
	assert.Equal(t, "unknown", authorName(nil))
}
