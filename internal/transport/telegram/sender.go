package telegram

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sandevgo/chorus/pkg/conv"
	"github.com/sandevgo/chorus/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const (
	maxTelegramMsgLen = 4000 // Safety margin below 4096
	maxFloodWait      = 30 * time.Second
)

type sender struct {
	bot *tele.Bot
}

func newSender(bot *tele.Bot) *sender {
	return &sender{bot: bot}
}

// sendPersona renders md under the persona's name.
func (s *sender) sendPersona(ctx context.Context, to tele.Recipient, displayName, md string) error {
	return s.send(ctx, to, conv.PersonaHTML(displayName, md))
}

// sendMarkdown converts Markdown to Telegram HTML and sends it.
func (s *sender) sendMarkdown(ctx context.Context, to tele.Recipient, md string) error {
	return s.send(ctx, to, strings.TrimSpace(conv.MarkdownToTelegramHTML([]byte(md))))
}

func (s *sender) send(ctx context.Context, to tele.Recipient, html string) error {
	logger := log.FromCtx(ctx)
	for i, chunk := range splitHTML(html, maxTelegramMsgLen) {
		if err := s.sendChunk(ctx, to, chunk); err != nil {
			logger.Error().Err(err).Int("chunk", i).Int("len", len(chunk)).Msg("failed to send telegram chunk")
			return err
		}
	}
	return nil
}

// sendChunk retries once after a flood wait. Several personas answering in
// the same group hit the per-chat rate limit quickly.
func (s *sender) sendChunk(ctx context.Context, to tele.Recipient, chunk string) error {
	_, err := s.bot.Send(to, chunk, tele.ModeHTML)

	var flood tele.FloodError
	if !errors.As(err, &flood) {
		return err
	}

	wait := time.Duration(flood.RetryAfter) * time.Second
	if wait > maxFloodWait {
		return err
	}
	log.FromCtx(ctx).Warn().Dur("wait", wait).Msg("telegram flood limit, retrying")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
	}
	_, err = s.bot.Send(to, chunk, tele.ModeHTML)
	return err
}

type openTag struct {
	name string
	raw  string
}

// splitHTML splits Telegram HTML into chunks of at most maxLen bytes. Cuts
// fall between runes and outside tags and entities, preferring newlines.
// Tags still open at a cut are closed at the end of the chunk and reopened
// at the start of the next one, so every chunk parses on its own.
func splitHTML(text string, maxLen int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= maxLen {
		return []string{text}
	}

	var (
		chunks     []string
		cur        []byte
		stack      []openTag
		breakAt    = -1
		breakStack []openTag
	)

	for i := 0; i < len(text); {
		tok := nextToken(text[i:])
		i += len(tok)
		next := applyTag(stack, tok)

		over := len(cur)+len(tok)+len(closeTags(next)) > maxLen
		if over && len(cur) > len(openTags(stack)) {
			cut, cutStack := len(cur), stack
			if breakAt > maxLen/3 {
				cut, cutStack = breakAt, breakStack
			}
			if chunk := strings.TrimSpace(string(cur[:cut])); chunk != "" {
				chunks = append(chunks, chunk+closeTags(cutStack))
			}
			rest := strings.TrimLeft(string(cur[cut:]), " \t\n")
			cur = append([]byte(openTags(cutStack)), rest...)
			breakAt = -1
		}

		cur = append(cur, tok...)
		stack = next
		if tok == "\n" {
			breakAt = len(cur)
			breakStack = stack
		}
	}

	if chunk := strings.TrimSpace(string(cur)); chunk != "" {
		chunks = append(chunks, chunk+closeTags(stack))
	}
	return chunks
}

// nextToken returns the leading tag, entity or rune of s.
func nextToken(s string) string {
	switch s[0] {
	case '<':
		if end := strings.IndexByte(s, '>'); end >= 0 {
			return s[:end+1]
		}
		return s
	case '&':
		if end := strings.IndexByte(s, ';'); end > 0 && end <= 10 {
			return s[:end+1]
		}
	}
	_, size := utf8.DecodeRuneInString(s)
	return s[:size]
}

// applyTag returns the open tag stack after tok. The input stack is not
// modified.
func applyTag(stack []openTag, tok string) []openTag {
	if len(tok) < 3 || tok[0] != '<' || tok[len(tok)-1] != '>' {
		return stack
	}
	if strings.HasPrefix(tok, "</") {
		if len(stack) == 0 {
			return stack
		}
		return stack[:len(stack)-1:len(stack)-1]
	}
	if strings.HasSuffix(tok, "/>") {
		return stack
	}
	name := strings.TrimPrefix(tok[:len(tok)-1], "<")
	if i := strings.IndexAny(name, " \t\n"); i >= 0 {
		name = name[:i]
	}
	if name == "br" {
		return stack
	}
	next := make([]openTag, len(stack), len(stack)+1)
	copy(next, stack)
	return append(next, openTag{name: name, raw: tok})
}

func openTags(stack []openTag) string {
	var sb strings.Builder
	for _, t := range stack {
		sb.WriteString(t.raw)
	}
	return sb.String()
}

func closeTags(stack []openTag) string {
	var sb strings.Builder
	for i := len(stack) - 1; i >= 0; i-- {
		sb.WriteString("</" + stack[i].name + ">")
	}
	return sb.String()
}
