package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sandevgo/chorus/internal/core"
)

const anthropicVersion = "2023-06-01"

type Anthropic struct {
	baseProvider
}

func NewAnthropic(apiKey, model string, timeout time.Duration) *Anthropic {
	return NewAnthropicWithURL("https://api.anthropic.com", apiKey, model, timeout)
}

func NewAnthropicWithURL(baseURL, apiKey, model string, timeout time.Duration) *Anthropic {
	return &Anthropic{
		baseProvider: newBaseProvider(baseURL, apiKey, model, timeout),
	}
}

func (a *Anthropic) headers() map[string]string {
	return map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicBlock struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	Source *anthropicImage `json:"source,omitempty"`
}

type anthropicImage struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

func textBlock(text string) anthropicBlock {
	return anthropicBlock{Type: "text", Text: text}
}

// toAnthropicBlocks keeps images as image blocks: data URLs as base64
// sources, anything else as a url source.
func toAnthropicBlocks(t core.Turn) []anthropicBlock {
	var blocks []anthropicBlock
	for _, p := range t.Parts {
		switch p.Type {
		case core.PartText:
			if p.Text != "" {
				blocks = append(blocks, textBlock(p.Text))
			}
		case core.PartImageURL:
			if mediaType, _, ok := decodeDataURL(p.ImageURL); ok {
				_, payload, _ := strings.Cut(p.ImageURL, ",")
				blocks = append(blocks, anthropicBlock{Type: "image", Source: &anthropicImage{
					Type:      "base64",
					MediaType: mediaType,
					Data:      payload,
				}})
				continue
			}
			if strings.HasPrefix(p.ImageURL, "http") {
				blocks = append(blocks, anthropicBlock{Type: "image", Source: &anthropicImage{
					Type: "url",
					URL:  p.ImageURL,
				}})
			}
		}
	}
	return blocks
}

// toAnthropicMessages merges consecutive turns of the same role and makes
// sure the conversation opens with a user turn.
func toAnthropicMessages(turns []core.Turn) []anthropicMessage {
	var messages []anthropicMessage
	for _, t := range turns {
		blocks := toAnthropicBlocks(t)
		if len(blocks) == 0 {
			continue
		}
		if n := len(messages); n > 0 && messages[n-1].Role == t.Role {
			messages[n-1].Content = append(messages[n-1].Content, blocks...)
			continue
		}
		messages = append(messages, anthropicMessage{Role: t.Role, Content: blocks})
	}
	if len(messages) == 0 || messages[0].Role != core.RoleUser {
		opener := anthropicMessage{Role: core.RoleUser, Content: []anthropicBlock{textBlock("(the conversation so far)")}}
		messages = append([]anthropicMessage{opener}, messages...)
	}
	return messages
}

func (a *Anthropic) Complete(ctx context.Context, system string, turns []core.Turn) (string, error) {
	payload := map[string]any{
		"model":      a.model,
		"max_tokens": 4096,
		"messages":   toAnthropicMessages(turns),
	}
	if system != "" {
		payload["system"] = system
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := a.doJSON(ctx, http.MethodPost, "/v1/messages", payload, a.headers(), &result); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, c := range result.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	return sb.String(), nil
}

func (a *Anthropic) Models(ctx context.Context) ([]string, error) {
	var models []string
	afterID := ""

	for {
		path := "/v1/models?limit=1000"
		if afterID != "" {
			path = fmt.Sprintf("%s&after_id=%s", path, url.QueryEscape(afterID))
		}

		var result struct {
			Data []struct {
				ID   string `json:"id"`
				Type string `json:"type"`
			} `json:"data"`
			HasMore bool   `json:"has_more"`
			LastID  string `json:"last_id"`
		}
		if err := a.doJSON(ctx, http.MethodGet, path, nil, a.headers(), &result); err != nil {
			return nil, fmt.Errorf("fetch models: %w", err)
		}

		for _, m := range result.Data {
			if m.Type == "model" {
				models = append(models, m.ID)
			}
		}

		if !result.HasMore {
			break
		}
		afterID = result.LastID
	}

	return models, nil
}
