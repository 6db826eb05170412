package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/chorus/internal/core"
	"google.golang.org/genai"
)

type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGemini creates a Gemini API client. baseURL is only set in tests.
func NewGemini(ctx context.Context, apiKey, model, baseURL string, timeout time.Duration) (*Gemini, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gemini{client: client, model: model, timeout: timeout}, nil
}

func (g *Gemini) Model() string {
	return g.model
}

// toGeminiParts sends inline images as bytes. Remote image URLs stay a
// short text reference.
func toGeminiParts(t core.Turn) []*genai.Part {
	var parts []*genai.Part
	for _, p := range t.Parts {
		switch p.Type {
		case core.PartText:
			if p.Text != "" {
				parts = append(parts, genai.NewPartFromText(p.Text))
			}
		case core.PartImageURL:
			if mediaType, data, ok := decodeDataURL(p.ImageURL); ok {
				parts = append(parts, genai.NewPartFromBytes(data, mediaType))
				continue
			}
			parts = append(parts, genai.NewPartFromText(imagePlaceholder(p.ImageURL)))
		}
	}
	return parts
}

func toGeminiContents(turns []core.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		parts := toGeminiParts(t)
		if len(parts) == 0 {
			continue
		}
		role := genai.RoleUser
		if t.Role == core.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.Role(role)))
	}
	if len(contents) == 0 {
		contents = append(contents, genai.NewContentFromText("(the conversation so far)", genai.RoleUser))
	}
	return contents
}

func (g *Gemini) Complete(ctx context.Context, system string, turns []core.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, toGeminiContents(turns), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}
