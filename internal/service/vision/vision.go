package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/sandevgo/chorus/internal/config"
	"github.com/sandevgo/chorus/pkg/log"
	"github.com/sashabaranov/go-openai"
)

// ErrAnalysisFailed is returned for any failure of an analysis call.
var ErrAnalysisFailed = errors.New("failed to analyze image(s)")

const (
	DefaultURLQuery     = "Provided a detailed and highly technical analysis of this image."
	DefaultFileQuery    = "What’s in this image?"
	DefaultCompareQuery = "Provide a detailed comparison of these images."
)

// Analyzer answers one text query about one or more images.
type Analyzer struct {
	client    *openai.Client
	model     string
	miniModel string
}

func NewAnalyzer(cfg *config.VisionConfig) *Analyzer {
	aiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		aiCfg.BaseURL = cfg.BaseURL
	}
	return &Analyzer{
		client:    openai.NewClientWithConfig(aiCfg),
		model:     cfg.Model,
		miniModel: cfg.MiniModel,
	}
}

// AnalyzeURL describes a remote image with the full vision model.
func (a *Analyzer) AnalyzeURL(ctx context.Context, imageURL, query string) (string, error) {
	if query == "" {
		query = DefaultURLQuery
	}
	return a.analyze(ctx, a.model, query, []string{imageURL})
}

// AnalyzeFile sends a local image inline as a base64 data URL.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path, query string) (string, error) {
	if query == "" {
		query = DefaultFileQuery
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("path", path).Msg("failed to read image")
		return "", ErrAnalysisFailed
	}
	return a.analyze(ctx, a.miniModel, query, []string{DataURL(data)})
}

// AnalyzeMany answers a single query about several images at once.
func (a *Analyzer) AnalyzeMany(ctx context.Context, imageURLs []string, query string) (string, error) {
	if query == "" {
		query = DefaultCompareQuery
	}
	return a.analyze(ctx, a.miniModel, query, imageURLs)
}

func (a *Analyzer) analyze(ctx context.Context, model, query string, images []string) (string, error) {
	logger := log.FromCtx(ctx).With().Str("model", model).Int("images", len(images)).Logger()

	if len(images) == 0 {
		logger.Error().Msg("no images to analyze")
		return "", ErrAnalysisFailed
	}

	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: query}}
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    img,
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{{
			Role:         openai.ChatMessageRoleUser,
			MultiContent: parts,
		}},
	})
	if err != nil {
		logger.Error().Err(err).Msg("image analysis failed")
		return "", ErrAnalysisFailed
	}
	if len(resp.Choices) == 0 {
		logger.Error().Msg("image analysis returned no choices")
		return "", ErrAnalysisFailed
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", ErrAnalysisFailed
	}
	return answer, nil
}

// DataURL encodes image bytes as a data URL, sniffing the content type.
func DataURL(data []byte) string {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}
