package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/chorus/pkg/log"
)

type VisionConfig struct {
	Enabled   bool   `env:"CHORUS_VISION_ENABLED" envDefault:"false"`
	Model     string `env:"CHORUS_VISION_MODEL" envDefault:"gpt-4o"`
	MiniModel string `env:"CHORUS_VISION_MODEL_MINI" envDefault:"gpt-4o-mini"`
	BaseURL   string `env:"CHORUS_VISION_BASE_URL"`
	APIKey    string `env:"CHORUS_OPENAI_API_KEY"`
}

func NewVisionConfig(ctx context.Context) *VisionConfig {
	c := &VisionConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Vision config")
	}
	return c
}
