package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/chorus/pkg/log"
)

type TelegramConfig struct {
	Token        string  `env:"CHORUS_TELEGRAM_TOKEN,required,notEmpty"`
	OwnerID      int64   `env:"CHORUS_TELEGRAM_OWNER_ID"`
	AllowedChats []int64 `env:"CHORUS_TELEGRAM_ALLOWED_CHATS" envSeparator:","`
}

func NewTelegramConfig(ctx context.Context) *TelegramConfig {
	c := &TelegramConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Telegram config")
	}
	return c
}

func (c *TelegramConfig) GetTelegramToken() string { return c.Token }
func (c *TelegramConfig) GetTelegramOwnerID() int64 { return c.OwnerID }

// IsAllowed reports whether the bot should listen in chatID. An empty
// allow list admits every chat.
func (c *TelegramConfig) IsAllowed(chatID int64) bool {
	if len(c.AllowedChats) == 0 {
		return true
	}
	for _, id := range c.AllowedChats {
		if id == chatID {
			return true
		}
	}
	return false
}
