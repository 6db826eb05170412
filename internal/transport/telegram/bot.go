package telegram

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sandevgo/chorus/internal/config"
	"github.com/sandevgo/chorus/internal/core"
	"github.com/sandevgo/chorus/internal/service/vision"
	"github.com/sandevgo/chorus/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const (
	Name           = "telegram"
	channelPrefix  = "tg:"
	baseContextKey = "base_context"
	maxPhotoBytes  = 10 << 20
)

type Bot struct {
	bot    *tele.Bot
	cfg    *config.TelegramConfig
	sender *sender

	sink     core.InboundSink
	commands core.CmdRouter
	vision   core.ImageDescriber
	links    core.LinkPreviewer
}

type Option func(*Bot)

// WithVision adds a description to every inbound photo.
func WithVision(d core.ImageDescriber) Option {
	return func(b *Bot) { b.vision = d }
}

// WithLinks attaches previews of linked pages to inbound messages.
func WithLinks(l core.LinkPreviewer) Option {
	return func(b *Bot) { b.links = l }
}

func NewBot(ctx context.Context, cfg *config.TelegramConfig, opts ...Option) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:    b,
		cfg:    cfg,
		sender: newSender(b),
	}
	for _, opt := range opts {
		opt(bot)
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Middleware: only listen in allowed chats
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Chat() == nil || !cfg.IsAllowed(c.Chat().ID) {
				return nil
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleText)
	b.Handle(tele.OnPhoto, bot.handlePhoto)

	return bot, nil
}

// Attach connects the bot to the orchestrator and the command router. It
// must be called before Start.
func (b *Bot) Attach(sink core.InboundSink, commands core.CmdRouter) {
	b.sink = sink
	b.commands = commands
}

func (b *Bot) Name() string {
	return Name
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

// Deliver sends one chunk spoken by p. Bots cannot post under another
// name, so the chunk is prefixed with the persona's display name.
func (b *Bot) Deliver(ctx context.Context, channelID string, p core.Persona, text string) error {
	chatID, err := ParseChannelID(channelID)
	if err != nil {
		return err
	}
	return b.sender.sendPersona(ctx, tele.ChatID(chatID), p.DisplayName(), text)
}

func (b *Bot) handleText(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	text := c.Text()

	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		return b.handleCommand(ctx, c, text)
	}

	b.publish(ctx, c, text, nil)
	return nil
}

func (b *Bot) handleCommand(ctx context.Context, c tele.Context, text string) error {
	if b.commands == nil || c.Sender() == nil || c.Sender().ID != b.cfg.OwnerID {
		return nil
	}

	channelID := ChannelID(c.Chat().ID)
	reply, ok := b.commands.Execute(ctx, channelID, text)
	if !ok || reply == "" {
		return nil
	}
	return b.sender.sendMarkdown(ctx, c.Chat(), reply)
}

func (b *Bot) handlePhoto(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx)

	photo := c.Message().Photo
	if photo == nil {
		return nil
	}

	attachment, err := b.download(ctx, photo)
	if err != nil {
		logger.Error().Err(err).Msg("failed to download telegram photo")
		// The caption still reaches the persona.
		b.publish(ctx, c, c.Message().Caption, nil)
		return nil
	}

	b.publish(ctx, c, c.Message().Caption, []core.Attachment{attachment})
	return nil
}

// download fetches the photo and inlines it as a data URL so the bot token
// never leaves this process.
func (b *Bot) download(ctx context.Context, photo *tele.Photo) (core.Attachment, error) {
	rc, err := b.bot.File(&photo.File)
	if err != nil {
		return core.Attachment{}, fmt.Errorf("get file: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPhotoBytes))
	if err != nil {
		return core.Attachment{}, fmt.Errorf("read file: %w", err)
	}

	attachment := core.Attachment{ContentType: "image/jpeg", URL: vision.DataURL(data)}
	if b.vision != nil {
		desc, err := b.vision.AnalyzeURL(ctx, attachment.URL, vision.DefaultFileQuery)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("photo description failed")
		} else {
			attachment.Description = desc
		}
	}
	return attachment, nil
}

func (b *Bot) publish(ctx context.Context, c tele.Context, text string, attachments []core.Attachment) {
	if b.sink == nil {
		return
	}
	if b.links != nil && text != "" {
		attachments = append(attachments, b.links.Attachments(ctx, text)...)
	}
	chat := c.Chat()
	b.sink.Publish(ctx, core.InboundEvent{
		Transport:   Name,
		ChannelID:   ChannelID(chat.ID),
		ChannelName: chatName(chat),
		Author:      authorName(c.Sender()),
		Text:        text,
		Attachments: attachments,
		ReceivedAt:  time.Now(),
	})
}

func ChannelID(chatID int64) string {
	return channelPrefix + strconv.FormatInt(chatID, 10)
}

func ParseChannelID(channelID string) (int64, error) {
	raw, ok := strings.CutPrefix(channelID, channelPrefix)
	if !ok {
		return 0, fmt.Errorf("not a telegram channel: %q", channelID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", raw, err)
	}
	return id, nil
}

func chatName(chat *tele.Chat) string {
	switch {
	case chat.Title != "":
		return chat.Title
	case chat.Username != "":
		return chat.Username
	default:
		return strconv.FormatInt(chat.ID, 10)
	}
}

func authorName(u *tele.User) string {
	if u == nil {
		return "unknown"
	}
	if u.Username != "" {
		return u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
