package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/sandevgo/chorus/internal/config"
	"github.com/sandevgo/chorus/internal/core"
	"github.com/sandevgo/chorus/internal/service/ui"
	"github.com/sandevgo/chorus/internal/service/vision"
	"github.com/sandevgo/chorus/pkg/log"
)

const (
	Name           = "cli"
	DefaultChannel = "#general"
	DefaultAuthor  = "you"
)

// ReadLine is a local console transport. Every line is a message posted to
// a named channel; personas answer inline.
type ReadLine struct {
	rl     *readline.Instance
	outMu  sync.Mutex
	vision core.ImageDescriber
	links  core.LinkPreviewer
	onExit func()

	sink     core.InboundSink
	commands core.CmdRouter

	channel string
}

type Option func(*ReadLine)

// WithVision adds a description to every image attachment.
func WithVision(d core.ImageDescriber) Option {
	return func(r *ReadLine) { r.vision = d }
}

// WithLinks attaches previews of linked pages to every message.
func WithLinks(l core.LinkPreviewer) Option {
	return func(r *ReadLine) { r.links = l }
}

// WithOnExit sets a callback for when the operator leaves the console.
func WithOnExit(fn func()) Option {
	return func(r *ReadLine) { r.onExit = fn }
}

func NewReadLine(cfg *config.AppConfig, opts ...Option) (*ReadLine, error) {
	runtimePath := cfg.GetRuntimePath()
	if err := os.MkdirAll(runtimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt(DefaultChannel),
		HistoryFile:     filepath.Join(runtimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	r := &ReadLine{rl: rl, channel: DefaultChannel}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Attach connects the console to the orchestrator and the command router.
// It must be called before Start.
func (r *ReadLine) Attach(sink core.InboundSink, commands core.CmdRouter) {
	r.sink = sink
	r.commands = commands
}

func (r *ReadLine) Name() string {
	return Name
}

func (r *ReadLine) Deliver(_ context.Context, channelID string, p core.Persona, text string) error {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	_, err := fmt.Fprintf(r.rl.Stdout(), "%s %s %s\n",
		ui.ChannelStyle.Render(channelID),
		ui.PersonaStyle.Render(p.DisplayName()+":"),
		text,
	)
	return err
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("console started. Type '#channel author: text', '/help' or 'exit'.")
	if r.onExit != nil {
		defer r.onExit()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil // Exit on Ctrl+C
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		r.handle(ctx, line)
	}
}

func (r *ReadLine) handle(ctx context.Context, line string) {
	if strings.HasPrefix(line, "/") {
		if r.commands == nil {
			return
		}
		if reply, ok := r.commands.Execute(ctx, r.channel, line); ok {
			r.print(reply)
		}
		return
	}

	in := ParseLine(line, r.channel)
	if in.Channel != r.channel {
		r.channel = in.Channel
		r.rl.SetPrompt(prompt(r.channel))
	}
	if in.Text == "" && len(in.Images) == 0 {
		return
	}

	attachments := r.attachments(ctx, in.Images)
	if r.links != nil && in.Text != "" {
		attachments = append(attachments, r.links.Attachments(ctx, in.Text)...)
	}
	if r.sink == nil {
		return
	}
	r.sink.Publish(ctx, core.InboundEvent{
		Transport:   Name,
		ChannelID:   in.Channel,
		ChannelName: strings.TrimPrefix(in.Channel, "#"),
		Author:      in.Author,
		Text:        in.Text,
		Attachments: attachments,
		ReceivedAt:  time.Now(),
	})
}

// attachments turns image references into attachments. Local files are
// inlined as data URLs.
func (r *ReadLine) attachments(ctx context.Context, refs []string) []core.Attachment {
	logger := log.FromCtx(ctx)

	var res []core.Attachment
	for _, ref := range refs {
		a := core.Attachment{ContentType: imageContentType(ref), URL: ref}
		if !isRemote(ref) {
			data, err := os.ReadFile(ref)
			if err != nil {
				logger.Warn().Err(err).Str("path", ref).Msg("failed to read image")
				r.print(ui.ErrorStyle.Render("cannot read " + ref))
				continue
			}
			a.URL = vision.DataURL(data)
		}

		if r.vision != nil {
			desc, err := r.vision.AnalyzeURL(ctx, a.URL, vision.DefaultFileQuery)
			if err != nil {
				logger.Warn().Err(err).Str("image", ref).Msg("image description failed")
			} else {
				a.Description = desc
			}
		}
		res = append(res, a)
	}
	return res
}

func (r *ReadLine) print(s string) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintln(r.rl.Stdout(), s)
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}

func prompt(channel string) string {
	return channel + " >>> "
}
