package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sandevgo/chorus/internal/config"
	"github.com/sandevgo/chorus/internal/core"
	"github.com/sandevgo/chorus/internal/providers/llm"
	"github.com/sandevgo/chorus/internal/service/agent"
	"github.com/sandevgo/chorus/internal/service/attention"
	"github.com/sandevgo/chorus/internal/service/command"
	"github.com/sandevgo/chorus/internal/service/debounce"
	"github.com/sandevgo/chorus/internal/service/links"
	"github.com/sandevgo/chorus/internal/service/maintenance"
	"github.com/sandevgo/chorus/internal/service/memory"
	"github.com/sandevgo/chorus/internal/service/orchestrator"
	"github.com/sandevgo/chorus/internal/service/router"
	"github.com/sandevgo/chorus/internal/service/vision"
	"github.com/sandevgo/chorus/internal/storage/directory"
	"github.com/sandevgo/chorus/internal/storage/sqlite"
	"github.com/sandevgo/chorus/internal/transport/cli"
	"github.com/sandevgo/chorus/internal/transport/telegram"
	"github.com/sandevgo/chorus/pkg/log"
	"github.com/sandevgo/chorus/pkg/retry"
	"github.com/sandevgo/chorus/pkg/srv"
)

var errNoTransport = errors.New("no transport enabled, set CHORUS_ENABLE_CLI or CHORUS_ENABLE_TELEGRAM")

// endpoint is a transport that also receives messages.
type endpoint interface {
	core.Transport
	srv.Service
	Attach(sink core.InboundSink, commands core.CmdRouter)
}

// base is what every command needs: configuration, the store and the
// personas seeded into it.
type base struct {
	cfg      *config.AppConfig
	db       *sql.DB
	records  *sqlite.RecordsRepo
	personas []core.Persona
}

func NewServices(ctx context.Context, stop func()) []srv.Service {
	logger := log.FromCtx(ctx)

	// 1. Configuration and storage
	b := initBase(ctx)
	services := []srv.Service{srv.NewCleanup(b.db.Close)}

	// 2. Model providers
	chatModel, err := llm.NewProvider(ctx, b.cfg, b.cfg.ChatModel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize chat model")
	}
	maintenanceModel, err := llm.NewProvider(ctx, b.cfg, b.cfg.MaintenanceModel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize maintenance model")
	}

	// 3. Conversation state
	mem := memory.NewMemory(b.cfg.HistoryLimit)
	tracker := attention.NewTracker()
	rt := router.New(b.personas, tracker)
	routine := maintenance.NewRoutine(b.personas, mem, maintenanceModel, b.records)

	commands := command.New(command.NewCommands(rt, tracker, mem, b.records, routine))

	// 4. Transports
	endpoints, err := initTransports(ctx, b.cfg, stop)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	transports := make([]core.Transport, len(endpoints))
	for i, e := range endpoints {
		transports[i] = e
	}

	// 5. Orchestration
	engine := agent.NewEngine(
		agent.Settings{
			InteractionLimit: b.cfg.InteractionLimit,
			DebounceWindow:   b.cfg.GetDebounceWindow(),
			PropagationDepth: b.cfg.PropagationDepth,
			MaxMessageLength: b.cfg.MaxMessageLength,
		},
		b.personas,
		mem,
		debounce.New(),
		chatModel,
		b.records,
		transports,
	)
	orch := orchestrator.New(rt, engine, tracker, b.cfg.GetChannelDecay())
	services = append(services, orch)

	if b.cfg.EnableMaintenance {
		services = append(services, maintenance.NewScheduler(routine, b.cfg.MaintenanceInterval))
	}

	// Transports start last so nothing is published before the
	// orchestrator listens, and stop first on shutdown.
	for _, e := range endpoints {
		e.Attach(orch, commands)
		services = append(services, e)
	}

	return services
}

// initBase loads configuration, opens the store and seeds the personas.
// Any failure is fatal.
func initBase(ctx context.Context) *base {
	logger := log.FromCtx(ctx)

	if err := config.LoadEnv(); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}
	cfg := config.NewAppConfig(ctx)

	db, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	personas, err := directory.Seed(ctx, cfg.GetPersonasPath(), sqlite.NewPersonasRepo(db))
	if err != nil {
		db.Close()
		logger.Fatal().Err(err).Msg("failed to load personas")
	}
	if len(personas) == 0 {
		db.Close()
		logger.Fatal().Str("path", cfg.GetPersonasPath()).Msg("no personas configured, run 'chorus install' or edit the personas file")
	}

	return &base{
		cfg:      cfg,
		db:       db,
		records:  sqlite.NewRecordsRepo(db),
		personas: personas,
	}
}

func openStore(ctx context.Context, cfg *config.AppConfig) (*sql.DB, error) {
	logger := log.FromCtx(ctx)

	rc := retry.NewDefaultConfig()
	rc.OnRetry = func(attempt int, err error, next time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("next", next).Msg("database not ready, retrying")
	}

	var db *sql.DB
	err := retry.NewRetrier(rc).Do(ctx, func() error {
		var err error
		db, err = sqlite.NewDB(ctx, cfg.GetDatabasePath())
		return err
	})
	return db, err
}

func initTransports(ctx context.Context, cfg *config.AppConfig, stop func()) ([]endpoint, error) {
	var endpoints []endpoint

	var describer core.ImageDescriber
	if visionCfg := config.NewVisionConfig(ctx); visionCfg.Enabled {
		describer = vision.NewAnalyzer(visionCfg)
	}
	var previewer core.LinkPreviewer
	if cfg.LinkPreview {
		previewer = links.NewPreviewer()
	}

	if cfg.EnableTelegram {
		tgCfg := config.NewTelegramConfig(ctx)
		var opts []telegram.Option
		if describer != nil {
			opts = append(opts, telegram.WithVision(describer))
		}
		if previewer != nil {
			opts = append(opts, telegram.WithLinks(previewer))
		}
		bot, err := telegram.NewBot(ctx, tgCfg, opts...)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, bot)
	}

	if cfg.EnableCLI {
		opts := []cli.Option{cli.WithOnExit(stop)}
		if describer != nil {
			opts = append(opts, cli.WithVision(describer))
		}
		if previewer != nil {
			opts = append(opts, cli.WithLinks(previewer))
		}
		console, err := cli.NewReadLine(cfg, opts...)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, console)
	}

	if len(endpoints) == 0 {
		return nil, errNoTransport
	}
	return endpoints, nil
}
