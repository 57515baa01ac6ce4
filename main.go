package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iamwavecut/groupguard/internal/adapters"
	"github.com/iamwavecut/groupguard/internal/adapters/llm/gemini"
	"github.com/iamwavecut/groupguard/internal/adapters/llm/openai"
	"github.com/iamwavecut/groupguard/internal/bot"
	"github.com/iamwavecut/groupguard/internal/config"
	"github.com/iamwavecut/groupguard/internal/db"
	"github.com/iamwavecut/groupguard/internal/db/sqlite"
	handlers "github.com/iamwavecut/groupguard/internal/handlers/chat"
	"github.com/iamwavecut/groupguard/internal/infra"
	"github.com/iamwavecut/groupguard/internal/infrastructure/telegram"
	"github.com/iamwavecut/groupguard/internal/jobs"
	"github.com/iamwavecut/groupguard/internal/lifecycle"
	"github.com/iamwavecut/groupguard/internal/moderation"
	"github.com/iamwavecut/groupguard/internal/observability"
)

const updatesBuffer = 100

var errExecutableChanged = errors.New("executable file was modified")

func main() {
	log.SetFormatter(&config.NbFormatter{})
	log.SetOutput(os.Stdout)
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatalln("cant load config")
	}
	log.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		log.Infoln("bye")
	case errors.Is(err, errExecutableChanged):
		log.WithError(err).Warnln("restarting")
	default:
		log.WithError(err).Fatalln("bot stopped")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return err
	}
	botAPI.Debug = cfg.Level() == log.TraceLevel
	log.WithField("bot", botAPI.Self.UserName).Infoln("authorized")

	var journal db.Journal
	if cfg.Journal.Enabled {
		dir, err := infra.GetWorkDir(cfg.DotPath)
		if err != nil {
			return err
		}
		client, err := sqlite.NewSQLiteClient(ctx, dir, cfg.Journal.File)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.WithError(err).Warnln("cant close journal")
			}
		}()
		journal = client
	}
	service := bot.NewService(botAPI, journal, cfg.DefaultLanguage)

	seen := telegram.NewSeenUsers(0)
	platform := telegram.NewOperations(botAPI, seen)
	admins := moderation.NewAdminStatusCache(platform, cfg.Moderation.AdminCacheSize)
	purge := moderation.NewPurgeEngine(platform, platform, moderation.PurgeConfig{
		BatchSize:    cfg.Moderation.PurgeBatchSize,
		CleanupDelay: cfg.Moderation.PurgeCleanupDelay,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)
	observability.WatchAdminCache(registry, admins)

	moderator := handlers.NewModerator(service, handlers.ModeratorDeps{
		Platform:   platform,
		Admins:     admins,
		Resolver:   moderation.NewUserResolver(platform),
		Warnings:   moderation.NewWarningStore(cfg.Moderation.WarnLimit),
		Notes:      moderation.NewNoteStore(),
		Settings:   moderation.NewConfigStore(),
		Purge:      purge,
		Translator: newTranslator(cfg.Translate),
		Metrics:    metrics,
	}, handlers.ModeratorConfig{
		WarnMuteDuration:   cfg.Moderation.WarnMuteDuration,
		MuteDefaultMinutes: cfg.Moderation.MuteDefaultMinutes,
		KickBanDuration:    cfg.Moderation.KickBanDuration,
	})

	runtime := lifecycle.NewRuntime()
	runtime.Register("observability", observability.NewServer(cfg.Metrics.Addr, registry))
	runtime.Register("purge_cleanup", purge)
	if journal != nil {
		runtime.Register("journal_pruner", jobs.NewJournalPruner(journal, cfg.Journal.Retention, cfg.Journal.PruneSchedule))
	}

	processor := bot.NewUpdateProcessor(service, seen, moderator)
	return runtime.Run(ctx, func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)

		updateConfig := api.NewUpdate(0)
		updateConfig.Timeout = 60
		updateConfig.AllowedUpdates = []string{"message", "edited_message", "callback_query", "chat_member"}
		updates, updateErrs := bot.GetUpdatesChans(gctx, botAPI, updateConfig, updatesBuffer)

		g.Go(func() error {
			done := make(chan error, 1)
			infra.GoRecoverable(-1, "process_updates", func() {
				for update := range updates {
					if err := processor.Process(gctx, &update); err != nil {
						log.WithError(err).Errorln("cant process update")
					}
				}
				done <- <-updateErrs
			})
			return <-done
		})
		g.Go(func() error {
			if _, changed := <-infra.MonitorExecutable(gctx); changed {
				return errExecutableChanged
			}
			return nil
		})
		return g.Wait()
	})
}

// newTranslator returns nil when no LLM is configured, which disables /translate.
func newTranslator(cfg config.Translate) handlers.Translator {
	if cfg.APIKey == "" {
		return nil
	}
	adapters.Register(adapters.TypeOpenAI, openai.Factory)
	adapters.Register(adapters.TypeGemini, gemini.Factory)

	model, err := adapters.New(cfg.Type, cfg.APIKey, cfg.Model, cfg.BaseURL, log.WithField("object", "translator"))
	if err != nil {
		log.WithError(err).Warnln("translation disabled")
		return nil
	}
	return adapters.NewTranslator(model)
}
