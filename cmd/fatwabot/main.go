package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fatwabot/internal/audit"
	"fatwabot/internal/bus"
	"fatwabot/internal/channel"
	"fatwabot/internal/config"
	"fatwabot/internal/dispatch"
	"fatwabot/internal/domain"
	"fatwabot/internal/format"
	"fatwabot/internal/instruction"
	"fatwabot/internal/metrics"
	"fatwabot/internal/provider"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version    = "1.0.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	// Credentials usually live in a .env file next to the config.
	_ = godotenv.Load()

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "fatwabot",
		Short: "fatwabot: trilingual fatwa Q&A gateway",
		Long:  "fatwabot answers religious questions in Arabic or English from Sayyed Ali Khamenei's published rulings, via an upstream completion provider.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.fatwabot/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(askCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(gatewayCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(configCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(config.DefaultConfigDir(), 0o755); err != nil {
				return err
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			logger.Info("set TOGETHER_API_KEY (and TELEGRAM_BOT_TOKEN for the gateway) in the environment or a .env file")
			return nil
		},
	}
}

// setupLogger rebuilds the process logger from config.
func setupLogger(cfg *config.Config) error {
	var level slog.Level
	switch strings.ToLower(cfg.General.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("unknown log level: %s", cfg.General.LogLevel)
	}

	var w io.Writer = os.Stderr
	if cfg.General.LogFile != "" {
		f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		w = f
	}

	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return nil
}

// buildPipeline assembles the catalog, provider, formatter, and dispatcher
// shared by ask, chat, and gateway. The returned cleanup closes the audit log.
func buildPipeline(cfg *config.Config, messageBus *bus.InMemoryBus) (*dispatch.Loop, domain.Provider, func(), error) {
	catalog := instruction.Builtin()
	if err := catalog.LoadOverrides(cfg.Instructions.Path, logger); err != nil {
		return nil, nil, nil, err
	}
	if err := catalog.Validate(); err != nil {
		return nil, nil, nil, err
	}

	factory := provider.NewFactory(cfg, logger)
	prov, err := factory.DefaultProvider()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("provider: %w", err)
	}

	var auditLog *audit.Log
	cleanup := func() {}
	if cfg.Audit.Enabled {
		auditLog, err = audit.Open(cfg.Audit.DBPath, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("audit log: %w", err)
		}
		cleanup = func() { auditLog.Close() }

		if n, err := auditLog.Prune(context.Background(), cfg.Audit.RetentionDays); err != nil {
			logger.Warn("audit prune failed", "err", err)
		} else if n > 0 {
			logger.Info("audit log pruned", "deleted", n)
		}
	}

	loop := dispatch.NewLoop(dispatch.LoopConfig{
		Provider:     prov,
		Instructions: catalog,
		Formatter:    format.New(catalog),
		Bus:          messageBus,
		Audit:        auditLog,
		Logger:       logger,
		Timeout:      time.Duration(cfg.General.RequestTimeoutSeconds) * time.Second,
		Concurrency:  cfg.General.MaxConcurrentMessages,
	})
	return loop, prov, cleanup, nil
}

func askCmd() *cobra.Command {
	var localeHint string
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return err
			}
			if err := setupLogger(cfg); err != nil {
				return err
			}

			messageBus := bus.New(1, logger)
			defer messageBus.Close()

			loop, _, cleanup, err := buildPipeline(cfg, messageBus)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ans := loop.Ask(ctx, strings.Join(args, " "), localeHint)
			fmt.Println(ans.Text)
			return nil
		},
	}
	cmd.Flags().StringVar(&localeHint, "lang", "", "locale hint overriding script detection (e.g. ar, en)")
	return cmd
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start interactive chat (CLI)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return err
			}
			if err := setupLogger(cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			messageBus := bus.New(100, logger)
			defer messageBus.Close()

			loop, _, cleanup, err := buildPipeline(cfg, messageBus)
			if err != nil {
				return err
			}
			defer cleanup()

			go loop.Run(ctx)

			cli := channel.NewCLI(channel.CLIConfig{Logger: logger})
			return cli.Start(ctx, messageBus)
		},
	}
}

func gatewayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gateway",
		Short: "Start the gateway (Telegram + dispatcher)",
		Long:  "Starts the enabled channels and the dispatcher. Press Ctrl+C to stop.",
		RunE:  runGateway,
	}
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := setupLogger(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messageBus := bus.New(100, logger)

	loop, prov, cleanup, err := buildPipeline(cfg, messageBus)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := prov.Healthy(ctx); err != nil {
		logger.Warn("provider unhealthy at startup", "provider", prov.Name(), "err", err)
	} else {
		logger.Info("provider healthy", "provider", prov.Name())
	}

	go loop.Run(ctx)

	var channels []domain.Channel
	if cfg.Channels.Telegram.Enabled {
		channels = append(channels, channel.NewTelegram(channel.TelegramConfig{
			Token:     cfg.Channels.Telegram.Token,
			AllowFrom: cfg.Channels.Telegram.AllowFrom,
			Logger:    logger,
		}))
	}
	for _, ch := range channels {
		go func(ch domain.Channel) {
			if err := ch.Start(ctx, messageBus); err != nil {
				logger.Error("channel error", "channel", ch.Name(), "err", err)
			}
		}(ch)
		logger.Info("channel enabled", "channel", ch.Name())
	}
	if len(channels) == 0 {
		logger.Warn("no channels enabled, gateway only reachable via ask/chat")
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.HandleFunc(cfg.Metrics.Endpoint, metrics.Collector.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			logger.Info("metrics endpoint listening", "addr", cfg.Metrics.Addr, "endpoint", cfg.Metrics.Endpoint)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", "err", err)
			}
		}()
	}

	logger.Info("gateway started", "version", version)

	<-ctx.Done()
	logger.Info("shutting down gateway...")

	const shutdownTimeout = 10 * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, ch := range channels {
			if err := ch.Stop(); err != nil {
				logger.Warn("channel stop failed", "channel", ch.Name(), "err", err)
			}
		}
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		messageBus.Close()
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
		return nil
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out, forcing exit")
		return fmt.Errorf("shutdown timed out")
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show gateway status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Info("config", "path", cfgPath, "loaded", false, "err", err)
				return nil
			}
			logger.Info("config", "path", cfgPath, "loaded", true)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			factory := provider.NewFactory(cfg, logger)
			if prov := factory.HealthyProvider(ctx); prov != nil {
				logger.Info("provider", "name", prov.Name(), "healthy", true)
			} else {
				logger.Info("provider", "healthy", false)
			}

			if cfg.Audit.Enabled {
				auditLog, err := audit.Open(cfg.Audit.DBPath, logger)
				if err != nil {
					logger.Warn("audit log unavailable", "err", err)
					return nil
				}
				defer auditLog.Close()
				counts, err := auditLog.CountByOutcome(ctx)
				if err != nil {
					logger.Warn("audit counts unavailable", "err", err)
					return nil
				}
				for outcome, n := range counts {
					logger.Info("turns", "outcome", outcome, "count", n)
				}
			}
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. general.defaultProvider)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. general.defaultProvider openai)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, _ := json.MarshalIndent(config.Sanitize(cfg), "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}
