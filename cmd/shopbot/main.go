package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"kasirinaja/shopbot/internal/agent"
	"kasirinaja/shopbot/internal/config"
	"kasirinaja/shopbot/internal/console"
	"kasirinaja/shopbot/internal/matcher"
	"kasirinaja/shopbot/internal/service"
	"kasirinaja/shopbot/internal/store"
	badgerstore "kasirinaja/shopbot/internal/store/badger"
	filestore "kasirinaja/shopbot/internal/store/file"
	"kasirinaja/shopbot/internal/store/memory"
	pgstore "kasirinaja/shopbot/internal/store/postgres"
	redisstore "kasirinaja/shopbot/internal/store/redis"
	sqlitestore "kasirinaja/shopbot/internal/store/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(config.Load()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopbot",
		Short: "Conversational inventory and sales assistant",
		Long: `shopbot answers questions about the product catalog and records sales
from loosely worded commands such as "sell 2 widget" or "how many widget".

Settings come from environment variables; flags override them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateConfig(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Backend, "backend", cfg.Backend, "record store: file, memory, sqlite, postgres, redis or badger")
	flags.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for file, sqlite and badger data")
	flags.StringVar(&cfg.FileFormat, "format", cfg.FileFormat, "file store format: json or yaml")
	flags.StringVar(&cfg.SQLitePath, "sqlite", cfg.SQLitePath, "sqlite database path (default <data-dir>/shopbot.db)")
	flags.Float64Var(&cfg.MatchCutoff, "cutoff", cfg.MatchCutoff, "lowest similarity accepted for a fuzzy product match")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	flags.BoolVar(&cfg.Plain, "plain", cfg.Plain, "disable colors")

	return cmd
}

func run(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer, errOut io.Writer) error {
	level, _ := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("close store", "err", err)
		}
	}()
	logger.Info("store opened", "backend", cfg.Backend)

	svc := service.New(st, service.Keys{Catalog: cfg.CatalogKey, Ledger: cfg.LedgerKey}, logger)
	sess, err := svc.Bootstrap(ctx)
	if err != nil {
		return err
	}

	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = console.IsTerminal(f)
	}
	plain := cfg.Plain
	if f, ok := out.(*os.File); !ok || !console.IsTerminal(f) {
		plain = true
	}

	var reader console.Reader = console.NewLineReader(in, out)
	if interactive {
		reader = console.NewInteractiveReader(out, 50)
	}
	renderer := console.NewRenderer(out, plain, cfg.CurrencySymbol)
	interp := agent.New(svc, sess, matcher.New(cfg.MatchCutoff), renderer, reader, logger)

	return console.NewREPL(reader, interp, renderer, logger).Run(ctx, sess.Products())
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendFile:
		fs, err := filestore.New(cfg.DataDir, cfg.FileFormat)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case config.BackendSQLite:
		sq, err := sqlitestore.Open(cfg.SQLiteFile())
		if err != nil {
			return nil, err
		}
		return sq, nil
	case config.BackendPostgres:
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres unavailable: %w", err)
		}
		return pg, nil
	case config.BackendRedis:
		rs := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rs.Ping(pingCtx); err != nil {
			_ = rs.Close()
			return nil, fmt.Errorf("redis unavailable: %w", err)
		}
		return rs, nil
	case config.BackendBadger:
		bs, err := badgerstore.Open(badgerstore.Config{Path: cfg.BadgerDir(), Logger: logger})
		if err != nil {
			return nil, err
		}
		return bs, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func validateConfig(cfg config.Config) error {
	switch cfg.Backend {
	case config.BackendFile:
		switch strings.ToLower(cfg.FileFormat) {
		case "json", "yaml", "yml":
		default:
			return fmt.Errorf("FILE_FORMAT must be json or yaml, got %q", cfg.FileFormat)
		}
	case config.BackendMemory, config.BackendSQLite, config.BackendBadger:
	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set for the postgres backend")
		}
	case config.BackendRedis:
		if cfg.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR must be set for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	if cfg.CatalogKey == "" || cfg.LedgerKey == "" {
		return fmt.Errorf("CATALOG_KEY and LEDGER_KEY must not be empty")
	}
	if cfg.CatalogKey == cfg.LedgerKey {
		return fmt.Errorf("CATALOG_KEY and LEDGER_KEY must differ")
	}
	if cfg.MatchCutoff <= 0 || cfg.MatchCutoff > 1 {
		return fmt.Errorf("match cutoff must be in (0, 1], got %v", cfg.MatchCutoff)
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("unknown log level %q", value)
	}
}
