package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"ojclient/internal/cli/api"
	"ojclient/internal/cli/command"
	"ojclient/internal/cli/config"
	httpclient "ojclient/internal/cli/http"
	"ojclient/internal/cli/metrics"
	"ojclient/internal/cli/poller"
	"ojclient/internal/cli/prefs"
	"ojclient/internal/cli/repl"
	"ojclient/internal/cli/session"
	"ojclient/internal/cli/state"
	"ojclient/internal/cli/store"
	"ojclient/internal/cli/view"
	"ojclient/pkg/utils/logger"
)

const defaultConfigPath = "configs/cli.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	baseURL := flag.String("base", "", "Override base URL")
	timeout := flag.Duration("timeout", 0, "Override HTTP timeout (e.g. 10s)")
	token := flag.String("token", "", "Override access token")
	statePath := flag.String("state", "", "Override state store path or DSN")
	storeDriver := flag.String("store", "", "State store driver: file, sqlite, redis")
	pretty := flag.Bool("pretty", false, "Pretty print JSON output")
	noColor := flag.Bool("no-color", false, "Disable coloured output")
	logLevel := flag.String("log-level", "", "Override log level")
	logOutput := flag.String("log-output", "", "Override log output (file path, stdout or stderr)")
	flag.Parse()

	if err := config.LoadDotEnv(".env", filepath.Join(config.HomeDir(), ".env")); err != nil {
		fmt.Fprintf(os.Stderr, "load env failed: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *storeDriver != "" {
		cfg.Store.Driver = *storeDriver
	}
	if *statePath != "" {
		cfg.Store.DSN = *statePath
	}
	if *pretty {
		trueValue := true
		cfg.PrettyJSON = &trueValue
	}
	if *noColor {
		falseValue := false
		cfg.Color = &falseValue
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logOutput != "" {
		cfg.Log.OutputPath = *logOutput
	}

	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, OutputPath: cfg.Log.OutputPath}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, *token); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, tokenOverride string) error {
	ctx := context.Background()

	kv, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("open state store failed: %w", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Warn(ctx, "close state store failed", zap.Error(err))
		}
	}()

	tokens := state.NewTokenStore(kv)
	m := metrics.New()
	client := api.New(httpclient.New(httpclient.Options{
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.Timeout,
		Tokens:            tokens,
		Metrics:           m,
		RequestsPerSecond: cfg.MaxRequestsPerSecond,
	}))
	mgr := session.NewManager(client, tokens)

	if _, err := tokens.Load(ctx); err != nil {
		return fmt.Errorf("load tokens failed: %w", err)
	}
	if tokenOverride != "" {
		if err := tokens.Save(ctx, tokenOverride, tokens.RefreshToken()); err != nil {
			return fmt.Errorf("save token failed: %w", err)
		}
	}
	if err := mgr.Restore(ctx); err != nil {
		logger.Warn(ctx, "restore session failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "could not reach %s: %v\n", cfg.BaseURL, err)
	}

	p := poller.New(client, poller.Options{Interval: cfg.Poll.Interval, MaxPolls: cfg.Poll.MaxPolls, Metrics: m})
	tracker := poller.NewTracker(client, p)
	defer tracker.Close()

	colorOn := cfg.Color == nil || *cfg.Color
	sess := repl.New(repl.Deps{
		API:      client,
		Session:  mgr,
		Poller:   p,
		Tracker:  tracker,
		Prefs:    prefs.New(kv),
		Metrics:  m,
		Config:   cfg,
		Renderer: view.New(os.Stdout, colorOn),
		Out:      os.Stdout,
		Interrupts: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		},
	}, command.Registry())

	if user, ok := mgr.User(); ok {
		fmt.Fprintf(os.Stdout, "signed in as %s\n", user.DisplayName())
	}
	if err := os.MkdirAll(filepath.Dir(cfg.HistoryFile), 0o700); err != nil {
		logger.Warn(ctx, "create history dir failed", zap.Error(err))
	}
	return sess.Run(ctx, cfg.HistoryFile)
}
