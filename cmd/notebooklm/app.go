package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/entrhq/notebooklm/pkg/batchexec"
	"github.com/entrhq/notebooklm/pkg/browser"
	"github.com/entrhq/notebooklm/pkg/cache"
	"github.com/entrhq/notebooklm/pkg/config"
	"github.com/entrhq/notebooklm/pkg/logging"
	"github.com/entrhq/notebooklm/pkg/notebook"
	"github.com/entrhq/notebooklm/pkg/session"
)

// app owns one wired workflow: browser, session, codec, cache, and
// orchestrator. One app is one logical session; operations on it must not
// be issued concurrently.
type app struct {
	cfg      *config.Config
	browser  *browser.Browser
	sessions *session.Manager
	client   *notebook.Client
	logger   *logging.Logger
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".notebooklm", "config.yaml")
}

// newApp launches the browser, acquires session credentials, and wires the
// full client. The caller must Close it.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagHeaded {
		cfg.Headless = false
	}

	logger, logErr := logging.NewLogger("cli")
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: file logging unavailable: %v\n", logErr)
	}

	b, err := browser.Launch(browser.Options{
		Headless:    cfg.Headless,
		UserDataDir: cfg.UserDataDir,
	})
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	sessionLogger, _ := logging.NewLogger("session")
	mgr := session.NewManager(b, sessionLogger, cfg.BaseURL, cfg.LoginDomain, cfg.Headless, cfg.TokenRetryDelay.Duration)
	if _, err := mgr.Acquire(ctx); err != nil {
		b.Close()
		logger.Close()
		return nil, err
	}

	rpcLogger, _ := logging.NewLogger("batchexec")
	rpc := batchexec.NewClient(b, mgr, rpcLogger, cfg.RPCEndpoint(), cfg.Locale)

	cacheLogger, _ := logging.NewLogger("cache")
	store := cache.NewStore(cfg.CachePath, cacheLogger)
	lastRun := cache.NewLastRun(cfg.LastRunPath)

	clientLogger, _ := logging.NewLogger("notebook")
	client, err := notebook.NewClient(rpc, b, store, lastRun, cfg, clientLogger)
	if err != nil {
		b.Close()
		logger.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		browser:  b,
		sessions: mgr,
		client:   client,
		logger:   logger,
	}, nil
}

func (a *app) Close() {
	if err := a.browser.Close(); err != nil {
		a.logger.Warnf("browser shutdown: %v", err)
	}
	a.logger.Close()
}
