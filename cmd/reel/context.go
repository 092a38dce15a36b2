package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mmcdole/reel/internal/adapter"
	"github.com/mmcdole/reel/internal/adapter/catalog"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/search"
	"github.com/mmcdole/reel/internal/session"
	"github.com/mmcdole/reel/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *adapter.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*adapter.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := adapter.LoadConfig(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// log returns the file logger, falling back to a null logger when the log
// file cannot be opened
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = adapter.NullLogger()
			return
		}
		logger, err := adapter.SetupLogger(&cfg.Logging)
		if err != nil {
			logger = adapter.NullLogger()
		}
		c.logger = logger
	})
	return c.logger
}

// sessionDeps is everything a command needs to talk to the catalog
type sessionDeps struct {
	cfg      *adapter.Config
	logger   *slog.Logger
	session  *session.Controller
	launcher *adapter.Launcher
}

// withSession builds a session against the configured catalog, runs fn and
// tears the session down
func (c *commandContext) withSession(fn func(d sessionDeps) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	d, closeFn, err := c.openSession(cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(d)
}

func (c *commandContext) openSession(cfg *adapter.Config) (sessionDeps, func(), error) {
	logger := c.log()
	sessionID := uuid.NewString()

	client := catalog.NewClient(catalog.Options{
		BaseURL:   cfg.Catalog.BaseURL,
		Language:  cfg.Catalog.Language,
		Timeout:   cfg.Catalog.Timeout,
		RateLimit: cfg.Catalog.RateLimit,
		SessionID: sessionID,
	}, logger)

	// A missing or locked cache degrades to no warm start
	var railStore domain.RailStore
	cache, err := store.NewRailStore(cfg.Cache.Dir, cfg.Catalog.BaseURL)
	if err != nil {
		logger.Warn("rail cache unavailable", "dir", cfg.Cache.Dir, "error", err)
	} else {
		railStore = cache
	}

	s := session.New(client, railStore, session.Options{
		ID:        sessionID,
		BaseURL:   cfg.Catalog.BaseURL,
		RailLimit: cfg.Catalog.RailLimit,
		ListLimit: cfg.Catalog.ListLimit,
		Search: search.Options{
			Debounce:  cfg.Search.Debounce,
			MinLength: cfg.Search.MinLength,
		},
		RankResults: cfg.Search.RankResults,
	}, logger)

	closeFn := func() {
		s.Teardown()
		if cache != nil {
			if err := cache.Close(); err != nil {
				logger.Warn("failed to close rail cache", "error", err)
			}
		}
	}

	return sessionDeps{
		cfg:      cfg,
		logger:   logger,
		session:  s,
		launcher: adapter.NewLauncher(cfg.Browser, cfg.Player, logger),
	}, closeFn, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// parseRef accepts "movie/42" or "movie:42"
func parseRef(arg string) (domain.MediaRef, error) {
	ref, err := domain.ParseMediaRef(strings.TrimSpace(arg))
	if err != nil {
		return domain.MediaRef{}, fmt.Errorf("parse %q: %w", arg, err)
	}
	return ref, nil
}
