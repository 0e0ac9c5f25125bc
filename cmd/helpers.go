package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hvga/hvga-og/internal/backend"
	"github.com/hvga/hvga-og/internal/chat"
	"github.com/hvga/hvga-og/internal/config"
	"github.com/hvga/hvga-og/internal/dates"
	"github.com/hvga/hvga-og/internal/db"
	"github.com/hvga/hvga-og/internal/knowledge"
	"github.com/hvga/hvga-og/internal/llm"
	"github.com/hvga/hvga-og/internal/tools"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `hvga init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	applyLogLevel(cfg.LogLevel)
	return cfg, nil
}

// loadKnowledge opens the knowledge base with the configured time zone.
func loadKnowledge(cfg *config.Config) (*knowledge.Base, error) {
	resolver, err := dates.LoadResolver(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", cfg.Timezone, err)
	}
	kb, err := knowledge.Load(cfg.KnowledgeFile, resolver)
	if err != nil {
		return nil, fmt.Errorf("loading knowledge base: %w", err)
	}
	return kb, nil
}

// app holds the wired services shared by serve, ask and mcp.
type app struct {
	cfg      *config.Config
	kb       *knowledge.Base
	backend  *backend.Client
	registry *tools.Registry
	prompt   string
	engine   *chat.Engine
	memory   *chat.MemoryStore
	sqlStore *chat.SQLStore
	database *db.DB
}

// buildApp wires the knowledge base, backend and tools. The chat engine is
// only built when withChat is set since it needs provider credentials.
func buildApp(cfg *config.Config, withChat bool) (*app, error) {
	kb, err := loadKnowledge(cfg)
	if err != nil {
		return nil, err
	}

	client := backend.New(backend.Config{
		SupabaseURL:  cfg.Backend.SupabaseURL,
		AnonKey:      cfg.Backend.AnonKey,
		StandingsURL: cfg.Backend.StandingsURL,
		MembersURL:   cfg.Backend.MembersURL,
		Timeout:      seconds(cfg.Backend.TimeoutSeconds),
	})

	registry, err := tools.NewBuiltin(tools.Deps{
		Standings: client,
		Members:   client,
		Knowledge: kb,
		Dates:     kb.Resolver(),
	})
	if err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}

	a := &app{
		cfg:      cfg,
		kb:       kb,
		backend:  client,
		registry: registry,
		prompt:   chat.BuildSystemPrompt(kb.Text(), registry.Definitions()),
	}
	if !withChat {
		return a, nil
	}

	if err := a.buildEngine(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) buildEngine() error {
	strategies, err := buildStrategies(a.cfg)
	if err != nil {
		return err
	}

	var store chat.Store
	switch a.cfg.Session.Store {
	case config.SessionSQLite:
		database, err := db.Open(a.cfg.Session.DBPath)
		if err != nil {
			return fmt.Errorf("opening session database: %w", err)
		}
		a.database = database
		a.sqlStore = chat.NewSQLStore(database)
		store = a.sqlStore
	default:
		a.memory = chat.NewMemoryStore(minutes(a.cfg.Session.TTLMinutes))
		store = a.memory
	}

	engine, err := chat.NewEngine(chat.Options{
		SystemPrompt: a.prompt,
		Tools:        a.registry,
		Store:        store,
		Strategies:   strategies,
		NominalModel: a.cfg.NominalModel,
		HistoryLimit: a.cfg.Session.HistoryLimit,
	})
	if err != nil {
		return fmt.Errorf("creating chat engine: %w", err)
	}
	a.engine = engine
	return nil
}

// buildStrategies turns the primary and fallback entries into the ordered
// provider list. A fallback that cannot be created is skipped with a warning.
func buildStrategies(cfg *config.Config) ([]chat.Strategy, error) {
	primary, err := newProvider(cfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("creating primary provider: %w", err)
	}
	strategies := []chat.Strategy{
		chat.Primary(primary, cfg.Primary.Model, seconds(cfg.Primary.TimeoutSeconds)),
	}

	if cfg.Fallback.Enabled() {
		fallback, err := newProvider(cfg.Fallback)
		if err != nil {
			log.Warn().Err(err).Str("provider", string(cfg.Fallback.Type)).Msg("fallback provider disabled")
		} else {
			strategies = append(strategies,
				chat.Fallback(fallback, cfg.Fallback.Model, seconds(cfg.Fallback.TimeoutSeconds)))
		}
	}
	return strategies, nil
}

func newProvider(pc config.ProviderConfig) (llm.Provider, error) {
	p, err := llm.NewProvider(llm.Spec{
		Type:    string(pc.Type),
		Model:   pc.Model,
		APIKey:  pc.APIKey,
		BaseURL: pc.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	if pc.RequestsPerMinute > 0 {
		p = llm.NewRateLimitedProvider(p, pc.RequestsPerMinute)
	}
	return p, nil
}

// runSweeper expires idle sessions until ctx is cancelled.
func (a *app) runSweeper(ctx context.Context) {
	ttl := minutes(a.cfg.Session.TTLMinutes)
	if ttl <= 0 {
		return
	}
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}

	if a.memory != nil {
		a.memory.RunSweeper(ctx, interval)
		return
	}
	if a.sqlStore == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.sqlStore.Sweep(ctx, int(ttl.Seconds()))
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Msg("sweeping sessions")
			} else if n > 0 {
				log.Debug().Int64("sessions", n).Msg("expired idle sessions")
			}
		}
	}
}

func (a *app) Close() error {
	if a.database != nil {
		return a.database.Close()
	}
	return nil
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func minutes(n int) time.Duration { return time.Duration(n) * time.Minute }
