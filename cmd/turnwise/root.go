package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/turnwise/turnwise"
	"github.com/turnwise/turnwise/internal/config"
	"github.com/turnwise/turnwise/logging"
	"github.com/turnwise/turnwise/model"
	anthropicmodel "github.com/turnwise/turnwise/model/anthropic"
	openaimodel "github.com/turnwise/turnwise/model/openai"
	"github.com/turnwise/turnwise/monitoring"
	"github.com/turnwise/turnwise/store"
	"github.com/turnwise/turnwise/store/redisstore"
	sqlitestore "github.com/turnwise/turnwise/store/sqlite"
	"github.com/turnwise/turnwise/team"
	"github.com/turnwise/turnwise/tool/builtin"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "turnwise",
	Short: "Tool-using conversational agent",
	Long: `Turnwise runs a routed agent turn loop: each user input is classified
to a team, routed to a direct answer, a clarifying question or tool use, and
synthesized into a final answer from the gathered tool results.

Run 'turnwise chat' for an interactive session or 'turnwise serve' for the
HTTP front-end with Prometheus metrics and scheduled jobs.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./turnwise.yaml, ~/.config/turnwise/config.yaml)")
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(toolsCmd)
}

// app bundles everything the subcommands need.
type app struct {
	cfg     *config.Config
	logger  logging.Logger
	engine  *turnwise.Engine
	metrics *monitoring.Prometheus

	closers []io.Closer
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

// buildApp wires config, logger, model, store and engine together.
func buildApp(logOutput io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.New(&logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: logOutput,
	})

	m, err := buildModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, metrics: monitoring.New()}

	st, err := buildStore(cfg.Store, a)
	if err != nil {
		return nil, err
	}

	filter := team.Default
	if len(cfg.Teams) > 0 {
		filter = team.Filter(cfg.Teams)
	}

	engine, err := turnwise.New(m, func(o *turnwise.Options) {
		o.Store = st
		o.Logger = logger
		o.ToolMonitor = a.metrics
		o.ModelMonitor = a.metrics
		o.TeamFilter = filter
		o.UseClassifier = cfg.Agent.UseClassifier
		o.LoopLimit = cfg.Agent.LoopLimit
		o.InvokeTimeout = cfg.Agent.ToolTimeout
		o.BuiltinOptions = []func(*builtin.Options){
			func(bo *builtin.Options) { bo.BaseDir = cfg.Agent.WorkspaceDir },
		}
	})
	if err != nil {
		return nil, err
	}
	a.engine = engine
	return a, nil
}

func buildModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case "openai", "":
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case "anthropic":
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			if cfg.Name != "" {
				o.Model = anthropic.Model(cfg.Name)
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
			o.APIKey = cfg.APIKey
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

func buildStore(cfg config.StoreConfig, a *app) (store.Store, error) {
	switch cfg.Backend {
	case "memory", "":
		return store.NewInMemory(), nil
	case "sqlite":
		st, err := sqlitestore.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.closers = append(a.closers, st)
		return st, nil
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		st, err := redisstore.NewFromURL(ctx, cfg.RedisURL, func(o *redisstore.Options) {
			o.TTL = cfg.TTL
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, schema := range a.engine.Registry().Schemas() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", schema.Name, schema.Description)
		}
		return nil
	},
}
