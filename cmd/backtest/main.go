// Package main provides the entry point for the rolling backtest CLI tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/lotto-backtest/internal/backtest"
	"github.com/yourusername/lotto-backtest/internal/config"
	"github.com/yourusername/lotto-backtest/internal/database"
	"github.com/yourusername/lotto-backtest/internal/datasource"
	"github.com/yourusername/lotto-backtest/internal/history"
	"github.com/yourusername/lotto-backtest/internal/logger"
	"github.com/yourusername/lotto-backtest/internal/metrics"
	"github.com/yourusername/lotto-backtest/internal/ml"
	"github.com/yourusername/lotto-backtest/internal/models"
	"github.com/yourusername/lotto-backtest/internal/repository"
	"github.com/yourusername/lotto-backtest/internal/service"
)

var (
	configFile string
	inputFile  string
	limit      int
	log        *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
)

var runFlags struct {
	game       string
	start      int
	end        int
	workers    int
	strategies []string
	strict     bool
	output     string
	persist    bool
}

var overlapFlags struct {
	window int
	sets   int
	trials int
	pick   int
	output string
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&inputFile, "input", "", "Read draws from a JSON file instead of storage or the data source")
	rootCmd.PersistentFlags().IntVar(&limit, "limit", 0, "Use only the most recent N draws (0 = all)")
	rootCmd.PersistentFlags().StringVarP(&runFlags.game, "game", "g", "", "Game code (ssq, kl8); overrides backtest.game")

	runCmd.Flags().IntVar(&runFlags.start, "start", backtest.AutoIndex, "First target index (-1 = first index after seq_len draws)")
	runCmd.Flags().IntVar(&runFlags.end, "end", backtest.AutoIndex, "Last target index (-1 = latest)")
	runCmd.Flags().IntVarP(&runFlags.workers, "workers", "w", 0, "Parallel period workers (0 = config)")
	runCmd.Flags().StringSliceVarP(&runFlags.strategies, "strategies", "s", nil, "Strategy IDs to run (default: game defaults)")
	runCmd.Flags().BoolVar(&runFlags.strict, "strict", false, "Skip ML periods that cannot train instead of falling back")
	runCmd.Flags().StringVarP(&runFlags.output, "output", "o", "", "Write the JSON summary to this path")
	runCmd.Flags().BoolVar(&runFlags.persist, "persist", false, "Store summary rows in the database")

	overlapCmd.Flags().IntVar(&overlapFlags.window, "window", 0, "Trailing window per period (0 = config)")
	overlapCmd.Flags().IntVar(&overlapFlags.sets, "sets", 0, "Tickets per period (0 = config)")
	overlapCmd.Flags().IntVar(&overlapFlags.trials, "trials", 0, "Random baseline trials (0 = config)")
	overlapCmd.Flags().IntVar(&overlapFlags.pick, "pick", 0, "Numbers per ticket (0 = full draw)")
	overlapCmd.Flags().StringVarP(&overlapFlags.output, "output", "o", "", "Write the JSON result to this path")

	rootCmd.AddCommand(runCmd, overlapCmd, strategiesCmd)
}

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Rolling backtest of lottery number strategies",
	Long: `Replays the draw history period by period, predicting each draw only from
the draws before it, and reports Hit@k and top-k rates per strategy.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the rolling backtest and print the summary table",
	RunE: func(cmd *cobra.Command, args []string) error {
		btCfg, err := backtestConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("start") {
			btCfg.StartIndex = runFlags.start
		}
		if cmd.Flags().Changed("end") {
			btCfg.EndIndex = runFlags.end
		}
		if runFlags.workers > 0 {
			btCfg.Workers = runFlags.workers
		}
		if len(runFlags.strategies) > 0 {
			btCfg.Strategies = runFlags.strategies
		}
		if runFlags.strict {
			btCfg.StrictTraining = true
		}
		if runFlags.output != "" {
			btCfg.OutputPath = runFlags.output
		}

		h, err := loadHistory(cmd.Context(), btCfg.Game)
		if err != nil {
			return err
		}

		cache := ml.NewPredictionCache(cfg.ModelCacheTTL(), cfg.Cache.ModelMaxSize)
		engine, err := backtest.NewEngine(btCfg, h, log, backtest.WithPredictionCache(cache))
		if err != nil {
			return err
		}

		result, runErr := engine.Run(cmd.Context())
		if result == nil {
			return runErr
		}
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			return runErr
		}

		fmt.Fprint(cmd.OutOrStdout(), backtest.GenerateConsoleReport(result))

		hits, misses, ratio := cache.Stats()
		logger.NewMLLogger(log).LogCacheStats(hits, misses, ratio, cache.ItemCount())

		if btCfg.OutputPath != "" {
			if err := backtest.ExportToJSON(result, btCfg.OutputPath); err != nil {
				return err
			}
			log.WithField("path", btCfg.OutputPath).Info("Backtest summary exported")
		}

		if runFlags.persist || cfg.Backtest.PersistSummary {
			if repos == nil {
				return fmt.Errorf("%w: persisting summaries requires database.enabled", models.ErrConfiguration)
			}
			summaries := service.NewSummaryService(repos.Summary, logger.NewAuditLogger(log))
			if _, err := summaries.Persist(cmd.Context(), result); err != nil {
				return err
			}
		}

		return runErr
	},
}

var overlapCmd = &cobra.Command{
	Use:   "overlap",
	Short: "Compare EMA-trend tickets with random tickets by best overlap",
	RunE: func(cmd *cobra.Command, args []string) error {
		btCfg, err := backtestConfig()
		if err != nil {
			return err
		}
		if overlapFlags.window > 0 {
			btCfg.Overlap.Window = overlapFlags.window
		}
		if overlapFlags.sets > 0 {
			btCfg.Overlap.Sets = overlapFlags.sets
		}
		if overlapFlags.trials > 0 {
			btCfg.Overlap.RandomTrials = overlapFlags.trials
		}
		if overlapFlags.pick > 0 {
			btCfg.Overlap.Pick = overlapFlags.pick
		}

		h, err := loadHistory(cmd.Context(), btCfg.Game)
		if err != nil {
			return err
		}

		result, err := backtest.RunOverlap(cmd.Context(), h, btCfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), backtest.GenerateOverlapReport(result))

		if overlapFlags.output != "" {
			return writeJSON(overlapFlags.output, result)
		}
		return nil
	},
}

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the strategies registered for the game",
	RunE: func(cmd *cobra.Command, args []string) error {
		btCfg, err := backtestConfig()
		if err != nil {
			return err
		}
		registry := backtest.NewRegistry(btCfg, nil, nil)
		defaults := make(map[string]bool)
		for _, id := range registry.Defaults() {
			defaults[id] = true
		}
		for _, id := range registry.IDs() {
			marker := " "
			if defaults[id] {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, id)
		}
		return nil
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if runFlags.game != "" {
		cfg.Backtest.Game = runFlags.game
	}
	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	log = logger.NewLogger(cfg.App.LogLevel)
	metrics.InitRegistry()

	if cfg.Database.Enabled {
		db, err = database.Initialize(ctx, cfg)
		if err != nil {
			return err
		}
		repos, err = repository.NewRepositories(db)
		if err != nil {
			return err
		}
	}
	return nil
}

func backtestConfig() (backtest.Config, error) {
	return backtest.FromConfig(&cfg.Backtest)
}

func loadHistory(ctx context.Context, game models.Game) (*history.History, error) {
	h, err := readHistory(ctx, game)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"game": game.Code, "draws": h.Len()}).Info("History loaded")
	return h, nil
}

func readHistory(ctx context.Context, game models.Game) (*history.History, error) {
	if inputFile != "" {
		h, err := service.LoadFile(game, inputFile)
		if err != nil || limit <= 0 || h.Len() <= limit {
			return h, err
		}
		return history.New(game, h.Draws()[h.Len()-limit:])
	}

	source, err := datasource.NewFactory(cfg, log).Create()
	if err != nil {
		return nil, err
	}
	var draws repository.DrawRepository
	if repos != nil {
		draws = repos.Draw
	}
	return service.NewHistoryLoader(draws, source, cfg.Ingestion.MaxPages, log).Load(ctx, game, limit)
}
