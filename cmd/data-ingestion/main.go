// Package main provides the entry point for the draw ingestion service.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/lotto-backtest/internal/config"
	"github.com/yourusername/lotto-backtest/internal/database"
	"github.com/yourusername/lotto-backtest/internal/datasource"
	"github.com/yourusername/lotto-backtest/internal/health"
	"github.com/yourusername/lotto-backtest/internal/logger"
	"github.com/yourusername/lotto-backtest/internal/metrics"
	"github.com/yourusername/lotto-backtest/internal/models"
	"github.com/yourusername/lotto-backtest/internal/repository"
	"github.com/yourusername/lotto-backtest/internal/scheduler"
	"github.com/yourusername/lotto-backtest/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	games      []string
	limit      int
	log        *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	ingestion  *service.IngestionService
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringSliceVar(&games, "games", nil, "Game codes to ingest (default: ingestion.games)")
	rootCmd.PersistentFlags().IntVar(&limit, "limit", 0, "Fetch at most N latest draws per game (0 = all pages)")

	rootCmd.AddCommand(onceCmd, serveCmd, statusCmd)
}

var rootCmd = &cobra.Command{
	Use:          "data-ingestion",
	Short:        "Fetch lottery draw results into Postgres",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single ingestion pass and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := ingestion.IngestAll(cmd.Context(), targetGames(), limit)
		for _, m := range results {
			fmt.Fprintln(cmd.OutOrStdout(), m.String())
		}
		return err
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Ingest on the configured cron schedule and serve health checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sched := scheduler.NewScheduler(ingestion, log)
		if _, err := sched.ScheduleIngestion(cfg.Ingestion.Schedule, targetGames(), limit); err != nil {
			return err
		}

		healthCfg := health.Config{
			ServiceName: "data-ingestion",
			Version:     Version + "+" + GitCommit,
			Port:        cfg.Health.Port,
			Logger:      log,
			DB:          db,
			Ingestion:   sched,
		}
		if cfg.Metrics.Enabled {
			healthCfg.Metrics = metrics.Handler()
			healthCfg.MetricsPath = cfg.Metrics.Path
		}
		server := health.NewServer(healthCfg)
		if err := server.Start(ctx); err != nil {
			return err
		}

		// Backfill before the first scheduled tick.
		_ = sched.RunNow(ctx, targetGames(), limit)
		if err := sched.Start(); err != nil {
			return err
		}
		server.SetReady(true)
		log.WithField("next_run", sched.GetNextRun().Format(time.RFC3339)).Info("Ingestion daemon running")

		<-ctx.Done()
		server.SetReady(false)
		return sched.Stop()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored draw counts per game",
	RunE: func(cmd *cobra.Command, args []string) error {
		repos, err := repository.NewRepositories(db)
		if err != nil {
			return err
		}
		for _, code := range targetGames() {
			game, err := models.LookupGame(code)
			if err != nil {
				return err
			}
			count, err := repos.Draw.Count(cmd.Context(), game.Code)
			if err != nil {
				return err
			}
			latest, err := repos.Draw.LatestPeriod(cmd.Context(), game.Code)
			if err != nil && !errors.Is(err, models.ErrNotFound) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-4s draws=%d latest=%s\n", game.Code, count, latest)
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

func loadConfig() error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	log = logger.NewLogger(cfg.App.LogLevel)
	log.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
	}).Info("Configuration loaded")
	return nil
}

func setupDependencies(ctx context.Context) error {
	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if !cfg.Database.Enabled {
		return fmt.Errorf("%w: ingestion requires database.enabled", models.ErrConfiguration)
	}

	metrics.InitRegistry()

	var err error
	db, err = database.Initialize(ctx, cfg)
	if err != nil {
		return err
	}
	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}

	source, err := datasource.NewFactory(cfg, log).NewDataSource(cfg.DataSource, nil)
	if err != nil {
		return err
	}
	ingestion = service.NewIngestionService(source, repos.Draw, log, cfg.Ingestion.BatchSize, cfg.Ingestion.MaxPages)
	return nil
}

func targetGames() []string {
	if len(games) > 0 {
		return games
	}
	return cfg.Ingestion.Games
}
