// Package main provides the entry point for the next-draw recommendation tool.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"
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
	"github.com/yourusername/lotto-backtest/internal/payout"
	"github.com/yourusername/lotto-backtest/internal/repository"
	"github.com/yourusername/lotto-backtest/internal/service"
)

var (
	configFile string
	log        *logrus.Logger
	cfg        *config.Config
)

var flags struct {
	game       string
	input      string
	limit      int
	strategy   string
	sets       int
	candidates int
	pick       int
	holdout    bool
	payout     string
	budget     float64
	asJSON     bool
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&flags.game, "game", "g", "", "Game code (ssq, kl8); overrides backtest.game")
	rootCmd.Flags().StringVar(&flags.input, "input", "", "Read draws from a JSON file")
	rootCmd.Flags().IntVar(&flags.limit, "limit", 0, "Use only the most recent N draws (0 = all)")
	rootCmd.Flags().StringVarP(&flags.strategy, "strategy", "s", backtest.StrategyFusedPrior, "Strategy whose distribution tickets are drawn from")
	rootCmd.Flags().IntVar(&flags.sets, "sets", 0, "Number of tickets (0 = config)")
	rootCmd.Flags().IntVar(&flags.candidates, "candidates", 0, "Monte Carlo candidates (0 = config)")
	rootCmd.Flags().IntVar(&flags.pick, "pick", 0, "Numbers per ticket; KL8 pick-N play (0 = full draw)")
	rootCmd.Flags().BoolVar(&flags.holdout, "holdout", false, "Withhold the latest draw and score the tickets against it")
	rootCmd.Flags().StringVar(&flags.payout, "payout-table", "", "KL8 prize table JSON for stake sizing")
	rootCmd.Flags().Float64Var(&flags.budget, "budget", 0, "Budget for stake sizing (0 = config)")
	rootCmd.Flags().BoolVar(&flags.asJSON, "json", false, "Print the recommendation as JSON")
}

var rootCmd = &cobra.Command{
	Use:          "recommend",
	Short:        "Generate tickets for the next draw",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		btCfg, err := backtest.FromConfig(&cfg.Backtest)
		if err != nil {
			return err
		}

		opts, err := recommendOptions()
		if err != nil {
			return err
		}

		h, cleanup, err := loadHistory(cmd.Context(), btCfg)
		if err != nil {
			return err
		}
		defer cleanup()

		cache := ml.NewPredictionCache(cfg.ModelCacheTTL(), cfg.Cache.ModelMaxSize)
		rec, err := service.NewRecommendationService(log, cache).Recommend(cmd.Context(), h, btCfg, opts)
		if err != nil {
			return err
		}

		if flags.asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		}
		printRecommendation(cmd.OutOrStdout(), rec)
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
	if flags.game != "" {
		cfg.Backtest.Game = flags.game
	}
	if flags.payout != "" {
		cfg.Recommend.PayoutTable = flags.payout
	}
	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	log = logger.NewLogger(cfg.App.LogLevel)
	metrics.InitRegistry()
	return nil
}

func recommendOptions() (service.RecommendOptions, error) {
	rc := cfg.Recommend
	opts := service.RecommendOptions{
		Strategy:        flags.strategy,
		Sets:            rc.Sets,
		Candidates:      rc.Candidates,
		Pick:            rc.Pick,
		Holdout:         flags.holdout,
		Budget:          decimal.NewFromFloat(rc.Budget),
		FractionOfKelly: rc.FractionOfKelly,
	}
	if flags.sets > 0 {
		opts.Sets = flags.sets
	}
	if flags.candidates > 0 {
		opts.Candidates = flags.candidates
	}
	if flags.pick > 0 {
		opts.Pick = flags.pick
	}
	if flags.budget > 0 {
		opts.Budget = decimal.NewFromFloat(flags.budget)
	}

	if rc.PayoutTable != "" {
		f, err := os.Open(rc.PayoutTable)
		if err != nil {
			return opts, fmt.Errorf("failed to open payout table: %w", err)
		}
		defer f.Close()
		table, err := payout.ParseTable(f)
		if err != nil {
			return opts, err
		}
		opts.Payout = &table
		if opts.Pick == 0 {
			opts.Pick = table.Choose
		}
	}
	return opts, nil
}

func loadHistory(ctx context.Context, btCfg backtest.Config) (*history.History, func(), error) {
	noop := func() {}
	if flags.input != "" {
		h, err := service.LoadFile(btCfg.Game, flags.input)
		if err != nil || flags.limit <= 0 || h.Len() <= flags.limit {
			return h, noop, err
		}
		h, err = history.New(btCfg.Game, h.Draws()[h.Len()-flags.limit:])
		return h, noop, err
	}

	var draws repository.DrawRepository
	cleanup := noop
	if cfg.Database.Enabled {
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		cleanup = db.Close
		repos, err := repository.NewRepositories(db)
		if err != nil {
			db.Close()
			return nil, noop, err
		}
		draws = repos.Draw
	}

	source, err := datasource.NewFactory(cfg, log).Create()
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	h, err := service.NewHistoryLoader(draws, source, cfg.Ingestion.MaxPages, log).Load(ctx, btCfg.Game, flags.limit)
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	return h, cleanup, nil
}

func printRecommendation(w io.Writer, rec *service.Recommendation) {
	fmt.Fprintf(w, "Game: %s  Strategy: %s  Target: #%d (%s)\n", rec.Game, rec.Strategy, rec.TargetIndex, rec.TargetWeekday)
	if rec.Fallback {
		fmt.Fprintln(w, "Note: sequence model could not train; using the fused prior")
	}
	if rec.SumRange != nil {
		fmt.Fprintf(w, "Sum range: [%d, %d] (%s, mean %.1f)\n", rec.SumRange.Low, rec.SumRange.High, rec.SumRange.Method, rec.SumRange.Mean)
	}
	if len(rec.HotSecondary) > 0 {
		fmt.Fprintf(w, "Hot secondary: %v\n", rec.HotSecondary)
	}
	fmt.Fprintln(w)

	for i, t := range rec.Tickets {
		line := fmt.Sprintf("%2d. %s", i+1, joinNumbers(t.Primary))
		if len(t.Secondary) > 0 {
			line += " + " + joinNumbers(t.Secondary)
		}
		fmt.Fprintf(w, "%s  score=%.4f  H=%.2f\n", line, t.Score, t.Entropy)
	}

	if rec.Holdout != nil {
		fmt.Fprintf(w, "\nHoldout %s overlaps: %v\n", rec.Holdout.Period, rec.Holdout.Overlaps)
		if len(rec.Holdout.Tiers) > 0 {
			fmt.Fprintf(w, "Holdout prize tiers: %v\n", rec.Holdout.Tiers)
		}
	}
	if rec.Payout != nil {
		fmt.Fprintf(w, "\nPick %d: EV per bet %s, Kelly %.3f, stakes %d\n",
			rec.Payout.Choose, rec.Payout.ExpectedValue.StringFixed(4), rec.Payout.Kelly, rec.Payout.Stakes)
	}
}

func joinNumbers(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%02d", n)
	}
	return strings.Join(parts, " ")
}
