// Command stockscore scores stocks from price history and fundamentals.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/seenimoa/stockscore/api"
	"github.com/seenimoa/stockscore/internal/analysis/fundamental"
	"github.com/seenimoa/stockscore/internal/analysis/technical"
	"github.com/seenimoa/stockscore/internal/analyzer"
	"github.com/seenimoa/stockscore/internal/config"
	"github.com/seenimoa/stockscore/internal/datasource"
	"github.com/seenimoa/stockscore/internal/fx"
	"github.com/seenimoa/stockscore/internal/logging"
	"github.com/seenimoa/stockscore/internal/scoring"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set by the root command.
var (
	cfg *config.Config
	log *logrus.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stockscore",
	Short: "stockscore — deterministic stock scoring",
	Long: `stockscore turns a daily price history and a fundamentals snapshot
into a technical summary, a metrics bundle and a buy/hold/sell
recommendation with confidence, risk level and reasoning.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		log, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(technicalCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(fxCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "stockscore %s\n", version)
		fmt.Fprintf(out, "  commit:  %s\n", commit)
		fmt.Fprintf(out, "  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [symbol]",
	Short: "Score a stock from a price file and a fundamentals file",
	Long: `Run the full pipeline: technical summary, metrics bundle and
recommendation.

Examples:
  stockscore analyze ACME --prices acme.csv --fundamentals acme.yaml
  stockscore analyze AAPL --fetch --fundamentals aapl.json --json
  stockscore analyze ACME --prices acme.csv --report acme.html`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := ""
		if len(args) == 1 {
			symbol = args[0]
		}

		in, err := loadInput(cmd, symbol)
		if err != nil {
			return err
		}

		a := analyzer.New(scoring.New(scoring.WithTraceSink(logging.NewTraceSink(logging.WithSymbol(log, in.Symbol)))))
		res, err := a.Analyze(in)
		if err != nil {
			return err
		}

		if path, _ := cmd.Flags().GetString("report"); path != "" {
			if err := writeReport(path, res, in.Prices); err != nil {
				return err
			}
			log.WithField("path", path).Info("report written")
		}

		if asJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), res)
		}
		printResult(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	addInputFlags(analyzeCmd)
	analyzeCmd.Flags().Bool("json", false, "print JSON instead of text")
	analyzeCmd.Flags().String("report", "", "also write a report file (.html for HTML, anything else for text)")
}

// --- Technical Command ---

var technicalCmd = &cobra.Command{
	Use:   "technical",
	Short: "Print the technical summary of a price file",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := loadInput(cmd, "")
		if err != nil {
			return err
		}
		if err := in.Prices.Validate(); err != nil {
			return fmt.Errorf("invalid price series: %w", err)
		}

		summary := technical.Summarize(in.Prices)
		if asJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), summary)
		}
		printSummary(cmd.OutOrStdout(), summary)
		return nil
	},
}

func init() {
	addInputFlags(technicalCmd)
	technicalCmd.Flags().Bool("json", false, "print JSON instead of text")
}

// --- Metrics Command ---

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print the metrics bundle of a fundamentals file and price history",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := loadInput(cmd, "")
		if err != nil {
			return err
		}
		m := fundamental.ComputeMetrics(in.Fundamentals, in.Prices)
		if asJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), m)
		}
		printMetrics(cmd.OutOrStdout(), m)
		return nil
	},
}

func init() {
	addInputFlags(metricsCmd)
	metricsCmd.Flags().Bool("json", false, "print JSON instead of text")
}

// --- Batch Command ---

var batchCmd = &cobra.Command{
	Use:   "batch [manifest]",
	Short: "Score every symbol listed in a YAML or JSON manifest",
	Long: `Score many symbols in parallel. The manifest lists one entry per symbol:

  - symbol: ACME
    prices: data/acme.csv
    fundamentals: data/acme.yaml
  - symbol: INITECH
    prices: data/initech.json

Relative paths are resolved against the manifest's directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := loadManifest(args[0])
		if err != nil {
			return err
		}

		workers, _ := cmd.Flags().GetInt("workers")
		if workers <= 0 {
			workers = cfg.Analysis.Workers
		}

		batch, err := analyzer.New(nil).AnalyzeBatch(cmd.Context(), inputs, workers)
		if err != nil {
			return err
		}
		log.WithFields(logging.Fields{
			"batch_id":  batch.ID,
			"succeeded": batch.Succeeded,
			"failed":    batch.Failed,
		}).Info("batch complete")

		if asJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), batch)
		}
		printBatch(cmd.OutOrStdout(), batch)
		if batch.Failed > 0 {
			return fmt.Errorf("%d of %d items failed", batch.Failed, len(batch.Items))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().Int("workers", 0, "concurrent analyses (default from config)")
	batchCmd.Flags().Bool("json", false, "print JSON instead of a table")
}

// --- Explain Command ---

var explainCmd = &cobra.Command{
	Use:   "explain [metric]",
	Short: "Explain a financial metric, or list the known metrics",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, m := range fundamental.ExplainedMetrics() {
				fmt.Fprintln(out, m)
			}
			return
		}
		text, _ := fundamental.Explain(args[0])
		fmt.Fprintln(out, text)
	},
}

// --- FX Command ---

var fxCmd = &cobra.Command{
	Use:   "fx FROM TO [amount]",
	Short: "Quote an exchange rate or convert an amount",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		conv := fx.NewFromConfig(cfg.FX, logging.WithComponent(log, "fx"))
		return runFX(cmd.Context(), cmd.OutOrStdout(), conv, args)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}

		srvLog := logging.WithComponent(log, "api")
		srv, err := api.NewServer(cfg,
			api.WithLogger(srvLog),
			api.WithVersion(version),
			api.WithAnalyzer(analyzer.New(scoring.New(scoring.WithTraceSink(logging.NewTraceSink(srvLog))))),
			api.WithConverter(fx.NewFromConfig(cfg.FX, logging.WithComponent(log, "fx"))),
			api.WithPriceFetcher(datasource.NewYFinance()),
		)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "🌐 Starting stockscore API server on %s\n", cfg.API.Addr())
		return srv.Serve(ctx, cfg.API.Addr())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and API key status",
	RunE: func(cmd *cobra.Command, args []string) error {
		printStatus(cmd.OutOrStdout(), cfg)
		return nil
	},
}
