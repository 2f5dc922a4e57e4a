package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/quantfarm/seasonal-edge/internal/analyzer"
	"github.com/quantfarm/seasonal-edge/internal/monitoring"
	"github.com/quantfarm/seasonal-edge/internal/montecarlo"
	"github.com/quantfarm/seasonal-edge/internal/risk"
	"github.com/quantfarm/seasonal-edge/internal/seasonal"
	"github.com/quantfarm/seasonal-edge/pkg/config"
	"github.com/quantfarm/seasonal-edge/pkg/data"
	"github.com/quantfarm/seasonal-edge/pkg/reporting"
	"github.com/quantfarm/seasonal-edge/pkg/types"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to JSON config file")
		csvFile     = flag.String("csv", "", "Single CSV data file (overrides config assets)")
		symbol      = flag.String("symbol", "ASSET", "Symbol label for -csv mode")
		unit        = flag.String("unit", "", "Calendar unit: month, weekday or quarter")
		jsonOut     = flag.String("json", "", "Write results to this JSON file")
		excelOut    = flag.String("excel", "", "Write results to this Excel workbook")
		metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
		workers     = flag.Int("workers", 0, "Batch workers (0 = one per CPU)")
		capital     = flag.Float64("capital", 0, "Initial capital for the strategy backtest")
		commission  = flag.Float64("commission", -1, "Per-side commission fraction (e.g. 0.001)")
		sims        = flag.Int("sims", 0, "Monte Carlo simulations (0 = default)")
		seed        = flag.Int64("seed", 0, "Monte Carlo seed (0 = wall clock)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	if *unit != "" {
		cfg.Unit = *unit
	}
	if *jsonOut != "" {
		cfg.Output.JSONPath = *jsonOut
	}
	if *excelOut != "" {
		cfg.Output.ExcelPath = *excelOut
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *capital > 0 {
		cfg.InitialCapital = *capital
	}
	if *commission >= 0 {
		cfg.Commission = *commission
	}
	if *sims > 0 {
		cfg.MonteCarlo.Simulations = *sims
	}
	if *seed != 0 {
		cfg.MonteCarlo.Seed = *seed
	}
	if *csvFile != "" {
		cfg.Assets = []config.Asset{{Symbol: *symbol, Source: *csvFile}}
	}
	if len(cfg.Assets) == 0 {
		fmt.Fprintln(os.Stderr, "❌ no assets: pass -csv or a config file with an assets list")
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if cfg.MetricsAddr != "" {
		go func() {
			if err := monitoring.Serve(cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics endpoint failed")
			}
		}()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	acfg, err := analyzerConfig(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("🔍 Seasonal Edge Analyzer\n")
	fmt.Printf("📊 Assets: %d, unit: %s\n\n", len(cfg.Assets), cfg.Unit)

	provider := data.NewCSVProvider(log)
	series := make(map[string][]types.PricePoint, len(cfg.Assets))
	for _, asset := range cfg.Assets {
		prices, err := provider.Load(asset.Symbol, asset.Source)
		if err != nil {
			return fmt.Errorf("load %s: %w", asset.Symbol, err)
		}
		fmt.Printf("📖 %s: %d periods\n", asset.Symbol, len(prices))
		series[asset.Symbol] = prices
	}

	a := analyzer.New(acfg, log)
	results, err := analyzer.AnalyzeAll(ctx, a, series, cfg.Workers, log)
	if err != nil {
		return err
	}

	console := reporting.NewConsoleReporter()
	failures := 0
	for _, asset := range cfg.Assets {
		jr := results[asset.Symbol]
		if jr.Error != nil {
			fmt.Printf("❌ %s: %v\n", asset.Symbol, jr.Error)
			failures++
			continue
		}
		console.Print(jr.Result)
	}

	if cfg.Output.JSONPath != "" {
		if err := reporting.NewJSONReporter().WriteBatch(results, cfg.Output.JSONPath); err != nil {
			return err
		}
		fmt.Printf("💾 JSON written to %s\n", cfg.Output.JSONPath)
	}
	if cfg.Output.ExcelPath != "" {
		for _, asset := range cfg.Assets {
			jr := results[asset.Symbol]
			if jr.Error != nil {
				continue
			}
			path := excelPath(cfg.Output.ExcelPath, asset.Symbol, len(cfg.Assets) > 1)
			if err := reporting.NewExcelReporter().Write(jr.Result, path); err != nil {
				return err
			}
			fmt.Printf("💾 Excel written to %s\n", path)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d assets failed", failures, len(cfg.Assets))
	}
	return nil
}

func analyzerConfig(cfg *config.Config) (analyzer.Config, error) {
	unit, err := seasonal.ParseCalendarUnit(cfg.Unit)
	if err != nil {
		return analyzer.Config{}, err
	}
	acfg := analyzer.DefaultConfig()
	acfg.Unit = unit
	acfg.Geometric = cfg.Geometric
	acfg.RiskFreeRate = cfg.RiskFreeRate
	acfg.InitialCapital = cfg.InitialCapital
	acfg.Commission = cfg.Commission
	if cfg.TopBuckets > 0 {
		acfg.TopBuckets = cfg.TopBuckets
	}
	if len(cfg.ConfidenceLevels) > 0 {
		acfg.ConfidenceLevels = cfg.ConfidenceLevels
	} else {
		acfg.ConfidenceLevels = risk.DefaultConfidenceLevels
	}
	acfg.MonteCarlo = montecarlo.Config{
		Simulations: cfg.MonteCarlo.Simulations,
		Horizon:     cfg.MonteCarlo.Horizon,
		Workers:     cfg.MonteCarlo.Workers,
		Seed:        cfg.MonteCarlo.Seed,
	}
	return acfg, nil
}

// excelPath inserts the symbol before the extension in multi-asset runs so
// workbooks do not overwrite each other.
func excelPath(base, symbol string, multi bool) string {
	if !multi {
		return base
	}
	ext := ".xlsx"
	trimmed := base
	if len(base) > len(ext) && base[len(base)-len(ext):] == ext {
		trimmed = base[:len(base)-len(ext)]
	}
	return fmt.Sprintf("%s_%s%s", trimmed, symbol, ext)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}
