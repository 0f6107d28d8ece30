// Command pndscan detects pump-and-dump episodes in daily price histories and
// checks which news events they preceded.
//
// Usage:
//
//	pndscan --config pnd.yaml [--serve :8080]
//	pndscan --setup
//
// Optional environment variables:
//
//	For Binance: BINANCE_API_KEY, BINANCE_API_SECRET
//	For Bybit: BYBIT_API_KEY, BYBIT_API_SECRET
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vadiminshakov/pndscan/config"
	"github.com/vadiminshakov/pndscan/internal/app"
	"github.com/vadiminshakov/pndscan/internal/domain"
	"github.com/vadiminshakov/pndscan/internal/report"
	"github.com/vadiminshakov/pndscan/internal/services/market/collector"
	"github.com/vadiminshakov/pndscan/internal/setup"
	"github.com/vadiminshakov/pndscan/internal/storage/results"
	"github.com/vadiminshakov/pndscan/internal/web"
	"go.uber.org/zap"
)

func main() {
	flags, err := config.ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		log.Fatal(err)
	}

	if flags.Setup {
		if err := setup.RunTUI(flags.ConfigPath); err != nil {
			log.Fatal(err)
		}
	}

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		log.Fatal(err)
	}
	flags.Apply(&cfg)

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := results.NewWALStore(cfg.StoreDir)
	if err != nil {
		logger.Fatal("failed to open result store", zap.Error(err))
	}
	defer store.Close()

	runner := app.NewRunner(cfg, newCollector(cfg, logger), store, logger)

	analysed, err := runner.Run(ctx, cfg.Securities)
	if err != nil {
		logger.Error("analysis finished with errors", zap.Error(err))
	}
	if err := report.Write(os.Stdout, analysed); err != nil {
		logger.Error("failed to write report", zap.Error(err))
	}

	if cfg.Web.Listen == "" {
		return
	}

	srv := web.NewServer(cfg.Web.Listen, store, logger)
	if len(cfg.Web.TLSHosts) > 0 {
		err = srv.StartWithAutoTLS(ctx, cfg.Web.TLSHosts, cfg.Web.CertDir)
	} else {
		err = srv.Start(ctx)
	}
	if err != nil {
		logger.Error("results api stopped", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}

	zcfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = lvl
	return zcfg.Build()
}

// newCollector registers exchange providers only for sources in use.
func newCollector(cfg config.Config, logger *zap.Logger) *collector.Collector {
	used := make(map[domain.SourceKind]bool)
	for _, sec := range cfg.Securities {
		used[sec.Source] = true
	}

	var opts []collector.Option
	if used[domain.SourceBinance] {
		client := collector.NewBinanceClient(cfg.Keys.BinanceKey, cfg.Keys.BinanceSecret)
		opts = append(opts, collector.WithProvider(domain.SourceBinance, collector.NewBinanceKlineProvider(client)))
	}
	if used[domain.SourceBybit] {
		client := collector.NewBybitClient(cfg.Keys.BybitKey, cfg.Keys.BybitSecret)
		opts = append(opts, collector.WithProvider(domain.SourceBybit, collector.NewBybitKlineProvider(client)))
	}

	return collector.NewCollector(logger, opts...)
}
