// Package app wires sources, the detection pipeline and the result store.
package app

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/pndscan/config"
	"github.com/vadiminshakov/pndscan/internal/domain"
	"github.com/vadiminshakov/pndscan/internal/services/detector"
	"github.com/vadiminshakov/pndscan/internal/services/newsmarkup"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source supplies price history and news of a security.
type Source interface {
	Prices(ctx context.Context, sec domain.Security) (*domain.Frame, error)
	News(sec domain.Security) ([]domain.NewsEvent, error)
}

// ResultStore persists analysis results.
type ResultStore interface {
	Save(result domain.AnalysisResult) (uint64, error)
}

// Runner runs the detection pipeline over many securities.
type Runner struct {
	source   Source
	store    ResultStore
	detector *detector.Detector
	detect   detector.Options
	signal   string
	markup   newsmarkup.Options
	workers  int
	logger   *zap.Logger
	now      func() time.Time
}

// NewRunner creates a runner; store may be nil.
func NewRunner(cfg config.Config, source Source, store ResultStore, logger *zap.Logger) *Runner {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Runner{
		source:   source,
		store:    store,
		detector: detector.New(),
		detect:   cfg.Detect,
		signal:   cfg.Signal,
		markup:   cfg.Markup,
		workers:  workers,
		logger:   logger,
		now:      time.Now,
	}
}

// Run analyses every security concurrently. A failing security does not stop the
// others: results of the successful ones are returned in input order together with
// an error naming the failed tickers.
func (r *Runner) Run(ctx context.Context, securities []domain.Security) ([]domain.AnalysisResult, error) {
	results := make([]*domain.AnalysisResult, len(securities))

	var (
		mu     sync.Mutex
		failed []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, sec := range securities {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result, err := r.Analyze(gctx, sec)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.logger.Error("analysis failed", zap.String("ticker", sec.Ticker), zap.Error(err))
				mu.Lock()
				failed = append(failed, sec.Ticker)
				mu.Unlock()
				return nil
			}

			results[i] = &result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.AnalysisResult, 0, len(securities))
	for _, res := range results {
		if res != nil {
			out = append(out, *res)
		}
	}

	if len(failed) > 0 {
		sort.Strings(failed)
		return out, errors.Errorf("%d of %d securities failed: %s", len(failed), len(securities), strings.Join(failed, ", "))
	}

	return out, nil
}

// Analyze runs detection and news markup for one security and stores the result.
func (r *Runner) Analyze(ctx context.Context, sec domain.Security) (domain.AnalysisResult, error) {
	logger := r.logger.With(zap.String("ticker", sec.Ticker))

	frame, err := r.source.Prices(ctx, sec)
	if err != nil {
		return domain.AnalysisResult{}, errors.Wrap(err, "load prices")
	}

	news, err := r.source.News(sec)
	if err != nil {
		return domain.AnalysisResult{}, errors.Wrap(err, "load news")
	}

	ts, err := frame.Series(r.markup.ValueColumn)
	if err != nil {
		return domain.AnalysisResult{}, errors.Wrap(err, "select value column")
	}

	anomalies := r.detector.Detect(ts, r.detect)

	signal, err := anomalies.Signal(r.signal)
	if err != nil {
		return domain.AnalysisResult{}, errors.Wrap(err, "select anomaly signal")
	}

	marks, err := newsmarkup.Mark(frame, signal, news, r.markup)
	if err != nil {
		return domain.AnalysisResult{}, errors.Wrap(err, "mark news")
	}

	result := domain.AnalysisResult{
		RunID:     uuid.NewString(),
		Ticker:    sec.Ticker,
		Source:    sec.Source,
		Signal:    r.signal,
		CreatedAt: r.now().UTC(),
		Anomalies: anomalies,
		Periods:   detector.Periods(anomalies),
		Marks:     marks,
		NewsTotal: len(news),
	}

	fields := []zap.Field{
		zap.String("run_id", result.RunID),
		zap.Int("rows", ts.Len()),
		zap.Int("anomalies", countTrue(signal)),
		zap.Int("news", len(news)),
		zap.Int("news_skipped", len(marks.Skipped)),
		zap.Int("preceding_days", marks.Count(domain.MarkPrecedingAnomaly)),
	}

	if r.store != nil {
		index, err := r.store.Save(result)
		if err != nil {
			return domain.AnalysisResult{}, errors.Wrap(err, "store result")
		}
		fields = append(fields, zap.Uint64("wal_index", index))
	}

	logger.Info("security analysed", fields...)

	return result, nil
}

func countTrue(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
