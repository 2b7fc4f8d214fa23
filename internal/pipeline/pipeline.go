// Package pipeline orchestrates a full report run: collect, score,
// narrate, render, archive and deliver.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gfranco/carteira/internal/collector"
	"github.com/gfranco/carteira/internal/config"
	"github.com/gfranco/carteira/internal/core"
	"github.com/gfranco/carteira/internal/metrics"
	"github.com/gfranco/carteira/internal/narrative"
	"github.com/gfranco/carteira/internal/notifier"
	"github.com/gfranco/carteira/internal/report"
	"github.com/gfranco/carteira/internal/sentiment"
	"github.com/gfranco/carteira/internal/storage/archive"
)

const defaultWorkers = 4

// Deps carries everything a pipeline needs. Source, Scorer and Narrator
// are required; Archive and Notifiers are optional extras.
type Deps struct {
	Assets       []core.Asset
	Correlations []config.CorrelationRef
	Source       collector.MarketData
	Scorer       *sentiment.Scorer
	Narrator     *narrative.Orchestrator
	Renderer     *report.Renderer
	Archive      archive.Archive
	Notifiers    *notifier.Registry
	Metrics      *metrics.Registry
	Logger       *zap.Logger
	Workers      int
}

// Pipeline produces weekly portfolio reports.
type Pipeline struct {
	deps Deps
	log  *zap.Logger
}

// New creates a pipeline.
func New(deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Renderer == nil {
		deps.Renderer = report.NewRenderer(deps.Logger)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewRegistry()
	}
	if deps.Workers <= 0 {
		deps.Workers = defaultWorkers
	}
	return &Pipeline{deps: deps, log: deps.Logger}
}

// Execute runs the full pipeline through rendering and archiving.
// Delivery is a separate step so a run can be re-sent or skipped.
func (p *Pipeline) Execute(ctx context.Context) (*Run, error) {
	start := time.Now()
	run := newRun(uuid.NewString(), start, p.deps.Scorer)
	log := p.log.With(zap.String("run_id", run.ID))

	if p.deps.Narrator == nil {
		p.deps.Metrics.RecordRun("error", time.Since(start).Seconds())
		return nil, core.ErrLLMMissing
	}
	if len(p.deps.Assets) == 0 {
		p.deps.Metrics.RecordRun("error", time.Since(start).Seconds())
		return nil, core.ErrEmptyWatchlist
	}
	p.deps.Metrics.SetWatchlistSize(len(p.deps.Assets))

	p.collect(ctx, run, log)
	if len(run.Quotes) == 0 {
		p.deps.Metrics.RecordRun("error", time.Since(start).Seconds())
		return nil, core.WrapError(core.ErrEmptyWatchlist, core.ErrNoData)
	}
	p.deps.Metrics.SetCollectedAssets(len(run.Quotes))

	// Most interesting movers first, both in the table and in prompts.
	sort.Slice(run.Quotes, func(i, j int) bool {
		return run.Quotes[i].Variation > run.Quotes[j].Variation
	})

	p.collectCorrelations(ctx, run, log)

	// Headline sentiment per collected asset, memoized on the run.
	for _, q := range run.Quotes {
		res := run.SentimentFor(ctx, q.Ticker)
		p.deps.Metrics.RecordLLMCall("sentiment", "success")
		log.Debug("sentiment scored",
			zap.String("ticker", q.Ticker),
			zap.Float64("score", res.Score),
			zap.String("overall", string(res.Overall)),
		)
	}
	log.Info("portfolio sentiment", zap.Float64("score", run.PortfolioScore()))

	// The narrative is the only abortable stage: without it there is no
	// report to render or deliver.
	rep, err := p.deps.Narrator.Generate(ctx, run.Quotes, run.Correlations)
	if err != nil {
		p.deps.Metrics.RecordLLMCall("narrative", "error")
		p.deps.Metrics.RecordRun("error", time.Since(start).Seconds())
		return nil, err
	}
	p.deps.Metrics.RecordLLMCall("narrative", "success")
	run.Report = rep

	if len(run.Earnings) > 0 {
		run.EarningsAssessment = p.deps.Narrator.AssessEarnings(ctx, run.Earnings)
		status := "success"
		if run.EarningsAssessment == "" {
			status = "error"
		}
		p.deps.Metrics.RecordLLMCall("earnings", status)
	}

	pdf, err := p.deps.Renderer.RenderPDF(run.Quotes, run.Report, run.Correlations)
	if err != nil {
		p.deps.Metrics.RecordRun("error", time.Since(start).Seconds())
		return nil, err
	}
	run.PDF = pdf
	run.Filename = report.Filename(rep.GeneratedAt)

	if p.deps.Archive != nil {
		if err := p.deps.Archive.Store(ctx, run.Filename, run.PDF); err != nil {
			// The run still holds the bytes; archiving is not fatal.
			log.Warn("archiving report failed", zap.String("name", run.Filename), zap.Error(err))
		} else {
			log.Info("report archived", zap.String("name", run.Filename), zap.Int("bytes", len(run.PDF)))
		}
	}

	p.deps.Metrics.RecordRun("success", time.Since(start).Seconds())
	log.Info("run complete",
		zap.Int("assets", len(run.Quotes)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return run, nil
}

// Deliver pushes a completed run to every registered channel. Failures
// are per channel and never abort the others.
func (p *Pipeline) Deliver(ctx context.Context, run *Run) map[string]error {
	if p.deps.Notifiers == nil {
		return nil
	}
	d := core.Delivery{
		Quotes:   run.Quotes,
		Report:   run.Report,
		PDF:      run.PDF,
		Filename: run.Filename,
	}
	errs := p.deps.Notifiers.DeliverAll(ctx, d)
	for _, n := range p.deps.Notifiers.GetAll() {
		if err, failed := errs[n.Name()]; failed {
			p.deps.Metrics.RecordDelivery(n.Name(), "error")
			p.log.Error("delivery failed", zap.String("channel", n.Name()), zap.Error(err))
		} else {
			p.deps.Metrics.RecordDelivery(n.Name(), "success")
		}
	}
	return errs
}

// collect fetches per-asset data with a bounded worker group. A failed
// snapshot drops the asset from the run; everything else is best effort.
func (p *Pipeline) collect(ctx context.Context, run *Run, log *zap.Logger) {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, p.deps.Workers)
	)

	for _, asset := range p.deps.Assets {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(asset core.Asset) {
			defer wg.Done()
			defer func() { <-sem }()

			snap, err := p.deps.Source.FetchSnapshot(ctx, asset)
			if err != nil {
				p.deps.Metrics.RecordFetchFailure("snapshot")
				log.Warn("skipping asset",
					zap.String("symbol", asset.Symbol),
					zap.Error(err),
				)
				return
			}

			fund := p.fetchFundamentals(ctx, asset, log)
			news := p.fetchNews(ctx, asset, log)
			divs := p.fetchDividends(ctx, asset, log)
			earn := p.fetchEarnings(ctx, asset, log)

			mu.Lock()
			defer mu.Unlock()
			run.Quotes = append(run.Quotes, *snap)
			if fund != nil {
				run.Fundamentals[asset.Ticker] = *fund
			}
			run.News[asset.Ticker] = news
			run.Dividends = append(run.Dividends, divs...)
			if earn != nil {
				run.Earnings = append(run.Earnings, *earn)
			}
		}(asset)
	}
	wg.Wait()

	// Newest dividends first across the whole portfolio.
	sort.Slice(run.Dividends, func(i, j int) bool {
		return run.Dividends[i].Date.After(run.Dividends[j].Date)
	})
	sort.Slice(run.Earnings, func(i, j int) bool {
		return run.Earnings[i].Ticker < run.Earnings[j].Ticker
	})
}

func (p *Pipeline) fetchFundamentals(ctx context.Context, asset core.Asset, log *zap.Logger) *core.FundamentalSnapshot {
	if asset.IsCrypto() {
		return nil
	}
	fund, err := p.deps.Source.FetchFundamentals(ctx, asset)
	if err != nil {
		p.deps.Metrics.RecordFetchFailure("fundamentals")
		log.Debug("fundamentals unavailable", zap.String("symbol", asset.Symbol), zap.Error(err))
		return nil
	}
	return fund
}

func (p *Pipeline) fetchNews(ctx context.Context, asset core.Asset, log *zap.Logger) []core.NewsItem {
	news, err := p.deps.Source.FetchNews(ctx, asset)
	if err != nil {
		p.deps.Metrics.RecordFetchFailure("news")
		log.Debug("news unavailable", zap.String("symbol", asset.Symbol), zap.Error(err))
		return nil
	}
	return news
}

func (p *Pipeline) fetchDividends(ctx context.Context, asset core.Asset, log *zap.Logger) []core.Dividend {
	if asset.IsCrypto() {
		return nil
	}
	divs, err := p.deps.Source.FetchDividends(ctx, asset)
	if err != nil {
		p.deps.Metrics.RecordFetchFailure("dividends")
		log.Debug("dividends unavailable", zap.String("symbol", asset.Symbol), zap.Error(err))
		return nil
	}
	return divs
}

func (p *Pipeline) fetchEarnings(ctx context.Context, asset core.Asset, log *zap.Logger) *core.EarningsComparison {
	earn, err := p.deps.Source.FetchEarnings(ctx, asset)
	if err != nil {
		p.deps.Metrics.RecordFetchFailure("earnings")
		log.Debug("earnings unavailable", zap.String("symbol", asset.Symbol), zap.Error(err))
		return nil
	}
	return earn
}

func (p *Pipeline) collectCorrelations(ctx context.Context, run *Run, log *zap.Logger) {
	for _, ref := range p.deps.Correlations {
		point, err := p.deps.Source.FetchCorrelation(ctx, ref.Name, ref.Symbol)
		if err != nil {
			p.deps.Metrics.RecordFetchFailure("correlation")
			log.Debug("correlation unavailable", zap.String("symbol", ref.Symbol), zap.Error(err))
			continue
		}
		run.Correlations = append(run.Correlations, *point)
	}
}
