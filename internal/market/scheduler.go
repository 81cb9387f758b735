package market

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"niftypulse/config"
	"niftypulse/internal/analysis"
	"niftypulse/internal/flow"
	"niftypulse/internal/metrics"
	"niftypulse/internal/session"
	"niftypulse/internal/sim"
	"niftypulse/internal/view"
	"niftypulse/logger"
	"niftypulse/models"
)

// QuoteFetcher resolves live quotes for the catalog symbols. Satisfied
// by oracle.Fetcher.
type QuoteFetcher interface {
	FetchAll(ctx context.Context, symbols []string) (map[string]models.Quote, error)
}

type mergeRequest struct {
	gen    uint64
	quotes map[string]models.Quote
}

// Scheduler owns the simulated market state. A single loop goroutine
// applies ticks and quote merges in order; readers take deep-copied
// snapshots so handler code never sees state mid-update.
type Scheduler struct {
	cfg      *config.Config
	params   sim.Params
	clock    session.Clock
	rng      sim.Rand
	fetcher  QuoteFetcher
	analyzer *analysis.Analyzer
	log      *logger.Log

	wg      sync.WaitGroup
	mergeCh chan mergeRequest

	// fetchGen marks the newest price sync in flight; merge results
	// carrying an older generation are dropped.
	fetchGen atomic.Uint64

	mu           sync.RWMutex
	running      bool
	securities   []models.Security
	instruments  []models.Instrument
	marketFlow   models.MarketFlowSnapshot
	lastAnalysis models.AnalysisResult
	ticks        uint64
}

func NewScheduler(cfg *config.Config, securities []models.Security, fetcher QuoteFetcher, analyzer *analysis.Analyzer, clock session.Clock, rng sim.Rand) *Scheduler {
	if clock == nil {
		clock = session.RealClock{}
	}
	if rng == nil {
		rng = sim.NewRand()
	}
	params := sim.Params{
		Volatility:         cfg.Market.Volatility,
		HighBetaVolatility: cfg.Market.HighBetaVolatility,
		HighBeta:           cfg.Market.HighBeta(),
		HistoryCap:         cfg.Market.HistoryCap,
	}
	return &Scheduler{
		cfg:        cfg,
		params:     params,
		clock:      clock,
		rng:        rng,
		fetcher:    fetcher,
		analyzer:   analyzer,
		log:        logger.GetLogger(),
		mergeCh:    make(chan mergeRequest, 4),
		securities: securities,
	}
}

// Start seeds the instruments and launches the tick loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.instruments = sim.Initialize(s.securities, s.params, s.rng)
	s.marketFlow = flow.MarketFlow(s.rng, s.clock.Now())
	s.lastAnalysis = models.AnalysisResult{
		Sentiment: models.SentimentNeutral,
		Summary:   "Analysis has not run yet.",
		KeyLevels: "N/A",
		Timestamp: s.clock.Now().In(session.Location()).Format("15:04:05"),
	}
	s.mu.Unlock()

	log := s.log.WithComponent("scheduler")
	log.WithFields(logger.Fields{
		"instruments":   len(s.securities),
		"tick_interval": s.cfg.Market.TickInterval.String(),
		"market_open":   session.IsOpen(s.clock.Now()),
	}).Info("starting market scheduler")

	if s.fetcher != nil && s.cfg.Oracle.Enabled && s.cfg.Oracle.SyncOnStart {
		s.SyncPrices(ctx)
	}

	s.wg.Add(1)
	go s.loop(ctx)
	log.Info("market scheduler started successfully")
	return nil
}

// Stop waits for the loop and any in-flight syncs to drain. The
// context passed to Start must be cancelled first.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.log.WithComponent("scheduler").Info("stopping market scheduler")
	s.wg.Wait()
	s.log.WithComponent("scheduler").Info("market scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()
	log := s.log.WithComponent("scheduler")

	interval := s.cfg.Market.TickInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("loop stopped due to context cancellation")
			return
		case <-ticker.C:
			s.applyTick()
		case req := <-s.mergeCh:
			s.applyMerge(req)
		}
	}
}

func (s *Scheduler) applyTick() {
	now := s.clock.Now()
	open := session.IsOpen(now)

	s.mu.Lock()
	s.ticks++
	ticks := s.ticks
	s.instruments = sim.Tick(s.instruments, now, s.params, s.rng)
	if open && sim.Chance(s.rng, s.cfg.Market.FlowRefreshChance) {
		s.marketFlow = flow.MarketFlow(s.rng, now)
	}
	s.mu.Unlock()

	metrics.IncrementTicks()
	if ticks%100 == 0 {
		metrics.Emit("scheduler", "ticks_applied", ticks, "counter", logger.Fields{"market_open": open})
	}
}

func (s *Scheduler) applyMerge(req mergeRequest) {
	log := s.log.WithComponent("scheduler")
	if req.gen != s.fetchGen.Load() {
		log.WithFields(logger.Fields{"gen": req.gen, "current": s.fetchGen.Load()}).Warn("dropping stale price sync result")
		return
	}
	s.mu.Lock()
	s.instruments = sim.Merge(s.instruments, req.quotes)
	s.mu.Unlock()
	log.WithFields(logger.Fields{"quotes": len(req.quotes)}).Info("live prices merged")
}

// SyncPrices starts an asynchronous quote fetch for every catalog
// symbol. The result is handed to the loop; if another sync starts
// before this one lands, the older result is discarded.
func (s *Scheduler) SyncPrices(ctx context.Context) {
	if s.fetcher == nil {
		return
	}
	gen := s.fetchGen.Add(1)
	symbols := make([]string, len(s.securities))
	for i, sec := range s.securities {
		symbols[i] = sec.Symbol
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log := s.log.WithComponent("scheduler").WithFields(logger.Fields{"gen": gen})
		quotes, err := s.fetcher.FetchAll(ctx, symbols)
		if err != nil {
			log.WithError(err).Warn("price sync finished with errors")
			metrics.IncrementQuoteSync("error")
		} else {
			metrics.IncrementQuoteSync("success")
		}
		if len(quotes) == 0 {
			log.Warn("price sync resolved no quotes, keeping simulated prices")
			return
		}
		select {
		case s.mergeCh <- mergeRequest{gen: gen, quotes: quotes}:
		case <-ctx.Done():
		}
	}()
}

// Snapshot returns a deep copy of the current instrument set.
func (s *Scheduler) Snapshot() []models.Instrument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneAll(s.instruments)
}

// Project applies a leaderboard filter and search term to a snapshot.
func (s *Scheduler) Project(filter view.Filter, search string) []models.Instrument {
	return view.Project(s.Snapshot(), filter, search)
}

// Breadth reports advancing and declining counts over the full set.
func (s *Scheduler) Breadth() (advances, declines int) {
	return view.Breadth(s.Snapshot())
}

// MarketOpen reports whether the trading session is currently open.
func (s *Scheduler) MarketOpen() bool {
	return session.IsOpen(s.clock.Now())
}

// MarketFlow returns the cached market-wide institutional flow
// snapshot. It only changes across open-market ticks.
func (s *Scheduler) MarketFlow() models.MarketFlowSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.marketFlow
	snap.Flows = append([]models.InstitutionalFlow(nil), s.marketFlow.Flows...)
	return snap
}

// InstrumentFlow synthesizes a fresh FII/DII split for one symbol.
func (s *Scheduler) InstrumentFlow(symbol string) (models.InstrumentFlow, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	s.mu.RLock()
	var found *models.Instrument
	for i := range s.instruments {
		if s.instruments[i].Symbol == symbol {
			inst := s.instruments[i].Clone()
			found = &inst
			break
		}
	}
	s.mu.RUnlock()
	if found == nil {
		return models.InstrumentFlow{}, false
	}
	return flow.InstrumentFlow(*found, s.rng), true
}

// Analyze runs the analysis provider over the current snapshot and
// caches the result. Without a configured analyzer the previous
// result, initially the neutral placeholder, is returned.
func (s *Scheduler) Analyze(ctx context.Context) models.AnalysisResult {
	if s.analyzer == nil {
		return s.Analysis()
	}
	result := s.analyzer.Analyze(ctx, s.Snapshot())
	s.mu.Lock()
	s.lastAnalysis = result
	s.mu.Unlock()
	return result
}

// Analysis returns the most recent analysis result.
func (s *Scheduler) Analysis() models.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAnalysis
}

// Securities returns the catalog backing the simulation.
func (s *Scheduler) Securities() []models.Security {
	return append([]models.Security(nil), s.securities...)
}
