package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"niftypulse/config"
	"niftypulse/logger"
	"niftypulse/models"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned by providers when the upstream quote source
// throttles the request. The fetcher reacts with a longer cooldown
// instead of the regular backoff.
var ErrRateLimited = errors.New("quote provider rate limited")

// Provider resolves live quotes for a batch of symbols. Implementations
// may return partial results; symbols missing from the map are treated
// as unresolved and kept on their simulated path.
type Provider interface {
	FetchBatch(ctx context.Context, symbols []string) (map[string]models.Quote, error)
}

// Fetcher pulls live quotes in symbol batches with retry and rate
// limit handling.
type Fetcher struct {
	provider Provider
	cfg      config.OracleConfig
	limiter  *rate.Limiter
	log      *logger.Log
}

func NewFetcher(cfg config.OracleConfig, provider Provider) *Fetcher {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Fetcher{
		provider: provider,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		log:      logger.GetLogger(),
	}
}

// FetchAll resolves quotes for all symbols, working through them in
// batches of at most cfg.BatchSize. Batches after the first are spaced
// by cfg.BatchDelay. A batch whose attempts are exhausted is dropped;
// the merged result of the surviving batches is returned along with
// the last batch error, if any.
func (f *Fetcher) FetchAll(ctx context.Context, symbols []string) (map[string]models.Quote, error) {
	if len(symbols) == 0 {
		return map[string]models.Quote{}, nil
	}

	batchSize := f.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	runID := uuid.New().String()
	log := f.log.WithComponent("oracle").WithFields(logger.Fields{"run_id": runID, "symbols": len(symbols)})
	log.Info("starting quote fetch run")

	quotes := make(map[string]models.Quote, len(symbols))
	var lastErr error
	start := time.Now()

	for i := 0; i < len(symbols); i += batchSize {
		end := i + batchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		batch := symbols[i:end]

		if i > 0 && f.cfg.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return quotes, ctx.Err()
			case <-time.After(f.cfg.BatchDelay):
			}
		}

		result, err := f.fetchBatch(ctx, batch, log)
		if err != nil {
			if ctx.Err() != nil {
				return quotes, ctx.Err()
			}
			lastErr = err
			log.WithError(err).WithFields(logger.Fields{"batch_start": i, "batch_len": len(batch)}).Warn("batch dropped after exhausting attempts")
			continue
		}
		for sym, q := range result {
			quotes[sym] = q
		}
	}

	log.WithFields(logger.Fields{"resolved": len(quotes), "duration_ms": time.Since(start).Milliseconds()}).Info("quote fetch run finished")
	f.log.LogMetric("oracle", "quotes_resolved", len(quotes), "counter", logger.Fields{"run_id": runID})
	return quotes, lastErr
}

// fetchBatch attempts one batch up to cfg.MaxAttempts times. Regular
// failures back off exponentially from cfg.BaseBackoff; rate limit
// errors wait out cfg.RateLimitCooldown instead.
func (f *Fetcher) fetchBatch(ctx context.Context, batch []string, log *logger.Entry) (map[string]models.Quote, error) {
	attempts := f.cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		result, err := f.provider.FetchBatch(ctx, batch)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		wait := f.cfg.BaseBackoff * time.Duration(1<<(attempt-1))
		if errors.Is(err, ErrRateLimited) {
			wait = f.cfg.RateLimitCooldown
			log.WithFields(logger.Fields{"attempt": attempt, "cooldown": wait.String()}).Warn("rate limited, cooling down")
		} else {
			log.WithError(err).WithFields(logger.Fields{"attempt": attempt, "backoff": wait.String()}).Warn("batch fetch failed, retrying")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("batch failed after %d attempts: %w", attempts, lastErr)
}
