package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/crucial707/geo-catalog/internal/audit"
	"github.com/crucial707/geo-catalog/internal/metrics"
)

// StatsSource reports ledger row counts. *audit.Ledger implements it.
type StatsSource interface {
	Stats(ctx context.Context) ([]audit.Stat, error)
}

// RefreshLedgerGauges reads the per-table/action ledger counts and publishes them
// on the ledger rows gauge.
func RefreshLedgerGauges(ctx context.Context, src StatsSource) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	stats, err := src.Stats(ctx)
	if err != nil {
		return err
	}
	for _, s := range stats {
		metrics.SetLedgerRows(s.Table, s.Action, s.Count)
	}
	return nil
}

// Start schedules RefreshLedgerGauges on spec (robfig cron syntax, e.g. "@every 5m"),
// runs it once immediately, and returns the running cron. Stop it on shutdown.
func Start(ctx context.Context, spec string, src StatsSource, logger *slog.Logger) (*cron.Cron, error) {
	if logger == nil {
		logger = slog.Default()
	}
	refresh := func() {
		if err := RefreshLedgerGauges(ctx, src); err != nil {
			logger.Warn("scheduler: refresh ledger gauges", "error", err)
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, refresh); err != nil {
		return nil, err
	}
	logger.Info("scheduler: ledger gauge refresh", "cron", spec)

	refresh()
	c.Start()
	return c, nil
}
