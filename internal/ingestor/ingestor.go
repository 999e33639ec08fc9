package ingestor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"routeiq/internal/cache"
	"routeiq/internal/domain"
	"routeiq/internal/hub"
	"routeiq/internal/planner"
	"routeiq/pkg/gotransit"
)

// MaxServiceAlerts is how many service updates become alerts per poll
const MaxServiceAlerts = 3

type UpdatesSource interface {
	ServiceUpdates(ctx context.Context) ([]gotransit.ServiceUpdate, error)
}

type Publisher interface {
	Publish(topic, eventType string, payload any)
}

type Pruner interface {
	PruneStale() []string
}

type Observer interface {
	ObservePoll(outcome string)
}

type Options struct {
	PollInterval  time.Duration
	PruneInterval time.Duration
	AlertTTL      time.Duration
}

// Ingestor polls service updates into the service alert board and prunes
// idle sessions. Poll failures are logged and otherwise ignored; the last
// good alerts stay in place.
type Ingestor struct {
	source    UpdatesSource
	publisher Publisher
	pruner    Pruner
	cache     *cache.RedisCache
	observer  Observer
	opts      Options
	logger    *slog.Logger

	alertsMu sync.RWMutex
	alerts   []domain.Alert

	ready   bool
	readyMu sync.RWMutex
}

func New(source UpdatesSource, publisher Publisher, pruner Pruner, redis *cache.RedisCache, observer Observer, opts Options, logger *slog.Logger) *Ingestor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Minute
	}
	if opts.PruneInterval <= 0 {
		opts.PruneInterval = 10 * time.Minute
	}
	return &Ingestor{
		source:    source,
		publisher: publisher,
		pruner:    pruner,
		cache:     redis,
		observer:  observer,
		opts:      opts,
		logger:    logger.With("component", "ingestor"),
	}
}

func (i *Ingestor) Run(ctx context.Context) {
	ticker := time.NewTicker(i.opts.PollInterval)
	defer ticker.Stop()

	pruneTicker := time.NewTicker(i.opts.PruneInterval)
	defer pruneTicker.Stop()

	i.restore(ctx)
	i.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.Poll(ctx)
		case <-pruneTicker.C:
			i.prune()
		}
	}
}

// Poll fetches service updates once. The outcome is informational only.
func (i *Ingestor) Poll(ctx context.Context) planner.Outcome {
	defer i.setReady(true)

	if i.source == nil {
		return planner.OutcomeEmpty
	}

	start := time.Now()
	updates, err := i.source.ServiceUpdates(ctx)
	outcome := planner.OutcomeOK
	switch {
	case err != nil:
		outcome = planner.OutcomeFailed
	case len(updates) == 0:
		outcome = planner.OutcomeEmpty
	}
	if i.observer != nil {
		i.observer.ObservePoll(outcome.String())
	}

	if outcome == planner.OutcomeFailed {
		i.logger.Debug("service updates unavailable", "error", err)
		return outcome
	}

	alerts := toAlerts(updates, time.Now())
	i.setAlerts(alerts)

	if i.publisher != nil {
		for _, a := range alerts {
			i.publisher.Publish(hub.TopicService, hub.EventAlert, a)
		}
	}
	if i.cache != nil {
		if err := i.cache.SetJSON(ctx, cache.KeyServiceAlerts, alerts, i.opts.AlertTTL); err != nil {
			i.logger.Debug("failed to persist service alerts", "error", err)
		}
	}

	i.logger.Debug("poll completed",
		"updates", len(updates),
		"alerts", len(alerts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return outcome
}

func toAlerts(updates []gotransit.ServiceUpdate, now time.Time) []domain.Alert {
	alerts := make([]domain.Alert, 0, MaxServiceAlerts)
	for _, u := range updates {
		if len(alerts) == MaxServiceAlerts {
			break
		}
		text := u.Text()
		if text == "" {
			continue
		}
		alerts = append(alerts, domain.Alert{
			ID:        uuid.NewString(),
			Type:      domain.AlertWarning,
			Title:     "Service Update",
			Message:   text,
			CreatedAt: now,
		})
	}
	return alerts
}

// restore loads the alerts persisted by another instance or a previous run
func (i *Ingestor) restore(ctx context.Context) {
	if i.cache == nil {
		return
	}
	var alerts []domain.Alert
	found, err := i.cache.GetJSON(ctx, cache.KeyServiceAlerts, &alerts)
	if err != nil || !found {
		return
	}
	i.setAlerts(alerts)
	i.logger.Info("restored service alerts", "count", len(alerts))
}

func (i *Ingestor) prune() {
	if i.pruner == nil {
		return
	}
	if removed := i.pruner.PruneStale(); len(removed) > 0 {
		i.logger.Info("pruned idle sessions", "count", len(removed))
	}
}

func (i *Ingestor) Alerts() []domain.Alert {
	i.alertsMu.RLock()
	defer i.alertsMu.RUnlock()
	result := make([]domain.Alert, len(i.alerts))
	copy(result, i.alerts)
	return result
}

func (i *Ingestor) setAlerts(alerts []domain.Alert) {
	i.alertsMu.Lock()
	defer i.alertsMu.Unlock()
	i.alerts = alerts
}

func (i *Ingestor) IsReady() bool {
	i.readyMu.RLock()
	defer i.readyMu.RUnlock()
	return i.ready
}

func (i *Ingestor) setReady(ready bool) {
	i.readyMu.Lock()
	defer i.readyMu.Unlock()
	i.ready = ready
}
