package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vultisig/feedback-client/internal/api"
	"github.com/vultisig/feedback-client/internal/locales"
	"github.com/vultisig/feedback-client/internal/scheduler"
	"github.com/vultisig/feedback-client/internal/telemetry"
	"github.com/vultisig/feedback-client/internal/types"
)

const (
	defaultPageLimit    = 100
	defaultPollInterval = 10 * time.Second
)

type DashboardConfig struct {
	PageLimit    int
	PollInterval time.Duration
}

type DashboardState struct {
	Page       types.SubmissionPage
	Stats      types.RatingStats
	Filter     int
	Loading    bool
	Error      *InlineError
	LastUpdate time.Time
}

// MatchingTotal is the backend count of submissions matching the filter,
// which may exceed what the current page holds.
func (s DashboardState) MatchingTotal() int {
	return s.Page.Total
}

// DashboardController polls the submission list and keeps page-local stats.
// Every fetch takes a token; only the latest issued fetch may apply its result.
type DashboardController struct {
	client     api.SubmissionClient
	clock      scheduler.Clock
	translator *locales.Translator
	reporter   telemetry.Reporter
	logger     *logrus.Logger
	cfg        DashboardConfig

	mu        sync.Mutex
	state     DashboardState
	epoch     uint64
	inflight  int
	active    bool
	closed    bool
	pollCtx   context.Context
	cancel    context.CancelFunc
	pollTask  *scheduler.Task
	observers []func(DashboardState)
}

func NewDashboardController(client api.SubmissionClient, clock scheduler.Clock, translator *locales.Translator, reporter telemetry.Reporter, logger *logrus.Logger, cfg DashboardConfig) (*DashboardController, error) {
	if client == nil {
		return nil, fmt.Errorf("submission client cannot be nil")
	}
	if translator == nil {
		return nil, fmt.Errorf("translator cannot be nil")
	}
	if clock == nil {
		clock = scheduler.RealClock()
	}
	if reporter == nil {
		reporter = telemetry.NopReporter{}
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = defaultPageLimit
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &DashboardController{
		client:     client,
		clock:      clock,
		translator: translator,
		reporter:   reporter,
		logger:     logger,
		cfg:        cfg,
		state: DashboardState{
			Page: types.SubmissionPage{Submissions: []types.Submission{}},
		},
	}, nil
}

func (c *DashboardController) OnChange(fn func(DashboardState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

func (c *DashboardController) State() DashboardState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *DashboardController) commit() {
	snapshot := c.state
	observers := append([]func(DashboardState){}, c.observers...)
	c.mu.Unlock()
	for _, fn := range observers {
		fn(snapshot)
	}
}

// Activate performs the first fetch and starts polling. Polling fetches use a
// context derived from ctx that is cancelled by Close.
func (c *DashboardController) Activate(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.active {
		c.mu.Unlock()
		return nil
	}
	c.active = true
	c.pollCtx, c.cancel = context.WithCancel(ctx)
	c.restartPollLocked()
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"interval":   c.cfg.PollInterval,
		"page_limit": c.cfg.PageLimit,
	}).Info("dashboard activated")
	return c.fetch(ctx)
}

// Refresh fetches immediately. The polling cadence is not reset.
func (c *DashboardController) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()
	return c.fetch(ctx)
}

// ToggleFilter selects rating, or clears the filter if rating is already
// selected. An active dashboard fetches at once and restarts its cadence.
func (c *DashboardController) ToggleFilter(ctx context.Context, rating int) error {
	if !types.ValidRating(rating) {
		return ErrInvalidRating
	}
	c.mu.Lock()
	if c.state.Filter == rating {
		rating = 0
	}
	return c.applyFilterLocked(ctx, rating)
}

func (c *DashboardController) ClearFilter(ctx context.Context) error {
	c.mu.Lock()
	return c.applyFilterLocked(ctx, 0)
}

func (c *DashboardController) applyFilterLocked(ctx context.Context, rating int) error {
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state.Filter == rating {
		c.mu.Unlock()
		return nil
	}
	c.state.Filter = rating
	active := c.active
	if active {
		c.restartPollLocked()
	}
	c.commit()

	c.logger.WithField("filter", rating).Debug("dashboard filter changed")
	if !active {
		return nil
	}
	return c.fetch(ctx)
}

func (c *DashboardController) restartPollLocked() {
	c.pollTask.Stop()
	pollCtx := c.pollCtx
	c.pollTask = scheduler.Every(c.clock, c.logger, "dashboard-poll", scheduler.PollSchedule(c.cfg.PollInterval), func() {
		if err := c.fetch(pollCtx); err != nil {
			c.logger.WithError(err).Debug("scheduled dashboard fetch failed")
		}
	})
}

func (c *DashboardController) fetch(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.epoch++
	token := c.epoch
	query := api.ListQuery{Limit: c.cfg.PageLimit, Skip: 0, Rating: c.state.Filter}
	c.inflight++
	c.state.Loading = true
	c.commit()

	page, err := c.client.ListSubmissions(ctx, query)

	c.mu.Lock()
	c.inflight--
	c.state.Loading = c.inflight > 0
	logger := c.logger.WithFields(logrus.Fields{
		"token":  token,
		"filter": query.Rating,
	})
	if latest := c.epoch; token != latest {
		c.commit()
		logger.WithField("latest", latest).Debug("discarding stale dashboard response")
		return nil
	}
	if err == nil && page == nil {
		err = fmt.Errorf("empty submission page")
	}
	if err != nil {
		msg := c.translator.T(locales.ErrFetchFailed)
		c.state.Error = &InlineError{Kind: ErrorKindFetch, Message: msg}
		c.commit()

		logger.WithError(err).Warn("dashboard fetch failed")
		c.reporter.Report(err, map[string]string{"component": "dashboard"})
		return fmt.Errorf("fail to refresh dashboard: %w", err)
	}

	if page.Submissions == nil {
		page.Submissions = []types.Submission{}
	}
	stats := types.ComputeRatingStats(page.Submissions)
	c.state.Page = *page
	c.state.Stats = stats
	c.state.LastUpdate = c.clock.Now()
	c.state.Error = nil
	c.commit()

	if stats.Ignored > 0 {
		logger.WithField("ignored", stats.Ignored).Warn("submissions with out of range ratings were not counted")
	}
	logger.WithFields(logrus.Fields{
		"count": len(page.Submissions),
		"total": page.Total,
	}).Debug("dashboard refreshed")
	return nil
}

// Close stops polling and discards results of fetches still in flight.
func (c *DashboardController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.active = false
	c.epoch++
	c.pollTask.Stop()
	c.pollTask = nil
	if c.cancel != nil {
		c.cancel()
	}
}
