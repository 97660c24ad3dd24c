package injector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bassista/go_ratebadge/internal/cache"
	"github.com/bassista/go_ratebadge/internal/logger"
)

var (
	// ErrMissingTier is returned when the rating summary has no tier.
	ErrMissingTier = errors.New("summary has no tier")
	// ErrTargetGone is returned when the container disappears between the check and the mutation.
	ErrTargetGone = errors.New("target container no longer on page")
)

// SummaryProvider resolves the rating summary JSON for an app (cache or network).
type SummaryProvider interface {
	GetAppSummary(ctx context.Context, appID string) (string, error)
}

// Options tunes the controller.
type Options struct {
	PollInterval time.Duration
	// TickTimeout bounds a single tick. Zero disables the bound.
	TickTimeout time.Duration
	// MarkerFirst inserts the marker before resolving data, so a failed
	// resolution is not retried for the same page view. When false the marker
	// is written only after the badge is in place.
	MarkerFirst    bool
	RatingsBaseURL string
}

// Controller polls the page and injects the rating badge once per page view.
type Controller struct {
	flag      cache.InjectFlag
	page      Page
	resolver  AppIDResolver
	summaries SummaryProvider
	opts      Options
}

// NewController wires a controller.
func NewController(flag cache.InjectFlag, page Page, resolver AppIDResolver, summaries SummaryProvider, opts Options) (*Controller, error) {
	if flag == nil || page == nil || resolver == nil || summaries == nil {
		return nil, errors.New("injector: flag, page, resolver and summaries are required")
	}
	if opts.PollInterval <= 0 {
		return nil, fmt.Errorf("injector: poll interval must be positive, got %v", opts.PollInterval)
	}
	return &Controller{flag: flag, page: page, resolver: resolver, summaries: summaries, opts: opts}, nil
}

// Start runs the loop in a goroutine until ctx is cancelled.
func (c *Controller) Start(ctx context.Context) {
	go c.Run(ctx)
}

// Run ticks, sleeps PollInterval and repeats until ctx is cancelled.
// Ticks never overlap and a failed tick never stops the loop.
func (c *Controller) Run(ctx context.Context) {
	log := logger.WithComponent("injector")
	log.Debugf("starting inject loop with interval: %v, marker first: %v", c.opts.PollInterval, c.opts.MarkerFirst)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("inject loop stopped")
			return
		case <-timer.C:
		}

		res := c.Tick(ctx)
		switch {
		case res.Err != nil:
			log.Errorf("tick failed while %s (app %q): %v", res.State, res.AppID, res.Err)
		case res.Outcome == OutcomeInjected:
			log.Infof("injected %s badge for app %s", res.Tier, res.AppID)
		default:
			log.Tracef("tick: %s", res.Outcome)
		}
		timer.Reset(c.opts.PollInterval)
	}
}

// Tick performs one detection and injection pass.
func (c *Controller) Tick(ctx context.Context) TickResult {
	if c.opts.TickTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.TickTimeout)
		defer cancel()
	}
	log := logger.WithComponent("injector")

	if !c.flag.InjectEnabled() {
		return TickResult{Outcome: OutcomeIdle, State: StateIdle}
	}
	present, err := c.page.MarkerPresent(ctx)
	if err != nil {
		return failed(StateIdle, "", fmt.Errorf("check marker: %w", err))
	}
	if present {
		return TickResult{Outcome: OutcomeIdle, State: StateIdle}
	}

	log.Debugf("no %s element, checking if we can inject", MarkerID)
	ready, err := c.page.TargetPresent(ctx)
	if err != nil {
		return failed(StateProbing, "", err)
	}
	log.Debugf("canWeInject: %v", ready)
	if !ready {
		return TickResult{Outcome: OutcomeNotReady, State: StateProbing}
	}

	if c.opts.MarkerFirst {
		if err := c.page.InsertMarker(ctx); err != nil {
			return failed(StateMutating, "", err)
		}
	}

	appID, err := c.resolver.ResolveAppID(ctx)
	if err != nil {
		return failed(StateResolving, "", err)
	}
	summary, err := c.summaries.GetAppSummary(ctx, appID)
	if err != nil {
		return failed(StateResolving, appID, fmt.Errorf("get summary: %w", err))
	}
	tier, err := parseTier(summary)
	if err != nil {
		return failed(StateResolving, appID, err)
	}
	log.Debugf("app %s has tier %s", appID, tier)

	if err := c.page.InsertBadge(ctx, NewBadge(c.opts.RatingsBaseURL, appID, tier)); err != nil {
		return failed(StateMutating, appID, err)
	}
	if !c.opts.MarkerFirst {
		if err := c.page.InsertMarker(ctx); err != nil {
			return failed(StateMutating, appID, err)
		}
	}
	return TickResult{Outcome: OutcomeInjected, State: StateMutating, AppID: appID, Tier: tier}
}

// parseTier reads the tier field of a summary document.
func parseTier(summary string) (string, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(summary), &doc); err != nil {
		return "", fmt.Errorf("parse summary: %w", err)
	}
	tier, _ := doc["tier"].(string)
	if tier == "" {
		return "", ErrMissingTier
	}
	return tier, nil
}
