// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

package evaluation

import (
	"testing"
	"time"

	"github.com/sagestudio/recommender/internal/catalog"
)

func row(action catalog.Action, age time.Duration, now time.Time) catalog.Interaction {
	return catalog.Interaction{
		UserID:    "u1",
		ProductID: "p1",
		Action:    action,
		Timestamp: now.Add(-age),
	}
}

func TestClickThroughRate(t *testing.T) {
	now := time.Now()

	interactions := []catalog.Interaction{
		row(catalog.ActionView, time.Hour, now),
		row(catalog.ActionView, 2*time.Hour, now),
		row(catalog.ActionView, 3*time.Hour, now),
		row(catalog.ActionView, 4*time.Hour, now),
		row(catalog.ActionClick, time.Hour, now),
		row(catalog.ActionPurchase, 2*time.Hour, now),
	}

	ctr := ClickThroughRate(interactions, now, 7)
	if ctr.Views != 4 || ctr.Clicks != 2 {
		t.Errorf("counts wrong: views=%d clicks=%d", ctr.Views, ctr.Clicks)
	}
	if ctr.Rate != 0.5 {
		t.Errorf("ctr = %f, want 0.5", ctr.Rate)
	}
	if ctr.WindowDays != 7 {
		t.Errorf("window_days = %d, want 7", ctr.WindowDays)
	}
}

func TestClickThroughRateWindowFilter(t *testing.T) {
	now := time.Now()

	interactions := []catalog.Interaction{
		row(catalog.ActionView, 24*time.Hour, now),
		row(catalog.ActionClick, 24*time.Hour, now),
		// Outside a 7-day window.
		row(catalog.ActionView, 8*24*time.Hour, now),
		row(catalog.ActionClick, 8*24*time.Hour, now),
		row(catalog.ActionPurchase, 40*24*time.Hour, now),
		// Future timestamps are ignored too.
		row(catalog.ActionView, -time.Hour, now),
	}

	ctr := ClickThroughRate(interactions, now, 7)
	if ctr.Views != 1 || ctr.Clicks != 1 {
		t.Errorf("window filter wrong: views=%d clicks=%d", ctr.Views, ctr.Clicks)
	}

	wide := ClickThroughRate(interactions, now, 30)
	if wide.Views != 2 || wide.Clicks != 2 {
		t.Errorf("30-day window wrong: views=%d clicks=%d", wide.Views, wide.Clicks)
	}
}

func TestClickThroughRateNoViews(t *testing.T) {
	now := time.Now()

	ctr := ClickThroughRate([]catalog.Interaction{
		row(catalog.ActionClick, time.Hour, now),
		row(catalog.ActionPurchase, time.Hour, now),
	}, now, 7)

	if ctr.Clicks != 2 {
		t.Errorf("clicks = %d, want 2", ctr.Clicks)
	}
	if ctr.Rate != 0 {
		t.Errorf("rate with zero views must be 0, got %f", ctr.Rate)
	}
}

func TestClickThroughRateIgnoresOtherActions(t *testing.T) {
	now := time.Now()

	ctr := ClickThroughRate([]catalog.Interaction{
		row(catalog.ActionWishlist, time.Hour, now),
		row(catalog.ActionRecoImpression, time.Hour, now),
		row(catalog.ActionRecoClick, time.Hour, now),
	}, now, 7)

	if ctr.Views != 0 || ctr.Clicks != 0 {
		t.Errorf("only view and click-class actions count: %+v", ctr)
	}
}

func TestClickThroughRateDefaultWindow(t *testing.T) {
	now := time.Now()
	ctr := ClickThroughRate(nil, now, 0)
	if ctr.WindowDays != 7 {
		t.Errorf("zero window falls back to 7 days, got %d", ctr.WindowDays)
	}
}
