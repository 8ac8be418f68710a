// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

package evaluation

import (
	"time"

	"github.com/sagestudio/recommender/internal/catalog"
)

// clickActions are the interaction kinds counted as clicks for CTR.
var clickActions = map[catalog.Action]struct{}{
	catalog.ActionClick:     {},
	catalog.ActionAddToCart: {},
	catalog.ActionPurchase:  {},
}

// CTR is the click-through rate over a trailing window of the interaction
// log. Rate is clicks/views, defined as 0 when there are no views.
type CTR struct {
	WindowDays int     `json:"window_days"`
	Views      int     `json:"views"`
	Clicks     int     `json:"clicks"`
	Rate       float64 `json:"ctr"`
}

// ClickThroughRate counts views against clicks within the trailing window
// ending at now. Clicks are click, add_to_cart and purchase; views are view
// only. Everything else, including recommendation-feedback actions, is
// ignored.
func ClickThroughRate(interactions []catalog.Interaction, now time.Time, windowDays int) CTR {
	if windowDays <= 0 {
		windowDays = 7
	}
	cutoff := now.AddDate(0, 0, -windowDays)

	ctr := CTR{WindowDays: windowDays}
	for i := range interactions {
		in := &interactions[i]
		if in.Timestamp.Before(cutoff) || in.Timestamp.After(now) {
			continue
		}
		if in.Action == catalog.ActionView {
			ctr.Views++
			continue
		}
		if _, click := clickActions[in.Action]; click {
			ctr.Clicks++
		}
	}

	if ctr.Views > 0 {
		ctr.Rate = float64(ctr.Clicks) / float64(ctr.Views)
	}
	return ctr
}
