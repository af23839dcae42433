// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package jobs runs the background maintenance tasks of the platform on
// cron schedules.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"listora/internal/cache"
	"listora/internal/presentation"
	"listora/internal/store"
)

// DefaultExpirySchedule sweeps lapsed premium listings every ten minutes.
const DefaultExpirySchedule = "*/10 * * * *"

// PremiumExpiry downgrades premium listings whose paid window has lapsed
// and evicts their cached presentations, so cards stop showing the
// premium treatment without waiting for an edit.
type PremiumExpiry struct {
	listings  *store.ListingStore
	resolver  *presentation.Resolver
	presCache *cache.PresentationCache
	cron      *cron.Cron
}

// NewPremiumExpiry creates the sweep job. presCache may be nil.
func NewPremiumExpiry(listings *store.ListingStore, resolver *presentation.Resolver, presCache *cache.PresentationCache) *PremiumExpiry {
	return &PremiumExpiry{
		listings:  listings,
		resolver:  resolver,
		presCache: presCache,
		cron:      cron.New(),
	}
}

// Start schedules the sweep and runs one immediately so a restart does
// not leave lapsed listings premium until the next tick.
func (j *PremiumExpiry) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultExpirySchedule
	}
	if _, err := j.cron.AddFunc(schedule, j.Run); err != nil {
		return err
	}
	j.cron.Start()
	go j.Run()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (j *PremiumExpiry) Stop() {
	<-j.cron.Stop().Done()
}

// Run executes one sweep.
func (j *PremiumExpiry) Run() {
	ids, err := j.listings.ExpirePremium(time.Now())
	if err != nil {
		slog.Error("premium expiry sweep failed", "error", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	ctx := context.Background()
	for _, id := range ids {
		j.resolver.InvalidateListing(id.String())
		if j.presCache != nil {
			j.presCache.InvalidateListing(ctx, id.String())
		}
	}

	slog.Info("premium listings expired", "count", len(ids))
}
