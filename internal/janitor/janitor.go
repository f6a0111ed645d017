// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package janitor runs the periodic maintenance work: sweeping expired
// cache entries and flushing the availability cache to disk.
package janitor

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/subarr/internal/availability"
	"github.com/autobrr/subarr/internal/search"
)

// Janitor owns the cron engine driving cache maintenance.
type Janitor struct {
	cron         *cron.Cron
	results      *search.ResultCache
	availability *availability.Cache
}

func New(results *search.ResultCache, avail *availability.Cache) *Janitor {
	return &Janitor{
		cron:         cron.New(),
		results:      results,
		availability: avail,
	}
}

// Start schedules the sweep and flush jobs and begins running them. Sweep
// and flush intervals are in minutes.
func (j *Janitor) Start(sweepMinutes, flushMinutes int) error {
	if sweepMinutes <= 0 {
		sweepMinutes = 10
	}
	if flushMinutes <= 0 {
		flushMinutes = 5
	}

	if _, err := j.cron.AddFunc(fmt.Sprintf("@every %dm", sweepMinutes), j.sweep); err != nil {
		return err
	}
	if _, err := j.cron.AddFunc(fmt.Sprintf("@every %dm", flushMinutes), j.flush); err != nil {
		return err
	}

	j.cron.Start()
	log.Debug().Int("sweepMinutes", sweepMinutes).Int("flushMinutes", flushMinutes).Msg("janitor started")
	return nil
}

// Stop halts scheduling, waits for any running job, and performs a final
// flush so nothing recorded since the last interval is lost on shutdown.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()

	j.flush()
	log.Debug().Msg("janitor stopped")
}

func (j *Janitor) sweep() {
	removedResults := j.results.Sweep()
	removedAvailability := j.availability.Sweep()

	if removedResults > 0 || removedAvailability > 0 {
		log.Debug().
			Int("searchEntries", removedResults).
			Int("availabilityEntries", removedAvailability).
			Msg("swept expired cache entries")
	}
}

func (j *Janitor) flush() {
	if err := j.availability.Flush(); err != nil {
		log.Error().Err(err).Msg("failed to flush availability cache")
	}
}
