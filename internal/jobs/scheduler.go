// Package jobs runs the periodic route scans on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/pointsmaxxer/pointsmaxxer/internal/config"
	"github.com/pointsmaxxer/pointsmaxxer/internal/features/scanner"
)

// ScanRunner is the scan the scheduler triggers. *scanner.Scanner
// implements it.
type ScanRunner interface {
	ScanAllRoutes(ctx context.Context) *scanner.ScanResult
}

type Scheduler struct {
	cron   *cron.Cron
	runner ScanRunner
	spec   string
	loc    *time.Location
}

// NewScheduler builds a scheduler in timezone for the given
// scan_frequency. An unknown timezone falls back to UTC.
func NewScheduler(runner ScanRunner, timezone, frequency string) *Scheduler {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.WithError(err).WithField("timezone", timezone).Warn("Unknown timezone, scheduling in UTC")
		loc = time.UTC
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(
			cron.Recover(cron.PrintfLogger(log.StandardLogger())),
			cron.SkipIfStillRunning(cron.PrintfLogger(log.StandardLogger())),
		),
	)

	return &Scheduler{
		cron:   c,
		runner: runner,
		spec:   config.ScheduleSpec(frequency),
		loc:    loc,
	}
}

// Spec is the cron expression in use.
func (s *Scheduler) Spec() string {
	return s.spec
}

// Start registers the scan job and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runScan(ctx) }); err != nil {
		return fmt.Errorf("schedule scan %q: %w", s.spec, err)
	}
	s.cron.Start()

	log.WithFields(log.Fields{
		"spec":     s.spec,
		"timezone": s.loc.String(),
		"next":     s.Next().Format(time.RFC3339),
	}).Info("Scan scheduler started")
	return nil
}

// Next is the next scheduled run, or zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) runScan(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	log.Info("[CRON] Scanning routes")
	res := s.runner.ScanAllRoutes(ctx)
	log.WithFields(log.Fields{
		"scan_id":  res.ID.String(),
		"routes":   res.RoutesScanned,
		"awards":   res.AwardsFound,
		"deals":    res.DealsFound,
		"unicorns": res.UnicornsFound,
		"errors":   len(res.Errors),
		"took":     res.Duration.Round(time.Millisecond).String(),
	}).Info("[CRON] Scan finished")
}

// Stop waits for a running scan to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Scan scheduler stopped")
}
