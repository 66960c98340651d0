/*
sweeper.go - Nightly delinquency sweep

PURPOSE:
  Runs a cron job that walks every client shortly after midnight and
  logs the delinquency picture. Status itself is derived at read time,
  so the sweep writes nothing; it exists to surface critical accounts
  in the logs where collections staff and alerting can see them.

SEE ALSO:
  - schedule/delinquency.go: The summary the sweep reports
*/
package api

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/dealerpay/schedule-engine/schedule"
	"github.com/dealerpay/schedule-engine/store"
)

// Sweeper periodically reports delinquency across all clients.
type Sweeper struct {
	store store.Store
	log   *logrus.Logger
	now   func() schedule.Date
	cron  *cron.Cron
}

// NewSweeper builds a sweeper. Call Start to schedule it.
func NewSweeper(s store.Store, log *logrus.Logger) *Sweeper {
	return &Sweeper{store: s, log: log, now: schedule.Today, cron: cron.New()}
}

// Start schedules the nightly run at 00:05 local time.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc("5 0 * * *", s.Run); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("delinquency sweeper started")
	return nil
}

// Stop halts the cron scheduler.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

// Run executes one sweep immediately.
func (s *Sweeper) Run() {
	ctx := context.Background()
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		s.log.WithError(err).Error("delinquency sweep failed to list clients")
		return
	}

	today := s.now()
	byTier := map[schedule.Severity]int{}
	for i := range clients {
		d := schedule.Summarize(clients[i].Schedule, today)
		byTier[d.Severity]++
		if d.Severity == schedule.SeverityCritical {
			s.log.WithFields(logrus.Fields{
				"client_id":      clients[i].ID,
				"name":           clients[i].Name,
				"overdue_count":  d.OverdueCount,
				"overdue_amount": d.OverdueAmount.String(),
				"days_overdue":   d.DaysOverdue,
			}).Warn("critically delinquent account")
		}
	}

	s.log.WithFields(logrus.Fields{
		"clients":  len(clients),
		"mild":     byTier[schedule.SeverityMild],
		"moderate": byTier[schedule.SeverityModerate],
		"critical": byTier[schedule.SeverityCritical],
	}).Info("delinquency sweep complete")
}
