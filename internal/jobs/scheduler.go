// Package jobs runs the scheduled work: the monthly commission batch and a
// daily visibility log of pending withdrawals.
package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"docsafe.com.br/affiliate-service/internal/config"
	"docsafe.com.br/affiliate-service/internal/features/commission"
	"docsafe.com.br/affiliate-service/internal/features/ledger"
)

// Scheduler owns the cron instance. Schedules run in the service timezone so
// the commission month window and the batch fire on the same calendar.
type Scheduler struct {
	cron       *cron.Cron
	cfg        *config.Config
	commission *commission.Service
	ledger     *ledger.Repository
}

// NewScheduler creates the scheduler in the configured timezone.
func NewScheduler(cfg *config.Config, commissionService *commission.Service, ledgerRepo *ledger.Repository) *Scheduler {
	loc := cfg.Location()
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		cfg:        cfg,
		commission: commissionService,
		ledger:     ledgerRepo,
	}
}

// Start registers and launches the jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.FeatureBatchEnabled {
		if _, err := s.cron.AddFunc(s.cfg.CommissionBatchCron, func() {
			log.Info("[CRON] monthly commission batch")
			report, err := s.commission.RunBatch(ctx)
			if err != nil {
				log.WithError(err).Error("[CRON] commission batch failed")
				return
			}
			if report.Failed > 0 {
				log.Warnf("[CRON] commission batch finished with %d failures", report.Failed)
			}
		}); err != nil {
			return err
		}
	}

	// Daily pending-withdrawals count, for the ops dashboard logs.
	if _, err := s.cron.AddFunc("0 9 * * *", func() {
		n, err := s.ledger.CountPending(ctx)
		if err != nil {
			log.WithError(err).Error("[CRON] pending withdrawals check failed")
			return
		}
		if n > 0 {
			log.Infof("[CRON] %d withdrawal(s) awaiting payout", n)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	log.Infof("scheduler started (%s)", s.cfg.AppTimezone)
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("scheduler stopped")
}
