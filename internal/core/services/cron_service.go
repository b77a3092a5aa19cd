package services

import (
	"context"
	"log"
	"time"

	"github.com/libraryhub/circulation/internal/config"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 5 * time.Minute

// CronService runs scheduled circulation jobs
type CronService struct {
	cron  *cron.Cron
	loans *LoanService
	cfg   config.CronConfig
}

// NewCronService creates a new cron service. Schedules are evaluated in loc.
func NewCronService(loans *LoanService, cfg config.CronConfig, loc *time.Location) *CronService {
	if loc == nil {
		loc = time.UTC
	}
	return &CronService{
		cron:  cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		loans: loans,
		cfg:   cfg,
	}
}

// Register adds the configured jobs without starting the scheduler
func (s *CronService) Register() error {
	if _, err := s.cron.AddFunc(s.cfg.OverdueSweepSpec, s.OverdueSweep); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.ReconcileSpec, s.Reconcile); err != nil {
		return err
	}
	return nil
}

// Start registers jobs and starts the scheduler
func (s *CronService) Start() error {
	if !s.cfg.Enabled {
		log.Println("⏸️ CronService disabled")
		return nil
	}
	if err := s.Register(); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("🚀 CronService started [overdue: %s, reconcile: %s]", s.cfg.OverdueSweepSpec, s.cfg.ReconcileSpec)
	return nil
}

// Stop waits for running jobs and stops the scheduler
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 CronService stopped")
}

// Entries returns the number of scheduled jobs
func (s *CronService) Entries() int {
	return len(s.cron.Entries())
}

// ============================================================
// Jobs
// ============================================================

// OverdueSweep logs every overdue loan with its live fine
func (s *CronService) OverdueSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	borrows, total, err := s.loans.ListOverdue(ctx, 0, 0)
	if err != nil {
		log.Printf("❌ Overdue sweep failed: %v", err)
		return
	}

	now := s.loans.Now()
	var outstanding int64
	for _, b := range borrows {
		quote := s.loans.FineFor(b, now)
		outstanding += quote.Amount
		log.Printf("⏰ Overdue: %s → %s (%s), %d day(s), fine %d",
			b.BookTitle, b.PatronName, b.PatronContact, quote.DaysOverdue, quote.Amount)
	}

	log.Printf("📋 Overdue sweep done: %d loan(s), outstanding fines %d", total, outstanding)
}

// Reconcile recomputes counters from the ledger
func (s *CronService) Reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.loans.ReconcileCounters(ctx); err != nil {
		log.Printf("❌ Counter reconciliation failed: %v", err)
	}
}
