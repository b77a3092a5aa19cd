package services

import (
	"github.com/libraryhub/circulation/internal/adapters/persistence/repositories"
	"github.com/libraryhub/circulation/internal/config"
	"github.com/libraryhub/circulation/internal/core/domain"
)

// Container wires every service over one store
type Container struct {
	Loans     *LoanService
	Catalog   *CatalogService
	Patrons   *PatronService
	Dashboard *DashboardService
	Auth      *AuthService
	Cron      *CronService
}

// NewContainer builds the services from configuration
func NewContainer(store repositories.Store, cfg *config.Config) *Container {
	loc := cfg.Location()
	loans := NewLoanService(store, domain.NewFinePolicy(cfg.Library.FineRatePerDay, loc))

	return &Container{
		Loans:     loans,
		Catalog:   NewCatalogService(store),
		Patrons:   NewPatronService(store, cfg.Library.PatronCodeAttempts),
		Dashboard: NewDashboardService(store, loans),
		Auth:      NewAuthService(store.Repositories().Staff, cfg.JWT),
		Cron:      NewCronService(loans, cfg.Cron, loc),
	}
}
