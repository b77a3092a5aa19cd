package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// store implements Store over a gorm handle
type store struct {
	db    *gorm.DB
	repos Repositories
}

// NewStore creates a new store
func NewStore(db *gorm.DB) Store {
	return &store{db: db, repos: bind(db)}
}

func bind(db *gorm.DB) Repositories {
	return Repositories{
		Books:   NewBookRepository(db),
		Patrons: NewPatronRepository(db),
		Borrows: NewBorrowRepository(db),
		Staff:   NewStaffRepository(db),
	}
}

// Repositories returns repositories outside any transaction
func (s *store) Repositories() Repositories {
	return s.repos
}

// Transaction runs fn inside a database transaction
func (s *store) Transaction(ctx context.Context, fn func(repos Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(bind(tx))
	})
}

// Ping checks the underlying connection
func (s *store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
