package config

import (
	"log"

	"github.com/libraryhub/circulation/internal/adapters/persistence/models"
	"github.com/libraryhub/circulation/internal/core/domain"
	"github.com/libraryhub/circulation/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	cfg SeedConfig
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg SeedConfig) *Seeder {
	return &Seeder{db: db, cfg: cfg}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	if s.cfg.SampleData {
		if err := SeedSampleData(s.db); err != nil {
			return err
		}
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser seeds the bootstrap administrator.
// Skipped when no password is configured; production admins should be created deliberately.
func (s *Seeder) seedAdminUser() error {
	var count int64
	s.db.Model(&models.StaffUser{}).Where("role = ?", string(domain.RoleAdmin)).Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	if s.cfg.AdminPassword == "" {
		log.Println("⚠️ Skipping admin seed: SEED_ADMIN_PASSWORD not set")
		return nil
	}
	if !password.ValidatePassword(s.cfg.AdminPassword) {
		log.Println("⚠️ Skipping admin seed: SEED_ADMIN_PASSWORD must be at least 8 characters")
		return nil
	}

	hashedPassword, err := password.Hash(s.cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.StaffUser{
		Username: s.cfg.AdminUsername,
		Password: hashedPassword,
		Role:     string(domain.RoleAdmin),
		IsActive: true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}
