package repositories

import (
	"context"

	"github.com/libraryhub/circulation/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// patronRepository implements PatronRepository interface
type patronRepository struct {
	db *gorm.DB
}

// NewPatronRepository creates a new patron repository
func NewPatronRepository(db *gorm.DB) PatronRepository {
	return &patronRepository{db: db}
}

// Create creates a new patron
func (r *patronRepository) Create(ctx context.Context, patron *models.Patron) error {
	return r.db.WithContext(ctx).Create(patron).Error
}

// GetByID gets a patron by ID
func (r *patronRepository) GetByID(ctx context.Context, id string) (*models.Patron, error) {
	var patron models.Patron
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&patron).Error
	if err != nil {
		return nil, err
	}
	return &patron, nil
}

// GetByIDNumber gets a patron by short code
func (r *patronRepository) GetByIDNumber(ctx context.Context, idNumber string) (*models.Patron, error) {
	var patron models.Patron
	err := r.db.WithContext(ctx).Where("id_number = ?", idNumber).First(&patron).Error
	if err != nil {
		return nil, err
	}
	return &patron, nil
}

// GetByIDForUpdate gets a patron by ID and locks the row until the transaction ends
func (r *patronRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Patron, error) {
	var patron models.Patron
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&patron).Error
	if err != nil {
		return nil, err
	}
	return &patron, nil
}

// ExistsByIDNumber checks if a short code is taken
func (r *patronRepository) ExistsByIDNumber(ctx context.Context, idNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Patron{}).Where("id_number = ?", idNumber).Count(&count).Error
	return count > 0, err
}

// List lists patrons with pagination
func (r *patronRepository) List(ctx context.Context, search string, offset, limit int) ([]*models.Patron, int64, error) {
	var patrons []*models.Patron
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Patron{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR id_number LIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("name ASC").Offset(offset).Limit(limit).Find(&patrons).Error; err != nil {
		return nil, 0, err
	}

	return patrons, total, nil
}

// IncrementBorrowed adds one active loan to the patron counter
func (r *patronRepository) IncrementBorrowed(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&models.Patron{}).
		Where("id = ?", id).
		Update("borrowed_count", gorm.Expr("borrowed_count + 1")).Error
}

// LockBorrowedCounts locks every patron row and returns the stored counters
func (r *patronRepository) LockBorrowedCounts(ctx context.Context) (map[string]int, error) {
	type row struct {
		ID            string
		BorrowedCount int
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Patron{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id, borrowed_count").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.ID] = r.BorrowedCount
	}
	return counts, nil
}

// SetBorrowedCount moves the counter from one value to another.
// It reports false when the stored value no longer equals from.
func (r *patronRepository) SetBorrowedCount(ctx context.Context, id string, from, to int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Patron{}).
		Where("id = ? AND borrowed_count = ?", id, from).
		Update("borrowed_count", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Count counts all patrons
func (r *patronRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Patron{}).Count(&count).Error
	return count, err
}
