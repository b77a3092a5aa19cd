package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/libraryhub/circulation/internal/adapters/persistence/models"
	"github.com/libraryhub/circulation/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// borrowRepository implements BorrowRepository interface
type borrowRepository struct {
	db *gorm.DB
}

// NewBorrowRepository creates a new borrow repository
func NewBorrowRepository(db *gorm.DB) BorrowRepository {
	return &borrowRepository{db: db}
}

// Create creates a new borrow record. Instants are stored in UTC so that
// date comparisons behave the same on every dialect.
func (r *borrowRepository) Create(ctx context.Context, borrow *models.Borrow) error {
	borrow.BorrowDate = borrow.BorrowDate.UTC()
	borrow.DueDate = borrow.DueDate.UTC()
	return r.db.WithContext(ctx).Create(borrow).Error
}

// GetByID gets a borrow by ID
func (r *borrowRepository) GetByID(ctx context.Context, id string) (*models.Borrow, error) {
	var borrow models.Borrow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&borrow).Error
	if err != nil {
		return nil, err
	}
	return &borrow, nil
}

// GetByIDForUpdate gets a borrow by ID and locks the row until the transaction ends
func (r *borrowRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Borrow, error) {
	var borrow models.Borrow
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&borrow).Error
	if err != nil {
		return nil, err
	}
	return &borrow, nil
}

// GetActive returns the active loan of a book to a patron, or nil if there is none
func (r *borrowRepository) GetActive(ctx context.Context, bookID, patronID string) (*models.Borrow, error) {
	var borrow models.Borrow
	err := r.db.WithContext(ctx).
		Where("book_id = ? AND patron_id = ? AND status = ?", bookID, patronID, string(domain.StatusBorrowed)).
		First(&borrow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &borrow, nil
}

// MarkReturned closes an active loan. It reports false if the loan was not active.
func (r *borrowRepository) MarkReturned(ctx context.Context, id string, returnDate time.Time, fine int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Borrow{}).
		Where("id = ? AND status = ?", id, string(domain.StatusBorrowed)).
		Updates(map[string]interface{}{
			"status":      string(domain.StatusReturned),
			"return_date": returnDate.UTC(),
			"fine_amount": fine,
			"active_key":  nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateDueDate moves the due date of an active loan. It reports false if the loan was not active.
func (r *borrowRepository) UpdateDueDate(ctx context.Context, id string, dueDate time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Borrow{}).
		Where("id = ? AND status = ?", id, string(domain.StatusBorrowed)).
		Updates(map[string]interface{}{
			"due_date":        dueDate.UTC(),
			"extension_count": gorm.Expr("extension_count + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *borrowRepository) filtered(ctx context.Context, filter BorrowFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Borrow{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PatronID != "" {
		query = query.Where("patron_id = ?", filter.PatronID)
	}
	if filter.BookID != "" {
		query = query.Where("book_id = ?", filter.BookID)
	}
	if filter.DueBefore != nil {
		query = query.Where("due_date < ?", filter.DueBefore.UTC())
	}
	return query
}

// List lists borrows with pagination, newest first
func (r *borrowRepository) List(ctx context.Context, filter BorrowFilter, offset, limit int) ([]*models.Borrow, int64, error) {
	var borrows []*models.Borrow
	var total int64

	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.filtered(ctx, filter)
	if filter.DueBefore != nil {
		query = query.Order("due_date ASC")
	} else {
		query = query.Order("borrow_date DESC")
	}
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	if err := query.Find(&borrows).Error; err != nil {
		return nil, 0, err
	}

	return borrows, total, nil
}

// CountActiveByBook counts loans of a book still out
func (r *borrowRepository) CountActiveByBook(ctx context.Context, bookID string) (int64, error) {
	return r.Count(ctx, BorrowFilter{Status: string(domain.StatusBorrowed), BookID: bookID})
}

// ActiveCountsByPatron counts active loans grouped by patron
func (r *borrowRepository) ActiveCountsByPatron(ctx context.Context) (map[string]int, error) {
	type row struct {
		PatronID string
		Count    int
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Borrow{}).
		Select("patron_id, COUNT(*) AS count").
		Where("status = ?", string(domain.StatusBorrowed)).
		Group("patron_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.PatronID] = r.Count
	}
	return counts, nil
}

// Count counts borrows matching filter
func (r *borrowRepository) Count(ctx context.Context, filter BorrowFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, err
}
