package repositories

import (
	"context"

	"github.com/libraryhub/circulation/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// bookRepository implements BookRepository interface
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

// Create creates a new book
func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// GetByID gets a book by ID
func (r *bookRepository) GetByID(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByIDForUpdate gets a book by ID and locks the row until the transaction ends
func (r *bookRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// FindByISBN returns books sharing an ISBN, books with copies on the shelf first
func (r *bookRepository) FindByISBN(ctx context.Context, isbn string) ([]*models.Book, error) {
	var books []*models.Book
	err := r.db.WithContext(ctx).
		Where("isbn = ?", isbn).
		Order("available > 0 DESC, created_at ASC").
		Find(&books).Error
	return books, err
}

// Update saves all book fields
func (r *bookRepository) Update(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

// Delete deletes a book
func (r *bookRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Book{}).Error
}

// List lists books with pagination
func (r *bookRepository) List(ctx context.Context, filter BookFilter, offset, limit int) ([]*models.Book, int64, error) {
	var books []*models.Book
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Book{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("title LIKE ? OR author LIKE ? OR isbn LIKE ?", like, like, like)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	// Count total
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("title ASC").Offset(offset).Limit(limit).Find(&books).Error; err != nil {
		return nil, 0, err
	}

	return books, total, nil
}

// DecrementAvailable takes one copy off the shelf if any is left.
// It reports false when no row matched (no copies, or the book vanished).
func (r *bookRepository) DecrementAvailable(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND available > 0", id).
		Update("available", gorm.Expr("available - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SetAvailable overwrites the shelf count of a book locked by the caller
func (r *bookRepository) SetAvailable(ctx context.Context, id string, available int) error {
	return r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		Update("available", available).Error
}

// LockOutOfRange locks and returns every book whose available count left [0, quantity]
func (r *bookRepository) LockOutOfRange(ctx context.Context) ([]*models.Book, error) {
	var books []*models.Book
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("available < 0 OR available > quantity").
		Order("id ASC").
		Find(&books).Error
	return books, err
}

// Totals aggregates title and copy counts
func (r *bookRepository) Totals(ctx context.Context) (*CatalogTotals, error) {
	var totals CatalogTotals
	err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Select("COUNT(*) AS titles, COALESCE(SUM(quantity), 0) AS copies, COALESCE(SUM(available), 0) AS available").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}
