package models

import (
	"time"

	"github.com/libraryhub/circulation/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ============================================================
// Catalog
// ============================================================

// Book represents books table
type Book struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `gorm:"size:255;not null;index" json:"title"`
	Author    string    `gorm:"size:255;not null;index" json:"author"`
	ISBN      string    `gorm:"column:isbn;size:32;index" json:"isbn"`
	Category  string    `gorm:"size:100;index" json:"category"`
	Quantity  int       `gorm:"not null;default:0" json:"quantity"`
	Available int       `gorm:"not null;default:0" json:"available"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (b *Book) ToDomain() *domain.Book {
	return &domain.Book{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		ISBN:      b.ISBN,
		Category:  b.Category,
		Quantity:  b.Quantity,
		Available: b.Available,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// ============================================================
// Patrons
// ============================================================

// Patron represents patrons table (the "users" collection of the catalog app)
type Patron struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Name          string    `gorm:"size:150;not null;index" json:"name"`
	Email         string    `gorm:"size:150;index" json:"email"`
	Phone         string    `gorm:"size:30" json:"phone"`
	IDNumber      string    `gorm:"column:id_number;size:32;uniqueIndex;not null" json:"id_number"`
	BorrowedCount int       `gorm:"not null;default:0" json:"borrowed_count"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Patron) TableName() string {
	return "patrons"
}

func (p *Patron) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *Patron) ToDomain() *domain.Patron {
	return &domain.Patron{
		ID:            p.ID,
		Name:          p.Name,
		Email:         p.Email,
		Phone:         p.Phone,
		IDNumber:      p.IDNumber,
		BorrowedCount: p.BorrowedCount,
		CreatedAt:     p.CreatedAt,
	}
}

// ============================================================
// Loan ledger
// ============================================================

// Borrow represents borrows table. ActiveKey is set while the loan is out and
// cleared on return; its unique index allows one active loan per (book, patron).
type Borrow struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	BookID         string     `gorm:"size:36;not null;index" json:"book_id"`
	BookTitle      string     `gorm:"size:255" json:"book_title"`
	BookISBN       string     `gorm:"column:book_isbn;size:32" json:"book_isbn"`
	PatronID       string     `gorm:"size:36;not null;index" json:"patron_id"`
	PatronName     string     `gorm:"size:150" json:"patron_name"`
	PatronContact  string     `gorm:"size:150" json:"patron_contact"`
	BorrowDate     time.Time  `gorm:"not null" json:"borrow_date"`
	DueDate        time.Time  `gorm:"not null;index" json:"due_date"`
	Status         string     `gorm:"size:16;not null;index;default:'borrowed'" json:"status"`
	ReturnDate     *time.Time `json:"return_date"`
	FineAmount     int64      `gorm:"not null;default:0" json:"fine_amount"`
	ExtensionCount int        `gorm:"not null;default:0" json:"extension_count"`
	ActiveKey      *string    `gorm:"size:80;uniqueIndex" json:"-"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Borrow) TableName() string {
	return "borrows"
}

func (b *Borrow) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (b *Borrow) ToDomain() *domain.Borrow {
	return &domain.Borrow{
		ID:             b.ID,
		BookID:         b.BookID,
		BookTitle:      b.BookTitle,
		BookISBN:       b.BookISBN,
		PatronID:       b.PatronID,
		PatronName:     b.PatronName,
		PatronContact:  b.PatronContact,
		BorrowDate:     b.BorrowDate,
		DueDate:        b.DueDate,
		Status:         domain.BorrowStatus(b.Status),
		ReturnDate:     b.ReturnDate,
		FineAmount:     b.FineAmount,
		ExtensionCount: b.ExtensionCount,
	}
}

// ============================================================
// Staff accounts
// ============================================================

// StaffUser represents staff_users table
type StaffUser struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'LIBRARIAN'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (StaffUser) TableName() string {
	return "staff_users"
}

func (u *StaffUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *StaffUser) ToDomain() *domain.StaffUser {
	return &domain.StaffUser{
		ID:        u.ID,
		Username:  u.Username,
		Password:  u.Password,
		Role:      domain.Role(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Book{},
		&Patron{},
		&Borrow{},
		&StaffUser{},
	)
}
