package handlers

import (
	"time"

	"github.com/libraryhub/circulation/internal/core/domain"
)

// BookResponse represents a catalog entry
type BookResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	ISBN      string    `json:"isbn"`
	Category  string    `json:"category"`
	Quantity  int       `json:"quantity"`
	Available int       `json:"available"`
	OnLoan    int       `json:"on_loan"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toBookResponse(b *domain.Book) *BookResponse {
	return &BookResponse{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		ISBN:      b.ISBN,
		Category:  b.Category,
		Quantity:  b.Quantity,
		Available: b.Available,
		OnLoan:    b.OnLoan(),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// PatronResponse represents a patron
type PatronResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	IDNumber      string    `json:"id_number"`
	BorrowedCount int       `json:"borrowed_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func toPatronResponse(p *domain.Patron) *PatronResponse {
	return &PatronResponse{
		ID:            p.ID,
		Name:          p.Name,
		Email:         p.Email,
		Phone:         p.Phone,
		IDNumber:      p.IDNumber,
		BorrowedCount: p.BorrowedCount,
		CreatedAt:     p.CreatedAt,
	}
}

// BorrowResponse represents a loan. Fine is live for active loans and the
// charged amount for returned ones.
type BorrowResponse struct {
	ID             string     `json:"id"`
	BookID         string     `json:"book_id"`
	BookTitle      string     `json:"book_title"`
	BookISBN       string     `json:"book_isbn,omitempty"`
	PatronID       string     `json:"patron_id"`
	PatronName     string     `json:"patron_name"`
	PatronContact  string     `json:"patron_contact,omitempty"`
	BorrowDate     time.Time  `json:"borrow_date"`
	DueDate        string     `json:"due_date"`
	Status         string     `json:"status"`
	ReturnDate     *time.Time `json:"return_date"`
	ExtensionCount int        `json:"extension_count"`
	DaysOverdue    int        `json:"days_overdue"`
	Fine           int64      `json:"fine"`
}

func toBorrowResponse(b *domain.Borrow, quote domain.FineQuote, loc *time.Location) *BorrowResponse {
	return &BorrowResponse{
		ID:             b.ID,
		BookID:         b.BookID,
		BookTitle:      b.BookTitle,
		BookISBN:       b.BookISBN,
		PatronID:       b.PatronID,
		PatronName:     b.PatronName,
		PatronContact:  b.PatronContact,
		BorrowDate:     b.BorrowDate,
		DueDate:        b.DueDate.In(loc).Format(domain.DateLayout),
		Status:         string(b.Status),
		ReturnDate:     b.ReturnDate,
		ExtensionCount: b.ExtensionCount,
		DaysOverdue:    quote.DaysOverdue,
		Fine:           quote.Amount,
	}
}
