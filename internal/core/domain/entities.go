package domain

import "time"

// Role represents a staff role in the system
type Role string

const (
	RoleLibrarian Role = "LIBRARIAN"
	RoleAdmin     Role = "ADMIN"
)

// BorrowStatus is the lifecycle state of a loan record
type BorrowStatus string

const (
	StatusBorrowed BorrowStatus = "borrowed"
	StatusReturned BorrowStatus = "returned"
)

// DateLayout is the wire format for date-only values (due dates)
const DateLayout = "2006-01-02"

// Book is a catalog entry with its copy counters
type Book struct {
	ID        string
	Title     string
	Author    string
	ISBN      string
	Category  string
	Quantity  int
	Available int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OnLoan returns the number of copies currently out
func (b *Book) OnLoan() int {
	if b.Quantity-b.Available < 0 {
		return 0
	}
	return b.Quantity - b.Available
}

// Patron is a registered library user eligible to borrow
type Patron struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	IDNumber      string // human-presentable short code, unique among patrons
	BorrowedCount int
	CreatedAt     time.Time
}

// Contact returns the best available contact detail
func (p *Patron) Contact() string {
	if p.Email != "" {
		return p.Email
	}
	return p.Phone
}

// Borrow is one loan of one copy of one book to one patron
type Borrow struct {
	ID             string
	BookID         string
	BookTitle      string
	BookISBN       string
	PatronID       string
	PatronName     string
	PatronContact  string
	BorrowDate     time.Time
	DueDate        time.Time
	Status         BorrowStatus
	ReturnDate     *time.Time
	FineAmount     int64
	ExtensionCount int
}

// IsActive reports whether the loan is still out
func (b *Borrow) IsActive() bool {
	return b.Status == StatusBorrowed
}

// ActiveKey identifies the (book, patron) pair of an active loan
func ActiveKey(bookID, patronID string) string {
	return bookID + ":" + patronID
}

// StaffUser is a librarian or administrator account
type StaffUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"` // Hashed
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
