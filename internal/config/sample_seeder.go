package config

import (
	"errors"
	"log"

	"github.com/libraryhub/circulation/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// SeedSampleData seeds a small catalog and a few patrons for development
func SeedSampleData(db *gorm.DB) error {
	if err := seedBooks(db); err != nil {
		return err
	}

	if err := seedPatrons(db); err != nil {
		return err
	}

	log.Println("✅ Sample data seeded successfully")
	return nil
}

func seedBooks(db *gorm.DB) error {
	books := []models.Book{
		{Title: "The Go Programming Language", Author: "Alan Donovan, Brian Kernighan", ISBN: "9780134190440", Category: "Programming", Quantity: 3, Available: 3},
		{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", ISBN: "9781449373320", Category: "Programming", Quantity: 2, Available: 2},
		{Title: "1984", Author: "George Orwell", ISBN: "9780451524935", Category: "Fiction", Quantity: 4, Available: 4},
		{Title: "Animal Farm", Author: "George Orwell", ISBN: "9780451526342", Category: "Fiction", Quantity: 1, Available: 1},
		{Title: "The Art of War", Author: "Sun Tzu", ISBN: "9781590302255", Category: "History", Quantity: 2, Available: 2},
	}

	for _, b := range books {
		var existing models.Book
		if err := db.Where("isbn = ?", b.ISBN).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := db.Create(&b).Error; err != nil {
					return err
				}
				log.Printf("   Created book: %s", b.Title)
			}
		}
	}
	return nil
}

func seedPatrons(db *gorm.DB) error {
	patrons := []models.Patron{
		{Name: "Alice Martin", Email: "alice@example.com", IDNumber: "al11"},
		{Name: "Bob Chen", Email: "bob@example.com", IDNumber: "bo22"},
		{Name: "Chidi Okafor", Phone: "+2348012345678", IDNumber: "ch33"},
	}

	for _, p := range patrons {
		var existing models.Patron
		if err := db.Where("id_number = ?", p.IDNumber).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := db.Create(&p).Error; err != nil {
					return err
				}
				log.Printf("   Created patron: %s (%s)", p.Name, p.IDNumber)
			}
		}
	}
	return nil
}
