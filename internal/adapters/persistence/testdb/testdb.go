// Package testdb opens migrated in-memory SQLite databases for tests.
package testdb

import (
	"fmt"
	"strings"
	"testing"

	"github.com/libraryhub/circulation/internal/adapters/persistence/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh database private to t, closed when the test ends
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the memory database alive and serializes transactions
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

// Book inserts a book with every copy available
func Book(t testing.TB, db *gorm.DB, title string, quantity int) *models.Book {
	t.Helper()
	book := &models.Book{
		Title:     title,
		Author:    "Test Author",
		ISBN:      fmt.Sprintf("97800000%05d", len(title)*7+quantity),
		Category:  "Test",
		Quantity:  quantity,
		Available: quantity,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

// Patron inserts a patron with the given short code
func Patron(t testing.TB, db *gorm.DB, name, code string) *models.Patron {
	t.Helper()
	patron := &models.Patron{
		Name:     name,
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		IDNumber: code,
	}
	require.NoError(t, db.Create(patron).Error)
	return patron
}
