package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator_FirstErrorWins(t *testing.T) {
	v := New()
	assert.True(t, v.Valid())

	v.Check(false, "title", "must be provided")
	v.Check(false, "title", "must be shorter")
	v.Check(true, "author", "must be provided")

	assert.False(t, v.Valid())
	assert.Equal(t, map[string]string{"title": "must be provided"}, v.Errors)
}

func TestValidator_Helpers(t *testing.T) {
	assert.True(t, NotBlank(" a "))
	assert.False(t, NotBlank("   "))
	assert.True(t, MaxChars("héllo", 5))
	assert.False(t, MaxChars("hello!", 5))
	assert.True(t, In("b", "a", "b"))
	assert.False(t, In("c", "a", "b"))

	assert.True(t, Matches("ana@example.com", EmailRX))
	assert.False(t, Matches("ana@", EmailRX))
	assert.True(t, Matches("an42", PatronCodeRX))
	assert.False(t, Matches("AN 42", PatronCodeRX))
	assert.True(t, Matches("978-0-13-419044-0", ISBNRX))
	assert.True(t, Matches("030640615X", ISBNRX))
	assert.False(t, Matches("abc", ISBNRX))
}
