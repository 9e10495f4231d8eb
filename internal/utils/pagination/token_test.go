package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeCursor(t *testing.T) {
	// Standard values
	createdAt := time.Date(2023, 5, 15, 14, 30, 45, 123456789, time.UTC)
	token := EncodeCursor(createdAt, "entry-42")
	assert.NotEmpty(t, token, "Token should not be empty")

	decodedAt, decodedID, err := DecodeCursor(token)
	assert.NoError(t, err, "Decoding should not return an error")
	assert.Equal(t, createdAt, decodedAt, "Timestamp should match after decode")
	assert.Equal(t, "entry-42", decodedID, "ID should match after decode")

	// Non-UTC input is normalised
	local := time.Date(2023, 5, 15, 16, 30, 45, 0, time.FixedZone("CEST", 2*3600))
	decodedAt, _, err = DecodeCursor(EncodeCursor(local, "x"))
	assert.NoError(t, err)
	assert.True(t, local.Equal(decodedAt))
}

func TestDecodeCursorError(t *testing.T) {
	_, _, err := DecodeCursor("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode")

	invalidToken := "MjAyMy0wNS0xNVQwMDowMDowMFo=" // base64 of a date without separator
	_, _, err = DecodeCursor(invalidToken)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	invalidDateToken := "bm90YWRhdGV8YWJj" // base64 of "notadate|abc"
	_, _, err = DecodeCursor(invalidDateToken)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "time parse")
}

func TestBefore(t *testing.T) {
	t0 := time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC)
	assert.True(t, Before(t0, "a", t0.Add(time.Second), "a"))
	assert.True(t, Before(t0, "a", t0, "b"))
	assert.False(t, Before(t0, "b", t0, "b"))
	assert.False(t, Before(t0.Add(time.Second), "a", t0, "z"))
}
