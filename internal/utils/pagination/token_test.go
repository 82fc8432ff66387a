package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	entryDate := time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2024, time.June, 14, 10, 30, 15, 123456789, time.UTC)

	token := EncodeToken(entryDate, createdAt)
	decodedDate, decodedCreated, err := DecodeToken(token)

	require.NoError(t, err)
	assert.True(t, entryDate.Equal(decodedDate))
	assert.True(t, createdAt.Equal(decodedCreated))
}

func TestDecodeToken_InvalidBase64(t *testing.T) {
	_, _, err := DecodeToken("not-valid-base64!!!")
	assert.Error(t, err)
}

func TestDecodeToken_MissingSeparator(t *testing.T) {
	token := base64.StdEncoding.EncodeToString([]byte("2024-06-14T00:00:00Z"))
	_, _, err := DecodeToken(token)
	assert.Error(t, err)
}

func TestDecodeToken_UnparseableTimes(t *testing.T) {
	token := base64.StdEncoding.EncodeToString([]byte("yesterday|tomorrow"))
	_, _, err := DecodeToken(token)
	assert.Error(t, err)
}
