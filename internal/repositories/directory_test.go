package repositories

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sto/domain"
)

func TestCarRow_ValidatesReferences(t *testing.T) {
	row := carRow("id-1", domain.Car{
		ClientID: " 0b0f2f4c-1c1a-4a5e-9f1e-3f6c7d8e9a0b ",
		GosNumID: "42",
		Brand:    " Toyota ",
		Color:    "",
	})
	assert.Equal(t, "id-1", row.ID)
	assert.Equal(t, "Toyota", row.Brand)
	assert.Equal(t, sql.NullString{String: "0b0f2f4c-1c1a-4a5e-9f1e-3f6c7d8e9a0b", Valid: true}, row.ClientID)
	assert.Equal(t, sql.NullString{String: "42", Valid: true}, row.GosNumID)
	assert.False(t, row.Color.Valid)

	row = carRow("id-2", domain.Car{ClientID: "12", GosNumID: "A123BC"})
	assert.False(t, row.ClientID.Valid)
	assert.False(t, row.GosNumID.Valid)
}

func TestRandomString(t *testing.T) {
	login, err := randomString("0123456789", loginDigits)
	require.NoError(t, err)
	assert.Len(t, login, 6)
	assert.True(t, domain.IsDigits(login))

	password, err := randomString(passwordChars, passwordLength)
	require.NoError(t, err)
	assert.Len(t, password, 12)
	assert.Regexp(t, `^[0-9a-zA-Z]{12}$`, password)
}

func TestNormalizeRow(t *testing.T) {
	row := normalizeRow(map[string]interface{}{
		"balance": []byte("120.50"),
		"data":    []byte(`[{"a":1}]`),
		"num":     int64(3),
		"name":    nil,
	})
	assert.Equal(t, domain.Record{
		"balance": "120.50",
		"data":    `[{"a":1}]`,
		"num":     int64(3),
		"name":    nil,
	}, row)
}
