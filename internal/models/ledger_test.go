package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sto/domain"
)

func TestTable_MarshalKeepsColumnOrder(t *testing.T) {
	table := Table{
		Name:    "wall",
		Columns: []string{"id", "name", "balance"},
		Rows: []domain.Record{
			{"balance": "10.00", "name": "Касса", "id": "w1"},
		},
	}

	out, err := json.Marshal(table)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"w1","name":"Касса","balance":"10.00"}]`, string(out))
}

func TestTable_MarshalEmpty(t *testing.T) {
	out, err := json.Marshal(Table{Name: "wall"})
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(out))
}
