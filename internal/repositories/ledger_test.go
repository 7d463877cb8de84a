package repositories

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"sto/internal/savebd"
)

func TestStatementSQL(t *testing.T) {
	tests := []struct {
		name      string
		statement savebd.Statement
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "delete all",
			statement: savebd.Statement{Kind: savebd.KindDeleteAll, Table: "order"},
			wantQuery: `DELETE FROM "order"`,
		},
		{
			name: "insert",
			statement: savebd.Statement{
				Kind:    savebd.KindInsert,
				Table:   "fin_op",
				Columns: []string{"id", "money"},
				Values:  []any{"u1", 100.0},
			},
			wantQuery: `INSERT INTO "fin_op" ("id", "money") VALUES ($1, $2)`,
			wantArgs:  []any{"u1", 100.0},
		},
		{
			name: "add to balance",
			statement: savebd.Statement{
				Kind:    savebd.KindAdd,
				Table:   "wall",
				Columns: []string{"balance"},
				Values:  []any{250.0},
				Key:     "w1",
			},
			wantQuery: `UPDATE "wall" SET "balance" = "balance" + $1 WHERE id = $2`,
			wantArgs:  []any{250.0, "w1"},
		},
		{
			name: "quotes hostile identifiers",
			statement: savebd.Statement{
				Kind:    savebd.KindInsert,
				Table:   `x"; drop table wall; --`,
				Columns: []string{"a"},
				Values:  []any{1.0},
			},
			wantQuery: `INSERT INTO "x""; drop table wall; --" ("a") VALUES ($1)`,
			wantArgs:  []any{1.0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := statementSQL(tt.statement)
			assert.Equal(t, tt.wantQuery, query)
			if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
