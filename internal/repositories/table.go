package repositories

import (
	"context"
	"errors"
	"regexp"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"sto/domain"
	"sto/internal/models"
)

var ErrInvalidTable = errors.New("invalid table")

var tablePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// TableRepository чтение произвольных таблиц и представлений для админки и fetch_table
type TableRepository struct {
	db *sqlx.DB
}

func NewTableRepository(db *sqlx.DB) *TableRepository {
	return &TableRepository{db: db}
}

// Fetch все строки таблицы, отсортированные по первой колонке
func (t *TableRepository) Fetch(ctx context.Context, table string) (models.Table, error) {
	if !tablePattern.MatchString(table) {
		return models.Table{}, ErrInvalidTable
	}

	rows, err := t.db.QueryxContext(ctx, "SELECT * FROM "+pq.QuoteIdentifier(table)+" ORDER BY 1")
	if err != nil {
		return models.Table{}, err
	}
	defer func() {
		_ = rows.Close()
	}()

	columns, err := rows.Columns()
	if err != nil {
		return models.Table{}, err
	}

	result := models.Table{Name: table, Columns: columns, Rows: []domain.Record{}}
	for rows.Next() {
		row := map[string]interface{}{}
		if err = rows.MapScan(row); err != nil {
			return models.Table{}, err
		}
		result.Rows = append(result.Rows, normalizeRow(row))
	}
	return result, rows.Err()
}

// ListViews представления схемы public
func (t *TableRepository) ListViews(ctx context.Context) ([]string, error) {
	var views []string
	const query = `SELECT table_name FROM information_schema.views WHERE table_schema = 'public' ORDER BY table_name`
	if err := t.db.SelectContext(ctx, &views, query); err != nil {
		return nil, err
	}
	return views, nil
}

// normalizeRow numeric, jsonb и text драйвер отдаёт байтами, наружу они идут строками
func normalizeRow(row map[string]interface{}) domain.Record {
	out := make(domain.Record, len(row))
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			out[k] = string(b)
			continue
		}
		out[k] = v
	}
	return out
}
