package models

import (
	"encoding/json"

	"sto/domain"
	"sto/pkg/jsonx"
)

// Balance сумма операций fin_op по одному кошельку
type Balance struct {
	Wallet string  `db:"id_wallet"`
	Sum    float64 `db:"s"`
}

// Table строки таблицы или представления с колонками в порядке выборки
type Table struct {
	Name    string
	Columns []string
	Rows    []domain.Record
}

// Ordered строки как JSON-объекты с колонками в порядке таблицы;
// map при сериализации сортирует ключи
func (t Table) Ordered() ([]jsonx.Object, error) {
	out := make([]jsonx.Object, 0, len(t.Rows))
	for _, row := range t.Rows {
		pairs := make([]any, 0, len(t.Columns)*2)
		for _, col := range t.Columns {
			pairs = append(pairs, col, row[col])
		}
		obj, err := jsonx.NewObject(pairs...)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// MarshalJSON отдаёт строки массивом, как их ждёт fetch_table
func (t Table) MarshalJSON() ([]byte, error) {
	rows, err := t.Ordered()
	if err != nil {
		return nil, err
	}
	return json.Marshal(rows)
}
