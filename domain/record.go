package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

var ErrConvertJSONB = errors.New("cannot convert to JSONB")

// Record одна запись bd: строка таблицы, элемент JSON-массива или
// объект из формы. Тип значений заранее неизвестен.
type Record map[string]any

// Records набор записей, например JSON-массив объектов в ячейке представления
type Records []Record

func (r *Record) Scan(dst interface{}) error {
	switch src := dst.(type) {
	case string:
		return json.Unmarshal([]byte(src), r)
	case []byte:
		return json.Unmarshal(src, r)
	case nil:
		return nil
	}
	return ErrConvertJSONB
}

func (r Record) Value() (driver.Value, error) {
	j, err := json.Marshal(r)
	if err != nil {
		return `{}`, err
	}
	return string(j), nil
}

func (r *Records) Scan(dst interface{}) error {
	switch src := dst.(type) {
	case string:
		return json.Unmarshal([]byte(src), r)
	case []byte:
		return json.Unmarshal(src, r)
	case nil:
		return nil
	}
	return ErrConvertJSONB
}

func (r Records) Value() (driver.Value, error) {
	j, err := json.Marshal(r)
	if err != nil {
		return `[]`, err
	}
	return string(j), nil
}
