package collect

import (
	"encoding/json"
	"strings"

	"sto/pkg/jsonx"
)

// Значения в описании data
const (
	specBD          = "bd"
	specInput       = "input"
	specInputNumber = "input_number"
	specNumber      = "number"
)

const branchPrefix = "id="

// item один блок сбора: откуда брать данные и как их разложить
type item struct {
	source       string
	data         jsonx.Object
	hasData      bool
	rowsSelector string
	radioName    string
}

type itemSpec struct {
	Source       string          `json:"source"`
	Data         json.RawMessage `json:"data"`
	RowsSelector string          `json:"rowsSelector"`
	RadioName    string          `json:"radioName"`
}

func (s itemSpec) toItem(source string) item {
	it := item{
		source:       source,
		rowsSelector: s.RowsSelector,
		radioName:    s.RadioName,
	}
	if len(s.Data) > 0 && jsonx.IsObject(s.Data) {
		_ = json.Unmarshal(s.Data, &it.data)
		it.hasData = true
	}
	return it
}

// items список блоков: явный массив collect или все объекты верхнего уровня,
// кроме условных блоков
func items(config jsonx.Object) ([]item, error) {
	if raw, ok := config.Raw("collect"); ok && jsonx.IsArray(raw) {
		var specs []itemSpec
		if err := json.Unmarshal(raw, &specs); err != nil {
			return nil, err
		}
		out := make([]item, 0, len(specs))
		for _, s := range specs {
			out = append(out, s.toItem(s.Source))
		}
		return out, nil
	}

	var out []item
	for _, key := range config.Keys() {
		raw, _ := config.Raw(key)
		if !jsonx.IsObject(raw) {
			continue
		}
		block, _ := config.Object(key)
		if isIfBlock(block) {
			continue
		}
		var s itemSpec
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		out = append(out, s.toItem(key))
	}
	return out, nil
}

// isFormulaBlock true, если хотя бы одно значение является формулой вида ["cmd", ...]
func isFormulaBlock(spec jsonx.Object) bool {
	for _, key := range spec.Keys() {
		if _, ok := formula(spec, key); ok {
			return true
		}
	}
	return false
}

// formula разбирает значение как формулу: массив из двух и более элементов,
// первый из которых строка
func formula(spec jsonx.Object, key string) ([]any, bool) {
	raw, _ := spec.Raw(key)
	if !jsonx.IsArray(raw) {
		return nil, false
	}
	var f []any
	if err := json.Unmarshal(raw, &f); err != nil || len(f) < 2 {
		return nil, false
	}
	if _, ok := f[0].(string); !ok {
		return nil, false
	}
	return f, true
}

func hasIDBranches(obj jsonx.Object) bool {
	for _, key := range obj.Keys() {
		if strings.HasPrefix(key, branchPrefix) {
			return true
		}
	}
	return false
}

// isIfBlock блок с ветками id=... вместо описания сбора
func isIfBlock(block jsonx.Object) bool {
	if block.Has("data") || block.Has("rowsSelector") || block.Has("radioName") {
		return false
	}
	for _, key := range block.Keys() {
		sub, ok := block.Object(key)
		if !ok {
			continue
		}
		if hasIDBranches(sub) {
			return true
		}
		for _, q := range sub.Keys() {
			if nested, ok := sub.Object(q); ok && hasIDBranches(nested) {
				return true
			}
		}
	}
	return false
}
