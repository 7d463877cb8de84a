// Package collect собирает данные формы в JSON-результат по конфигу button_json.
//
// Конфиг описывает блоки сбора: строки с полями ввода, сопоставленные с
// bd-записями (rowsSelector), выбранную радиокнопку (radioName), результаты
// функций и формулы над уже собранными блоками. Условные блоки с ветками
// id=... выбирают набор формул по выбранному способу оплаты.
package collect

import (
	"strings"

	"sto/domain"
	"sto/internal/value"
	"sto/pkg/jsonx"
)

// payMethodKey блок, по id которого выбираются ветки условных блоков
const payMethodKey = "pay_met"

// Run выполняет конфиг над снимком формы и возвращает результат
func Run(config jsonx.Object, form Form) (domain.Record, error) {
	its, err := items(config)
	if err != nil {
		return nil, err
	}

	out := domain.Record{}
	for _, it := range its {
		switch {
		case it.source != "" && it.rowsSelector != "":
			out[it.source] = collectByRows(form, it)
		case it.source != "" && it.radioName != "":
			out[it.source] = collectByRadio(form, it)
		case it.hasData:
			if isFormulaBlock(it.data) {
				out[it.source] = computeFormulas(out, it.data, it.source)
			} else {
				out[it.source] = collectByResults(form, it.data)
			}
		}
	}

	resolveIfBlocks(config, out)
	return out, nil
}

// collectByRows строка i сопоставляется с записью i, пустые строки пропускаются
func collectByRows(form Form, it item) []domain.Record {
	records := form.records(it.source)
	rows := form.Rows[it.rowsSelector]

	res := make([]domain.Record, 0, len(rows))
	for i := 0; i < len(rows) && i < len(records); i++ {
		input := strings.TrimSpace(rows[i])
		if input == "" {
			continue
		}
		rec := records[i]
		obj := domain.Record{}
		for _, key := range it.data.Keys() {
			var spec string
			if err := it.data.Decode(key, &spec); err != nil {
				continue
			}
			switch spec {
			case specBD:
				if v, ok := rec[key]; ok {
					obj[key] = v
				}
			case specInput:
				obj[key] = input
			case specInputNumber:
				obj[key] = value.ToNumber(input)
			}
		}
		res = append(res, obj)
	}
	return res
}

// collectByRadio запись, чей id совпал с отмеченной радиокнопкой
func collectByRadio(form Form, it item) domain.Record {
	id, ok := form.Radios[it.radioName]
	if !ok {
		return domain.Record{}
	}

	var rec domain.Record
	for _, r := range form.records(it.source) {
		if value.ToString(r["id"]) == id {
			rec = r
			break
		}
	}
	if rec == nil {
		return domain.Record{"id": id}
	}

	obj := domain.Record{}
	for _, key := range it.data.Keys() {
		var spec string
		if err := it.data.Decode(key, &spec); err != nil || spec != specBD {
			continue
		}
		if v, ok := rec[key]; ok {
			obj[key] = v
		}
	}
	return obj
}

// collectByResults значения элементов data-function-result; "number" разбирается как число
func collectByResults(form Form, spec jsonx.Object) domain.Record {
	obj := domain.Record{}
	for _, key := range spec.Keys() {
		text, _ := form.result(key)
		var kind string
		_ = spec.Decode(key, &kind)
		if kind == specNumber {
			obj[key] = value.ParseDecimal(text)
		} else {
			obj[key] = text
		}
	}
	return obj
}

// resolveIfBlocks применяет первый условный блок, для которого нашлась ветка
// id=<out.pay_met.id>
func resolveIfBlocks(config jsonx.Object, out domain.Record) {
	for _, blockKey := range config.Keys() {
		block, ok := config.Object(blockKey)
		if !ok || !isIfBlock(block) {
			continue
		}

		var branches jsonx.Object
		found := false
		resultKey, computeKey := blockKey, blockKey
		if pm, ok := block.Object(payMethodKey); ok && hasIDBranches(pm) {
			branches, found = pm, true
		} else if cond, ok := block.Object("if"); ok {
			if pm, ok := cond.Object(payMethodKey); ok && hasIDBranches(pm) {
				branches, found = pm, true
				computeKey = "if"
			}
		}
		if !found {
			continue
		}

		id := ""
		if src, ok := asRecord(out[payMethodKey]); ok {
			if v, ok := src["id"]; ok && v != nil {
				id = value.ToString(v)
			}
		}
		spec, ok := branches.Object(branchPrefix + id)
		if !ok || !isFormulaBlock(spec) {
			continue
		}

		computeFormulas(out, spec, computeKey)
		if resultKey != computeKey {
			out[resultKey] = out[computeKey]
			delete(out, computeKey)
		}
		return
	}
}
