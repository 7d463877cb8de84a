// Package savebd раскладывает JSON-результат формы по таблицам Postgres
// согласно конфигу save_bd.
//
// Конфиг это объект «таблица -> поля», порядок таблиц значим: ссылки link
// видят только uuid, созданные в таблицах выше. Поле описывается массивом:
//
//	["create","uuid"]   новый uuid, запоминается как <table>.<field> и <table>.uuid
//	["link","t.f"]      ранее созданный uuid
//	["json","a.b"]      значение из payload
//	["text","v"]        константа
//
// Режимы таблицы: cycle (строка на каждый элемент массива), row_N
// (фиксированные строки), search (UPDATE баланса по найденным строкам).
package savebd

import (
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"sto/domain"
	"sto/internal/value"
	"sto/pkg/jsonx"
)

var (
	ErrMissingConfig = errors.New("missing config parameter")
	ErrNoOrderID     = errors.New("no order id in config")
)

// Действия над полями
const (
	actionCreate = "create"
	actionLink   = "link"
	actionJSON   = "json"
	actionText   = "text"
	actionUp     = "up"

	opSum = "sum"

	cycleKey = "cycle"
)

var (
	searchPattern = regexp.MustCompile(`^search:json-(.+)$`)
	cyclePattern  = regexp.MustCompile(`^cycle:json-(.+)$`)
	rowPattern    = regexp.MustCompile(`^row_(\d+)$`)
)

// Kind вид SQL-операции в плане
type Kind int

const (
	// KindDeleteAll DELETE FROM table
	KindDeleteAll Kind = iota
	// KindInsert INSERT INTO table (Columns) VALUES (Values)
	KindInsert
	// KindAdd UPDATE table SET Columns[0] = Columns[0] + Values[0] WHERE id = Key
	KindAdd
)

// Statement одна операция плана
type Statement struct {
	Kind    Kind
	Table   string
	Columns []string
	Values  []any
	Key     any
}

// Plan упорядоченный набор операций и id созданного заказа
type Plan struct {
	Statements []Statement
	OrderID    string
}

// Interpreter строит план по конфигу и payload
type Interpreter struct {
	newID func() string
}

type Option func(*Interpreter)

// WithIDGenerator подменяет генератор uuid (для тестов)
func WithIDGenerator(gen func() string) Option {
	return func(in *Interpreter) {
		in.newID = gen
	}
}

func NewInterpreter(opts ...Option) *Interpreter {
	in := &Interpreter{
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// run состояние одного прохода по конфигу
type run struct {
	in      *Interpreter
	payload map[string]any
	refs    map[string]map[string]string
	plan    Plan
}

// Build строит план. payload должен быть результатом json.Unmarshal в map[string]any.
func (in *Interpreter) Build(config jsonx.Object, payload map[string]any, replaceAll bool) (Plan, error) {
	r := &run{
		in:      in,
		payload: payload,
		refs:    map[string]map[string]string{},
	}

	if replaceAll {
		for _, t := range domain.OrderTablesDeleteOrder {
			r.plan.Statements = append(r.plan.Statements, Statement{Kind: KindDeleteAll, Table: t})
		}
	}

	for _, table := range config.Keys() {
		fields, ok := config.Object(table)
		if !ok {
			continue
		}
		r.table(table, fields)
	}

	if r.plan.OrderID == "" {
		return Plan{}, ErrNoOrderID
	}
	return r.plan, nil
}

func (r *run) table(table string, fields jsonx.Object) {
	for _, k := range fields.Keys() {
		if m := searchPattern.FindStringSubmatch(k); m != nil {
			if spec, ok := fields.Object(k); ok {
				r.search(table, m[1], spec)
				return
			}
			break
		}
	}

	cycleItems, cycleFields, isCycle := r.cycle(fields)
	if isCycle {
		for _, item := range cycleItems {
			r.insert(table, table, cycleFields, &element{value: item})
		}
		return
	}

	if rows := rowKeys(fields); len(rows) > 0 {
		for _, rk := range rows {
			rowFields, ok := fields.Object(rk)
			if !ok {
				continue
			}
			r.insert(table, table+"_"+rk, rowFields, nil)
		}
		return
	}

	r.insert(table, table, fields, nil)
}

// cycle определяет, нужно ли вставлять строку на каждый элемент массива payload
func (r *run) cycle(fields jsonx.Object) ([]any, jsonx.Object, bool) {
	for _, k := range fields.Keys() {
		m := cyclePattern.FindStringSubmatch(k)
		if m == nil {
			continue
		}
		if items, ok := r.list(m[1]); ok {
			if spec, ok := fields.Object(k); ok {
				return items, spec, true
			}
		}
		break
	}

	if spec, ok := fields.Strings(cycleKey); ok && len(spec) >= 2 && spec[0] == actionJSON {
		if items, ok := r.list(spec[1]); ok {
			return items, fields, true
		}
	}
	return nil, jsonx.Object{}, false
}

// list элементы массива payload по ключу; одиночный объект считается массивом из одного элемента
func (r *run) list(key string) ([]any, bool) {
	switch v := r.payload[key].(type) {
	case []any:
		return v, true
	case map[string]any:
		return []any{v}, true
	}
	return nil, false
}

// element текущий элемент массива; скаляр остаётся скаляром,
// поэтому путь внутри него даёт nil, а не сумму по всему payload
type element struct {
	value any
}

func rowKeys(fields jsonx.Object) []string {
	var keys []string
	for _, k := range fields.Keys() {
		if rowPattern.MatchString(k) {
			keys = append(keys, k)
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return rowNumber(keys[i]) < rowNumber(keys[j])
	})
	return keys
}

func rowNumber(key string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(key, "row_"))
	return n
}

// insert одна строка INSERT. refKey: имя, под которым запоминать созданные uuid.
func (r *run) insert(table, refKey string, fields jsonx.Object, item *element) {
	var (
		cols []string
		vals []any
	)

	for _, field := range fields.Keys() {
		if field == cycleKey || strings.HasPrefix(field, cycleKey+":") {
			continue
		}
		action, arg, ok := fieldSpec(fields, field)
		if !ok {
			continue
		}

		switch action {
		case actionCreate:
			if arg != "uuid" {
				continue
			}
			id := r.in.newID()
			cols, vals = append(cols, field), append(vals, id)
			if r.refs[refKey] == nil {
				r.refs[refKey] = map[string]string{}
			}
			r.refs[refKey][field] = id
			r.refs[refKey]["uuid"] = id
			if table == domain.TableOrder && field == "id" {
				r.plan.OrderID = id
			}
		case actionLink:
			if ref, ok := r.ref(value.ToString(arg)); ok {
				cols, vals = append(cols, field), append(vals, ref)
			}
		case actionJSON:
			path := value.ToString(arg)
			if path == "" {
				continue
			}
			if v := columnValue(resolve(path, r.payload, item)); v != nil {
				cols, vals = append(cols, field), append(vals, v)
			}
		case actionText:
			cols, vals = append(cols, field), append(vals, columnValue(arg))
		}
	}

	if len(cols) == 0 {
		return
	}
	r.plan.Statements = append(r.plan.Statements, Statement{
		Kind:    KindInsert,
		Table:   table,
		Columns: cols,
		Values:  vals,
	})
}

// search прибавляет суммы к строкам, найденным по id элементов массива payload
func (r *run) search(table, key string, spec jsonx.Object) {
	arrKey, idField, found := strings.Cut(key, ".")
	if !found || idField == "" {
		idField = "id"
	}

	var items []map[string]any
	switch v := r.payload[arrKey].(type) {
	case []any:
		for _, el := range v {
			if rec, ok := el.(map[string]any); ok {
				items = append(items, rec)
			}
		}
	case map[string]any:
		if _, ok := v[idField]; ok {
			items = []map[string]any{v}
		}
	}

	for _, item := range items {
		rowID, ok := item[idField]
		if !ok || rowID == nil {
			continue
		}
		for _, field := range spec.Keys() {
			parts, ok := spec.Strings(field)
			if !ok || len(parts) < 2 || parts[0] != actionUp || parts[1] != opSum {
				continue
			}
			path := ""
			if len(parts) > 2 {
				path = strings.TrimPrefix(parts[2], actionJSON+".")
			}
			if path == "" {
				continue
			}

			var scope *element
			if first, _, _ := strings.Cut(path, "."); first == arrKey {
				scope = &element{value: item}
			}
			r.plan.Statements = append(r.plan.Statements, Statement{
				Kind:    KindAdd,
				Table:   table,
				Columns: []string{field},
				Values:  []any{value.ToNumber(resolve(path, r.payload, scope))},
				Key:     rowID,
			})
		}
	}
}

// ref ищет ранее созданный uuid по ссылке "table.field"
func (r *run) ref(ref string) (string, bool) {
	table, field, ok := strings.Cut(ref, ".")
	if !ok || table == "" || field == "" {
		return "", false
	}
	id, ok := r.refs[table][field]
	return id, ok
}

// fieldSpec разбирает ["action", arg]
func fieldSpec(fields jsonx.Object, field string) (string, any, bool) {
	raw, _ := fields.Raw(field)
	if !jsonx.IsArray(raw) {
		return "", nil, false
	}
	var spec []any
	if err := json.Unmarshal(raw, &spec); err != nil || len(spec) == 0 {
		return "", nil, false
	}
	action, ok := spec[0].(string)
	if !ok {
		return "", nil, false
	}
	var arg any = ""
	if len(spec) > 1 && spec[1] != nil {
		arg = spec[1]
	}
	return action, arg, true
}

// resolve значение по пути "a.b.c". Внутри цикла путь "arr.field" берётся
// из текущего элемента. Если путь проходит через массив, оставшаяся часть
// суммируется по его элементам.
func resolve(path string, payload map[string]any, item *element) any {
	parts := strings.Split(path, ".")
	if item != nil && len(parts) >= 2 {
		return walk(item.value, parts[1:])
	}
	return walk(payload, parts)
}

func walk(v any, parts []string) any {
	if len(parts) == 0 {
		return v
	}
	switch x := v.(type) {
	case map[string]any:
		next, ok := x[parts[0]]
		if !ok {
			return nil
		}
		return walk(next, parts[1:])
	case []any:
		var sum float64
		for _, el := range x {
			sum += value.ToNumber(walk(el, parts))
		}
		return sum
	}
	return nil
}

// columnValue объекты и массивы пишутся в колонку как JSON
func columnValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return domain.Record(x)
	case []any:
		recs := make(domain.Records, 0, len(x))
		for _, el := range x {
			if rec, ok := el.(map[string]any); ok {
				recs = append(recs, rec)
			}
		}
		if len(recs) == len(x) {
			return recs
		}
		b, err := json.Marshal(x)
		if err != nil {
			return nil
		}
		return string(b)
	}
	return v
}
