package server

import (
	"bytes"
	"encoding/json"
	"html/template"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"sto/domain"
	"sto/internal/models"
	"sto/internal/value"
	"sto/pkg/jsonx"
)

// Вкладки админки
const (
	modeOrders = "orders"
	modeUsers  = "users"
	modeViews  = "views"
)

// hiddenColumns служебные колонки, которые в админке не показываем
var hiddenColumns = map[string]bool{"created_at": true, "updated_at": true}

// leadingColumns колонки, которые выводятся первыми
var leadingColumns = map[string][]string{
	domain.TableFinOp: {"num", "id", "sub_order_id"},
	domain.TableCar:   {"id", "id_client", "id_gos_num", "brand", "color"},
}

// directoryForms формы добавления и удаления на вкладке «Юзеры»
var directoryForms = map[string]directoryForm{
	domain.TableCoWorker: {AddLabel: "Добавить сотрудника", DeleteLabel: "Удалить сотрудника", Confirm: "Удалить выбранных сотрудников?"},
	domain.TableClients:  {AddLabel: "Добавить клиента", DeleteLabel: "Удалить клиента", Confirm: "Удалить выбранных клиентов?"},
	domain.TableCar:      {AddLabel: "Добавить авто", DeleteLabel: "Удалить авто", Confirm: "Удалить выбранные авто?"},
	domain.TableGosNum:   {AddLabel: "Добавить гос номер", DeleteLabel: "Удалить гос номер", Confirm: "Удалить выбранные гос номера?"},
}

type directoryForm struct {
	AddLabel    string
	DeleteLabel string
	Confirm     string
}

type tableView struct {
	Name    string
	Count   int
	Word    string
	Static  bool
	View    bool
	Columns []string
	Rows    [][]template.HTML
	// Form заполнена для справочников на вкладке «Юзеры»
	Form     *directoryForm
	AddError string
}

type pageView struct {
	Mode   string
	Tables []tableView
}

func normalizeMode(mode string) string {
	switch mode {
	case modeUsers, modeViews:
		return mode
	}
	// "tables" старое имя вкладки заказов
	return modeOrders
}

// pluralRecords подпись к числу строк: 1 запись, 2-4 записи, иначе записей
func pluralRecords(n int) string {
	switch {
	case n == 1:
		return "запись"
	case n >= 2 && n <= 4:
		return "записи"
	}
	return "записей"
}

// displayColumns колонки таблицы в порядке вывода
func displayColumns(table string, columns []string) []string {
	present := make(map[string]bool, len(columns))
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		if hiddenColumns[c] {
			continue
		}
		present[c] = true
		cols = append(cols, c)
	}

	first, ok := leadingColumns[table]
	if !ok {
		first = []string{"num"}
	}

	out := make([]string, 0, len(cols))
	used := make(map[string]bool, len(first))
	for _, c := range first {
		if present[c] {
			out = append(out, c)
			used[c] = true
		}
	}
	for _, c := range cols {
		if !used[c] {
			out = append(out, c)
		}
	}
	return out
}

// newTableView строки таблицы для шаблона; checkbox добавляет колонку выбора на удаление
func newTableView(t models.Table, mode string) tableView {
	v := tableView{
		Name:   t.Name,
		Count:  len(t.Rows),
		Word:   pluralRecords(len(t.Rows)),
		Static: domain.StaticTables[t.Name],
		View:   mode == modeViews,
	}

	if v.View {
		v.Columns = t.Columns
		for _, row := range t.Rows {
			cells := make([]template.HTML, 0, len(t.Columns))
			for _, c := range t.Columns {
				cells = append(cells, viewCell(row[c]))
			}
			v.Rows = append(v.Rows, cells)
		}
		return v
	}

	cols := displayColumns(t.Name, t.Columns)
	v.Columns = cols
	form, withForm := directoryForms[t.Name]
	if withForm && mode == modeUsers {
		v.Form = &form
		v.Columns = append([]string{"Удалить"}, cols...)
	}

	for _, row := range t.Rows {
		cells := make([]template.HTML, 0, len(v.Columns))
		if v.Form != nil {
			cells = append(cells, checkbox("delete_"+t.Name+"_ids[]", cellText(row["id"])))
		}
		for _, c := range cols {
			cells = append(cells, template.HTML(html.EscapeString(cellText(row[c]))))
		}
		v.Rows = append(v.Rows, cells)
	}
	return v
}

func cellText(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.Format("2006-01-02 15:04:05")
	}
	return value.ToString(v)
}

func checkbox(name, id string) template.HTML {
	return renderNode(&html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Input,
		Data:     "input",
		Attr: []html.Attribute{
			{Key: "type", Val: "checkbox"},
			{Key: "name", Val: name},
			{Key: "value", Val: id},
		},
	})
}

// viewCell ячейка представления: JSON-массив объектов выводится вложенной таблицей
// с колонками первого элемента, остальное текстом
func viewCell(v any) template.HTML {
	s, isString := v.(string)
	if v == nil || (isString && s == "") {
		return ""
	}
	if !isString {
		return template.HTML(html.EscapeString(cellText(v)))
	}

	var items []jsonx.Object
	if err := json.Unmarshal([]byte(s), &items); err != nil || len(items) == 0 {
		return template.HTML(html.EscapeString(s))
	}

	columns := items[0].Keys()
	table := element(atom.Table, html.Attribute{Key: "class", Val: "nested-tbl"})
	head := element(atom.Thead)
	headRow := element(atom.Tr)
	for _, c := range columns {
		headRow.AppendChild(textElement(atom.Th, c))
	}
	head.AppendChild(headRow)
	table.AppendChild(head)

	body := element(atom.Tbody)
	for _, item := range items {
		tr := element(atom.Tr)
		for _, c := range columns {
			var cell any
			if raw, ok := item.Raw(c); ok {
				_ = json.Unmarshal(raw, &cell)
			}
			tr.AppendChild(textElement(atom.Td, value.ToString(cell)))
		}
		body.AppendChild(tr)
	}
	table.AppendChild(body)
	return renderNode(table)
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func textElement(a atom.Atom, text string) *html.Node {
	n := element(a)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

func renderNode(n *html.Node) template.HTML {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return template.HTML(buf.String())
}

// formIDs значения повторяющегося поля формы, например delete_co_wor_ids[]
func formIDs(values [][]byte) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(string(v)))
	}
	return out
}
