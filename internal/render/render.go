// Package render строит разметку по JSON-шаблону и bd-данным:
// карточки заказов, поля ввода, кнопки и картинки.
package render

import (
	"bytes"
	"encoding/json"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"sto/domain"
	"sto/internal/value"
	"sto/pkg/jsonx"
)

const (
	// MainSource источник, по записям которого строятся элементы
	MainSource   = "api1"
	defaultClass = "field-paymet"
)

// Source bd-источник данных. Link вида "link:api1.id_wallet" связывает
// запись основного источника с записью этого по полю id.
type Source struct {
	Link string          `json:"link,omitempty"`
	Data []domain.Record `json:"data"`
}

// Labels словари подписей для значений: {"pay_met": {"1": "Наличные"}}
type Labels map[string]map[string]any

type Options struct {
	Labels Labels
	// SumVar выставляет data-function-sum у полей "field"
	SumVar string
	// SitePrefix корень сайта в абсолютных путях картинок
	SitePrefix string
}

type Renderer struct {
	opts Options
}

func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// ParseTemplate разбирает шаблон из атрибута data-template,
// где кавычки могут быть закодированы как &quot;
func ParseTemplate(s string) (jsonx.Object, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "&quot;") || strings.Contains(s, "&#") {
		s = html.UnescapeString(s)
	}
	var tpl jsonx.Object
	if err := json.Unmarshal([]byte(s), &tpl); err != nil {
		return jsonx.Object{}, err
	}
	return tpl, nil
}

// Render по элементу на каждую запись основного источника
func (r *Renderer) Render(tpl jsonx.Object, sources map[string]*Source) []*html.Node {
	main, ok := sources[MainSource]
	if !ok || main == nil || main.Data == nil {
		return nil
	}

	// шаблон элемента: первый div_* внутри cycle, иначе первый div_* верхнего уровня
	scope := tpl
	if cycle, ok := findCycle(tpl); ok {
		scope = cycle
	}
	elementTpl, elementKey := tpl, ""
	if sub, key, ok := firstDiv(scope); ok {
		elementTpl, elementKey = sub, key
	}

	nodes := make([]*html.Node, 0, len(main.Data))
	for _, record := range main.Data {
		nodes = append(nodes, r.element(elementTpl, record, sources, elementKey))
	}
	return nodes
}

// RenderString то же, что Render, но готовой строкой
func (r *Renderer) RenderString(tpl jsonx.Object, sources map[string]*Source) (string, error) {
	var buf bytes.Buffer
	for _, n := range r.Render(tpl, sources) {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func firstDiv(o jsonx.Object) (jsonx.Object, string, bool) {
	for _, key := range o.Keys() {
		if !strings.HasPrefix(key, "div_") {
			continue
		}
		if sub, ok := o.Object(key); ok {
			return sub, key, true
		}
	}
	return jsonx.Object{}, "", false
}

// findCycle ищет блок "cycle" на любой глубине
func findCycle(o jsonx.Object) (jsonx.Object, bool) {
	if c, ok := o.Object("cycle"); ok {
		return c, true
	}
	for _, key := range o.Keys() {
		sub, ok := o.Object(key)
		if !ok {
			continue
		}
		if c, ok := findCycle(sub); ok {
			return c, true
		}
	}
	return jsonx.Object{}, false
}

func (r *Renderer) element(tpl jsonx.Object, record domain.Record, sources map[string]*Source, key string) *html.Node {
	class := defaultClass
	if key != "" {
		clean, col := parseCol(key)
		class = elementClass(clean)
		if col != nil {
			class = strings.TrimSpace(class + " " + col.class())
		}
	}
	div := newElement(atom.Div, attr("class", class))

	for _, k := range tpl.Keys() {
		if strings.Contains(k, "*") {
			continue
		}
		raw, _ := tpl.Raw(k)
		switch {
		case jsonx.IsObject(raw):
			sub, _ := tpl.Object(k)
			clean, _ := parseCol(k)
			div.AppendChild(r.element(sub, record, sources, clean))
		case jsonx.IsArray(raw):
			var entry []any
			if err := json.Unmarshal(raw, &entry); err != nil || len(entry) < 2 {
				continue
			}
			if n := r.field(k, entry, record, sources); n != nil {
				div.AppendChild(n)
			}
		}
	}
	return div
}

// field элемент по описанию ["тип", "источник:поле", ...]
func (r *Renderer) field(key string, entry []any, record domain.Record, sources map[string]*Source) *html.Node {
	kind, _ := entry[0].(string)
	content := entry[1]
	fieldValue := resolveValue(content, record, sources)

	if len(entry) >= 3 {
		if cond, ok := entry[2].(string); ok && strings.HasPrefix(cond, "if:") {
			fieldValue = r.label(strings.TrimPrefix(cond, "if:"), fieldValue, record, sources)
		}
	}

	switch kind {
	case "text":
		text := strings.TrimSpace(value.ToString(fieldValue))
		if !value.Truthy(fieldValue) || text == "" {
			return nil
		}
		tag := atom.Span
		if key == "label" {
			tag = atom.Label
		}
		n := newElement(tag, attr("class", "content-"+key))
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
		return n
	case "input":
		return r.input(key, entry, fieldValue, record, sources)
	case "img":
		src := strings.TrimSpace(value.ToString(fieldValue))
		if !value.Truthy(fieldValue) || src == "" {
			return nil
		}
		return newElement(atom.Img, attr("src", r.imagePath(src)), attr("alt", ""))
	case "button":
		n := newElement(atom.Button, attr("type", "button"), attr("class", key+" button"))
		if fieldValue != nil {
			n.AppendChild(&html.Node{Type: html.TextNode, Data: strings.TrimSpace(value.ToString(fieldValue))})
		}
		return n
	}
	return nil
}

// input ["input", "required"|"required_one:группа"?, подтип, значение?, "name:..."?]
func (r *Renderer) input(key string, entry []any, fieldValue any, record domain.Record, sources map[string]*Source) *html.Node {
	idx := 1
	required := false
	group := ""
	if marker, ok := entry[1].(string); ok {
		switch {
		case marker == "required":
			required = true
			idx = 2
		case strings.HasPrefix(marker, "required_one:"):
			group = strings.TrimPrefix(marker, "required_one:")
			idx = 2
		}
	}
	if idx == 2 {
		// маркер обязательности не является значением поля
		fieldValue = nil
	}

	var subtype any = "text"
	if len(entry) > idx {
		subtype = entry[idx]
	}

	n := newElement(atom.Input)
	if s, _ := subtype.(string); s == "radio" || s == "checkbox" {
		n.Attr = append(n.Attr, attr("type", s), attr("class", key+" input"))

		radioValue := fieldValue
		if len(entry) >= idx+2 {
			radioValue = resolveValue(entry[idx+1], record, sources)
		}
		n.Attr = append(n.Attr, attr("value", value.ToString(radioValue)))
		if len(entry) >= idx+3 {
			if name, ok := entry[idx+2].(string); ok && strings.HasPrefix(name, "name:") {
				n.Attr = append(n.Attr, attr("name", strings.TrimPrefix(name, "name:")))
			}
		}
	} else {
		inputType := "text"
		placeholder := ""
		if value.Truthy(fieldValue) {
			placeholder = strings.TrimSpace(value.ToString(fieldValue))
		}
		// "тип:подсказка", например "number:Введите сумму"
		if s, ok := subtype.(string); ok {
			if t, p, found := strings.Cut(s, ":"); found {
				inputType, placeholder = strings.TrimSpace(t), strings.TrimSpace(p)
			}
		}

		inputMode := ""
		if inputType == "number" {
			inputType, inputMode = "text", "decimal"
		}
		n.Attr = append(n.Attr, attr("type", inputType), attr("class", key+" input"))
		if inputMode != "" {
			n.Attr = append(n.Attr, attr("inputmode", inputMode))
		}
		if placeholder != "" {
			n.Attr = append(n.Attr, attr("placeholder", placeholder))
		}
		if r.opts.SumVar != "" && key == "field" {
			n.Attr = append(n.Attr, attr("data-function-sum", r.opts.SumVar))
		}
	}

	if required {
		n.Attr = append(n.Attr, attr("required", ""))
	}
	if group != "" {
		n.Attr = append(n.Attr, attr("data-required-one", group))
	}
	return n
}

// label подпись из словаря; "text:..." берётся как есть,
// иначе это ссылка на поле источника
func (r *Renderer) label(dict string, fieldValue any, record domain.Record, sources map[string]*Source) any {
	labels, ok := r.opts.Labels[dict]
	if !ok || fieldValue == nil || fieldValue == "" {
		return fieldValue
	}
	l := labels[strings.TrimSpace(value.ToString(fieldValue))]
	if list, ok := l.([]any); ok && len(list) > 0 && value.Truthy(list[0]) {
		l = list[0]
	}
	s, ok := l.(string)
	if !ok {
		return fieldValue
	}
	if text, found := strings.CutPrefix(s, "text:"); found {
		return text
	}
	return resolveValue(s, record, sources)
}

// resolveValue "text:литерал", "api1:поле" или "источник:поле" через link
func resolveValue(content any, record domain.Record, sources map[string]*Source) any {
	s, ok := content.(string)
	if !ok || !strings.Contains(s, ":") {
		return content
	}
	parts := strings.Split(s, ":")
	source, field := parts[0], parts[1]

	switch source {
	case "text":
		return field
	case MainSource:
		return orEmpty(record[field])
	}

	src, ok := sources[source]
	if !ok || src == nil || src.Data == nil {
		return ""
	}
	if src.Link == "" {
		if len(src.Data) == 0 {
			return ""
		}
		return orEmpty(src.Data[0][field])
	}

	linkParts := strings.Split(src.Link, ":")
	if len(linkParts) < 2 {
		return ""
	}
	_, linkField, found := strings.Cut(linkParts[1], ".")
	if !found {
		return ""
	}
	linkValue := record[linkField]
	if !value.Truthy(linkValue) {
		return ""
	}
	for _, rec := range src.Data {
		if value.Equal(rec["id"], linkValue) {
			return orEmpty(rec[field])
		}
	}
	return ""
}

func (r *Renderer) imagePath(src string) string {
	switch {
	case strings.HasPrefix(src, "/"):
		if r.opts.SitePrefix != "" && strings.Contains(src, r.opts.SitePrefix) {
			return strings.Replace(src, r.opts.SitePrefix, "..", 1)
		}
		if strings.HasPrefix(src, "/img") {
			return ".." + src
		}
		return "../img/" + strings.TrimLeft(src, "/")
	}
	return "../" + src
}

func orEmpty(v any) any {
	if !value.Truthy(v) {
		return ""
	}
	return v
}

func newElement(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}
