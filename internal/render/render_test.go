package render

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sto/domain"
	"sto/pkg/jsonx"
)

func mustTemplate(t *testing.T, s string) jsonx.Object {
	t.Helper()
	var tpl jsonx.Object
	require.NoError(t, json.Unmarshal([]byte(s), &tpl))
	return tpl
}

func TestRender_CycleWithLinkedSource(t *testing.T) {
	tpl := mustTemplate(t, `{
		"cycle": {
			"div_fp04-field col:2,1,1": {
				"label": ["text", "api2:name"],
				"sum": ["text", "api1:money"],
				"pay": ["text", "api1:pay_met", "if:pay_met"],
				"hidden*": ["text", "api1:money"]
			}
		}
	}`)
	sources := map[string]*Source{
		"api1": {Data: []domain.Record{
			{"money": 1500.0, "id_wallet": "w1", "pay_met": "1"},
			{"money": 0.0, "id_wallet": "w9", "pay_met": "2"},
		}},
		"api2": {Link: "link:api1.id_wallet", Data: []domain.Record{
			{"id": "w1", "name": "Касса"},
		}},
	}
	r := New(Options{Labels: Labels{"pay_met": {"1": "text:Наличные", "2": []any{"text:Карта"}}}})

	out, err := r.RenderString(tpl, sources)
	require.NoError(t, err)

	assert.Equal(t,
		`<div class="fp04-field _col-2">`+
			`<label class="content-label">Касса</label>`+
			`<span class="content-sum">1500</span>`+
			`<span class="content-pay">Наличные</span>`+
			`</div>`+
			`<div class="fp04-field _col-2">`+
			`<span class="content-pay">Карта</span>`+
			`</div>`,
		out)
}

func TestRender_NoMainSource(t *testing.T) {
	r := New(Options{})
	assert.Nil(t, r.Render(mustTemplate(t, `{"a":["text","text:x"]}`), nil))
	assert.Nil(t, r.Render(mustTemplate(t, `{"a":["text","text:x"]}`), map[string]*Source{"api1": {}}))
}

func TestRender_TopLevelDivWithoutCycle(t *testing.T) {
	tests := []struct {
		name string
		tpl  string
		want string
	}{
		{
			name: "first div is the element",
			tpl:  `{"title": ["text", "text:Заказ"], "div_1-col:50%": {"go": ["button", "text:OK"]}, "div_2": {"x": ["text", "text:y"]}}`,
			want: `<div class="content-1-col _col-50pct"><button type="button" class="go button">OK</button></div>`,
		},
		{
			name: "column classes from the key",
			tpl:  `{"div_fp04-field col:2,1,1": {"name": ["text", "api1:name"]}}`,
			want: `<div class="fp04-field _col-2"><span class="content-name">A</span></div>`,
		},
		{
			name: "whole template when there is no div",
			tpl:  `{"name": ["text", "api1:name"], "logo": ["img", "api1:logo"]}`,
			want: `<div class="field-paymet"><span class="content-name">A</span><img src="../img/l.png" alt=""/></div>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Options{})
			out, err := r.RenderString(mustTemplate(t, tt.tpl), map[string]*Source{
				"api1": {Data: []domain.Record{{"name": "A", "logo": "/l.png"}}},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRender_Inputs(t *testing.T) {
	tpl := mustTemplate(t, `{
		"field": ["input", "number:Сумма"],
		"name": ["input", "required", "text:Имя"],
		"phone": ["input", "required_one:contact", "tel"],
		"pm": ["input", "radio", "api1:id", "name:pay"],
		"note": ["input", "required_one:contact", "tel:Телефон"]
	}`)
	r := New(Options{SumVar: "total"})

	out, err := r.RenderString(tpl, map[string]*Source{"api1": {Data: []domain.Record{{"id": 7.0, "comment": "звонить"}}}})
	require.NoError(t, err)
	assert.Equal(t,
		`<div class="field-paymet">`+
			`<input type="text" class="field input" inputmode="decimal" placeholder="Сумма" data-function-sum="total"/>`+
			`<input type="text" class="name input" placeholder="Имя" required=""/>`+
			`<input type="text" class="phone input" data-required-one="contact"/>`+
			`<input type="radio" class="pm input" value="7" name="pay"/>`+
			`<input type="tel" class="note input" placeholder="Телефон" data-required-one="contact"/>`+
			`</div>`,
		out)
}

func TestRender_ImagePaths(t *testing.T) {
	r := New(Options{SitePrefix: "/pavel_sto"})

	assert.Equal(t, "../img/a.png", r.imagePath("/pavel_sto/img/a.png"))
	assert.Equal(t, "../img/b.png", r.imagePath("/img/b.png"))
	assert.Equal(t, "../img/c.png", r.imagePath("/c.png"))
	assert.Equal(t, "../uploads/d.png", r.imagePath("uploads/d.png"))
}

func TestParseCol(t *testing.T) {
	clean, col := parseCol("div_fp04 col:3,2,1")
	assert.Equal(t, "div_fp04", clean)
	require.NotNil(t, col)
	assert.Equal(t, colInfo{desktop: 3, tablet: 2, mobile: 1}, *col)

	clean, col = parseCol("div_2-col:80%")
	assert.Equal(t, "div_2-col", clean)
	require.NotNil(t, col)
	assert.Equal(t, "_col-80pct", col.class())

	clean, col = parseCol("div_plain")
	assert.Equal(t, "div_plain", clean)
	assert.Nil(t, col)
}

func TestParseTemplate_Entities(t *testing.T) {
	tpl, err := ParseTemplate(`{&quot;a&quot;:[&quot;text&quot;,&quot;text:x&quot;]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, tpl.Keys())
}
