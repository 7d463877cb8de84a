package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sto/domain"
	"sto/internal/configs"
	"sto/internal/models"
	"sto/internal/repositories"
	"sto/internal/savebd"
	"sto/pkg/jsonx"
)

type fakeSaver struct {
	requests []domain.SaveRequest
	err      error
}

func (f *fakeSaver) Save(_ context.Context, req domain.SaveRequest) (domain.SaveResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return domain.SaveResult{}, f.err
	}
	return domain.SaveResult{OrderID: "order-1"}, nil
}

type fakeFiles struct {
	button []any
	forms  []map[string]any
	tmp    map[string][]byte
	err    error
}

func (f *fakeFiles) SaveButtonJSON(data any) (string, error) {
	f.button = append(f.button, data)
	return "shino_test.json", f.err
}

func (f *fakeFiles) ReadTmp(name string) ([]byte, error) {
	data, ok := f.tmp[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (f *fakeFiles) SaveFormJSON(data map[string]any) (string, error) {
	f.forms = append(f.forms, data)
	return "form_test_db_paths.json", f.err
}

type fakeConfigs map[string]string

func (f fakeConfigs) ButtonConfig(name string) (jsonx.Object, error) {
	s, ok := f[name]
	if !ok {
		return jsonx.Object{}, configs.ErrNotFound
	}
	var o jsonx.Object
	err := json.Unmarshal([]byte(s), &o)
	return o, err
}

type fakeTables struct {
	tables map[string]models.Table
	views  []string
}

func (f *fakeTables) Fetch(_ context.Context, table string) (models.Table, error) {
	if table == "" || strings.ContainsAny(table, `"; `) {
		return models.Table{}, repositories.ErrInvalidTable
	}
	t, ok := f.tables[table]
	if !ok {
		return models.Table{}, errors.New(`relation "` + table + `" does not exist`)
	}
	return t, nil
}

func (f *fakeTables) ListViews(context.Context) ([]string, error) {
	return f.views, nil
}

type fakeLedger struct {
	calls []string
}

func (f *fakeLedger) DeleteOrders(context.Context) error {
	f.calls = append(f.calls, "delete")
	return nil
}

func (f *fakeLedger) ResetBalance(context.Context) error {
	f.calls = append(f.calls, "reset")
	return nil
}

func (f *fakeLedger) RecomputeBalance(context.Context) error {
	f.calls = append(f.calls, "recompute")
	return nil
}

type fakeDirectory struct {
	coWorkers []domain.CoWorker
	deleted   map[string][]string
	addErr    error
}

func (f *fakeDirectory) AddCoWorker(_ context.Context, in domain.CoWorker) error {
	f.coWorkers = append(f.coWorkers, in)
	return f.addErr
}

func (f *fakeDirectory) AddClient(context.Context, domain.Client) error { return f.addErr }
func (f *fakeDirectory) AddCar(context.Context, domain.Car) error       { return f.addErr }
func (f *fakeDirectory) AddGosNum(context.Context, string) error        { return f.addErr }

func (f *fakeDirectory) DeleteCoWorkers(_ context.Context, ids []string) (int64, error) {
	return f.record(domain.TableCoWorker, ids)
}

func (f *fakeDirectory) DeleteClients(_ context.Context, ids []string) (int64, error) {
	return f.record(domain.TableClients, ids)
}

func (f *fakeDirectory) DeleteCars(_ context.Context, ids []string) (int64, error) {
	return f.record(domain.TableCar, ids)
}

func (f *fakeDirectory) DeleteGosNums(_ context.Context, ids []string) (int64, error) {
	return f.record(domain.TableGosNum, ids)
}

func (f *fakeDirectory) record(table string, ids []string) (int64, error) {
	if f.deleted == nil {
		f.deleted = map[string][]string{}
	}
	f.deleted[table] = ids
	return int64(len(ids)), nil
}

type fakePublisher struct {
	subject string
	data    []byte
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return nil
}

type fixture struct {
	app       *fiber.App
	saver     *fakeSaver
	files     *fakeFiles
	tables    *fakeTables
	ledger    *fakeLedger
	directory *fakeDirectory
	publisher *fakePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		saver: &fakeSaver{},
		files: &fakeFiles{},
		tables: &fakeTables{tables: map[string]models.Table{
			"wall": {
				Name:    "wall",
				Columns: []string{"id", "name", "balance"},
				Rows:    []domain.Record{{"id": "w1", "name": "Касса", "balance": "100.00"}},
			},
			"fin_op": {
				Name:    "fin_op",
				Columns: []string{"id", "money", "created_at", "sub_order_id", "num"},
				Rows:    []domain.Record{{"id": "f1", "money": "5.00", "sub_order_id": "s1", "num": int64(1)}},
			},
			"co_wor": {
				Name:    "co_wor",
				Columns: []string{"id", "first_name"},
				Rows:    []domain.Record{{"id": "0b0f2f4c-1c1a-4a5e-9f1e-3f6c7d8e9a0b", "first_name": "<Иван>"}},
			},
		}},
		ledger:    &fakeLedger{},
		directory: &fakeDirectory{},
		publisher: &fakePublisher{},
	}

	logger := zap.NewNop()
	f.app = fiber.New(fiber.Config{
		Views:        html.New("../../templates", ".html"),
		ErrorHandler: ErrorHandler(logger),
	})
	NewHandler(Deps{
		Saver:      f.saver,
		Files:      f.files,
		Configs:    fakeConfigs{"shino": `{"total": {"data": {"total_price": "number"}}}`},
		Tables:     f.tables,
		Ledger:     f.ledger,
		Directory:  f.directory,
		Publisher:  f.publisher,
		SitePrefix: "/pavel_sto",
	}, logger).MountRoutes(f.app)
	return f
}

func (f *fixture) do(t *testing.T, req *http.Request) (int, string) {
	t.Helper()
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/view_table", strings.NewReader(values.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return req
}

func TestSaveBD(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, jsonRequest(http.MethodPost, "/api/v1/save_bd?config=shino", `{"total":{"total_price":10},"replace_all":true}`))
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"ok":true,"id":"order-1"}`, body)

	require.Len(t, f.saver.requests, 1)
	assert.Equal(t, "shino", f.saver.requests[0].Config)
	assert.Equal(t, true, f.saver.requests[0].Data["replace_all"])
}

func TestSaveBD_Errors(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		body     string
		saveErr  error
		wantCode int
		wantBody string
	}{
		{"missing config", "/api/v1/save_bd", `{}`, nil, 400, `{"ok":false,"error":"Missing config parameter"}`},
		{"invalid json", "/api/v1/save_bd?config=shino", `{`, nil, 400, `{"ok":false,"error":"Invalid JSON"}`},
		{"no order id", "/api/v1/save_bd?config=shino", `{}`, savebd.ErrNoOrderID, 500, `{"ok":false,"error":"No order id in config"}`},
		{"db failure", "/api/v1/save_bd?config=shino", `{}`, errors.New("DB: connection refused"), 500, `{"ok":false,"error":"DB: connection refused"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.saver.err = tt.saveErr

			code, body := f.do(t, jsonRequest(http.MethodPost, tt.target, tt.body))
			assert.Equal(t, tt.wantCode, code)
			assert.JSONEq(t, tt.wantBody, body)
		})
	}
}

func TestPublish(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, jsonRequest(http.MethodPost, "/api/v1/publish?config=shino", `{"a":1}`))
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"ok":true}`, body)

	assert.Equal(t, domain.SaveSubject, f.publisher.subject)
	var req domain.SaveRequest
	require.NoError(t, json.Unmarshal(f.publisher.data, &req))
	assert.Equal(t, "shino", req.Config)
	assert.Equal(t, domain.Record{"a": 1.0}, req.Data)
	assert.Empty(t, f.saver.requests)
}

func TestSaveButtonJSON(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, jsonRequest(http.MethodPost, "/api/v1/save_button_json", `{"servi":[]}`))
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"ok":true,"file":"shino_test.json"}`, body)

	code, body = f.do(t, jsonRequest(http.MethodPost, "/api/v1/save_button_json", `"text"`))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"ok":false,"error":"Invalid JSON"}`, body)

	f.files.err = errors.New("disk full")
	code, body = f.do(t, jsonRequest(http.MethodPost, "/api/v1/save_button_json", `[1]`))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.JSONEq(t, `{"ok":false,"error":"Write failed"}`, body)
}

func TestTmpFile(t *testing.T) {
	f := newFixture(t)
	f.files.tmp = map[string][]byte{"shino_1.json": []byte(`{"servi":[]}`)}

	code, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/tmp/shino_1.json", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"servi":[]}`, body)

	code, body = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/tmp/missing.json", nil))
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `{"ok":false,"error":"File not found"}`, body)
}

func TestSaveFormJSON(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, jsonRequest(http.MethodPost, "/api/v1/save_form_json", `{"_formClass":"fp04","a":"b"}`))
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"ok":true,"file":"form_test_db_paths.json"}`, body)
	require.Len(t, f.files.forms, 1)
	assert.Equal(t, "fp04", f.files.forms[0]["_formClass"])

	code, _ = f.do(t, jsonRequest(http.MethodPost, "/api/v1/save_form_json", `[1,2]`))
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestButtonJSON(t *testing.T) {
	f := newFixture(t)
	form := `{"results":{"total_price":"1 500"}}`

	code, body := f.do(t, jsonRequest(http.MethodPost, "/api/v1/button_json/shino", form))
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"ok":true,"id":"","file":"shino_test.json","data":{"total":{"total_price":1500}}}`, body)

	code, body = f.do(t, jsonRequest(http.MethodPost, "/api/v1/button_json/shino?save_bd=shino&only_new=1", form))
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"ok":true,"id":"order-1","file":"","data":{"total":{"total_price":1500}}}`, body)
	require.Len(t, f.saver.requests, 1)
	assert.True(t, f.saver.requests[0].ReplaceAll)

	code, _ = f.do(t, jsonRequest(http.MethodPost, "/api/v1/button_json/missing", form))
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRender(t *testing.T) {
	f := newFixture(t)
	body := `{
		"template": {"cycle": {"div_wall": {"name": ["text", "api1:name"], "bal": ["text", "api1:balance"]}}},
		"sources": {"api1": {"table": "wall"}}
	}`

	code, out := f.do(t, jsonRequest(http.MethodPost, "/api/v1/render", body))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, `<div class="wall"><span class="content-name">Касса</span><span class="content-bal">100.00</span></div>`, out)
}

func TestFetchTable(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/fetch_table?table=wall", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, `[{"id":"w1","name":"Касса","balance":"100.00"}]`, body)

	code, body = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/fetch_table", nil))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.JSONEq(t, `{"error":"Invalid table"}`, body)

	code, body = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/fetch_table?table=nope", nil))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.JSONEq(t, `{"error":"relation \"nope\" does not exist"}`, body)
}

func TestRealTime(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/real_time", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Regexp(t, `^\{"main":"\d\d:\d\d","seconds":"\d\d","secondsSize":80\}$`, body)
}

func TestViewTable_Orders(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, httptest.NewRequest(http.MethodGet, "/view_table", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `wall <span class="tbl-count">(1 запись)</span> <span class="tbl-static">Статичная</span>`)
	assert.Contains(t, body, `order <span class="tbl-count">(0 записей)</span>`)
	assert.Contains(t, body, `<th>num</th><th>id</th><th>sub_order_id</th><th>money</th>`)
	assert.NotContains(t, body, `<th>created_at</th>`)
}

func TestViewTable_UsersEscapesCells(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, httptest.NewRequest(http.MethodGet, "/view_table?mode=users", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `<td>&lt;Иван&gt;</td>`)
	assert.Contains(t, body, `name="delete_co_wor_ids[]" value="0b0f2f4c-1c1a-4a5e-9f1e-3f6c7d8e9a0b"`)
	assert.Contains(t, body, "Добавить сотрудника")
}

func TestViewTableAction_Ledger(t *testing.T) {
	f := newFixture(t)

	code, _ := f.do(t, formRequest(url.Values{"delete_all": {"1"}, "only_new_data": {"1"}}))
	assert.Equal(t, http.StatusFound, code)
	code, _ = f.do(t, formRequest(url.Values{"reset_balance": {"1"}}))
	assert.Equal(t, http.StatusFound, code)
	code, _ = f.do(t, formRequest(url.Values{"update_balance": {"1"}}))
	assert.Equal(t, http.StatusFound, code)

	assert.Equal(t, []string{"delete", "recompute", "reset", "recompute"}, f.ledger.calls)
}

func TestViewTableAction_Directory(t *testing.T) {
	f := newFixture(t)

	code, _ := f.do(t, formRequest(url.Values{"add_co_wor": {"1"}, "first_name": {"Иван"}, "phone": {"701 234 56 78"}}))
	assert.Equal(t, http.StatusFound, code)
	require.Len(t, f.directory.coWorkers, 1)
	assert.Equal(t, "Иван", f.directory.coWorkers[0].FirstName)

	code, _ = f.do(t, formRequest(url.Values{"delete_gos_num": {"1"}, "delete_gos_num_ids[]": {"12", "x"}}))
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, []string{"12", "x"}, f.directory.deleted[domain.TableGosNum])

	f.directory.addErr = errors.New("duplicate key")
	code, body := f.do(t, formRequest(url.Values{"add_clients": {"1"}}))
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Ошибка при сохранении: duplicate key")
}

func TestViewCell(t *testing.T) {
	assert.Equal(t,
		`<table class="nested-tbl"><thead><tr><th>b</th><th>a</th></tr></thead>`+
			`<tbody><tr><td>1</td><td>&lt;x&gt;</td></tr><tr><td></td><td>y</td></tr></tbody></table>`,
		string(viewCell(`[{"b":1,"a":"<x>"},{"a":"y"}]`)))
	assert.Equal(t, "plain &amp; text", string(viewCell("plain & text")))
	assert.Equal(t, "[]", string(viewCell("[]")))
	assert.Equal(t, "", string(viewCell(nil)))
	assert.Equal(t, "42", string(viewCell(int64(42))))
}

func TestPluralRecords(t *testing.T) {
	assert.Equal(t, "записей", pluralRecords(0))
	assert.Equal(t, "запись", pluralRecords(1))
	assert.Equal(t, "записи", pluralRecords(3))
	assert.Equal(t, "записей", pluralRecords(11))
	assert.Equal(t, "записей", pluralRecords(21))
}
