package server

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"sto/domain"
	"sto/internal/clock"
	"sto/internal/collect"
	"sto/internal/render"
	"sto/pkg/jsonx"
)

// saveBD раскладывает присланный JSON по таблицам согласно конфигу ?config=
func (h *Handler) saveBD(ctx *fiber.Ctx) error {
	request, err := h.saveRequest(ctx)
	if err != nil {
		return err
	}

	result, err := h.deps.Saver.Save(ctx.UserContext(), request)
	if err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"ok": true,
		"id": result.OrderID,
	})
}

// publish то же, что saveBD, но через очередь: запрос уходит в Nats,
// а в базу его пишет подписчик
func (h *Handler) publish(ctx *fiber.Ctx) error {
	request, err := h.saveRequest(ctx)
	if err != nil {
		return err
	}

	bytes, err := json.Marshal(request)
	if err != nil {
		return err
	}

	if err = h.deps.Publisher.Publish(domain.SaveSubject, bytes); err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"ok": true,
	})
}

func (h *Handler) saveRequest(ctx *fiber.Ctx) (domain.SaveRequest, error) {
	request := domain.SaveRequest{
		Config: ctx.Query("config"),
		Data:   domain.Record{},
	}
	if request.Config == "" {
		return request, fiber.NewError(fiber.StatusBadRequest, "Missing config parameter")
	}

	// пустое тело сохраняется как пустой payload
	if len(ctx.Body()) > 0 {
		if err := json.Unmarshal(ctx.Body(), &request.Data); err != nil {
			return request, errInvalidJSON
		}
	}
	return request, nil
}

// saveButtonJSON складывает результат кнопки во временный файл
func (h *Handler) saveButtonJSON(ctx *fiber.Ctx) error {
	var data any
	if err := json.Unmarshal(ctx.Body(), &data); err != nil {
		return errInvalidJSON
	}
	switch data.(type) {
	case map[string]any, []any:
	default:
		return errInvalidJSON
	}

	file, err := h.deps.Files.SaveButtonJSON(data)
	if err != nil {
		h.logger.Error("failed to save button json", zap.Error(err))
		return errWriteFailed
	}

	return ctx.JSON(fiber.Map{
		"ok":   true,
		"file": file,
	})
}

// saveFormJSON сохраняет пути полей формы в send_form_json
// tmpFile отдаёт сохранённый ранее результат button_json по имени файла
func (h *Handler) tmpFile(ctx *fiber.Ctx) error {
	data, err := h.deps.Files.ReadTmp(ctx.Params("file"))
	if errors.Is(err, os.ErrNotExist) {
		return fiber.NewError(fiber.StatusNotFound, "File not found")
	}
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return ctx.Send(data)
}

func (h *Handler) saveFormJSON(ctx *fiber.Ctx) error {
	var data map[string]any
	if err := json.Unmarshal(ctx.Body(), &data); err != nil || data == nil {
		return errInvalidJSON
	}

	file, err := h.deps.Files.SaveFormJSON(data)
	if err != nil {
		h.logger.Error("failed to save form json", zap.Error(err))
		return errWriteFailed
	}

	return ctx.JSON(fiber.Map{
		"ok":   true,
		"file": file,
	})
}

// buttonJSON собирает форму по конфигу button_json/<name>.json.
// С ?save_bd=<config> результат сразу пишется в базу, иначе во временный файл.
func (h *Handler) buttonJSON(ctx *fiber.Ctx) error {
	config, err := h.deps.Configs.ButtonConfig(ctx.Params("name"))
	if err != nil {
		return err
	}

	form := collect.Form{}
	if err = ctx.BodyParser(&form); err != nil {
		return errInvalidJSON
	}

	out, err := collect.Run(config, form)
	if err != nil {
		return err
	}

	target := collect.Target{
		SaveBDConfig: ctx.Query("save_bd"),
		OnlyNew:      ctx.Query("only_new") == "1",
	}
	outcome, err := collect.Dispatch(ctx.UserContext(), out, target, h.deps.Saver, h.deps.Files)
	if err != nil {
		return err
	}

	return ctx.JSON(fiber.Map{
		"ok":   true,
		"id":   outcome.OrderID,
		"file": outcome.File,
		"data": out,
	})
}

type renderSource struct {
	// Table таблица Postgres, из которой берутся записи
	Table string          `json:"table"`
	Link  string          `json:"link"`
	Data  []domain.Record `json:"data"`
}

type renderRequest struct {
	// Template объект шаблона или строка из data-template
	Template json.RawMessage         `json:"template"`
	Sources  map[string]renderSource `json:"sources"`
	Labels   render.Labels           `json:"labels"`
	SumVar   string                  `json:"sum_var"`
}

// render строит разметку по шаблону и источникам
func (h *Handler) render(ctx *fiber.Ctx) error {
	request := renderRequest{}
	if err := ctx.BodyParser(&request); err != nil {
		return errInvalidJSON
	}

	tpl, err := parseTemplate(request.Template)
	if err != nil {
		return errInvalidJSON
	}

	sources := make(map[string]*render.Source, len(request.Sources))
	for name, src := range request.Sources {
		source := &render.Source{Link: src.Link, Data: src.Data}
		if src.Table != "" {
			table, err := h.deps.Tables.Fetch(ctx.UserContext(), src.Table)
			if err != nil {
				return err
			}
			source.Data = table.Rows
		}
		sources[name] = source
	}

	renderer := render.New(render.Options{
		Labels:     request.Labels,
		SumVar:     request.SumVar,
		SitePrefix: h.deps.SitePrefix,
	})
	out, err := renderer.RenderString(tpl, sources)
	if err != nil {
		return err
	}

	ctx.Type("html", "utf-8")
	return ctx.SendString(out)
}

func parseTemplate(raw json.RawMessage) (jsonx.Object, error) {
	if jsonx.IsString(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return jsonx.Object{}, err
		}
		return render.ParseTemplate(s)
	}
	var tpl jsonx.Object
	if err := json.Unmarshal(raw, &tpl); err != nil {
		return jsonx.Object{}, err
	}
	return tpl, nil
}

// fetchTable строки таблицы в JSON; ошибки в формате {"error":"..."}
func (h *Handler) fetchTable(ctx *fiber.Ctx) error {
	table, err := h.deps.Tables.Fetch(ctx.UserContext(), ctx.Query("table"))
	if err != nil {
		code, message := classify(err)
		return ctx.Status(code).JSON(fiber.Map{
			"error": message,
		})
	}
	return ctx.JSON(table)
}

func (h *Handler) realTime(ctx *fiber.Ctx) error {
	return ctx.JSON(clock.Now())
}
