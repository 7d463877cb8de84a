package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"sto/domain"
	"sto/internal/models"
	"sto/pkg/jsonx"
)

// Saver сохранение результата формы в БД по конфигу save_bd
type Saver interface {
	Save(ctx context.Context, req domain.SaveRequest) (domain.SaveResult, error)
}

// Files JSON-файлы на диске сайта
type Files interface {
	SaveButtonJSON(data any) (string, error)
	SaveFormJSON(data map[string]any) (string, error)
	ReadTmp(name string) ([]byte, error)
}

type Configs interface {
	ButtonConfig(name string) (jsonx.Object, error)
}

// Tables чтение таблиц и представлений
type Tables interface {
	Fetch(ctx context.Context, table string) (models.Table, error)
	ListViews(ctx context.Context) ([]string, error)
}

// Ledger служебные операции над заказами и балансами
type Ledger interface {
	DeleteOrders(ctx context.Context) error
	ResetBalance(ctx context.Context) error
	RecomputeBalance(ctx context.Context) error
}

// Directory справочники вкладки «Юзеры»
type Directory interface {
	AddCoWorker(ctx context.Context, in domain.CoWorker) error
	AddClient(ctx context.Context, in domain.Client) error
	AddCar(ctx context.Context, in domain.Car) error
	AddGosNum(ctx context.Context, plate string) error
	DeleteCoWorkers(ctx context.Context, ids []string) (int64, error)
	DeleteClients(ctx context.Context, ids []string) (int64, error)
	DeleteCars(ctx context.Context, ids []string) (int64, error)
	DeleteGosNums(ctx context.Context, ids []string) (int64, error)
}

// Publisher отправка сообщений в Nats
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Deps зависимости обработчика
type Deps struct {
	Saver     Saver
	Files     Files
	Configs   Configs
	Tables    Tables
	Ledger    Ledger
	Directory Directory
	Publisher Publisher
	// SitePrefix корень сайта в абсолютных путях картинок шаблонов
	SitePrefix string
}

// Handler принимает запросы страниц сайта и админки.
// JSON-ручки повторяют старые php-скрипты, чтобы фронт не пришлось менять.
type Handler struct {
	deps   Deps
	logger *zap.Logger
}

func NewHandler(deps Deps, logger *zap.Logger) *Handler {
	return &Handler{
		deps:   deps,
		logger: logger,
	}
}

func (h *Handler) MountRoutes(app *fiber.App) {
	app.Get("/view_table", h.viewTable)
	app.Post("/view_table", h.viewTableAction)

	v1 := app.Group("/api/v1")
	v1.Post("/save_bd", h.saveBD)
	v1.Post("/publish", h.publish)
	v1.Post("/save_button_json", h.saveButtonJSON)
	v1.Get("/tmp/:file", h.tmpFile)
	v1.Post("/save_form_json", h.saveFormJSON)
	v1.Post("/button_json/:name", h.buttonJSON)
	v1.Post("/render", h.render)
	v1.Get("/fetch_table", h.fetchTable)
	v1.Get("/real_time", h.realTime)
}
