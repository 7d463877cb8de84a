package domain

// Таблицы учёта заказов. Порядок важен при удалении: сначала те,
// что ссылаются на другие (price, fin_op -> sub_order -> order).
const (
	TableOrder    = "order"
	TableSubOrder = "sub_order"
	TablePrice    = "price"
	TableFinOp    = "fin_op"
	TableWall     = "wall"
)

// Таблицы справочников (вкладка «Юзеры» в админке)
const (
	TableCoWorker = "co_wor"
	TableClients  = "clients"
	TableCar      = "car"
	TableGosNum   = "gos_num"
)

// OrderTablesDeleteOrder порядок очистки заказов; wall и справочники не трогаем
var OrderTablesDeleteOrder = []string{TablePrice, TableFinOp, TableSubOrder, TableOrder}

// OrderTablesDisplay порядок вывода на вкладке «Заказы»
var OrderTablesDisplay = []string{TableOrder, TableSubOrder, TablePrice, TableFinOp, TableWall}

// UserTablesDisplay порядок вывода на вкладке «Юзеры»
var UserTablesDisplay = []string{TableCoWorker, TableClients, TableCar, TableGosNum}

// StaticTables таблицы, которые не очищаются вместе с заказами
var StaticTables = map[string]bool{TableWall: true}

// SaveSubject тема Nats, через которую сохранение можно выполнить асинхронно
const SaveSubject = "save_bd"

// SaveRequest запрос на сохранение собранной формы в БД по конфигу save_bd.
// Так же выглядит сообщение в очереди Nats.
type SaveRequest struct {
	Config     string `json:"config"`
	ReplaceAll bool   `json:"replace_all"`
	Data       Record `json:"data"`
}

// SaveResult результат сохранения: идентификатор созданного заказа
type SaveResult struct {
	OrderID string `json:"id"`
}
