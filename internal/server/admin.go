package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"sto/domain"
	"sto/internal/models"
)

// viewTable страница просмотра таблиц: заказы, справочники, представления
func (h *Handler) viewTable(ctx *fiber.Ctx) error {
	return h.renderPage(ctx, normalizeMode(ctx.Query("mode")), nil)
}

// viewTableAction кнопки админки. После успешного действия редирект обратно на вкладку,
// ошибка добавления показывается в форме без редиректа.
func (h *Handler) viewTableAction(ctx *fiber.Ctx) error {
	c := ctx.UserContext()
	has := func(key string) bool {
		return ctx.FormValue(key) != ""
	}

	switch {
	case has("delete_all"):
		if err := h.deps.Ledger.DeleteOrders(c); err != nil {
			return err
		}
		if ctx.FormValue("only_new_data") == "1" {
			if err := h.deps.Ledger.RecomputeBalance(c); err != nil {
				return err
			}
		}
		h.logger.Info("orders deleted", zap.Bool("only_new_data", ctx.FormValue("only_new_data") == "1"))
		return ctx.Redirect("/view_table")
	case has("reset_balance"):
		if err := h.deps.Ledger.ResetBalance(c); err != nil {
			return err
		}
		return ctx.Redirect("/view_table")
	case has("update_balance"):
		if err := h.deps.Ledger.RecomputeBalance(c); err != nil {
			return err
		}
		return ctx.Redirect("/view_table")
	}

	if table, err := h.addDirectory(c, ctx); table != "" {
		if err != nil {
			h.logger.Warn("failed to add directory row", zap.String("table", table), zap.Error(err))
			return h.renderPage(ctx, modeUsers, map[string]string{table: err.Error()})
		}
		return ctx.Redirect("/view_table?mode=" + modeUsers)
	}

	deletes := []struct {
		table string
		del   func(context.Context, []string) (int64, error)
	}{
		{domain.TableCoWorker, h.deps.Directory.DeleteCoWorkers},
		{domain.TableClients, h.deps.Directory.DeleteClients},
		{domain.TableCar, h.deps.Directory.DeleteCars},
		{domain.TableGosNum, h.deps.Directory.DeleteGosNums},
	}
	for _, d := range deletes {
		if !has("delete_" + d.table) {
			continue
		}
		ids := formIDs(ctx.Request().PostArgs().PeekMulti("delete_" + d.table + "_ids[]"))
		deleted, err := d.del(c, ids)
		if err != nil {
			return err
		}
		h.logger.Info("directory rows deleted", zap.String("table", d.table), zap.Int64("rows", deleted))
		return ctx.Redirect("/view_table?mode=" + modeUsers)
	}

	return ctx.Redirect("/view_table")
}

// addDirectory добавляет строку справочника; пустое имя таблицы значит,
// что в запросе нет кнопки добавления
func (h *Handler) addDirectory(c context.Context, ctx *fiber.Ctx) (string, error) {
	switch {
	case ctx.FormValue("add_co_wor") != "":
		return domain.TableCoWorker, h.deps.Directory.AddCoWorker(c, domain.CoWorker{
			FirstName:  ctx.FormValue("first_name"),
			LastName:   ctx.FormValue("last_name"),
			Patronymic: ctx.FormValue("patronymic"),
			BirthDate:  ctx.FormValue("birth_date"),
			Phone:      ctx.FormValue("phone"),
		})
	case ctx.FormValue("add_clients") != "":
		return domain.TableClients, h.deps.Directory.AddClient(c, domain.Client{
			FirstName:  ctx.FormValue("clients_first_name"),
			LastName:   ctx.FormValue("clients_last_name"),
			Patronymic: ctx.FormValue("clients_patronymic"),
			BirthDate:  ctx.FormValue("clients_birth_date"),
			Phone:      ctx.FormValue("clients_phone"),
			Role:       ctx.FormValue("clients_role", domain.RoleIndividual),
			CompName:   ctx.FormValue("clients_comp_name"),
		})
	case ctx.FormValue("add_car") != "":
		return domain.TableCar, h.deps.Directory.AddCar(c, domain.Car{
			ClientID: ctx.FormValue("car_id_client"),
			GosNumID: ctx.FormValue("car_id_gos_num"),
			Brand:    ctx.FormValue("car_brand"),
			Color:    ctx.FormValue("car_color"),
		})
	case ctx.FormValue("add_gos_num") != "":
		return domain.TableGosNum, h.deps.Directory.AddGosNum(c, ctx.FormValue("gos_num_plate"))
	}
	return "", nil
}

func (h *Handler) renderPage(ctx *fiber.Ctx, mode string, addErrors map[string]string) error {
	page := h.page(ctx.UserContext(), mode)
	for i := range page.Tables {
		page.Tables[i].AddError = addErrors[page.Tables[i].Name]
	}
	return ctx.Render("view_table", page)
}

func (h *Handler) page(ctx context.Context, mode string) pageView {
	page := pageView{Mode: mode}

	var names []string
	switch mode {
	case modeViews:
		views, err := h.deps.Tables.ListViews(ctx)
		if err != nil {
			// нет прав на information_schema: показываем пустую вкладку
			h.logger.Warn("failed to list views", zap.Error(err))
		}
		names = views
	case modeUsers:
		names = domain.UserTablesDisplay
	default:
		names = domain.OrderTablesDisplay
	}

	for _, name := range names {
		table, err := h.deps.Tables.Fetch(ctx, name)
		if err != nil {
			// таблицы может ещё не быть: выводим её пустой
			h.logger.Warn("failed to fetch table", zap.String("table", name), zap.Error(err))
			table = models.Table{Name: name}
		}
		page.Tables = append(page.Tables, newTableView(table, mode))
	}
	return page
}
