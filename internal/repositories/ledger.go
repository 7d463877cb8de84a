package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"sto/domain"
	"sto/internal/models"
	"sto/internal/savebd"
)

// LedgerRepository таблицы учёта заказов: order, sub_order, price, fin_op, wall
type LedgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(ctx context.Context, db *sqlx.DB) (*LedgerRepository, error) {
	l := &LedgerRepository{db: db}
	if err := l.migrate(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// migrate создаёт таблицы учёта и справочников; ALTER-ы догоняют старые базы,
// созданные до появления price, revenu_* и id_wallet
func (l *LedgerRepository) migrate(ctx context.Context) error {
	const query = `create table if not exists public."order"
(
    id         uuid primary key,
    num        serial,
    client_id  uuid,
    car_id     uuid,
    total      numeric(12, 2),
    comment    text,
    data       jsonb,
    created_at timestamptz default now() not null
);

create table if not exists public.sub_order
(
    id         uuid primary key,
    num        serial,
    order_id   uuid references public."order" (id) on delete cascade,
    servi_id   varchar(64),
    data       jsonb,
    created_at timestamptz default now() not null
);

alter table public.sub_order add column if not exists revenu_100 numeric(12, 2);
alter table public.sub_order add column if not exists revenu_fact numeric(12, 2);
alter table public.sub_order add column if not exists revenu_plan numeric(12, 2);

create table if not exists public.price
(
    id           uuid primary key,
    sub_order_id uuid           not null references public.sub_order (id) on delete cascade,
    servi_id     varchar(64)    not null,
    price        numeric(12, 2) not null
);

create table if not exists public.fin_op
(
    id           uuid primary key,
    num          serial,
    sub_order_id uuid references public.sub_order (id),
    pay_met      varchar(32),
    money        numeric(12, 2) default 0 not null,
    created_at   timestamptz default now() not null
);

alter table public.fin_op add column if not exists id_wallet varchar(50);

create table if not exists public.wall
(
    id      varchar(50) primary key,
    name    text,
    balance numeric(12, 2) default 0 not null
);

create table if not exists public.co_wor
(
    id         uuid primary key,
    first_name text,
    last_name  text,
    patronymic text,
    birth_date date,
    phone      varchar(11),
    login      varchar(6),
    password   varchar(12),
    created_at timestamptz default now() not null
);

create table if not exists public.clients
(
    id         uuid primary key,
    first_name text,
    last_name  text,
    patronymic text,
    birth_date date,
    phone      varchar(11),
    role       varchar(16) default 'individual' not null,
    comp_name  text,
    created_at timestamptz default now() not null
);

create table if not exists public.gos_num
(
    id    serial primary key,
    plate varchar(16)
);

create table if not exists public.car
(
    id         uuid primary key,
    id_client  uuid references public.clients (id) on delete set null,
    id_gos_num varchar(36),
    brand      text,
    color      text
);`

	if _, err := l.db.ExecContext(ctx, query); err != nil {
		return err
	}
	return nil
}

// Apply выполняет план save_bd в одной транзакции: при ошибке любой
// операции не сохраняется ничего
func (l *LedgerRepository) Apply(ctx context.Context, plan savebd.Plan) error {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, st := range plan.Statements {
		query, args := statementSQL(st)
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%s: %w", st.Table, err)
		}
	}
	return tx.Commit()
}

// DeleteOrders удаляет все заказы; wall и справочники не затрагиваются
func (l *LedgerRepository) DeleteOrders(ctx context.Context) error {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, t := range domain.OrderTablesDeleteOrder {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+pq.QuoteIdentifier(t)); err != nil {
			return fmt.Errorf("%s: %w", t, err)
		}
	}
	return tx.Commit()
}

// ResetBalance обнуляет баланс всех кошельков
func (l *LedgerRepository) ResetBalance(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `UPDATE public.wall SET balance = 0`)
	return err
}

// RecomputeBalance пересчитывает баланс кошельков по сумме fin_op.money
func (l *LedgerRepository) RecomputeBalance(ctx context.Context) error {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE public.wall SET balance = 0`); err != nil {
		return err
	}

	var balances []models.Balance
	const query = `SELECT id_wallet, SUM(money) AS s FROM public.fin_op
WHERE id_wallet IS NOT NULL AND id_wallet != '' GROUP BY id_wallet`
	if err = tx.SelectContext(ctx, &balances, query); err != nil {
		return err
	}

	for _, b := range balances {
		if _, err = tx.ExecContext(ctx, `UPDATE public.wall SET balance = $1 WHERE id = $2`, b.Sum, b.Wallet); err != nil {
			return fmt.Errorf("wallet %s: %w", b.Wallet, err)
		}
	}
	return tx.Commit()
}

// statementSQL переводит операцию плана в SQL; имена таблиц и колонок
// приходят из конфига, поэтому всегда экранируются
func statementSQL(st savebd.Statement) (string, []any) {
	table := pq.QuoteIdentifier(st.Table)

	switch st.Kind {
	case savebd.KindDeleteAll:
		return "DELETE FROM " + table, nil
	case savebd.KindAdd:
		col := pq.QuoteIdentifier(st.Columns[0])
		return fmt.Sprintf("UPDATE %s SET %s = %s + $1 WHERE id = $2", table, col, col), []any{st.Values[0], st.Key}
	}

	cols := make([]string, len(st.Columns))
	placeholders := make([]string, len(st.Columns))
	for i, c := range st.Columns {
		cols[i] = pq.QuoteIdentifier(c)
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return query, st.Values
}
