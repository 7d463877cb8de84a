package repositories

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"sto/domain"
	"sto/internal/models"
)

const (
	loginDigits    = 6
	passwordLength = 12
	passwordChars  = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// DirectoryRepository справочники: сотрудники, клиенты, авто и гос номера
type DirectoryRepository struct {
	db *sqlx.DB
}

func NewDirectoryRepository(db *sqlx.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// AddCoWorker логин (6 цифр) и пароль (12 символов) генерируются здесь
func (d *DirectoryRepository) AddCoWorker(ctx context.Context, in domain.CoWorker) error {
	login, err := randomString("0123456789", loginDigits)
	if err != nil {
		return err
	}
	password, err := randomString(passwordChars, passwordLength)
	if err != nil {
		return err
	}

	const query = `INSERT INTO public.co_wor (id, first_name, last_name, patronymic, birth_date, phone, login, password)
VALUES (:id, :first_name, :last_name, :patronymic, :birth_date, :phone, :login, :password)`
	_, err = d.db.NamedExecContext(ctx, query, models.CoWorker{
		ID:         uuid.NewString(),
		FirstName:  trim(in.FirstName),
		LastName:   trim(in.LastName),
		Patronymic: trim(in.Patronymic),
		BirthDate:  domain.NullIfEmpty(in.BirthDate),
		Phone:      domain.NormalizePhone(in.Phone),
		Login:      login,
		Password:   password,
	})
	return err
}

func (d *DirectoryRepository) AddClient(ctx context.Context, in domain.Client) error {
	const query = `INSERT INTO public.clients (id, first_name, last_name, patronymic, birth_date, phone, role, comp_name)
VALUES (:id, :first_name, :last_name, :patronymic, :birth_date, :phone, :role, :comp_name)`
	_, err := d.db.NamedExecContext(ctx, query, models.Client{
		ID:         uuid.NewString(),
		FirstName:  trim(in.FirstName),
		LastName:   trim(in.LastName),
		Patronymic: trim(in.Patronymic),
		BirthDate:  domain.NullIfEmpty(in.BirthDate),
		Phone:      domain.NormalizePhone(in.Phone),
		Role:       domain.NormalizeRole(in.Role),
		CompName:   domain.NullIfEmpty(in.CompName),
	})
	return err
}

// AddCar неверные ссылки на клиента и гос номер пишутся как NULL
func (d *DirectoryRepository) AddCar(ctx context.Context, in domain.Car) error {
	const query = `INSERT INTO public.car (id, id_client, id_gos_num, brand, color)
VALUES (:id, :id_client, :id_gos_num, :brand, :color)`
	_, err := d.db.NamedExecContext(ctx, query, carRow(uuid.NewString(), in))
	return err
}

func (d *DirectoryRepository) AddGosNum(ctx context.Context, plate string) error {
	_, err := d.db.ExecContext(ctx, `INSERT INTO public.gos_num (plate) VALUES ($1)`, domain.NullIfEmpty(plate))
	return err
}

func (d *DirectoryRepository) DeleteCoWorkers(ctx context.Context, ids []string) (int64, error) {
	return d.deleteByIDs(ctx, domain.TableCoWorker, domain.FilterIDs(ids, false))
}

func (d *DirectoryRepository) DeleteClients(ctx context.Context, ids []string) (int64, error) {
	return d.deleteByIDs(ctx, domain.TableClients, domain.FilterIDs(ids, false))
}

func (d *DirectoryRepository) DeleteCars(ctx context.Context, ids []string) (int64, error) {
	return d.deleteByIDs(ctx, domain.TableCar, domain.FilterIDs(ids, false))
}

// DeleteGosNums id гос номеров бывают и serial, и uuid
func (d *DirectoryRepository) DeleteGosNums(ctx context.Context, ids []string) (int64, error) {
	return d.deleteByIDs(ctx, domain.TableGosNum, domain.FilterIDs(ids, true))
}

func (d *DirectoryRepository) deleteByIDs(ctx context.Context, table string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	// id в таблицах разного типа (uuid, serial), сравниваем как текст
	query, args, err := sqlx.In("DELETE FROM "+pq.QuoteIdentifier(table)+" WHERE id::text IN (?)", ids)
	if err != nil {
		return 0, err
	}

	result, err := d.db.ExecContext(ctx, d.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func carRow(id string, in domain.Car) models.Car {
	row := models.Car{
		ID:    id,
		Brand: trim(in.Brand),
		Color: domain.NullIfEmpty(in.Color),
	}
	if clientID := trim(in.ClientID); domain.IsUUID(clientID) {
		row.ClientID = domain.NullIfEmpty(clientID)
	}
	if gosNumID := trim(in.GosNumID); domain.IsUUID(gosNumID) || domain.IsDigits(gosNumID) {
		row.GosNumID = domain.NullIfEmpty(gosNumID)
	}
	return row
}

func randomString(alphabet string, n int) (string, error) {
	out := make([]byte, n)
	limit := big.NewInt(int64(len(alphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
