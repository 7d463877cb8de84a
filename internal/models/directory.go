package models

import "database/sql"

// CoWorker строка co_wor для вставки
type CoWorker struct {
	ID         string         `db:"id"`
	FirstName  string         `db:"first_name"`
	LastName   string         `db:"last_name"`
	Patronymic string         `db:"patronymic"`
	BirthDate  sql.NullString `db:"birth_date"`
	Phone      string         `db:"phone"`
	Login      string         `db:"login"`
	Password   string         `db:"password"`
}

// Client строка clients для вставки
type Client struct {
	ID         string         `db:"id"`
	FirstName  string         `db:"first_name"`
	LastName   string         `db:"last_name"`
	Patronymic string         `db:"patronymic"`
	BirthDate  sql.NullString `db:"birth_date"`
	Phone      string         `db:"phone"`
	Role       string         `db:"role"`
	CompName   sql.NullString `db:"comp_name"`
}

// Car строка car для вставки
type Car struct {
	ID       string         `db:"id"`
	ClientID sql.NullString `db:"id_client"`
	GosNumID sql.NullString `db:"id_gos_num"`
	Brand    string         `db:"brand"`
	Color    sql.NullString `db:"color"`
}
