package domain

import (
	"database/sql"
	"regexp"
	"strings"
	"unicode"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// Роли клиентов
const (
	RoleIndividual = "individual"
	RoleLegal      = "legal"
)

// CoWorker сотрудник. Логин и пароль генерируются при создании.
type CoWorker struct {
	FirstName  string
	LastName   string
	Patronymic string
	BirthDate  string
	Phone      string
}

// Client клиент: физлицо или компания
type Client struct {
	FirstName  string
	LastName   string
	Patronymic string
	BirthDate  string
	Phone      string
	Role       string
	CompName   string
}

// Car автомобиль клиента
type Car struct {
	ClientID string
	GosNumID string
	Brand    string
	Color    string
}

// IsUUID проверяет строку на формат UUID
func IsUUID(s string) bool {
	return uuidPattern.MatchString(s)
}

// IsDigits непустая строка из одних цифр (идентификаторы gos_num бывают serial)
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NormalizePhone оставляет только цифры; 9 цифр дополняет кодом 7,
// длинные номера обрезает до 11 цифр
func NormalizePhone(raw string) string {
	phone := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < 128 {
			return r
		}
		return -1
	}, strings.TrimSpace(raw))

	switch {
	case len(phone) == 9:
		phone = "7" + phone
	case len(phone) > 11:
		phone = phone[:11]
	}
	return phone
}

// NormalizeRole неизвестная роль считается физлицом
func NormalizeRole(role string) string {
	if role == RoleLegal {
		return RoleLegal
	}
	return RoleIndividual
}

// NullIfEmpty пустую строку пишем в базу как NULL
func NullIfEmpty(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

// FilterIDs оставляет только валидные идентификаторы
func FilterIDs(ids []string, allowDigits bool) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if IsUUID(id) || (allowDigits && IsDigits(id)) {
			out = append(out, id)
		}
	}
	return out
}
