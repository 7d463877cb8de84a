// Package value приводит слабо типизированные значения форм и bd-записей
// (числа, строки с пробелами и запятой, bool, null) к числам и строкам.
package value

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ToNumber приводит значение к числу. Строки чистятся от пробелов,
// первая запятая считается десятичным разделителем. Всё нечисловое даёт 0.
func ToNumber(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := strings.Replace(stripSpaces(x), ",", ".", 1)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

var floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseFloatPrefix разбирает числовой префикс строки как parseFloat в браузере:
// "12.5 тг" -> 12.5, "1e3" -> 1000. Пробелы (разделители разрядов) удаляются,
// запятая разделителем не считается: "3,25" -> 3.
func ParseFloatPrefix(s string) float64 {
	m := floatPrefix.FindString(stripSpaces(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseDecimal то же, что ParseFloatPrefix, но первая запятая читается как точка
func ParseDecimal(s string) float64 {
	return ParseFloatPrefix(strings.Replace(s, ",", ".", 1))
}

// ToString строковое представление для подстановки в разметку
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return FormatFloat(x)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case []byte:
		return string(x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// FormatFloat кратчайшая запись без экспоненты: 5 -> "5", 0.1 -> "0.1"
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Truthy ложны nil, пустая строка, ноль и false
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	case int64:
		return x != 0
	case json.Number:
		return x.String() != "0" && x.String() != ""
	case bool:
		return x
	}
	return true
}

// Equal строгое сравнение скаляров: одинаковый тип и значение
func Equal(a, b any) bool {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case json.Number:
		y, ok := b.(json.Number)
		return ok && x == y
	}
	return false
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
