// Package functions считает производные итоги по полям ввода
// (data-function-sum) и форматирует числа для вывода.
package functions

import (
	"math"
	"strconv"
	"strings"

	"sto/internal/value"
)

// Виды функций
const (
	KindSum   = "sum"
	KindAvg   = "avg"
	KindCount = "count"
)

// Input одно поле ввода, участвующее в функции.
// Поля внутри строки услуги (InRow) учитываются, только если строка выбрана.
type Input struct {
	Value    string `json:"value"`
	InRow    bool   `json:"in_row,omitempty"`
	Selected bool   `json:"selected,omitempty"`
}

// Calculate выполняет функцию kind над полями; неизвестный вид даёт 0
func Calculate(kind string, inputs []Input) float64 {
	switch kind {
	case KindSum:
		return Sum(inputs)
	case KindAvg:
		return Average(inputs)
	case KindCount:
		return float64(Count(inputs))
	}
	return 0
}

func Sum(inputs []Input) float64 {
	var sum float64
	for _, in := range inputs {
		if in.InRow && !in.Selected {
			continue
		}
		sum += value.ParseFloatPrefix(in.Value)
	}
	return sum
}

func Average(inputs []Input) float64 {
	count := Count(inputs)
	if count == 0 {
		return 0
	}
	return Sum(inputs) / float64(count)
}

// Count число заполненных полей
func Count(inputs []Input) int {
	count := 0
	for _, in := range inputs {
		if in.Value != "" {
			count++
		}
	}
	return count
}

// FormatNumber округляет до сотых и разделяет разряды пробелом: 1234567.5 -> "1 234 567.5"
func FormatNumber(v float64) string {
	rounded := math.Round(v*100) / 100
	if rounded == 0 {
		rounded = 0 // -0
	}
	s := strconv.FormatFloat(rounded, 'f', -1, 64)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, decPart, hasDec := strings.Cut(s, ".")
	out := sign + groupThousands(intPart)
	if hasDec {
		out += "." + decPart
	}
	return out
}

// FormatInput форматирует набираемое значение: только цифры и одна точка,
// не больше 15 знаков целой части и 2 знаков дробной
func FormatInput(raw string) string {
	raw = strings.Replace(strings.Join(strings.Fields(raw), ""), ",", ".", 1)
	if raw == "" {
		return ""
	}

	parts := strings.Split(keepDigitsAndDots(raw), ".")
	intPart := onlyDigits(parts[0])
	if len(intPart) > 15 {
		intPart = intPart[:15]
	}
	decPart := ""
	if len(parts) > 1 {
		decPart = onlyDigits(parts[1])
		if len(decPart) > 2 {
			decPart = decPart[:2]
		}
	}

	out := groupThousands(intPart)
	if decPart != "" {
		out += "." + decPart
	}
	return out
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func keepDigitsAndDots(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
