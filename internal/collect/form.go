package collect

import (
	"strings"

	"sto/domain"
	"sto/internal/functions"
)

// Form снимок формы, по которому работает сборщик.
// Вместо обхода DOM клиент присылает то, что видит на странице.
type Form struct {
	// Sources bd-записи по имени источника (data-bd-source)
	Sources map[string][]domain.Record `json:"sources"`
	// Rows значения полей ввода по селектору строк, по одному на отрисованную строку
	Rows map[string][]string `json:"rows"`
	// Radios отмеченное значение по имени группы радиокнопок
	Radios map[string]string `json:"radios"`
	// Results текст элементов data-function-result
	Results map[string]string `json:"results"`
	// Sums поля data-function-sum по имени результата, если Results не прислан
	Sums map[string][]functions.Input `json:"sums"`
}

func (f Form) records(source string) []domain.Record {
	return f.Sources[source]
}

// result текст результата функции. Если клиент прислал только поля ввода,
// считаем сумму сами и форматируем так же, как она показана на странице.
func (f Form) result(key string) (string, bool) {
	if text, ok := f.Results[key]; ok {
		return strings.TrimSpace(text), true
	}
	if inputs, ok := f.Sums[key]; ok {
		return functions.FormatNumber(functions.Sum(inputs)), true
	}
	return "", false
}
