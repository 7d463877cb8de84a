package collect

import (
	"encoding/json"
	"strings"

	"sto/domain"
	"sto/internal/value"
	"sto/pkg/jsonx"
)

// Команды формул
const (
	cmdSum       = "sum"
	cmdPercentOf = "percent_of"

	flagNegative = "negative"
	flagNumber   = "number"
)

// lookup значение по пути "ключ.поле" в уже собранном результате.
// Для массива поле суммируется по всем элементам, отсутствующий ключ даёт 0.
func lookup(out domain.Record, path string) any {
	key, rest, _ := strings.Cut(path, ".")
	val, ok := out[key]
	if !ok || val == nil {
		return 0.0
	}
	if rest == "" {
		return val
	}

	switch v := val.(type) {
	case []domain.Record:
		var sum float64
		for _, rec := range v {
			sum += value.ToNumber(rec[rest])
		}
		return sum
	case []any:
		var sum float64
		for _, el := range v {
			if rec, ok := asRecord(el); ok {
				sum += value.ToNumber(rec[rest])
			}
		}
		return sum
	}

	if rec, ok := asRecord(val); ok {
		field, ok := rec[rest]
		if !ok {
			return 0.0
		}
		return value.ToNumber(field)
	}
	return 0.0
}

func asRecord(v any) (domain.Record, bool) {
	switch rec := v.(type) {
	case domain.Record:
		return rec, true
	case map[string]any:
		return rec, true
	}
	return nil, false
}

// eval вычисляет формулу ["sum", path], ["sum", p1, p2, "number"],
// ["percent_of", base, pct, "number"]; последний "negative" меняет знак
func eval(out domain.Record, f []any) any {
	if len(f) < 2 {
		return 0.0
	}
	cmd, _ := f[0].(string)
	args := f[1:]
	negative := f[len(f)-1] == flagNegative
	if negative {
		args = args[:len(args)-1]
	}

	var result any = 0.0
	switch cmd {
	case cmdSum:
		switch {
		case len(args) == 1:
			result = lookupArg(out, args[0])
		case len(args) >= 2 && args[len(args)-1] == flagNumber:
			var sum float64
			for _, p := range args[:len(args)-1] {
				sum += value.ToNumber(lookupArg(out, p))
			}
			result = sum
		}
	case cmdPercentOf:
		if len(args) >= 3 {
			base := value.ToNumber(lookupArg(out, args[0]))
			pct := value.ToNumber(lookupArg(out, args[1]))
			result = base * pct / 100
		}
	}

	if negative {
		return -value.ToNumber(result)
	}
	return result
}

func lookupArg(out domain.Record, arg any) any {
	path, ok := arg.(string)
	if !ok {
		return 0.0
	}
	return lookup(out, path)
}

// computeFormulas вычисляет блок формул в out[dst]. Числовые константы копируются как есть.
func computeFormulas(out domain.Record, spec jsonx.Object, dst string) domain.Record {
	res := domain.Record{}
	out[dst] = res
	for _, key := range spec.Keys() {
		raw, _ := spec.Raw(key)
		switch {
		case jsonx.IsArray(raw):
			var f []any
			if err := json.Unmarshal(raw, &f); err == nil && len(f) >= 2 {
				res[key] = eval(out, f)
			}
		case jsonx.IsNumber(raw):
			var n float64
			if err := json.Unmarshal(raw, &n); err == nil {
				res[key] = n
			}
		}
	}
	return res
}
