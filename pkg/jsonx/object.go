package jsonx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotObject = errors.New("json value is not an object")

// Object JSON-объект, который помнит порядок ключей.
// В конфигах (save_bd, button_json, шаблоны) порядок ключей значим,
// а обычная map его теряет, поэтому значения храним сырыми и декодируем лениво.
type Object struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewObject собирает объект из пар ключ/значение, удобно в тестах
func NewObject(pairs ...any) (Object, error) {
	if len(pairs)%2 != 0 {
		return Object{}, fmt.Errorf("odd number of pairs: %d", len(pairs))
	}
	o := Object{values: make(map[string]json.RawMessage, len(pairs)/2)}
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return Object{}, fmt.Errorf("key %v is not a string", pairs[i])
		}
		raw, err := json.Marshal(pairs[i+1])
		if err != nil {
			return Object{}, err
		}
		o.set(key, raw)
	}
	return o, nil
}

func (o *Object) set(key string, raw json.RawMessage) {
	if o.values == nil {
		o.values = make(map[string]json.RawMessage)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = raw
}

func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotObject
	}

	o.keys = nil
	o.values = make(map[string]json.RawMessage)

	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err = dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		o.set(key, raw)
	}

	if _, err = dec.Token(); err != nil {
		return err
	}
	return nil
}

func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(o.values[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Keys ключи в порядке документа
func (o Object) Keys() []string {
	return o.keys
}

func (o Object) Len() int {
	return len(o.keys)
}

func (o Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

func (o Object) Raw(key string) (json.RawMessage, bool) {
	raw, ok := o.values[key]
	return raw, ok
}

// Decode декодирует значение по ключу в dst
func (o Object) Decode(key string, dst any) error {
	raw, ok := o.values[key]
	if !ok {
		return fmt.Errorf("key %q not found", key)
	}
	return json.Unmarshal(raw, dst)
}

// Object возвращает вложенный объект по ключу
func (o Object) Object(key string) (Object, bool) {
	raw, ok := o.values[key]
	if !ok || !IsObject(raw) {
		return Object{}, false
	}
	var sub Object
	if err := json.Unmarshal(raw, &sub); err != nil {
		return Object{}, false
	}
	return sub, true
}

// Strings возвращает значение-массив как набор строк
func (o Object) Strings(key string) ([]string, bool) {
	raw, ok := o.values[key]
	if !ok || !IsArray(raw) {
		return nil, false
	}
	return StringsOf(raw)
}

// StringsOf декодирует массив, оставляя только строковые элементы на своих местах;
// нестроковые заменяются пустой строкой
func StringsOf(raw json.RawMessage) ([]string, bool) {
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	out := make([]string, len(items))
	for i, item := range items {
		if s, ok := item.(string); ok {
			out[i] = s
		}
	}
	return out, true
}

func IsObject(raw json.RawMessage) bool {
	return firstByte(raw) == '{'
}

func IsArray(raw json.RawMessage) bool {
	return firstByte(raw) == '['
}

func IsNumber(raw json.RawMessage) bool {
	b := firstByte(raw)
	return b == '-' || (b >= '0' && b <= '9')
}

func IsString(raw json.RawMessage) bool {
	return firstByte(raw) == '"'
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
