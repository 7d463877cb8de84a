// Package configs загружает JSON-конфиги сайта (save_bd, button_json,
// include.json) и держит разобранные конфиги в кеше до изменения файла.
package configs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"sto/pkg/cache"
	"sto/pkg/jsonx"
)

// Каталоги конфигов относительно корня сайта
const (
	DirSaveBD     = "save_bd"
	DirButtonJSON = "button_json"

	includeFile = "include.json"
	driverPgSQL = "pgsql"
)

var (
	ErrNotFound       = errors.New("config not found")
	ErrInvalidName    = errors.New("invalid config name")
	ErrInvalidInclude = errors.New("invalid include.json")
	ErrNotPostgres    = errors.New("PostgreSQL required")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// DBConnection блок db_connection из include.json
type DBConnection struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UnmarshalJSON порт в include.json бывает и строкой, и числом
func (c *DBConnection) UnmarshalJSON(data []byte) error {
	type plain DBConnection
	var aux struct {
		plain
		Port json.RawMessage `json:"port"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = DBConnection(aux.plain)
	if len(aux.Port) > 0 && string(aux.Port) != "null" {
		var s string
		if err := json.Unmarshal(aux.Port, &s); err != nil {
			s = string(aux.Port)
		}
		c.Port = s
	}
	return nil
}

// Loader читает конфиги из корня сайта
type Loader struct {
	root  string
	ttl   time.Duration
	cache *cache.InMemory[jsonx.Object]
}

type LoaderOption func(*Loader)

// WithTTL ограничивает время жизни конфига в кеше; нужен там,
// где fsnotify не видит изменений (сетевые диски)
func WithTTL(ttl time.Duration) LoaderOption {
	return func(l *Loader) {
		l.ttl = ttl
	}
}

func NewLoader(root string, opts ...LoaderOption) *Loader {
	l := &Loader{
		root:  root,
		cache: cache.NewInMemory[jsonx.Object](),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RunJanitor чистит просроченные конфиги, пока не отменён контекст
func (l *Loader) RunJanitor(ctx context.Context, interval time.Duration) {
	l.cache.Run(ctx, interval)
}

// SaveConfig конфиг save_bd/<name>.json
func (l *Loader) SaveConfig(name string) (jsonx.Object, error) {
	return l.load(DirSaveBD, name)
}

// ButtonConfig конфиг button_json/<name>.json
func (l *Loader) ButtonConfig(name string) (jsonx.Object, error) {
	return l.load(DirButtonJSON, name)
}

// Include блок db_connection из save_bd/include.json; требуется драйвер pgsql
func (l *Loader) Include() (DBConnection, error) {
	data, err := os.ReadFile(filepath.Join(l.root, DirSaveBD, includeFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DBConnection{}, fmt.Errorf("%s: %w", includeFile, ErrNotFound)
		}
		return DBConnection{}, err
	}

	var include struct {
		DBConnection *DBConnection `json:"db_connection"`
	}
	if err = json.Unmarshal(data, &include); err != nil || include.DBConnection == nil {
		return DBConnection{}, ErrInvalidInclude
	}
	if include.DBConnection.Driver != driverPgSQL {
		return DBConnection{}, ErrNotPostgres
	}
	return *include.DBConnection, nil
}

func (l *Loader) load(dir, name string) (jsonx.Object, error) {
	if !namePattern.MatchString(name) {
		return jsonx.Object{}, fmt.Errorf("%q: %w", name, ErrInvalidName)
	}

	ctx := context.Background()
	key := cacheKey(dir, name)
	if cfg, ok, _ := l.cache.Get(ctx, key); ok {
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Join(l.root, dir, name+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return jsonx.Object{}, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return jsonx.Object{}, err
	}

	var cfg jsonx.Object
	if err = json.Unmarshal(data, &cfg); err != nil {
		return jsonx.Object{}, fmt.Errorf("failed to parse %s/%s.json: %w", dir, name, err)
	}

	_ = l.cache.Set(ctx, key, cfg, l.ttl)
	return cfg, nil
}

// Evict сбрасывает закешированный конфиг
func (l *Loader) Evict(dir, name string) {
	l.cache.Delete(context.Background(), cacheKey(dir, name))
}

func cacheKey(dir, name string) string {
	return dir + "/" + name
}
