package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"sto/internal/configs"
)

type opt struct {
	Host string `yaml:"host"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	Port string `yaml:"port"`
	Name string `yaml:"name"`

	HTTPAddress string `yaml:"http_address"`
	NatsURL     string `yaml:"nats_url"`

	// SiteRoot корень сайта: save_bd/, button_json/, data/tmp/, send_form_json/
	SiteRoot string `yaml:"site_root"`
	// SitePrefix префикс абсолютных путей картинок, например /pavel_sto
	SitePrefix string `yaml:"site_prefix"`
	Templates  string `yaml:"templates"`
	// ConfigTTL время жизни конфига в кеше, 0 без ограничения
	ConfigTTL time.Duration `yaml:"config_ttl"`
}

func defaultOpt() opt {
	return opt{
		HTTPAddress: ":3000",
		SiteRoot:    ".",
		Templates:   "./templates",
	}
}

// loadOpt файл (если задан), затем переменные окружения,
// незаданное подключение к базе берётся из save_bd/include.json
func loadOpt(path string) (opt, error) {
	o := defaultOpt()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return o, err
		}
		if err = yaml.Unmarshal(data, &o); err != nil {
			return o, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	o.applyEnv(os.Getenv)

	if err := o.applyInclude(configs.NewLoader(o.SiteRoot)); err != nil {
		return o, err
	}
	return o, nil
}

func (o *opt) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	// примеры можно посмотреть в .env файле проекта
	set(&o.Host, "PG_HOST")
	set(&o.User, "PG_USER")
	set(&o.Pass, "PG_PASS")
	set(&o.Port, "PG_PORT")
	set(&o.Name, "PG_NAME")
	set(&o.HTTPAddress, "HTTP_ADDRESS")
	set(&o.NatsURL, "NATS_URL")
	set(&o.SiteRoot, "SITE_ROOT")
	set(&o.SitePrefix, "SITE_PREFIX")
}

// applyInclude заполняет пустые поля подключения из include.json;
// отсутствие файла не ошибка
func (o *opt) applyInclude(loader *configs.Loader) error {
	if o.Host != "" && o.Name != "" {
		return nil
	}

	conn, err := loader.Include()
	if err != nil {
		if errors.Is(err, configs.ErrNotFound) {
			return nil
		}
		return err
	}

	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&o.Host, conn.Host)
	fill(&o.Port, conn.Port)
	fill(&o.Name, conn.Database)
	fill(&o.User, conn.Username)
	fill(&o.Pass, conn.Password)
	return nil
}

func (o *opt) ConnectionString() string {
	host, port := o.Host, o.Port
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "5432"
	}

	return fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=disable", o.User, o.Pass, host, port, o.Name)
}
