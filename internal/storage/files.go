// Package storage складывает собранные формы в JSON-файлы на диске сайта.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Каталоги относительно корня сайта
const (
	DirTmp      = "data/tmp"
	DirFormJSON = "send_form_json"

	formClassKey     = "_formClass"
	defaultFormClass = "form"
)

var formClassCleaner = regexp.MustCompile(`(?i)[^a-z0-9_]`)

// Files файловое хранилище результатов
type Files struct {
	root string
	now  func() time.Time
}

func NewFiles(root string) *Files {
	return &Files{root: root, now: time.Now}
}

// TmpDir каталог временных результатов button_json
func (f *Files) TmpDir() string {
	return filepath.Join(f.root, DirTmp)
}

// SaveButtonJSON пишет результат в data/tmp/shino_<дата>_<уникальный>.json
func (f *Files) SaveButtonJSON(data any) (string, error) {
	uniq := strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
	name := fmt.Sprintf("shino_%s_%s.json", f.now().Format("2006-01-02_15-04-05"), uniq)
	if err := f.write(f.TmpDir(), name, data); err != nil {
		return "", err
	}
	return name, nil
}

// SaveFormJSON перезаписывает send_form_json/form_<class>_db_paths.json.
// Класс формы берётся из ключа _formClass и в файл не попадает.
func (f *Files) SaveFormJSON(data map[string]any) (string, error) {
	class := defaultFormClass
	if raw, ok := data[formClassKey]; ok {
		if s, ok := raw.(string); ok {
			class = formClassCleaner.ReplaceAllString(s, "")
		}
		delete(data, formClassKey)
	}

	name := "form_" + class + "_db_paths.json"
	if err := f.write(filepath.Join(f.root, DirFormJSON), name, data); err != nil {
		return "", err
	}
	return name, nil
}

// ReadTmp читает ранее сохранённый результат по имени файла
func (f *Files) ReadTmp(name string) ([]byte, error) {
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".json") {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(filepath.Join(f.TmpDir(), name))
}

func (f *Files) write(dir, name string, data any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(data); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, name), bytes.TrimRight(buf.Bytes(), "\n"), 0o644); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}
