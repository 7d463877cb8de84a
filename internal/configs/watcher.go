package configs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher сбрасывает кеш Loader при изменении файлов конфигов,
// чтобы правки save_bd и button_json подхватывались без перезапуска
type Watcher struct {
	loader  *Loader
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	doneCh  chan struct{}
}

func NewWatcher(loader *Loader, logger *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{DirSaveBD, DirButtonJSON} {
		path := filepath.Join(loader.root, dir)
		if _, err = os.Stat(path); err != nil {
			logger.Warn("config dir is not watched", zap.String("dir", path), zap.Error(err))
			continue
		}
		if err = w.Add(path); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	return &Watcher{
		loader:  loader,
		watcher: w,
		logger:  logger,
		doneCh:  make(chan struct{}),
	}, nil
}

// Run обрабатывает события до отмены контекста, затем закрывает fsnotify
// Close освобождает дескриптор fsnotify; повторный вызов безопасен.
// Нужен, если Run так и не был запущен.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.doneCh)
	defer func() {
		_ = w.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("config watcher", zap.Error(err))
		}
	}
}

// Done закрывается после выхода из Run
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".json") {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	dir := filepath.Base(filepath.Dir(event.Name))
	name := strings.TrimSuffix(filepath.Base(event.Name), ".json")
	w.loader.Evict(dir, name)
	w.logger.Debug("config changed",
		zap.String("dir", dir),
		zap.String("name", name),
		zap.String("op", event.Op.String()),
		zap.Int("cached", w.loader.cache.Len()),
	)
}
