package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
)

// SeedFile is the on-disk layout of imported thread records.
type SeedFile struct {
	Threads []domain.Thread `yaml:"threads"`
}

// LoadSeedFile reads threads from a YAML seed file. A missing file yields no threads.
func LoadSeedFile(path string) ([]domain.Thread, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return seed.Threads, nil
}

// SeedWatcher reloads a MemoryStore whenever its seed file changes.
type SeedWatcher struct {
	path    string
	store   *MemoryStore
	logger  *zap.Logger
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

const seedDebounceDelay = 500 * time.Millisecond

// WatchSeedFile starts watching the directory of path. Writes and creates of
// the seed file trigger a debounced reload; parse failures keep the old data.
func WatchSeedFile(path string, s *MemoryStore, logger *zap.Logger) (*SeedWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch seed directory: %w", err)
	}

	w := &SeedWatcher{
		path:    filepath.Clean(path),
		store:   s,
		logger:  logger,
		watcher: fsWatcher,
		stopCh:  make(chan struct{}),
	}
	go w.watchLoop()

	logger.Info("Seed file hot reloading enabled", zap.String("path", path))
	return w, nil
}

func (w *SeedWatcher) watchLoop() {
	defer w.watcher.Close()

	var debounceTimer *time.Timer
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(seedDebounceDelay, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Seed watcher error", zap.Error(err))

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}

func (w *SeedWatcher) reload() {
	threads, err := LoadSeedFile(w.path)
	if err != nil {
		w.logger.Error("Seed reload failed, keeping previous threads", zap.Error(err))
		return
	}
	w.store.Replace(threads)
	w.logger.Info("Seed file reloaded",
		zap.String("path", w.path),
		zap.Int("threads", len(threads)),
		zap.Int("nodes", CountNodes(threads)),
	)
}

// Stop ends the watch loop.
func (w *SeedWatcher) Stop() {
	close(w.stopCh)
}
