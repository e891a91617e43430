// Package prefs persists user preferences the sync engine depends on,
// most importantly the cloud-sync-enabled flag. The settings UI writes
// the file; this package reads it and watches it for changes.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/voxnote/voxnote/backend/internal/logging"
)

// Prefs is the on-disk preference document.
type Prefs struct {
	CloudSyncEnabled bool `json:"cloud_sync_enabled"`
}

// File reads and watches a JSON preference file.
type File struct {
	path string

	mu      sync.Mutex
	current Prefs

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// Load opens the preference file at path, creating it with defaults when
// absent.
func Load(path string) (*File, error) {
	f := &File{path: path}

	if err := f.reload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err := f.write(Prefs{}); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Current returns the last loaded preferences.
func (f *File) Current() Prefs {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// CloudSyncEnabled reports the persisted cloud-sync preference.
func (f *File) CloudSyncEnabled() bool {
	return f.Current().CloudSyncEnabled
}

// SetCloudSyncEnabled persists the flag. The change notification fires
// through the watcher like any external write.
func (f *File) SetCloudSyncEnabled(enabled bool) error {
	f.mu.Lock()
	p := f.current
	f.mu.Unlock()

	p.CloudSyncEnabled = enabled
	return f.write(p)
}

// Watch starts watching the preference file and invokes onChange with
// the fresh preferences after every external write.
func (f *File) Watch(onChange func(Prefs)) error {
	if f.watcher != nil {
		return fmt.Errorf("preference watcher already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	// Watch the directory: editors and the settings UI replace the file,
	// which drops a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch preference directory: %w", err)
	}

	f.watcher = watcher
	f.done = make(chan struct{})

	f.wg.Add(1)
	go f.watchLoop(onChange)

	return nil
}

// Close stops the watcher, if running.
func (f *File) Close() error {
	if f.watcher == nil {
		return nil
	}
	close(f.done)
	err := f.watcher.Close()
	f.wg.Wait()
	f.watcher = nil
	return err
}

func (f *File) watchLoop(onChange func(Prefs)) {
	defer f.wg.Done()

	for {
		select {
		case <-f.done:
			return
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(f.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := f.reload(); err != nil {
				logging.Warn("failed to reload preferences", logging.Fields{
					"path":  f.path,
					"error": err.Error(),
				})
				continue
			}
			onChange(f.Current())
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("preference watcher error", logging.Fields{"error": err.Error()})
		}
	}
}

func (f *File) reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}

	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to parse preferences: %w", err)
	}

	f.mu.Lock()
	f.current = p
	f.mu.Unlock()
	return nil
}

func (f *File) write(p Prefs) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return err
	}

	f.mu.Lock()
	f.current = p
	f.mu.Unlock()
	return nil
}
