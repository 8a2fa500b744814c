// Package watch observes a session's import root on disk so externally
// edited source files invalidate cached decodes and notify clients.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// sourceExts are the file types that carry field geometry or metadata.
var sourceExts = []string{".txt", ".shp", ".shx", ".dbf", ".prj"}

// ChangeCallback is called with the root-relative path of a changed source
// file.
type ChangeCallback func(path string)

// Watch starts an fsnotify watcher on the import root and reports source
// file changes until ctx is cancelled. cb (if non-nil) runs after every
// relevant create, write, remove or rename.
//
// New directories created at runtime are automatically added to the watch
// list, so a farm folder dropped into a watched root is picked up without a
// restart.
func Watch(ctx context.Context, root string, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					notifyDirSources(root, absPath, logger, cb)
					continue
				}
			}

			if !isSourceFile(absPath) {
				continue
			}

			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}

			// Removes and renames matter as much as writes: a deleted
			// patterns.txt changes the field's effective view.
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				logger.Debug("watcher: source changed",
					slog.String("path", rel),
					slog.String("op", ev.Op.String()))
				if cb != nil {
					cb(rel)
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// notifyDirSources reports source files already present in a newly created
// directory, e.g. after an unpacked archive is moved into the root.
func notifyDirSources(root, dirPath string, logger *slog.Logger, cb ChangeCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isSourceFile(path) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		logger.Debug("watcher: source found in new dir", slog.String("path", rel))
		if cb != nil {
			cb(rel)
		}
		return nil
	})
}

func isSourceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range sourceExts {
		if ext == want {
			return true
		}
	}
	return false
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
