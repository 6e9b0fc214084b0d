// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package canvas

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates the image cache when files in the media
// directory change, so scenes pick up edited assets without a restart.
type Watcher struct {
	w    *fsnotify.Watcher
	done chan struct{}
}

// WatchMedia starts watching the given directory. A missing or
// unwatchable directory is not an error; it just returns nil.
func WatchMedia(dir string) (*Watcher, error) {
	if dir == "" {
		return nil, nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		slog.Debug("media directory not watchable", "dir", dir, "err", err)
		return nil, nil
	}
	w := &Watcher{w: fw, done: make(chan struct{})}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				slog.Debug("media changed, dropping cached image", "path", ev.Name)
				InvalidateImage(ev.Name)
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			slog.Warn("media watcher error", "err", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}
	close(w.done)
	return w.w.Close()
}
