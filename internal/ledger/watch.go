package ledger

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher surfaces ledger writes that bypassed this process. Each
// out-of-band modification produces one note on Notes.
type Watcher struct {
	ledger  *Ledger
	watcher *fsnotify.Watcher
	notes   chan string
}

// Watch starts observing the run directory for ledger file changes.
// Callers must Close the returned watcher.
func (l *Ledger) Watch() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fw.Add(l.runDir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", l.runDir, err)
	}

	w := &Watcher{
		ledger:  l,
		watcher: fw,
		notes:   make(chan string, 16),
	}
	go w.loop()
	return w, nil
}

// Notes delivers one message per out-of-band ledger write. The channel
// closes when the watcher is closed.
func (w *Watcher) Notes() <-chan string {
	return w.notes
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	defer close(w.notes)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != fileName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if w.ledger.changedExternally() {
				select {
				case w.notes <- fmt.Sprintf("cost ledger modified outside this process: %s", event.Name):
				default:
					// Drop when nobody is draining; the next Total()
					// still sees the new entries.
				}
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
