package tui

import (
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// watchDebounce collapses the burst of events a single atomic save produces.
const watchDebounce = 100 * time.Millisecond

// taskWatcher reports changes to task records in a directory.
type taskWatcher struct {
	watcher *fsnotify.Watcher
	changed chan struct{}
	stopCh  chan struct{}
}

// newTaskWatcher starts watching dir for task record changes.
func newTaskWatcher(dir string) (*taskWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	tw := &taskWatcher{
		watcher: w,
		changed: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
	go tw.loop()
	return tw, nil
}

func (tw *taskWatcher) loop() {
	debounce := time.NewTimer(0)
	<-debounce.C
	pending := false

	for {
		select {
		case <-tw.stopCh:
			return

		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if !isTaskRecord(event) {
				continue
			}
			pending = true
			debounce.Reset(watchDebounce)

		case <-debounce.C:
			if !pending {
				continue
			}
			pending = false
			select {
			case tw.changed <- struct{}{}:
			default:
				// A reload is already queued.
			}

		case _, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// isTaskRecord skips the .tmp files written during atomic saves.
func isTaskRecord(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return filepath.Ext(event.Name) == ".json"
}

// wait returns a command that blocks until the next change.
// It yields nil once the watcher is closed.
func (tw *taskWatcher) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-tw.changed:
			return MsgTasksChanged{}
		case <-tw.stopCh:
			return nil
		}
	}
}

// Close stops the watcher.
func (tw *taskWatcher) Close() error {
	close(tw.stopCh)
	return tw.watcher.Close()
}
