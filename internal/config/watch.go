package config

import (
	"log"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a config document whenever the underlying file changes,
// publishing each successfully parsed Target on a channel. A parse failure
// is logged and the previous Target keeps serving — a bad edit-in-progress
// should never take a running driver down.
type Watcher struct {
	w   *fsnotify.Watcher
	out chan *Target
	log *log.Logger
}

// WatchFile starts watching path for changes, seeding out with the initial
// load.
func WatchFile(path string, logger *log.Logger) (*Watcher, error) {
	initial, err := Load(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}

	cw := &Watcher{
		w:   fw,
		out: make(chan *Target, 1),
		log: logger,
	}
	cw.out <- initial

	go cw.loop(path)

	return cw, nil
}

func (cw *Watcher) loop(path string) {
	for {
		select {
		case ev, ok := <-cw.w.Events:
			if !ok {
				return
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			t, err := Load(path)
			if err != nil {
				cw.log.Printf("config: reload of %s failed, keeping previous: %v", path, err)
				continue
			}

			select {
			case <-cw.out: // drop the stale pending value, if any
			default:
			}

			cw.out <- t
		case err, ok := <-cw.w.Errors:
			if !ok {
				return
			}

			cw.log.Printf("config: watch error on %s: %v", path, err)
		}
	}
}

// Target returns a channel delivering the latest successfully loaded
// Target; it always holds at most one value, the most recent.
func (cw *Watcher) Target() <-chan *Target { return cw.out }

func (cw *Watcher) Close() error { return cw.w.Close() }
