package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BrunoKrugel/jpegcheck/internal/model"
	"github.com/fsnotify/fsnotify"
)

// Watch inspects candidates under root as they are created or written. A
// file is inspected once it has been quiet for the settle period, so a
// transfer still in progress is not reported. The channel is closed when ctx
// is done.
func (s *Scanner) Watch(ctx context.Context, root string) (<-chan model.Result, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := addTree(w, root); err != nil {
		w.Close()
		return nil, err
	}

	out := make(chan model.Result)
	go s.watchLoop(ctx, w, out)

	s.log.Info().Str("root", root).Dur("settle", s.opts.Settle).Msg("watching")
	return out, nil
}

func (s *Scanner) watchLoop(ctx context.Context, w *fsnotify.Watcher, out chan<- model.Result) {
	defer close(out)
	defer w.Close()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(s.settleTick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			s.handleEvent(w, ev, pending)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.log.Warn().Err(err).Msg("watch error")

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < s.opts.Settle {
					continue
				}
				delete(pending, path)
				select {
				case out <- s.Inspect(path):
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (s *Scanner) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event, pending map[string]time.Time) {
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		delete(pending, ev.Name)

	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if err := addTree(w, ev.Name); err != nil {
				s.log.Warn().Err(err).Str("path", ev.Name).Msg("watch add failed")
			}
			return
		}
		if info.Mode().IsRegular() && s.filter.Match(ev.Name) {
			pending[ev.Name] = time.Now()
		}
	}
}

func addTree(w *fsnotify.Watcher, root string) error {
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
