package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/gitmorph/pkg/errors"
)

// Source produces commit log text and names the directories whose changes
// can alter it. *gitrepo.Reader implements Source.
type Source interface {
	Log(ctx context.Context) (string, error)
	WatchDirs() ([]string, error)
}

// watch reloads the log whenever the repository's refs change. Bursts of
// events are collapsed into one reload after debounce of quiet.
func (s *Server) watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create file watcher")
	}
	defer fw.Close()

	dirs, err := s.source.WatchDirs()
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := fw.Add(d); err != nil {
			return errors.Wrap(errors.ErrCodeRepository, err, "watch %s", d)
		}
	}
	s.logger.Info("watching repository", "dirs", len(dirs), "debounce", s.cfg.Debounce)

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ignoreEvent(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := fw.Add(ev.Name); err != nil {
						s.logger.Warn("watch new ref directory", "dir", ev.Name, "error", err)
					}
				}
			}
			s.logger.Debug("repository changed", "file", filepath.Base(ev.Name), "op", ev.Op.String())
			if timer == nil {
				timer = time.AfterFunc(s.cfg.Debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(s.cfg.Debounce)
			}

		case <-fire:
			if err := s.Reload(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("reload repository log", "error", err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("file watcher", "error", err)
		}
	}
}

// ignoreEvent filters lock files and files that never change the log.
func ignoreEvent(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return true
	}
	base := filepath.Base(ev.Name)
	switch {
	case strings.HasSuffix(base, ".lock"):
		return true
	case base == "index", base == "config", base == "description", base == "COMMIT_EDITMSG":
		return true
	case strings.Contains(filepath.ToSlash(ev.Name), "/logs/"):
		return true
	}
	return false
}
