package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/juho05/log"

	"github.com/juho05/melodeon/config"
	"github.com/juho05/melodeon/playlists"
)

const watchDebounce = 10 * time.Second

type RunOptions struct {
	StartupScan config.StartupScanOption
	// Interval between periodic scans. 0 disables periodic scans.
	Interval time.Duration
	Watch    bool
}

// Run performs the startup scan and then rescans the music directory periodically and on file system
// changes until ctx is canceled.
func (s *Scanner) Run(ctx context.Context, options RunOptions) {
	switch options.StartupScan {
	case config.StartupScanDisabled:
		err := s.LoadCache(ctx)
		if err != nil {
			log.Warnf("startup scan disabled and scan cache could not be loaded: %s", err)
		}
		s.SkipFirstScan()
	case config.StartupScanFull:
		s.Scan(ctx, true)
	default:
		s.Scan(ctx, false)
	}

	var tick <-chan time.Time
	if options.Interval > 0 {
		ticker := time.NewTicker(options.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var events <-chan fsnotify.Event
	var watchErrors <-chan error
	var watcher *fsnotify.Watcher
	if options.Watch {
		var err error
		watcher, err = s.newWatcher()
		if err != nil {
			log.Errorf("watch music dir: %s", err)
		} else {
			defer watcher.Close()
			events = watcher.Events
			watchErrors = watcher.Errors
		}
	}

	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			s.Scan(ctx, false)
		case <-debounce.C:
			log.Tracef("music dir changed, rescanning...")
			s.Scan(ctx, false)
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if s.handleEvent(watcher, event) {
				debounce.Reset(watchDebounce)
			}
		case err, ok := <-watchErrors:
			if !ok {
				watchErrors = nil
				continue
			}
			log.Errorf("watch music dir: %s", err)
		}
	}
}

func (s *Scanner) newWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new watcher: %w", err)
	}
	err = s.watchTree(watcher, s.musicDir)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	return watcher, nil
}

func (s *Scanner) watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Warnf("watch: skipping %s: %s", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != s.musicDir && !s.scanHidden && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// handleEvent reports whether event should trigger a rescan. New directories are added to the watcher.
func (s *Scanner) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if strings.HasSuffix(name, ".tmp") || (!s.scanHidden && strings.HasPrefix(name, ".")) {
		return false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			err = s.watchTree(watcher, event.Name)
			if err != nil {
				log.Errorf("watch music dir: %s", err)
			}
			return true
		}
	}
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return true
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	return isAudioFile(event.Name) || playlists.IsPlaylist(event.Name) || playlists.IsLegacyPlaylist(event.Name)
}
