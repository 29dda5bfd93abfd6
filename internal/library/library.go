package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"git.lost.host/meutraa/ryth/internal/archive"
	"git.lost.host/meutraa/ryth/internal/game"
	"git.lost.host/meutraa/ryth/internal/store"
)

const (
	ManifestName = "beatmaps.json"
	archiveExt   = ".osz"
)

var (
	ErrAlreadyLoaded = errors.New("all charts in this archive are already loaded")
	ErrNotArchive    = errors.New("not a .osz archive")
)

// Library fills the store with charts from bundled and uploaded archives
type Library struct {
	Fetcher   Fetcher
	Extractor archive.Extractor
	Store     *store.Store
	Log       *zap.Logger
}

func (l *Library) log() *zap.Logger {
	if nil == l.Log {
		return zap.NewNop()
	}
	return l.Log
}

func (l *Library) extractor() archive.Extractor {
	if nil == l.Extractor {
		return &archive.DefaultExtractor{Log: l.Log}
	}
	return l.Extractor
}

// Manifest lists the archives the fetcher can serve. A missing or
// malformed manifest is an empty library.
func (l *Library) Manifest(ctx context.Context) []string {
	data, err := l.Fetcher.Fetch(ctx, ManifestName)
	if nil != err {
		l.log().Warn("unable to fetch manifest", zap.Error(err))
		return nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); nil != err {
		l.log().Warn("unable to read manifest", zap.Error(err))
		return nil
	}
	return names
}

// LoadManifest extracts every archive in the manifest. Archives that
// fail to fetch or extract are skipped, as are charts without notes. The
// first chart is selected when nothing is yet.
func (l *Library) LoadManifest(ctx context.Context) []*game.Chart {
	var charts []*game.Chart
	for _, name := range l.Manifest(ctx) {
		if nil != ctx.Err() {
			break
		}
		data, err := l.Fetcher.Fetch(ctx, name)
		if nil != err {
			l.log().Warn("unable to fetch archive", zap.String("archive", name), zap.Error(err))
			continue
		}
		extracted, err := l.extractor().Extract(data)
		if nil != err {
			l.log().Warn("unable to load archive", zap.String("archive", name), zap.Error(err))
			continue
		}
		playable, err := archive.Playable(extracted)
		if nil != err {
			l.log().Warn("unable to load archive", zap.String("archive", name), zap.Error(err))
			continue
		}
		l.log().Info("loaded archive", zap.String("archive", name), zap.Int("charts", len(playable)))
		charts = append(charts, playable...)
	}

	if nil != l.Store {
		l.Store.AddCharts(charts)
		if nil == l.Store.Current() && len(charts) > 0 {
			l.Store.SetCurrent(charts[0])
		}
	}
	return charts
}

// Import adds the playable charts of an uploaded archive that are not
// loaded yet, and selects the first of them.
func (l *Library) Import(name string, data []byte) ([]*game.Chart, error) {
	if !strings.HasSuffix(strings.ToLower(name), archiveExt) {
		return nil, ErrNotArchive
	}
	extracted, err := l.extractor().Extract(data)
	if nil != err {
		return nil, err
	}
	playable, err := archive.Playable(extracted)
	if nil != err {
		return nil, err
	}

	added := l.Store.AddCharts(playable)
	if len(added) == 0 {
		return nil, ErrAlreadyLoaded
	}
	l.Store.SetCurrent(added[0])
	l.log().Info("imported archive", zap.String("archive", name), zap.Int("charts", len(added)))
	return added, nil
}

func (l *Library) ImportFile(file string) ([]*game.Chart, error) {
	data, err := os.ReadFile(file)
	if nil != err {
		return nil, err
	}
	return l.Import(filepath.Base(file), data)
}

// WriteManifest lists the archives in dir into dir/beatmaps.json
func WriteManifest(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if nil != err {
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), archiveExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	data, err := json.MarshalIndent(names, "", "  ")
	if nil != err {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), data, 0o644); nil != err {
		return nil, fmt.Errorf("unable to write manifest: %w", err)
	}
	return names, nil
}

// Watch imports archives created or rewritten in dir until ctx is done.
// onImport, if set, is called with the charts of each import.
func (l *Library) Watch(ctx context.Context, dir string, onImport func([]*game.Chart)) error {
	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); nil != err {
		return fmt.Errorf("unable to watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 || !strings.HasSuffix(event.Name, archiveExt) {
				continue
			}
			charts, err := l.ImportFile(event.Name)
			if errors.Is(err, ErrAlreadyLoaded) {
				continue
			}
			if nil != err {
				// Usually a partial write, the next write event retries
				l.log().Debug("unable to import", zap.String("file", event.Name), zap.Error(err))
				continue
			}
			if nil != onImport {
				onImport(charts)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.log().Warn("watcher error", zap.Error(err))
		}
	}
}
