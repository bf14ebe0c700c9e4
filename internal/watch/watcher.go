package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/snarg/voxmood/internal/analyze"
)

var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
}

// Status reports watcher state for the health endpoint.
type Status struct {
	Status        string `json:"status"`
	WatchDir      string `json:"watch_dir"`
	FilesEnqueued int64  `json:"files_enqueued"`
	FilesSkipped  int64  `json:"files_skipped"`
}

// Watcher monitors a drop directory for new audio files and enqueues them on
// the analysis pool. This provides a batch-ingest alternative to the HTTP
// upload endpoint.
type Watcher struct {
	pool     *analyze.Pool
	watchDir string
	log      zerolog.Logger

	watcher *fsnotify.Watcher
	ctx     context.Context

	// Debounce: coalesce rapid Create+Write events on the same file.
	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer

	// Each file is enqueued at most once per process lifetime.
	seenMu sync.Mutex
	seen   map[string]bool

	filesEnqueued atomic.Int64
	filesSkipped  atomic.Int64
	status        atomic.Value // string: "starting", "watching", "stopped"
}

// New creates a watcher over watchDir feeding the given pool.
func New(pool *analyze.Pool, watchDir string, log zerolog.Logger) *Watcher {
	w := &Watcher{
		pool:           pool,
		watchDir:       watchDir,
		log:            log.With().Str("component", "watcher").Logger(),
		debounceTimers: make(map[string]*time.Timer),
		seen:           make(map[string]bool),
	}
	w.status.Store("starting")
	return w
}

// Start initializes the fsnotify watcher, adds all existing directories, and
// begins watching. Existing audio files are enqueued oldest-first in a
// background goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fsw
	w.ctx = ctx

	dirCount := 0
	err = filepath.WalkDir(w.watchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.log.Warn().Err(err).Str("path", path).Msg("error walking directory")
			return nil
		}
		if d.IsDir() {
			if addErr := fsw.Add(path); addErr != nil {
				w.log.Warn().Err(addErr).Str("path", path).Msg("failed to watch directory")
			} else {
				dirCount++
			}
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return err
	}

	w.log.Info().
		Int("directories", dirCount).
		Str("watch_dir", w.watchDir).
		Msg("drop directory watcher initialized")

	go w.watchLoop()
	go w.backfill()

	return nil
}

// Stop closes the fsnotify watcher.
func (w *Watcher) Stop() {
	w.status.Store("stopped")
	if w.watcher != nil {
		w.watcher.Close()
	}
	w.log.Info().
		Int64("files_enqueued", w.filesEnqueued.Load()).
		Int64("files_skipped", w.filesSkipped.Load()).
		Msg("drop directory watcher stopped")
}

// CurrentStatus returns watcher state for the health endpoint.
func (w *Watcher) CurrentStatus() Status {
	s, _ := w.status.Load().(string)
	return Status{
		Status:        s,
		WatchDir:      w.watchDir,
		FilesEnqueued: w.filesEnqueued.Load(),
		FilesSkipped:  w.filesSkipped.Load(),
	}
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			// New subdirectory: watch it so files dropped inside are seen.
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := w.watcher.Add(event.Name); err != nil {
					w.log.Warn().Err(err).Str("path", event.Name).Msg("failed to watch new directory")
				}
				continue
			}

			if !isAudioFile(event.Name) {
				continue
			}

			w.scheduleEnqueue(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

// scheduleEnqueue debounces by 500ms so a file still being written is only
// picked up once it has settled.
func (w *Watcher) scheduleEnqueue(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if t, ok := w.debounceTimers[path]; ok {
		t.Reset(500 * time.Millisecond)
		return
	}

	w.debounceTimers[path] = time.AfterFunc(500*time.Millisecond, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimers, path)
		w.debounceMu.Unlock()

		w.enqueue(path)
	})
}

func (w *Watcher) enqueue(path string) {
	w.seenMu.Lock()
	if w.seen[path] {
		w.seenMu.Unlock()
		w.filesSkipped.Add(1)
		return
	}
	w.seen[path] = true
	w.seenMu.Unlock()

	if !w.pool.Enqueue(analyze.Job{Path: path}) {
		w.filesSkipped.Add(1)
		return
	}
	w.filesEnqueued.Add(1)
	w.log.Debug().Str("path", path).Msg("audio file enqueued")
}

// backfill enqueues audio files already present in the drop directory,
// oldest-first by modification time.
func (w *Watcher) backfill() {
	type fileEntry struct {
		path    string
		modTime time.Time
	}
	var files []fileEntry

	_ = filepath.WalkDir(w.watchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isAudioFile(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, fileEntry{path: path, modTime: info.ModTime()})
		return nil
	})

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	if len(files) > 0 {
		w.log.Info().Int("files", len(files)).Msg("backfill starting")
	}

	for _, f := range files {
		select {
		case <-w.ctx.Done():
			w.status.Store("stopped")
			return
		default:
		}
		w.enqueue(f.path)
	}

	w.status.Store("watching")
}

func isAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}
