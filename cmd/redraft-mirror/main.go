package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"redraft/engine/internal/appdirs"
	"redraft/engine/internal/envfile"
	"redraft/engine/internal/envutil"
	"redraft/engine/internal/logging"
	docsync "redraft/engine/internal/sync"
)

// mirror keeps one local file and one store document in step, in both
// directions. Content the mirror itself wrote is remembered, so the watch
// event it causes does not echo back to the store.
type mirror struct {
	path    string
	channel *docsync.Channel
	logger  *slog.Logger

	mu       sync.Mutex
	lastSeen string
	dirty    bool
}

func main() {
	envfile.Load()
	var path, url string
	flag.StringVar(&path, "file", "", "local file to mirror (default <data-dir>/documents/default.md)")
	flag.StringVar(&url, "url", envutil.String("REDRAFT_SYNC_URL", "ws://127.0.0.1:9600/ws/default"), "store document endpoint")
	flag.Parse()
	if path == "" {
		dataDir, err := appdirs.DataDir()
		if err != nil {
			log.Fatalf("mirror init failed: %v", err)
		}
		path = filepath.Join(appdirs.DocumentsDir(dataDir), "default.md")
	}

	logger := logging.Stderr(envutil.Bool("REDRAFT_DEBUG")).With("component", "mirror")
	absPath, err := filepath.Abs(path)
	if err != nil {
		log.Fatalf("mirror init failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		log.Fatalf("create %s: %v", filepath.Dir(absPath), err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		if err := os.WriteFile(absPath, nil, 0o644); err != nil {
			log.Fatalf("create %s: %v", absPath, err)
		}
	}

	m := &mirror{path: absPath, logger: logger}
	m.channel = docsync.New(url, docsync.WithLogger(logger))
	m.channel.OnDocument(m.applyRemote)
	m.channel.OnState(func(state docsync.State, detail string) {
		logger.Info("mirror.sync_state", "state", string(state), "detail", detail)
	})

	// A non-empty local file is queued before the connection opens, so it
	// wins the init reconciliation. An empty file defers to the store.
	if content, err := os.ReadFile(absPath); err == nil && len(content) > 0 {
		m.remember(string(content))
		m.channel.Send(string(content))
	}
	m.channel.Connect()
	defer m.channel.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatalf("watch setup failed: %v", err)
	}
	defer watcher.Close()
	// Watch the directory: editors often replace the file on save instead
	// of writing it in place.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		log.Fatalf("watch %s: %v", filepath.Dir(absPath), err)
	}
	logger.Info("mirror.started", "file", absPath, "url", url)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(absPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			m.markDirty()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("mirror.watch_error", "error", err.Error())
		case <-ticker.C:
			if m.takeDirty() {
				m.pushLocal()
			}
		}
	}
}

// applyRemote writes an inbound snapshot to the local file.
func (m *mirror) applyRemote(snapshot string) {
	m.mu.Lock()
	if snapshot == m.lastSeen {
		m.mu.Unlock()
		return
	}
	m.lastSeen = snapshot
	m.mu.Unlock()
	if err := os.WriteFile(m.path, []byte(snapshot), 0o644); err != nil {
		m.logger.Error("mirror.write_failed", "path", m.path, "error", err.Error())
		return
	}
	m.logger.Info("mirror.applied_remote", "bytes", len(snapshot))
}

// pushLocal sends the current file content to the store, unless it matches
// what the mirror last saw.
func (m *mirror) pushLocal() {
	content, err := os.ReadFile(m.path)
	if err != nil {
		m.logger.Warn("mirror.read_failed", "path", m.path, "error", err.Error())
		return
	}
	text := string(content)
	m.mu.Lock()
	if text == m.lastSeen {
		m.mu.Unlock()
		return
	}
	m.lastSeen = text
	m.mu.Unlock()
	m.channel.Send(text)
	m.logger.Info("mirror.pushed_local", "bytes", len(text))
}

func (m *mirror) remember(content string) {
	m.mu.Lock()
	m.lastSeen = content
	m.mu.Unlock()
}

func (m *mirror) markDirty() {
	m.mu.Lock()
	m.dirty = true
	m.mu.Unlock()
}

func (m *mirror) takeDirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	dirty := m.dirty
	m.dirty = false
	return dirty
}
