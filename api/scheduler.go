/*
scheduler.go - Watched-file import scheduler

PURPOSE:
  Periodically checks a workbook on disk (e.g. a shared folder the agency
  exports to) and imports it whenever its modification time changes.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Detects changes by modification time, not content
  - A file that fails to import is not retried until it changes again
  - Every attempt is recorded in import_runs by agency.Service

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 minute)
  - Enabled: Whether the watcher is active (default: true when Path is set)

USAGE:
  watcher := NewImportWatcher(svc, "/srv/viajante/agencia.xlsx")
  watcher.Start()
  // ... later
  watcher.Stop()

SEE ALSO:
  - handlers.go: ImportWorkbook endpoint (manual import)
  - agency/service.go: Service.ImportWorkbook
*/
package api

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/viajante/agency-analytics/agency"
)

// Importer imports workbook bytes.
type Importer interface {
	ImportWorkbook(ctx context.Context, filename string, data []byte) (*agency.ImportSummary, error)
}

// ImportWatcher imports a workbook file whenever it changes.
type ImportWatcher struct {
	Importer      Importer
	Path          string
	CheckInterval time.Duration
	Enabled       bool

	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	checkMu sync.Mutex
	lastMod time.Time
}

// NewImportWatcher creates a new watcher for path.
func NewImportWatcher(importer Importer, path string) *ImportWatcher {
	return &ImportWatcher{
		Importer:      importer,
		Path:          path,
		CheckInterval: 1 * time.Minute,
		Enabled:       path != "",
	}
}

// Start begins the watcher.
func (iw *ImportWatcher) Start() {
	iw.mu.Lock()
	defer iw.mu.Unlock()

	if !iw.Enabled {
		log.Info("[Watcher] Disabled, not starting")
		return
	}
	if iw.ticker != nil {
		return
	}

	iw.ticker = time.NewTicker(iw.CheckInterval)
	iw.stop = make(chan struct{})
	iw.wg.Add(1)

	go iw.run(iw.ticker, iw.stop)

	log.Infof("[Watcher] Watching %s every %v", iw.Path, iw.CheckInterval)
}

// Stop stops the watcher and waits for an in-flight import.
func (iw *ImportWatcher) Stop() {
	iw.mu.Lock()
	defer iw.mu.Unlock()

	if iw.ticker != nil {
		iw.ticker.Stop()
		close(iw.stop)
		iw.wg.Wait()
		iw.ticker = nil
		log.Info("[Watcher] Stopped")
	}
}

func (iw *ImportWatcher) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer iw.wg.Done()

	// Run immediately on start
	iw.check()

	for {
		select {
		case <-ticker.C:
			iw.check()
		case <-stop:
			return
		}
	}
}

func (iw *ImportWatcher) check() {
	if _, err := iw.checkAndImport(context.Background()); err != nil {
		log.Warningf("[Watcher] %v", err)
	}
}

// RunNow triggers an immediate check. It reports whether an import was
// attempted.
func (iw *ImportWatcher) RunNow(ctx context.Context) (bool, error) {
	return iw.checkAndImport(ctx)
}

func (iw *ImportWatcher) checkAndImport(ctx context.Context) (bool, error) {
	iw.checkMu.Lock()
	defer iw.checkMu.Unlock()

	info, err := os.Stat(iw.Path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", iw.Path, err)
	}
	if info.ModTime().Equal(iw.lastMod) {
		return false, nil
	}

	data, err := os.ReadFile(iw.Path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", iw.Path, err)
	}

	// Remember the version even on failure; a broken file waits for the next change.
	iw.lastMod = info.ModTime()

	summary, err := iw.Importer.ImportWorkbook(ctx, filepath.Base(iw.Path), data)
	if err != nil {
		return true, fmt.Errorf("failed to import %s: %w", iw.Path, err)
	}

	log.Infof("[Watcher] Imported %s: %d reservas, %d clientes, %d destinos",
		summary.Filename, summary.Reservations, summary.Customers, summary.Destinations)
	return true, nil
}
