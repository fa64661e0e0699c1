package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"coreforge/internal/engine"
)

// Writer periodically snapshots every symbol the engine has touched to a
// single JSON document, written atomically. Grounded on the teacher's
// internal/worker.go tomb.v2-supervised loop shape, adapted from a
// fixed-size worker pool to a single ticking background task.
type Writer struct {
	eng      *engine.MatchingEngine
	path     string
	interval time.Duration
}

// NewWriter builds a writer for eng, snapshotting to path every interval.
func NewWriter(eng *engine.MatchingEngine, path string, interval time.Duration) *Writer {
	return &Writer{eng: eng, path: path, interval: interval}
}

// Run snapshots on every tick until t starts dying, then takes one final
// snapshot before returning so a graceful shutdown never loses more than
// the in-flight request (spec.md §4.3: "periodic ... and on graceful
// shutdown").
func (w *Writer) Run(t *tomb.Tomb) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.Dying():
			if err := w.snapshotOnce(); err != nil {
				log.Error().Err(err).Msg("final snapshot failed")
			}
			return nil
		case <-ticker.C:
			if err := w.snapshotOnce(); err != nil {
				log.Error().Err(err).Msg("periodic snapshot failed")
			}
		}
	}
}

func (w *Writer) snapshotOnce() error {
	symbols := w.eng.Symbols()
	snapshots := make([]engine.SymbolSnapshot, len(symbols))
	for i, symbol := range symbols {
		snapshots[i] = w.eng.SnapshotSymbol(symbol)
	}

	doc := buildDocument(snapshots)
	return writeAtomic(w.path, doc)
}

// writeAtomic marshals doc and writes it to path via a temp-file-plus-
// rename so a reader never observes a partially written snapshot
// (spec.md §4.3).
func writeAtomic(path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads path and replays it into eng. A missing file is not an error
// (first run); a corrupt file is logged and otherwise ignored — recovery
// never halts startup (spec.md §4.3, §7 CorruptSnapshot).
func Load(eng *engine.MatchingEngine, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Error().Err(err).Str("path", path).Msg("unable to read snapshot")
		}
		return
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Error().Err(err).Str("path", path).Msg("corrupt snapshot, starting empty")
		return
	}

	if err := doc.restoreInto(eng); err != nil {
		log.Error().Err(err).Str("path", path).Msg("corrupt snapshot, starting empty")
	}
}
