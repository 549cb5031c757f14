package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/extremebounce/arena/pkg/core"
)

// ReplayExport is the root JSON structure of a replay file.
type ReplayExport struct {
	LevelName string             `json:"levelName"`
	StartedAt time.Time          `json:"startedAt"`
	Roster    []core.SpawnPoint  `json:"roster"`
	Frames    []core.Snapshot    `json:"frames"`
	Events    []core.RoundEvent  `json:"events"`
	Outcome   *core.RoundOutcome `json:"outcome"`
}

// exportJSON writes the round data to a JSON file, gzipped when
// configured. Caller holds the lock.
func (b *Backend) exportJSON(outcome *core.RoundOutcome) error {
	export := ReplayExport{
		LevelName: b.levelName,
		StartedAt: b.startedAt,
		Roster:    b.roster,
		Frames:    b.frames,
		Events:    b.events,
		Outcome:   outcome,
	}

	if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	name := fmt.Sprintf("%s.%s.json", sanitizeName(b.levelName), b.startedAt.Format("20060102_150405"))
	if b.cfg.CompressOutput {
		name += ".gz"
	}
	path := filepath.Join(b.cfg.OutputDir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create replay file: %w", err)
	}
	defer f.Close()

	if b.cfg.CompressOutput {
		gz := gzip.NewWriter(f)
		if err := json.NewEncoder(gz).Encode(export); err != nil {
			gz.Close()
			return fmt.Errorf("failed to encode replay: %w", err)
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("failed to finish gzip stream: %w", err)
		}
	} else {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(export); err != nil {
			return fmt.Errorf("failed to encode replay: %w", err)
		}
	}

	b.exportedPath = path
	return nil
}

// sanitizeName makes a level name safe for use in a file name.
func sanitizeName(name string) string {
	if name == "" {
		return "round"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-")
	return replacer.Replace(name)
}
