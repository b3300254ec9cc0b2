package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Archive keeps one JSON report file per sweep run next to the database
// audit trail.
type Archive struct {
	Dir string
}

func NewArchive(dir string) *Archive {
	return &Archive{
		Dir: dir,
	}
}

// SaveReport writes data as <name>.json. An empty name gets a random UUID.
func (a *Archive) SaveReport(name string, data any) (string, error) {
	if err := a.ensureDir(); err != nil {
		return "", fmt.Errorf("failed to ensure archive directory: %w", err)
	}

	if name == "" {
		name = uuid.NewString()
	}
	filename := name + ".json"
	path := filepath.Join(a.Dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	log.Printf("Audit: saved sweep report %s", path)
	return filename, nil
}

// Prune removes reports last written before cutoff. A missing directory
// holds nothing to prune.
func (a *Archive) Prune(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(a.Dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read archive directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return removed, fmt.Errorf("failed to stat report %s: %w", entry.Name(), err)
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(a.Dir, entry.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove report %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

func (a *Archive) ensureDir() error {
	if _, err := os.Stat(a.Dir); os.IsNotExist(err) {
		if err := os.MkdirAll(a.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create archive directory: %w", err)
		}
	}
	return nil
}
