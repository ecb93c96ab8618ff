package fixtures

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/motorgen/internal/adapters/table"
)

// Paths locates a written archive.
type Paths struct {
	BinsDir string
	Races   string
}

// Write stores the archive under dir: documents in dir/bins and the race
// table in dir/races.csv.
func Write(dir string, a *Archive) (Paths, error) {
	p := Paths{BinsDir: filepath.Join(dir, "bins"), Races: filepath.Join(dir, "races.csv")}
	if err := os.MkdirAll(p.BinsDir, 0o755); err != nil {
		return p, fmt.Errorf("failed to create %s: %w", p.BinsDir, err)
	}
	for _, d := range a.Documents {
		if err := os.WriteFile(filepath.Join(p.BinsDir, d.Name), d.Body, 0o644); err != nil {
			return p, fmt.Errorf("failed to write %s: %w", d.Name, err)
		}
	}
	if err := table.Write(p.Races, a.Races); err != nil {
		return p, err
	}
	return p, nil
}
