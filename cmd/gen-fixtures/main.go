// Command gen-fixtures writes a synthetic ranking archive and race table
// for local pipeline runs.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/okian/motorgen/internal/fixtures"
	"github.com/okian/motorgen/pkg/logger"
)

func main() {
	d := fixtures.DefaultConfig()
	var (
		dir      = flag.String("dir", "data", "Output directory for bins/ and races.csv")
		seed     = flag.Uint64("seed", d.Seed, "Random seed")
		motors   = flag.Int("motors", d.Motors, "Motor slots per venue")
		sections = flag.Int("sections", d.Sections, "Meetings per venue")
		voidProb = flag.Float64("void", d.VoidProb, "Chance that a race is void")
		shiftJIS = flag.Bool("shift-jis", false, "Encode documents as Shift_JIS")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	ctx := context.Background()

	cfg := d
	cfg.Seed = *seed
	cfg.Motors = *motors
	cfg.Sections = *sections
	cfg.VoidProb = *voidProb
	cfg.ShiftJIS = *shiftJIS

	a := fixtures.Generate(cfg)
	p, err := fixtures.Write(*dir, a)
	if err != nil {
		log.Error(ctx, "failed to write fixtures", logger.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "fixtures written",
		logger.String("bins_dir", p.BinsDir),
		logger.String("races", p.Races),
		logger.Int("documents", len(a.Documents)),
		logger.Int("replacements", len(a.Replacements)),
		logger.Int("void_races", len(a.VoidRaces)))
}
