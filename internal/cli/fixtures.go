package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/okian/motorgen/internal/fixtures"
	"github.com/okian/motorgen/pkg/logger"
)

func newFixturesCmd() *cobra.Command {
	var (
		dir      string
		seed     uint64
		motors   int
		sections int
		shiftJIS bool
	)
	d := fixtures.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Generate a synthetic ranking archive and race table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fc := fixtures.DefaultConfig()
			fc.Seed = seed
			fc.Motors = motors
			fc.Sections = sections
			fc.ShiftJIS = shiftJIS

			a := fixtures.Generate(fc)
			p, err := fixtures.Write(dir, a)
			if err != nil {
				return err
			}
			logger.Get().Info(cmd.Context(), "fixtures written",
				logger.String("bins_dir", p.BinsDir),
				logger.String("races", p.Races),
				logger.Int("documents", len(a.Documents)))

			t := newTable(cmd.OutOrStdout(), "fixtures")
			t.AppendHeader(table.Row{"Metric", "Value"})
			t.AppendRows([]table.Row{
				{"documents", len(a.Documents)},
				{"race rows", a.Races.Len()},
				{"replacements", len(a.Replacements)},
				{"void races", len(a.VoidRaces)},
				{"bins dir", p.BinsDir},
				{"races", p.Races},
			})
			t.Render()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "run: motorgen run --bins-dir %s --races %s\n", p.BinsDir, p.Races)
			return err
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&dir, "dir", "data", "Directory receiving bins/ and races.csv")
	fs.Uint64Var(&seed, "seed", d.Seed, "Random seed")
	fs.IntVar(&motors, "motors", d.Motors, "Motor slots per venue")
	fs.IntVar(&sections, "sections", d.Sections, "Meetings per venue")
	fs.BoolVar(&shiftJIS, "shift-jis", false, "Encode documents as Shift_JIS")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "motorgen %s (%s)\n", Version, GitCommit)
			return err
		},
	}
}
