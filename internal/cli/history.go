package cli

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/cellcluster/pkg/io"
	"github.com/matzehuels/cellcluster/pkg/pipeline"
	"github.com/matzehuels/cellcluster/pkg/store"
)

const defaultHistoryLimit = 20

// historyCommand creates the run history command. Without a subcommand it
// lists recent runs.
func (c *CLI) historyCommand() *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded analysis runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openHistory(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo("No runs recorded yet")
				return nil
			}
			fmt.Println(historyTable(runs))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "run history database (default: data directory)")
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "number of runs to list (0 for all)")

	cmd.AddCommand(c.historyShowCommand(&dbPath))
	cmd.AddCommand(c.historyDeleteCommand(&dbPath))

	return cmd
}

// historyShowCommand creates the "history show" subcommand.
func (c *CLI) historyShowCommand(dbPath *string) *cobra.Command {
	var (
		formatStr string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show a recorded run, or re-export its results",
		Long: `Show a recorded run, or re-export its results.

The run may be given by any unique prefix of its id. With --format the stored
report is written again in any output format without repeating the analysis.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openHistory(cmd.Context(), *dbPath)
			if err != nil {
				return err
			}
			defer s.Close()

			run, data, err := s.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			report, err := pkgio.ReadJSON(bytes.NewReader(data))
			if err != nil {
				return err
			}

			if formatStr != "" {
				pair := fmt.Sprintf("%d vs %d", run.Cell1, run.Cell2)
				artifacts, err := pipeline.RenderReport(report, pair, parseFormats(formatStr))
				if err != nil {
					return err
				}
				base := output
				if base == "" {
					base = shortID(run.ID)
				}
				return writeArtifacts(artifacts, basePath(base, run.Input))
			}

			printRun(run)
			printNewline()
			printRatioTable(report.Observed, report.Baseline, report.Ratio)
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatStr, "format", "f", "", "re-export as xlsx, tsv, json, svg or png (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "base path for re-exported files (default: short run id)")

	return cmd
}

// historyDeleteCommand creates the "history delete" subcommand.
func (c *CLI) historyDeleteCommand(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "delete [run-id]",
		Aliases: []string{"rm"},
		Short:   "Delete a recorded run",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openHistory(cmd.Context(), *dbPath)
			if err != nil {
				return err
			}
			defer s.Close()

			run, _, err := s.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := s.DeleteRun(cmd.Context(), run.ID); err != nil {
				return err
			}
			printSuccess("Deleted run %s", shortID(run.ID))
			return nil
		},
	}
}

// historyTable renders run summaries, newest first.
func historyTable(runs []store.Run) string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			shortID(r.ID),
			r.Created.Local().Format("2006-01-02 15:04"),
			r.Input,
			fmt.Sprintf("%d vs %d", r.Cell1, r.Cell2),
			layersLabel(r.LayerNum),
			strconv.Itoa(r.SimRuns),
			strconv.Itoa(r.Seeds),
			fmt.Sprintf("%d/%d", r.Defined, r.Bins),
		}
	}
	return newTable("Run", "Created", "Input", "Pair", "Layers", "Runs", "Seeds", "Bins").
		Rows(rows...).
		Render()
}

// printRun prints the summary of one stored run.
func printRun(r store.Run) {
	printKeyValue("Run", r.ID)
	printKeyValue("Created", r.Created.Local().Format(time.RFC1123))
	printKeyValue("Input", r.Input)
	printKeyValue("Pair", fmt.Sprintf("%d vs %d", r.Cell1, r.Cell2))
	printKeyValue("Layers", layersLabel(r.LayerNum))
	printKeyValue("Runs", strconv.Itoa(r.SimRuns))
	printKeyValue("Seed", strconv.FormatUint(r.Seed, 10))
	printKeyValue("Duration", r.Duration.String())
	printStats(r.Cells, r.Seeds, false)
}

func layersLabel(n int) string {
	if n == 0 {
		return "ignored"
	}
	return strconv.Itoa(n)
}
