package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dusk-indust/chartflow/internal/export"
	"github.com/dusk-indust/chartflow/internal/orchestrator"
	"github.com/dusk-indust/chartflow/internal/report"
	"github.com/dusk-indust/chartflow/internal/stages"
	"github.com/spf13/cobra"
)

var runFlags struct {
	engine   engineFlags
	image    string
	verbose  bool
	jsonOnly bool
	trace    string
	diagram  string
}

var runCmd = &cobra.Command{
	Use:   "run <query>",
	Short: "Analyze a chart and print the trade signal report",
	Long: `Runs every analysis stage in order for one request and prints the final
report as JSON followed by a markdown summary.

Stages that fail or break their schema degrade the report instead of
aborting the run. A cancelled or timed-out run prints no report and exits
non-zero.`,
	Example: `  chartflow run "BTCUSDT 4h" --image chart.png
  chartflow run "ETHUSDT 1h swing setup" --simulate --verbose
  chartflow run "SOLUSDT 1d" --simulate --trace run.json --diagram run.mmd`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	addEngineFlags(runCmd, &runFlags.engine)
	runCmd.Flags().StringVar(&runFlags.image, "image", "", "path or URL of the chart image")
	runCmd.Flags().BoolVarP(&runFlags.verbose, "verbose", "v", false, "print stage progress to stderr")
	runCmd.Flags().BoolVar(&runFlags.jsonOnly, "json", false, "print only the report JSON")
	runCmd.Flags().StringVar(&runFlags.trace, "trace", "", "write a JSON trace of every stage to this file")
	runCmd.Flags().StringVar(&runFlags.diagram, "diagram", "", "write a Mermaid diagram of stage outcomes to this file")
}

func runRun(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return errors.New("query is required")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var opts []orchestrator.Option
	var progress *orchestrator.ProgressReporter
	if runFlags.verbose {
		progress = orchestrator.NewProgressReporter(len(stages.Catalogue()))
		opts = append(opts, orchestrator.WithProgress(progress))
	}

	engine, err := newEngine(cfg, runFlags.engine, logger, opts...)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	if progress != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			printProgress(cmd.ErrOrStderr(), runFlags.engine.analystFor(cfg), query, progress.Subscribe())
		}()
	}

	snap, err := engine.Execute(cmd.Context(), orchestrator.Input{Query: query, Image: runFlags.image})
	if progress != nil {
		progress.Close()
		wg.Wait()
	}
	if err != nil {
		if errors.Is(err, orchestrator.ErrCancelled) {
			return fmt.Errorf("run aborted, no report produced: %w", err)
		}
		return err
	}

	r := report.Aggregate(snap)
	if err := writeArtifacts(engine, snap, &r); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runFlags.jsonOnly {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		_, err = out.Write(append(data, '\n'))
		return err
	}

	data, err := r.Render()
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// printProgress prints a header once the run id is known, then one line per
// progress event until the channel closes.
func printProgress(w io.Writer, analyst, query string, events <-chan orchestrator.ProgressEvent) {
	header := false
	for ev := range events {
		if !header {
			fmt.Fprintln(w, orchestrator.FormatRunHeader(analyst, ev.RunID, query))
			header = true
		}
		if ev.Status == orchestrator.ProgressPending {
			continue
		}
		fmt.Fprintln(w, orchestrator.FormatProgress(ev))
	}
}

func writeArtifacts(engine *orchestrator.Engine, snap *orchestrator.Snapshot, r *report.FinalReport) error {
	if runFlags.trace != "" {
		f, err := os.Create(runFlags.trace)
		if err != nil {
			return fmt.Errorf("create trace: %w", err)
		}
		werr := export.WriteJSON(f, export.ExportRun(engine.Stages(), snap, r, time.Now()))
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return fmt.Errorf("write trace: %w", werr)
		}
	}
	if runFlags.diagram != "" {
		mermaid := export.GenerateMermaid(engine.Stages(), snap)
		if err := os.WriteFile(runFlags.diagram, []byte(mermaid), 0o644); err != nil {
			return fmt.Errorf("write diagram: %w", err)
		}
	}
	return nil
}
