package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dusk-indust/chartflow/internal/config"
	"github.com/dusk-indust/chartflow/internal/orchestrator"
	"github.com/dusk-indust/chartflow/internal/simtools"
	"github.com/dusk-indust/chartflow/internal/stages"
	"github.com/dusk-indust/chartflow/internal/tool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// engineFlags are the flags shared by every command that runs the pipeline.
type engineFlags struct {
	simulate bool
	analyst  string
	timeout  time.Duration
}

// toolsFor builds the tool capability from the config. With simulate set,
// every tool the config does not name is served by the simulated tools.
func toolsFor(c *config.Config, simulate bool, log *zap.Logger) (tool.Invoker, error) {
	router, err := c.Invoker(log)
	if err != nil {
		return nil, err
	}
	if simulate {
		router.SetFallback(simtools.New())
		return router, nil
	}

	var missing []string
	configured := make(map[string]bool)
	for _, name := range router.Tools() {
		configured[name] = true
	}
	for _, name := range stages.Tools() {
		if !configured[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) == len(stages.Tools()) {
		return nil, errors.New("no tools configured: add a tools section to chartflow.yml or pass --simulate")
	}
	for _, name := range missing {
		log.Warn("tool not configured; its stages will degrade", zap.String("tool", name))
	}
	return router, nil
}

// analystFor resolves the analyst name: the flag wins over the config.
func (f engineFlags) analystFor(c *config.Config) string {
	if f.analyst != "" {
		return f.analyst
	}
	return c.Analyst
}

// newEngine wires the stage catalogue to the configured tools.
func newEngine(c *config.Config, f engineFlags, log *zap.Logger, opts ...orchestrator.Option) (*orchestrator.Engine, error) {
	tools, err := toolsFor(c, f.simulate, log)
	if err != nil {
		return nil, err
	}

	timeout := c.PipelineTimeoutDuration()
	if f.timeout > 0 {
		timeout = f.timeout
	}

	opts = append([]orchestrator.Option{
		orchestrator.WithLogger(log),
		orchestrator.WithAnalyst(f.analystFor(c)),
		orchestrator.WithTimeout(timeout),
	}, opts...)

	engine, err := orchestrator.NewEngine(stages.Catalogue(), tools, opts...)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	return engine, nil
}

func addEngineFlags(cmd *cobra.Command, f *engineFlags) {
	cmd.Flags().BoolVar(&f.simulate, "simulate", false, "serve tools missing from the config with simulated responses")
	cmd.Flags().StringVar(&f.analyst, "analyst", "", "analyst the run is attributed to (overrides config)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "bound on the whole run, e.g. 5m (overrides config)")
}
