package config

import (
	"fmt"

	"github.com/dusk-indust/chartflow/internal/tool"
	"go.uber.org/zap"
)

// Invoker builds the router serving every configured tool. Process-backed
// tools share one ProcessInvoker; each HTTP tool gets its own client.
func (c *Config) Invoker(logger *zap.Logger) (*tool.Router, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := tool.NewRouter()
	specs := make(map[string]tool.ProcessSpec)
	for _, name := range c.ToolNames() {
		t := c.Tools[name]
		timeout, _ := parseDuration(t.Timeout)

		if t.URL != "" {
			var opts []tool.HTTPOption
			if timeout == 0 {
				timeout = c.ToolTimeoutDuration()
			}
			if timeout > 0 {
				opts = append(opts, tool.WithHTTPTimeout(timeout))
			}
			r.Register(name, tool.NewHTTPInvoker(t.URL, opts...))
			continue
		}
		specs[name] = tool.ProcessSpec{
			Command: t.Command,
			Args:    t.Args,
			Env:     t.Env,
			Dir:     t.Dir,
			Timeout: timeout,
		}
	}

	if len(specs) > 0 {
		opts := []tool.ProcessOption{tool.WithLogger(logger)}
		if d := c.ToolTimeoutDuration(); d > 0 {
			opts = append(opts, tool.WithDefaultTimeout(d))
		}
		procs := tool.NewProcessInvoker(specs, opts...)
		for name := range specs {
			r.Register(name, procs)
		}
	}
	return r, nil
}
