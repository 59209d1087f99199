package tool

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a tool call when neither the spec nor the invoker
// sets one.
const DefaultTimeout = 30 * time.Second

// maxStreamBytes caps how much of each output stream is retained.
const maxStreamBytes = 4 << 20

// waitDelay is how long Wait keeps draining pipes held open by orphaned
// grandchildren after the tool itself has been killed.
const waitDelay = 500 * time.Millisecond

// ProcessSpec describes the child process serving one tool.
type ProcessSpec struct {
	Command string
	Args    []string
	Env     map[string]string // overrides on top of the parent environment
	Dir     string
	Timeout time.Duration // zero means the invoker default
}

// RunProcess performs one request/response exchange with a fresh child
// process. The request line is written to stdin followed by a newline and
// stdin is closed. Stdout and stderr are collected concurrently until the
// process exits or the timeout fires, in which case the process is killed.
func RunProcess(ctx context.Context, spec ProcessSpec, req Request, timeout time.Duration) Response {
	resp, _ := runProcess(ctx, spec, req, timeout)
	return resp
}

// runProcess is RunProcess that also hands back the stderr lines so callers
// can log them on success.
func runProcess(ctx context.Context, spec ProcessSpec, req Request, timeout time.Duration) (Response, []string) {
	line, err := EncodeRequest(req)
	if err != nil {
		return Failed("%v", err), nil
	}
	if spec.Command == "" {
		return Failed("spawn failed: empty command"), nil
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(callCtx, spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = mergeEnv(os.Environ(), spec.Env)
	cmd.Stdin = bytes.NewReader(append(line, '\n'))
	cmd.WaitDelay = waitDelay

	stdout := &cappedBuffer{max: maxStreamBytes}
	stderr := &cappedBuffer{max: maxStreamBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return Failed("spawn failed: %v", err), nil
	}
	waitErr := cmd.Wait()

	errLines := splitLines(stderr.String())

	switch {
	case ctx.Err() != nil:
		return Failed("cancelled"), errLines
	case errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return Failed("timeout"), errLines
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		if len(errLines) > 0 {
			return Failed("%s", joinLines(errLines)), errLines
		}
		if waitErr != nil {
			return Failed("no output: %v", waitErr), errLines
		}
		return Failed("no output"), errLines
	}
	return ParseOutput(out), errLines
}

// ProcessInvoker routes requests to per-tool child processes. Each call
// spawns its own process; no process is shared between calls.
type ProcessInvoker struct {
	specs   map[string]ProcessSpec
	timeout time.Duration
	logger  *zap.Logger
}

// ProcessOption configures a ProcessInvoker.
type ProcessOption func(*ProcessInvoker)

// WithDefaultTimeout sets the timeout used for specs that do not carry one.
func WithDefaultTimeout(d time.Duration) ProcessOption {
	return func(p *ProcessInvoker) {
		p.timeout = d
	}
}

// WithLogger attaches a logger for stderr diagnostics.
func WithLogger(l *zap.Logger) ProcessOption {
	return func(p *ProcessInvoker) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProcessInvoker creates an invoker serving the tools named in specs.
func NewProcessInvoker(specs map[string]ProcessSpec, opts ...ProcessOption) *ProcessInvoker {
	p := &ProcessInvoker{
		specs:   make(map[string]ProcessSpec, len(specs)),
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for name, spec := range specs {
		p.specs[name] = spec
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Invoke runs the process registered for req.Tool.
func (p *ProcessInvoker) Invoke(ctx context.Context, req Request) Response {
	spec, ok := p.specs[req.Tool]
	if !ok {
		return Failed("unknown tool %q", req.Tool)
	}
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = p.timeout
	}

	start := time.Now()
	resp, errLines := runProcess(ctx, spec, req, timeout)
	fields := []zap.Field{
		zap.String("tool", req.Tool),
		zap.String("command", spec.Command),
		zap.Duration("elapsed", time.Since(start)),
	}
	if len(errLines) > 0 {
		fields = append(fields, zap.Strings("stderr", errLines))
	}
	if resp.OK {
		p.logger.Debug("tool call complete", fields...)
	} else {
		p.logger.Warn("tool call failed", append(fields, zap.String("diagnostic", resp.Diagnostic))...)
	}
	return resp
}

// Tools lists the tool names this invoker serves.
func (p *ProcessInvoker) Tools() []string {
	names := make([]string, 0, len(p.specs))
	for name := range p.specs {
		names = append(names, name)
	}
	return names
}

func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, replaced := overrides[key]; replaced {
			continue
		}
		out = append(out, kv)
	}
	for k, v := range overrides {
		out = append(out, k+"="+v)
	}
	return out
}

func splitLines(s string) []string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// cappedBuffer keeps the first max bytes written and silently drops the
// rest so a chatty tool cannot exhaust memory.
type cappedBuffer struct {
	buf bytes.Buffer
	max int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if room := c.max - c.buf.Len(); room > 0 {
		if len(p) > room {
			c.buf.Write(p[:room])
		} else {
			c.buf.Write(p)
		}
	}
	return len(p), nil
}

func (c *cappedBuffer) Bytes() []byte  { return c.buf.Bytes() }
func (c *cappedBuffer) String() string { return c.buf.String() }
