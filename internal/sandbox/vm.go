package sandbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/EmbedOS/runtime/internal/frame"
	"github.com/GriffinCanCode/EmbedOS/runtime/internal/monitoring"
)

// Config defines sandbox configuration.
type Config struct {
	Timeout       time.Duration // Execution timeout per script
	EnableConsole bool          // Allow console.log/warn/error
}

// DefaultConfig returns the default per-frame sandbox configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:       2 * time.Second,
		EnableConsole: true,
	}
}

// LogEntry represents captured console output.
type LogEntry struct {
	Level   string
	Message string
	Time    time.Time
}

// Result holds a script evaluation result.
type Result struct {
	Value    any
	Console  []LogEntry
	Duration time.Duration
}

// VM evaluates third-party embed scripts for one frame context with a
// timeout and stripped-down globals. Node-style and host globals are
// removed; the frame's identity is exposed read-only as `context`.
type VM struct {
	vm      *goja.Runtime
	config  Config
	metrics *monitoring.Metrics
	mu      sync.Mutex

	console   []LogEntry
	consoleMu sync.Mutex
}

// New creates a sandbox VM bound to a frame context. fc may be nil for
// a detached VM.
func New(config Config, fc *frame.Context) (*VM, error) {
	v := &VM{
		vm:     goja.New(),
		config: config,
	}
	if err := v.setupGlobals(fc); err != nil {
		return nil, err
	}
	return v, nil
}

// WithMetrics attaches a metrics collector.
func (v *VM) WithMetrics(m *monitoring.Metrics) *VM {
	v.metrics = m
	return v
}

// Execute evaluates script with the configured timeout. Console output
// produced during the run is captured into the result.
func (v *VM) Execute(ctx context.Context, script string) (*Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	start := time.Now()

	timeout := v.config.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	done := make(chan struct{})
	go func() {
		select {
		case <-timer.C:
			v.vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			v.vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	v.consoleMu.Lock()
	v.console = v.console[:0]
	v.consoleMu.Unlock()

	val, err := v.vm.RunString(script)
	close(done)

	duration := time.Since(start)
	if v.metrics != nil {
		v.metrics.SandboxExecutions.Inc()
		v.metrics.SandboxDuration.Observe(duration.Seconds())
	}

	if err != nil {
		return nil, fmt.Errorf("script evaluation failed: %w", err)
	}

	result := &Result{Duration: duration}
	if val != nil && !goja.IsUndefined(val) && !goja.IsNull(val) {
		result.Value = val.Export()
	}

	v.consoleMu.Lock()
	result.Console = append([]LogEntry{}, v.console...)
	v.consoleMu.Unlock()

	return result, nil
}

// setupGlobals strips dangerous globals and exposes the frame identity.
func (v *VM) setupGlobals(fc *frame.Context) error {
	v.vm.Set("require", goja.Undefined())
	v.vm.Set("process", goja.Undefined())
	v.vm.Set("module", goja.Undefined())
	v.vm.Set("exports", goja.Undefined())

	if v.config.EnableConsole {
		console := v.vm.NewObject()
		console.Set("log", v.makeConsoleFunc("log"))
		console.Set("warn", v.makeConsoleFunc("warn"))
		console.Set("error", v.makeConsoleFunc("error"))
		console.Set("info", v.makeConsoleFunc("info"))
		v.vm.Set("console", console)
	}

	// Timers are no-ops: embed scripts run to completion in one turn.
	noop := func(call goja.FunctionCall) goja.Value { return goja.Undefined() }
	v.vm.Set("setTimeout", noop)
	v.vm.Set("setInterval", noop)

	if fc != nil {
		ctxObj := v.vm.NewObject()
		ctxObj.Set("frameId", fc.ID())
		ctxObj.Set("embedType", fc.Type())
		ctxObj.Set("isMaster", fc.IsMaster())
		if loc := fc.Location(); loc != nil {
			ctxObj.Set("location", loc.String())
		}
		if payload := fc.Payload(); payload != nil {
			ctxObj.Set("data", payload)
		}
		v.vm.Set("context", ctxObj)
	}

	return nil
}

// makeConsoleFunc creates a console function capturing into v.console.
func (v *VM) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		var msg string
		for i, arg := range call.Arguments {
			if i > 0 {
				msg += " "
			}
			msg += arg.String()
		}

		v.consoleMu.Lock()
		v.console = append(v.console, LogEntry{
			Level:   level,
			Message: msg,
			Time:    time.Now(),
		})
		v.consoleMu.Unlock()

		return goja.Undefined()
	}
}

// Close releases the underlying runtime.
func (v *VM) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vm = nil
	v.console = nil
	return nil
}
