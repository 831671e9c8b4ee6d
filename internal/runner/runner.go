// Package runner executes shell commands with live output streaming, a
// wall-clock timeout, and secret redaction of the captured streams.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bobergda/simple-gpt-shell/internal/redact"
)

// DefaultTimeout bounds command execution when no timeout is configured.
const DefaultTimeout = 300 * time.Second

// ExecutionResult is the outcome of one command execution. Failure is
// encoded in its fields; Run never returns an error. When the process was
// terminated by a signal (timeout or interrupt) ExitCode is -1, the Go
// convention for signal-terminated processes, and TimedOut or Interrupted
// carries the cause.
type ExecutionResult struct {
	Command     string
	Stdout      string
	Stderr      string
	ExitCode    int
	TimedOut    bool
	Interrupted bool
}

// Runner executes commands through the host shell.
type Runner struct {
	// Timeout is the wall-clock limit per command; zero means no timeout.
	Timeout time.Duration
	// Stdout and Stderr receive the live echo of the child's streams.
	Stdout io.Writer
	Stderr io.Writer
	// StderrStyle decorates echoed stderr lines so they are visually
	// distinct from stdout. Nil leaves lines unstyled.
	StderrStyle func(string) string

	logger *zap.Logger
}

// New creates a Runner.
func New(timeout time.Duration, stdout, stderr io.Writer, stderrStyle func(string) string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Timeout:     timeout,
		Stdout:      stdout,
		Stderr:      stderr,
		StderrStyle: stderrStyle,
		logger:      logger,
	}
}

// streamLine is one chunk drained from the child process, tagged with the
// stream it came from.
type streamLine struct {
	stderr bool
	text   string
}

// Run executes the command as a single `bash -c` invocation. Stdout and
// stderr are drained concurrently so neither pipe can fill and stall the
// child while the other is being read; both drain workers are joined before
// the result is assembled. Cancelling ctx kills the command and marks the
// result interrupted; exceeding the timeout kills it and marks it timed out.
func (r *Runner) Run(ctx context.Context, command string) ExecutionResult {
	result := ExecutionResult{Command: command, ExitCode: -1}

	cmd := exec.Command("bash", "-c", command)
	configureProcessGroup(cmd)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		result.Stderr = fmt.Sprintf("failed to open stdout pipe: %v", err)
		return result
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		result.Stderr = fmt.Sprintf("failed to open stderr pipe: %v", err)
		return result
	}

	if err := cmd.Start(); err != nil {
		result.Stderr = fmt.Sprintf("failed to start command: %v", err)
		return result
	}

	// Each drain worker owns one pipe and pushes lines onto the shared
	// channel; the consumer below is the only writer to the buffers.
	lines := make(chan streamLine, 64)
	var drainers sync.WaitGroup
	drainers.Add(2)
	go r.drain(stdoutPipe, false, lines, &drainers)
	go r.drain(stderrPipe, true, lines, &drainers)
	go func() {
		drainers.Wait()
		close(lines)
	}()

	var stdout, stderr strings.Builder
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for line := range lines {
			if line.stderr {
				stderr.WriteString(line.text)
				r.echoStderr(line.text)
			} else {
				stdout.WriteString(line.text)
				r.echoStdout(line.text)
			}
		}
	}()

	var timeoutCh <-chan time.Time
	if r.Timeout > 0 {
		timer := time.NewTimer(r.Timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	// The watcher kills the process group on timeout or ctx cancellation.
	// Killing closes the child's pipe ends, which unblocks the drain
	// workers, so Wait below is only ever called after all reads finished.
	waited := make(chan struct{})
	watcherDone := make(chan struct{})
	var timedOut, interrupted bool
	go func() {
		defer close(watcherDone)
		select {
		case <-timeoutCh:
			timedOut = true
			killProcessGroup(cmd)
			r.logger.Warn("command timed out",
				zap.String("command", command),
				zap.Duration("timeout", r.Timeout),
			)
		case <-ctx.Done():
			interrupted = true
			killProcessGroup(cmd)
			r.logger.Info("command interrupted", zap.String("command", command))
		case <-waited:
		}
	}()

	// Join both drain workers and the consumer; no worker outlives Run.
	<-consumed
	runErr := cmd.Wait()
	close(waited)
	<-watcherDone
	result.TimedOut = timedOut
	result.Interrupted = interrupted

	result.ExitCode = exitCode(cmd, runErr)
	result.Stdout = redact.Text(stdout.String())
	result.Stderr = redact.Text(stderr.String())
	return result
}

// drain reads one pipe line by line, forwarding each chunk as soon as it is
// available. A trailing partial line is forwarded too.
func (r *Runner) drain(pipe io.Reader, isStderr bool, lines chan<- streamLine, wg *sync.WaitGroup) {
	defer wg.Done()

	reader := bufio.NewReader(pipe)
	for {
		chunk, err := reader.ReadString('\n')
		if chunk != "" {
			lines <- streamLine{stderr: isStderr, text: chunk}
		}
		if err != nil {
			return
		}
	}
}

func (r *Runner) echoStdout(text string) {
	if r.Stdout == nil {
		return
	}
	fmt.Fprint(r.Stdout, text)
}

func (r *Runner) echoStderr(text string) {
	if r.Stderr == nil {
		return
	}
	if r.StderrStyle != nil {
		styled := r.StderrStyle(strings.TrimRight(text, "\n"))
		fmt.Fprintln(r.Stderr, styled)
		return
	}
	fmt.Fprint(r.Stderr, text)
}

// exitCode extracts the recorded exit status: 0 on clean exit, the child's
// code on non-zero exit, -1 when the process was killed.
func exitCode(cmd *exec.Cmd, runErr error) int {
	if runErr == nil {
		return 0
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	return -1
}
