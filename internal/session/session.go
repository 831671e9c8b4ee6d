// Package session orchestrates the interactive loop: it reads operator
// input, dispatches runtime commands, drives the model exchange, walks
// proposed command batches through review and execution, and reports
// results back to the model.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/bobergda/simple-gpt-shell/internal/guard"
	"github.com/bobergda/simple-gpt-shell/internal/history"
	"github.com/bobergda/simple-gpt-shell/internal/llm"
	"github.com/bobergda/simple-gpt-shell/internal/osinfo"
	"github.com/bobergda/simple-gpt-shell/internal/runner"
	"github.com/bobergda/simple-gpt-shell/internal/styles"
	"github.com/bobergda/simple-gpt-shell/internal/transcript"
)

// CommandResolver is the slice of the llm resolver the session needs.
type CommandResolver interface {
	RequestCommands(ctx context.Context, prompt string) (*llm.CommandBatch, error)
	ReportExecution(ctx context.Context, outputs []transcript.CommandOutput, summary []llm.ExecutionStatus) (*llm.CommandBatch, error)
	LastUsage() llm.UsageSummary
	SessionUsage() llm.UsageSummary
}

// Executor runs one shell command.
type Executor interface {
	Run(ctx context.Context, command string) runner.ExecutionResult
}

// CommandGuard resolves a command through the safe-mode flow.
type CommandGuard interface {
	Resolve(command string, safeMode bool) guard.Outcome
}

// EventLogger records session activity in the interaction log.
type EventLogger interface {
	LogEvent(name string, data any)
	LogMessage(role string, text string)
}

// HistoryStore persists submitted prompts.
type HistoryStore interface {
	Add(prompt string) (*history.Entry, error)
	Recent(limit int) ([]history.Entry, error)
}

// Session is the interactive loop state.
type Session struct {
	resolver CommandResolver
	executor Executor
	guard    CommandGuard
	history  HistoryStore
	events   EventLogger
	prompter Prompter
	out      io.Writer
	logger   *zap.Logger
	osInfo   osinfo.Info

	safeMode      bool
	showTokens    bool
	contextTokens int
	interactive   bool

	mu            sync.Mutex
	cancelCurrent context.CancelFunc
}

// Options configures a Session.
type Options struct {
	Resolver CommandResolver
	Executor Executor
	// Guard overrides the command guard; nil builds the default one wired
	// to Prompter and Events.
	Guard    CommandGuard
	History  HistoryStore
	Events   EventLogger
	Prompter Prompter
	Out      io.Writer
	Logger   *zap.Logger
	OSInfo   osinfo.Info

	SafeMode      bool
	ShowTokens    bool
	ContextTokens int
	// Interactive enables the startup banner.
	Interactive bool
}

// New creates a Session.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	s := &Session{
		resolver:      opts.Resolver,
		executor:      opts.Executor,
		guard:         opts.Guard,
		history:       opts.History,
		events:        opts.Events,
		prompter:      opts.Prompter,
		out:           out,
		logger:        logger,
		osInfo:        opts.OSInfo,
		safeMode:      opts.SafeMode,
		showTokens:    opts.ShowTokens,
		contextTokens: opts.ContextTokens,
		interactive:   opts.Interactive,
	}
	if s.guard == nil {
		s.guard = guard.New(guard.Options{
			Prompter: opts.Prompter,
			Events:   guardEvents(opts.Events),
			Notify:   s,
			Logger:   logger,
		})
	}
	return s
}

// guardEvents adapts the optional session event logger for the guard,
// keeping a typed nil from reaching the guard's interface field.
func guardEvents(events EventLogger) guard.EventLogger {
	if events == nil {
		return nil
	}
	return events
}

// Warn prints a styled warning line. Satisfies guard.Notifier.
func (s *Session) Warn(text string) {
	fmt.Fprintln(s.out, styles.WARNING(text))
}

// Run executes the interactive loop until the operator quits or input ends.
// SIGINT cancels the in-flight command, if any; it never ends the session.
func (s *Session) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer func() {
		signal.Stop(sigCh)
		close(sigCh)
	}()
	go func() {
		for range sigCh {
			s.mu.Lock()
			if s.cancelCurrent != nil {
				s.cancelCurrent()
			}
			s.mu.Unlock()
		}
	}()

	if s.interactive {
		s.printBanner()
	}

	for {
		line, err := s.prompter.ReadLine(styles.PROMPT("gpt> "))
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if quit := s.dispatch(ctx, input); quit {
			return nil
		}
	}
}

func (s *Session) printBanner() {
	fmt.Fprintln(s.out, styles.INFO(fmt.Sprintf("gpt-shell: %s on %s", s.osInfo.ShellName, s.osInfo.OSName)))
	fmt.Fprintln(s.out, styles.DESCRIPTION("Describe what you want to do. Commands: safe [on|off], tokens [on|off], history, e (enter a command), q (quit)."))
}

// dispatch handles one line of input; runtime commands are matched before
// anything is sent to the model. Returns true when the session should end.
func (s *Session) dispatch(ctx context.Context, input string) bool {
	switch strings.ToLower(input) {
	case "q", "quit", "exit":
		return true
	case "e":
		s.manualCommandMode(ctx)
		return false
	case "safe":
		s.printSafeMode()
		return false
	case "safe on":
		s.setSafeMode(true)
		return false
	case "safe off":
		s.confirmSafeModeOff()
		return false
	case "tokens":
		s.printTokenDisplay()
		return false
	case "tokens on":
		s.setTokenDisplay(true)
		return false
	case "tokens off":
		s.setTokenDisplay(false)
		return false
	case "history":
		s.printHistory()
		return false
	}

	s.recordPrompt(input)
	s.autoCommandMode(ctx, input)
	return false
}

func (s *Session) recordPrompt(prompt string) {
	if s.events != nil {
		s.events.LogMessage("user", prompt)
	}
	if s.history == nil {
		return
	}
	if _, err := s.history.Add(prompt); err != nil {
		s.logger.Warn("failed to record prompt history", zap.Error(err))
	}
}

// autoCommandMode drives one user turn: request commands, walk the batch,
// report results, and repeat while the model keeps proposing follow-ups.
func (s *Session) autoCommandMode(ctx context.Context, prompt string) {
	batch, err := s.resolver.RequestCommands(ctx, prompt)
	if err != nil {
		s.printError(err)
		return
	}

	for {
		s.printNarrative(batch.Response)
		if len(batch.Commands) == 0 {
			break
		}

		outputs, summary, stopped := s.executeBatch(ctx, batch.Commands)
		executed := lo.CountBy(summary, func(st llm.ExecutionStatus) bool {
			return st.Status == llm.StatusExecuted
		})
		if s.events != nil {
			s.events.LogEvent("commands_execution_summary", map[string]any{
				"summary":  summary,
				"executed": executed,
			})
		}

		if executed == 0 {
			fmt.Fprintln(s.out, styles.INFO("No commands were executed."))
			break
		}

		batch, err = s.resolver.ReportExecution(ctx, outputs, summary)
		if err != nil {
			s.printError(err)
			break
		}
		if stopped {
			s.printNarrative(batch.Response)
			break
		}
	}

	s.printUsage()
}

// manualCommandMode lets the operator type a single command, confirms it,
// runs it through the guard and reports the result to the model like a
// one-command batch.
func (s *Session) manualCommandMode(ctx context.Context) {
	command, err := s.prompter.ReadLine(styles.PROMPT("command> "))
	if err != nil {
		return
	}
	command = strings.TrimSpace(command)
	if command == "" {
		return
	}

	confirm, err := s.prompter.ReadLine("Run " + styles.COMMAND(command) + "? [y/N]: ")
	if err != nil || !isYes(confirm) {
		return
	}

	status, output := s.runCommand(ctx, command, false)
	summary := []llm.ExecutionStatus{status}
	if status.Status != llm.StatusExecuted {
		fmt.Fprintln(s.out, styles.INFO("Command was not executed."))
		return
	}

	batch, err := s.resolver.ReportExecution(ctx, []transcript.CommandOutput{*output}, summary)
	if err != nil {
		s.printError(err)
		return
	}
	s.printNarrative(batch.Response)
	if len(batch.Commands) > 0 {
		s.followUpBatches(ctx, batch)
	}
	s.printUsage()
}

// followUpBatches continues the batch loop for commands proposed after a
// manual execution report.
func (s *Session) followUpBatches(ctx context.Context, batch *llm.CommandBatch) {
	for len(batch.Commands) > 0 {
		outputs, summary, stopped := s.executeBatch(ctx, batch.Commands)
		executed := lo.CountBy(summary, func(st llm.ExecutionStatus) bool {
			return st.Status == llm.StatusExecuted
		})
		if executed == 0 {
			fmt.Fprintln(s.out, styles.INFO("No commands were executed."))
			return
		}

		next, err := s.resolver.ReportExecution(ctx, outputs, summary)
		if err != nil {
			s.printError(err)
			return
		}
		s.printNarrative(next.Response)
		if stopped {
			return
		}
		batch = next
	}
}

// executeBatch walks the proposals through review. Stopping keeps the
// outputs collected so far.
func (s *Session) executeBatch(ctx context.Context, proposals []llm.CommandProposal) ([]transcript.CommandOutput, []llm.ExecutionStatus, bool) {
	if s.events != nil {
		s.events.LogEvent("commands_batch", map[string]any{
			"commands": lo.Map(proposals, func(p llm.CommandProposal, _ int) string {
				return p.Command
			}),
		})
	}

	var outputs []transcript.CommandOutput
	var summary []llm.ExecutionStatus
	approveAll := false

	for index, proposal := range proposals {
		if strings.TrimSpace(proposal.Command) == "" {
			summary = append(summary, llm.ExecutionStatus{Command: proposal.Command, Status: llm.StatusSkippedEmpty})
			continue
		}

		s.printProposal(index+1, len(proposals), proposal)

		action := "r"
		if !approveAll {
			line, err := s.prompter.ReadLine("[r]un, [e]dit, [s]kip, [a]ll, [q]uit (default r): ")
			if err != nil {
				s.markStopped(&summary, proposals[index:])
				return outputs, summary, true
			}
			action = strings.ToLower(strings.TrimSpace(line))
			if action == "" {
				action = "r"
			}
		}

		switch action {
		case "q", "quit":
			s.markStopped(&summary, proposals[index:])
			return outputs, summary, true

		case "s", "skip":
			summary = append(summary, llm.ExecutionStatus{Command: proposal.Command, Status: llm.StatusSkipped})
			s.logSkip(proposal.Command, llm.StatusSkipped)

		case "e", "edit":
			edited, err := s.prompter.ReadLine("Enter the modified command: ")
			if err != nil {
				s.markStopped(&summary, proposals[index:])
				return outputs, summary, true
			}
			edited = strings.TrimSpace(edited)
			if edited == "" {
				summary = append(summary, llm.ExecutionStatus{Command: proposal.Command, Status: llm.StatusSkippedEmptyEdit})
				s.logSkip(proposal.Command, llm.StatusSkippedEmptyEdit)
				continue
			}
			status, output := s.runCommand(ctx, edited, true)
			summary = append(summary, status)
			if output != nil {
				outputs = append(outputs, *output)
			}

		case "a", "all":
			approveAll = true
			fallthrough

		default: // run
			status, output := s.runCommand(ctx, proposal.Command, false)
			summary = append(summary, status)
			if output != nil {
				outputs = append(outputs, *output)
			}
		}
	}

	return outputs, summary, false
}

func (s *Session) markStopped(summary *[]llm.ExecutionStatus, remaining []llm.CommandProposal) {
	for _, proposal := range remaining {
		*summary = append(*summary, llm.ExecutionStatus{Command: proposal.Command, Status: llm.StatusStoppedByUser})
	}
}

// runCommand screens one command through the guard and executes it when
// allowed. Edited commands that the guard refuses are recorded distinctly.
func (s *Session) runCommand(ctx context.Context, command string, edited bool) (llm.ExecutionStatus, *transcript.CommandOutput) {
	outcome := s.guard.Resolve(command, s.safeMode)
	if !outcome.Allowed {
		status := outcome.SkipReason
		if edited {
			status = llm.StatusSkippedAfterEdit
		}
		s.logSkip(command, status)
		return llm.ExecutionStatus{Command: command, Status: status}, nil
	}

	cmdCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancelCurrent = cancel
	s.mu.Unlock()

	result := s.executor.Run(cmdCtx, outcome.Command)

	s.mu.Lock()
	s.cancelCurrent = nil
	s.mu.Unlock()
	cancel()

	output := transcript.CommandOutput{
		Command:     result.Command,
		Stdout:      result.Stdout,
		Stderr:      result.Stderr,
		ExitCode:    result.ExitCode,
		TimedOut:    result.TimedOut,
		Interrupted: result.Interrupted,
	}
	if s.events != nil {
		s.events.LogEvent("command_executed", map[string]any{
			"command":     result.Command,
			"returncode":  result.ExitCode,
			"timed_out":   result.TimedOut,
			"interrupted": result.Interrupted,
		})
	}
	if result.TimedOut {
		fmt.Fprintln(s.out, styles.WARNING("Command timed out."))
	}
	if result.Interrupted {
		fmt.Fprintln(s.out, styles.WARNING("Command interrupted."))
	}

	exitCode := result.ExitCode
	return llm.ExecutionStatus{
		Command:  outcome.Command,
		Status:   llm.StatusExecuted,
		ExitCode: &exitCode,
	}, &output
}

func (s *Session) logSkip(command string, status string) {
	if s.events == nil {
		return
	}
	s.events.LogEvent("command_skipped", map[string]any{
		"command": command,
		"status":  status,
	})
}

func (s *Session) printProposal(index, total int, proposal llm.CommandProposal) {
	fmt.Fprintf(s.out, "[%d/%d] %s\n", index, total, styles.COMMAND(proposal.Command))
	if proposal.Description != "" {
		fmt.Fprintln(s.out, "      "+styles.DESCRIPTION(proposal.Description))
	}
}

func (s *Session) printNarrative(text string) {
	if text == "" {
		return
	}
	fmt.Fprintln(s.out, styles.ASSISTANT(text))
	if s.events != nil {
		s.events.LogMessage("assistant", text)
	}
}

func (s *Session) printError(err error) {
	fmt.Fprintln(s.out, styles.ERROR("Error: "+err.Error()))
	s.logger.Error("exchange failed", zap.Error(err))
}

func (s *Session) printUsage() {
	if !s.showTokens {
		return
	}
	last := s.resolver.LastUsage()
	total := s.resolver.SessionUsage()
	headroom := s.contextTokens - last.TotalTokens
	if headroom < 0 {
		headroom = 0
	}
	fmt.Fprintln(s.out, styles.USAGE(fmt.Sprintf(
		"[tokens] last: %s in / %s out (%d calls) | session: %s total | headroom: %s",
		humanize.Comma(int64(last.InputTokens)),
		humanize.Comma(int64(last.OutputTokens)),
		last.APICalls,
		humanize.Comma(int64(total.TotalTokens)),
		humanize.Comma(int64(headroom)),
	)))
}

func (s *Session) printSafeMode() {
	state := "off"
	if s.safeMode {
		state = "on"
	}
	fmt.Fprintln(s.out, styles.INFO("Safe mode is "+state+"."))
}

func (s *Session) setSafeMode(enabled bool) {
	s.safeMode = enabled
	if s.events != nil {
		s.events.LogEvent("safe_mode_changed", map[string]any{"enabled": enabled})
	}
	s.printSafeMode()
}

func (s *Session) confirmSafeModeOff() {
	if !s.safeMode {
		s.printSafeMode()
		return
	}
	answer, err := s.prompter.ReadLine("Disable safe mode? Destructive commands will run without confirmation. [y/N]: ")
	if err != nil || !isYes(answer) {
		fmt.Fprintln(s.out, styles.INFO("Safe mode stays on."))
		return
	}
	s.setSafeMode(false)
}

func (s *Session) printTokenDisplay() {
	state := "off"
	if s.showTokens {
		state = "on"
	}
	fmt.Fprintln(s.out, styles.INFO("Token usage display is "+state+"."))
}

func (s *Session) setTokenDisplay(enabled bool) {
	s.showTokens = enabled
	if s.events != nil {
		s.events.LogEvent("token_usage_display_changed", map[string]any{"enabled": enabled})
	}
	s.printTokenDisplay()
}

func (s *Session) printHistory() {
	if s.history == nil {
		fmt.Fprintln(s.out, styles.INFO("Prompt history is not available."))
		return
	}
	entries, err := s.history.Recent(20)
	if err != nil {
		s.printError(fmt.Errorf("failed to load history: %w", err))
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(s.out, styles.INFO("No prompts recorded yet."))
		return
	}
	for _, entry := range entries {
		fmt.Fprintf(s.out, "%s  %s\n",
			styles.DESCRIPTION(entry.CreatedAt.Format("2006-01-02 15:04")),
			entry.Prompt,
		)
	}
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
