// Package guard screens proposed shell commands against a set of
// destructive-command patterns and runs the safe-mode confirmation flow.
//
// The pattern set is a heuristic confirmation trigger, not a security
// boundary: regexes over free-form shell text are inherently incomplete and
// will both miss obfuscated commands and flag harmless string literals such
// as `echo "rm -rf"`. Both are accepted trade-offs of the design.
package guard

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Rule pairs a destructive-command pattern with its human-readable reason.
type Rule struct {
	Pattern *regexp.Regexp
	Reason  string
}

// DefaultRules is the ordered rule set; the first matching rule wins.
var DefaultRules = []Rule{
	{regexp.MustCompile(`(?i)(^|[;&|]\s*)\s*rm\s+.*(--no-preserve-root|--preserve-root=0)\b`), "rm with preserve-root disabled"},
	{regexp.MustCompile(`(?i)(^|[;&|]\s*)\s*(sudo\s+)?rm(\s+\S+)*\s+(-rf|-fr|--recursive|--force|-r|-f)(\s|$)`), "rm with recursive/force options"},
	{regexp.MustCompile(`(?i)(^|[;&|]\s*)\s*mkfs(\.\w+)?\b`), "filesystem format command"},
	{regexp.MustCompile(`(?i)(^|[;&|]\s*)\s*dd\s+.*\bof=/dev/`), "dd write to block device"},
	{regexp.MustCompile(`(?i)(^|[;&|]\s*)\s*shred\b`), "secure delete command"},
	{regexp.MustCompile(`(?i)(^|[;&|]\s*)\s*wipefs\b`), "filesystem wipe command"},
	{regexp.MustCompile(`(?i)(^|[;&|]\s*)\s*git\s+reset\s+--hard\b`), "git hard reset"},
	{regexp.MustCompile(`(?i)(^|[;&|]\s*)\s*git\s+clean\s+-[^\n]*f`), "git clean with force"},
	{regexp.MustCompile(`(?i)(^|[;&|]\s*)\s*docker\s+system\s+prune\b`), "docker prune"},
	{regexp.MustCompile(`:\(\)\s*\{\s*:\|:&\s*\};:`), "fork bomb pattern"},
}

// Skip reasons recorded when a command does not reach execution.
const (
	ReasonBlocked        = "blocked_by_safe_mode"
	ReasonEmptyAfterEdit = "safe_mode_empty_after_edit"
)

// Classify returns the reason the command is considered destructive, or ""
// when no rule matches. Verdicts are computed fresh on every call, edited
// resubmissions included.
func Classify(command string) string {
	return classify(DefaultRules, command)
}

func classify(rules []Rule, command string) string {
	normalized := strings.TrimSpace(command)
	if normalized == "" {
		return ""
	}
	for _, rule := range rules {
		if rule.Pattern.MatchString(normalized) {
			return rule.Reason
		}
	}
	return ""
}

// Prompter reads one line of operator input after displaying a prompt.
type Prompter interface {
	ReadLine(prompt string) (string, error)
}

// EventLogger records guard decisions in the interaction log.
type EventLogger interface {
	LogEvent(name string, data any)
}

// Notifier presents guard warnings and prompts to the operator.
type Notifier interface {
	Warn(text string)
}

// Guard resolves proposed commands through the safe-mode confirmation flow.
type Guard struct {
	rules    []Rule
	prompter Prompter
	events   EventLogger
	notify   Notifier
	logger   *zap.Logger
}

// Options configures a Guard.
type Options struct {
	// Rules overrides the pattern set; nil uses DefaultRules.
	Rules    []Rule
	Prompter Prompter
	Events   EventLogger
	Notify   Notifier
	Logger   *zap.Logger
}

// New creates a Guard.
func New(opts Options) *Guard {
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		rules:    rules,
		prompter: opts.Prompter,
		events:   opts.Events,
		notify:   opts.Notify,
		logger:   logger,
	}
}

// Outcome is the result of resolving one command through the guard.
type Outcome struct {
	// Command is the text to execute; it may differ from the proposal when
	// the operator edited it.
	Command string
	Allowed bool
	// SkipReason is set when Allowed is false.
	SkipReason string
}

// Resolve walks one command through the safe-mode state machine. When safe
// mode is off the classification still runs for logging but never blocks.
// A matched command is presented to the operator with three choices:
// run-once override, edit (re-classified), or skip (the default).
func (g *Guard) Resolve(command string, safeMode bool) Outcome {
	candidate := command
	for {
		reason := classify(g.rules, candidate)
		if reason == "" {
			return Outcome{Command: candidate, Allowed: true}
		}

		if !safeMode {
			g.logger.Debug("destructive pattern matched with safe mode off",
				zap.String("command", candidate),
				zap.String("reason", reason),
			)
			if g.events != nil {
				g.events.LogEvent("destructive_command_allowed", map[string]any{
					"command": candidate,
					"reason":  reason,
				})
			}
			return Outcome{Command: candidate, Allowed: true}
		}

		if g.notify != nil {
			g.notify.Warn("Safe mode blocked high-risk command (" + reason + "): " + candidate)
		}
		if g.events != nil {
			g.events.LogEvent("safe_mode_blocked_command", map[string]any{
				"command": candidate,
				"reason":  reason,
			})
		}

		action, err := g.promptAction()
		if err != nil {
			return Outcome{SkipReason: ReasonBlocked}
		}

		switch action {
		case "run", "r":
			if g.events != nil {
				g.events.LogEvent("safe_mode_override", map[string]any{
					"command": candidate,
					"reason":  reason,
				})
			}
			return Outcome{Command: candidate, Allowed: true}

		case "e", "edit":
			edited, err := g.promptEdit(candidate)
			if err != nil {
				return Outcome{SkipReason: ReasonBlocked}
			}
			if edited == "" {
				// Never silently run an empty command.
				return Outcome{SkipReason: ReasonEmptyAfterEdit}
			}
			candidate = edited

		default:
			return Outcome{SkipReason: ReasonBlocked}
		}
	}
}

func (g *Guard) promptAction() (string, error) {
	if g.prompter == nil {
		return "", nil
	}
	line, err := g.prompter.ReadLine("Safe mode action [run=execute once, e=edit, s=skip] (default s): ")
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

func (g *Guard) promptEdit(current string) (string, error) {
	if g.prompter == nil {
		return "", nil
	}
	if g.notify != nil {
		g.notify.Warn("Current command: " + current)
	}
	line, err := g.prompter.ReadLine("Enter the modified command: ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
