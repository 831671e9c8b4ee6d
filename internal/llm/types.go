// Package llm drives the exchange with the remote model: it owns the
// conversation transcript, the get_commands tool schema, the bounded
// tool-call resolution loop and the usage accounting.
package llm

// CommandProposal is one command suggested by the model. It is never
// mutated after creation; a user edit produces a new proposal with the
// same origin round.
type CommandProposal struct {
	Command     string
	Description string
	Round       int
}

// CommandBatch is the resolved outcome of one exchange: zero or more
// proposals plus the model's narrative text.
type CommandBatch struct {
	Commands []CommandProposal
	Response string
}

// UsageSummary aggregates token usage as reported by the transport.
type UsageSummary struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
	APICalls     int `json:"api_calls"`
}

// Add accumulates another summary into this one.
func (u *UsageSummary) Add(other UsageSummary) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
	u.APICalls += other.APICalls
}

// ExecutionStatus records what happened to one proposed command.
type ExecutionStatus struct {
	Command  string `json:"command"`
	Status   string `json:"status"`
	ExitCode *int   `json:"returncode,omitempty"`
}

// Per-command statuses recorded in the execution summary.
const (
	StatusExecuted          = "executed"
	StatusSkipped           = "skipped"
	StatusSkippedEmpty      = "skipped_empty"
	StatusSkippedEmptyEdit  = "skipped_empty_after_edit"
	StatusSkippedAfterEdit  = "skipped_after_edit"
	StatusBlockedBySafeMode = "blocked_by_safe_mode"
	StatusStoppedByUser     = "stopped_by_user"
)
