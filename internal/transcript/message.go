// Package transcript holds the conversation history types and the two
// truncation algorithms that keep a growing exchange inside a token budget.
package transcript

// Role identifies the author of a transcript message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a structured tool invocation recorded on an assistant message.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one entry of the conversation transcript. The transcript is
// append-only; ordering is causally significant, so truncation may only ever
// drop a contiguous prefix.
type Message struct {
	Role       Role
	Content    string
	Name       string
	ToolCallID string
	ToolCalls  []ToolCall
}

// CommandOutput is the captured result of one executed command as it is
// reported back to the model. Stdout is the only segment the proportional
// trim may shrink.
type CommandOutput struct {
	Command     string `json:"command"`
	Stdout      string `json:"stdout"`
	Stderr      string `json:"stderr"`
	ExitCode    int    `json:"returncode"`
	TimedOut    bool   `json:"timed_out"`
	Interrupted bool   `json:"interrupted"`
}

// Accountant prices text and message lists in model tokens. Implemented by
// the tokens package; defined here so the truncator depends only on the
// behavior it needs.
type Accountant interface {
	Count(text string) int
	CostOf(messages []Message) int
	Encode(text string) []int
	Decode(tokens []int) string
}
