package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/bobergda/simple-gpt-shell/internal/osinfo"
	"github.com/bobergda/simple-gpt-shell/internal/transcript"
)

// maxToolRounds bounds the tool-call resolution loop within one exchange.
// Exceeding it returns whatever was last resolved, never an error.
const maxToolRounds = 3

// ChatCompleter is the slice of the go-openai client the resolver needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// EventLogger records resolver activity in the interaction log.
type EventLogger interface {
	LogEvent(name string, data any)
}

// Resolver owns the conversation transcript and resolves user prompts and
// execution reports into command batches through the remote model.
type Resolver struct {
	client          ChatCompleter
	model           string
	maxOutputTokens int
	historyCeiling  int
	outputCeiling   int
	truncator       *transcript.Truncator
	tool            openai.Tool
	events          EventLogger
	logger          *zap.Logger

	messages     []transcript.Message
	lastUsage    UsageSummary
	sessionUsage UsageSummary
}

// Options configures a Resolver.
type Options struct {
	Client          ChatCompleter
	Model           string
	MaxOutputTokens int
	HistoryCeiling  int
	OutputCeiling   int
	Truncator       *transcript.Truncator
	OSInfo          osinfo.Info
	Events          EventLogger
	Logger          *zap.Logger
}

// New creates a Resolver with a pinned system message describing the
// operator's platform.
func New(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	systemPrompt := fmt.Sprintf(
		"You are a helpful assistant operating a %s shell on %s. "+
			"When fulfilling the user's request requires running commands, call the %s function "+
			"with the commands to run, in order. Keep explanations brief.",
		opts.OSInfo.ShellName, opts.OSInfo.OSName, toolGetCommands,
	)

	return &Resolver{
		client:          opts.Client,
		model:           opts.Model,
		maxOutputTokens: opts.MaxOutputTokens,
		historyCeiling:  opts.HistoryCeiling,
		outputCeiling:   opts.OutputCeiling,
		truncator:       opts.Truncator,
		tool:            getCommandsTool(opts.OSInfo),
		events:          opts.Events,
		logger:          logger,
		messages: []transcript.Message{
			{Role: transcript.RoleSystem, Content: systemPrompt},
		},
	}
}

// RequestCommands sends the user's text to the model with the get_commands
// tool forced, and resolves the reply into a command batch.
func (r *Resolver) RequestCommands(ctx context.Context, prompt string) (*CommandBatch, error) {
	working := append(slices.Clone(r.messages), transcript.Message{
		Role:    transcript.RoleUser,
		Content: prompt,
	})
	return r.exchange(ctx, working, true)
}

// executionReport is the payload sent back to the model after a batch runs.
type executionReport struct {
	Summary []ExecutionStatus          `json:"summary"`
	Results []transcript.CommandOutput `json:"results"`
}

// ReportExecution sends the execution report for narrative explanation and
// optional follow-up commands. Outputs are trimmed to the batch ceiling
// first; the tool is allowed but not forced.
func (r *Resolver) ReportExecution(ctx context.Context, outputs []transcript.CommandOutput, summary []ExecutionStatus) (*CommandBatch, error) {
	trimmed := r.truncator.TrimOutputs(outputs, r.outputCeiling)

	report := executionReport{
		Summary: summary,
		Results: trimmed,
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode execution report: %w", err)
	}

	working := append(slices.Clone(r.messages), transcript.Message{
		Role:    transcript.RoleUser,
		Content: "Here are the results of the executed commands:\n" + string(raw),
	})
	return r.exchange(ctx, working, false)
}

// exchange runs the bounded tool-call resolution loop. The transcript is
// committed only when the whole exchange succeeds, so a transport failure
// leaves previously accumulated state untouched.
func (r *Resolver) exchange(ctx context.Context, working []transcript.Message, forceTool bool) (*CommandBatch, error) {
	batch := &CommandBatch{}
	usage := UsageSummary{}
	lastPayloadResponse := ""
	lastContent := ""

	reply, updated, err := r.call(ctx, working, &usage, firstToolChoice(forceTool))
	if err != nil {
		return nil, err
	}
	working = updated

	for round := 1; ; round++ {
		working = append(working, fromOpenAI(reply))
		if reply.Content != "" {
			lastContent = reply.Content
		}

		if len(reply.ToolCalls) == 0 {
			break
		}

		acks := make([]transcript.Message, 0, len(reply.ToolCalls))
		for _, call := range reply.ToolCalls {
			if call.Function.Name != toolGetCommands {
				r.logger.Warn("ignoring unsupported tool call",
					zap.String("tool", call.Function.Name),
				)
				acks = append(acks, toolAck(call, "ignored"))
				continue
			}

			commands, response, droppedEntries := parseCommandsPayload(call.Function.Arguments)
			if r.events != nil {
				r.events.LogEvent("get_commands_payload", map[string]any{
					"round":     round,
					"arguments": json.RawMessage(sanitizeJSON(call.Function.Arguments)),
				})
			}
			if droppedEntries > 0 {
				r.logger.Warn("dropped malformed command entries",
					zap.Int("dropped", droppedEntries),
				)
			}
			for i := range commands {
				commands[i].Round = round
			}
			batch.Commands = append(batch.Commands, commands...)
			if response != "" {
				lastPayloadResponse = response
			}
			acks = append(acks, toolAck(call, "commands received"))
		}
		working = append(working, acks...)

		if round >= maxToolRounds {
			r.logger.Warn("tool-call round limit reached, terminating exchange",
				zap.Int("rounds", round),
			)
			break
		}

		// Acknowledgments go back in a single follow-up with tool
		// invocation disabled; its reply becomes the current reply.
		reply, updated, err = r.call(ctx, working, &usage, "none")
		if err != nil {
			return nil, err
		}
		working = updated
	}

	if lastContent != "" {
		batch.Response = lastContent
	} else {
		batch.Response = lastPayloadResponse
	}

	r.messages = working
	r.lastUsage = usage
	r.sessionUsage.Add(usage)

	return batch, nil
}

// call performs one chat completion. History is truncated to the ceiling
// before the request; the truncated list is returned so later appends build
// on what was actually sent.
func (r *Resolver) call(ctx context.Context, working []transcript.Message, usage *UsageSummary, toolChoice any) (openai.ChatCompletionMessage, []transcript.Message, error) {
	working = r.truncator.TruncateHistory(working, r.historyCeiling)

	request := openai.ChatCompletionRequest{
		Model:      r.model,
		Messages:   toOpenAI(working),
		Tools:      []openai.Tool{r.tool},
		ToolChoice: toolChoice,
		MaxTokens:  r.maxOutputTokens,
	}

	if r.events != nil {
		r.events.LogEvent("api_request", map[string]any{
			"model":    r.model,
			"messages": len(working),
		})
	}

	response, err := r.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return openai.ChatCompletionMessage{}, nil, fmt.Errorf("chat completion failed: %w", err)
	}

	usage.Add(UsageSummary{
		InputTokens:  response.Usage.PromptTokens,
		OutputTokens: response.Usage.CompletionTokens,
		TotalTokens:  response.Usage.TotalTokens,
		APICalls:     1,
	})

	if len(response.Choices) == 0 {
		return openai.ChatCompletionMessage{}, nil, errors.New("chat completion returned no choices")
	}
	reply := response.Choices[0].Message

	if r.events != nil {
		r.events.LogEvent("api_response", map[string]any{
			"model":         r.model,
			"content":       reply.Content,
			"tool_calls":    len(reply.ToolCalls),
			"finish_reason": string(response.Choices[0].FinishReason),
			"usage": map[string]any{
				"input_tokens":  response.Usage.PromptTokens,
				"output_tokens": response.Usage.CompletionTokens,
				"total_tokens":  response.Usage.TotalTokens,
			},
		})
	}

	return reply, working, nil
}

func firstToolChoice(forceTool bool) any {
	if forceTool {
		return openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: toolGetCommands},
		}
	}
	return "auto"
}

func toolAck(call openai.ToolCall, content string) transcript.Message {
	return transcript.Message{
		Role:       transcript.RoleTool,
		Content:    content,
		Name:       call.Function.Name,
		ToolCallID: call.ID,
	}
}

// sanitizeJSON returns its input when it is valid JSON, or a quoted string
// otherwise, so the interaction log line stays parseable.
func sanitizeJSON(raw string) []byte {
	if json.Valid([]byte(raw)) {
		return []byte(raw)
	}
	quoted, err := json.Marshal(raw)
	if err != nil {
		return []byte(`""`)
	}
	return quoted
}

// LastUsage reports the usage of the most recent exchange.
func (r *Resolver) LastUsage() UsageSummary {
	return r.lastUsage
}

// SessionUsage reports usage accumulated across the whole session.
func (r *Resolver) SessionUsage() UsageSummary {
	return r.sessionUsage
}

// MessageCount reports the committed transcript length.
func (r *Resolver) MessageCount() int {
	return len(r.messages)
}
