package llm

import (
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bobergda/simple-gpt-shell/internal/osinfo"
)

const toolGetCommands = "get_commands"

// getCommandsTool builds the single supported tool. The description names
// the detected shell and OS so the model proposes commands for the right
// platform.
func getCommandsTool(info osinfo.Info) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name: toolGetCommands,
			Description: fmt.Sprintf(
				"Propose %s shell commands to run on %s in service of the user's request.",
				info.ShellName, info.OSName,
			),
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"commands": map[string]any{
						"type":        "array",
						"description": "Commands to execute, in order.",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"command": map[string]any{
									"type":        "string",
									"description": "The exact shell command to run.",
								},
								"description": map[string]any{
									"type":        "string",
									"description": "One-line explanation of what the command does.",
								},
							},
							"required": []string{"command"},
						},
					},
					"response": map[string]any{
						"type":        "string",
						"description": "Short message to show the user alongside the commands.",
					},
				},
				"required": []string{"commands"},
			},
		},
	}
}
