package llm

import (
	"encoding/json"
	"strings"
)

// parseCommandsPayload decodes the arguments of a get_commands tool call.
// Entries that are not objects or lack non-empty command text are dropped
// individually; an unparseable payload or a missing/invalid commands list
// simply yields no commands. Only the dropped count signals trouble.
func parseCommandsPayload(arguments string) (commands []CommandProposal, response string, dropped int) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(arguments), &payload); err != nil {
		return nil, "", 0
	}

	if text, ok := payload["response"].(string); ok {
		response = text
	}

	rawList, ok := payload["commands"].([]any)
	if !ok {
		return nil, response, 0
	}

	for _, raw := range rawList {
		entry, ok := raw.(map[string]any)
		if !ok {
			dropped++
			continue
		}
		command, _ := entry["command"].(string)
		if strings.TrimSpace(command) == "" {
			dropped++
			continue
		}
		description, _ := entry["description"].(string)
		commands = append(commands, CommandProposal{
			Command:     command,
			Description: description,
		})
	}

	return commands, response, dropped
}
