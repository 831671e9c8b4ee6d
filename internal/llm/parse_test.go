package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandsPayload_Valid(t *testing.T) {
	arguments := `{
		"commands": [
			{"command": "ls -la", "description": "list files"},
			{"command": "df -h"}
		],
		"response": "Checking disk usage."
	}`

	commands, response, dropped := parseCommandsPayload(arguments)

	require.Len(t, commands, 2)
	assert.Equal(t, "ls -la", commands[0].Command)
	assert.Equal(t, "list files", commands[0].Description)
	assert.Equal(t, "df -h", commands[1].Command)
	assert.Empty(t, commands[1].Description)
	assert.Equal(t, "Checking disk usage.", response)
	assert.Zero(t, dropped)
}

func TestParseCommandsPayload_DropsMalformedEntries(t *testing.T) {
	arguments := `{
		"commands": [
			{"command": "uptime"},
			{"command": ""},
			{"command": "   "},
			"not an object",
			{"description": "no command field"},
			{"command": 42}
		]
	}`

	commands, _, dropped := parseCommandsPayload(arguments)

	require.Len(t, commands, 1)
	assert.Equal(t, "uptime", commands[0].Command)
	assert.Equal(t, 5, dropped)
}

func TestParseCommandsPayload_TotalMalformance(t *testing.T) {
	tests := []struct {
		name      string
		arguments string
	}{
		{"not json", "definitely not json"},
		{"commands not a list", `{"commands": "ls"}`},
		{"missing commands", `{"response": "nothing to do"}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commands, _, _ := parseCommandsPayload(tt.arguments)
			assert.Nil(t, commands)
		})
	}
}

func TestParseCommandsPayload_ResponseSurvivesBadCommands(t *testing.T) {
	commands, response, _ := parseCommandsPayload(`{"commands": null, "response": "all done"}`)

	assert.Nil(t, commands)
	assert.Equal(t, "all done", response)
}
