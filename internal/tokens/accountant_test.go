package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bobergda/simple-gpt-shell/internal/transcript"
)

func TestProfileForModel(t *testing.T) {
	tests := []struct {
		model string
		want  Profile
	}{
		{"gpt-4o-mini", Profile{PerMessage: 5, PerName: 1, Priming: 3}},
		{"gpt-4o", Profile{PerMessage: 6, PerName: 2, Priming: 3}},
		{"gpt-4", Profile{PerMessage: 3, PerName: 1, Priming: 3}},
		{"gpt-4-turbo", Profile{PerMessage: 3, PerName: 1, Priming: 3}},
		{"gpt-3.5-turbo", Profile{PerMessage: 4, PerName: -1, Priming: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, ProfileForModel(tt.model, nil))
		})
	}
}

func TestProfileForModel_UnknownFallsBack(t *testing.T) {
	got := ProfileForModel("some-future-model", nil)
	assert.Equal(t, Profile{PerMessage: 5, PerName: 1, Priming: 3}, got)
}

func TestRuneTokenizer_RoundTrip(t *testing.T) {
	tok := RuneTokenizer{}
	text := "hello wörld"

	encoded := tok.Encode(text)
	assert.Len(t, encoded, 11)
	assert.Equal(t, text, tok.Decode(encoded))
}

func TestAccountant_Count(t *testing.T) {
	acct := NewAccountant(RuneTokenizer{}, Profile{PerMessage: 3, PerName: 1, Priming: 3})

	assert.Equal(t, 0, acct.Count(""))
	assert.Equal(t, 5, acct.Count("hello"))
}

func TestAccountant_CostOf(t *testing.T) {
	acct := NewAccountant(RuneTokenizer{}, Profile{PerMessage: 3, PerName: 1, Priming: 3})

	messages := []transcript.Message{
		{Role: transcript.RoleUser, Content: "hello"},                       // 3 + 5
		{Role: transcript.RoleAssistant, Content: "ok", Name: "assistant"}, // 3 + 2 + 1 + 9
	}

	// 8 + 15 + priming 3
	assert.Equal(t, 26, acct.CostOf(messages))
}

func TestAccountant_CostOf_CountsToolCalls(t *testing.T) {
	acct := NewAccountant(RuneTokenizer{}, Profile{PerMessage: 0, Priming: 0})

	messages := []transcript.Message{
		{
			Role: transcript.RoleAssistant,
			ToolCalls: []transcript.ToolCall{
				{ID: "ab", Name: "cd", Arguments: "efgh"},
			},
		},
	}

	assert.Equal(t, 8, acct.CostOf(messages))
}

func TestAccountant_ImplementsTranscriptAccountant(t *testing.T) {
	var _ transcript.Accountant = NewAccountant(RuneTokenizer{}, Profile{})
}
