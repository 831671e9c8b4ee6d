package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runeAccountant prices every rune as one token with a fixed per-message
// overhead, keeping the truncation math easy to verify by hand.
type runeAccountant struct {
	perMessage int
}

func (a runeAccountant) Count(text string) int {
	return len([]rune(text))
}

func (a runeAccountant) CostOf(messages []Message) int {
	total := 0
	for _, msg := range messages {
		total += a.perMessage + a.Count(msg.Content)
		for _, call := range msg.ToolCalls {
			total += a.Count(call.ID) + a.Count(call.Name) + a.Count(call.Arguments)
		}
	}
	return total
}

func (a runeAccountant) Encode(text string) []int {
	runes := []rune(text)
	tokens := make([]int, len(runes))
	for i, r := range runes {
		tokens[i] = int(r)
	}
	return tokens
}

func (a runeAccountant) Decode(tokens []int) string {
	runes := make([]rune, len(tokens))
	for i, tok := range tokens {
		runes[i] = rune(tok)
	}
	return string(runes)
}

func TestTruncateHistory_KeepsBudget(t *testing.T) {
	tr := NewTruncator(runeAccountant{}, nil)

	messages := []Message{
		{Role: RoleUser, Content: strings.Repeat("a", 50)},
		{Role: RoleAssistant, Content: strings.Repeat("b", 50)},
		{Role: RoleUser, Content: strings.Repeat("c", 50)},
	}

	got := tr.TruncateHistory(messages, 120)

	assert.LessOrEqual(t, runeAccountant{}.CostOf(got), 120)
	// Survivors are a contiguous suffix in original order.
	require.Len(t, got, 2)
	assert.Equal(t, strings.Repeat("b", 50), got[0].Content)
	assert.Equal(t, strings.Repeat("c", 50), got[1].Content)
}

func TestTruncateHistory_UnderBudgetUntouched(t *testing.T) {
	tr := NewTruncator(runeAccountant{}, nil)

	messages := []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}

	got := tr.TruncateHistory(messages, 100)
	assert.Equal(t, messages, got)
}

func TestTruncateHistory_PinnedSystemMessageSurvives(t *testing.T) {
	tr := NewTruncator(runeAccountant{}, nil)

	messages := []Message{
		{Role: RoleSystem, Content: strings.Repeat("s", 20)},
		{Role: RoleUser, Content: strings.Repeat("a", 100)},
		{Role: RoleUser, Content: strings.Repeat("b", 30)},
	}

	got := tr.TruncateHistory(messages, 60)

	require.NotEmpty(t, got)
	assert.Equal(t, RoleSystem, got[0].Role)
	for _, msg := range got[1:] {
		assert.NotEqual(t, RoleSystem, msg.Role)
	}
	assert.LessOrEqual(t, runeAccountant{}.CostOf(got), 60)
}

func TestTruncateHistory_EmptyListTolerated(t *testing.T) {
	tr := NewTruncator(runeAccountant{perMessage: 10}, nil)

	messages := []Message{
		{Role: RoleUser, Content: strings.Repeat("a", 100)},
	}

	// Ceiling below the cost of any single message drains the whole list.
	got := tr.TruncateHistory(messages, 5)
	assert.Empty(t, got)

	got = tr.TruncateHistory(nil, 5)
	assert.Empty(t, got)
}

func TestTrimOutputs_UnderCeilingUnchanged(t *testing.T) {
	tr := NewTruncator(runeAccountant{}, nil)

	outputs := []CommandOutput{
		{Command: "ls", Stdout: "a b c"},
	}

	got := tr.TrimOutputs(outputs, 100)
	assert.Equal(t, outputs, got)
}

func TestTrimOutputs_FavorsSmallOutputs(t *testing.T) {
	tr := NewTruncator(runeAccountant{}, nil)

	outputs := []CommandOutput{
		{Command: "x", Stdout: strings.Repeat("a", 4)},   // cost 5
		{Command: "y", Stdout: strings.Repeat("b", 4)},   // cost 5
		{Command: "z", Stdout: strings.Repeat("c", 499)}, // cost 500
	}

	got := tr.TrimOutputs(outputs, 300)

	// The two cost-5 outputs are protected and untouched.
	assert.Equal(t, outputs[0].Stdout, got[0].Stdout)
	assert.Equal(t, outputs[1].Stdout, got[1].Stdout)

	// The large output absorbs the whole excess (single pass, approximate).
	assert.Less(t, len(got[2].Stdout), len(outputs[2].Stdout))
	total := 0
	for _, out := range got {
		total += runeAccountant{}.Count(out.Command) + runeAccountant{}.Count(out.Stdout) + runeAccountant{}.Count(out.Stderr)
	}
	assert.InDelta(t, 300, total, 10)

	// Command and stderr text is never trimmed.
	for i := range got {
		assert.Equal(t, outputs[i].Command, got[i].Command)
		assert.Equal(t, outputs[i].Stderr, got[i].Stderr)
	}
}

func TestTrimOutputs_TrimsFromEndOfStdout(t *testing.T) {
	tr := NewTruncator(runeAccountant{}, nil)

	outputs := []CommandOutput{
		{Command: "c", Stdout: "HEAD" + strings.Repeat("x", 200)},
	}

	got := tr.TrimOutputs(outputs, 100)

	require.NotEmpty(t, got[0].Stdout)
	assert.True(t, strings.HasPrefix(got[0].Stdout, "HEAD"))
}

func TestTrimOutputs_StderrNeverTrimmed(t *testing.T) {
	tr := NewTruncator(runeAccountant{}, nil)

	outputs := []CommandOutput{
		{Command: "build", Stdout: strings.Repeat("o", 300), Stderr: strings.Repeat("e", 50)},
	}

	got := tr.TrimOutputs(outputs, 100)
	assert.Equal(t, outputs[0].Stderr, got[0].Stderr)
	assert.Less(t, len(got[0].Stdout), 300)
}

func TestTrimOutputs_EmptyBatch(t *testing.T) {
	tr := NewTruncator(runeAccountant{}, nil)
	assert.Empty(t, tr.TrimOutputs(nil, 100))
}

func TestTrimOutputs_DoesNotMutateInput(t *testing.T) {
	tr := NewTruncator(runeAccountant{}, nil)

	outputs := []CommandOutput{
		{Command: "c", Stdout: strings.Repeat("x", 200)},
	}

	_ = tr.TrimOutputs(outputs, 50)
	assert.Equal(t, strings.Repeat("x", 200), outputs[0].Stdout)
}
