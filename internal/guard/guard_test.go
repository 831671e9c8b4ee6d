package guard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_DestructiveCommands(t *testing.T) {
	tests := []struct {
		command string
		reason  string
	}{
		{"rm -rf /tmp/x", "rm with recursive/force options"},
		{"sudo rm -r /var/cache", "rm with recursive/force options"},
		{"rm --force file", "rm with recursive/force options"},
		{"ls; rm -rf build", "rm with recursive/force options"},
		{"rm --no-preserve-root -rf /", "rm with preserve-root disabled"},
		{"mkfs.ext4 /dev/sda1", "filesystem format command"},
		{"dd if=/dev/zero of=/dev/sda", "dd write to block device"},
		{"shred -u secrets.txt", "secure delete command"},
		{"wipefs -a /dev/sdb", "filesystem wipe command"},
		{"git reset --hard HEAD~3", "git hard reset"},
		{"git clean -fd", "git clean with force"},
		{"docker system prune", "docker prune"},
		{":(){ :|:& };:", "fork bomb pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			assert.Equal(t, tt.reason, Classify(tt.command))
		})
	}
}

func TestClassify_SafeCommands(t *testing.T) {
	tests := []string{
		"ls -la /tmp",
		"rm /tmp/x",
		"rm file1 file2",
		"git status",
		"git clean --dry-run",
		"docker ps",
		"echo hello",
		"",
		"   ",
	}

	for _, command := range tests {
		t.Run(command, func(t *testing.T) {
			assert.Empty(t, Classify(command))
		})
	}
}

func TestClassify_FirstMatchingRuleWins(t *testing.T) {
	// Matches both the preserve-root rule and the recursive/force rule;
	// the preserve-root rule is ordered first.
	reason := Classify("rm -rf --no-preserve-root /")
	assert.Equal(t, "rm with preserve-root disabled", reason)
}

// scriptedPrompter replays a fixed sequence of operator answers.
type scriptedPrompter struct {
	answers []string
	err     error
}

func (p *scriptedPrompter) ReadLine(prompt string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	if len(p.answers) == 0 {
		return "", nil
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

type recordingEvents struct {
	names []string
}

func (r *recordingEvents) LogEvent(name string, data any) {
	r.names = append(r.names, name)
}

func TestResolve_SafeCommandAllowed(t *testing.T) {
	g := New(Options{Prompter: &scriptedPrompter{}})

	outcome := g.Resolve("ls /tmp", true)

	assert.True(t, outcome.Allowed)
	assert.Equal(t, "ls /tmp", outcome.Command)
}

func TestResolve_SkipIsDefault(t *testing.T) {
	events := &recordingEvents{}
	g := New(Options{Prompter: &scriptedPrompter{answers: []string{""}}, Events: events})

	outcome := g.Resolve("rm -rf /", true)

	assert.False(t, outcome.Allowed)
	assert.Equal(t, ReasonBlocked, outcome.SkipReason)
	assert.Contains(t, events.names, "safe_mode_blocked_command")
}

func TestResolve_RunOnceOverride(t *testing.T) {
	events := &recordingEvents{}
	g := New(Options{Prompter: &scriptedPrompter{answers: []string{"run"}}, Events: events})

	outcome := g.Resolve("rm -rf /tmp/scratch", true)

	assert.True(t, outcome.Allowed)
	assert.Equal(t, "rm -rf /tmp/scratch", outcome.Command)
	assert.Contains(t, events.names, "safe_mode_override")
}

func TestResolve_EditToSafeCommand(t *testing.T) {
	g := New(Options{Prompter: &scriptedPrompter{answers: []string{"e", "rm /tmp/scratch/one.txt"}}})

	outcome := g.Resolve("rm -rf /tmp/scratch", true)

	assert.True(t, outcome.Allowed)
	assert.Equal(t, "rm /tmp/scratch/one.txt", outcome.Command)
}

func TestResolve_EditedCommandReclassified(t *testing.T) {
	// The edit still matches a rule, so the guard loops and the operator
	// then skips.
	g := New(Options{Prompter: &scriptedPrompter{answers: []string{"e", "rm -fr /tmp/other", "s"}}})

	outcome := g.Resolve("rm -rf /tmp/scratch", true)

	assert.False(t, outcome.Allowed)
	assert.Equal(t, ReasonBlocked, outcome.SkipReason)
}

func TestResolve_EmptyEditBlocksWithDistinctReason(t *testing.T) {
	g := New(Options{Prompter: &scriptedPrompter{answers: []string{"e", ""}}})

	outcome := g.Resolve("rm -rf /tmp/scratch", true)

	assert.False(t, outcome.Allowed)
	assert.Equal(t, ReasonEmptyAfterEdit, outcome.SkipReason)
}

func TestResolve_SafeModeOffNeverBlocks(t *testing.T) {
	events := &recordingEvents{}
	g := New(Options{Prompter: &scriptedPrompter{}, Events: events})

	outcome := g.Resolve("rm -rf /", false)

	require.True(t, outcome.Allowed)
	assert.Equal(t, "rm -rf /", outcome.Command)
	// Classification still ran for the log.
	assert.Contains(t, events.names, "destructive_command_allowed")
}

func TestResolve_PrompterErrorBlocks(t *testing.T) {
	g := New(Options{Prompter: &scriptedPrompter{err: errors.New("eof")}})

	outcome := g.Resolve("rm -rf /", true)

	assert.False(t, outcome.Allowed)
	assert.Equal(t, ReasonBlocked, outcome.SkipReason)
}
