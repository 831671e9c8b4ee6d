package transcript

import (
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Truncator keeps message history and command-output batches under their
// token ceilings.
type Truncator struct {
	acct   Accountant
	logger *zap.Logger
}

// NewTruncator creates a Truncator backed by the given accountant.
func NewTruncator(acct Accountant, logger *zap.Logger) *Truncator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Truncator{
		acct:   acct,
		logger: logger,
	}
}

// TruncateHistory evicts the oldest messages until the list costs at most
// ceiling tokens. When the first message is a pinned system message it is
// never evicted; eviction starts at index 1 instead. An empty result is a
// degraded-context condition, not an error: the surviving messages are
// always a contiguous suffix of the input.
func (t *Truncator) TruncateHistory(messages []Message, ceiling int) []Message {
	for t.acct.CostOf(messages) > ceiling {
		evictAt := 0
		if len(messages) > 0 && messages[0].Role == RoleSystem {
			evictAt = 1
		}
		if evictAt >= len(messages) {
			break
		}

		t.logger.Debug("evicting oldest transcript message",
			zap.String("role", string(messages[evictAt].Role)),
			zap.Int("remaining", len(messages)-1),
		)
		messages = append(messages[:evictAt], messages[evictAt+1:]...)
	}
	return messages
}

// outputCost is the per-output token bookkeeping for one trim pass.
type outputCost struct {
	index  int
	stdout []int
	fixed  int // command + stderr tokens, never trimmed
	total  int
}

// TrimOutputs shrinks a batch of command outputs so their combined token
// cost approximately fits ceiling. The smallest outputs are accumulated
// into a protected set worth up to half the ceiling and left untouched;
// every remaining output loses a share of the excess proportional to its
// own cost, trimmed from the end of its stdout token stream only. This is
// a single pass: re-tokenization after trimming may leave the batch
// slightly over or under the ceiling, which callers must tolerate.
func (t *Truncator) TrimOutputs(outputs []CommandOutput, ceiling int) []CommandOutput {
	if len(outputs) == 0 {
		return outputs
	}

	costs := make([]outputCost, len(outputs))
	for i, out := range outputs {
		stdout := t.acct.Encode(out.Stdout)
		fixed := t.acct.Count(out.Command) + t.acct.Count(out.Stderr)
		costs[i] = outputCost{
			index:  i,
			stdout: stdout,
			fixed:  fixed,
			total:  fixed + len(stdout),
		}
	}

	total := lo.SumBy(costs, func(c outputCost) int { return c.total })
	if total <= ceiling {
		return outputs
	}
	excess := total - ceiling

	sort.SliceStable(costs, func(i, j int) bool {
		return costs[i].total < costs[j].total
	})

	// Protect the smallest outputs up to half the ceiling. Short outputs
	// tend to be the information-dense ones (exit codes, error lines).
	protectedBudget := ceiling / 2
	protectedTokens := 0
	firstUnprotected := 0
	for _, c := range costs {
		if protectedTokens+c.total > protectedBudget {
			break
		}
		protectedTokens += c.total
		firstUnprotected++
	}

	unprotected := costs[firstUnprotected:]
	unprotectedTotal := lo.SumBy(unprotected, func(c outputCost) int { return c.total })
	if unprotectedTotal == 0 {
		return outputs
	}

	trimmed := make([]CommandOutput, len(outputs))
	copy(trimmed, outputs)

	for _, c := range unprotected {
		share := excess * c.total / unprotectedTotal
		if share <= 0 {
			continue
		}
		if share > len(c.stdout) {
			share = len(c.stdout)
		}
		kept := c.stdout[:len(c.stdout)-share]
		trimmed[c.index].Stdout = t.acct.Decode(kept)

		t.logger.Debug("trimmed command output",
			zap.String("command", trimmed[c.index].Command),
			zap.Int("removed_tokens", share),
		)
	}

	return trimmed
}
