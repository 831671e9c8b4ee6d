package session

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter reads one line of operator input after displaying a prompt.
type Prompter interface {
	ReadLine(prompt string) (string, error)
}

// TermPrompter reads lines from a terminal-like reader.
type TermPrompter struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewTermPrompter creates a prompter reading from in and printing prompts
// to out.
func NewTermPrompter(in io.Reader, out io.Writer) *TermPrompter {
	return &TermPrompter{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// ReadLine prints the prompt and reads one line, without the trailing
// newline. A final unterminated line before EOF is still returned; EOF with
// no pending text returns the read error.
func (p *TermPrompter) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(p.out, prompt)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
