package repl

import (
	"strings"

	"github.com/chzyer/readline"
)

// Prompter asks the user for one value.
type Prompter interface {
	Prompt(label string, secret bool) (string, error)
}

type readlinePrompter struct {
	rl     *readline.Instance
	prompt string
}

func (p *readlinePrompter) Prompt(label string, secret bool) (string, error) {
	if secret {
		raw, err := p.rl.ReadPassword(label + ": ")
		return string(raw), err
	}
	p.rl.SetPrompt(label + ": ")
	defer p.rl.SetPrompt(p.prompt)
	line, err := p.rl.Readline()
	return strings.TrimSpace(line), err
}
