package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// ErrPromptAborted is returned when the user interrupts a prompt.
var ErrPromptAborted = errors.New("prompt aborted")

// Prompter reads interactive input.
type Prompter interface {
	// Line reads one line of visible input.
	Line(prompt string) (string, error)
	// Secret reads one line without echoing it.
	Secret(prompt string) (string, error)
}

// ReadlinePrompter prompts on the terminal through readline.
type ReadlinePrompter struct {
	config readline.Config
}

// NewReadlinePrompter creates a prompter. A nil stdin or stdout selects the
// terminal.
func NewReadlinePrompter(stdin io.ReadCloser, stdout io.Writer) *ReadlinePrompter {
	return &ReadlinePrompter{
		config: readline.Config{
			Stdin:           stdin,
			Stdout:          stdout,
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		},
	}
}

// Line reads one line of visible input.
func (p *ReadlinePrompter) Line(prompt string) (string, error) {
	cfg := p.config
	cfg.Prompt = prompt
	rl, err := readline.NewEx(&cfg)
	if err != nil {
		return "", fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	line, err := rl.Readline()
	return strings.TrimSpace(line), promptError(err)
}

// Secret reads one line with echo disabled.
func (p *ReadlinePrompter) Secret(prompt string) (string, error) {
	cfg := p.config
	rl, err := readline.NewEx(&cfg)
	if err != nil {
		return "", fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	secret, err := rl.ReadPassword(prompt)
	return string(secret), promptError(err)
}

func promptError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, readline.ErrInterrupt), errors.Is(err, io.EOF):
		return ErrPromptAborted
	default:
		return fmt.Errorf("readline error: %w", err)
	}
}
