package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// ErrClosed is returned by a Source once no more codes will arrive.
var ErrClosed = errors.New("scanner closed")

// Source yields raw scans. USB barcode readers type the code followed by
// Enter, so a line reader is a source.
type Source interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

type LineConfig struct {
	Prompt      string
	HistoryFile string
	Stdin       io.ReadCloser
	Stdout      io.Writer
}

// LineSource reads one code per line from the terminal.
type LineSource struct {
	rl *readline.Instance
}

func NewLineSource(cfg LineConfig) (*LineSource, error) {
	if cfg.Prompt == "" {
		cfg.Prompt = "scan> "
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cfg.Prompt,
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           cfg.Stdin,
		Stdout:          cfg.Stdout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %w", err)
	}
	return &LineSource{rl: rl}, nil
}

// SetPrompt changes the prompt shown for the next line, e.g. when the
// loop switches from scanning to a form field.
func (s *LineSource) SetPrompt(prompt string) {
	s.rl.SetPrompt(prompt)
}

func (s *LineSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := s.rl.Readline()
	if err != nil {
		if err == io.EOF || err == readline.ErrInterrupt {
			return "", ErrClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Ask shows prompt, reads one answer and restores the scan prompt.
func (s *LineSource) Ask(ctx context.Context, prompt string) (string, error) {
	previous := s.rl.Config.Prompt
	s.rl.SetPrompt(prompt)
	defer s.rl.SetPrompt(previous)
	return s.Next(ctx)
}

// Secret reads a line without echoing it.
func (s *LineSource) Secret(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := s.rl.ReadPassword(prompt)
	if err != nil {
		if err == io.EOF || err == readline.ErrInterrupt {
			return "", ErrClosed
		}
		return "", err
	}
	return string(b), nil
}

func (s *LineSource) Close() error {
	return s.rl.Close()
}
