package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/leapstack-labs/entconsole/pkg/session"
)

// Prompts shown before a new statement and while a multiline statement is
// being accumulated.
const (
	PrimaryPrompt      = "ent> "
	ContinuationPrompt = "    > "
)

// ErrInterrupted is returned by a LineSource when the user interrupts the
// current line. The partial statement is discarded.
var ErrInterrupted = errors.New("interrupted")

// LineSource supplies trimmed input lines. ReadLine blocks until a line is
// available and returns io.EOF once the input is exhausted.
type LineSource interface {
	ReadLine() (string, error)
}

// Prompter is implemented by line sources that display a prompt.
type Prompter interface {
	SetPrompt(prompt string)
}

// ReaderSource reads lines from any reader, such as piped standard input.
type ReaderSource struct {
	scanner *bufio.Scanner
}

// NewReaderSource creates a line source over r.
func NewReaderSource(r io.Reader) *ReaderSource {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &ReaderSource{scanner: s}
}

// ReadLine implements LineSource.
func (s *ReaderSource) ReadLine() (string, error) {
	if s.scanner.Scan() {
		return strings.TrimSpace(s.scanner.Text()), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// ReadlineSource reads from an interactive terminal with line editing,
// persistent history and tab completion.
type ReadlineSource struct {
	rl *readline.Instance
}

// DefaultHistoryFile returns ~/.entconsole_history, or "" when the home
// directory is unknown.
func DefaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".entconsole_history")
}

// NewReadlineSource creates an interactive line source. Entity names from
// types are offered for completion after describe.
func NewReadlineSource(historyFile string, types []*session.EntityDescriptor) (*ReadlineSource, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          PrimaryPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newCompleter(types),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize console: %w", err)
	}
	return &ReadlineSource{rl: rl}, nil
}

// ReadLine implements LineSource.
func (s *ReadlineSource) ReadLine() (string, error) {
	line, err := s.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrInterrupted
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// SetPrompt implements Prompter.
func (s *ReadlineSource) SetPrompt(prompt string) {
	s.rl.SetPrompt(prompt)
}

// Close restores the terminal.
func (s *ReadlineSource) Close() error {
	return s.rl.Close()
}

// newCompleter completes meta-commands, and entity names after describe.
func newCompleter(types []*session.EntityDescriptor) *readline.PrefixCompleter {
	var names []readline.PrefixCompleterInterface
	for _, t := range types {
		if t.Kind == session.KindEntity || t.Kind == session.KindEmbeddable {
			names = append(names, readline.PcItem(t.Name))
		}
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("list"),
		readline.PcItem("history"),
		readline.PcItem("clear"),
		readline.PcItem("multiline",
			readline.PcItem("on"),
			readline.PcItem("off"),
		),
		readline.PcItem("describe",
			append([]readline.PrefixCompleterInterface{readline.PcItem("all", names...)}, names...)...,
		),
		readline.PcItem("show",
			readline.PcItem("entities", readline.PcItem("package")),
			readline.PcItem("queries", readline.PcItem("for")),
		),
		readline.PcItem("select"),
		readline.PcItem("update"),
		readline.PcItem("delete"),
		readline.PcItem("sql"),
		readline.PcItem("quit"),
		readline.PcItem("exit"),
	)
}
