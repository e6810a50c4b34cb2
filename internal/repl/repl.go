// ABOUTME: Interactive control shell for the pedalboard
// ABOUTME: Reads commands with readline and applies them to the board
package repl

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/board"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/pedal"
	"github.com/chzyer/readline"
)

// errQuit ends the shell
var errQuit = errors.New("quit")

// Board is the part of the pedalboard the shell drives
type Board interface {
	Play() error
	Stop() error
	Set(effect, param string, value float64) error
	Engage(effect string, on bool) error
	Effects() []pedal.Effect
	State() board.State
}

type env struct {
	board Board
}

type command struct {
	name  string
	usage string
	run   func(*env, []string) (string, error)
	arity int
}

var commands []command

func init() {
	commands = []command{
		{"play", "play", playCommand, 0},
		{"stop", "stop", stopCommand, 0},
		{"set", "set <pedal> <param> <value>", setCommand, 3},
		{"on", "on <pedal>", engageCommand(true), 1},
		{"off", "off <pedal>", engageCommand(false), 1},
		{"show", "show", showCommand, 0},
		{"help", "help", helpCommand, 0},
		{"quit", "quit", quitCommand, 0},
	}
}

func (e *env) eval(input string) (string, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return "", nil
	}
	name, args := fields[0], fields[1:]

	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if len(args) != cmd.arity {
			return "", fmt.Errorf("%s: wrong number of arguments: want %v, got %v (usage: %s)",
				cmd.name, cmd.arity, len(args), cmd.usage)
		}
		result, err := cmd.run(e, args)
		if err != nil && !errors.Is(err, errQuit) {
			return result, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, err
	}
	return "", fmt.Errorf("unknown command: %s (try help)", name)
}

// Run reads commands until quit or end of input
func Run(b Board) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "pedalboard> ",
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	return loop(&env{board: b}, rl.Readline, rl.Stdout())
}

// loop evaluates lines from next until quit
func loop(e *env, next func() (string, error), out io.Writer) error {
	for {
		line, err := next()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		result, err := e.eval(line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if result != "" {
			fmt.Fprintln(out, result)
		}
	}
}

func completer() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, cmd := range commands {
		items = append(items, readline.PcItem(cmd.name))
	}
	return readline.NewPrefixCompleter(items...)
}

func playCommand(e *env, _ []string) (string, error) {
	return "", e.board.Play()
}

func stopCommand(e *env, _ []string) (string, error) {
	return "", e.board.Stop()
}

func setCommand(e *env, args []string) (string, error) {
	value, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return "", fmt.Errorf("invalid value %q", args[2])
	}
	return "", e.board.Set(args[0], args[1], value)
}

func engageCommand(on bool) func(*env, []string) (string, error) {
	return func(e *env, args []string) (string, error) {
		return "", e.board.Engage(args[0], on)
	}
}

func showCommand(e *env, _ []string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "state: %s", e.board.State())
	for _, effect := range e.board.Effects() {
		fmt.Fprintf(&b, "\n  %s", effect.Placeholder())
	}
	return b.String(), nil
}

func helpCommand(_ *env, _ []string) (string, error) {
	usages := make([]string, len(commands))
	for i, cmd := range commands {
		usages[i] = "  " + cmd.usage
	}
	return "commands:\n" + strings.Join(usages, "\n"), nil
}

func quitCommand(_ *env, _ []string) (string, error) {
	return "", errQuit
}
