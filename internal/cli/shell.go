package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/hession/datakit/internal/config"
	"github.com/hession/datakit/internal/registry"
)

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorRed   = "\033[31m"
	colorGray  = "\033[90m"
)

// NewShellCmd creates the "shell" command: an interactive loop that
// dispatches tool invocations through the same binder as "run".
func NewShellCmd(reg *registry.Registry, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive tool shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(reg, cfg)
		},
	}
}

// getHistoryFilePath returns the shell history file path
func getHistoryFilePath() string {
	dir := config.GetConfigDir()
	if dir == "" {
		return ""
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ""
	}
	return filepath.Join(dir, "shell_history")
}

func runShell(reg *registry.Registry, cfg *config.Config) error {
	fmt.Printf("\n%sdatakit shell%s  type a tool invocation, /list for tools, /exit to quit\n\n", colorCyan, colorReset)

	rlConfig := &readline.Config{
		Prompt:            fmt.Sprintf("%sdatakit> %s", colorGreen, colorReset),
		HistoryFile:       getHistoryFilePath(),
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	}

	rl, err := readline.NewEx(rlConfig)
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				fmt.Printf("%sType /exit to quit%s\n", colorGray, colorReset)
				continue
			}
			if err == io.EOF {
				fmt.Println("Bye.")
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if handleShellCommand(input, reg) {
				continue
			}
			return nil // /exit
		}

		if err := dispatchLine(reg, cfg, input); err != nil {
			fmt.Printf("%sError: %v%s\n", colorRed, err, colorReset)
		}
	}
}

// handleShellCommand handles built-in /commands; returns false on /exit.
func handleShellCommand(input string, reg *registry.Registry) bool {
	switch input {
	case "/exit", "/quit":
		fmt.Println("Bye.")
		return false
	case "/list":
		for _, t := range reg.List() {
			fmt.Printf("%-30s %s\n", t.Name, t.Description)
		}
	case "/help":
		fmt.Println("Enter a tool invocation: <tool> --flag value ...")
		fmt.Println("Commands: /list  show registered tools")
		fmt.Println("          /help  this help")
		fmt.Println("          /exit  quit the shell")
	default:
		fmt.Printf("Unknown command: %s (try /help)\n", input)
	}
	return true
}

// dispatchLine parses one shell line and runs it as a tool invocation.
func dispatchLine(reg *registry.Registry, cfg *config.Config, line string) error {
	argv, err := splitArgs(line)
	if err != nil {
		return err
	}
	if len(argv) == 0 {
		return nil
	}

	t, err := reg.Get(argv[0])
	if err != nil {
		return err
	}

	// Tool commands carry per-invocation flag state, so each dispatch gets a
	// fresh command.
	cmd := newToolCmd(t, cfg)
	cmd.SetArgs(argv[1:])
	cmd.SilenceErrors = true
	return cmd.Execute()
}

// splitArgs splits a shell line into arguments, honoring single and double
// quotes. No escape handling beyond that; this is a convenience loop, not a
// full shell.
func splitArgs(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	var quote rune
	inArg := false

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in input")
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}
