package main

import (
	"bufio"
	"fmt"
	"strings"
)

// cmdPipe reads commands from stdin, one per line, and runs them against the
// same browser in order. The first command that fails ends the pipe with its
// exit code. Blank lines and # comments are ignored.
func cmdPipe(cfg *Config, _ []string) int {
	lines := bufio.NewScanner(cfg.Stdin)
	for lineNo := 1; lines.Scan(); lineNo++ {
		line := strings.TrimSpace(lines.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		argv := splitArgs(line)
		if len(argv) == 0 {
			continue
		}

		name := argv[0]
		info, ok := commands[name]
		if !ok || name == "pipe" {
			fmt.Fprintf(cfg.Stderr, "unknown command: %s (line %d)\n", name, lineNo)
			return ExitError
		}
		if code := info.Run(cfg, argv[1:]); code != ExitSuccess {
			return code
		}
	}
	if err := lines.Err(); err != nil {
		fmt.Fprintf(cfg.Stderr, "error reading stdin: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

// splitArgs breaks line on spaces and tabs. Single or double quotes group
// words into one argument and may produce an empty one.
func splitArgs(line string) []string {
	var (
		args  []string
		word  strings.Builder
		quote rune
		open  bool // a word has started, possibly empty
	)
	flush := func() {
		if open {
			args = append(args, word.String())
			word.Reset()
			open = false
		}
	}

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				word.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote, open = r, true
		case r == ' ' || r == '\t':
			flush()
		default:
			word.WriteRune(r)
			open = true
		}
	}
	flush()
	return args
}
