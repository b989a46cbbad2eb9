package main

import (
	"fmt"
	"io"
)

func printOverview(w io.Writer) {
	fmt.Fprint(w, "harnessctl - component harness operations against Chrome\n\n")
	for _, group := range commandsByCategory() {
		fmt.Fprintf(w, "%s:\n", group.Category)
		for _, c := range group.Commands {
			fmt.Fprintf(w, "  %-14s %s\n", c.Name, c.Desc)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "Run 'harnessctl help <command>' for the arguments of a command.")
}

// cmdHelp prints the command list, or the usage line of one command.
func cmdHelp(cfg *Config, args []string) int {
	if len(args) == 0 {
		printOverview(cfg.Stdout)
		return ExitSuccess
	}
	c, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(cfg.Stderr, "unknown command: %s\n", args[0])
		return ExitError
	}
	fmt.Fprintf(cfg.Stdout, "usage: harnessctl %s\n\n%s\n", c.Usage, c.Desc)
	return ExitSuccess
}
