package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/pflag"
)

// CommandInfo describes a CLI command.
type CommandInfo struct {
	Name     string
	Usage    string
	Desc     string
	Category string
	Run      func(cfg *Config, args []string) int
}

// commands is the registry of all available commands. It is filled in init
// because help and pipe refer back to it.
var commands map[string]CommandInfo

// fixed builds a Run for commands taking exactly n positional arguments.
func fixed(usage string, n int, fn func(cfg *Config, args []string) int) func(*Config, []string) int {
	return func(cfg *Config, args []string) int {
		if len(args) != n {
			return cmdMissingArg(cfg, "usage: harnessctl "+usage)
		}
		return fn(cfg, args)
	}
}

// atLeast builds a Run for commands taking n or more positional arguments.
func atLeast(usage string, n int, fn func(cfg *Config, args []string) int) func(*Config, []string) int {
	return func(cfg *Config, args []string) int {
		if len(args) < n {
			return cmdMissingArg(cfg, "usage: harnessctl "+usage)
		}
		return fn(cfg, args)
	}
}

func init() {
	list := []CommandInfo{
		// Query
		{Name: "count", Usage: "count <selector>", Desc: "Count matching elements", Category: "Query elements"},
		{Name: "text", Usage: "text <selector> [--exclude <selector>]", Desc: "Get element text", Category: "Query elements",
			Run: cmdText},
		{Name: "attr", Usage: "attr <selector> <name>", Desc: "Get an attribute (null when absent)", Category: "Query elements"},
		{Name: "has-class", Usage: "has-class <selector> <class>", Desc: "Check for a class token", Category: "Query elements"},
		{Name: "prop", Usage: "prop <selector> <name>", Desc: "Get a DOM property", Category: "Query elements"},
		{Name: "css", Usage: "css <selector> <property>", Desc: "Get a computed style value", Category: "Query elements"},
		{Name: "dims", Usage: "dims <selector>", Desc: "Get the bounding client rect", Category: "Query elements"},
		{Name: "matches", Usage: "matches <selector> <other>", Desc: "Check the element against another selector", Category: "Query elements"},
		{Name: "focused", Usage: "focused <selector>", Desc: "Check whether the element has focus", Category: "Query elements"},

		// Interact
		{Name: "click", Usage: "click <selector> [--x <n> --y <n> | --center] [--ctrl --alt --shift --meta]", Desc: "Click an element", Category: "Interact",
			Run: cmdClick},
		{Name: "right-click", Usage: "right-click <selector> <x> <y> [--ctrl --alt --shift --meta]", Desc: "Right-click at an offset", Category: "Interact",
			Run: cmdRightClick},
		{Name: "hover", Usage: "hover <selector>", Desc: "Move the mouse over an element", Category: "Interact"},
		{Name: "mouse-away", Usage: "mouse-away <selector>", Desc: "Move the mouse off the page", Category: "Interact"},
		{Name: "focus", Usage: "focus <selector>", Desc: "Focus an element", Category: "Interact"},
		{Name: "blur", Usage: "blur <selector>", Desc: "Blur an element", Category: "Interact"},
		{Name: "clear", Usage: "clear <selector>", Desc: "Clear an input", Category: "Interact"},
		{Name: "fill", Usage: "fill <selector> <value>", Desc: "Set an input value in one step", Category: "Interact"},
		{Name: "keys", Usage: "keys <selector> <text|{Key}>... [--ctrl --alt --shift --meta]", Desc: "Send key presses", Category: "Interact",
			Run: cmdKeys},
		{Name: "select", Usage: "select <selector> <index>...", Desc: "Select options of a native select", Category: "Interact"},
		{Name: "dispatch", Usage: "dispatch <selector> <event> [json]", Desc: "Dispatch a DOM event", Category: "Interact"},

		// Components
		{Name: "buttons", Usage: "buttons [ancestor]", Desc: "List native buttons", Category: "Components",
			Run: cmdButtons},
		{Name: "press", Usage: "press <label>", Desc: "Click the button with this text", Category: "Components"},
		{Name: "options", Usage: "options <selector>", Desc: "Describe a native select", Category: "Components"},

		// Page
		{Name: "stabilize", Usage: "stabilize", Desc: "Wait for the next animation frame", Category: "Page"},
		{Name: "wait-outside", Usage: "wait-outside", Desc: "Wait for tasks outside the framework zone", Category: "Page"},
		{Name: "tabs", Usage: "tabs", Desc: "List open tabs", Category: "Page"},
		{Name: "version", Usage: "version", Desc: "Show browser version", Category: "Page"},
		{Name: "eval", Usage: "eval <expression>", Desc: "Evaluate JavaScript in the page", Category: "Page"},

		// Utility
		{Name: "raw", Usage: "raw <method> [json]", Desc: "Send a raw protocol command to the page", Category: "Utility"},
		{Name: "pipe", Usage: "pipe", Desc: "Run commands read from stdin, one per line", Category: "Utility",
			Run: cmdPipe},
		{Name: "help", Usage: "help [command]", Desc: "Show help", Category: "Utility",
			Run: cmdHelp},
	}

	runs := map[string]func(*Config, []string) int{
		"count":        func(cfg *Config, a []string) int { return cmdCount(cfg, a[0]) },
		"attr":         func(cfg *Config, a []string) int { return cmdAttr(cfg, a[0], a[1]) },
		"has-class":    func(cfg *Config, a []string) int { return cmdHasClass(cfg, a[0], a[1]) },
		"prop":         func(cfg *Config, a []string) int { return cmdProp(cfg, a[0], a[1]) },
		"css":          func(cfg *Config, a []string) int { return cmdCSS(cfg, a[0], a[1]) },
		"dims":         func(cfg *Config, a []string) int { return cmdDims(cfg, a[0]) },
		"matches":      func(cfg *Config, a []string) int { return cmdMatches(cfg, a[0], a[1]) },
		"focused":      func(cfg *Config, a []string) int { return cmdFocused(cfg, a[0]) },
		"hover":        elementAction("hover"),
		"mouse-away":   elementAction("mouse-away"),
		"focus":        elementAction("focus"),
		"blur":         elementAction("blur"),
		"clear":        elementAction("clear"),
		"fill":         func(cfg *Config, a []string) int { return cmdFill(cfg, a[0], a[1]) },
		"press":        func(cfg *Config, a []string) int { return cmdPress(cfg, a[0]) },
		"options":      func(cfg *Config, a []string) int { return cmdOptions(cfg, a[0]) },
		"stabilize":    func(cfg *Config, a []string) int { return cmdStabilize(cfg) },
		"wait-outside": func(cfg *Config, a []string) int { return cmdWaitOutside(cfg) },
		"tabs":         func(cfg *Config, a []string) int { return cmdTabs(cfg) },
		"version":      func(cfg *Config, a []string) int { return cmdVersion(cfg) },
		"eval":         func(cfg *Config, a []string) int { return cmdEval(cfg, a[0]) },
	}
	variadic := map[string]func(*Config, []string) int{
		"select":   func(cfg *Config, a []string) int { return cmdSelect(cfg, a[0], a[1:]) },
		"dispatch": func(cfg *Config, a []string) int { return cmdDispatch(cfg, a[0], a[1], a[2:]) },
		"raw":      func(cfg *Config, a []string) int { return cmdRaw(cfg, a[0], a[1:]) },
	}
	minArgs := map[string]int{"select": 1, "dispatch": 2, "raw": 1}

	commands = make(map[string]CommandInfo, len(list))
	for _, c := range list {
		switch {
		case c.Run != nil:
		case variadic[c.Name] != nil:
			c.Run = atLeast(c.Usage, minArgs[c.Name], variadic[c.Name])
		default:
			c.Run = fixed(c.Usage, strings.Count(c.Usage, "<"), runs[c.Name])
		}
		commands[c.Name] = c
	}
}

// elementAction builds the Run of a no-argument element operation.
func elementAction(action string) func(*Config, []string) int {
	return func(cfg *Config, a []string) int {
		return simpleAction(cfg, action, a[0], elementOps[action])
	}
}

func cmdMissingArg(cfg *Config, usage string) int {
	fmt.Fprintln(cfg.Stderr, usage)
	return ExitError
}

// categoryOrder defines the display order for command categories.
var categoryOrder = []string{
	"Query elements",
	"Interact",
	"Components",
	"Page",
	"Utility",
}

type commandGroup struct {
	Category string
	Commands []CommandInfo
}

// commandsByCategory returns commands grouped by category, with sorted names within each category.
func commandsByCategory() []commandGroup {
	grouped := make(map[string][]CommandInfo)
	for _, cmd := range commands {
		grouped[cmd.Category] = append(grouped[cmd.Category], cmd)
	}

	var result []commandGroup
	for _, cat := range categoryOrder {
		cmds := grouped[cat]
		if len(cmds) == 0 {
			continue
		}
		sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
		result = append(result, commandGroup{Category: cat, Commands: cmds})
	}
	return result
}

// printUsage prints the usage message with commands grouped by category.
func printUsage(cfg *Config, fs *pflag.FlagSet) {
	fmt.Fprintln(cfg.Stderr, "usage: harnessctl [flags] <command>")
	fmt.Fprintln(cfg.Stderr)

	for _, group := range commandsByCategory() {
		fmt.Fprintf(cfg.Stderr, "  %s:\n", group.Category)
		names := make([]string, len(group.Commands))
		for i, cmd := range group.Commands {
			names[i] = cmd.Name
		}
		fmt.Fprintf(cfg.Stderr, "    %s\n", strings.Join(names, ", "))
		fmt.Fprintln(cfg.Stderr)
	}

	fmt.Fprintln(cfg.Stderr, "flags:")
	fs.PrintDefaults()
}
