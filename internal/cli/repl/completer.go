package repl

import (
	"sort"
	"strings"
)

// Completer suggests command names for a prefix.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over the server commands and the
// REPL built-ins.
func NewCompleter() *Completer {
	commands := []string{
		"PING", "ECHO", "GET", "SET", "EXISTS", "CONFIG GET", "AUTH", "QUIT",
		"help", "history", "exit",
	}
	sort.Strings(commands)
	return &Completer{commands: commands}
}

// Complete returns the commands starting with prefix, case-insensitively.
// An empty prefix returns every command.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToUpper(prefix)
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(strings.ToUpper(cmd), prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
