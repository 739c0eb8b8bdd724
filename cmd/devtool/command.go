package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"text/tabwriter"
)

const defaultAPIURL = "http://localhost:8080"

// Command is one devtool subcommand. ctx is cancelled on SIGINT/SIGTERM.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, args []string) error
}

type Registry struct {
	commands map[string]Command
}

func NewRegistry(cmds ...Command) *Registry {
	r := &Registry{commands: make(map[string]Command, len(cmds))}
	for _, c := range cmds {
		r.Register(c)
	}
	return r
}

func (r *Registry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

func (r *Registry) Get(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// List returns the commands ordered by name.
func (r *Registry) List() []Command {
	names := slices.Sorted(maps.Keys(r.commands))
	out := make([]Command, 0, len(names))
	for _, n := range names {
		out = append(out, r.commands[n])
	}
	return out
}

func (r *Registry) PrintHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: devtool <command> [args...]")
	fmt.Fprintln(w, "\nCommands:")

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, cmd := range r.List() {
		fmt.Fprintf(tw, "  %s\t%s\n", cmd.Name(), cmd.Description())
	}
	_ = tw.Flush()
}

// apiURL returns API_URL or the local default.
func apiURL() string {
	if v := os.Getenv("API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}
