// Command rdep resolves a project manifest of CRAN, Bioconductor, and
// GitHub package targets into a pinned, installable environment spec.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"
)

// command mirrors the teacher CLI's subcommand contract: a name, its
// argument shape for help text, and a Run that takes the post-flag args.
type command interface {
	Name() string
	Args() string
	ShortHelp() string
	Register(*flag.FlagSet)
	Run(*Config, []string) int
}

func main() {
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to get working directory:", err)
		os.Exit(2)
	}
	c := &Config{
		Args:       os.Args,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		WorkingDir: wd,
	}
	os.Exit(c.Run())
}

// Config specifies one full rdep invocation, mirroring the teacher CLI's
// Config{Args,Stdout,Stderr,WorkingDir} + Run() int shape.
type Config struct {
	WorkingDir string
	Args       []string
	Stdout     io.Writer
	Stderr     io.Writer
}

// Exit codes, per spec.md §6.
const (
	exitOK = iota
	exitConflict
	exitConfigError
	exitMetadataFailure
)

// Run dispatches to the named subcommand and returns the process exit code.
func (c *Config) Run() int {
	commands := []command{
		&solveCommand{},
		&updateCacheCommand{},
	}

	errLogger := log.New(c.Stderr, "", 0)

	usage := func() {
		errLogger.Println("rdep resolves R package dependencies across cran, bioc, and github")
		errLogger.Println()
		errLogger.Println("Usage: rdep <command> [flags]")
		errLogger.Println()
		errLogger.Println("Commands:")
		w := tabwriter.NewWriter(c.Stderr, 0, 4, 2, ' ', 0)
		for _, cmd := range commands {
			fmt.Fprintf(w, "\t%s\t%s\n", cmd.Name(), cmd.ShortHelp())
		}
		w.Flush()
	}

	if len(c.Args) < 2 || strings.HasPrefix(c.Args[1], "-h") || c.Args[1] == "help" {
		usage()
		return exitConfigError
	}

	cmdName := c.Args[1]
	for _, cmd := range commands {
		if cmd.Name() != cmdName {
			continue
		}
		fs := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		fs.SetOutput(c.Stderr)
		cmd.Register(fs)
		fs.Usage = func() {
			errLogger.Printf("Usage: rdep %s %s\n", cmdName, cmd.Args())
		}
		if err := fs.Parse(c.Args[2:]); err != nil {
			return exitConfigError
		}
		return cmd.Run(c, fs.Args())
	}

	errLogger.Printf("rdep: %s: no such command\n", cmdName)
	usage()
	return exitConfigError
}
