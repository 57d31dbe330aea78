// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ManuGH/playbackd/internal/config"
)

func runConfigCLI(args []string) int {
	return configCLI(args, os.Stdout, os.Stderr)
}

func configCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}
	switch args[0] {
	case "init":
		return configInit(args[1:], stdout, stderr)
	case "validate":
		return configValidate(args[1:], stdout, stderr)
	case "dump":
		return configDump(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  playbackd config init [--force] <path>")
	fmt.Fprintln(w, "  playbackd config validate <path>")
	fmt.Fprintln(w, "  playbackd config dump [path]")
}

func configInit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("playbackd config init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: exactly one path is required")
		return 2
	}
	path := fs.Arg(0)
	if err := config.WriteFile(path, config.Default(), *force); err != nil {
		if errors.Is(err, config.ErrExists) {
			fmt.Fprintf(stderr, "Error: %s exists (use --force to overwrite)\n", path)
			return 1
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "wrote %s\n", path)
	return 0
}

func configValidate(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "Error: exactly one path is required")
		return 2
	}
	if _, err := config.Load(args[0]); err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", args[0], err)
		return 1
	}
	fmt.Fprintf(stdout, "%s is valid\n", args[0])
	return 0
}

// configDump prints the effective configuration (defaults + file + env).
func configDump(args []string, stdout, stderr io.Writer) int {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}
	cfg.History.RedisPassword = redact(cfg.History.RedisPassword)
	out, err := config.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	_, _ = stdout.Write(out)
	return 0
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
