// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command clap resolves an argument vector against a schema file and prints
// the result.
//
//	clap --schema serve.toml -- --port 8080 ./www
//
// Arguments after "--" are passed to the resolver verbatim. clap's own flags
// may also be mixed with them when there is no ambiguity.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/shayne/yargs"
	"github.com/yeetrun/clap/pkg/envfile"
	"github.com/yeetrun/clap/pkg/help"
	"github.com/yeetrun/clap/pkg/resolve"
	"github.com/yeetrun/clap/pkg/schema"
	"github.com/yeetrun/clap/pkg/schemafile"
	"golang.org/x/term"
)

const usage = `Usage: clap --schema FILE [FLAGS] [--] [ARGS]...

Flags:
  -s, --schema FILE      Schema file, .toml, .yaml, .hcl or .json (CLAP_SCHEMA)
      --env-file FILE    Read fallback variables from a dotenv file (CLAP_ENV_FILE)
      --write-env FILE   Save resolved environment-backed options as a dotenv file
      --format FORMAT    Output for resolved values: text or json
      --color WHEN       Color help: auto, always or never
      --log-level LEVEL  debug, info, warn or error
      --log-format FMT   Log format: text or json
`

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type flagsParsed struct {
	Schema    string `flag:"schema" short:"s" help:"Schema file (CLAP_SCHEMA)"`
	EnvFile   string `flag:"env-file" help:"Dotenv file for fallback variables (CLAP_ENV_FILE)"`
	WriteEnv  string `flag:"write-env" help:"Write resolved environment-backed options to a dotenv file"`
	Format    string `flag:"format" help:"Output format: text or json"`
	Color     string `flag:"color" help:"Color help: auto, always or never"`
	LogLevel  string `flag:"log-level" help:"Log level"`
	LogFormat string `flag:"log-format" help:"Log format: text or json"`
}

func parseFlags(args []string) (flagsParsed, []string, error) {
	result, err := yargs.ParseKnownFlags[flagsParsed](args, yargs.KnownFlagsOptions{})
	if err != nil {
		return flagsParsed{}, nil, err
	}
	rest := result.RemainingArgs
	if len(rest) > 0 && rest[0] == "--" {
		rest = rest[1:]
	}
	return result.Flags, rest, nil
}

var isTerminalFn = term.IsTerminal

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, envfile.OS()))
}

type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func run(args []string, stdout, stderr io.Writer, env envfile.Lookup) int {
	flags, rest, err := parseFlags(args)
	if err != nil {
		return fail(stderr, &usageError{err.Error()})
	}
	if flags.Schema == "" {
		flags.Schema, _ = env("CLAP_SCHEMA")
	}
	if flags.EnvFile == "" {
		flags.EnvFile, _ = env("CLAP_ENV_FILE")
	}
	if flags.Schema == "" {
		return fail(stderr, &usageError{"missing --schema"})
	}
	switch flags.Format {
	case "", "text", "json":
	default:
		return fail(stderr, &usageError{fmt.Sprintf("unknown format %q", flags.Format)})
	}

	log, err := newLogger(stderr, flags.LogLevel, flags.LogFormat)
	if err != nil {
		return fail(stderr, &usageError{err.Error()})
	}
	colored, err := useColor(flags.Color, stdout, env)
	if err != nil {
		return fail(stderr, &usageError{err.Error()})
	}

	cmd, err := schemafile.Load(flags.Schema)
	if err != nil {
		return fail(stderr, err)
	}
	log.Debug("loaded schema", "file", flags.Schema, "command", cmd.Name)

	lookup := env
	if flags.EnvFile != "" {
		vars, err := envfile.Load(flags.EnvFile)
		if err != nil {
			return fail(stderr, err)
		}
		// The process environment wins over the file.
		lookup = envfile.Chain(env, envfile.Map(vars))
	}

	p, err := resolve.New(cmd,
		resolve.WithEnv(lookup),
		resolve.WithLogger(log),
		resolve.WithHelp(help.Options{Color: colored}),
	)
	if err != nil {
		return fail(stderr, err)
	}

	switch r := p.Parse(rest).(type) {
	case *resolve.Help:
		fmt.Fprint(stdout, r.Message)
	case *resolve.Version:
		fmt.Fprintln(stdout, help.RenderVersion([]string{cmd.Name}, r.Version))
	case *resolve.Error:
		red := color.New(color.FgRed)
		if colored {
			red.EnableColor()
		} else {
			red.DisableColor()
		}
		fmt.Fprintf(stderr, "%s %s\n\n%s", red.Sprint("error:"), r.Message, r.Help)
		return exitError
	case *resolve.Success:
		if err := printValues(stdout, r.Values, flags.Format); err != nil {
			return fail(stderr, err)
		}
		if flags.WriteEnv != "" {
			vars := envValues(cmd, r.Values)
			if err := envfile.Write(flags.WriteEnv, vars); err != nil {
				return fail(stderr, err)
			}
			log.Info("wrote env file", "file", flags.WriteEnv, "vars", len(vars))
		}
	}
	return exitOK
}

func fail(w io.Writer, err error) int {
	fmt.Fprintln(w, "clap:", err)
	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprint(w, "\n"+usage)
	}
	return exitUsage
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl := slog.LevelWarn
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q", level)
		}
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

func useColor(when string, w io.Writer, env envfile.Lookup) (bool, error) {
	switch when {
	case "", "auto":
		if v, ok := env("NO_COLOR"); ok && v != "" {
			return false, nil
		}
		if t, _ := env("TERM"); t == "" || t == "dumb" {
			return false, nil
		}
		f, ok := w.(*os.File)
		return ok && isTerminalFn(int(f.Fd())), nil
	case "always":
		return true, nil
	case "never":
		return false, nil
	}
	return false, fmt.Errorf("unknown color mode %q", when)
}

func printValues(w io.Writer, v *resolve.Values, format string) error {
	if format == "json" {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ARG\tVALUE\tSOURCE")
	writeRows(tw, "", v)
	return tw.Flush()
}

func writeRows(w io.Writer, prefix string, v *resolve.Values) {
	sub, child, hasChild := v.Child()
	for _, id := range v.IDs() {
		x, _ := v.Get(id)
		text := formatValue(x)
		if hasChild && id == v.SubcommandID() {
			text = sub
		}
		fmt.Fprintf(w, "%s%s\t%s\t%s\n", prefix, id, text, v.Source(id))
	}
	if hasChild {
		writeRows(w, prefix+sub+".", child)
	}
}

// envValues collects the options of cmd and its selected subcommands that
// declare an environment variable and were set by a token or by that
// variable. Arrays are joined with commas, the form the environment
// fallback splits.
func envValues(cmd *schema.Command, v *resolve.Values) map[string]string {
	out := map[string]string{}
	for cmd != nil && v != nil {
		for _, n := range cmd.Named() {
			if n.Env == "" || !v.Has(n.Name) {
				continue
			}
			x, _ := v.Get(n.Name)
			if xs, ok := x.([]any); ok {
				parts := make([]string, len(xs))
				for i, e := range xs {
					parts[i] = fmt.Sprint(e)
				}
				out[n.Env] = strings.Join(parts, ",")
				continue
			}
			out[n.Env] = fmt.Sprint(x)
		}
		name, child, ok := v.Child()
		if !ok {
			break
		}
		cmd, v = variantCommand(cmd, name), child
	}
	return out
}

func variantCommand(cmd *schema.Command, name string) *schema.Command {
	slot, ok := cmd.Subcommand()
	if !ok {
		return nil
	}
	for _, vr := range slot.Variants {
		if vr.Name == name {
			return vr.Command
		}
	}
	return nil
}

func formatValue(x any) string {
	switch t := x.(type) {
	case nil:
		return "-"
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = fmt.Sprint(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(x)
}
