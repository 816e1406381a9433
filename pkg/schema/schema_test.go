// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yeetrun/clap/pkg/convert"
	"github.com/yeetrun/clap/pkg/validate"
)

func leaf(name string) *Command {
	return &Command{Name: name}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		args    []Arg
		wantErr string
	}{
		{
			name: "valid",
			args: []Arg{
				Flag("verbose", 'v', "verbose", ""),
				Option("port", 'p', "port", convert.Int, ""),
				Pos("file", 0, convert.String, ""),
				Rest("rest", convert.String, ""),
				&Subcommand{Name: "cmd", Variants: []Variant{{Name: "run", Aliases: []string{"r"}, Command: leaf("run")}}},
			},
		},
		{name: "nil arg", args: []Arg{nil}, wantErr: "nil argument"},
		{name: "empty id", args: []Arg{&Named{Long: "x"}}, wantErr: "empty name"},
		{
			name:    "duplicate id",
			args:    []Arg{Flag("a", 'a', "", ""), Flag("a", 'b', "", "")},
			wantErr: `duplicate argument name "a"`,
		},
		{name: "no names", args: []Arg{&Named{Name: "x"}}, wantErr: "neither a short nor a long"},
		{
			name:    "duplicate short",
			args:    []Arg{Flag("a", 'x', "", ""), Flag("b", 'x', "", "")},
			wantErr: "short flag -x",
		},
		{
			name:    "duplicate long",
			args:    []Arg{Flag("a", 0, "same", ""), Flag("b", 0, "same", "")},
			wantErr: "long flag --same",
		},
		{
			name:    "negatable non bool",
			args:    []Arg{&Named{Name: "n", Long: "n", Action: Set, Negatable: true}},
			wantErr: "negatable",
		},
		{
			name:    "custom without parser",
			args:    []Arg{&Named{Name: "c", Long: "c", Kind: convert.Custom}},
			wantErr: "no parser",
		},
		{
			name:    "bad constraint",
			args:    []Arg{&Named{Name: "c", Long: "c", Constraints: []validate.Constraint{validate.Range(1, 2, "m")}}},
			wantErr: "range constraint cannot apply to string",
		},
		{
			name:    "two last",
			args:    []Arg{Rest("a", convert.String, ""), Rest("b", convert.String, "")},
			wantErr: "both marked last",
		},
		{
			name:    "shared index",
			args:    []Arg{Pos("a", 0, convert.String, ""), Pos("b", 0, convert.String, "")},
			wantErr: "share index 0",
		},
		{
			name: "two slots",
			args: []Arg{
				&Subcommand{Name: "a", Variants: []Variant{{Name: "x", Command: leaf("x")}}},
				&Subcommand{Name: "b", Variants: []Variant{{Name: "y", Command: leaf("y")}}},
			},
			wantErr: "more than one subcommand slot",
		},
		{
			name: "duplicate alias",
			args: []Arg{&Subcommand{Name: "a", Variants: []Variant{
				{Name: "x", Command: leaf("x")},
				{Name: "y", Aliases: []string{"x"}, Command: leaf("y")},
			}}},
			wantErr: `duplicate subcommand discriminator "x"`,
		},
		{
			name:    "nil variant command",
			args:    []Arg{&Subcommand{Name: "a", Variants: []Variant{{Name: "x"}}}},
			wantErr: `subcommand "x" has no command`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Command{Name: "app", Args: tt.args}).Check()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Check() error = %v", err)
				}
				return
			}
			var cErr *ConfigError
			if !errors.As(err, &cErr) {
				t.Fatalf("Check() error = %v, want *ConfigError", err)
			}
			if !strings.Contains(cErr.Reason, tt.wantErr) {
				t.Errorf("Check() reason = %q, want it to contain %q", cErr.Reason, tt.wantErr)
			}
		})
	}
}

func TestCheckNestedPath(t *testing.T) {
	child := &Command{Name: "push", Args: []Arg{&Named{Name: "bad"}}}
	root := &Command{Name: "git", Args: []Arg{
		&Subcommand{Name: "command", Variants: []Variant{{Name: "push", Command: child}}},
	}}
	var cErr *ConfigError
	if err := root.Check(); !errors.As(err, &cErr) {
		t.Fatalf("Check() error = %v, want *ConfigError", err)
	}
	if cErr.Command != "git push" {
		t.Errorf("Command = %q, want %q", cErr.Command, "git push")
	}
}

func TestPositionalsOrder(t *testing.T) {
	cmd := &Command{Args: []Arg{
		Rest("rest", convert.String, ""),
		Pos("second", 1, convert.String, ""),
		Flag("f", 'f', "", ""),
		Pos("first", 0, convert.String, ""),
	}}
	var got []string
	for _, p := range cmd.Positionals() {
		got = append(got, p.Name)
	}
	want := []string{"first", "second", "rest"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Positionals() mismatch (-want +got):\n%s", diff)
	}
}

func TestFlagsBuiltins(t *testing.T) {
	tests := []struct {
		name string
		cmd  *Command
		want []string
	}{
		{
			name: "help only",
			cmd:  &Command{Args: []Arg{Flag("all", 'a', "all", "")}},
			want: []string{"-a --all", "-h --help"},
		},
		{
			name: "help and version",
			cmd:  &Command{Version: "1.0.0"},
			want: []string{"-h --help", "-V --version"},
		},
		{
			name: "short taken",
			cmd:  &Command{Version: "1.0.0", Args: []Arg{Flag("host", 'h', "host", "")}},
			want: []string{"-h --host", " --help", "-V --version"},
		},
		{
			name: "declared help",
			cmd:  &Command{Args: []Arg{&Named{Name: "usage", Short: '?', Action: Help}}},
			want: []string{"-? "},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, n := range tt.cmd.Flags() {
				s := ""
				if n.Short != 0 {
					s = "-" + string(n.Short)
				}
				s += " "
				if n.Long != "" {
					s += "--" + n.Long
				}
				got = append(got, s)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Flags() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSubcommandVariant(t *testing.T) {
	s := &Subcommand{Name: "cmd", Variants: []Variant{
		{Name: "remove", Aliases: []string{"rm"}, Command: leaf("remove")},
		{Name: "list", Command: leaf("list")},
	}}
	if v, ok := s.Variant("rm"); !ok || v.Name != "remove" {
		t.Errorf("Variant(rm) = %v, %v", v, ok)
	}
	if _, ok := s.Variant("ls"); ok {
		t.Error("Variant(ls) matched")
	}
	if diff := cmp.Diff([]string{"remove", "list"}, s.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestDisplay(t *testing.T) {
	if got := Option("out", 'o', "", convert.String, "").Display(); got != "-o" {
		t.Errorf("Display() = %q, want -o", got)
	}
	if got := Pos("input-file", 0, convert.String, "").Display(); got != "INPUT_FILE" {
		t.Errorf("Display() = %q, want INPUT_FILE", got)
	}
}
