// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package help

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yeetrun/clap/pkg/convert"
	"github.com/yeetrun/clap/pkg/schema"
)

func serveCommand() *schema.Command {
	port := schema.Option("port", 'p', "port", convert.Int, "Port to listen on")
	port.Env = "PORT"
	port.Default = 8080
	root := schema.Pos("root", 0, convert.String, "Document root")
	root.Required = true
	return &schema.Command{
		Name:    "serve",
		About:   "Run the server",
		Version: "1.2.0",
		Args: []schema.Arg{
			port,
			schema.Flag("verbose", 'v', "verbose", "More output"),
			&schema.Named{Name: "color", Long: "color", Action: schema.SetTrue, Negatable: true, Help: "Colorize"},
			&schema.Named{Name: "secret", Long: "secret", Action: schema.SetTrue, Hidden: true},
			root,
			schema.Rest("extra", convert.String, "Extra args"),
		},
	}
}

func TestRender(t *testing.T) {
	want := `Run the server

Usage: serve [OPTIONS] <ROOT> [EXTRA]...

Arguments:
  <ROOT>      Document root
  [EXTRA]...  Extra args

Options:
  -p, --port <PORT>        Port to listen on [env: PORT] [default: 8080]
  -v, --verbose            More output
      --color, --no-color  Colorize
  -h, --help               Print help
  -V, --version            Print version
`
	got := Render(nil, serveCommand(), Options{})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderCommands(t *testing.T) {
	clone := &schema.Command{Name: "clone", About: "Clone a repository"}
	cmd := &schema.Command{
		Name: "git",
		Args: []schema.Arg{
			&schema.Subcommand{Name: "command", Required: true, Variants: []schema.Variant{
				{Name: "clone", Command: clone},
				{Name: "status", Aliases: []string{"st"}, About: "Show status", Command: &schema.Command{Name: "status"}},
			}},
		},
	}
	want := `Usage: git [OPTIONS] <COMMAND>

Options:
  -h, --help  Print help

Commands:
  clone   Clone a repository
  status  Show status [aliases: st]
`
	got := Render(nil, cmd, Options{})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderPath(t *testing.T) {
	got := Render([]string{"git", "clone"}, &schema.Command{Name: "clone"}, Options{})
	if !strings.HasPrefix(got, "Usage: git clone [OPTIONS]\n") {
		t.Errorf("Render() = %q, want usage with full path", got)
	}
}

func TestRenderColor(t *testing.T) {
	plain := Render(nil, serveCommand(), Options{})
	colored := Render(nil, serveCommand(), Options{Color: true})
	if strings.Contains(plain, "\x1b[") {
		t.Errorf("plain output contains escape codes: %q", plain)
	}
	if !strings.Contains(colored, "\x1b[") {
		t.Errorf("colored output has no escape codes: %q", colored)
	}
}

func TestRenderVersion(t *testing.T) {
	tests := []struct {
		path    []string
		version string
		want    string
	}{
		{[]string{"serve"}, "1.2.0", "serve 1.2.0"},
		{[]string{"git", "clone"}, "2.44.0", "git clone 2.44.0"},
		{nil, "0.1.0", "0.1.0"},
	}
	for _, tt := range tests {
		if got := RenderVersion(tt.path, tt.version); got != tt.want {
			t.Errorf("RenderVersion(%v, %q) = %q, want %q", tt.path, tt.version, got, tt.want)
		}
	}
}
