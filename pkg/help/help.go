// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package help renders usage text for a schema.Command.
package help

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/yeetrun/clap/pkg/schema"
)

// Options controls rendering.
type Options struct {
	// Color renders headings and flag names with ANSI colors. Callers decide
	// whether the destination is a terminal.
	Color bool
}

type palette struct {
	heading *color.Color
	literal *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		heading: color.New(color.Bold, color.Underline),
		literal: color.New(color.Bold),
	}
	if enabled {
		p.heading.EnableColor()
		p.literal.EnableColor()
	} else {
		p.heading.DisableColor()
		p.literal.DisableColor()
	}
	return p
}

type row struct {
	left, right string
}

// Render returns the help text for cmd. path is the command path from the
// root, e.g. ["git", "remote", "add"]; when empty the command's own name is
// used.
func Render(path []string, cmd *schema.Command, opts Options) string {
	pal := newPalette(opts.Color)
	name := commandPath(path, cmd)

	var b strings.Builder
	if cmd.About != "" {
		b.WriteString(cmd.About)
		b.WriteString("\n\n")
	}

	positionals := cmd.Positionals()
	sub, hasSub := cmd.Subcommand()

	b.WriteString(pal.heading.Sprint("Usage:"))
	b.WriteString(" ")
	b.WriteString(pal.literal.Sprint(name))
	b.WriteString(" [OPTIONS]")
	for _, p := range positionals {
		b.WriteString(" ")
		b.WriteString(usageToken(p))
	}
	if hasSub {
		if sub.Required {
			b.WriteString(" <COMMAND>")
		} else {
			b.WriteString(" [COMMAND]")
		}
	}
	b.WriteString("\n")

	if len(positionals) > 0 {
		rows := make([]row, 0, len(positionals))
		for _, p := range positionals {
			rows = append(rows, row{left: usageToken(p), right: describe(p.Help, "", p.Default)})
		}
		writeTable(&b, pal, "Arguments:", rows)
	}

	var rows []row
	for _, n := range cmd.Flags() {
		if n.Hidden {
			continue
		}
		rows = append(rows, row{left: flagSpec(n), right: describe(n.Help, n.Env, n.Default)})
	}
	writeTable(&b, pal, "Options:", rows)

	if hasSub {
		rows = rows[:0]
		for _, v := range sub.Variants {
			about := v.About
			if about == "" && v.Command != nil {
				about = v.Command.About
			}
			if len(v.Aliases) > 0 {
				about = strings.TrimSpace(about + " [aliases: " + strings.Join(v.Aliases, ", ") + "]")
			}
			rows = append(rows, row{left: v.Name, right: about})
		}
		writeTable(&b, pal, "Commands:", rows)
	}
	return b.String()
}

// RenderVersion returns the version line for the command at path.
func RenderVersion(path []string, version string) string {
	return strings.TrimSpace(strings.Join(path, " ") + " " + version)
}

func commandPath(path []string, cmd *schema.Command) string {
	if len(path) > 0 {
		return strings.Join(path, " ")
	}
	return cmd.Name
}

func usageToken(p *schema.Positional) string {
	name := p.Display()
	switch {
	case p.Last && p.Required:
		return "<" + name + ">..."
	case p.Last:
		return "[" + name + "]..."
	case p.Required:
		return "<" + name + ">"
	default:
		return "[" + name + "]"
	}
}

func flagSpec(n *schema.Named) string {
	var s string
	switch {
	case n.Short != 0 && n.Long != "":
		s = fmt.Sprintf("-%c, --%s", n.Short, n.Long)
	case n.Short != 0:
		s = fmt.Sprintf("-%c", n.Short)
	default:
		s = "    --" + n.Long
	}
	if n.Negatable && n.Long != "" {
		s += ", --no-" + n.Long
	}
	if n.Action.TakesValue() {
		s += " <" + valueName(n) + ">"
		if n.IsArray() {
			s += "..."
		}
	}
	return s
}

func valueName(n *schema.Named) string {
	if n.ValueName != "" {
		return n.ValueName
	}
	if n.Long != "" {
		return strings.ToUpper(strings.ReplaceAll(n.Long, "-", "_"))
	}
	return strings.ToUpper(n.Name)
}

func describe(help, env string, def any) string {
	parts := make([]string, 0, 3)
	if help != "" {
		parts = append(parts, help)
	}
	if env != "" {
		parts = append(parts, "[env: "+env+"]")
	}
	if def != nil {
		parts = append(parts, fmt.Sprintf("[default: %v]", def))
	}
	return strings.Join(parts, " ")
}

func writeTable(b *strings.Builder, pal palette, heading string, rows []row) {
	if len(rows) == 0 {
		return
	}
	width := 0
	for _, r := range rows {
		width = max(width, utf8.RuneCountInString(r.left))
	}
	b.WriteString("\n")
	b.WriteString(pal.heading.Sprint(heading))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString("  ")
		b.WriteString(pal.literal.Sprint(r.left))
		if r.right != "" {
			b.WriteString(strings.Repeat(" ", width-utf8.RuneCountInString(r.left)+2))
			b.WriteString(r.right)
		}
		b.WriteString("\n")
	}
}
