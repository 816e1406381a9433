// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package schema describes commands declaratively: named options and flags,
// positional arguments and at most one subcommand slot per command.
//
// A Command is built once, checked with Check, and then treated as read-only.
// It may be shared by any number of concurrent resolutions.
//
//	cmd := &schema.Command{
//	    Name:    "git",
//	    Version: "2.44.0",
//	    Args: []schema.Arg{
//	        schema.Counter("verbose", 'v', "verbose", "More output"),
//	        &schema.Subcommand{Name: "command", Required: true, Variants: []schema.Variant{
//	            {Name: "clone", About: "Clone a repository", Command: cloneCmd},
//	        }},
//	    },
//	}
package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/yeetrun/clap/pkg/convert"
	"github.com/yeetrun/clap/pkg/validate"
)

// Action is how a named argument handles its occurrences.
type Action int

const (
	// Set stores the single value following the flag. An Array member
	// accumulates one value per occurrence instead.
	Set Action = iota
	// Append accumulates one value per occurrence.
	Append
	// SetTrue stores true when present.
	SetTrue
	// SetFalse stores false when present.
	SetFalse
	// Count stores the number of occurrences.
	Count
	// Help requests help output.
	Help
	// Version requests version output.
	Version
)

func (a Action) String() string {
	switch a {
	case Set:
		return "set"
	case Append:
		return "append"
	case SetTrue:
		return "set-true"
	case SetFalse:
		return "set-false"
	case Count:
		return "count"
	case Help:
		return "help"
	case Version:
		return "version"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// TakesValue reports whether the action consumes a value token.
func (a Action) TakesValue() bool {
	return a == Set || a == Append
}

// Arg is one of *Named, *Positional or *Subcommand.
type Arg interface {
	// ID is the key the resolved value is stored under.
	ID() string
	isArg()
}

// Named is an argument matched by a short (-x) or long (--xxx) flag.
type Named struct {
	Name        string
	Short       rune // 0 when the argument has no short form
	Long        string
	Action      Action
	Required    bool
	Env         string // environment variable consulted when no token sets the value
	Kind        convert.Kind
	Array       bool // value is a list; implied by Append
	Negatable   bool // boolean flags accept --no-<long>
	Parser      convert.Parser
	Default     any
	Help        string
	ValueName   string // placeholder in help output, e.g. "FILE"
	Constraints []validate.Constraint
	Hidden      bool
}

func (n *Named) ID() string { return n.Name }
func (*Named) isArg()       {}

// IsArray reports whether values of n accumulate into a list.
func (n *Named) IsArray() bool {
	return n.Action == Append || (n.Action == Set && n.Array)
}

// IsBool reports whether n is a presence flag.
func (n *Named) IsBool() bool {
	return n.Action == SetTrue || n.Action == SetFalse
}

// Display returns the flag as shown to users, preferring the long form.
func (n *Named) Display() string {
	if n.Long != "" {
		return "--" + n.Long
	}
	if n.Short != 0 {
		return "-" + string(n.Short)
	}
	return n.Name
}

// Positional is an argument matched by its position among value tokens.
// The one positional marked Last collects every remaining value.
type Positional struct {
	Name        string
	Index       int
	Last        bool
	Required    bool
	Kind        convert.Kind
	Parser      convert.Parser
	Default     any
	Help        string
	ValueName   string
	Constraints []validate.Constraint
}

func (p *Positional) ID() string { return p.Name }
func (*Positional) isArg()       {}

// Display returns the placeholder shown for p in usage and errors.
func (p *Positional) Display() string {
	if p.ValueName != "" {
		return p.ValueName
	}
	return upper(p.Name)
}

// Subcommand is the slot selecting one of several child commands by a
// discriminator word.
type Subcommand struct {
	Name     string
	Required bool
	Help     string
	Variants []Variant
}

func (s *Subcommand) ID() string { return s.Name }
func (*Subcommand) isArg()       {}

// Variant returns the variant whose name or alias is word.
func (s *Subcommand) Variant(word string) (*Variant, bool) {
	for i := range s.Variants {
		v := &s.Variants[i]
		if v.Name == word || slices.Contains(v.Aliases, word) {
			return v, true
		}
	}
	return nil, false
}

// Names returns the canonical variant names in declaration order.
func (s *Subcommand) Names() []string {
	names := make([]string, 0, len(s.Variants))
	for _, v := range s.Variants {
		names = append(names, v.Name)
	}
	return names
}

// Variant is one choice of a Subcommand.
type Variant struct {
	Name    string
	Aliases []string
	About   string
	Command *Command
}

// Fields is the read-only view of resolved values handed to Construct.
type Fields interface {
	Get(id string) (any, bool)
	// Subcommand returns the selected variant and its constructed value.
	Subcommand() (name string, value any, ok bool)
}

// Command is a command's complete argument schema.
type Command struct {
	Name    string
	About   string
	Version string
	Args    []Arg
	// Construct builds the command value from resolved fields. When nil the
	// fields themselves are the command value.
	Construct func(Fields) (any, error)
}

// Named returns the declared named arguments in declaration order.
func (c *Command) Named() []*Named {
	var out []*Named
	for _, a := range c.Args {
		if n, ok := a.(*Named); ok {
			out = append(out, n)
		}
	}
	return out
}

// Positionals returns the positional arguments ordered by index, with the
// Last positional at the end.
func (c *Command) Positionals() []*Positional {
	var out []*Positional
	for _, a := range c.Args {
		if p, ok := a.(*Positional); ok {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b *Positional) int {
		if a.Last != b.Last {
			if a.Last {
				return 1
			}
			return -1
		}
		return a.Index - b.Index
	})
	return out
}

// Subcommand returns the subcommand slot, if the command declares one.
func (c *Command) Subcommand() (*Subcommand, bool) {
	for _, a := range c.Args {
		if s, ok := a.(*Subcommand); ok {
			return s, true
		}
	}
	return nil, false
}

// Flags returns the declared named arguments followed by the built-in help
// and version flags. The built-ins use -h/--help and -V/--version, skipping
// any name a declared argument already uses; the version flag is added only
// when the command has a version and no declared Version action.
func (c *Command) Flags() []*Named {
	declared := c.Named()
	out := slices.Clone(declared)

	var hasHelp, hasVersion bool
	shorts := map[rune]bool{}
	longs := map[string]bool{}
	for _, n := range declared {
		hasHelp = hasHelp || n.Action == Help
		hasVersion = hasVersion || n.Action == Version
		if n.Short != 0 {
			shorts[n.Short] = true
		}
		if n.Long != "" {
			longs[n.Long] = true
		}
	}
	builtin := func(id string, short rune, long string, action Action, help string) {
		n := &Named{Name: id, Action: action, Help: help}
		if !shorts[short] {
			n.Short = short
		}
		if !longs[long] {
			n.Long = long
		}
		if n.Short != 0 || n.Long != "" {
			out = append(out, n)
		}
	}
	if !hasHelp {
		builtin("help", 'h', "help", Help, "Print help")
	}
	if c.Version != "" && !hasVersion {
		builtin("version", 'V', "version", Version, "Print version")
	}
	return out
}

// Flag returns a boolean presence flag.
func Flag(id string, short rune, long, help string) *Named {
	return &Named{Name: id, Short: short, Long: long, Action: SetTrue, Kind: convert.Bool, Help: help}
}

// Option returns a single-valued option of the given kind.
func Option(id string, short rune, long string, kind convert.Kind, help string) *Named {
	return &Named{Name: id, Short: short, Long: long, Action: Set, Kind: kind, Help: help}
}

// List returns an option that appends one value per occurrence.
func List(id string, short rune, long string, kind convert.Kind, help string) *Named {
	return &Named{Name: id, Short: short, Long: long, Action: Append, Kind: kind, Help: help}
}

// Counter returns a flag counting its occurrences.
func Counter(id string, short rune, long, help string) *Named {
	return &Named{Name: id, Short: short, Long: long, Action: Count, Kind: convert.Int, Help: help}
}

// Pos returns the positional argument at index.
func Pos(id string, index int, kind convert.Kind, help string) *Positional {
	return &Positional{Name: id, Index: index, Kind: kind, Help: help}
}

// Rest returns the trailing positional collecting all remaining values.
func Rest(id string, kind convert.Kind, help string) *Positional {
	return &Positional{Name: id, Last: true, Kind: kind, Help: help}
}

func upper(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, "-", "_"))
}
