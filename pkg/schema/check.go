// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"fmt"
	"strings"

	"github.com/yeetrun/clap/pkg/convert"
	"github.com/yeetrun/clap/pkg/validate"
)

// ConfigError reports a malformed schema. It is a programming mistake in
// whoever built the schema, never the result of user input.
type ConfigError struct {
	Command string // space-separated path of the offending command
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid schema for command %q: %s", e.Command, e.Reason)
}

// Check validates c and every child command reachable from it.
func (c *Command) Check() error {
	return c.check(nil)
}

func (c *Command) check(parent []string) error {
	path := append(append([]string{}, parent...), c.Name)
	fail := func(format string, args ...any) error {
		return &ConfigError{Command: strings.Join(path, " "), Reason: fmt.Sprintf(format, args...)}
	}

	ids := map[string]bool{}
	shorts := map[rune]string{}
	longs := map[string]string{}
	indexes := map[int]string{}
	var last, slot string

	for _, a := range c.Args {
		if a == nil {
			return fail("nil argument")
		}
		id := a.ID()
		if id == "" {
			return fail("argument with empty name")
		}
		if ids[id] {
			return fail("duplicate argument name %q", id)
		}
		ids[id] = true

		switch a := a.(type) {
		case *Named:
			if a.Short == 0 && a.Long == "" {
				return fail("named argument %q has neither a short nor a long name", id)
			}
			if a.Short == '-' || strings.HasPrefix(a.Long, "-") {
				return fail("named argument %q has a name starting with '-'", id)
			}
			if a.Short != 0 {
				if other, ok := shorts[a.Short]; ok {
					return fail("short flag -%c used by both %q and %q", a.Short, other, id)
				}
				shorts[a.Short] = id
			}
			if a.Long != "" {
				if other, ok := longs[a.Long]; ok {
					return fail("long flag --%s used by both %q and %q", a.Long, other, id)
				}
				longs[a.Long] = id
			}
			if a.Action < Set || a.Action > Version {
				return fail("named argument %q has unknown action %v", id, a.Action)
			}
			if a.Negatable && (!a.IsBool() || a.Long == "") {
				return fail("named argument %q is negatable but is not a long boolean flag", id)
			}
			if err := checkValue(id, a.Kind, a.Parser, a.Constraints, a.Action.TakesValue()); err != nil {
				return fail("%v", err)
			}
		case *Positional:
			if a.Last {
				if last != "" {
					return fail("positionals %q and %q are both marked last", last, id)
				}
				last = id
			} else {
				if other, ok := indexes[a.Index]; ok {
					return fail("positionals %q and %q share index %d", other, id, a.Index)
				}
				if a.Index < 0 {
					return fail("positional %q has negative index %d", id, a.Index)
				}
				indexes[a.Index] = id
			}
			if err := checkValue(id, a.Kind, a.Parser, a.Constraints, true); err != nil {
				return fail("%v", err)
			}
		case *Subcommand:
			if slot != "" {
				return fail("more than one subcommand slot (%q and %q)", slot, id)
			}
			slot = id
			if len(a.Variants) == 0 {
				return fail("subcommand slot %q has no variants", id)
			}
			words := map[string]bool{}
			for _, v := range a.Variants {
				if v.Command == nil {
					return fail("subcommand %q has no command", v.Name)
				}
				for _, w := range append([]string{v.Name}, v.Aliases...) {
					if w == "" || strings.HasPrefix(w, "-") {
						return fail("subcommand slot %q has invalid discriminator %q", id, w)
					}
					if words[w] {
						return fail("duplicate subcommand discriminator %q", w)
					}
					words[w] = true
				}
			}
			for _, v := range a.Variants {
				if err := v.Command.check(path); err != nil {
					return err
				}
			}
		default:
			return fail("unsupported argument type %T", a)
		}
	}
	return nil
}

func checkValue(id string, kind convert.Kind, parser convert.Parser, cs []validate.Constraint, takesValue bool) error {
	if kind < convert.String || kind > convert.Custom {
		return fmt.Errorf("argument %q has unknown kind %v", id, kind)
	}
	if takesValue && kind == convert.Custom && parser == nil {
		return fmt.Errorf("argument %q has a custom kind but no parser", id)
	}
	for _, c := range cs {
		if c == nil {
			return fmt.Errorf("argument %q has a nil constraint", id)
		}
		if err := c.Check(kind); err != nil {
			return fmt.Errorf("argument %q: %w", id, err)
		}
	}
	return nil
}
