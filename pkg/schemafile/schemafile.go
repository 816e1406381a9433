// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package schemafile loads command schemas from TOML, YAML, HCL or JSON files.
//
// A TOML schema looks like:
//
//	name = "serve"
//	version = "1.0.0"
//
//	[[option]]
//	name = "port"
//	short = "p"
//	type = "int"
//	env = "PORT"
//	default = 8080
//
//	  [[option.validate]]
//	  min = 1
//	  max = 65535
//	  message = "Port must be between 1 and 65535"
//
//	[[positional]]
//	name = "root"
//	required = true
//
// An option's long name defaults to its name; long = "-" leaves it with
// only its short name.
//
// YAML uses the same keys. HCL and JSON use blocks labelled with the argument
// name: option "port" { ... }.
package schemafile

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/yeetrun/clap/pkg/convert"
	"github.com/yeetrun/clap/pkg/schema"
	"github.com/yeetrun/clap/pkg/validate"
)

// Command is the declarative form of a schema.Command.
type Command struct {
	Name        string       `toml:"name" yaml:"name"`
	About       string       `toml:"about" yaml:"about"`
	Version     string       `toml:"version" yaml:"version"`
	Options     []Option     `toml:"option" yaml:"option"`
	Positionals []Positional `toml:"positional" yaml:"positional"`
	Subcommand  *Subcommand  `toml:"subcommand" yaml:"subcommand"`
}

// Option declares a named argument.
type Option struct {
	Name      string `toml:"name" yaml:"name"`
	Short     string `toml:"short" yaml:"short"`
	Long      string `toml:"long" yaml:"long"`
	Action    string `toml:"action" yaml:"action"`
	Type      string `toml:"type" yaml:"type"`
	Required  bool   `toml:"required" yaml:"required"`
	Env       string `toml:"env" yaml:"env"`
	Array     bool   `toml:"array" yaml:"array"`
	Negatable bool   `toml:"negatable" yaml:"negatable"`
	Default   Value  `toml:"default" yaml:"default"`
	Help      string `toml:"help" yaml:"help"`
	ValueName string `toml:"value_name" yaml:"value_name"`
	Hidden    bool   `toml:"hidden" yaml:"hidden"`

	Validate []Constraint `toml:"validate" yaml:"validate"`
}

// Positional declares a positional argument. Positionals take their index
// from their order in the file; the one marked last collects the rest.
type Positional struct {
	Name      string `toml:"name" yaml:"name"`
	Type      string `toml:"type" yaml:"type"`
	Required  bool   `toml:"required" yaml:"required"`
	Last      bool   `toml:"last" yaml:"last"`
	Default   Value  `toml:"default" yaml:"default"`
	Help      string `toml:"help" yaml:"help"`
	ValueName string `toml:"value_name" yaml:"value_name"`

	Validate []Constraint `toml:"validate" yaml:"validate"`
}

// Subcommand declares the subcommand slot.
type Subcommand struct {
	Name     string    `toml:"name" yaml:"name"`
	Required bool      `toml:"required" yaml:"required"`
	Help     string    `toml:"help" yaml:"help"`
	Variants []Variant `toml:"variant" yaml:"variant"`
}

// Variant is one subcommand. Its command fields sit beside its aliases.
type Variant struct {
	Aliases []string `toml:"aliases" yaml:"aliases"`
	Command `yaml:",inline"`
}

// Constraint declares a validation rule. Every field set in one entry must
// hold; they share Message.
type Constraint struct {
	Min       Value  `toml:"min" yaml:"min"`
	Max       Value  `toml:"max" yaml:"max"`
	MinLength *int   `toml:"min_length" yaml:"min_length"`
	MaxLength *int   `toml:"max_length" yaml:"max_length"`
	Pattern   string `toml:"pattern" yaml:"pattern"`
	Message   string `toml:"message" yaml:"message"`
}

// Build turns c into a checked schema.Command.
func Build(c *Command) (*schema.Command, error) {
	cmd, err := build(c, c.Name)
	if err != nil {
		return nil, err
	}
	if err := cmd.Check(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func build(c *Command, path string) (*schema.Command, error) {
	cmd := &schema.Command{Name: c.Name, About: c.About, Version: c.Version}
	for _, o := range c.Options {
		n, err := buildOption(o)
		if err != nil {
			return nil, fmt.Errorf("%s: option %q: %w", path, o.Name, err)
		}
		cmd.Args = append(cmd.Args, n)
	}
	index := 0
	for _, p := range c.Positionals {
		pos, err := buildPositional(p)
		if err != nil {
			return nil, fmt.Errorf("%s: positional %q: %w", path, p.Name, err)
		}
		if !pos.Last {
			pos.Index = index
			index++
		}
		cmd.Args = append(cmd.Args, pos)
	}
	if s := c.Subcommand; s != nil {
		slot := &schema.Subcommand{Name: s.Name, Required: s.Required, Help: s.Help}
		if slot.Name == "" {
			slot.Name = "command"
		}
		for i := range s.Variants {
			v := &s.Variants[i]
			child, err := build(&v.Command, path+" "+v.Name)
			if err != nil {
				return nil, err
			}
			slot.Variants = append(slot.Variants, schema.Variant{
				Name:    v.Name,
				Aliases: v.Aliases,
				About:   v.About,
				Command: child,
			})
		}
		cmd.Args = append(cmd.Args, slot)
	}
	return cmd, nil
}

var actions = map[string]schema.Action{
	"set":       schema.Set,
	"append":    schema.Append,
	"set-true":  schema.SetTrue,
	"set_true":  schema.SetTrue,
	"flag":      schema.SetTrue,
	"set-false": schema.SetFalse,
	"set_false": schema.SetFalse,
	"count":     schema.Count,
	"help":      schema.Help,
	"version":   schema.Version,
}

// noLong as an option's long name leaves it with its short name only.
const noLong = "-"

func buildOption(o Option) (*schema.Named, error) {
	kind, ok := convert.ParseKind(o.Type)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", o.Type)
	}
	n := &schema.Named{
		Name:      o.Name,
		Long:      o.Long,
		Required:  o.Required,
		Env:       o.Env,
		Kind:      kind,
		Array:     o.Array,
		Negatable: o.Negatable,
		Help:      o.Help,
		ValueName: o.ValueName,
		Hidden:    o.Hidden,
	}
	if o.Short != "" {
		if utf8.RuneCountInString(o.Short) != 1 {
			return nil, fmt.Errorf("short name %q must be a single character", o.Short)
		}
		n.Short, _ = utf8.DecodeRuneInString(o.Short)
	}
	switch n.Long {
	case "":
		n.Long = o.Name
	case noLong:
		n.Long = ""
	}
	switch {
	case o.Action != "":
		a, ok := actions[strings.ToLower(o.Action)]
		if !ok {
			return nil, fmt.Errorf("unknown action %q", o.Action)
		}
		n.Action = a
	case kind == convert.Bool:
		n.Action = schema.SetTrue
	}
	switch n.Action {
	case schema.SetTrue, schema.SetFalse:
		n.Kind = convert.Bool
	case schema.Count:
		n.Kind = convert.Int
	}

	var err error
	if n.Default, err = defaultValue(o.Default, n.Kind, n.IsArray()); err != nil {
		return nil, err
	}
	if n.Constraints, err = buildConstraints(o.Validate); err != nil {
		return nil, err
	}
	return n, nil
}

func buildPositional(p Positional) (*schema.Positional, error) {
	kind, ok := convert.ParseKind(p.Type)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", p.Type)
	}
	pos := &schema.Positional{
		Name:      p.Name,
		Last:      p.Last,
		Required:  p.Required,
		Kind:      kind,
		Help:      p.Help,
		ValueName: p.ValueName,
	}
	var err error
	if pos.Default, err = defaultValue(p.Default, kind, p.Last); err != nil {
		return nil, err
	}
	if pos.Constraints, err = buildConstraints(p.Validate); err != nil {
		return nil, err
	}
	return pos, nil
}

func defaultValue(v Value, kind convert.Kind, array bool) (any, error) {
	if len(v) == 0 {
		return nil, nil
	}
	if array {
		vs, err := convert.ConvertAll(v, kind, nil, true)
		if err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
		return vs, nil
	}
	if len(v) > 1 {
		return nil, fmt.Errorf("default: expected one value, got %d", len(v))
	}
	d, err := convert.Convert(v[0], kind, nil, true)
	if err != nil {
		return nil, fmt.Errorf("default: %w", err)
	}
	return d, nil
}

func buildConstraints(cs []Constraint) ([]validate.Constraint, error) {
	var out []validate.Constraint
	for i, c := range cs {
		var parts []validate.Constraint
		if len(c.Min) > 0 || len(c.Max) > 0 {
			lo, err := bound(c.Min)
			if err != nil {
				return nil, fmt.Errorf("validate %d: min: %w", i, err)
			}
			hi, err := bound(c.Max)
			if err != nil {
				return nil, fmt.Errorf("validate %d: max: %w", i, err)
			}
			if lo == nil || hi == nil {
				return nil, fmt.Errorf("validate %d: a range needs both min and max", i)
			}
			parts = append(parts, validate.Range(*lo, *hi, c.Message))
		}
		if c.MinLength != nil || c.MaxLength != nil {
			lo, hi := 0, -1
			if c.MinLength != nil {
				lo = *c.MinLength
			}
			if c.MaxLength != nil {
				hi = *c.MaxLength
			}
			parts = append(parts, validate.Length(lo, hi, c.Message))
		}
		if c.Pattern != "" {
			parts = append(parts, validate.Pattern(c.Pattern, c.Message))
		}
		switch len(parts) {
		case 0:
			return nil, fmt.Errorf("validate %d: no rule given", i)
		case 1:
			out = append(out, parts[0])
		default:
			out = append(out, validate.All(parts...))
		}
	}
	return out, nil
}

func bound(v Value) (*decimal.Decimal, error) {
	switch len(v) {
	case 0:
		return nil, nil
	case 1:
		d, err := decimal.NewFromString(v[0])
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", v[0])
		}
		return &d, nil
	}
	return nil, fmt.Errorf("expected one number, got %d", len(v))
}

// Value is a literal from a schema file, a scalar or a list of scalars, kept
// as text until its type is known.
type Value []string

// UnmarshalTOML implements toml.Unmarshaler.
func (v *Value) UnmarshalTOML(data any) error {
	out, err := tomlText(data)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func tomlText(data any) ([]string, error) {
	switch x := data.(type) {
	case string:
		return []string{x}, nil
	case int64:
		return []string{strconv.FormatInt(x, 10)}, nil
	case float64:
		return []string{strconv.FormatFloat(x, 'f', -1, 64)}, nil
	case bool:
		return []string{strconv.FormatBool(x)}, nil
	case []any:
		var out []string
		for _, e := range x {
			if _, nested := e.([]any); nested {
				return nil, fmt.Errorf("nested lists are not supported")
			}
			s, err := tomlText(e)
			if err != nil {
				return nil, err
			}
			out = append(out, s...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value %v (%T)", data, data)
}
