// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schemafile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/yeetrun/clap/pkg/schema"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Format is a schema file syntax.
type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
	HCL  Format = "hcl"
	JSON Format = "json"
)

// FormatOf returns the format implied by a file name's extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".hcl":
		return HCL, nil
	case ".json":
		return JSON, nil
	}
	return "", fmt.Errorf("unsupported schema file %q: want .toml, .yaml, .yml, .hcl or .json", name)
}

// Load reads, decodes and builds the schema in the named file.
func Load(name string) (*schema.Command, error) {
	f, err := FormatOf(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	c, err := Decode(data, f, name)
	if err != nil {
		return nil, err
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	return Build(c)
}

// Decode parses data in format f. filename is used in diagnostics only.
func Decode(data []byte, f Format, filename string) (*Command, error) {
	var c Command
	switch f {
	case TOML:
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&c)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return nil, fmt.Errorf("failed to parse %s: unknown key %q", filename, undec[0].String())
		}
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
		}
	case HCL, JSON:
		parser := hclparse.NewParser()
		var (
			file  *hcl.File
			diags hcl.Diagnostics
		)
		if f == HCL {
			file, diags = parser.ParseHCL(data, filename)
		} else {
			file, diags = parser.ParseJSON(data, filename)
		}
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", filename, diags)
		}
		var hc hclCommand
		if diags := gohcl.DecodeBody(file.Body, nil, &hc); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", filename, diags)
		}
		out, err := hc.command(hc.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown schema format %q", f)
	}
	return &c, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*v = Value{n.Value}
		return nil
	case yaml.SequenceNode:
		out := make(Value, 0, len(n.Content))
		for _, e := range n.Content {
			if e.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: nested lists are not supported", e.Line)
			}
			out = append(out, e.Value)
		}
		*v = out
		return nil
	}
	return fmt.Errorf("line %d: expected a scalar or a list", n.Line)
}

// The HCL forms label blocks with names instead of carrying a name
// attribute, and keep literals as cty values.

type hclCommand struct {
	Name        string          `hcl:"name,optional"`
	About       string          `hcl:"about,optional"`
	Version     string          `hcl:"version,optional"`
	Options     []hclOption     `hcl:"option,block"`
	Positionals []hclPositional `hcl:"positional,block"`
	Subcommands []hclSubcommand `hcl:"subcommand,block"`
}

type hclOption struct {
	Name      string          `hcl:"name,label"`
	Short     string          `hcl:"short,optional"`
	Long      string          `hcl:"long,optional"`
	Action    string          `hcl:"action,optional"`
	Type      string          `hcl:"type,optional"`
	Required  bool            `hcl:"required,optional"`
	Env       string          `hcl:"env,optional"`
	Array     bool            `hcl:"array,optional"`
	Negatable bool            `hcl:"negatable,optional"`
	Default   *cty.Value      `hcl:"default,optional"`
	Help      string          `hcl:"help,optional"`
	ValueName string          `hcl:"value_name,optional"`
	Hidden    bool            `hcl:"hidden,optional"`
	Validate  []hclConstraint `hcl:"validate,block"`
}

type hclPositional struct {
	Name      string          `hcl:"name,label"`
	Type      string          `hcl:"type,optional"`
	Required  bool            `hcl:"required,optional"`
	Last      bool            `hcl:"last,optional"`
	Default   *cty.Value      `hcl:"default,optional"`
	Help      string          `hcl:"help,optional"`
	ValueName string          `hcl:"value_name,optional"`
	Validate  []hclConstraint `hcl:"validate,block"`
}

type hclSubcommand struct {
	Name     string       `hcl:"name,label"`
	Required bool         `hcl:"required,optional"`
	Help     string       `hcl:"help,optional"`
	Variants []hclVariant `hcl:"variant,block"`
}

type hclVariant struct {
	Name        string          `hcl:"name,label"`
	Aliases     []string        `hcl:"aliases,optional"`
	About       string          `hcl:"about,optional"`
	Version     string          `hcl:"version,optional"`
	Options     []hclOption     `hcl:"option,block"`
	Positionals []hclPositional `hcl:"positional,block"`
	Subcommands []hclSubcommand `hcl:"subcommand,block"`
}

type hclConstraint struct {
	Min       *cty.Value `hcl:"min,optional"`
	Max       *cty.Value `hcl:"max,optional"`
	MinLength *int       `hcl:"min_length,optional"`
	MaxLength *int       `hcl:"max_length,optional"`
	Pattern   string     `hcl:"pattern,optional"`
	Message   string     `hcl:"message,optional"`
}

func (h *hclCommand) command(name string) (*Command, error) {
	return buildHCL(name, h.About, h.Version, h.Options, h.Positionals, h.Subcommands)
}

func buildHCL(name, about, version string, opts []hclOption, poss []hclPositional, subs []hclSubcommand) (*Command, error) {
	c := &Command{Name: name, About: about, Version: version}
	for _, o := range opts {
		def, err := ctyText(o.Default)
		if err != nil {
			return nil, fmt.Errorf("option %q: default: %w", o.Name, err)
		}
		vs, err := hclConstraints(o.Validate)
		if err != nil {
			return nil, fmt.Errorf("option %q: %w", o.Name, err)
		}
		c.Options = append(c.Options, Option{
			Name: o.Name, Short: o.Short, Long: o.Long, Action: o.Action, Type: o.Type,
			Required: o.Required, Env: o.Env, Array: o.Array, Negatable: o.Negatable,
			Default: def, Help: o.Help, ValueName: o.ValueName, Hidden: o.Hidden, Validate: vs,
		})
	}
	for _, p := range poss {
		def, err := ctyText(p.Default)
		if err != nil {
			return nil, fmt.Errorf("positional %q: default: %w", p.Name, err)
		}
		vs, err := hclConstraints(p.Validate)
		if err != nil {
			return nil, fmt.Errorf("positional %q: %w", p.Name, err)
		}
		c.Positionals = append(c.Positionals, Positional{
			Name: p.Name, Type: p.Type, Required: p.Required, Last: p.Last,
			Default: def, Help: p.Help, ValueName: p.ValueName, Validate: vs,
		})
	}
	if len(subs) > 1 {
		return nil, fmt.Errorf("command %q: more than one subcommand block", name)
	}
	for _, s := range subs {
		slot := &Subcommand{Name: s.Name, Required: s.Required, Help: s.Help}
		for _, v := range s.Variants {
			child, err := buildHCL(v.Name, v.About, v.Version, v.Options, v.Positionals, v.Subcommands)
			if err != nil {
				return nil, err
			}
			slot.Variants = append(slot.Variants, Variant{Aliases: v.Aliases, Command: *child})
		}
		c.Subcommand = slot
	}
	return c, nil
}

func hclConstraints(in []hclConstraint) ([]Constraint, error) {
	var out []Constraint
	for i, h := range in {
		lo, err := ctyText(h.Min)
		if err != nil {
			return nil, fmt.Errorf("validate %d: min: %w", i, err)
		}
		hi, err := ctyText(h.Max)
		if err != nil {
			return nil, fmt.Errorf("validate %d: max: %w", i, err)
		}
		out = append(out, Constraint{
			Min: lo, Max: hi, MinLength: h.MinLength, MaxLength: h.MaxLength,
			Pattern: h.Pattern, Message: h.Message,
		})
	}
	return out, nil
}

// ctyText renders a literal as text. Lists and tuples yield one entry per
// element.
func ctyText(v *cty.Value) (Value, error) {
	if v == nil || v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	ty := v.Type()
	if ty.IsListType() || ty.IsTupleType() || ty.IsSetType() {
		var out Value
		for it := v.ElementIterator(); it.Next(); {
			_, e := it.Element()
			if et := e.Type(); et.IsListType() || et.IsTupleType() || et.IsSetType() {
				return nil, fmt.Errorf("nested lists are not supported")
			}
			s, err := ctyText(&e)
			if err != nil {
				return nil, err
			}
			if len(s) != 1 {
				return nil, fmt.Errorf("null list element")
			}
			out = append(out, s[0])
		}
		return out, nil
	}
	switch ty {
	case cty.String:
		return Value{v.AsString()}, nil
	case cty.Number:
		return Value{v.AsBigFloat().Text('f', -1)}, nil
	case cty.Bool:
		return Value{strconv.FormatBool(v.True())}, nil
	}
	return nil, fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
}
