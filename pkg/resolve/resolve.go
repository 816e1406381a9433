// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resolve matches lexed command-line tokens against a schema.Command
// and produces a Result.
//
// Resolution is a single left-to-right scan. At every position a help or
// version flag wins over anything else, including an error found earlier in
// the scan. A bare word naming a subcommand hands the rest of the tokens to
// that subcommand; fields set before it stay with the parent. After the scan,
// unset options fall back to the environment, required fields are enforced
// and constraints are checked in declaration order.
//
// A Parser is safe for concurrent use.
package resolve

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/yeetrun/clap/pkg/convert"
	"github.com/yeetrun/clap/pkg/envfile"
	"github.com/yeetrun/clap/pkg/help"
	"github.com/yeetrun/clap/pkg/lexer"
	"github.com/yeetrun/clap/pkg/schema"
	"github.com/yeetrun/clap/pkg/validate"
)

// Option configures a Parser.
type Option func(*Parser)

// WithEnv sets the environment consulted for arguments that declare an Env
// name. The default is an empty environment.
func WithEnv(env envfile.Lookup) Option {
	return func(p *Parser) {
		if env == nil {
			env = envfile.None
		}
		p.env = env
	}
}

// WithLogger enables debug logging of resolution decisions.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.log = l
		}
	}
}

// WithHelp sets how help text attached to results is rendered.
func WithHelp(o help.Options) Option {
	return func(p *Parser) {
		p.help = o
	}
}

// Parser resolves argument vectors against one checked schema.
type Parser struct {
	cmd  *schema.Command
	env  envfile.Lookup
	log  *slog.Logger
	help help.Options
}

// New checks cmd and returns a Parser for it. It returns a
// *schema.ConfigError when cmd is malformed.
func New(cmd *schema.Command, opts ...Option) (*Parser, error) {
	if cmd == nil {
		return nil, &schema.ConfigError{Reason: "nil command"}
	}
	if err := cmd.Check(); err != nil {
		return nil, err
	}
	p := &Parser{
		cmd: cmd,
		env: envfile.None,
		log: slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// MustNew is like New but panics on a malformed schema.
func MustNew(cmd *schema.Command, opts ...Option) *Parser {
	p, err := New(cmd, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Command returns the schema p resolves against.
func (p *Parser) Command() *schema.Command {
	return p.cmd
}

// Parse lexes args, which exclude the program name, and resolves them.
func (p *Parser) Parse(args []string) Result {
	tokens, err := lexer.Lex(args)
	if err != nil {
		return NewError(err, help.Render(rootPath(p.cmd), p.cmd, p.help))
	}
	return p.Resolve(tokens)
}

// Resolve resolves already lexed tokens.
func (p *Parser) Resolve(tokens []lexer.Token) Result {
	return p.run(rootPath(p.cmd), p.cmd, tokens)
}

// Resolve resolves tokens against cmd using env for environment fallback. It
// panics with a *schema.ConfigError if cmd is malformed; use New to check a
// schema once and resolve many times.
func Resolve(tokens []lexer.Token, cmd *schema.Command, env envfile.Lookup) Result {
	return MustNew(cmd, WithEnv(env)).Resolve(tokens)
}

func rootPath(cmd *schema.Command) []string {
	if cmd.Name == "" {
		return nil
	}
	return []string{cmd.Name}
}

func (p *Parser) run(path []string, cmd *schema.Command, tokens []lexer.Token) Result {
	s := newState(p, path, cmd)
	if r := s.scan(tokens); r != nil {
		return r
	}
	if s.err != nil {
		return s.fail(s.err)
	}
	if err := s.fallback(); err != nil {
		return s.fail(err)
	}
	if err := s.required(); err != nil {
		return s.fail(err)
	}
	if err := s.validate(); err != nil {
		return s.fail(err)
	}
	return s.success()
}

// state is the mutable part of one command's resolution.
type state struct {
	p    *Parser
	path []string
	cmd  *schema.Command

	flags   []*schema.Named
	ordered []*schema.Positional
	last    *schema.Positional
	sub     *schema.Subcommand

	values  map[string]any
	arrays  map[string][]any
	sources map[string]Source
	cursor  int
	child   *selected

	// err is the first error of the scan. Once set, the remaining tokens
	// are only searched for help and version flags.
	err error
}

func newState(p *Parser, path []string, cmd *schema.Command) *state {
	s := &state{
		p:       p,
		path:    path,
		cmd:     cmd,
		flags:   cmd.Flags(),
		values:  map[string]any{},
		arrays:  map[string][]any{},
		sources: map[string]Source{},
	}
	for _, pos := range cmd.Positionals() {
		if pos.Last {
			s.last = pos
		} else {
			s.ordered = append(s.ordered, pos)
		}
	}
	s.sub, _ = cmd.Subcommand()
	return s
}

func (s *state) scan(tokens []lexer.Token) Result {
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if r := s.meta(tok); r != nil {
			return r
		}
		if s.err != nil {
			continue
		}
		var err error
		switch tok.Kind {
		case lexer.ValueLiteral:
			if s.sub != nil {
				if v, ok := s.sub.Variant(tok.Text); ok {
					return s.dispatch(v, tokens[i+1:])
				}
			}
			err = s.positional(tok.Text)
		case lexer.CompoundFlag:
			var n int
			n, err = s.compound(tok, tokens[i+1:])
			i += n
		default:
			var n int
			n, err = s.named(tok, tokens[i+1:])
			i += n
		}
		if err != nil {
			s.p.log.Debug("deferring error while looking for help", "command", s.name(), "err", err)
			s.err = err
		}
	}
	return nil
}

// meta returns Help or Version when tok is a help or version flag.
func (s *state) meta(tok lexer.Token) Result {
	var chars []rune
	switch tok.Kind {
	case lexer.LongFlag:
		return s.metaResult(s.byLong(tok.Name))
	case lexer.ShortFlag:
		chars = []rune{tok.Char}
	case lexer.CompoundFlag:
		chars = tok.Chars
	}
	for _, c := range chars {
		if r := s.metaResult(s.byShort(c)); r != nil {
			return r
		}
	}
	return nil
}

func (s *state) metaResult(n *schema.Named) Result {
	if n == nil {
		return nil
	}
	switch n.Action {
	case schema.Help:
		return NewHelp(s.helpText())
	case schema.Version:
		return NewVersion(s.cmd.Version)
	}
	return nil
}

// dispatch resolves rest against the selected subcommand. It returns nil
// when the subcommand resolved successfully.
func (s *state) dispatch(v *schema.Variant, rest []lexer.Token) Result {
	child := v.Command
	if child.Version == "" && s.cmd.Version != "" {
		c := *child
		c.Version = s.cmd.Version
		child = &c
	}
	s.p.log.Debug("dispatching subcommand", "command", s.name(), "subcommand", v.Name, "tokens", len(rest))
	r := s.p.run(append(slices.Clone(s.path), v.Name), child, rest)
	succ, ok := r.(*Success)
	if !ok {
		return r
	}
	s.child = &selected{id: s.sub.Name, name: v.Name, values: succ.Values, value: succ.Value}
	return nil
}

// named handles a short, long or negated flag. It returns the number of
// tokens of rest it consumed.
func (s *state) named(tok lexer.Token, rest []lexer.Token) (int, error) {
	var n *schema.Named
	switch tok.Kind {
	case lexer.ShortFlag:
		n = s.byShort(tok.Char)
	case lexer.LongFlag:
		n = s.byLong(tok.Name)
	case lexer.NegatedFlag:
		if n = s.byLong("no-" + tok.Name); n != nil {
			break
		}
		if m := s.byLong(tok.Name); m != nil && m.Negatable {
			s.set(m.Name, m.Action == schema.SetFalse, SourceArgs)
			return 0, nil
		}
	}
	if n == nil {
		return 0, &UnknownArgumentError{Arg: tok.String()}
	}
	return s.apply(n, rest)
}

// compound handles bundled short flags character by character. Options
// inside the bundle take their values from the tokens that follow it.
func (s *state) compound(tok lexer.Token, rest []lexer.Token) (int, error) {
	seen := map[rune]bool{}
	used := 0
	for _, c := range tok.Chars {
		n := s.byShort(c)
		if n == nil || (seen[c] && n.Action != schema.Count) {
			return used, &CompoundFlagError{Char: c}
		}
		seen[c] = true
		k, err := s.apply(n, rest[used:])
		used += k
		if err != nil {
			return used, err
		}
	}
	return used, nil
}

func (s *state) apply(n *schema.Named, rest []lexer.Token) (int, error) {
	switch n.Action {
	case schema.SetTrue:
		s.set(n.Name, true, SourceArgs)
	case schema.SetFalse:
		s.set(n.Name, false, SourceArgs)
	case schema.Count:
		c, _ := s.values[n.Name].(int)
		s.set(n.Name, c+1, SourceArgs)
	case schema.Set, schema.Append:
		if len(rest) == 0 || rest[0].Kind != lexer.ValueLiteral {
			return 0, &MissingValueError{Arg: n.Display()}
		}
		text := rest[0].Text
		v, err := convert.Convert(text, n.Kind, n.Parser, n.Required)
		if err != nil {
			return 1, &ValueError{Arg: n.Display(), Text: text, Err: err}
		}
		if n.IsArray() {
			return 1, s.push(n.Name, n.Display(), v)
		}
		s.set(n.Name, v, SourceArgs)
		return 1, nil
	}
	return 0, nil
}

func (s *state) positional(text string) error {
	if s.cursor < len(s.ordered) {
		p := s.ordered[s.cursor]
		s.cursor++
		v, err := convert.Convert(text, p.Kind, p.Parser, p.Required)
		if err != nil {
			return &ValueError{Arg: p.Display(), Text: text, Err: err}
		}
		s.set(p.Name, v, SourceArgs)
		return nil
	}
	if p := s.last; p != nil {
		v, err := convert.Convert(text, p.Kind, p.Parser, p.Required)
		if err != nil {
			return &ValueError{Arg: p.Display(), Text: text, Err: err}
		}
		return s.push(p.Name, p.Display(), v)
	}
	if s.sub != nil {
		var words []string
		for _, v := range s.sub.Variants {
			words = append(words, v.Name)
			words = append(words, v.Aliases...)
		}
		return &UnknownSubcommandError{Name: text, Suggestion: closestMatch(text, words)}
	}
	return &UnexpectedArgumentError{Arg: text}
}

func (s *state) set(id string, v any, src Source) {
	s.values[id] = v
	s.sources[id] = src
}

// push appends v to an array field. A nil v, from a lenient conversion,
// marks the field as set without adding an element.
func (s *state) push(id, display string, v any) error {
	s.sources[id] = SourceArgs
	if v == nil {
		return nil
	}
	if len(s.arrays[id]) >= MaxArrayLen {
		return &ArrayLimitError{Arg: display}
	}
	s.arrays[id] = append(s.arrays[id], v)
	return nil
}

func (s *state) assigned(id string) bool {
	return s.sources[id] != SourceDefault
}

// fallback fills options that no token set from their environment variable.
func (s *state) fallback() error {
	for _, n := range s.flags {
		if n.Env == "" || n.Action == schema.Help || n.Action == schema.Version || s.assigned(n.Name) {
			continue
		}
		raw, ok := s.p.env(n.Env)
		if !ok {
			continue
		}
		s.p.log.Debug("using environment", "command", s.name(), "arg", n.Name, "env", n.Env)
		if err := s.fromEnv(n, raw); err != nil {
			return err
		}
	}
	return nil
}

func (s *state) fromEnv(n *schema.Named, raw string) error {
	fail := func(err error) error {
		return &ValueError{Arg: "$" + n.Env, Text: raw, Err: err}
	}
	switch {
	case n.IsBool():
		v, err := convert.Convert(raw, convert.Bool, nil, true)
		if err != nil {
			return fail(err)
		}
		s.set(n.Name, v, SourceEnv)
	case n.Action == schema.Count:
		v, err := convert.Convert(raw, convert.Int, nil, true)
		if err != nil {
			return fail(err)
		}
		s.set(n.Name, v, SourceEnv)
	case n.IsArray():
		vs, err := convert.ConvertAll(strings.Split(raw, ","), n.Kind, n.Parser, n.Required)
		if err != nil {
			return fail(err)
		}
		if len(vs) > MaxArrayLen {
			return &ArrayLimitError{Arg: "$" + n.Env}
		}
		s.arrays[n.Name] = vs
		s.sources[n.Name] = SourceEnv
	default:
		v, err := convert.Convert(raw, n.Kind, n.Parser, n.Required)
		if err != nil {
			return fail(err)
		}
		s.set(n.Name, v, SourceEnv)
	}
	return nil
}

func (s *state) required() error {
	for _, a := range s.cmd.Args {
		switch a := a.(type) {
		case *schema.Named:
			if a.Required && !s.assigned(a.Name) {
				return &MissingRequiredError{Arg: a.Display()}
			}
		case *schema.Positional:
			if !a.Required {
				continue
			}
			if (a.Last && len(s.arrays[a.Name]) == 0) || !s.assigned(a.Name) {
				return &MissingRequiredError{Arg: a.Display()}
			}
		case *schema.Subcommand:
			if a.Required && s.child == nil {
				return &MissingRequiredError{Arg: a.Name, Subcommand: true}
			}
		}
	}
	return nil
}

func (s *state) validate() error {
	for _, a := range s.cmd.Args {
		var (
			id, display string
			cs          []validate.Constraint
			array       bool
		)
		switch a := a.(type) {
		case *schema.Named:
			id, display, cs, array = a.Name, a.Display(), a.Constraints, a.IsArray()
		case *schema.Positional:
			id, display, cs, array = a.Name, a.Display(), a.Constraints, a.Last
		default:
			continue
		}
		if len(cs) == 0 || !s.assigned(id) {
			continue
		}
		vals := []any{s.values[id]}
		if array {
			vals = s.arrays[id]
		}
		for _, v := range vals {
			if err := validate.Validate(v, cs); err != nil {
				return &ValueError{Arg: display, Text: fmt.Sprint(v), Err: err}
			}
		}
	}
	return nil
}

func (s *state) success() Result {
	vals := newValues(s.cmd.Name)
	for _, a := range s.cmd.Args {
		switch a := a.(type) {
		case *schema.Named:
			if a.Action == schema.Help || a.Action == schema.Version {
				continue
			}
			vals.set(a.Name, s.value(a.Name, a.IsArray(), namedDefault(a)), s.sources[a.Name])
		case *schema.Positional:
			vals.set(a.Name, s.value(a.Name, a.Last, a.Default), s.sources[a.Name])
		case *schema.Subcommand:
			if s.child == nil {
				vals.set(a.Name, nil, SourceDefault)
				continue
			}
			vals.set(a.Name, s.child.value, SourceArgs)
			vals.sub = s.child
		}
	}
	if s.cmd.Construct == nil {
		return NewSuccess(vals, vals)
	}
	v, err := s.cmd.Construct(vals)
	if err != nil {
		return s.fail(&ConstructError{Command: s.name(), Err: err})
	}
	return NewSuccess(v, vals)
}

func (s *state) value(id string, array bool, def any) any {
	if !s.assigned(id) {
		if def == nil && array {
			return []any{}
		}
		return def
	}
	if !array {
		return s.values[id]
	}
	if arr := s.arrays[id]; arr != nil {
		return arr
	}
	return []any{}
}

func namedDefault(n *schema.Named) any {
	if n.Default != nil {
		return n.Default
	}
	switch n.Action {
	case schema.SetTrue:
		return false
	case schema.SetFalse:
		return true
	case schema.Count:
		return 0
	}
	return nil
}

func (s *state) byShort(c rune) *schema.Named {
	if c == 0 {
		return nil
	}
	for _, n := range s.flags {
		if n.Short == c {
			return n
		}
	}
	return nil
}

func (s *state) byLong(name string) *schema.Named {
	if name == "" {
		return nil
	}
	for _, n := range s.flags {
		if n.Long == name {
			return n
		}
	}
	return nil
}

func (s *state) name() string {
	return strings.Join(s.path, " ")
}

func (s *state) helpText() string {
	return help.Render(s.path, s.cmd, s.p.help)
}

func (s *state) fail(err error) Result {
	return NewError(err, s.helpText())
}
