// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lexer turns raw command-line arguments into tokens.
//
// Classification is purely syntactic: the lexer never consults a schema, so
// "-5" is a short flag and "--no-color" is a negated flag whether or not any
// command declares them.
package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxArgLen is the longest argument, in bytes, that Lex accepts.
const MaxArgLen = 32 * 1024

const (
	terminator    = "--"
	negatedPrefix = "--no-"
)

// Kind identifies the syntactic class of a Token.
type Kind int

const (
	ValueLiteral Kind = iota
	ShortFlag
	CompoundFlag
	LongFlag
	NegatedFlag
)

func (k Kind) String() string {
	switch k {
	case ValueLiteral:
		return "value"
	case ShortFlag:
		return "short flag"
	case CompoundFlag:
		return "compound flag"
	case LongFlag:
		return "long flag"
	case NegatedFlag:
		return "negated flag"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Token is a single lexical unit.
//
// Which field is meaningful depends on Kind: Char for ShortFlag, Chars for
// CompoundFlag, Name for LongFlag and NegatedFlag (the latter without its
// "no-" prefix) and Text for ValueLiteral.
type Token struct {
	Kind  Kind
	Char  rune
	Chars []rune
	Name  string
	Text  string
}

// Short returns a ShortFlag token.
func Short(c rune) Token { return Token{Kind: ShortFlag, Char: c} }

// Compound returns a CompoundFlag token over chars.
func Compound(chars ...rune) Token { return Token{Kind: CompoundFlag, Chars: chars} }

// Long returns a LongFlag token.
func Long(name string) Token { return Token{Kind: LongFlag, Name: name} }

// Negated returns a NegatedFlag token for the flag name without its prefix.
func Negated(name string) Token { return Token{Kind: NegatedFlag, Name: name} }

// Value returns a ValueLiteral token.
func Value(text string) Token { return Token{Kind: ValueLiteral, Text: text} }

// IsFlag reports whether t is any of the flag kinds.
func (t Token) IsFlag() bool {
	return t.Kind != ValueLiteral
}

// String formats t back into the argument text it was lexed from.
func (t Token) String() string {
	switch t.Kind {
	case ShortFlag:
		return "-" + string(t.Char)
	case CompoundFlag:
		return "-" + string(t.Chars)
	case LongFlag:
		return "--" + t.Name
	case NegatedFlag:
		return negatedPrefix + t.Name
	default:
		return t.Text
	}
}

// Format returns the argument text of every token in order. A flag followed
// by an empty value, which only "--name=" or "-n=" lexes to, is joined back
// into that single argument so that Lex(Format(tokens)) yields tokens again.
func Format(tokens []Token) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.IsFlag() && i+1 < len(tokens) && tokens[i+1].Kind == ValueLiteral && tokens[i+1].Text == "" {
			out = append(out, t.String()+"=")
			i++
			continue
		}
		out = append(out, t.String())
	}
	return out
}

// TooLongError is returned when an argument exceeds MaxArgLen.
type TooLongError struct {
	Position int // index of the argument in the input
	Length   int
}

func (e *TooLongError) Error() string {
	return fmt.Sprintf("Argument at position %d is %d bytes long, exceeding the limit of %d bytes", e.Position, e.Length, MaxArgLen)
}

// Lex tokenizes args, which should not include the binary name.
//
// Empty arguments are skipped. A lone "--" ends option parsing: it produces no
// token and every later argument becomes a ValueLiteral verbatim.
func Lex(args []string) ([]Token, error) {
	tokens := make([]Token, 0, len(args))
	literalOnly := false
	for i, arg := range args {
		if len(arg) > MaxArgLen {
			return nil, &TooLongError{Position: i, Length: len(arg)}
		}
		if arg == "" {
			continue
		}
		if literalOnly {
			tokens = append(tokens, Value(arg))
			continue
		}
		if arg == terminator {
			literalOnly = true
			continue
		}
		tokens = lexArg(tokens, arg)
	}
	return tokens, nil
}

func lexArg(tokens []Token, arg string) []Token {
	// Split "--name=value" and "-n=value". An '=' at index 0 or 1 never
	// splits, so "-=x" and "=-x" stay whole.
	if strings.HasPrefix(arg, "-") {
		if idx := strings.IndexByte(arg, '='); idx > 1 {
			tokens = append(tokens, classify(arg[:idx]))
			return append(tokens, Value(arg[idx+1:]))
		}
	}
	return append(tokens, classify(arg))
}

func classify(arg string) Token {
	if utf8.RuneCountInString(arg) == 1 || !strings.HasPrefix(arg, "-") {
		return Value(arg)
	}
	if strings.HasPrefix(arg, "--") {
		if strings.HasPrefix(arg, negatedPrefix) {
			return Negated(arg[len(negatedPrefix):])
		}
		return Long(arg[2:])
	}
	chars := []rune(arg[1:])
	if len(chars) == 1 {
		return Short(chars[0])
	}
	return Compound(chars...)
}
