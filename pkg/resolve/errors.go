// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/yeetrun/clap/pkg/convert"
)

// MaxArrayLen is the most elements any array-typed value may hold.
const MaxArrayLen = 10_000

// UnknownArgumentError is returned when a flag-shaped token matches no
// declared argument.
type UnknownArgumentError struct {
	Arg string // the token as typed, e.g. "--colour"
}

func (e *UnknownArgumentError) Error() string {
	return fmt.Sprintf("Unknown argument '%s'", e.Arg)
}

// CompoundFlagError is returned when a character of a bundled short flag
// such as -abc matches no declared argument, or repeats one that does not
// count occurrences.
type CompoundFlagError struct {
	Char rune
}

func (e *CompoundFlagError) Error() string {
	return fmt.Sprintf("Unexpected flag supplied in compound flags '%c'", e.Char)
}

// MissingValueError is returned when an option that takes a value is the
// last token or is followed by another flag.
type MissingValueError struct {
	Arg string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("Missing value for argument '%s'", e.Arg)
}

// UnexpectedArgumentError is returned for a value token with no positional
// slot left to take it.
type UnexpectedArgumentError struct {
	Arg string
}

func (e *UnexpectedArgumentError) Error() string {
	return fmt.Sprintf("Unexpected argument '%s'", e.Arg)
}

// UnknownSubcommandError is returned when a bare word is neither a
// subcommand nor a free positional. Suggestion is the closest known
// subcommand, if one is close enough.
type UnknownSubcommandError struct {
	Name       string
	Suggestion string
}

func (e *UnknownSubcommandError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("Unknown subcommand '%s' (did you mean '%s'?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("Unknown subcommand '%s'", e.Name)
}

// ValueError is returned when a value fails conversion or validation. Err is
// a *convert.Error, a *validate.Error or the error of a custom parser.
type ValueError struct {
	Arg  string // display name of the argument
	Text string // the offending value
	Err  error
}

func (e *ValueError) Error() string {
	var cErr *convert.Error
	if errors.As(e.Err, &cErr) {
		return fmt.Sprintf("Invalid value '%s' for '%s': expected %s", e.Text, e.Arg, cErr.Kind)
	}
	return fmt.Sprintf("Invalid value '%s' for '%s': %v", e.Text, e.Arg, e.Err)
}

func (e *ValueError) Unwrap() error {
	return e.Err
}

// MissingRequiredError is returned when a required argument or subcommand
// was given neither on the command line nor through the environment.
type MissingRequiredError struct {
	Arg        string
	Subcommand bool
}

func (e *MissingRequiredError) Error() string {
	if e.Subcommand {
		return fmt.Sprintf("Missing required subcommand '%s'", e.Arg)
	}
	return fmt.Sprintf("Missing required argument '%s'", e.Arg)
}

// ArrayLimitError is returned when an array value would grow past
// MaxArrayLen elements.
type ArrayLimitError struct {
	Arg string
}

func (e *ArrayLimitError) Error() string {
	return fmt.Sprintf("Too many values for '%s' (limit %d)", e.Arg, MaxArrayLen)
}

// ConstructError wraps an error returned by a command's Construct function.
type ConstructError struct {
	Command string
	Err     error
}

func (e *ConstructError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *ConstructError) Unwrap() error {
	return e.Err
}

// closestMatch returns the candidate nearest to word, preferring a candidate
// that starts with word. It returns "" when nothing is close.
func closestMatch(word string, candidates []string) string {
	if word == "" {
		return ""
	}
	low := strings.ToLower(word)
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), low) {
			return c
		}
	}
	best, bestDist := "", -1
	for _, c := range candidates {
		d := levenshtein.Distance(low, strings.ToLower(c), nil)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist >= 0 && bestDist <= max(2, len(low)/3) {
		return best
	}
	return ""
}
