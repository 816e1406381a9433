// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package validate checks converted argument values against declarative
// constraints.
//
// The set of constraints is closed: Range, Length, Pattern, Predicate and All.
// Each carries the message shown to the user when it fails; Validate never
// makes up a message of its own.
package validate

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/yeetrun/clap/pkg/convert"
)

// Constraint is a single declarative check on a value.
type Constraint interface {
	// Message is the text reported when the constraint fails.
	Message() string
	// Check reports whether the constraint is well formed for kind.
	Check(kind convert.Kind) error

	eval(v any) (ok bool, msg string)
}

// Error is returned by Validate when a constraint fails.
type Error struct {
	Message string
	Value   any
}

func (e *Error) Error() string {
	return e.Message
}

// Validate evaluates constraints against v in order and returns an *Error for
// the first one that fails. A nil value is never validated.
func Validate(v any, constraints []Constraint) error {
	if v == nil {
		return nil
	}
	for _, c := range constraints {
		if ok, msg := c.eval(v); !ok {
			return &Error{Message: msg, Value: v}
		}
	}
	return nil
}

var errNoMessage = errors.New("constraint has no message")

type rangeConstraint struct {
	min, max decimal.Decimal
	msg      string
}

// Range requires a numeric value within [min, max]. Bounds may be any Go
// integer or float type, or a decimal.Decimal.
func Range(min, max any, msg string) Constraint {
	lo, ok1 := toDecimal(min)
	hi, ok2 := toDecimal(max)
	if !ok1 || !ok2 {
		return &brokenConstraint{err: fmt.Errorf("range bounds %v..%v are not numeric", min, max), msg: msg}
	}
	return &rangeConstraint{min: lo, max: hi, msg: msg}
}

func (c *rangeConstraint) Message() string { return c.msg }

func (c *rangeConstraint) Check(kind convert.Kind) error {
	if c.msg == "" {
		return errNoMessage
	}
	if c.min.GreaterThan(c.max) {
		return fmt.Errorf("range minimum %s is greater than maximum %s", c.min, c.max)
	}
	if !kind.Numeric() && kind != convert.Custom {
		return fmt.Errorf("range constraint cannot apply to %s values", kind)
	}
	return nil
}

func (c *rangeConstraint) eval(v any) (bool, string) {
	d, ok := toDecimal(v)
	if !ok {
		return false, c.msg
	}
	return d.GreaterThanOrEqual(c.min) && d.LessThanOrEqual(c.max), c.msg
}

type lengthConstraint struct {
	min, max int
	msg      string
}

// Length requires a string value of between min and max characters. A
// negative max leaves the upper bound open.
func Length(min, max int, msg string) Constraint {
	return &lengthConstraint{min: min, max: max, msg: msg}
}

func (c *lengthConstraint) Message() string { return c.msg }

func (c *lengthConstraint) Check(kind convert.Kind) error {
	if c.msg == "" {
		return errNoMessage
	}
	if c.min < 0 || (c.max >= 0 && c.min > c.max) {
		return fmt.Errorf("invalid length bounds %d..%d", c.min, c.max)
	}
	if kind.Numeric() || kind == convert.Bool {
		return fmt.Errorf("length constraint cannot apply to %s values", kind)
	}
	return nil
}

func (c *lengthConstraint) eval(v any) (bool, string) {
	s, ok := textOf(v)
	if !ok {
		return false, c.msg
	}
	n := utf8.RuneCountInString(s)
	return n >= c.min && (c.max < 0 || n <= c.max), c.msg
}

type patternConstraint struct {
	re  *regexp.Regexp
	msg string
}

// Pattern requires the value's text to match the regular expression expr.
func Pattern(expr, msg string) Constraint {
	re, err := regexp.Compile(expr)
	if err != nil {
		return &brokenConstraint{err: fmt.Errorf("invalid pattern %q: %w", expr, err), msg: msg}
	}
	return &patternConstraint{re: re, msg: msg}
}

func (c *patternConstraint) Message() string { return c.msg }

func (c *patternConstraint) Check(kind convert.Kind) error {
	if c.msg == "" {
		return errNoMessage
	}
	if kind.Numeric() || kind == convert.Bool {
		return fmt.Errorf("pattern constraint cannot apply to %s values", kind)
	}
	return nil
}

func (c *patternConstraint) eval(v any) (bool, string) {
	s, ok := textOf(v)
	if !ok {
		return false, c.msg
	}
	return c.re.MatchString(s), c.msg
}

type predicateConstraint struct {
	fn  func(any) bool
	msg string
}

// Predicate requires fn to return true for the value.
func Predicate(fn func(v any) bool, msg string) Constraint {
	return &predicateConstraint{fn: fn, msg: msg}
}

func (c *predicateConstraint) Message() string { return c.msg }

func (c *predicateConstraint) Check(convert.Kind) error {
	if c.fn == nil {
		return errors.New("predicate constraint has no function")
	}
	if c.msg == "" {
		return errNoMessage
	}
	return nil
}

func (c *predicateConstraint) eval(v any) (bool, string) {
	return c.fn(v), c.msg
}

type allConstraint struct {
	cs []Constraint
}

// All combines independent constraints. They are evaluated in order and the
// first failure's message is reported.
func All(constraints ...Constraint) Constraint {
	return &allConstraint{cs: constraints}
}

func (c *allConstraint) Message() string {
	if len(c.cs) == 0 {
		return ""
	}
	return c.cs[0].Message()
}

func (c *allConstraint) Check(kind convert.Kind) error {
	for i, inner := range c.cs {
		if err := inner.Check(kind); err != nil {
			return fmt.Errorf("constraint %d: %w", i, err)
		}
	}
	return nil
}

func (c *allConstraint) eval(v any) (bool, string) {
	for _, inner := range c.cs {
		if ok, msg := inner.eval(v); !ok {
			return false, msg
		}
	}
	return true, ""
}

// brokenConstraint holds a construction error until the schema is checked.
type brokenConstraint struct {
	err error
	msg string
}

func (c *brokenConstraint) Message() string          { return c.msg }
func (c *brokenConstraint) Check(convert.Kind) error { return c.err }
func (c *brokenConstraint) eval(any) (bool, string)  { return false, c.msg }

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int8:
		return decimal.NewFromInt(int64(n)), true
	case int16:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint:
		return fromUint(uint64(n)), true
	case uint8:
		return fromUint(uint64(n)), true
	case uint16:
		return fromUint(uint64(n)), true
	case uint32:
		return fromUint(uint64(n)), true
	case uint64:
		return fromUint(n), true
	case float32:
		if !finite(float64(n)) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(n), true
	case float64:
		if !finite(n) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(n), true
	case decimal.Decimal:
		return n, true
	}
	return decimal.Decimal{}, false
}

// finite reports whether f is neither NaN nor an infinity. Non-finite
// values lie outside every range.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func fromUint(u uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0)
}

func textOf(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case rune:
		return string(s), true
	case fmt.Stringer:
		return s.String(), true
	}
	return "", false
}
