// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package convert turns raw argument text into typed values.
//
// Every built-in kind follows the same rule: a strict conversion (used for
// required fields) fails hard on bad input, while a lenient one (optional
// fields) yields nil instead of a value. A custom Parser always wins over the
// built-in kind and its errors are returned untouched.
package convert

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Parser converts raw text into a value. It is supplied per argument by the
// schema and replaces the built-in conversion for that argument.
type Parser func(text string) (any, error)

// Error is returned when text cannot be converted to Kind.
type Error struct {
	Text string
	Kind Kind
	Err  error // underlying parse error, if any
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s value %q", e.Kind, e.Text)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Convert converts text to kind, or calls parser when it is non-nil.
//
// With strict unset, a built-in conversion failure returns (nil, nil).
func Convert(text string, kind Kind, parser Parser, strict bool) (any, error) {
	if parser != nil {
		return parser(text)
	}
	v, err := convertBuiltin(text, kind)
	if err != nil {
		if !strict {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

// ConvertAll converts each element of texts with the same rules as Convert.
// Elements that convert to nil under the lenient rule are dropped.
func ConvertAll(texts []string, kind Kind, parser Parser, strict bool) ([]any, error) {
	out := make([]any, 0, len(texts))
	for _, text := range texts {
		v, err := Convert(text, kind, parser, strict)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func convertBuiltin(text string, kind Kind) (any, error) {
	fail := func(err error) (any, error) {
		return nil, &Error{Text: text, Kind: kind, Err: err}
	}

	switch kind {
	case String:
		return text, nil

	case Int, Int8, Int16, Int32, Int64:
		i, err := strconv.ParseInt(text, 10, intBits(kind))
		if err != nil {
			return fail(err)
		}
		switch kind {
		case Int:
			return int(i), nil
		case Int8:
			return int8(i), nil
		case Int16:
			return int16(i), nil
		case Int32:
			return int32(i), nil
		}
		return i, nil

	case Uint, Uint8, Uint16, Uint32, Uint64:
		u, err := strconv.ParseUint(text, 10, intBits(kind))
		if err != nil {
			return fail(err)
		}
		switch kind {
		case Uint:
			return uint(u), nil
		case Uint8:
			return uint8(u), nil
		case Uint16:
			return uint16(u), nil
		case Uint32:
			return uint32(u), nil
		}
		return u, nil

	case Float32:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return fail(err)
		}
		return float32(f), nil

	case Float64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fail(err)
		}
		return f, nil

	case Decimal:
		d, err := decimal.NewFromString(text)
		if err != nil {
			return fail(err)
		}
		return d, nil

	case Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return fail(err)
		}
		return b, nil

	case Char:
		if utf8.RuneCountInString(text) != 1 {
			return fail(errors.New("expected exactly one character"))
		}
		r, _ := utf8.DecodeRuneInString(text)
		return r, nil

	case DateTime:
		tm, err := parseDateTime(text)
		if err != nil {
			return fail(err)
		}
		return tm, nil

	case Duration:
		d, err := parseDuration(text)
		if err != nil {
			return fail(err)
		}
		return d, nil

	case GUID:
		id, err := uuid.Parse(text)
		if err != nil {
			return fail(err)
		}
		return id, nil

	case URL:
		u, err := url.Parse(text)
		if err != nil {
			return fail(err)
		}
		if u.Scheme == "" {
			return fail(errors.New("missing scheme"))
		}
		return u, nil

	case SemVer:
		v, err := semver.NewVersion(text)
		if err != nil {
			return fail(err)
		}
		return v, nil

	default:
		return fail(fmt.Errorf("no built-in conversion for kind %s", kind))
	}
}

func intBits(k Kind) int {
	switch k {
	case Int8, Uint8:
		return 8
	case Int16, Uint16:
		return 16
	case Int32, Uint32:
		return 32
	case Int, Uint:
		return strconv.IntSize
	}
	return 64
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateTime,
	"2006-01-02 15:04",
	time.DateOnly,
	time.RFC1123Z,
	time.RFC1123,
}

func parseDateTime(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	for _, layout := range dateTimeLayouts {
		if tm, err := time.Parse(layout, text); err == nil {
			return tm, nil
		}
	}
	return time.Time{}, errors.New("unrecognized date/time format")
}

// parseDuration accepts Go duration syntax ("1h30m") and time-span syntax
// ("[-][d.]hh:mm[:ss[.fraction]]").
func parseDuration(text string) (time.Duration, error) {
	if !strings.Contains(text, ":") {
		return time.ParseDuration(text)
	}
	return parseTimeSpan(text)
}

func parseTimeSpan(text string) (time.Duration, error) {
	s := text
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var days int64
	if dot := strings.IndexByte(s, '.'); dot >= 0 && dot < strings.IndexByte(s, ':') {
		d, err := strconv.ParseInt(s[:dot], 10, 32)
		if err != nil || d < 0 {
			return 0, fmt.Errorf("invalid days in time span %q", text)
		}
		days = d
		s = s[dot+1:]
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time span %q", text)
	}
	hours, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid hours in time span %q", text)
	}
	minutes, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minutes in time span %q", text)
	}
	var seconds float64
	if len(parts) == 3 {
		seconds, err = strconv.ParseFloat(parts[2], 64)
		if err != nil || seconds < 0 || seconds >= 60 {
			return 0, fmt.Errorf("invalid seconds in time span %q", text)
		}
	}

	d := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
	if neg {
		d = -d
	}
	return d, nil
}
