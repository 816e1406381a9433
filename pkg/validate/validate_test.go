// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package validate

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/yeetrun/clap/pkg/convert"
)

const portMsg = "Port must be between 1 and 65535"

func TestRange(t *testing.T) {
	c := []Constraint{Range(1, 65535, portMsg)}
	tests := []struct {
		name  string
		value any
		ok    bool
	}{
		{"low edge", 1, true},
		{"high edge", uint16(65535), true},
		{"zero", 0, false},
		{"above", int64(70000), false},
		{"float inside", 80.5, true},
		{"decimal inside", decimal.RequireFromString("443"), true},
		{"huge uint", uint64(1) << 63, false},
		{"non numeric", "8080", false},
		{"NaN", math.NaN(), false},
		{"infinity", math.Inf(1), false},
		{"float32 negative infinity", float32(math.Inf(-1)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.value, c)
			if tt.ok {
				if err != nil {
					t.Fatalf("Validate(%v) error = %v", tt.value, err)
				}
				return
			}
			var vErr *Error
			if !errors.As(err, &vErr) {
				t.Fatalf("Validate(%v) error = %v, want *Error", tt.value, err)
			}
			if vErr.Error() != portMsg {
				t.Errorf("message = %q, want %q", vErr.Error(), portMsg)
			}
		})
	}
}

func TestLengthAndPattern(t *testing.T) {
	cs := []Constraint{
		Length(2, 5, "name must be 2-5 characters"),
		Pattern(`^[a-z]+$`, "name must be lowercase letters"),
	}
	if err := Validate("bob", cs); err != nil {
		t.Errorf("Validate(bob) error = %v", err)
	}
	if err := Validate("b", cs); err == nil || err.Error() != "name must be 2-5 characters" {
		t.Errorf("Validate(b) error = %v", err)
	}
	if err := Validate("Bob", cs); err == nil || err.Error() != "name must be lowercase letters" {
		t.Errorf("Validate(Bob) error = %v", err)
	}
	// Length counts characters, not bytes.
	if err := Validate("éééé", cs[:1]); err != nil {
		t.Errorf("Validate(éééé) error = %v", err)
	}
	if err := Validate(strings.Repeat("a", 100), []Constraint{Length(1, -1, "too short")}); err != nil {
		t.Errorf("open upper bound error = %v", err)
	}
}

func TestAllFirstFailureWins(t *testing.T) {
	even := Predicate(func(v any) bool { return v.(int)%2 == 0 }, "must be even")
	c := All(Range(0, 10, "must be 0-10"), even)

	if err := Validate(4, []Constraint{c}); err != nil {
		t.Errorf("Validate(4) error = %v", err)
	}
	if err := Validate(12, []Constraint{c}); err == nil || err.Error() != "must be 0-10" {
		t.Errorf("Validate(12) error = %v", err)
	}
	if err := Validate(3, []Constraint{c}); err == nil || err.Error() != "must be even" {
		t.Errorf("Validate(3) error = %v", err)
	}
}

func TestValidateNilSkipped(t *testing.T) {
	if err := Validate(nil, []Constraint{Range(1, 2, "x")}); err != nil {
		t.Errorf("Validate(nil) error = %v", err)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		c       Constraint
		kind    convert.Kind
		wantErr bool
	}{
		{"range on int", Range(1, 2, "m"), convert.Int, false},
		{"range on custom", Range(1, 2, "m"), convert.Custom, false},
		{"range on string", Range(1, 2, "m"), convert.String, true},
		{"range inverted", Range(5, 1, "m"), convert.Int, true},
		{"range bad bounds", Range("a", 1, "m"), convert.Int, true},
		{"range no message", Range(1, 2, ""), convert.Int, true},
		{"length on string", Length(1, 2, "m"), convert.String, false},
		{"length on int", Length(1, 2, "m"), convert.Int, true},
		{"length bad bounds", Length(3, 1, "m"), convert.String, true},
		{"pattern on string", Pattern(`a+`, "m"), convert.String, false},
		{"pattern bad regexp", Pattern(`(`, "m"), convert.String, true},
		{"pattern on bool", Pattern(`a`, "m"), convert.Bool, true},
		{"predicate nil fn", Predicate(nil, "m"), convert.String, true},
		{"all propagates", All(Length(1, 2, "m"), Range(1, 2, "m")), convert.String, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Check(tt.kind)
			if (err != nil) != tt.wantErr {
				t.Errorf("Check(%s) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
			}
		})
	}
}
