// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package convert

import (
	"fmt"
	"strings"
)

// Kind is the primitive type an argument value converts to. The zero Kind is
// String.
type Kind int

const (
	String Kind = iota
	Int
	Int8
	Int16
	Int32
	Int64
	Uint
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Decimal
	Bool
	Char
	DateTime
	Duration
	GUID
	URL
	SemVer
	// Custom marks a value produced only by a caller-supplied Parser.
	Custom
)

var kindNames = [...]string{
	String:   "string",
	Int:      "int",
	Int8:     "int8",
	Int16:    "int16",
	Int32:    "int32",
	Int64:    "int64",
	Uint:     "uint",
	Uint8:    "uint8",
	Uint16:   "uint16",
	Uint32:   "uint32",
	Uint64:   "uint64",
	Float32:  "float32",
	Float64:  "float64",
	Decimal:  "decimal",
	Bool:     "bool",
	Char:     "char",
	DateTime: "datetime",
	Duration: "duration",
	GUID:     "guid",
	URL:      "url",
	SemVer:   "semver",
	Custom:   "custom",
}

// aliases accepted by ParseKind in addition to the canonical names.
var kindAliases = map[string]Kind{
	"str":      String,
	"text":     String,
	"integer":  Int,
	"long":     Int64,
	"short":    Int16,
	"byte":     Uint8,
	"ulong":    Uint64,
	"float":    Float64,
	"double":   Float64,
	"single":   Float32,
	"boolean":  Bool,
	"rune":     Char,
	"time":     DateTime,
	"date":     DateTime,
	"timespan": Duration,
	"uuid":     GUID,
	"uri":      URL,
	"version":  SemVer,
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind resolves a kind by its canonical name or a common alias.
func ParseKind(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return String, true
	}
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	k, ok := kindAliases[name]
	return k, ok
}

// Numeric reports whether values of k can be range checked.
func (k Kind) Numeric() bool {
	switch k {
	case Int, Int8, Int16, Int32, Int64,
		Uint, Uint8, Uint16, Uint32, Uint64,
		Float32, Float64, Decimal:
		return true
	}
	return false
}

// Textual reports whether values of k are strings.
func (k Kind) Textual() bool {
	return k == String
}
