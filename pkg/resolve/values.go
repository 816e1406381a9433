// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/yeetrun/clap/pkg/schema"
)

// Source records where a field's value came from.
type Source int

const (
	// SourceDefault means no token or variable set the field.
	SourceDefault Source = iota
	SourceEnv
	SourceArgs
)

func (s Source) String() string {
	switch s {
	case SourceEnv:
		return "env"
	case SourceArgs:
		return "args"
	default:
		return "default"
	}
}

type field struct {
	id     string
	value  any
	source Source
}

type selected struct {
	id     string
	name   string
	values *Values
	value  any
}

// Values holds the resolved fields of one command in declaration order.
// Array fields hold []any; count fields hold int.
type Values struct {
	command string
	fields  []field
	index   map[string]int
	sub     *selected
}

var _ schema.Fields = (*Values)(nil)

func newValues(command string) *Values {
	return &Values{command: command, index: map[string]int{}}
}

func (v *Values) set(id string, value any, src Source) {
	if i, ok := v.index[id]; ok {
		v.fields[i] = field{id: id, value: value, source: src}
		return
	}
	v.index[id] = len(v.fields)
	v.fields = append(v.fields, field{id: id, value: value, source: src})
}

// Command returns the name of the command these values belong to.
func (v *Values) Command() string {
	return v.command
}

// IDs returns the field IDs in declaration order.
func (v *Values) IDs() []string {
	ids := make([]string, len(v.fields))
	for i, f := range v.fields {
		ids[i] = f.id
	}
	return ids
}

// Get returns the value of field id. ok is false only for undeclared IDs;
// an optional field that was never set reports its default, which may be
// nil.
func (v *Values) Get(id string) (any, bool) {
	i, ok := v.index[id]
	if !ok {
		return nil, false
	}
	return v.fields[i].value, true
}

// Has reports whether id was set by a token or an environment variable.
func (v *Values) Has(id string) bool {
	return v.Source(id) != SourceDefault
}

// Source reports where the value of id came from.
func (v *Values) Source(id string) Source {
	i, ok := v.index[id]
	if !ok {
		return SourceDefault
	}
	return v.fields[i].source
}

// String returns field id as a string, or "" when it is not one.
func (v *Values) String(id string) string {
	x, _ := v.Get(id)
	s, _ := x.(string)
	return s
}

// Bool returns field id as a bool, or false when it is not one.
func (v *Values) Bool(id string) bool {
	x, _ := v.Get(id)
	b, _ := x.(bool)
	return b
}

// Int returns field id as an int. Any Go integer type is accepted; other
// values yield 0. Unsigned values above math.MaxInt are clamped to
// math.MaxInt; use Uint for those.
func (v *Values) Int(id string) int {
	x, _ := v.Get(id)
	switch n := x.(type) {
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	}
	if u, ok := asUint(x); ok {
		return int(min(u, math.MaxInt))
	}
	return 0
}

// Uint returns field id as a uint64. Unsigned types and non-negative signed
// integers are accepted; other values yield 0.
func (v *Values) Uint(id string) uint64 {
	x, _ := v.Get(id)
	if u, ok := asUint(x); ok {
		return u
	}
	switch n := x.(type) {
	case int:
		return uint64(max(n, 0))
	case int8:
		return uint64(max(n, 0))
	case int16:
		return uint64(max(n, 0))
	case int32:
		return uint64(max(n, 0))
	case int64:
		return uint64(max(n, 0))
	}
	return 0
}

func asUint(x any) (uint64, bool) {
	switch n := x.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	}
	return 0, false
}

// Count returns the number of occurrences stored in a Count field.
func (v *Values) Count(id string) int {
	return v.Int(id)
}

// Slice returns an array field's elements.
func (v *Values) Slice(id string) []any {
	x, _ := v.Get(id)
	s, _ := x.([]any)
	return s
}

// Strings returns an array field's string elements.
func (v *Values) Strings(id string) []string {
	var out []string
	for _, e := range v.Slice(id) {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Subcommand returns the selected subcommand's name and constructed value.
func (v *Values) Subcommand() (string, any, bool) {
	if v.sub == nil {
		return "", nil, false
	}
	return v.sub.name, v.sub.value, true
}

// SubcommandID returns the ID of the field holding the selected subcommand,
// or "" when none was selected.
func (v *Values) SubcommandID() string {
	if v.sub == nil {
		return ""
	}
	return v.sub.id
}

// Child returns the selected subcommand's name and resolved fields.
func (v *Values) Child() (string, *Values, bool) {
	if v.sub == nil {
		return "", nil, false
	}
	return v.sub.name, v.sub.values, true
}

// MarshalJSON encodes the fields as an object in declaration order. Values
// with a String method and no JSON encoding of their own are encoded as
// their string form. The selected subcommand's fields are nested under its
// slot ID.
func (v *Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range v.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.id)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		val := f.value
		if v.sub != nil && f.id == v.sub.id {
			val = map[string]any{"name": v.sub.name, "args": v.sub.values}
		}
		b, err := json.Marshal(jsonValue(val))
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.id, err)
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func jsonValue(x any) any {
	switch t := x.(type) {
	case json.Marshaler:
		return t
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = jsonValue(e)
		}
		return out
	case fmt.Stringer:
		return t.String()
	}
	return x
}
