// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package envfile provides environment lookups for argument resolution:
// the process environment, fixed maps, dotenv files and chains of those.
package envfile

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Lookup returns the value of the named variable and whether it is set.
type Lookup func(name string) (string, bool)

// OS looks variables up in the process environment.
func OS() Lookup {
	return os.LookupEnv
}

// Map looks variables up in m. The map must not be modified afterwards.
func Map(m map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// None is a Lookup in which no variable is set.
func None(string) (string, bool) {
	return "", false
}

// Chain consults each lookup in order and returns the first hit. Nil
// lookups are skipped.
func Chain(lookups ...Lookup) Lookup {
	return func(name string) (string, bool) {
		for _, l := range lookups {
			if l == nil {
				continue
			}
			if v, ok := l(name); ok {
				return v, true
			}
		}
		return "", false
	}
}

// Load reads a dotenv file into a map.
func Load(name string) (map[string]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open env file: %w", err)
	}
	defer f.Close()
	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}

// Parse reads KEY=VALUE lines. Blank lines and lines starting with '#' are
// ignored, a leading "export " is dropped, and values may be single or double
// quoted. Later assignments win.
func Parse(r io.Reader) (map[string]string, error) {
	m := map[string]string{}
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			return nil, fmt.Errorf("line %d: expected KEY=VALUE", n)
		}
		value, err := unquote(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		m[key] = value
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	return m, nil
}

func unquote(v string) (string, error) {
	if len(v) < 2 {
		return v, nil
	}
	switch {
	case v[0] == '"' && v[len(v)-1] == '"':
		return strconv.Unquote(v)
	case v[0] == '\'' && v[len(v)-1] == '\'':
		return v[1 : len(v)-1], nil
	}
	return v, nil
}

// Write writes vars to the named file as KEY=VALUE lines sorted by key,
// quoting values that Parse would otherwise change.
func Write(name string, vars map[string]string) error {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := marshalEnv(f, vars); err != nil {
		return fmt.Errorf("failed to marshal env: %v", err)
	}
	return f.Close()
}

func marshalEnv(o io.Writer, vars map[string]string) error {
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		if _, err := fmt.Fprintf(o, "%s=%s\n", k, quote(vars[k])); err != nil {
			return err
		}
	}
	return nil
}

func quote(v string) string {
	if v == "" || strings.ContainsAny(v, " \t\"'#\n\\") {
		return strconv.Quote(v)
	}
	return v
}
