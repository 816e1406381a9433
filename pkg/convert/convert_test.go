// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package convert

import (
	"errors"
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestConvertBuiltins(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind Kind
		want any
	}{
		{"string", "hello", String, "hello"},
		{"int", "-42", Int, -42},
		{"int8", "127", Int8, int8(127)},
		{"int16", "-300", Int16, int16(-300)},
		{"int32", "70000", Int32, int32(70000)},
		{"int64", "9000000000", Int64, int64(9000000000)},
		{"uint", "7", Uint, uint(7)},
		{"uint8", "255", Uint8, uint8(255)},
		{"uint16", "8080", Uint16, uint16(8080)},
		{"uint32", "4000000000", Uint32, uint32(4000000000)},
		{"uint64", "18446744073709551615", Uint64, uint64(18446744073709551615)},
		{"float32", "1.5", Float32, float32(1.5)},
		{"float64", "3.25", Float64, 3.25},
		{"bool true", "true", Bool, true},
		{"bool zero", "0", Bool, false},
		{"char", "x", Char, 'x'},
		{"unicode char", "é", Char, 'é'},
		{"go duration", "1h30m", Duration, 90 * time.Minute},
		{"time span", "01:02:03", Duration, time.Hour + 2*time.Minute + 3*time.Second},
		{"time span with days", "2.00:30", Duration, 48*time.Hour + 30*time.Minute},
		{"negative time span", "-00:00:01.5", Duration, -1500 * time.Millisecond},
		{"date", "2024-03-01", DateTime, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"rfc3339", "2024-03-01T10:20:30Z", DateTime, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
		{"guid", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", GUID, uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.text, tt.kind, nil, true)
			if err != nil {
				t.Fatalf("Convert(%q, %s) error = %v", tt.text, tt.kind, err)
			}
			if tm, ok := tt.want.(time.Time); ok {
				if !tm.Equal(got.(time.Time)) {
					t.Errorf("Convert(%q, %s) = %v, want %v", tt.text, tt.kind, got, tm)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Convert(%q, %s) = %#v, want %#v", tt.text, tt.kind, got, tt.want)
			}
		})
	}
}

func TestConvertLibraryKinds(t *testing.T) {
	d, err := Convert("12.50", Decimal, nil, true)
	if err != nil {
		t.Fatalf("Convert decimal error = %v", err)
	}
	if !d.(decimal.Decimal).Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("decimal = %v, want 12.5", d)
	}

	v, err := Convert("v1.2.3", SemVer, nil, true)
	if err != nil {
		t.Fatalf("Convert semver error = %v", err)
	}
	if got := v.(*semver.Version).String(); got != "1.2.3" {
		t.Errorf("semver = %q, want %q", got, "1.2.3")
	}

	u, err := Convert("https://example.com/a?b=c", URL, nil, true)
	if err != nil {
		t.Fatalf("Convert url error = %v", err)
	}
	if got := u.(*url.URL).Host; got != "example.com" {
		t.Errorf("url host = %q, want %q", got, "example.com")
	}
}

func TestConvertStrictFailure(t *testing.T) {
	tests := []struct {
		text string
		kind Kind
	}{
		{"abc", Int},
		{"300", Int8},
		{"-1", Uint},
		{"70000", Uint16},
		{"1.2.3", Float64},
		{"yes", Bool},
		{"xy", Char},
		{"", Char},
		{"tomorrow", DateTime},
		{"5", Duration},
		{"25:00", Duration},
		{"not-a-guid", GUID},
		{"example.com", URL},
		{"one.two", SemVer},
		{"1.2.x", Decimal},
	}
	for _, tt := range tests {
		_, err := Convert(tt.text, tt.kind, nil, true)
		var convErr *Error
		if !errors.As(err, &convErr) {
			t.Errorf("Convert(%q, %s) error = %v, want *Error", tt.text, tt.kind, err)
			continue
		}
		if convErr.Kind != tt.kind || convErr.Text != tt.text {
			t.Errorf("Convert(%q, %s) error fields = %+v", tt.text, tt.kind, convErr)
		}
	}
}

func TestConvertLenientFailureIsNil(t *testing.T) {
	got, err := Convert("abc", Int, nil, false)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got != nil {
		t.Errorf("Convert() = %v, want nil", got)
	}
}

func TestConvertCustomParser(t *testing.T) {
	upper := func(s string) (any, error) {
		if s == "" {
			return nil, errors.New("name must not be empty")
		}
		return "<" + s + ">", nil
	}

	got, err := Convert("bob", String, upper, true)
	if err != nil || got != "<bob>" {
		t.Fatalf("Convert() = %v, %v; want <bob>", got, err)
	}

	// Parser errors surface untouched even for lenient conversions.
	_, err = Convert("", String, upper, false)
	if err == nil || err.Error() != "name must not be empty" {
		t.Errorf("Convert() error = %v, want parser message", err)
	}
}

func TestConvertAll(t *testing.T) {
	got, err := ConvertAll([]string{"1", "2", "3"}, Int, nil, true)
	if err != nil {
		t.Fatalf("ConvertAll() error = %v", err)
	}
	if want := []any{1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("ConvertAll() = %v, want %v", got, want)
	}

	if _, err := ConvertAll([]string{"1", "x"}, Int, nil, true); err == nil {
		t.Error("ConvertAll() strict with bad element: want error")
	}

	got, err = ConvertAll([]string{"1", "x", "3"}, Int, nil, false)
	if err != nil {
		t.Fatalf("ConvertAll() lenient error = %v", err)
	}
	if want := []any{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("ConvertAll() lenient = %v, want %v", got, want)
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"":         String,
		"string":   String,
		"INT32":    Int32,
		"double":   Float64,
		"uuid":     GUID,
		"timespan": Duration,
		"semver":   SemVer,
	}
	for name, want := range tests {
		got, ok := ParseKind(name)
		if !ok || got != want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", name, got, ok, want)
		}
	}
	if _, ok := ParseKind("matrix"); ok {
		t.Error("ParseKind(matrix) ok = true, want false")
	}
	if _, ok := ParseKind("invalid"); ok {
		t.Error("ParseKind(invalid) ok = true, want false")
	}
}
