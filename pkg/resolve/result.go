// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

// Result is the outcome of resolving an argument vector. It is exactly one of
// *Success, *Help, *Version or *Error.
type Result interface {
	isResult()
}

// Success carries the assembled command value.
type Success struct {
	// Value is what the command's Construct returned, or Values itself when
	// the command has no Construct.
	Value  any
	Values *Values
}

// Help carries rendered help text. It is not an error.
type Help struct {
	Message string
}

// Version carries the version of the command that was asked for it.
type Version struct {
	Version string
}

// Error reports invalid user input. Help is the rendered help text for the
// command the error occurred in.
type Error struct {
	Message string
	Help    string
	Err     error
}

func (*Success) isResult() {}
func (*Help) isResult()    {}
func (*Version) isResult() {}
func (*Error) isResult()   {}

// NewSuccess returns a Success for value.
func NewSuccess(value any, values *Values) *Success {
	return &Success{Value: value, Values: values}
}

// NewHelp returns a Help carrying message.
func NewHelp(message string) *Help {
	return &Help{Message: message}
}

// NewVersion returns a Version carrying version.
func NewVersion(version string) *Version {
	return &Version{Version: version}
}

// NewError returns an Error for err with the given help text attached.
func NewError(err error, help string) *Error {
	return &Error{Message: err.Error(), Help: help, Err: err}
}

// Error implements the error interface so an *Error can be returned directly.
func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
