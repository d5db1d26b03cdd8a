// Copyright (C) 2024 The Lucky Imaging Stack Core Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package lucore

import "fmt"

// ArgumentError signals a violated precondition on a public entry point,
// such as find_best_frames being asked for more frames than its window holds.
type ArgumentError struct {
	msg string
}

func NewArgumentError(format string, args ...interface{}) *ArgumentError {
	return &ArgumentError{msg: fmt.Sprintf(format, args...)}
}

func (e *ArgumentError) Error() string { return e.msg }

// NotSupportedError signals an unknown kernel or algorithm selection.
type NotSupportedError struct {
	msg string
}

func NewNotSupportedError(format string, args ...interface{}) *NotSupportedError {
	return &NotSupportedError{msg: fmt.Sprintf(format, args...)}
}

func (e *NotSupportedError) Error() string { return e.msg }

// InternalError signals an invariant violated mid-run, e.g. a shape mismatch
// between an alignment point's stacking buffer and its declared patch size.
type InternalError struct {
	msg string
}

func NewInternalError(format string, args ...interface{}) *InternalError {
	return &InternalError{msg: fmt.Sprintf(format, args...)}
}

func (e *InternalError) Error() string { return e.msg }
