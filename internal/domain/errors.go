package domain

import (
	"errors"
	"fmt"
)

var (
	ErrLengthMismatch  = errors.New("input column lengths differ")
	ErrInputConversion = errors.New("input cannot be read as float64")
	ErrNullValue       = errors.New("input contains null value")
	ErrMissingColumn   = errors.New("input column not found")
	ErrNoData          = errors.New("no valid rows")
)

// LengthMismatchError reports a column whose length differs from the first column.
type LengthMismatchError struct {
	Column string
	Want   int
	Got    int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("%s: column %q has length %d, want %d", ErrLengthMismatch, e.Column, e.Got, e.Want)
}

func (e *LengthMismatchError) Is(target error) bool { return target == ErrLengthMismatch }

// ConversionError reports a column of a type that cannot be interpreted as float64.
type ConversionError struct {
	Column string
	Type   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: column %q has type %s", ErrInputConversion, e.Column, e.Type)
}

func (e *ConversionError) Is(target error) bool { return target == ErrInputConversion }

// NullValueError reports the first null found while the null policy is NullReject.
type NullValueError struct {
	Column string
	Index  int
}

func (e *NullValueError) Error() string {
	return fmt.Sprintf("%s: column %q at index %d", ErrNullValue, e.Column, e.Index)
}

func (e *NullValueError) Is(target error) bool { return target == ErrNullValue }

// MissingColumnError reports a named input column absent from a record batch.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMissingColumn, e.Column)
}

func (e *MissingColumnError) Is(target error) bool { return target == ErrMissingColumn }
