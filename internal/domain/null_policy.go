package domain

import (
	"fmt"
	"strings"
)

// NullPolicy decides what the column adapters do with null inputs.
type NullPolicy int

const (
	// NullReject fails the whole call with a NullValueError on the first null.
	NullReject NullPolicy = iota
	// NullPropagate turns any row with a null input into a null output row.
	NullPropagate
)

func (p NullPolicy) String() string {
	switch p {
	case NullReject:
		return "reject"
	case NullPropagate:
		return "propagate"
	default:
		return fmt.Sprintf("NullPolicy(%d)", int(p))
	}
}

// Parse a null policy name; the empty string selects NullReject.
func ParseNullPolicy(s string) (NullPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return NullReject, nil
	case "propagate":
		return NullPropagate, nil
	default:
		return NullReject, fmt.Errorf("parse null policy: unknown policy %q", s)
	}
}
