package metrics

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

type Kind uint8

const (
	// KindFinite is an ordinary number.
	KindFinite Kind = iota
	// KindUnbounded is the result of a ratio whose baseline denominator is zero.
	KindUnbounded
	// KindUndefined is the result of a computation whose inputs are not defined.
	KindUndefined
)

func (k Kind) String() string {
	switch k {
	case KindFinite:
		return "finite"
	case KindUnbounded:
		return "unbounded"
	case KindUndefined:
		return "undefined"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Value is a derived figure that may be a sentinel instead of a number.
// The zero Value is Finite(0).
type Value struct {
	kind Kind
	x    float64
}

func Finite(x float64) Value {
	return Value{kind: KindFinite, x: x}
}

func Unbounded() Value {
	return Value{kind: KindUnbounded}
}

func Undefined() Value {
	return Value{kind: KindUndefined}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsFinite() bool {
	return v.kind == KindFinite
}

// Float returns the number and whether the value is finite.
func (v Value) Float() (float64, bool) {
	return v.x, v.kind == KindFinite
}

// Require returns the number, or an *UndefinedMetricError naming the metric when the
// value is a sentinel.
func (v Value) Require(metric string) (float64, error) {
	if v.kind != KindFinite {
		return 0, &UndefinedMetricError{Metric: metric, Kind: v.kind}
	}
	return v.x, nil
}

// Ordinal maps the value onto the extended real line for ordering purposes:
// Unbounded is +Inf and Undefined is NaN.
func (v Value) Ordinal() float64 {
	switch v.kind {
	case KindUnbounded:
		return math.Inf(1)
	case KindUndefined:
		return math.NaN()
	default:
		return v.x
	}
}

func (v Value) String() string {
	if v.kind == KindFinite {
		return fmt.Sprintf("%.2f", v.x)
	}
	return v.kind.String()
}

// MarshalYAML writes finite values as numbers and sentinels as their kind name.
func (v Value) MarshalYAML() (any, error) {
	if v.kind == KindFinite {
		return v.x, nil
	}
	return v.kind.String(), nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Value {
	case KindUnbounded.String():
		*v = Unbounded()
		return nil
	case KindUndefined.String():
		*v = Undefined()
		return nil
	}

	var x float64
	if err := node.Decode(&x); err != nil {
		return fmt.Errorf("metric value: %w", err)
	}
	*v = Finite(x)
	return nil
}
