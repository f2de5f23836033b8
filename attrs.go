package petriflow

import (
	"fmt"
	"time"
)

// AttrType tags the kind of value held by an attribute.
type AttrType string

var (
	Str       = AttrType("string")
	Int       = AttrType("integer")
	Float     = AttrType("float")
	Bool      = AttrType("boolean")
	TimeStamp = AttrType("time")
)

// Attr is a tagged attribute value. Tokens carry an open bag of attributes
// that external callers mutate between firings and guards and rules read.
type Attr struct {
	kind  AttrType
	value interface{}
}

func StringAttr(v string) Attr { return Attr{kind: Str, value: v} }

func IntAttr(v int64) Attr { return Attr{kind: Int, value: v} }

func FloatAttr(v float64) Attr { return Attr{kind: Float, value: v} }

func BoolAttr(v bool) Attr { return Attr{kind: Bool, value: v} }

func TimeAttr(v time.Time) Attr { return Attr{kind: TimeStamp, value: v} }

func (a Attr) Type() AttrType { return a.kind }

// Value returns the attribute as a plain value: string, int64, float64,
// bool, or time.Time.
func (a Attr) Value() interface{} { return a.value }

// Empty reports whether the attribute carries no usable value. Required
// field checks treat empty strings and zero times as absent.
func (a Attr) Empty() bool {
	switch a.kind {
	case Str:
		return a.value == ""
	case TimeStamp:
		return a.value.(time.Time).IsZero()
	case "":
		return true
	}
	return a.value == nil
}

func (a Attr) String() string {
	return fmt.Sprintf("%v", a.value)
}
