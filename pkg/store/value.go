package store

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Kind is the tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

// Value is a scalar property value. Graph properties vary by entity type, so
// they are kept as tagged scalars rather than fixed struct fields.
type Value struct {
	kind Kind
	s    string
	n    float64
	b    bool
}

func Null() Value            { return Value{} }
func String(s string) Value  { return Value{kind: KindString, s: s} }
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// ValueOf converts a raw driver value. Lists are joined with "、", anything
// else that is not a scalar is rendered with fmt.
func ValueOf(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case int:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case float32:
		return Number(float64(x))
	case float64:
		return Number(x)
	case []string:
		return String(strings.Join(x, "、"))
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if v := ValueOf(item); !v.IsNull() {
				parts = append(parts, v.String())
			}
		}
		return String(strings.Join(parts, "、"))
	default:
		return String(fmt.Sprint(x))
	}
}

// String renders the value the way it appears in evidence lines.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindNumber:
		return json.Marshal(v.n)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = ValueOf(raw)
	return nil
}

// Properties is the property mapping of a node or relationship.
type Properties map[string]Value

// PropertiesFrom converts a raw property map, leaving out the given keys.
func PropertiesFrom(raw map[string]any, exclude ...string) Properties {
	out := make(Properties, len(raw))
	for k, v := range raw {
		if slices.Contains(exclude, k) {
			continue
		}
		out[k] = ValueOf(v)
	}
	return out
}

// Get returns the value for key, or Null when the key is absent.
func (p Properties) Get(key string) Value {
	if p == nil {
		return Null()
	}
	return p[key]
}

// Clone returns an independent copy.
func (p Properties) Clone() Properties {
	if p == nil {
		return Properties{}
	}
	return maps.Clone(p)
}
