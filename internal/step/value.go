package step

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a [Value] holds.
type Kind int

const (
	// KindNone is the absent value. It is what a capability returns when it
	// has nothing to say, and it is falsy.
	KindNone Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
	KindTable
)

// String returns the lower-case name of the kind, as used in error messages.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "boolean"
	case KindList:
		return "list"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Value is a small tagged union carrying step arguments and capability results.
//
// Configuration files only ever produce strings, numbers, booleans, lists and
// tables, so those are the only variants. The zero Value is [None].
type Value struct {
	kind  Kind
	str   string
	num   int64
	float float64
	flag  bool
	list  []Value
	table map[string]Value
}

// None returns the absent value.
func None() Value { return Value{} }

// String wraps s.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int wraps n.
func Int(n int64) Value { return Value{kind: KindInt, num: n} }

// Float wraps f.
func Float(f float64) Value { return Value{kind: KindFloat, float: f} }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// List wraps items. The slice is copied.
func List(items ...Value) Value {
	return Value{kind: KindList, list: append([]Value(nil), items...)}
}

// Table wraps entries. The map is copied.
func Table(entries map[string]Value) Value {
	t := make(map[string]Value, len(entries))
	for k, v := range entries {
		t[k] = v
	}
	return Value{kind: KindTable, table: t}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNone reports whether v is the absent value.
func (v Value) IsNone() bool { return v.kind == KindNone }

// AsString returns the string held by v and whether v is a string.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsInt returns the integer held by v and whether v is an integer.
func (v Value) AsInt() (int64, bool) { return v.num, v.kind == KindInt }

// AsFloat returns the float held by v and whether v is a float.
func (v Value) AsFloat() (float64, bool) { return v.float, v.kind == KindFloat }

// AsBool returns the boolean held by v and whether v is a boolean.
func (v Value) AsBool() (bool, bool) { return v.flag, v.kind == KindBool }

// AsList returns a copy of the items held by v and whether v is a list.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return append([]Value(nil), v.list...), true
}

// AsTable returns a copy of the entries held by v and whether v is a table.
func (v Value) AsTable() (map[string]Value, bool) {
	if v.kind != KindTable {
		return nil, false
	}
	t := make(map[string]Value, len(v.table))
	for k, e := range v.table {
		t[k] = e
	}
	return t, true
}

// IsTruthy is the guard contract: none, false, zero, the empty string and
// empty lists or tables are falsy. Everything else is truthy.
func IsTruthy(v Value) bool {
	switch v.kind {
	case KindBool:
		return v.flag
	case KindInt:
		return v.num != 0
	case KindFloat:
		return v.float != 0
	case KindString:
		return v.str != ""
	case KindList:
		return len(v.list) > 0
	case KindTable:
		return len(v.table) > 0
	default:
		return false
	}
}

// String renders v as text. None renders as the empty string, which is what
// the "none" version source relies on.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.float, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindTable:
		keys := make([]string, 0, len(v.table))
		for k := range v.table {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + v.table[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

// Equal reports whether v and other hold the same variant and contents.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindTable:
		if len(v.table) != len(other.table) {
			return false
		}
		for k, e := range v.table {
			o, ok := other.table[k]
			if !ok || !e.Equal(o) {
				return false
			}
		}
		return true
	default:
		return v.str == other.str && v.num == other.num && v.float == other.float && v.flag == other.flag
	}
}

// FromAny converts a decoded TOML or YAML value into a [Value].
//
// Datetimes (TOML local dates and times included, via fmt.Stringer) are
// rendered as strings. Any other Go type is rejected.
func FromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return None(), nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Int(int64(x)), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return Int(int64(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case time.Time:
		return String(x.Format(time.RFC3339)), nil
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			v, err := FromAny(item)
			if err != nil {
				return None(), fmt.Errorf("item %d: %w", i, err)
			}
			items[i] = v
		}
		return Value{kind: KindList, list: items}, nil
	case map[string]any:
		entries := make(map[string]Value, len(x))
		for k, item := range x {
			v, err := FromAny(item)
			if err != nil {
				return None(), fmt.Errorf("%s: %w", k, err)
			}
			entries[k] = v
		}
		return Value{kind: KindTable, table: entries}, nil
	case fmt.Stringer:
		return String(x.String()), nil
	default:
		return None(), fmt.Errorf("unsupported value of type %T", raw)
	}
}
