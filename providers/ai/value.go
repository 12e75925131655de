package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindArray
	KindObject
)

// Value is a dynamic JSON value represented as a tagged union rather than an
// open interface{}. Tool-call arguments and free-form schema properties are
// carried as Values so that conversion to and from wire JSON is a total
// function, never a runtime downcast.
//
// The zero Value is null.
type Value struct {
	kind     Kind
	boolVal  bool
	intVal   int64
	floatVal float64
	strVal   string
	arrVal   []Value
	objVal   map[string]Value
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, boolVal: b} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindInt, intVal: i} }

// Double wraps a floating point number.
func Double(f float64) Value { return Value{kind: KindDouble, floatVal: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, strVal: s} }

// Array wraps a list of Values.
func Array(items ...Value) Value { return Value{kind: KindArray, arrVal: items} }

// Object wraps a map of Values.
func Object(fields map[string]Value) Value { return Value{kind: KindObject, objVal: fields} }

// Kind reports which variant the Value holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the Value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean variant, with ok=false for any other kind.
func (v Value) AsBool() (bool, bool) { return v.boolVal, v.kind == KindBool }

// AsInt returns the integer variant, with ok=false for any other kind.
func (v Value) AsInt() (int64, bool) { return v.intVal, v.kind == KindInt }

// AsDouble returns the numeric value as a float64. Integer values convert;
// ok=false for non-numeric kinds.
func (v Value) AsDouble() (float64, bool) {
	switch v.kind {
	case KindDouble:
		return v.floatVal, true
	case KindInt:
		return float64(v.intVal), true
	default:
		return 0, false
	}
}

// AsString returns the string variant, with ok=false for any other kind.
func (v Value) AsString() (string, bool) { return v.strVal, v.kind == KindString }

// AsArray returns the array variant, with ok=false for any other kind.
func (v Value) AsArray() ([]Value, bool) { return v.arrVal, v.kind == KindArray }

// AsObject returns the object variant, with ok=false for any other kind.
func (v Value) AsObject() (map[string]Value, bool) { return v.objVal, v.kind == KindObject }

// Field returns the named member of an object Value.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	member, ok := v.objVal[name]
	return member, ok
}

// Interface converts the Value back to plain Go data (nil, bool, int64,
// float64, string, []any, map[string]any). The conversion is total.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.boolVal
	case KindInt:
		return v.intVal
	case KindDouble:
		return v.floatVal
	case KindString:
		return v.strVal
	case KindArray:
		out := make([]any, len(v.arrVal))
		for i, item := range v.arrVal {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.objVal))
		for key, item := range v.objVal {
			out[key] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// ValueOf converts plain Go data into a Value. Supported inputs are the JSON
// data types plus the Go integer and float widths; anything else goes through
// a JSON marshal/parse round trip, so any json-serializable value converts.
func ValueOf(data any) (Value, error) {
	switch typed := data.(type) {
	case nil:
		return Null(), nil
	case Value:
		return typed, nil
	case bool:
		return Bool(typed), nil
	case int:
		return Int(int64(typed)), nil
	case int32:
		return Int(int64(typed)), nil
	case int64:
		return Int(typed), nil
	case float32:
		return Double(float64(typed)), nil
	case float64:
		if typed == math.Trunc(typed) && math.Abs(typed) < 1e15 {
			return Int(int64(typed)), nil
		}
		return Double(typed), nil
	case string:
		return String(typed), nil
	case json.Number:
		return numberValue(typed), nil
	case []any:
		items := make([]Value, len(typed))
		for i, item := range typed {
			converted, err := ValueOf(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = converted
		}
		return Array(items...), nil
	case map[string]any:
		fields := make(map[string]Value, len(typed))
		for key, item := range typed {
			converted, err := ValueOf(item)
			if err != nil {
				return Value{}, err
			}
			fields[key] = converted
		}
		return Object(fields), nil
	default:
		raw, err := json.Marshal(data)
		if err != nil {
			return Value{}, fmt.Errorf("value is not JSON-serializable: %w", err)
		}
		return ParseValue(raw)
	}
}

// ParseValue decodes raw JSON into a Value. Numbers without a fractional part
// that fit in an int64 become KindInt, everything else numeric KindDouble.
func ParseValue(raw []byte) (Value, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var data any
	if err := decoder.Decode(&data); err != nil {
		return Value{}, fmt.Errorf("invalid JSON value: %w", err)
	}
	return ValueOf(data)
}

func numberValue(number json.Number) Value {
	if i, err := number.Int64(); err == nil {
		return Int(i)
	}
	f, err := number.Float64()
	if err != nil {
		// json.Number always holds a valid JSON number literal.
		return Double(0)
	}
	return Double(f)
}

// MarshalJSON implements json.Marshaler. Object keys are emitted in sorted
// order so wire bodies are deterministic.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return []byte(strconv.FormatBool(v.boolVal)), nil
	case KindInt:
		return []byte(strconv.FormatInt(v.intVal, 10)), nil
	case KindDouble:
		return json.Marshal(v.floatVal)
	case KindString:
		return json.Marshal(v.strVal)
	case KindArray:
		items := v.arrVal
		if items == nil {
			items = []Value{}
		}
		return json.Marshal(items)
	case KindObject:
		keys := make([]string, 0, len(v.objVal))
		for key := range v.objVal {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodedKey, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			buf.Write(encodedKey)
			buf.WriteByte(':')
			encodedVal, err := v.objVal[key].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(encodedVal)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(raw []byte) error {
	parsed, err := ParseValue(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// String implements fmt.Stringer with the JSON rendering of the value.
func (v Value) String() string {
	raw, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<invalid value: %v>", err)
	}
	return string(raw)
}
