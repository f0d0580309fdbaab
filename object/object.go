package object

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Object is one row of a table: column name to scalar value. Key order is
// preserved so that statements built from an Object bind values in the order
// the caller supplied them.
type Object struct {
	TableName string
	Fields    map[string]any
	keys      []string
}

func New() *Object {
	return &Object{
		TableName: "",
		Fields:    make(map[string]any),
	}
}

// FromMap builds an Object from an unordered map. Keys are sorted so the
// resulting order is deterministic.
func FromMap(fields map[string]any) *Object {
	o := New()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		o.SetField(name, fields[name])
	}
	return o
}

func (o *Object) GetField(fieldName string) (any, bool) {
	value, exists := o.Fields[fieldName]
	return value, exists
}

func (o *Object) SetField(fieldName string, value any) {
	if o.Fields == nil {
		o.Fields = make(map[string]any)
	}
	if _, exists := o.Fields[fieldName]; !exists {
		o.keys = append(o.keys, fieldName)
	}
	o.Fields[fieldName] = value
}

// DeleteField removes a field and its position in the key order.
func (o *Object) DeleteField(fieldName string) {
	if _, exists := o.Fields[fieldName]; !exists {
		return
	}
	delete(o.Fields, fieldName)
	for i, k := range o.keys {
		if k == fieldName {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns field names in insertion order. Fields written directly into
// the Fields map without SetField follow, sorted by name.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, 0, len(o.Fields))
	seen := make(map[string]struct{}, len(o.Fields))
	for _, k := range o.keys {
		if _, ok := o.Fields[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	if len(out) == len(o.Fields) {
		return out
	}
	var rest []string
	for k := range o.Fields {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Fields)
}

// ID returns the value of the id column, if present.
func (o *Object) ID() (any, bool) {
	return o.GetField("id")
}

func (o *Object) GetTableName() string {
	return o.TableName
}

func (o *Object) SetTableName(tableName string) {
	o.TableName = tableName
}

func (o *Object) GetFields() map[string]any {
	return o.Fields
}

// SetFields replaces all fields. The new key order is sorted by name.
func (o *Object) SetFields(fields map[string]any) {
	o.Fields = fields
	o.keys = nil
}

// Clone returns a shallow copy that keeps the key order.
func (o *Object) Clone() *Object {
	c := New()
	c.TableName = o.TableName
	for _, k := range o.Keys() {
		c.SetField(k, o.Fields[k])
	}
	return c
}

func (o *Object) GetString(fieldName string) (string, bool) {
	value, exists := o.Fields[fieldName]
	if !exists {
		return "", false
	}
	switch v := value.(type) {
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}

func (o *Object) GetInt64(fieldName string) (int64, bool) {
	value, exists := o.Fields[fieldName]
	if !exists {
		return 0, false
	}
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case string:
		var intValue int64
		if _, err := fmt.Sscanf(v, "%d", &intValue); err != nil {
			return 0, false
		}
		return intValue, true
	case []byte:
		var intValue int64
		if _, err := fmt.Sscanf(string(v), "%d", &intValue); err != nil {
			return 0, false
		}
		return intValue, true
	case float64:
		return int64(v), true
	case float32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case json.Number:
		i, err := v.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

func (o *Object) GetFloat64(fieldName string) (float64, bool) {
	value, exists := o.Fields[fieldName]
	if !exists {
		return 0.0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0.0, false
	}
}

func (o *Object) GetBool(fieldName string) (bool, bool) {
	value, exists := o.Fields[fieldName]
	if !exists {
		return false, false
	}
	boolValue, ok := value.(bool)
	return boolValue, ok
}

// MarshalJSON encodes the fields as a JSON object in key order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		value, err := json.Marshal(o.Fields[k])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal field %s: %w", k, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ErrNotAnObject is returned when decoding JSON that is not an object.
var ErrNotAnObject = errors.New("record must be a JSON object")

// UnmarshalJSON decodes a flat JSON object, keeping the document's key order.
// Numbers decode as int64 when integral and float64 otherwise; nested arrays
// and objects are kept as their decoded Go values.
func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotAnObject
	}

	o.Fields = make(map[string]any)
	o.keys = nil
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode field %s: %w", key, err)
		}
		o.SetField(key, normalizeNumber(raw))
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func normalizeNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
