package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// The external parser hands programs over as JSON. Every node is an object
// whose "type" member names the Go node type; struct members use the json
// tags declared on the node types. Values that are not nodes (TableEntry,
// Argument, ...) carry no "type" member.
//
//	{"type": "Let", "target": {"name": "x"}, "value": {"type": "Number", "int": 1}}

// TypeKey is the member naming a node's type in encoded form.
const TypeKey = "type"

var nodeTypes = map[string]reflect.Type{}

func init() {
	for _, n := range []any{
		&Identifier{}, &Number{}, &String{}, &Unit{}, &Lambda{}, &Field{},
		&Index{}, &Reference{}, &Invoke{}, &Call{}, &Tuple{}, &Wrapped{},
		&Table{}, &Vector{}, &Binary{}, &Unary{}, &Do{}, &UseExpression{},
		&Function{}, &Let{}, &Assignment{}, &Class{}, &Return{}, &If{},
		&For{}, &While{}, &Loop{}, &Match{}, &ExpressionStatement{},
		&Use{}, &MacroDefinition{}, &MacroDecorator{},
	} {
		t := reflect.TypeOf(n)
		nodeTypes[t.Elem().Name()] = t
	}
}

// member is one key/value pair of an encoded object.
type member struct {
	Key   string
	Value any
}

// Object is an encoded struct. Members keep declaration order so that
// encodings, and the Lua tables built from them, are deterministic.
type Object []member

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(m.Key))
		buf.WriteByte(':')
		v, err := json.Marshal(m.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode converts a node, or any value reachable from one, into plain data:
// Object for structs, []any for slices, and string, bool, int64, float64
// or nil for leaves.
func Encode(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return encodeValue(reflect.ValueOf(v))
}

func encodeValue(v reflect.Value) (any, error) {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return nil, nil
		}
		if v.Kind() == reflect.Pointer && v.Elem().Kind() == reflect.Struct {
			return encodeStruct(v.Elem(), v.Type())
		}
		return encodeValue(v.Elem())
	case reflect.Struct:
		return encodeStruct(v, nil)
	case reflect.Slice:
		if v.IsNil() {
			return nil, nil
		}
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			e, err := encodeValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int64:
		return v.Int(), nil
	case reflect.Float64:
		return v.Float(), nil
	}
	return nil, fmt.Errorf("ast: cannot encode %s", v.Type())
}

func encodeStruct(v reflect.Value, ptr reflect.Type) (Object, error) {
	obj := Object{}
	if ptr != nil {
		if _, ok := nodeTypes[v.Type().Name()]; ok {
			obj = append(obj, member{TypeKey, v.Type().Name()})
		}
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := fieldName(t.Field(i))
		if name == "" {
			continue
		}
		e, err := encodeValue(v.Field(i))
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name(), t.Field(i).Name, err)
		}
		if e == nil {
			continue
		}
		obj = append(obj, member{name, e})
	}
	return obj, nil
}

func fieldName(f reflect.StructField) string {
	if !f.IsExported() {
		return ""
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return f.Name
}

// MarshalProgram encodes p as JSON.
func MarshalProgram(p *Program) ([]byte, error) {
	enc, err := Encode(p)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(enc, "", "  ")
}

// UnmarshalProgram decodes a JSON encoded program.
func UnmarshalProgram(data []byte) (*Program, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("ast: %w", err)
	}
	p := &Program{}
	if err := decodeInto(reflect.ValueOf(p).Elem(), raw, "program"); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeInto(dst reflect.Value, raw any, path string) error {
	if raw == nil {
		return nil
	}
	switch dst.Kind() {
	case reflect.Interface:
		obj, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("ast: %s: expected node object, got %T", path, raw)
		}
		name, _ := obj[TypeKey].(string)
		t, ok := nodeTypes[name]
		if !ok {
			return fmt.Errorf("ast: %s: unknown node type %q", path, name)
		}
		if !t.Implements(dst.Type()) {
			return fmt.Errorf("ast: %s: %s is not a %s", path, name, dst.Type().Name())
		}
		node := reflect.New(t.Elem())
		if err := decodeInto(node.Elem(), raw, path+"."+name); err != nil {
			return err
		}
		dst.Set(node)
		return nil
	case reflect.Pointer:
		node := reflect.New(dst.Type().Elem())
		if err := decodeInto(node.Elem(), raw, path); err != nil {
			return err
		}
		dst.Set(node)
		return nil
	case reflect.Struct:
		obj, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("ast: %s: expected object, got %T", path, raw)
		}
		t := dst.Type()
		for i := 0; i < t.NumField(); i++ {
			name := fieldName(t.Field(i))
			if name == "" {
				continue
			}
			if err := decodeInto(dst.Field(i), obj[name], path+"."+name); err != nil {
				return err
			}
		}
		return nil
	case reflect.Slice:
		items, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("ast: %s: expected array, got %T", path, raw)
		}
		s := reflect.MakeSlice(dst.Type(), len(items), len(items))
		for i, item := range items {
			if err := decodeInto(s.Index(i), item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		dst.Set(s)
		return nil
	case reflect.String:
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("ast: %s: expected string, got %T", path, raw)
		}
		dst.SetString(s)
		return nil
	case reflect.Bool:
		b, ok := raw.(bool)
		if !ok {
			return fmt.Errorf("ast: %s: expected bool, got %T", path, raw)
		}
		dst.SetBool(b)
		return nil
	case reflect.Int, reflect.Int64:
		n, ok := raw.(json.Number)
		if !ok {
			return fmt.Errorf("ast: %s: expected number, got %T", path, raw)
		}
		i, err := n.Int64()
		if err != nil {
			return fmt.Errorf("ast: %s: %w", path, err)
		}
		dst.SetInt(i)
		return nil
	case reflect.Float64:
		n, ok := raw.(json.Number)
		if !ok {
			return fmt.Errorf("ast: %s: expected number, got %T", path, raw)
		}
		f, err := n.Float64()
		if err != nil {
			return fmt.Errorf("ast: %s: %w", path, err)
		}
		dst.SetFloat(f)
		return nil
	}
	return fmt.Errorf("ast: %s: cannot decode into %s", path, dst.Type())
}
