package ast

import (
	"fmt"
	"strings"
)

// escapeString prepares raw text for a double quoted Lua literal. Control
// bytes use the three digit decimal form so a following digit is never
// read as part of the escape.
func escapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' || c == '"':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 0x20 || c == 0x7f:
			fmt.Fprintf(&b, "\\%03d", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Serialize turns a node into a table literal describing it, which is how
// macros receive the statement they decorate. The layout matches the JSON
// encoding: a "type" entry naming the node, then one entry per member.
//
//	Let x = 1  =>  {type = "Let", target = {name = "x"}, value = {type = "Number", int = 1, ...}}
func Serialize(v any) (*Table, error) {
	enc, err := Encode(v)
	if err != nil {
		return nil, err
	}
	obj, ok := enc.(Object)
	if !ok {
		return &Table{Entries: []TableEntry{{Name: "value", Value: dataExpression(enc)}}}, nil
	}
	return objectTable(obj), nil
}

func objectTable(obj Object) *Table {
	t := &Table{Entries: make([]TableEntry, 0, len(obj))}
	for _, m := range obj {
		t.Entries = append(t.Entries, TableEntry{Name: m.Key, Value: dataExpression(m.Value)})
	}
	return t
}

func dataExpression(v any) Expression {
	switch d := v.(type) {
	case Object:
		return objectTable(d)
	case []any:
		elems := make([]Expression, len(d))
		for i, e := range d {
			elems[i] = dataExpression(e)
		}
		return &Vector{Elements: elems}
	case string:
		return &String{Value: escapeString(d)}
	case bool:
		if d {
			return Ident("true")
		}
		return Ident("false")
	case int64:
		return Int(d)
	case float64:
		return Float(d)
	}
	return &Unit{}
}
