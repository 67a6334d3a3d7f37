package ast

// Helpers for synthesizing nodes from Go code: the macro expander, the
// compiler prelude and tests build ASTs with these instead of parsing.

// Ref builds a reference chain of plain fields, a.b.c for Ref("a", "b", "c").
func Ref(names ...string) *Reference {
	segments := make([]Segment, len(names))
	for i, n := range names {
		segments[i] = &Field{Name: n}
	}
	return &Reference{Segments: segments}
}

// Ident builds an identifier expression.
func Ident(name string) *Identifier { return &Identifier{Name: name} }

// Int builds an integer literal.
func Int(v int64) *Number { return &Number{Int: v} }

// Float builds a floating point literal.
func Float(v float64) *Number { return &Number{Value: v, Float: true} }

// Str builds a string literal.
func Str(s string) *String { return &String{Value: s} }

// Bin builds a binary expression.
func Bin(left Expression, op string, right Expression) *Binary {
	return &Binary{Left: left, Operator: op, Right: right}
}

// CallNamed builds name(args...).
func CallNamed(name string, args ...Expression) *Call {
	return &Call{Callee: Ref(name), Arguments: args}
}

// Args builds a formal parameter list without decorators.
func Args(names ...string) []Argument {
	args := make([]Argument, len(names))
	for i, n := range names {
		args[i] = Argument{Name: n}
	}
	return args
}
