package ast

import (
	"fmt"
	"strings"
)

//  Expression nodes

// Expression is implemented by every node that produces a value.
type Expression interface {
	expressionNode()
	String() string
}

// Identifier is a bare name.
//
//	print(x);
//	      ^  Identifier{Name: "x"}
type Identifier struct {
	Name string `json:"name"`
}

func (*Identifier) expressionNode()  {}
func (i *Identifier) String() string { return i.Name }

// Number is a numeric literal. Float distinguishes 2.0 from 2.
type Number struct {
	Int   int64   `json:"int"`
	Value float64 `json:"value"`
	Float bool    `json:"float"`
}

func (*Number) expressionNode() {}
func (n *Number) String() string {
	if n.Float {
		return fmt.Sprintf("%g", n.Value)
	}
	return fmt.Sprintf("%d", n.Int)
}

// String is a double quoted string literal. Value holds the text between
// the quotes.
type String struct {
	Value string `json:"value"`
}

func (*String) expressionNode()  {}
func (s *String) String() string { return fmt.Sprintf("%q", s.Value) }

// Unit is the empty value ().
type Unit struct{}

func (*Unit) expressionNode()  {}
func (*Unit) String() string { return "()" }

// Lambda is an anonymous function. When Result is set the body is a single
// expression, otherwise Body holds the statements.
//
//	(x) => x * 2
//	       ^^^^^  Result
type Lambda struct {
	Arguments []Argument  `json:"arguments"`
	Body      []Statement `json:"body"`
	Result    Expression  `json:"result"`
}

func (*Lambda) expressionNode() {}
func (l *Lambda) String() string {
	if l.Result != nil {
		return fmt.Sprintf("Lambda(%s => %s)", argumentNames(l.Arguments), l.Result)
	}
	return fmt.Sprintf("Lambda(%s, body=%d)", argumentNames(l.Arguments), len(l.Body))
}

// Segment is one step of a reference chain.
type Segment interface {
	segmentNode()
	String() string
}

// Field is a named access. Static marks the `::name` spelling, which turns
// a method call into a plain function call on the namespace.
//
//	a.b      Field{Name: "b"}
//	a::b()   Field{Name: "b", Static: true}
type Field struct {
	Name   string `json:"name"`
	Static bool   `json:"static"`
}

func (*Field) segmentNode()     {}
func (*Field) callSegmentNode() {}
func (f *Field) String() string {
	if f.Static {
		return "::" + f.Name
	}
	return "." + f.Name
}

// Index is a computed access a[key].
type Index struct {
	Key Expression `json:"key"`
}

func (*Index) segmentNode()     {}
func (*Index) callSegmentNode() {}
func (i *Index) String() string { return fmt.Sprintf("[%s]", i.Key) }

// Reference is a chain of accesses read left to right. The first segment
// names the root and must be a plain Field.
//
//	a.b[c]
//	^ ^ ^
//	| | Index{c}
//	| Field{b}
//	Field{a}
type Reference struct {
	Segments []Segment `json:"segments"`
}

func (*Reference) expressionNode() {}
func (r *Reference) String() string {
	var sb strings.Builder
	for i, s := range r.Segments {
		if f, ok := s.(*Field); ok && i == 0 {
			sb.WriteString(f.Name)
			continue
		}
		sb.WriteString(s.String())
	}
	return sb.String()
}

// CallSegment is a step that follows the first call of a call chain:
// another invocation or a member access on the previous result.
type CallSegment interface {
	callSegmentNode()
	String() string
}

// Invoke applies the value produced so far to Arguments.
type Invoke struct {
	Arguments []Expression `json:"arguments"`
}

func (*Invoke) callSegmentNode() {}
func (i *Invoke) String() string { return fmt.Sprintf("(%s)", joinExpressions(i.Arguments)) }

// Call is a function or method call.
//
//	a.b(1)(2).c
//	^^^ ^   ^ ^
//	|   |   | Tail[1] Field{c}
//	|   |   Tail[0] Invoke{2}
//	|   Arguments
//	Callee
type Call struct {
	Callee    *Reference    `json:"callee"`
	Arguments []Expression  `json:"arguments"`
	Tail      []CallSegment `json:"tail"`
}

func (*Call) expressionNode() {}
func (c *Call) String() string {
	var sb strings.Builder
	if c.Callee != nil {
		sb.WriteString(c.Callee.String())
	}
	fmt.Fprintf(&sb, "(%s)", joinExpressions(c.Arguments))
	for _, t := range c.Tail {
		sb.WriteString(t.String())
	}
	return sb.String()
}

// Tuple is an ordered anonymous product (a, b).
type Tuple struct {
	Elements []Expression `json:"elements"`
}

func (*Tuple) expressionNode()  {}
func (t *Tuple) String() string { return fmt.Sprintf("Tuple(%s)", joinExpressions(t.Elements)) }

// Wrapped is a parenthesised expression.
type Wrapped struct {
	Expr Expression `json:"expr"`
}

func (*Wrapped) expressionNode()  {}
func (w *Wrapped) String() string { return fmt.Sprintf("(%s)", w.Expr) }

// TableEntry is one key/value pair of a table literal.
//
//	{ a: 1, [k]: 2, b }
//	  ^^^^  ^^^^^^  ^
//	  |     |       Name "b", Value nil (implicit, b = b)
//	  |     Key k
//	  Name "a"
type TableEntry struct {
	Name  string     `json:"name"`
	Key   Expression `json:"key"`
	Value Expression `json:"value"`
}

// Implicit reports whether the entry is the shorthand { name }.
func (e TableEntry) Implicit() bool { return e.Key == nil && e.Value == nil }

// Table is a table literal.
type Table struct {
	Entries []TableEntry `json:"entries"`
}

func (*Table) expressionNode()  {}
func (t *Table) String() string { return fmt.Sprintf("Table(len=%d)", len(t.Entries)) }

// Vector is an array literal [a, b].
type Vector struct {
	Elements []Expression `json:"elements"`
}

func (*Vector) expressionNode()  {}
func (v *Vector) String() string { return fmt.Sprintf("[%s]", joinExpressions(v.Elements)) }

// Binary applies Operator to Left and Right. Operator keeps the source
// spelling; user defined operators are allowed.
type Binary struct {
	Left     Expression `json:"left"`
	Operator string     `json:"operator"`
	Right    Expression `json:"right"`
}

func (*Binary) expressionNode() {}
func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Operator, b.Right)
}

// Unary applies a prefix Operator.
type Unary struct {
	Operator string     `json:"operator"`
	Expr     Expression `json:"expr"`
}

func (*Unary) expressionNode()  {}
func (u *Unary) String() string { return fmt.Sprintf("(%s %s)", u.Operator, u.Expr) }

// Do is a block used as an expression; its value is whatever it returns.
type Do struct {
	Body []Statement `json:"body"`
}

func (*Do) expressionNode()  {}
func (d *Do) String() string { return fmt.Sprintf("Do(body=%d)", len(d.Body)) }

// UseExpression reads a module table without binding it.
type UseExpression struct {
	Module string `json:"module"`
}

func (*UseExpression) expressionNode()  {}
func (u *UseExpression) String() string { return "use " + u.Module }

//  Statement nodes

// Statement is implemented by every node that does not produce a value.
type Statement interface {
	statementNode()
	String() string
}

// Program is a parsed source file. Statement order is significant.
type Program struct {
	Statements []Statement `json:"statements"`
}

func (p *Program) String() string { return fmt.Sprintf("Program(len=%d)", len(p.Statements)) }

// Decorator is a runtime annotation. Target evaluates to the decorator
// function, which is called with the decorated value after its declaration.
type Decorator struct {
	Target Expression `json:"target"`
}

// Argument is a declared formal parameter.
type Argument struct {
	Name       string      `json:"name"`
	Decorators []Decorator `json:"decorators"`
}

// NativeSource is foreign code supplied for a native function, keyed by
// target language name.
type NativeSource struct {
	Language string `json:"language"`
	Source   string `json:"source"`
}

// Function is a named function declaration. A function with Native entries
// has no Saturnus body.
type Function struct {
	Name       string         `json:"name"`
	Arguments  []Argument     `json:"arguments"`
	Decorators []Decorator    `json:"decorators"`
	Body       []Statement    `json:"body"`
	Native     []NativeSource `json:"native"`
}

func (*Function) statementNode()  {}
func (*Function) classFieldNode() {}
func (f *Function) String() string {
	return fmt.Sprintf("Function(%s%s, body=%d)", f.Name, argumentNames(f.Arguments), len(f.Body))
}

// DestructureOrigin is the shape a destructuring pattern reads from.
type DestructureOrigin string

const (
	DestructureTuple DestructureOrigin = "tuple"
	DestructureArray DestructureOrigin = "array"
	DestructureTable DestructureOrigin = "table"
)

// Destructuring binds several names out of one composite value.
//
//	let (a, b) = pair;    Origin tuple
//	let [a, b] = list;    Origin array
//	let { a, b } = obj;   Origin table
type Destructuring struct {
	Names  []string          `json:"names"`
	Origin DestructureOrigin `json:"origin"`
}

// Target is the left side of a binding: a single Name or a Destructuring.
type Target struct {
	Name        string         `json:"name"`
	Destructure *Destructuring `json:"destructure"`
}

func (t Target) String() string {
	if t.Destructure != nil {
		return fmt.Sprintf("%s%v", t.Destructure.Origin, t.Destructure.Names)
	}
	return t.Name
}

// Let declares a local binding. Value may be nil.
type Let struct {
	Target Target     `json:"target"`
	Value  Expression `json:"value"`
}

func (*Let) statementNode()  {}
func (*Let) classFieldNode() {}
func (l *Let) String() string {
	return fmt.Sprintf("Let(%s = %s)", l.Target, l.Value)
}

// Assignment stores Value into Target. Operator is set for compound
// assignments such as a += 1.
type Assignment struct {
	Target   *Reference `json:"target"`
	Operator string     `json:"operator"`
	Value    Expression `json:"value"`
}

func (*Assignment) statementNode() {}
func (a *Assignment) String() string {
	return fmt.Sprintf("Assignment(%s %s= %s)", a.Target, a.Operator, a.Value)
}

// ClassField is a member declared inside a class body: a *Function
// (method) or a *Let (field with default value).
type ClassField interface {
	classFieldNode()
	String() string
}

// Class declares a class namespace with a constructor, a prototype for
// instance methods and field defaults.
type Class struct {
	Name       string       `json:"name"`
	Decorators []Decorator  `json:"decorators"`
	Fields     []ClassField `json:"fields"`
}

func (*Class) statementNode() {}
func (c *Class) String() string {
	return fmt.Sprintf("Class(%s, fields=%d)", c.Name, len(c.Fields))
}

// Return leaves the enclosing function with Value.
type Return struct {
	Value Expression `json:"value"`
}

func (*Return) statementNode()  {}
func (r *Return) String() string { return fmt.Sprintf("Return(%s)", r.Value) }

// ElseIf is one `else if` branch.
type ElseIf struct {
	Condition Expression  `json:"condition"`
	Body      []Statement `json:"body"`
}

// If is a conditional with optional else-if branches and else body.
type If struct {
	Condition Expression  `json:"condition"`
	Body      []Statement `json:"body"`
	Branches  []ElseIf    `json:"branches"`
	Else      []Statement `json:"else_body"`
}

func (*If) statementNode() {}
func (i *If) String() string {
	return fmt.Sprintf("If(%s, branches=%d, else=%t)", i.Condition, len(i.Branches), len(i.Else) > 0)
}

// For iterates Iterable, binding each produced value to Handler.
type For struct {
	Handler  Target      `json:"handler"`
	Iterable Expression  `json:"iterable"`
	Body     []Statement `json:"body"`
}

func (*For) statementNode() {}
func (f *For) String() string {
	return fmt.Sprintf("For(%s in %s, body=%d)", f.Handler, f.Iterable, len(f.Body))
}

// While loops while Condition holds. When Let is set the loop is a
// while-let: the binding is evaluated before every iteration and the loop
// runs while it is truthy.
type While struct {
	Condition Expression  `json:"condition"`
	Let       *Let        `json:"let"`
	Body      []Statement `json:"body"`
}

func (*While) statementNode() {}
func (w *While) String() string {
	if w.Let != nil {
		return fmt.Sprintf("While(%s, body=%d)", w.Let, len(w.Body))
	}
	return fmt.Sprintf("While(%s, body=%d)", w.Condition, len(w.Body))
}

// Loop repeats Body forever.
type Loop struct {
	Body []Statement `json:"body"`
}

func (*Loop) statementNode()  {}
func (l *Loop) String() string { return fmt.Sprintf("Loop(body=%d)", len(l.Body)) }

// MatchArm is one pattern of a match statement.
type MatchArm struct {
	Pattern Expression  `json:"pattern"`
	Body    []Statement `json:"body"`
	Result  Expression  `json:"result"`
}

// Match is pattern matching over Target.
type Match struct {
	Target Expression `json:"target"`
	Arms   []MatchArm `json:"arms"`
}

func (*Match) statementNode() {}
func (m *Match) String() string {
	return fmt.Sprintf("Match(%s, arms=%d)", m.Target, len(m.Arms))
}

// ExpressionStatement evaluates Expr for its side effects.
type ExpressionStatement struct {
	Expr Expression `json:"expr"`
}

func (*ExpressionStatement) statementNode()  {}
func (e *ExpressionStatement) String() string { return fmt.Sprintf("ExpressionStatement(%s)", e.Expr) }

// Use binds a module to a local of the same name.
type Use struct {
	Module string `json:"module"`
}

func (*Use) statementNode()  {}
func (u *Use) String() string { return fmt.Sprintf("Use(%s)", u.Module) }

// MacroDefinition declares a compile time macro. The macro is keyed by
// the function's name.
type MacroDefinition struct {
	Function *Function `json:"definition"`
}

func (*MacroDefinition) statementNode() {}
func (m *MacroDefinition) String() string {
	if m.Function == nil {
		return "MacroDefinition(<nil>)"
	}
	return fmt.Sprintf("MacroDefinition(%s)", m.Function.Name)
}

// MacroInvocation names one macro applied to a statement.
type MacroInvocation struct {
	Name      string       `json:"name"`
	Arguments []Expression `json:"arguments"`
}

// MacroDecorator attaches macro invocations to Target. Invocations are
// resolved in list order.
type MacroDecorator struct {
	Macros []MacroInvocation `json:"macros"`
	Target Statement         `json:"target"`
}

func (*MacroDecorator) statementNode() {}
func (m *MacroDecorator) String() string {
	names := make([]string, len(m.Macros))
	for i, inv := range m.Macros {
		names[i] = inv.Name
	}
	return fmt.Sprintf("MacroDecorator(%s, %s)", strings.Join(names, ", "), m.Target)
}

func argumentNames(args []Argument) string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.Name
	}
	return "(" + strings.Join(names, ", ") + ")"
}

func joinExpressions(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
