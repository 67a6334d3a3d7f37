// Package emitter lowers a Saturnus AST to Lua source text.
package emitter

import (
	"fmt"
	"strconv"
	"strings"

	"saturnus/pkg/ast"
	"saturnus/pkg/codegen"
)

const (
	HeaderLine  = "-- Generated by the Saturnus compiler 1.0"
	WarningLine = "-- WARNING! Changes may be discarded at any moment!"

	// SelfName is the first parameter that places a method on the prototype.
	SelfName = "self"
	// DestructureTemp holds the value being destructured.
	DestructureTemp = "__destructure__"
	// ModulesRoot is the table holding one field per declared module.
	ModulesRoot = "__modules__"
	// NativeLanguage selects the native source entry used by this backend.
	NativeLanguage = "Lua"

	nativeMarker   = "-- NATIVE CODE"
	nativeNotFound = "error('Native function implementation not found')"
)

var luaKeywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "goto": true,
	"if": true, "in": true, "local": true, "nil": true, "not": true,
	"or": true, "repeat": true, "return": true, "then": true, "true": true,
	"until": true, "while": true,
}

// LuaEmitter implements codegen.Visitor for Lua. It holds no state; all
// output goes to the builder passed to each visit.
type LuaEmitter struct{}

var _ codegen.Visitor = (*LuaEmitter)(nil)

func New() *LuaEmitter {
	return &LuaEmitter{}
}

// Emit renders a whole program with the given indentation unit.
func Emit(p *ast.Program, indent string) (string, error) {
	b := codegen.NewBuilder(indent)
	if err := New().VisitProgram(b, p); err != nil {
		return "", err
	}
	return b.Collect(), nil
}

func (e *LuaEmitter) VisitProgram(b *codegen.Builder, p *ast.Program) error {
	b.Put(HeaderLine).Line().Put(WarningLine)
	return codegen.VisitBlock(e, b, p.Statements)
}

func (e *LuaEmitter) block(b *codegen.Builder, stmts []ast.Statement) error {
	return b.Indented(func() error {
		return codegen.VisitBlock(e, b, stmts)
	})
}

func (e *LuaEmitter) expressions(b *codegen.Builder, exprs []ast.Expression) error {
	for i, x := range exprs {
		if i > 0 {
			b.Put(", ")
		}
		if err := codegen.VisitExpression(e, b, x); err != nil {
			return err
		}
	}
	return nil
}

// parameters renders a formal parameter list. Every function also accepts
// trailing varargs.
func parameters(args []ast.Argument) string {
	names := make([]string, 0, len(args)+1)
	for _, a := range args {
		names = append(names, a.Name)
	}
	return strings.Join(append(names, "..."), ", ")
}

func (e *LuaEmitter) decorate(b *codegen.Builder, decorators []ast.Decorator, args string) error {
	for _, dec := range decorators {
		b.Line()
		if err := codegen.VisitExpression(e, b, dec.Target); err != nil {
			return err
		}
		b.Put("(" + args + ");")
	}
	return nil
}

// Statements

func (e *LuaEmitter) VisitReturn(b *codegen.Builder, s *ast.Return) error {
	if s.Value == nil {
		b.Line().Put("return;")
		return nil
	}
	b.Line().Put("return ")
	if err := codegen.VisitExpression(e, b, s.Value); err != nil {
		return err
	}
	b.Put(";")
	return nil
}

// VisitClass lowers a class to a callable namespace table. Calling the
// class wraps a plain table in the prototype's metatable; methods whose
// first parameter is self live on the prototype, the rest on the class.
func (e *LuaEmitter) VisitClass(b *codegen.Builder, s *ast.Class) error {
	name := s.Name
	b.Line().Put(fmt.Sprintf("local %s = {};", name))
	b.Line().Put(fmt.Sprintf("%s.__meta__ = {};", name))
	b.Line().Put(fmt.Sprintf("%s.__meta__.__call = function(self, struct)", name))
	b.Push().Line().Put("return setmetatable(struct, self.prototype.__meta__);")
	if err := b.Pop(); err != nil {
		return err
	}
	b.Line().Put("end;")
	b.Line().Put(fmt.Sprintf("%s.prototype = {};", name))
	b.Line().Put(fmt.Sprintf("%s.prototype.__meta__ = {};", name))
	b.Line().Put(fmt.Sprintf("%s.prototype.__meta__.__index = %s.prototype;", name, name))
	b.Line().Put(fmt.Sprintf("setmetatable(%s, %s.__meta__);", name, name))

	for _, field := range s.Fields {
		b.Line()
		switch f := field.(type) {
		case *ast.Function:
			if err := e.method(b, name, f); err != nil {
				return err
			}
		case *ast.Let:
			if f.Target.Destructure != nil {
				return codegen.Structuralf("class %s: field declarations cannot destructure", name)
			}
			b.Put(fmt.Sprintf("%s.prototype.%s = ", name, f.Target.Name))
			if f.Value == nil {
				b.Put("nil")
			} else if err := codegen.VisitExpression(e, b, f.Value); err != nil {
				return err
			}
			b.Put(";")
		default:
			return codegen.Unsupportedf("class field %T", field)
		}
	}
	return e.decorate(b, s.Decorators, fmt.Sprintf("%s, %q", name, name))
}

func (e *LuaEmitter) method(b *codegen.Builder, class string, f *ast.Function) error {
	isSelf := len(f.Arguments) > 0 && f.Arguments[0].Name == SelfName
	ref := class + "." + f.Name
	if isSelf {
		ref = class + ".prototype." + f.Name
	}
	b.Put(ref + " = ")
	if err := e.VisitLambda(b, &ast.Lambda{Arguments: f.Arguments, Body: f.Body}); err != nil {
		return err
	}
	b.Put(";")
	args := fmt.Sprintf("%s, %q, %s, %q, { is_static = %t }", ref, f.Name, class, class, !isSelf)
	return e.decorate(b, f.Decorators, args)
}

func (e *LuaEmitter) VisitFunction(b *codegen.Builder, s *ast.Function) error {
	b.Line().Put(fmt.Sprintf("local function %s(%s)", s.Name, parameters(s.Arguments)))
	err := b.Indented(func() error {
		if s.Native == nil {
			return codegen.VisitBlock(e, b, s.Body)
		}
		b.Line().Put(nativeMarker)
		if src, ok := nativeSource(s.Native); ok {
			b.Line().Put(src)
		} else {
			b.Line().Put(nativeNotFound)
		}
		b.Line().Put(nativeMarker)
		return nil
	})
	if err != nil {
		return err
	}
	b.Line().Put("end")
	return e.decorate(b, s.Decorators, fmt.Sprintf("%s, %q", s.Name, s.Name))
}

func nativeSource(sources []ast.NativeSource) (string, bool) {
	for _, n := range sources {
		if n.Language == NativeLanguage {
			return n.Source, true
		}
	}
	return "", false
}

func (e *LuaEmitter) VisitAssignment(b *codegen.Builder, s *ast.Assignment) error {
	if s.Target == nil {
		return codegen.Structuralf("assignment without a target")
	}
	target, err := codegen.Render(b, func(sub *codegen.Builder) error {
		return e.VisitReference(sub, s.Target)
	})
	if err != nil {
		return err
	}
	b.Line().Put(target + " = ")
	if s.Operator != "" {
		err = e.VisitBinary(b, &ast.Binary{Left: s.Target, Operator: s.Operator, Right: s.Value})
	} else {
		err = codegen.VisitExpression(e, b, s.Value)
	}
	if err != nil {
		return err
	}
	b.Put(";")
	return nil
}

func (e *LuaEmitter) VisitLet(b *codegen.Builder, s *ast.Let) error {
	d := s.Target.Destructure
	if d == nil {
		b.Line().Put("local " + s.Target.Name)
		if s.Value != nil {
			b.Put(" = ")
			if err := codegen.VisitExpression(e, b, s.Value); err != nil {
				return err
			}
		}
		b.Put(";")
		return nil
	}

	if len(d.Names) == 0 {
		return codegen.Structuralf("destructuring binds no names")
	}
	if s.Value == nil {
		return codegen.Structuralf("destructuring of %v has no value", d.Names)
	}
	b.Line().Put("local " + strings.Join(d.Names, ", ") + ";")
	b.Line().Put("do")
	err := b.Indented(func() error {
		b.Line().Put("local " + DestructureTemp + " = ")
		if err := codegen.VisitExpression(e, b, s.Value); err != nil {
			return err
		}
		b.Put(";")
		return destructure(b, d)
	})
	if err != nil {
		return err
	}
	b.Line().Put("end")
	return nil
}

// destructure assigns each name from DestructureTemp according to the
// pattern's origin: tuple slots _0.._n, array slots 1..n, or same-named
// table fields.
func destructure(b *codegen.Builder, d *ast.Destructuring) error {
	for i, name := range d.Names {
		var src string
		switch d.Origin {
		case ast.DestructureTuple:
			src = fmt.Sprintf("%s._%d", DestructureTemp, i)
		case ast.DestructureArray:
			src = fmt.Sprintf("%s[%d]", DestructureTemp, i+1)
		case ast.DestructureTable:
			src = DestructureTemp + member(name)
		default:
			return codegen.Structuralf("unknown destructuring origin %q", d.Origin)
		}
		b.Line().Put(name + " = " + src + ";")
	}
	return nil
}

func (e *LuaEmitter) VisitExpressionStatement(b *codegen.Builder, s *ast.ExpressionStatement) error {
	b.Line()
	if err := codegen.VisitExpression(e, b, s.Expr); err != nil {
		return err
	}
	b.Put(";")
	return nil
}

func (e *LuaEmitter) VisitIf(b *codegen.Builder, s *ast.If) error {
	b.Line().Put("if ")
	if err := codegen.VisitExpression(e, b, s.Condition); err != nil {
		return err
	}
	b.Put(" then")
	if err := e.block(b, s.Body); err != nil {
		return err
	}
	for _, br := range s.Branches {
		b.Line().Put("elseif ")
		if err := codegen.VisitExpression(e, b, br.Condition); err != nil {
			return err
		}
		b.Put(" then")
		if err := e.block(b, br.Body); err != nil {
			return err
		}
	}
	if len(s.Else) > 0 {
		b.Line().Put("else")
		if err := e.block(b, s.Else); err != nil {
			return err
		}
	}
	b.Line().Put("end")
	return nil
}

func (e *LuaEmitter) VisitFor(b *codegen.Builder, s *ast.For) error {
	d := s.Handler.Destructure
	handler := s.Handler.Name
	if d != nil {
		handler = DestructureTemp
	}
	b.Line().Put("for " + handler + " in ")
	if err := codegen.VisitExpression(e, b, s.Iterable); err != nil {
		return err
	}
	b.Put(" do")
	err := b.Indented(func() error {
		if d != nil {
			b.Line().Put("local " + strings.Join(d.Names, ", ") + ";")
			if err := destructure(b, d); err != nil {
				return err
			}
		}
		return codegen.VisitBlock(e, b, s.Body)
	})
	if err != nil {
		return err
	}
	b.Line().Put("end")
	return nil
}

// VisitWhile lowers plain loops directly. A while-let becomes a scope that
// declares the binding once, loops while it is truthy and re-evaluates it
// at the end of every iteration.
func (e *LuaEmitter) VisitWhile(b *codegen.Builder, s *ast.While) error {
	if s.Let == nil {
		b.Line().Put("while ")
		if err := codegen.VisitExpression(e, b, s.Condition); err != nil {
			return err
		}
		b.Put(" do")
		if err := e.block(b, s.Body); err != nil {
			return err
		}
		b.Line().Put("end")
		return nil
	}

	let := s.Let
	if let.Target.Destructure != nil {
		return codegen.Structuralf("while-let cannot destructure %v", let.Target.Destructure.Names)
	}
	if let.Value == nil {
		return codegen.Structuralf("while-let binding %s has no value", let.Target.Name)
	}
	name := let.Target.Name
	b.Line().Put("do")
	err := b.Indented(func() error {
		if err := e.VisitLet(b, let); err != nil {
			return err
		}
		b.Line().Put("while " + name + " do")
		if err := b.Indented(func() error {
			if err := codegen.VisitBlock(e, b, s.Body); err != nil {
				return err
			}
			return e.VisitAssignment(b, &ast.Assignment{Target: ast.Ref(name), Value: let.Value})
		}); err != nil {
			return err
		}
		b.Line().Put("end")
		return nil
	})
	if err != nil {
		return err
	}
	b.Line().Put("end")
	return nil
}

func (e *LuaEmitter) VisitLoop(b *codegen.Builder, s *ast.Loop) error {
	b.Line().Put("while true do")
	if err := e.block(b, s.Body); err != nil {
		return err
	}
	b.Line().Put("end")
	return nil
}

// VisitMatch always fails: there is no lowering for pattern matching yet.
func (e *LuaEmitter) VisitMatch(b *codegen.Builder, s *ast.Match) error {
	return codegen.ErrMatchUnsupported
}

func (e *LuaEmitter) VisitUse(b *codegen.Builder, s *ast.Use) error {
	b.Line().Put(fmt.Sprintf("local %s = %s.%s;", s.Module, ModulesRoot, s.Module))
	return nil
}

// VisitMacroDefinition renders the macro as a local function. This is the
// text the macro expander evaluates.
func (e *LuaEmitter) VisitMacroDefinition(b *codegen.Builder, s *ast.MacroDefinition) error {
	if s.Function == nil {
		return codegen.Structuralf("macro definition without a function")
	}
	return e.VisitFunction(b, s.Function)
}

// VisitMacroDecorator renders only the decorated statement; macro
// invocations have no runtime form.
func (e *LuaEmitter) VisitMacroDecorator(b *codegen.Builder, s *ast.MacroDecorator) error {
	return codegen.VisitStatement(e, b, s.Target)
}

// Expressions

func (e *LuaEmitter) VisitLambda(b *codegen.Builder, x *ast.Lambda) error {
	b.Put("function(" + parameters(x.Arguments) + ")")
	err := b.Indented(func() error {
		if x.Result == nil {
			return codegen.VisitBlock(e, b, x.Body)
		}
		b.Line().Put("return ")
		if err := codegen.VisitExpression(e, b, x.Result); err != nil {
			return err
		}
		b.Put(";")
		return nil
	})
	if err != nil {
		return err
	}
	b.Line().Put("end")
	return nil
}

func member(name string) string {
	if luaKeywords[name] {
		return "['" + name + "']"
	}
	return "." + name
}

func (e *LuaEmitter) segment(b *codegen.Builder, s ast.Segment) error {
	switch seg := s.(type) {
	case *ast.Field:
		if seg.Static {
			return codegen.ErrStaticSegmentPosition
		}
		b.Put(member(seg.Name))
	case *ast.Index:
		b.Put("[")
		if err := codegen.VisitExpression(e, b, seg.Key); err != nil {
			return err
		}
		b.Put("]")
	default:
		return codegen.Unsupportedf("reference segment %T", s)
	}
	return nil
}

// VisitReference renders a chain left to right. The first segment must be
// a plain name: an index has nothing to index into.
func (e *LuaEmitter) VisitReference(b *codegen.Builder, x *ast.Reference) error {
	if x == nil || len(x.Segments) == 0 {
		return codegen.ErrEmptyReference
	}
	switch first := x.Segments[0].(type) {
	case *ast.Field:
		if first.Static {
			return codegen.ErrStaticSegmentPosition
		}
		b.Put(first.Name)
	case *ast.Index:
		return codegen.ErrIndexedFirstSegment
	default:
		return codegen.Unsupportedf("reference segment %T", first)
	}
	for _, s := range x.Segments[1:] {
		if err := e.segment(b, s); err != nil {
			return err
		}
	}
	return nil
}

func (e *LuaEmitter) VisitIdentifier(b *codegen.Builder, x *ast.Identifier) error {
	b.Put(x.Name)
	return nil
}

// VisitCall renders the callee without its last segment, then the last
// segment as a method call (a:b) or, when marked static, a field call
// (a.b). Chained invocations and accesses follow the argument list.
// A method named after a Lua keyword is called as a['end'](a, ...).
func (e *LuaEmitter) VisitCall(b *codegen.Builder, x *ast.Call) error {
	var self string
	if x.Callee != nil {
		var err error
		if self, err = e.callee(b, x.Callee); err != nil {
			return err
		}
	}
	b.Put("(")
	if self != "" {
		b.Put(self)
		if len(x.Arguments) > 0 {
			b.Put(", ")
		}
	}
	if err := e.expressions(b, x.Arguments); err != nil {
		return err
	}
	b.Put(")")
	for _, t := range x.Tail {
		switch seg := t.(type) {
		case *ast.Invoke:
			b.Put("(")
			if err := e.expressions(b, seg.Arguments); err != nil {
				return err
			}
			b.Put(")")
		case *ast.Field:
			switch {
			case seg.Static:
				b.Put(member(seg.Name))
			case luaKeywords[seg.Name]:
				return codegen.Structuralf("method %q after a call result is a Lua keyword", seg.Name)
			default:
				b.Put(":" + seg.Name)
			}
		case *ast.Index:
			if err := e.segment(b, seg); err != nil {
				return err
			}
		default:
			return codegen.Unsupportedf("call segment %T", t)
		}
	}
	return nil
}

// callee renders a call target. It returns the receiver text when a method
// call cannot use the colon form and the receiver has to be passed as the
// first argument.
func (e *LuaEmitter) callee(b *codegen.Builder, ref *ast.Reference) (string, error) {
	n := len(ref.Segments)
	if n <= 1 {
		return "", e.VisitReference(b, ref)
	}
	head, err := codegen.Render(b, func(sub *codegen.Builder) error {
		return e.VisitReference(sub, &ast.Reference{Segments: ref.Segments[:n-1]})
	})
	if err != nil {
		return "", err
	}
	b.Put(head)
	last, ok := ref.Segments[n-1].(*ast.Field)
	switch {
	case !ok:
		return "", e.segment(b, ref.Segments[n-1])
	case last.Static:
		b.Put(member(last.Name))
	case luaKeywords[last.Name]:
		// The receiver is written twice, so it must be free of side effects.
		for _, s := range ref.Segments[:n-1] {
			if _, isIndex := s.(*ast.Index); isIndex {
				return "", codegen.Structuralf("method %q is a Lua keyword and its receiver is indexed", last.Name)
			}
		}
		b.Put(member(last.Name))
		return head, nil
	default:
		b.Put(":" + last.Name)
	}
	return "", nil
}

func (e *LuaEmitter) VisitTuple(b *codegen.Builder, x *ast.Tuple) error {
	b.Put("{")
	for i, el := range x.Elements {
		if i > 0 {
			b.Put(", ")
		}
		b.Put(fmt.Sprintf("_%d = ", i))
		if err := codegen.VisitExpression(e, b, el); err != nil {
			return err
		}
	}
	b.Put("}")
	return nil
}

func (e *LuaEmitter) VisitWrapped(b *codegen.Builder, x *ast.Wrapped) error {
	b.Put("(")
	if err := codegen.VisitExpression(e, b, x.Expr); err != nil {
		return err
	}
	b.Put(")")
	return nil
}

func (e *LuaEmitter) VisitTable(b *codegen.Builder, x *ast.Table) error {
	b.Put("{")
	for i, entry := range x.Entries {
		if i > 0 {
			b.Put(", ")
		}
		switch {
		case entry.Key == nil && entry.Name == "":
			return codegen.Structuralf("table entry without a key")
		case entry.Key != nil:
			b.Put("[")
			if err := codegen.VisitExpression(e, b, entry.Key); err != nil {
				return err
			}
			b.Put("] = ")
		case luaKeywords[entry.Name]:
			b.Put(fmt.Sprintf("[%q] = ", entry.Name))
		default:
			b.Put(entry.Name + " = ")
		}
		if entry.Implicit() {
			b.Put(entry.Name)
			continue
		}
		if entry.Value == nil {
			b.Put("nil")
			continue
		}
		if err := codegen.VisitExpression(e, b, entry.Value); err != nil {
			return err
		}
	}
	b.Put("}")
	return nil
}

func (e *LuaEmitter) VisitVector(b *codegen.Builder, x *ast.Vector) error {
	b.Put("{")
	if err := e.expressions(b, x.Elements); err != nil {
		return err
	}
	b.Put("}")
	return nil
}

func (e *LuaEmitter) VisitNumber(b *codegen.Builder, x *ast.Number) error {
	if x.Float {
		b.Put(strconv.FormatFloat(x.Value, 'f', -1, 64))
	} else {
		b.Put(strconv.FormatInt(x.Int, 10))
	}
	return nil
}

func (e *LuaEmitter) VisitString(b *codegen.Builder, x *ast.String) error {
	b.Put(`"` + strings.ReplaceAll(x.Value, "\n", `\n`) + `"`)
	return nil
}

func (e *LuaEmitter) VisitUnit(b *codegen.Builder, x *ast.Unit) error {
	b.Put("nil")
	return nil
}

// VisitBinary lowers ?? and ?: to and/or idioms, native operators to their
// Lua spelling and anything else to a call of the operator's function.
func (e *LuaEmitter) VisitBinary(b *codegen.Builder, x *ast.Binary) error {
	visit := func(parts ...any) error {
		for _, p := range parts {
			switch v := p.(type) {
			case nil:
				return codegen.Structuralf("binary %q is missing an operand", x.Operator)
			case string:
				b.Put(v)
			case ast.Expression:
				if err := codegen.VisitExpression(e, b, v); err != nil {
					return err
				}
			}
		}
		return nil
	}

	switch x.Operator {
	case "??":
		return visit(x.Left, " == nil and ", x.Right, " or ", x.Left)
	case "?:":
		return visit(x.Left, " or ", x.Right)
	}
	if op, ok := nativeOperators[x.Operator]; ok {
		return visit(x.Left, " "+op+" ", x.Right)
	}
	fn, err := OperatorFunctionName(x.Operator)
	if err != nil {
		return err
	}
	return visit(fn+"(", x.Left, ", ", x.Right, ")")
}

func (e *LuaEmitter) VisitUnary(b *codegen.Builder, x *ast.Unary) error {
	switch x.Operator {
	case "-":
		b.Put("-")
	case "not":
		b.Put("not ")
	case "#?":
		b.Put("#")
	default:
		return codegen.Unsupportedf("unary operator %q", x.Operator)
	}
	return codegen.VisitExpression(e, b, x.Expr)
}

func (e *LuaEmitter) VisitDo(b *codegen.Builder, x *ast.Do) error {
	b.Put("(function(...)")
	if err := e.block(b, x.Body); err != nil {
		return err
	}
	b.Line().Put("end)(...)")
	return nil
}

func (e *LuaEmitter) VisitUseExpression(b *codegen.Builder, x *ast.UseExpression) error {
	b.Put(ModulesRoot + "." + x.Module)
	return nil
}
