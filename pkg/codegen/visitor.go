package codegen

import "saturnus/pkg/ast"

// Visitor renders one node kind per method into the builder. Backends
// implement it; traversal order inside composite nodes is the backend's
// emission order.
type Visitor interface {
	VisitProgram(b *Builder, p *ast.Program) error

	// Statements
	VisitReturn(b *Builder, s *ast.Return) error
	VisitClass(b *Builder, s *ast.Class) error
	VisitFunction(b *Builder, s *ast.Function) error
	VisitAssignment(b *Builder, s *ast.Assignment) error
	VisitLet(b *Builder, s *ast.Let) error
	VisitExpressionStatement(b *Builder, s *ast.ExpressionStatement) error
	VisitIf(b *Builder, s *ast.If) error
	VisitFor(b *Builder, s *ast.For) error
	VisitWhile(b *Builder, s *ast.While) error
	VisitLoop(b *Builder, s *ast.Loop) error
	VisitMatch(b *Builder, s *ast.Match) error
	VisitUse(b *Builder, s *ast.Use) error
	VisitMacroDefinition(b *Builder, s *ast.MacroDefinition) error
	VisitMacroDecorator(b *Builder, s *ast.MacroDecorator) error

	// Expressions
	VisitLambda(b *Builder, e *ast.Lambda) error
	VisitReference(b *Builder, e *ast.Reference) error
	VisitIdentifier(b *Builder, e *ast.Identifier) error
	VisitCall(b *Builder, e *ast.Call) error
	VisitTuple(b *Builder, e *ast.Tuple) error
	VisitWrapped(b *Builder, e *ast.Wrapped) error
	VisitTable(b *Builder, e *ast.Table) error
	VisitVector(b *Builder, e *ast.Vector) error
	VisitNumber(b *Builder, e *ast.Number) error
	VisitString(b *Builder, e *ast.String) error
	VisitUnit(b *Builder, e *ast.Unit) error
	VisitBinary(b *Builder, e *ast.Binary) error
	VisitUnary(b *Builder, e *ast.Unary) error
	VisitDo(b *Builder, e *ast.Do) error
	VisitUseExpression(b *Builder, e *ast.UseExpression) error
}

// VisitStatement dispatches s to the matching Visitor method.
func VisitStatement(v Visitor, b *Builder, s ast.Statement) error {
	switch n := s.(type) {
	case *ast.Return:
		return v.VisitReturn(b, n)
	case *ast.Class:
		return v.VisitClass(b, n)
	case *ast.Function:
		return v.VisitFunction(b, n)
	case *ast.Assignment:
		return v.VisitAssignment(b, n)
	case *ast.Let:
		return v.VisitLet(b, n)
	case *ast.ExpressionStatement:
		return v.VisitExpressionStatement(b, n)
	case *ast.If:
		return v.VisitIf(b, n)
	case *ast.For:
		return v.VisitFor(b, n)
	case *ast.While:
		return v.VisitWhile(b, n)
	case *ast.Loop:
		return v.VisitLoop(b, n)
	case *ast.Match:
		return v.VisitMatch(b, n)
	case *ast.Use:
		return v.VisitUse(b, n)
	case *ast.MacroDefinition:
		return v.VisitMacroDefinition(b, n)
	case *ast.MacroDecorator:
		return v.VisitMacroDecorator(b, n)
	case nil:
		return Structuralf("nil statement")
	}
	return Unsupportedf("statement %T", s)
}

// VisitExpression dispatches e to the matching Visitor method.
func VisitExpression(v Visitor, b *Builder, e ast.Expression) error {
	switch n := e.(type) {
	case *ast.Lambda:
		return v.VisitLambda(b, n)
	case *ast.Reference:
		return v.VisitReference(b, n)
	case *ast.Identifier:
		return v.VisitIdentifier(b, n)
	case *ast.Call:
		return v.VisitCall(b, n)
	case *ast.Tuple:
		return v.VisitTuple(b, n)
	case *ast.Wrapped:
		return v.VisitWrapped(b, n)
	case *ast.Table:
		return v.VisitTable(b, n)
	case *ast.Vector:
		return v.VisitVector(b, n)
	case *ast.Number:
		return v.VisitNumber(b, n)
	case *ast.String:
		return v.VisitString(b, n)
	case *ast.Unit:
		return v.VisitUnit(b, n)
	case *ast.Binary:
		return v.VisitBinary(b, n)
	case *ast.Unary:
		return v.VisitUnary(b, n)
	case *ast.Do:
		return v.VisitDo(b, n)
	case *ast.UseExpression:
		return v.VisitUseExpression(b, n)
	case nil:
		return Structuralf("nil expression")
	}
	return Unsupportedf("expression %T", e)
}

// VisitBlock visits each statement in order.
func VisitBlock(v Visitor, b *Builder, stmts []ast.Statement) error {
	for _, s := range stmts {
		if err := VisitStatement(v, b, s); err != nil {
			return err
		}
	}
	return nil
}

// Render runs fn against a fresh builder sharing b's indentation unit and
// returns the text, leaving b untouched.
func Render(b *Builder, fn func(*Builder) error) (string, error) {
	sub := b.CloneLike()
	if err := fn(sub); err != nil {
		return "", err
	}
	return sub.Collect(), nil
}
