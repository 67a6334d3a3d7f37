package macro

import "saturnus/pkg/ast"

// blockFunc rewrites one statement of a block before its own bodies are
// walked. Returning drop removes the statement from the block.
type blockFunc func(ast.Statement) (s ast.Statement, drop bool, err error)

// walker applies a blockFunc to every block of a tree: top level, function
// and class bodies, control flow bodies and the bodies of lambda and do
// expressions. Nodes are copied only when something below them changed,
// so an untouched subtree keeps its identity.
type walker struct {
	fn blockFunc
}

func (w walker) block(stmts []ast.Statement) ([]ast.Statement, bool, error) {
	out := make([]ast.Statement, 0, len(stmts))
	changed := false
	for _, s := range stmts {
		r, drop, err := w.fn(s)
		if err != nil {
			return nil, false, err
		}
		if drop {
			changed = true
			continue
		}
		r, c, err := w.statement(r)
		if err != nil {
			return nil, false, err
		}
		if c || r != s {
			changed = true
		}
		out = append(out, r)
	}
	return out, changed, nil
}

// body is block for nested bodies: it hands back the original slice when
// nothing changed.
func (w walker) body(stmts []ast.Statement) ([]ast.Statement, bool, error) {
	out, changed, err := w.block(stmts)
	if err != nil || !changed {
		return stmts, false, err
	}
	return out, true, nil
}

func (w walker) statement(s ast.Statement) (ast.Statement, bool, error) {
	switch n := s.(type) {
	case *ast.Function:
		return w.function(n)
	case *ast.Let:
		return w.let(n)
	case *ast.Class:
		fields := make([]ast.ClassField, len(n.Fields))
		changed := false
		for i, f := range n.Fields {
			var c bool
			var err error
			switch field := f.(type) {
			case *ast.Function:
				fields[i], c, err = w.function(field)
			case *ast.Let:
				fields[i], c, err = w.let(field)
			default:
				fields[i] = f
			}
			if err != nil {
				return nil, false, err
			}
			changed = changed || c
		}
		if !changed {
			return n, false, nil
		}
		cp := *n
		cp.Fields = fields
		return &cp, true, nil
	case *ast.Assignment:
		value, c, err := w.expression(n.Value)
		if err != nil || !c {
			return n, false, err
		}
		cp := *n
		cp.Value = value
		return &cp, true, nil
	case *ast.Return:
		value, c, err := w.expression(n.Value)
		if err != nil || !c {
			return n, false, err
		}
		return &ast.Return{Value: value}, true, nil
	case *ast.ExpressionStatement:
		expr, c, err := w.expression(n.Expr)
		if err != nil || !c {
			return n, false, err
		}
		return &ast.ExpressionStatement{Expr: expr}, true, nil
	case *ast.If:
		return w.ifStatement(n)
	case *ast.For:
		iterable, c1, err := w.expression(n.Iterable)
		if err != nil {
			return nil, false, err
		}
		body, c2, err := w.body(n.Body)
		if err != nil || !(c1 || c2) {
			return n, false, err
		}
		cp := *n
		cp.Iterable, cp.Body = iterable, body
		return &cp, true, nil
	case *ast.While:
		cond, c1, err := w.expression(n.Condition)
		if err != nil {
			return nil, false, err
		}
		let, c2, err := w.let(n.Let)
		if err != nil {
			return nil, false, err
		}
		body, c3, err := w.body(n.Body)
		if err != nil || !(c1 || c2 || c3) {
			return n, false, err
		}
		return &ast.While{Condition: cond, Let: let, Body: body}, true, nil
	case *ast.Loop:
		body, c, err := w.body(n.Body)
		if err != nil || !c {
			return n, false, err
		}
		return &ast.Loop{Body: body}, true, nil
	case *ast.Match:
		return w.match(n)
	case *ast.MacroDecorator:
		target, c, err := w.statement(n.Target)
		if err != nil || !c {
			return n, false, err
		}
		return &ast.MacroDecorator{Macros: n.Macros, Target: target}, true, nil
	}
	return s, false, nil
}

func (w walker) function(n *ast.Function) (*ast.Function, bool, error) {
	if n == nil {
		return n, false, nil
	}
	body, c, err := w.body(n.Body)
	if err != nil || !c {
		return n, false, err
	}
	cp := *n
	cp.Body = body
	return &cp, true, nil
}

func (w walker) let(n *ast.Let) (*ast.Let, bool, error) {
	if n == nil {
		return n, false, nil
	}
	value, c, err := w.expression(n.Value)
	if err != nil || !c {
		return n, false, err
	}
	return &ast.Let{Target: n.Target, Value: value}, true, nil
}

func (w walker) ifStatement(n *ast.If) (ast.Statement, bool, error) {
	cond, changed, err := w.expression(n.Condition)
	if err != nil {
		return nil, false, err
	}
	body, c, err := w.body(n.Body)
	if err != nil {
		return nil, false, err
	}
	changed = changed || c
	branches := make([]ast.ElseIf, len(n.Branches))
	for i, br := range n.Branches {
		var c1, c2 bool
		if branches[i].Condition, c1, err = w.expression(br.Condition); err != nil {
			return nil, false, err
		}
		if branches[i].Body, c2, err = w.body(br.Body); err != nil {
			return nil, false, err
		}
		changed = changed || c1 || c2
	}
	els, c, err := w.body(n.Else)
	if err != nil || !(changed || c) {
		return n, false, err
	}
	if n.Branches == nil {
		branches = nil
	}
	return &ast.If{Condition: cond, Body: body, Branches: branches, Else: els}, true, nil
}

func (w walker) match(n *ast.Match) (ast.Statement, bool, error) {
	target, changed, err := w.expression(n.Target)
	if err != nil {
		return nil, false, err
	}
	arms := make([]ast.MatchArm, len(n.Arms))
	for i, arm := range n.Arms {
		var c1, c2 bool
		arms[i].Pattern = arm.Pattern
		if arms[i].Body, c1, err = w.body(arm.Body); err != nil {
			return nil, false, err
		}
		if arms[i].Result, c2, err = w.expression(arm.Result); err != nil {
			return nil, false, err
		}
		changed = changed || c1 || c2
	}
	if !changed {
		return n, false, nil
	}
	return &ast.Match{Target: target, Arms: arms}, true, nil
}

func (w walker) expression(x ast.Expression) (ast.Expression, bool, error) {
	switch n := x.(type) {
	case *ast.Lambda:
		body, c1, err := w.body(n.Body)
		if err != nil {
			return nil, false, err
		}
		result, c2, err := w.expression(n.Result)
		if err != nil || !(c1 || c2) {
			return n, false, err
		}
		return &ast.Lambda{Arguments: n.Arguments, Body: body, Result: result}, true, nil
	case *ast.Do:
		body, c, err := w.body(n.Body)
		if err != nil || !c {
			return n, false, err
		}
		return &ast.Do{Body: body}, true, nil
	case *ast.Call:
		args, c, err := w.expressions(n.Arguments)
		if err != nil || !c {
			return n, false, err
		}
		cp := *n
		cp.Arguments = args
		return &cp, true, nil
	case *ast.Binary:
		left, c1, err := w.expression(n.Left)
		if err != nil {
			return nil, false, err
		}
		right, c2, err := w.expression(n.Right)
		if err != nil || !(c1 || c2) {
			return n, false, err
		}
		return &ast.Binary{Left: left, Operator: n.Operator, Right: right}, true, nil
	case *ast.Unary:
		expr, c, err := w.expression(n.Expr)
		if err != nil || !c {
			return n, false, err
		}
		return &ast.Unary{Operator: n.Operator, Expr: expr}, true, nil
	case *ast.Wrapped:
		expr, c, err := w.expression(n.Expr)
		if err != nil || !c {
			return n, false, err
		}
		return &ast.Wrapped{Expr: expr}, true, nil
	case *ast.Vector:
		els, c, err := w.expressions(n.Elements)
		if err != nil || !c {
			return n, false, err
		}
		return &ast.Vector{Elements: els}, true, nil
	case *ast.Tuple:
		els, c, err := w.expressions(n.Elements)
		if err != nil || !c {
			return n, false, err
		}
		return &ast.Tuple{Elements: els}, true, nil
	case *ast.Table:
		entries := make([]ast.TableEntry, len(n.Entries))
		changed := false
		for i, e := range n.Entries {
			entries[i] = e
			var c bool
			var err error
			if entries[i].Value, c, err = w.expression(e.Value); err != nil {
				return nil, false, err
			}
			changed = changed || c
		}
		if !changed {
			return n, false, nil
		}
		return &ast.Table{Entries: entries}, true, nil
	}
	return x, false, nil
}

func (w walker) expressions(xs []ast.Expression) ([]ast.Expression, bool, error) {
	out := make([]ast.Expression, len(xs))
	changed := false
	for i, x := range xs {
		var c bool
		var err error
		if out[i], c, err = w.expression(x); err != nil {
			return nil, false, err
		}
		changed = changed || c
	}
	if !changed {
		return xs, false, nil
	}
	return out, true, nil
}
