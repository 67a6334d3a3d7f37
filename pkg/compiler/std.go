package compiler

import "saturnus/pkg/ast"

// StdVersion is exposed to scripts as std.version.
const StdVersion = "1.0"

// StdModule builds the table the prelude assigns to __modules__.std.
func StdModule() *ast.Table {
	return &ast.Table{Entries: []ast.TableEntry{
		{Name: "version", Value: ast.Str(StdVersion)},
		{Name: "range", Value: stdRange()},
		{Name: "values", Value: stdValues()},
		{Name: "length", Value: &ast.Lambda{
			Arguments: ast.Args("t"),
			Result:    &ast.Unary{Operator: "#?", Expr: ast.Ref("t")},
		}},
	}}
}

// range(from, to) iterates the integers from..to inclusive.
func stdRange() *ast.Lambda {
	return &ast.Lambda{
		Arguments: ast.Args("from", "to"),
		Body: []ast.Statement{
			&ast.Let{Target: ast.Target{Name: "i"}, Value: ast.Bin(ast.Ref("from"), "-", ast.Int(1))},
			&ast.Return{Value: &ast.Lambda{Body: []ast.Statement{
				&ast.Assignment{Target: ast.Ref("i"), Operator: "+", Value: ast.Int(1)},
				&ast.If{
					Condition: ast.Bin(ast.Ref("i"), "<=", ast.Ref("to")),
					Body:      []ast.Statement{&ast.Return{Value: ast.Ref("i")}},
				},
			}}},
		},
	}
}

// values(t) iterates the array part of t in order.
func stdValues() *ast.Lambda {
	item := &ast.Reference{Segments: []ast.Segment{
		&ast.Field{Name: "t"},
		&ast.Index{Key: ast.Ref("i")},
	}}
	return &ast.Lambda{
		Arguments: ast.Args("t"),
		Body: []ast.Statement{
			&ast.Let{Target: ast.Target{Name: "i"}, Value: ast.Int(0)},
			&ast.Return{Value: &ast.Lambda{Body: []ast.Statement{
				&ast.Assignment{Target: ast.Ref("i"), Operator: "+", Value: ast.Int(1)},
				&ast.Return{Value: item},
			}}},
		},
	}
}
