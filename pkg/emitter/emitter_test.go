package emitter

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"saturnus/pkg/ast"
	"saturnus/pkg/codegen"
)

// assertContains checks if the generated code contains the expected substring.
func assertContains(t *testing.T, code, expected string) {
	t.Helper()
	if !strings.Contains(code, expected) {
		t.Errorf("Expected code to contain %q, but it didn't.\nCode:\n%s", expected, code)
	}
}

func emitStatements(t *testing.T, stmts ...ast.Statement) string {
	t.Helper()
	b := codegen.NewBuilder("  ")
	require.NoError(t, codegen.VisitBlock(New(), b, stmts))
	return strings.TrimPrefix(b.Collect(), "\n")
}

func emitExpression(t *testing.T, x ast.Expression) string {
	t.Helper()
	b := codegen.NewBuilder("  ")
	require.NoError(t, codegen.VisitExpression(New(), b, x))
	return b.Collect()
}

func statementError(stmts ...ast.Statement) error {
	return codegen.VisitBlock(New(), codegen.NewBuilder("  "), stmts)
}

func expressionError(x ast.Expression) error {
	return codegen.VisitExpression(New(), codegen.NewBuilder("  "), x)
}

// runLua executes code and returns the value left on top of the stack.
func runLua(t *testing.T, code string) lua.LValue {
	t.Helper()
	L := lua.NewState()
	defer L.Close()
	require.NoError(t, L.DoString(code), "code:\n%s", code)
	return L.Get(-1)
}

func TestEmit_ProgramHeader(t *testing.T) {
	p := &ast.Program{Statements: []ast.Statement{
		&ast.Let{Target: ast.Target{Name: "x"}, Value: ast.Bin(ast.Int(1), "+", ast.Int(2))},
	}}
	out, err := Emit(p, "  ")
	require.NoError(t, err)
	require.Equal(t, HeaderLine+"\n"+WarningLine+"\nlocal x = 1 + 2;", out)
}

func TestEmit_EmptyProgram(t *testing.T) {
	out, err := Emit(&ast.Program{}, "\t")
	require.NoError(t, err)
	require.Equal(t, HeaderLine+"\n"+WarningLine, out)
}

func TestEmit_NoPartialOutputOnError(t *testing.T) {
	p := &ast.Program{Statements: []ast.Statement{
		&ast.Let{Target: ast.Target{Name: "x"}, Value: ast.Int(1)},
		&ast.Match{Target: ast.Ref("x")},
	}}
	out, err := Emit(p, "  ")
	require.ErrorIs(t, err, codegen.ErrMatchUnsupported)
	require.Empty(t, out)
}

func TestVisitLambda(t *testing.T) {
	t.Run("expression body", func(t *testing.T) {
		l := &ast.Lambda{Arguments: ast.Args("x"), Result: ast.Bin(ast.Ref("x"), "*", ast.Int(2))}
		require.Equal(t, "function(x, ...)\n  return x * 2;\nend", emitExpression(t, l))
	})
	t.Run("no arguments", func(t *testing.T) {
		l := &ast.Lambda{Body: []ast.Statement{&ast.Return{Value: ast.Int(1)}}}
		require.Equal(t, "function(...)\n  return 1;\nend", emitExpression(t, l))
	})
	t.Run("nested indentation", func(t *testing.T) {
		l := &ast.Lambda{Body: []ast.Statement{
			&ast.Return{Value: &ast.Lambda{Arguments: ast.Args("y"), Result: ast.Ref("y")}},
		}}
		require.Equal(t,
			"function(...)\n  return function(y, ...)\n    return y;\n  end;\nend",
			emitExpression(t, l))
	})
}

func TestVisitLet(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		out := emitStatements(t, &ast.Let{Target: ast.Target{Name: "name"}, Value: ast.Str("sat")})
		require.Equal(t, `local name = "sat";`, out)
	})
	t.Run("without value", func(t *testing.T) {
		require.Equal(t, "local x;", emitStatements(t, &ast.Let{Target: ast.Target{Name: "x"}}))
	})
	t.Run("tuple destructuring", func(t *testing.T) {
		out := emitStatements(t, &ast.Let{
			Target: ast.Target{Destructure: &ast.Destructuring{Names: []string{"a", "b"}, Origin: ast.DestructureTuple}},
			Value:  ast.Ref("pair"),
		})
		require.Equal(t, "local a, b;\ndo\n"+
			"  local __destructure__ = pair;\n"+
			"  a = __destructure__._0;\n"+
			"  b = __destructure__._1;\n"+
			"end", out)
	})
	t.Run("table destructuring", func(t *testing.T) {
		out := emitStatements(t, &ast.Let{
			Target: ast.Target{Destructure: &ast.Destructuring{Names: []string{"x", "y"}, Origin: ast.DestructureTable}},
			Value:  ast.Ref("point"),
		})
		assertContains(t, out, "local x, y;")
		assertContains(t, out, "x = __destructure__.x;")
		assertContains(t, out, "y = __destructure__.y;")
	})
	t.Run("array destructuring runs", func(t *testing.T) {
		out := emitStatements(t,
			&ast.Let{
				Target: ast.Target{Destructure: &ast.Destructuring{Names: []string{"a", "b"}, Origin: ast.DestructureArray}},
				Value:  &ast.Vector{Elements: []ast.Expression{ast.Int(10), ast.Int(20)}},
			},
			&ast.Return{Value: ast.Bin(ast.Ref("a"), "-", ast.Ref("b"))},
		)
		assertContains(t, out, "a = __destructure__[1];")
		require.Equal(t, lua.LNumber(-10), runLua(t, out))
	})
	t.Run("destructuring without names", func(t *testing.T) {
		err := statementError(&ast.Let{
			Target: ast.Target{Destructure: &ast.Destructuring{Origin: ast.DestructureTuple}},
			Value:  ast.Ref("pair"),
		})
		var ve *codegen.VisitError
		require.ErrorAs(t, err, &ve)
		require.Equal(t, codegen.Structural, ve.Kind)
	})
}

func TestVisitAssignment(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		out := emitStatements(t, &ast.Assignment{Target: ast.Ref("a", "b"), Value: ast.Int(3)})
		require.Equal(t, "a.b = 3;", out)
	})
	t.Run("compound", func(t *testing.T) {
		out := emitStatements(t, &ast.Assignment{Target: ast.Ref("x"), Operator: "+", Value: ast.Int(1)})
		require.Equal(t, "x = x + 1;", out)
	})
	t.Run("compound custom operator", func(t *testing.T) {
		out := emitStatements(t, &ast.Assignment{Target: ast.Ref("s"), Operator: "++", Value: ast.Str("!")})
		require.Equal(t, `s = s .. "!";`, out)
	})
	t.Run("indexed target", func(t *testing.T) {
		target := &ast.Reference{Segments: []ast.Segment{&ast.Field{Name: "list"}, &ast.Index{Key: ast.Int(1)}}}
		out := emitStatements(t, &ast.Assignment{Target: target, Value: &ast.Unit{}})
		require.Equal(t, "list[1] = nil;", out)
	})
	t.Run("missing target from json", func(t *testing.T) {
		p, err := ast.UnmarshalProgram([]byte(`{"statements":[{"type":"Assignment","value":{"type":"Number","int":1}}]}`))
		require.NoError(t, err)
		_, err = Emit(p, "  ")
		var ve *codegen.VisitError
		require.ErrorAs(t, err, &ve)
		require.Equal(t, codegen.Structural, ve.Kind)

		err = statementError(&ast.Assignment{Operator: "+", Value: ast.Int(1)})
		require.ErrorAs(t, err, &ve)
		require.Equal(t, codegen.Structural, ve.Kind)
	})
}

func TestVisitReference(t *testing.T) {
	t.Run("member chain", func(t *testing.T) {
		require.Equal(t, "a.b.c", emitExpression(t, ast.Ref("a", "b", "c")))
	})
	t.Run("reserved member", func(t *testing.T) {
		require.Equal(t, "promise['then']", emitExpression(t, ast.Ref("promise", "then")))
	})
	t.Run("computed member", func(t *testing.T) {
		r := &ast.Reference{Segments: []ast.Segment{&ast.Field{Name: "t"}, &ast.Index{Key: ast.Str("k")}}}
		require.Equal(t, `t["k"]`, emitExpression(t, r))
	})
	t.Run("indexed first segment", func(t *testing.T) {
		for _, rest := range [][]ast.Segment{
			nil,
			{&ast.Field{Name: "a"}},
			{&ast.Index{Key: ast.Int(2)}, &ast.Field{Name: "b", Static: true}},
		} {
			r := &ast.Reference{Segments: append([]ast.Segment{&ast.Index{Key: ast.Int(0)}}, rest...)}
			require.ErrorIs(t, expressionError(r), codegen.ErrIndexedFirstSegment)
		}
	})
	t.Run("static segment", func(t *testing.T) {
		r := &ast.Reference{Segments: []ast.Segment{&ast.Field{Name: "a"}, &ast.Field{Name: "b", Static: true}}}
		require.ErrorIs(t, expressionError(r), codegen.ErrStaticSegmentPosition)
	})
	t.Run("empty", func(t *testing.T) {
		require.ErrorIs(t, expressionError(&ast.Reference{}), codegen.ErrEmptyReference)
	})
}

func TestVisitCall(t *testing.T) {
	cases := []struct {
		name string
		call *ast.Call
		want string
	}{
		{
			name: "plain function",
			call: ast.CallNamed("print", ast.Str("hi"), ast.Int(1)),
			want: `print("hi", 1)`,
		},
		{
			name: "method",
			call: &ast.Call{Callee: ast.Ref("obj", "method"), Arguments: []ast.Expression{ast.Int(1)}},
			want: "obj:method(1)",
		},
		{
			name: "static member",
			call: &ast.Call{Callee: &ast.Reference{Segments: []ast.Segment{
				&ast.Field{Name: "math"}, &ast.Field{Name: "floor", Static: true},
			}}, Arguments: []ast.Expression{ast.Float(1.5)}},
			want: "math.floor(1.5)",
		},
		{
			name: "deep method",
			call: &ast.Call{Callee: ast.Ref("a", "b", "c")},
			want: "a.b:c()",
		},
		{
			name: "computed last segment",
			call: &ast.Call{Callee: &ast.Reference{Segments: []ast.Segment{
				&ast.Field{Name: "handlers"}, &ast.Index{Key: ast.Ref("kind")},
			}}},
			want: "handlers[kind]()",
		},
		{
			name: "tail",
			call: &ast.Call{Callee: ast.Ref("f"), Tail: []ast.CallSegment{
				&ast.Invoke{Arguments: []ast.Expression{ast.Int(2)}},
				&ast.Field{Name: "x", Static: true},
				&ast.Field{Name: "run"},
				&ast.Invoke{},
			}},
			want: "f()(2).x:run()",
		},
		{
			name: "reserved method",
			call: &ast.Call{Callee: ast.Ref("p", "then"), Arguments: []ast.Expression{ast.Ref("cb")}},
			want: "p['then'](p, cb)",
		},
		{
			name: "reserved method without arguments",
			call: &ast.Call{Callee: ast.Ref("a", "b", "end")},
			want: "a.b['end'](a.b)",
		},
		{
			name: "reserved static member",
			call: &ast.Call{Callee: &ast.Reference{Segments: []ast.Segment{
				&ast.Field{Name: "t"}, &ast.Field{Name: "repeat", Static: true},
			}}, Tail: []ast.CallSegment{&ast.Field{Name: "or", Static: true}}},
			want: "t['repeat']()['or']",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, emitExpression(t, tc.call))
		})
	}

	t.Run("static segment in head", func(t *testing.T) {
		call := &ast.Call{Callee: &ast.Reference{Segments: []ast.Segment{
			&ast.Field{Name: "a"}, &ast.Field{Name: "b", Static: true}, &ast.Field{Name: "c"},
		}}}
		require.ErrorIs(t, expressionError(call), codegen.ErrStaticSegmentPosition)
	})

	t.Run("reserved method runs", func(t *testing.T) {
		code := emitStatements(t,
			&ast.Let{Target: ast.Target{Name: "p"}, Value: &ast.Table{Entries: []ast.TableEntry{
				{Name: "v", Value: ast.Int(40)},
				{Name: "then", Value: &ast.Lambda{
					Arguments: ast.Args("self", "n"),
					Result:    ast.Bin(ast.Ref("self", "v"), "+", ast.Ref("n")),
				}},
			}}},
			&ast.Return{Value: &ast.Call{Callee: ast.Ref("p", "then"), Arguments: []ast.Expression{ast.Int(2)}}},
		)
		require.Equal(t, lua.LNumber(42), runLua(t, code))
	})

	t.Run("reserved method rejected", func(t *testing.T) {
		var ve *codegen.VisitError
		afterCall := &ast.Call{Callee: ast.Ref("f"), Tail: []ast.CallSegment{&ast.Field{Name: "then"}}}
		require.ErrorAs(t, expressionError(afterCall), &ve)
		require.Equal(t, codegen.Structural, ve.Kind)

		indexed := &ast.Call{Callee: &ast.Reference{Segments: []ast.Segment{
			&ast.Field{Name: "list"}, &ast.Index{Key: ast.CallNamed("next")}, &ast.Field{Name: "then"},
		}}}
		require.ErrorAs(t, expressionError(indexed), &ve)
		require.Equal(t, codegen.Structural, ve.Kind)
	})
}

func TestVisitBinary(t *testing.T) {
	cases := []struct {
		op   string
		want string
	}{
		{"+", "a + b"},
		{"<=", "a <= b"},
		{"and", "a and b"},
		{">>>", "a >>> b"},
		{"**", "a ^ b"},
		{"++", "a .. b"},
		{"<>", "a ~= b"},
		{"??", "a == nil and b or a"},
		{"?:", "a or b"},
		{"$$", "__saturnus_operator_dollar_dollar(a, b)"},
		{"|>", "__saturnus_operator_pipe_greater(a, b)"},
		{"!=", "__saturnus_operator_exclamation_equals(a, b)"},
	}
	for _, tc := range cases {
		t.Run(tc.op, func(t *testing.T) {
			require.Equal(t, tc.want, emitExpression(t, ast.Bin(ast.Ref("a"), tc.op, ast.Ref("b"))))
		})
	}

	t.Run("unmapped character", func(t *testing.T) {
		err := expressionError(ast.Bin(ast.Ref("a"), "@", ast.Ref("b")))
		require.ErrorIs(t, err, ErrUnmappedOperator)
	})
	t.Run("missing operand", func(t *testing.T) {
		err := expressionError(&ast.Binary{Left: ast.Ref("a"), Operator: "+"})
		var ve *codegen.VisitError
		require.ErrorAs(t, err, &ve)
		require.Equal(t, codegen.Structural, ve.Kind)
	})
}

func TestVisitUnary(t *testing.T) {
	require.Equal(t, "-x", emitExpression(t, &ast.Unary{Operator: "-", Expr: ast.Ref("x")}))
	require.Equal(t, "not ok", emitExpression(t, &ast.Unary{Operator: "not", Expr: ast.Ref("ok")}))
	require.Equal(t, "#list", emitExpression(t, &ast.Unary{Operator: "#?", Expr: ast.Ref("list")}))

	err := expressionError(&ast.Unary{Operator: "~", Expr: ast.Ref("x")})
	var ve *codegen.VisitError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, codegen.Unsupported, ve.Kind)
}

func TestVisitLiterals(t *testing.T) {
	require.Equal(t, "42", emitExpression(t, ast.Int(42)))
	require.Equal(t, "1.5", emitExpression(t, ast.Float(1.5)))
	require.Equal(t, "2", emitExpression(t, ast.Float(2)))
	require.Equal(t, `"a\nb"`, emitExpression(t, ast.Str("a\nb")))
	require.Equal(t, "nil", emitExpression(t, &ast.Unit{}))
	require.Equal(t, "{_0 = 1, _1 = \"two\"}", emitExpression(t, &ast.Tuple{Elements: []ast.Expression{ast.Int(1), ast.Str("two")}}))
	require.Equal(t, "{1, 2}", emitExpression(t, &ast.Vector{Elements: []ast.Expression{ast.Int(1), ast.Int(2)}}))
	require.Equal(t, "{}", emitExpression(t, &ast.Vector{}))
	require.Equal(t, "(a + b)", emitExpression(t, &ast.Wrapped{Expr: ast.Bin(ast.Ref("a"), "+", ast.Ref("b"))}))
	require.Equal(t, "__modules__.json", emitExpression(t, &ast.UseExpression{Module: "json"}))
}

func TestVisitTable(t *testing.T) {
	tbl := &ast.Table{Entries: []ast.TableEntry{
		{Name: "a", Value: ast.Int(1)},
		{Name: "b"},
		{Key: ast.Str("k"), Value: ast.Int(2)},
		{Name: "end", Value: ast.Int(3)},
		{Key: ast.Ref("x"), Value: nil},
	}}
	require.Equal(t, `{a = 1, b = b, ["k"] = 2, ["end"] = 3, [x] = nil}`, emitExpression(t, tbl))
}

func TestVisitDo(t *testing.T) {
	do := &ast.Do{Body: []ast.Statement{&ast.Return{Value: ast.Int(1)}}}
	out := emitExpression(t, do)
	require.Equal(t, "(function(...)\n  return 1;\nend)(...)", out)
	require.Equal(t, lua.LNumber(1), runLua(t, "return "+out))
}

func TestVisitIf(t *testing.T) {
	stmt := &ast.If{
		Condition: ast.Bin(ast.Ref("x"), ">", ast.Int(0)),
		Body:      []ast.Statement{&ast.Return{Value: ast.Str("pos")}},
		Branches: []ast.ElseIf{{
			Condition: ast.Bin(ast.Ref("x"), "<", ast.Int(0)),
			Body:      []ast.Statement{&ast.Return{Value: ast.Str("neg")}},
		}},
		Else: []ast.Statement{&ast.Return{Value: ast.Str("zero")}},
	}
	want := "if x > 0 then\n" +
		"  return \"pos\";\n" +
		"elseif x < 0 then\n" +
		"  return \"neg\";\n" +
		"else\n" +
		"  return \"zero\";\n" +
		"end"
	require.Equal(t, want, emitStatements(t, stmt))

	noElse := emitStatements(t, &ast.If{Condition: ast.Ref("ok"), Body: []ast.Statement{&ast.Return{}}})
	require.Equal(t, "if ok then\n  return;\nend", noElse)
}

func TestVisitLoops(t *testing.T) {
	t.Run("for", func(t *testing.T) {
		out := emitStatements(t, &ast.For{
			Handler:  ast.Target{Name: "item"},
			Iterable: ast.CallNamed("items"),
			Body:     []ast.Statement{&ast.ExpressionStatement{Expr: ast.CallNamed("print", ast.Ref("item"))}},
		})
		require.Equal(t, "for item in items() do\n  print(item);\nend", out)
	})
	t.Run("for destructuring", func(t *testing.T) {
		out := emitStatements(t, &ast.For{
			Handler: ast.Target{Destructure: &ast.Destructuring{
				Names: []string{"k", "v"}, Origin: ast.DestructureTuple,
			}},
			Iterable: ast.CallNamed("entries", ast.Ref("t")),
		})
		require.Equal(t, "for __destructure__ in entries(t) do\n"+
			"  local k, v;\n"+
			"  k = __destructure__._0;\n"+
			"  v = __destructure__._1;\n"+
			"end", out)
	})
	t.Run("while", func(t *testing.T) {
		out := emitStatements(t, &ast.While{
			Condition: ast.Bin(ast.Ref("i"), "<", ast.Int(10)),
			Body:      []ast.Statement{&ast.Assignment{Target: ast.Ref("i"), Operator: "+", Value: ast.Int(1)}},
		})
		require.Equal(t, "while i < 10 do\n  i = i + 1;\nend", out)
	})
	t.Run("while let", func(t *testing.T) {
		out := emitStatements(t, &ast.While{
			Let:  &ast.Let{Target: ast.Target{Name: "line"}, Value: ast.CallNamed("next_line")},
			Body: []ast.Statement{&ast.ExpressionStatement{Expr: ast.CallNamed("print", ast.Ref("line"))}},
		})
		require.Equal(t, "do\n"+
			"  local line = next_line();\n"+
			"  while line do\n"+
			"    print(line);\n"+
			"    line = next_line();\n"+
			"  end\n"+
			"end", out)
	})
	t.Run("while let destructuring", func(t *testing.T) {
		err := statementError(&ast.While{Let: &ast.Let{
			Target: ast.Target{Destructure: &ast.Destructuring{Names: []string{"a"}, Origin: ast.DestructureArray}},
			Value:  ast.Ref("x"),
		}})
		var ve *codegen.VisitError
		require.ErrorAs(t, err, &ve)
		require.Equal(t, codegen.Structural, ve.Kind)
	})
	t.Run("loop", func(t *testing.T) {
		out := emitStatements(t, &ast.Loop{Body: []ast.Statement{&ast.ExpressionStatement{Expr: ast.CallNamed("tick")}}})
		require.Equal(t, "while true do\n  tick();\nend", out)
	})
}

func TestVisitMatch(t *testing.T) {
	err := statementError(&ast.Match{Target: ast.Ref("x"), Arms: []ast.MatchArm{{Pattern: ast.Int(1), Result: ast.Str("one")}}})
	require.ErrorIs(t, err, codegen.ErrMatchUnsupported)
}

func TestVisitFunction(t *testing.T) {
	t.Run("body and decorators", func(t *testing.T) {
		out := emitStatements(t, &ast.Function{
			Name:       "add",
			Arguments:  ast.Args("a", "b"),
			Decorators: []ast.Decorator{{Target: ast.Ref("memo")}, {Target: ast.CallNamed("trace", ast.Str("add"))}},
			Body:       []ast.Statement{&ast.Return{Value: ast.Bin(ast.Ref("a"), "+", ast.Ref("b"))}},
		})
		require.Equal(t, "local function add(a, b, ...)\n"+
			"  return a + b;\n"+
			"end\n"+
			"memo(add, \"add\");\n"+
			"trace(\"add\")(add, \"add\");", out)
	})
	t.Run("native", func(t *testing.T) {
		out := emitStatements(t, &ast.Function{
			Name: "now",
			Native: []ast.NativeSource{
				{Language: "JavaScript", Source: "return Date.now()"},
				{Language: "Lua", Source: "return 7"},
			},
		})
		require.Equal(t, "local function now(...)\n"+
			"  -- NATIVE CODE\n"+
			"  return 7\n"+
			"  -- NATIVE CODE\n"+
			"end", out)
		require.Equal(t, lua.LNumber(7), runLua(t, out+"\nreturn now()"))
	})
	t.Run("native missing", func(t *testing.T) {
		out := emitStatements(t, &ast.Function{Name: "now", Native: []ast.NativeSource{}})
		assertContains(t, out, "error('Native function implementation not found')")
	})
}

func TestVisitClass(t *testing.T) {
	class := &ast.Class{
		Name:       "Point",
		Decorators: []ast.Decorator{{Target: ast.Ref("register")}},
		Fields: []ast.ClassField{
			&ast.Let{Target: ast.Target{Name: "x"}, Value: ast.Int(0)},
			&ast.Let{Target: ast.Target{Name: "label"}},
			&ast.Function{
				Name:       "norm",
				Arguments:  ast.Args("self"),
				Decorators: []ast.Decorator{{Target: ast.Ref("cached")}},
				Body:       []ast.Statement{&ast.Return{Value: ast.Bin(ast.Ref("self", "x"), "*", ast.Int(2))}},
			},
			&ast.Function{
				Name:       "new",
				Arguments:  ast.Args("x"),
				Decorators: []ast.Decorator{{Target: ast.Ref("cached")}},
				Body: []ast.Statement{&ast.Return{Value: ast.CallNamed("Point",
					&ast.Table{Entries: []ast.TableEntry{{Name: "x"}}})}},
			},
		},
	}
	out := emitStatements(t, class)

	require.True(t, strings.HasPrefix(out, "local Point = {};\n"+
		"Point.__meta__ = {};\n"+
		"Point.__meta__.__call = function(self, struct)\n"+
		"  return setmetatable(struct, self.prototype.__meta__);\n"+
		"end;\n"+
		"Point.prototype = {};\n"+
		"Point.prototype.__meta__ = {};\n"+
		"Point.prototype.__meta__.__index = Point.prototype;\n"+
		"setmetatable(Point, Point.__meta__);\n"), out)
	assertContains(t, out, "Point.prototype.x = 0;")
	assertContains(t, out, "Point.prototype.label = nil;")
	assertContains(t, out, "Point.prototype.norm = function(self, ...)\n  return self.x * 2;\nend;")
	assertContains(t, out, "Point.new = function(x, ...)")
	assertContains(t, out, `cached(Point.prototype.norm, "norm", Point, "Point", { is_static = false });`)
	assertContains(t, out, `cached(Point.new, "new", Point, "Point", { is_static = true });`)
	require.True(t, strings.HasSuffix(out, `register(Point, "Point");`), out)

	script := "local function register() end\n" +
		"local function cached() end\n" +
		out + "\n" +
		"local p = Point.new(21)\n" +
		"assert(getmetatable(p).__index == Point.prototype)\n" +
		"assert(rawget(Point, 'norm') == nil)\n" +
		"return p:norm()"
	require.Equal(t, lua.LNumber(42), runLua(t, script))
}

func TestVisitClass_DestructuringField(t *testing.T) {
	err := statementError(&ast.Class{Name: "C", Fields: []ast.ClassField{
		&ast.Let{Target: ast.Target{Destructure: &ast.Destructuring{Names: []string{"a"}, Origin: ast.DestructureTable}}},
	}})
	var ve *codegen.VisitError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, codegen.Structural, ve.Kind)
}

func TestVisitModulesAndMacros(t *testing.T) {
	require.Equal(t, "local json = __modules__.json;", emitStatements(t, &ast.Use{Module: "json"}))

	def := &ast.MacroDefinition{Function: &ast.Function{Name: "derive", Arguments: ast.Args("node")}}
	require.Equal(t, "local function derive(node, ...)\nend", emitStatements(t, def))

	decorated := &ast.MacroDecorator{
		Macros: []ast.MacroInvocation{{Name: "derive"}},
		Target: &ast.Let{Target: ast.Target{Name: "x"}, Value: ast.Int(1)},
	}
	require.Equal(t, "local x = 1;", emitStatements(t, decorated))
}

func TestVisitStatement_Nil(t *testing.T) {
	var ve *codegen.VisitError
	require.ErrorAs(t, statementError(ast.Statement(nil)), &ve)
	require.ErrorAs(t, statementError(&ast.ExpressionStatement{}), &ve)
}
