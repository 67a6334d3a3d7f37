// Package macro runs compile time macros. Macros are ordinary functions
// rendered to Lua and evaluated in a sandboxed interpreter against the
// serialized statement they decorate.
package macro

import (
	"context"
	"errors"
	"time"

	"github.com/op/go-logging"
	lua "github.com/yuin/gopher-lua"

	"saturnus/pkg/ast"
	"saturnus/pkg/codegen"
)

var log = logging.MustGetLogger("macro")

// Compiled is one entry of the macro table.
type Compiled struct {
	Definition *ast.Function
	// Code is the Lua rendering of Definition.
	Code string
}

// ResultSink receives what a macro invocation returned. It is called once
// per invocation, in source order.
type ResultSink interface {
	Capture(inv *ast.MacroInvocation, target ast.Statement, results []lua.LValue) error
}

type discard struct{}

func (discard) Capture(*ast.MacroInvocation, ast.Statement, []lua.LValue) error { return nil }

// Discard drops every result. Decorated statements pass through unchanged.
var Discard ResultSink = discard{}

// Expander owns the macro table for one compilation run.
type Expander struct {
	emitter codegen.Visitor
	indent  string
	macros  map[string]*Compiled

	// Sink receives macro results. Defaults to Discard.
	Sink ResultSink
	// Timeout bounds each invocation when non-zero.
	Timeout time.Duration
}

// NewExpander returns an expander with an empty macro table that renders
// macros with emitter.
func NewExpander(emitter codegen.Visitor, indent string) *Expander {
	return &Expander{
		emitter: emitter,
		indent:  indent,
		macros:  make(map[string]*Compiled),
		Sink:    Discard,
	}
}

// Lookup returns the compiled macro registered under name.
func (x *Expander) Lookup(name string) (*Compiled, bool) {
	m, ok := x.macros[name]
	return m, ok
}

// Len reports the number of registered macros.
func (x *Expander) Len() int { return len(x.macros) }

func (x *Expander) render(s ast.Statement) (string, error) {
	b := codegen.NewBuilder(x.indent)
	if err := codegen.VisitStatement(x.emitter, b, s); err != nil {
		return "", err
	}
	return b.Collect(), nil
}

// Compile registers every macro definition in p, at any depth, and returns
// p without them. A later definition replaces an earlier one of the same
// name. Any rendering failure aborts the whole phase.
func (x *Expander) Compile(p *ast.Program) (*ast.Program, error) {
	w := walker{fn: func(s ast.Statement) (ast.Statement, bool, error) {
		def, ok := s.(*ast.MacroDefinition)
		if !ok {
			return s, false, nil
		}
		return nil, true, x.register(def)
	}}
	stmts, _, err := w.block(p.Statements)
	if err != nil {
		return nil, err
	}
	return &ast.Program{Statements: stmts}, nil
}

func (x *Expander) register(def *ast.MacroDefinition) error {
	if def.Function == nil {
		return &Error{Kind: InvalidCode, Err: codegen.Structuralf("macro definition without a function")}
	}
	name := def.Function.Name
	code, err := x.render(def.Function)
	if err != nil {
		return &Error{Kind: InvalidCode, Name: name, Err: err}
	}
	if _, exists := x.macros[name]; exists {
		log.Debugf("macro %s redefined", name)
	}
	x.macros[name] = &Compiled{Definition: def.Function, Code: code}
	log.Debugf("compiled macro %s", name)
	return nil
}

// Expand runs the macros decorating each statement of p, including those
// nested in function, class and control flow bodies, and returns the
// program with the decorators removed. Statements without macros are kept
// as they are. One sandbox serves the whole call.
func (x *Expander) Expand(ctx context.Context, p *ast.Program) (*ast.Program, error) {
	var L *lua.LState
	defer func() {
		if L != nil {
			L.Close()
		}
	}()

	w := walker{fn: func(s ast.Statement) (ast.Statement, bool, error) {
		for {
			dec, ok := s.(*ast.MacroDecorator)
			if !ok {
				return s, false, nil
			}
			if L == nil {
				var err error
				if L, err = newSandbox(); err != nil {
					return nil, false, &Error{Kind: Unknown, Err: err}
				}
			}
			for i := range dec.Macros {
				if err := x.invoke(ctx, L, &dec.Macros[i], dec.Target); err != nil {
					return nil, false, err
				}
			}
			s = dec.Target
		}
	}}
	stmts, _, err := w.block(p.Statements)
	if err != nil {
		return nil, err
	}
	return &ast.Program{Statements: stmts}, nil
}

func (x *Expander) invoke(ctx context.Context, L *lua.LState, inv *ast.MacroInvocation, target ast.Statement) error {
	m, ok := x.macros[inv.Name]
	if !ok {
		return &Error{Kind: NotDefined, Name: inv.Name}
	}

	arg, err := ast.Serialize(target)
	if err != nil {
		return &Error{Kind: Unknown, Name: inv.Name, Err: err}
	}
	call, err := x.render(&ast.Return{Value: ast.CallNamed(inv.Name, arg)})
	if err != nil {
		return &Error{Kind: InvalidCode, Name: inv.Name, Err: err}
	}

	if x.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.Timeout)
		defer cancel()
	}
	log.Debugf("expanding macro %s on %s", inv.Name, target)
	results, err := run(ctx, L, m.Code+call)
	if err != nil {
		var load *errLoad
		if errors.As(err, &load) {
			return &Error{Kind: InvalidCode, Name: inv.Name, Err: load.err}
		}
		return &Error{Kind: ExpansionTime, Name: inv.Name, Err: err}
	}

	sink := x.Sink
	if sink == nil {
		sink = Discard
	}
	if err := sink.Capture(inv, target, results); err != nil {
		return &Error{Kind: ExpansionTime, Name: inv.Name, Err: err}
	}
	return nil
}
