package compiler

import (
	"context"
	"fmt"
	"time"

	"github.com/op/go-logging"

	"saturnus/pkg/ast"
	"saturnus/pkg/emitter"
	"saturnus/pkg/macro"
)

var log = logging.MustGetLogger("compiler")

// Prelude returns the statements placed before every program: the module
// root and, unless NoStd is set, the std module.
func Prelude(opts *Options) []ast.Statement {
	stmts := []ast.Statement{
		&ast.Let{Target: ast.Target{Name: emitter.ModulesRoot}, Value: &ast.Table{}},
	}
	if !opts.NoStd {
		stmts = append(stmts, &ast.Assignment{
			Target: ast.Ref(emitter.ModulesRoot, "std"),
			Value:  StdModule(),
		})
	}
	return stmts
}

// WithPrelude returns a new program with the prelude ahead of p's statements.
func WithPrelude(p *ast.Program, opts *Options) *ast.Program {
	stmts := Prelude(opts)
	return &ast.Program{Statements: append(stmts, p.Statements...)}
}

// Expand adds the prelude and runs both macro phases.
func Expand(ctx context.Context, p *ast.Program, opts *Options) (*ast.Program, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	x := macro.NewExpander(emitter.New(), opts.IndentUnit())
	x.Timeout = time.Duration(opts.MacroTimeout)
	if opts.Sink != nil {
		x.Sink = opts.Sink
	}

	prog := WithPrelude(p, opts)
	log.Debugf("compiling macros over %d statements", len(prog.Statements))
	prog, err := x.Compile(prog)
	if err != nil {
		return nil, err
	}
	log.Debugf("%d macros defined", x.Len())
	prog, err = x.Expand(ctx, prog)
	if err != nil {
		return nil, err
	}
	return prog, nil
}

// Compile renders p as Lua. Nothing is returned unless every stage
// succeeds.
func Compile(ctx context.Context, p *ast.Program, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	prog, err := Expand(ctx, p, opts)
	if err != nil {
		return "", err
	}
	out, err := emitter.Emit(prog, opts.IndentUnit())
	if err != nil {
		return "", fmt.Errorf("codegen error: %w", err)
	}
	log.Debugf("emitted %d bytes", len(out))
	return out, nil
}
