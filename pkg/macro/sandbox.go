package macro

import (
	"context"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

var sandboxLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// Globals removed after the libraries are open. Macros get no file or
// module loading.
var sandboxRemoved = []string{"dofile", "loadfile", "require", "module"}

// newSandbox returns an interpreter with only the pure libraries loaded and
// print routed to the package logger at NOTICE.
func newSandbox() (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range sandboxLibs {
		err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name))
		if err != nil {
			L.Close()
			return nil, fmt.Errorf("opening %s library: %w", lib.name, err)
		}
	}
	for _, name := range sandboxRemoved {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("print", L.NewFunction(sandboxPrint))
	return L, nil
}

func sandboxPrint(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	log.Noticef("%s", strings.Join(parts, "\t"))
	return 0
}

// errLoad marks failures to load a chunk, as opposed to failures while
// running it.
type errLoad struct{ err error }

func (e *errLoad) Error() string { return e.err.Error() }
func (e *errLoad) Unwrap() error { return e.err }

// run loads and evaluates code, returning every value the chunk returns.
// Cancelling ctx aborts the evaluation.
func run(ctx context.Context, L *lua.LState, code string) ([]lua.LValue, error) {
	fn, err := L.LoadString(code)
	if err != nil {
		return nil, &errLoad{err}
	}

	if ctx.Done() != nil {
		L.SetContext(ctx)
		defer L.RemoveContext()
	}

	base := L.GetTop()
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		L.SetTop(base)
		return nil, err
	}
	results := make([]lua.LValue, 0, L.GetTop()-base)
	for i := base + 1; i <= L.GetTop(); i++ {
		results = append(results, L.Get(i))
	}
	L.SetTop(base)
	return results, nil
}
