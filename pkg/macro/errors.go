package macro

import "fmt"

// ErrorKind classifies a macro Error.
type ErrorKind int

const (
	Unknown ErrorKind = iota
	// InvalidCode means a macro body could not be rendered or loaded.
	InvalidCode
	// NotDefined means an invocation named a macro missing from the table.
	NotDefined
	// ExpansionTime means the macro failed while running in the sandbox.
	ExpansionTime
)

func (k ErrorKind) String() string {
	switch k {
	case Unknown:
		return "unknown"
	case InvalidCode:
		return "invalid code"
	case NotDefined:
		return "not defined"
	case ExpansionTime:
		return "expansion time"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is returned by Compile and Expand. Name is the macro involved,
// when there is one.
type Error struct {
	Kind ErrorKind
	Name string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == NotDefined:
		return fmt.Sprintf("macro %q is not defined", e.Name)
	case e.Name == "" && e.Err != nil:
		return fmt.Sprintf("macro error (%s): %v", e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("macro %q (%s): %v", e.Name, e.Kind, e.Err)
	}
	return fmt.Sprintf("macro %q (%s)", e.Name, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, and by name when the target has one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Name == "" || t.Name == e.Name)
}
