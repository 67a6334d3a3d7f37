package codegen

import "fmt"

// ErrorKind classifies a VisitError.
type ErrorKind int

const (
	// Structural means the input tree has a shape no backend can render.
	Structural ErrorKind = iota
	// Unsupported means the backend has no rule for a node kind or operator.
	Unsupported
)

func (k ErrorKind) String() string {
	switch k {
	case Structural:
		return "structural"
	case Unsupported:
		return "unsupported"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// VisitError stops code generation for the current program.
type VisitError struct {
	Kind   ErrorKind
	Reason string
}

func (e *VisitError) Error() string {
	return fmt.Sprintf("%s construct: %s", e.Kind, e.Reason)
}

// Is matches another *VisitError of the same kind and reason, so wrapped
// sentinels compare with errors.Is.
func (e *VisitError) Is(target error) bool {
	t, ok := target.(*VisitError)
	return ok && t.Kind == e.Kind && t.Reason == e.Reason
}

var (
	// ErrIndexedFirstSegment is returned for a reference that starts with an index access.
	ErrIndexedFirstSegment = &VisitError{
		Kind:   Structural,
		Reason: "reference starts with an index access; wrap the indexed value in parentheses",
	}
	// ErrStaticSegmentPosition is returned for a static access anywhere but the end of a call target.
	ErrStaticSegmentPosition = &VisitError{
		Kind:   Structural,
		Reason: "static access is only valid as the last segment of a call target",
	}
	// ErrEmptyReference is returned for a reference with no segments.
	ErrEmptyReference = &VisitError{Kind: Structural, Reason: "reference has no segments"}
	// ErrMatchUnsupported is returned for any match statement.
	ErrMatchUnsupported = &VisitError{Kind: Unsupported, Reason: "match code generation is not implemented"}
)

// Structuralf reports malformed input.
func Structuralf(format string, args ...any) error {
	return &VisitError{Kind: Structural, Reason: fmt.Sprintf(format, args...)}
}

// Unsupportedf reports a construct the backend cannot render.
func Unsupportedf(format string, args ...any) error {
	return &VisitError{Kind: Unsupported, Reason: fmt.Sprintf(format, args...)}
}
