package codegen

import (
	"errors"
	"strings"
)

// ErrIndentUnderflow is returned by Pop when no indentation level is open.
// It means a visit closed more blocks than it opened.
var ErrIndentUnderflow = errors.New("codegen: pop on zero indentation depth")

// Builder accumulates target source text and tracks the indentation depth
// of the line being written. It knows nothing about the AST.
//
// A Builder belongs to exactly one traversal. Sub-renders that must not
// touch the outer output use CloneLike.
type Builder struct {
	indent string
	depth  int
	out    strings.Builder
}

// NewBuilder returns an empty builder that indents with unit, for example
// "  " or "\t".
func NewBuilder(unit string) *Builder {
	return &Builder{indent: unit}
}

// Put appends text to the current line.
func (b *Builder) Put(text string) *Builder {
	b.out.WriteString(text)
	return b
}

// Line starts a new line at the current depth.
func (b *Builder) Line() *Builder {
	b.out.WriteByte('\n')
	b.out.WriteString(strings.Repeat(b.indent, b.depth))
	return b
}

// Push opens an indentation level for lines started afterwards.
func (b *Builder) Push() *Builder {
	b.depth++
	return b
}

// Pop closes the innermost indentation level.
func (b *Builder) Pop() error {
	if b.depth == 0 {
		return ErrIndentUnderflow
	}
	b.depth--
	return nil
}

// Indented runs fn one level deeper and restores the depth afterwards,
// whether fn fails or not.
func (b *Builder) Indented(fn func() error) error {
	depth := b.depth
	b.depth++
	err := fn()
	b.depth = depth
	return err
}

// Depth reports the number of open indentation levels.
func (b *Builder) Depth() int { return b.depth }

// CloneLike returns an empty builder with the same indentation unit and
// depth zero.
func (b *Builder) CloneLike() *Builder {
	return NewBuilder(b.indent)
}

// Collect returns the accumulated text and resets the builder.
func (b *Builder) Collect() string {
	s := b.out.String()
	b.out.Reset()
	b.depth = 0
	return s
}
