// Package compiler turns a parsed Saturnus program into Lua source.
//
// Pipeline: Program → prelude → macro compile → macro expand → Lua text
package compiler
