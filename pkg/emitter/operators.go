package emitter

import (
	"errors"
	"fmt"
	"strings"
)

// OperatorPrefix starts the name of every function generated for an
// operator without a native Lua spelling.
const OperatorPrefix = "__saturnus_operator_"

// ErrUnmappedOperator is returned when an operator contains a character
// with no entry in the operator word table.
var ErrUnmappedOperator = errors.New("emitter: operator character has no function name mapping")

// nativeOperators maps source operators to the Lua operator emitted
// between the two operands.
var nativeOperators = map[string]string{
	// math
	"+":  "+",
	"-":  "-",
	"*":  "*",
	"/":  "/",
	"%":  "%",
	"**": "^",
	// comparison
	">":  ">",
	">=": ">=",
	"<":  "<",
	"<=": "<=",
	"==": "==",
	"<>": "~=",
	// logic
	"not": "not",
	"and": "and",
	"or":  "or",
	// bitwise
	"&":   "&",
	"|":   "|",
	"<<":  "<<",
	"<<<": "<<<",
	">>":  ">>",
	">>>": ">>>",
	// strings
	"++": "..",
}

var operatorWords = map[rune]string{
	'+': "plus",
	'-': "minus",
	'*': "times",
	'/': "slash",
	'.': "dot",
	'|': "pipe",
	'>': "greater",
	'<': "less",
	'=': "equals",
	'?': "interrogation",
	'!': "exclamation",
	'~': "tilde",
	'%': "percent",
	'&': "ampersand",
	'#': "bang",
	'$': "dollar",
	'^': "power",
	':': "colon",
}

// OperatorFunctionName returns the function a custom operator lowers to,
// one word per character:
//
//	$$   => __saturnus_operator_dollar_dollar
//	|>   => __saturnus_operator_pipe_greater
func OperatorFunctionName(op string) (string, error) {
	words := make([]string, 0, len(op))
	for _, ch := range op {
		w, ok := operatorWords[ch]
		if !ok {
			return "", fmt.Errorf("%w: %q in operator %q", ErrUnmappedOperator, ch, op)
		}
		words = append(words, w)
	}
	return OperatorPrefix + strings.Join(words, "_"), nil
}
