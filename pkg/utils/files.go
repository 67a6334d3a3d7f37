package utils

import (
	"path/filepath"
	"strings"
)

// LuaExt is the extension of compiled output files.
const LuaExt = ".lua"

// OutputPath returns explicit when set, otherwise input with its extension
// replaced by ".lua".
func OutputPath(input, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + LuaExt
}
