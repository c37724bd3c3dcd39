// Package loader decodes the .amac binary container into an in-memory
// module tree and implements the module-initialization protocol:
// builtin modules copy their registered exports into globals, user
// modules insert each of their function descriptors keyed by name, and
// imports are threaded together into a dependency-ordered DAG.
package loader

import (
	"fmt"

	"github.com/amanda-lang/amanda-vm/pkg/value"
)

// Module is a compilation unit: its own constants, names, code, function
// table, record schemas, source map, and mutable globals. Modules formed
// by import declarations are held in Imports, in the order they must be
// initialized (dependency order, supplied by the compiler).
type Module struct {
	Name    string
	Builtin bool

	Constants []value.Value
	Names     []string
	Code      []byte
	Main      *value.Func
	Functions []*value.Func
	Records   []*value.RecordSchema
	// SrcMap is a flat array of (start, end, line) triples.
	SrcMap []int64

	Globals map[string]value.Value
	Imports []*Module
}

// BuiltinExports maps a builtin module name (e.g. "embutidos", "mat") to
// its name -> Value export table.
type BuiltinExports map[string]map[string]value.Value

// Initialize runs a module's initialize pass exactly once: builtin
// modules copy their registered exports into Globals; user modules insert
// each of their function descriptors keyed by name so later GetGlobal
// lookups resolve to a callable Func value.
func (m *Module) Initialize(builtins BuiltinExports) error {
	m.Globals = make(map[string]value.Value)
	if m.Builtin {
		exports, ok := builtins[m.Name]
		if !ok {
			return fmt.Errorf("loader: no builtin module registered for %q", m.Name)
		}
		for name, v := range exports {
			m.Globals[name] = v
		}
		return nil
	}
	for _, fn := range m.Functions {
		m.Globals[fn.Name] = *fn
	}
	return nil
}

// OffsetToLine scans the flat (start, end, line) triples in SrcMap and
// returns the line whose range covers offset, or 0 if none match.
func (m *Module) OffsetToLine(offset int) int {
	return OffsetToLine(offset, m.SrcMap)
}

// OffsetToLine is the free-function form, usable directly against a raw
// source map without a Module (e.g. from tests).
func OffsetToLine(offset int, srcMap []int64) int {
	o := int64(offset)
	for i := 0; i+3 <= len(srcMap); i += 3 {
		start, end, line := srcMap[i], srcMap[i+1], srcMap[i+2]
		if start <= o && o <= end {
			return int(line)
		}
	}
	return 0
}
