package loader

import (
	"fmt"

	"github.com/amanda-lang/amanda-vm/pkg/value"
)

// Load decodes a .amac binary container into a *Module. The outer 4-byte
// length prefix is skipped, unverified.
func Load(data []byte) (mod *Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loader: malformed container: %v", r)
		}
	}()
	entries := decodeContainer(data)
	return buildModule(entries, "_main_", false)
}

// decodeContainer strips the outer 4-byte length and decodes the document
// that follows. Used for both the top-level container and any nested
// import container, which carries the same framing.
func decodeContainer(data []byte) []bsonEntry {
	c := &cursor{buf: data, pos: 4}
	return c.decodeDocument()
}

// buildModule assembles a Module from a decoded top-level document. name
// and builtin describe the module being built; builtin modules (whose
// code/constants/functions are supplied by the host rather than the
// binary) still flow through here when they do carry a binary body (e.g.
// an import of a module that itself has user-defined functions).
func buildModule(entries []bsonEntry, name string, builtin bool) (*Module, error) {
	constantsField, ok := findField(entries, "constants")
	if !ok {
		return nil, fmt.Errorf("loader: container missing %q field", "constants")
	}
	constants, err := decodeConstants(asArray(constantsField))
	if err != nil {
		return nil, err
	}

	namesField, ok := findField(entries, "names")
	if !ok {
		return nil, fmt.Errorf("loader: container missing %q field", "names")
	}
	names := decodeNames(asArray(namesField))

	opsField, ok := findField(entries, "ops")
	if !ok {
		return nil, fmt.Errorf("loader: container missing %q field", "ops")
	}
	code := asBytes(opsField)

	entryLocalsField, ok := findField(entries, "entry_locals")
	if !ok {
		return nil, fmt.Errorf("loader: container missing %q field", "entry_locals")
	}
	entryLocals := asInt64(entryLocalsField)

	srcMapField, ok := findField(entries, "src_map")
	if !ok {
		return nil, fmt.Errorf("loader: container missing %q field", "src_map")
	}
	srcMap := decodeSrcMap(asArray(srcMapField))

	functionsField, ok := findField(entries, "functions")
	if !ok {
		return nil, fmt.Errorf("loader: container missing %q field", "functions")
	}
	functions := decodeFunctions(asArray(functionsField), name)

	mod := &Module{
		Name:      name,
		Builtin:   builtin,
		Constants: constants,
		Names:     names,
		Code:      code,
		SrcMap:    srcMap,
		Functions: functions,
		Main: &value.Func{
			Name:    "_inicio_",
			Module:  name,
			StartIP: 0,
			IP:      0,
			LastI:   0,
			BP:      -1,
			Locals:  int(entryLocals),
		},
	}

	if registosField, ok := findField(entries, "registos"); ok {
		mod.Records = decodeRecords(asArray(registosField))
	}

	if importsField, ok := findField(entries, "imports"); ok {
		imports, err := decodeImports(asArray(importsField))
		if err != nil {
			return nil, err
		}
		mod.Imports = imports
	}

	return mod, nil
}

func decodeConstants(arr []bsonValue) ([]value.Value, error) {
	out := make([]value.Value, len(arr))
	for i, raw := range arr {
		switch v := raw.(type) {
		case float64:
			out[i] = value.Real(v)
		case int64:
			out[i] = value.Int(v)
		case string:
			out[i] = value.Str(v)
		default:
			return nil, fmt.Errorf("loader: unsupported constant kind %T at index %d", raw, i)
		}
	}
	return out, nil
}

func decodeNames(arr []bsonValue) []string {
	out := make([]string, len(arr))
	for i, raw := range arr {
		out[i] = asString(raw)
	}
	return out
}

func decodeSrcMap(arr []bsonValue) []int64 {
	out := make([]int64, len(arr))
	for i, raw := range arr {
		out[i] = asInt64(raw)
	}
	return out
}

func decodeFunctions(arr []bsonValue, moduleName string) []*value.Func {
	out := make([]*value.Func, len(arr))
	for i, raw := range arr {
		doc := asDoc(raw)
		name, _ := findField(doc, "name")
		startIP, _ := findField(doc, "start_ip")
		locals, _ := findField(doc, "locals")
		start := int(asInt64(startIP))
		out[i] = &value.Func{
			Name:    asString(name),
			Module:  moduleName,
			StartIP: start,
			IP:      start,
			LastI:   start,
			BP:      -1,
			Locals:  int(asInt64(locals)),
		}
	}
	return out
}

func decodeRecords(arr []bsonValue) []*value.RecordSchema {
	out := make([]*value.RecordSchema, len(arr))
	for i, raw := range arr {
		doc := asDoc(raw)
		name, _ := findField(doc, "name")
		fieldsRaw, _ := findField(doc, "fields")
		fieldNames := decodeNames(asArray(fieldsRaw))
		out[i] = &value.RecordSchema{Name: asString(name), Fields: fieldNames}
	}
	return out
}

func decodeImports(arr []bsonValue) ([]*Module, error) {
	out := make([]*Module, len(arr))
	for i, raw := range arr {
		doc := asDoc(raw)
		nameField, _ := findField(doc, "name")
		moduleField, _ := findField(doc, "module")
		nested := decodeContainer(asBytes(moduleField))
		mod, err := buildModule(nested, asString(nameField), false)
		if err != nil {
			return nil, fmt.Errorf("loader: decoding import %q: %w", asString(nameField), err)
		}
		out[i] = mod
	}
	return out, nil
}
