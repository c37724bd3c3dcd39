// Package value implements Amanda's runtime value representation: a tagged
// sum of primitive and heap-allocated variants, the arithmetic and
// coercion rules that act on them, and their display (print) form.
//
// Primitives (Int, Real, Bool, Str, None, Type, Func, NativeFn) are held
// inline — a Value holding one of these never touches the allocator.
// Composites (Vector, RecordInstance, Variant payloads) are shared,
// interior-mutable handles from pkg/alloc: copying the Value copies the
// handle, not the underlying sequence or field map, so two locals can
// alias the same vector and observe each other's writes.
package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/amanda-lang/amanda-vm/pkg/alloc"
)

// Value is any runtime value the VM can hold on its operand stack, in a
// local slot, or in a module's globals table. It is a closed set: the
// concrete types below are the only implementations, enforced by the
// unexported marker method.
type Value interface {
	valueTag()
}

// Type names the primitive type of a Value. It is itself a first-class
// Value variant (wrapped in TypeVal) so builtins like vec() can accept a
// type as an ordinary argument.
type Type int

const (
	TypeInt Type = iota
	TypeReal
	TypeBool
	TypeTexto
	TypeVector
	TypeFunc
	TypeRecord
	TypeNone
)

// Name returns the Portuguese type name used in cast/type-check error
// messages.
func (t Type) Name() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeReal:
		return "real"
	case TypeBool:
		return "bool"
	case TypeTexto:
		return "texto"
	case TypeVector:
		return "vector"
	case TypeFunc:
		return "função"
	case TypeRecord:
		return "registo"
	case TypeNone:
		return "nulo"
	default:
		return "desconhecido"
	}
}

// Int is a signed 64-bit integer value.
type Int int64

// Real is an IEEE-754 double.
type Real float64

// Bool is a boolean value.
type Bool bool

// Str is a UTF-8 string, indexed by extended grapheme cluster rather than
// byte or rune offset (see IndexString/GraphemeLen below).
type Str string

// None is the unit/null value. It has exactly one inhabitant.
type NoneVal struct{}

// None is the canonical (and only) None value.
var None = NoneVal{}

// TypeVal carries a Type as a first-class runtime value.
type TypeVal struct {
	T Type
}

// Func describes a user-defined function: a call target plus the state
// needed to resume the caller and report errors.
//
// StartIP is the function's entry address within its owning module's
// code. IP and LastI track execution progress (LastI is the byte offset
// of the most recently dispatched opcode, used for source-line mapping on
// error). BP is the base pointer into the operand stack for the
// function's locals, or -1 before the function has been called. Locals is
// the number of local slots the function reserves (including arguments).
type Func struct {
	Name    string
	Module  string
	StartIP int
	IP      int
	LastI   int
	BP      int
	Locals  int
}

// NativeFn is a host-implemented (builtin) function.
type NativeFn struct {
	Name string
	Fn   func(args []Value, a *alloc.Allocator) (Value, error)
}

// Vector is a shared handle to a resizable sequence of Values.
type Vector struct {
	H *alloc.Handle[[]Value]
}

// NewVector allocates a fresh Vector wrapping elems (elems is taken by
// reference, not copied again).
func NewVector(a *alloc.Allocator, elems []Value) Vector {
	return Vector{H: alloc.Allocate(a, elems)}
}

// Len returns the number of elements.
func (v Vector) Len() int { return len(v.H.Get()) }

// Get returns the element at idx without bounds checking; callers use
// VecIndexCheck first.
func (v Vector) Get(idx int) Value { return v.H.Get()[idx] }

// Set writes the element at idx without bounds checking.
func (v Vector) Set(idx int, val Value) {
	s := v.H.Get()
	s[idx] = val
}

// Append grows the vector by one element.
func (v Vector) Append(val Value) {
	v.H.Set(append(v.H.Get(), val))
}

// RemoveAt removes and returns the element at idx without bounds checking.
func (v Vector) RemoveAt(idx int) Value {
	s := v.H.Get()
	removed := s[idx]
	v.H.Set(append(s[:idx], s[idx+1:]...))
	return removed
}

// RecordSchema is a record type's name and ordered field list, owned by
// the module that declares it and referenced by identity everywhere else.
type RecordSchema struct {
	Name   string
	Fields []string
}

// Record is a reference to a record schema (the Value pushed by
// LoadRecord, consumed by BuildObj).
type Record struct {
	Schema *RecordSchema
}

// recordState is the payload behind a RecordInstance handle.
type recordState struct {
	Schema *RecordSchema
	Fields map[string]Value
}

// RecordInstance is a shared handle to a field-name -> Value mapping
// tagged with the schema it was built from.
type RecordInstance struct {
	H *alloc.Handle[recordState]
}

// NewRecordInstance allocates a record instance for schema, seeded from
// fields.
func NewRecordInstance(a *alloc.Allocator, schema *RecordSchema, fields map[string]Value) RecordInstance {
	return RecordInstance{H: alloc.Allocate(a, recordState{Schema: schema, Fields: fields})}
}

// Schema returns the instance's originating schema.
func (r RecordInstance) Schema() *RecordSchema { return r.H.Get().Schema }

// GetField looks up a field by name. The second return is false if the
// field does not exist (a compiler bug, but checked rather than assumed
// so the VM can raise a fatal error instead of panicking with a
// confusing message).
func (r RecordInstance) GetField(name string) (Value, bool) {
	v, ok := r.H.Get().Fields[name]
	return v, ok
}

// SetField writes a field by name.
func (r RecordInstance) SetField(name string, val Value) {
	r.H.Get().Fields[name] = val
}

// Variant is a sum-type constructor: a numeric tag plus an optional
// shared payload list.
type Variant struct {
	Tag     int64
	Payload *alloc.Handle[[]Value]
}

func (Int) valueTag()            {}
func (Real) valueTag()           {}
func (Bool) valueTag()           {}
func (Str) valueTag()            {}
func (NoneVal) valueTag()        {}
func (TypeVal) valueTag()        {}
func (Func) valueTag()           {}
func (NativeFn) valueTag()       {}
func (Vector) valueTag()         {}
func (Record) valueTag()         {}
func (RecordInstance) valueTag() {}
func (Variant) valueTag()        {}

// GetType returns the primitive Type tag of v. Composite/function variants
// outside the arithmetic rules still answer sensibly so builtins like
// tipo_de (if ever exposed) have something to report.
func GetType(v Value) Type {
	switch v.(type) {
	case Str:
		return TypeTexto
	case Int:
		return TypeInt
	case Real:
		return TypeReal
	case Bool:
		return TypeBool
	case Vector:
		return TypeVector
	case Func, NativeFn:
		return TypeFunc
	case RecordInstance, Record:
		return TypeRecord
	case NoneVal:
		return TypeNone
	default:
		return TypeNone
	}
}

func isFloat(v Value) bool { _, ok := v.(Real); return ok }
func isInt(v Value) bool   { _, ok := v.(Int); return ok }
func isBool(v Value) bool  { _, ok := v.(Bool); return ok }
func isStr(v Value) bool   { _, ok := v.(Str); return ok }

// takeFloat widens an Int or returns a Real's payload. Panics (a fatal
// invariant violation, not a recoverable VM error) if v is neither --
// callers only reach here after binop has already classified the operand
// pair as numeric.
func takeFloat(v Value) float64 {
	switch n := v.(type) {
	case Real:
		return float64(n)
	case Int:
		return float64(n)
	default:
		panic(fmt.Sprintf("value: takeFloat called on non-numeric %T", v))
	}
}

func takeInt(v Value) int64 {
	switch n := v.(type) {
	case Int:
		return int64(n)
	case Real:
		return int64(n)
	default:
		panic(fmt.Sprintf("value: takeInt called on non-numeric %T", v))
	}
}

// Display renders v the way Mostra, escreva/escrevaln, and BuildStr all
// present it to the user.
func Display(v Value) string {
	switch x := v.(type) {
	case Str:
		return string(x)
	case Int:
		return strconv.FormatInt(int64(x), 10)
	case Real:
		f := float64(x)
		if f == float64(int64(f)) {
			return strconv.FormatFloat(f, 'f', 1, 64)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	case Bool:
		if bool(x) {
			return "verdadeiro"
		}
		return "falso"
	case NoneVal:
		return "nulo"
	case Vector:
		elems := x.H.Get()
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = Display(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case RecordInstance:
		return fmt.Sprintf("<Instância do tipo %s>", x.Schema().Name)
	case Variant:
		return fmt.Sprintf("<Variante(%d)>", x.Tag)
	case TypeVal:
		return x.T.Name()
	case Func:
		return fmt.Sprintf("<função %s>", x.Name)
	case NativeFn:
		return fmt.Sprintf("<função nativa %s>", x.Name)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GraphemeLen returns the number of extended grapheme clusters in s --
// the unit tam() counts and OpIndexGet/OpIndexSet index by.
func GraphemeLen(s Str) int {
	return uniseg.GraphemeClusterCount(string(s))
}

// graphemes splits s into its extended grapheme clusters.
func graphemes(s Str) []string {
	var out []string
	gr := uniseg.NewGraphemes(string(s))
	for gr.Next() {
		out = append(out, gr.Str())
	}
	return out
}

// IndexString returns the grapheme cluster at idx, or an error naming the
// actual length and the attempted index if idx is out of range.
func IndexString(s Str, idx int64) (Str, error) {
	clusters := graphemes(s)
	if idx < 0 || idx >= int64(len(clusters)) {
		return "", fmt.Errorf("Erro de índice inválido. O tamanho da string é %d, mas o índice é %d", len(clusters), idx)
	}
	return Str(clusters[idx]), nil
}
