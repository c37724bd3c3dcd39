// Package builtins implements Amanda's native function library: the
// "embutidos" (I/O, strings, vectors) and "mat" (numeric) builtin
// modules. Each module is a declarative name -> Value table handed to
// pkg/loader's Module.Initialize for a builtin module.
package builtins

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/amanda-lang/amanda-vm/pkg/alloc"
	"github.com/amanda-lang/amanda-vm/pkg/loader"
	"github.com/amanda-lang/amanda-vm/pkg/value"
)

// Registry owns the builtin modules' I/O collaborators and exposes their
// combined export tables. A VM holds exactly one Registry, constructed
// once at startup with the real stdin/stdout; tests construct their own
// with in-memory buffers.
type Registry struct {
	out *bufio.Writer
	in  *bufio.Reader
}

// NewRegistry wires the builtin modules to the given stdout/stdin
// collaborators.
func NewRegistry(stdout io.Writer, stdin io.Reader) *Registry {
	return &Registry{out: bufio.NewWriter(stdout), in: bufio.NewReader(stdin)}
}

// Exports returns every builtin module's name -> Value export table,
// ready to hand to loader.Module.Initialize.
func (r *Registry) Exports() loader.BuiltinExports {
	return loader.BuiltinExports{
		"embutidos": r.embutidosExports(),
		"mat":       matExports(),
	}
}

func native(name string, fn func(args []value.Value, a *alloc.Allocator) (value.Value, error)) value.Value {
	return value.NativeFn{Name: name, Fn: fn}
}

func (r *Registry) embutidosExports() map[string]value.Value {
	return map[string]value.Value{
		"int":   value.TypeVal{T: value.TypeInt},
		"real":  value.TypeVal{T: value.TypeReal},
		"bool":  value.TypeVal{T: value.TypeBool},
		"texto": value.TypeVal{T: value.TypeTexto},
		"PI":    value.Real(3.14159265358979323846),

		"escrevaln":  native("escrevaln", r.escrevaln),
		"escreva":    native("escreva", r.escreva),
		"leia":       native("leia", r.leia),
		"leia_int":   native("leia_int", r.leiaInt),
		"leia_real":  native("leia_real", r.leiaReal),
		"tam":        native("tam", tam),
		"vec":        native("vec", vec),
		"anexa":      native("anexa", anexa),
		"remova":     native("remova", remova),
		"txt_contem": native("txt_contem", txtContem),
	}
}

func (r *Registry) escreva(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	if _, err := r.out.WriteString(value.Display(args[0])); err != nil {
		return nil, err
	}
	if err := r.out.Flush(); err != nil {
		return nil, err
	}
	return value.None, nil
}

func (r *Registry) escrevaln(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	if _, err := r.out.WriteString(value.Display(args[0])); err != nil {
		return nil, err
	}
	if err := r.out.WriteByte('\n'); err != nil {
		return nil, err
	}
	if err := r.out.Flush(); err != nil {
		return nil, err
	}
	return value.None, nil
}

func (r *Registry) leia(args []value.Value, a *alloc.Allocator) (value.Value, error) {
	if _, err := r.escreva(args, a); err != nil {
		return nil, err
	}
	line, err := r.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	return value.Str(line), nil
}

func (r *Registry) leiaInt(args []value.Value, a *alloc.Allocator) (value.Value, error) {
	raw, err := r.leia(args, a)
	if err != nil {
		return nil, err
	}
	n, err := strconv.ParseInt(string(raw.(value.Str)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("Valor introduzido não é um inteiro válido")
	}
	return value.Int(n), nil
}

func (r *Registry) leiaReal(args []value.Value, a *alloc.Allocator) (value.Value, error) {
	raw, err := r.leia(args, a)
	if err != nil {
		return nil, err
	}
	f, err := strconv.ParseFloat(string(raw.(value.Str)), 64)
	if err != nil {
		return nil, fmt.Errorf("Valor introduzido não é um número real válido")
	}
	return value.Real(f), nil
}

func tam(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	switch x := args[0].(type) {
	case value.Str:
		return value.Int(value.GraphemeLen(x)), nil
	case value.Vector:
		return value.Int(x.Len()), nil
	default:
		return nil, fmt.Errorf("builtins: tam called with unsupported type %T", args[0])
	}
}

func txtContem(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	haystack := string(args[0].(value.Str))
	needle := string(args[1].(value.Str))
	return value.Bool(strings.Contains(haystack, needle)), nil
}

// buildVec recursively constructs a k-dimensional vector, matching
// embutidos.rs's build_vec: the innermost dimension is filled with the
// zero value of elType, and every outer dimension wraps (size) freshly
// allocated copies of the inner vector.
func buildVec(a *alloc.Allocator, dim int, dims []int64, elType value.Type) []value.Value {
	size := int(dims[dim])
	if dim == len(dims)-1 {
		cells := make([]value.Value, size)
		for i := range cells {
			cells[i] = zeroValue(elType)
		}
		return cells
	}
	if size == 0 {
		return nil
	}
	cells := make([]value.Value, size)
	for i := range cells {
		cells[i] = value.NewVector(a, buildVec(a, dim+1, dims, elType))
	}
	return cells
}

func zeroValue(t value.Type) value.Value {
	switch t {
	case value.TypeInt:
		return value.Int(0)
	case value.TypeReal:
		return value.Real(0)
	case value.TypeBool:
		return value.Bool(false)
	case value.TypeTexto:
		return value.Str("")
	default:
		panic(fmt.Sprintf("builtins: vec() called with non-primitive element type %v", t))
	}
}

func vec(args []value.Value, a *alloc.Allocator) (value.Value, error) {
	elType := args[0].(value.TypeVal).T
	dimArgs := args[1:]
	dims := make([]int64, len(dimArgs))
	for i, d := range dimArgs {
		n := int64(d.(value.Int))
		if n < 0 {
			return nil, fmt.Errorf("Dimensões de um vector devem ser especificidas por números inteiros positivos")
		}
		dims[i] = n
	}
	cells := buildVec(a, 0, dims, elType)
	return value.NewVector(a, cells), nil
}

func anexa(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	v := args[0].(value.Vector)
	v.Append(args[1])
	return value.None, nil
}

func remova(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	v := args[0].(value.Vector)
	idx := int64(args[1].(value.Int))
	if err := value.VecIndexCheck(v, idx); err != nil {
		return nil, err
	}
	return v.RemoveAt(int(idx)), nil
}
