package value

import (
	"errors"
	"fmt"
	"math"

	"github.com/amanda-lang/amanda-vm/pkg/bytecode"
)

// Sentinel error messages. These are the exact Portuguese strings runtime
// errors carry; the interpreter wraps them with source-line context
// before presenting them to the user (see pkg/vm).
var (
	ErrDivideByZero = errors.New("não pode dividir um número por zero")
	ErrModuloByZero = errors.New("não pode calcular o resto da divisão de um número por zero")
	ErrOverflow     = errors.New("Erro ao realizar operação aritmética. Resultado fora do intervalo de inteiros representáveis")
)

// binOpResult classifies which family of types a binary operation
// resolves to.
type binOpResult int

const (
	resultInt binOpResult = iota
	resultReal
	resultBool
	resultStr
)

func classify(left, right Value) (binOpResult, bool) {
	switch {
	case isFloat(left) || isFloat(right):
		return resultReal, true
	case isInt(left) && isInt(right):
		return resultInt, true
	case isBool(left) && isBool(right):
		return resultBool, true
	case isStr(left) && isStr(right):
		return resultStr, true
	default:
		return 0, false
	}
}

// addOverflows, subOverflows, mulOverflows implement checked 64-bit
// arithmetic: the VM treats overflow as a failure condition, never as
// silent wraparound (see SPEC_FULL.md §9, "Checked arithmetic").
func addOverflows(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, true
	}
	return sum, false
}

func subOverflows(a, b int64) (int64, bool) {
	diff := a - b
	if (b < 0 && diff < a) || (b > 0 && diff > a) {
		return 0, true
	}
	return diff, false
}

func mulOverflows(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, true
	}
	prod := a * b
	if prod/b != a {
		return 0, true
	}
	return prod, false
}

// BinOp evaluates a binary opcode over (left, right). It returns the
// sentinel errors above for division/modulo by zero and
// overflow; any other error indicates a fatal, compiler-guaranteed-absent
// type mismatch and should be treated as an internal invariant violation
// by the caller.
func BinOp(left Value, op bytecode.Opcode, right Value) (Value, error) {
	switch op {
	case bytecode.OpAdd:
		return arith(left, right, func(a, b int64) (int64, bool) { return addOverflows(a, b) }, func(a, b float64) float64 { return a + b })
	case bytecode.OpMinus:
		return arith(left, right, func(a, b int64) (int64, bool) { return subOverflows(a, b) }, func(a, b float64) float64 { return a - b })
	case bytecode.OpMul:
		return arith(left, right, func(a, b int64) (int64, bool) { return mulOverflows(a, b) }, func(a, b float64) float64 { return a * b })
	case bytecode.OpModulo:
		return modulo(left, right)
	case bytecode.OpDiv:
		return trueDiv(left, right)
	case bytecode.OpFloorDiv:
		return floorDiv(left, right)
	case bytecode.OpAnd:
		return Bool(bool(left.(Bool)) && bool(right.(Bool))), nil
	case bytecode.OpOr:
		return Bool(bool(left.(Bool)) || bool(right.(Bool))), nil
	case bytecode.OpEq:
		return equality(left, right, true)
	case bytecode.OpNotEq:
		return equality(left, right, false)
	case bytecode.OpGreater:
		return compare(left, right, func(a, b float64) bool { return a > b }, func(a, b int64) bool { return a > b })
	case bytecode.OpGreaterEq:
		return compare(left, right, func(a, b float64) bool { return a >= b }, func(a, b int64) bool { return a >= b })
	case bytecode.OpLess:
		return compare(left, right, func(a, b float64) bool { return a < b }, func(a, b int64) bool { return a < b })
	case bytecode.OpLessEq:
		return compare(left, right, func(a, b float64) bool { return a <= b }, func(a, b int64) bool { return a <= b })
	default:
		return nil, errors.New("value: BinOp called with a non-binary opcode")
	}
}

func arith(left, right Value, checkedInt func(a, b int64) (int64, bool), real func(a, b float64) float64) (Value, error) {
	kind, ok := classify(left, right)
	if !ok {
		return nil, errors.New("value: operand types not supported for arithmetic")
	}
	switch kind {
	case resultReal:
		return Real(real(takeFloat(left), takeFloat(right))), nil
	case resultInt:
		sum, overflow := checkedInt(takeInt(left), takeInt(right))
		if overflow {
			return nil, ErrOverflow
		}
		return Int(sum), nil
	default:
		return nil, errors.New("value: operand types not supported for arithmetic")
	}
}

func modulo(left, right Value) (Value, error) {
	kind, ok := classify(left, right)
	if !ok {
		return nil, errors.New("value: operand types not supported for modulo")
	}
	if kind == resultReal {
		r := takeFloat(right)
		if r == 0 {
			return nil, ErrModuloByZero
		}
		return Real(math.Mod(takeFloat(left), r)), nil
	}
	r := takeInt(right)
	if r == 0 {
		return nil, ErrModuloByZero
	}
	return Int(takeInt(left) % r), nil
}

func trueDiv(left, right Value) (Value, error) {
	r := takeFloat(right)
	if r == 0 {
		return nil, ErrDivideByZero
	}
	return Real(takeFloat(left) / r), nil
}

func floorDiv(left, right Value) (Value, error) {
	r := takeInt(right)
	if r == 0 {
		return nil, ErrDivideByZero
	}
	l := takeInt(left)
	if l == math.MinInt64 && r == -1 {
		return nil, ErrOverflow
	}
	q := l / r
	if (l%r != 0) && ((l < 0) != (r < 0)) {
		q--
	}
	return Int(q), nil
}

func equality(left, right Value, wantEqual bool) (Value, error) {
	kind, ok := classify(left, right)
	if !ok {
		// None == None and cross-family equality both fall through to a
		// direct comparison; every other combination is rejected by the
		// compiler's type checker before bytecode is ever emitted.
		_, lNone := left.(NoneVal)
		_, rNone := right.(NoneVal)
		if lNone && rNone {
			return Bool(wantEqual), nil
		}
		return nil, errors.New("value: operand types not supported for equality")
	}
	var eq bool
	switch kind {
	case resultInt:
		eq = takeInt(left) == takeInt(right)
	case resultReal:
		eq = takeFloat(left) == takeFloat(right)
	case resultBool:
		eq = bool(left.(Bool)) == bool(right.(Bool))
	case resultStr:
		eq = left.(Str) == right.(Str)
	}
	if !wantEqual {
		eq = !eq
	}
	return Bool(eq), nil
}

func compare(left, right Value, realCmp func(a, b float64) bool, intCmp func(a, b int64) bool) (Value, error) {
	kind, ok := classify(left, right)
	if !ok || kind == resultBool || kind == resultStr {
		return nil, errors.New("value: comparison operators require numeric operands")
	}
	if kind == resultReal {
		return Bool(realCmp(takeFloat(left), takeFloat(right))), nil
	}
	return Bool(intCmp(takeInt(left), takeInt(right))), nil
}

// Invert negates a single numeric value (OpInvert).
func Invert(v Value) (Value, error) {
	switch n := v.(type) {
	case Int:
		if n == math.MinInt64 {
			return nil, ErrOverflow
		}
		return -n, nil
	case Real:
		return -n, nil
	default:
		return nil, errors.New("value: OpInvert requires a numeric operand")
	}
}

// VecIndexCheck validates idx against vec's length, returning the exact
// Portuguese error messages used across the vector builtins and OpIndexGet
// / OpIndexSet.
func VecIndexCheck(v Vector, idx int64) error {
	if idx < 0 {
		return errors.New("Erro de índice inválido. Vectores só podem ser indexados com inteiros positivos")
	}
	if int(idx) >= v.Len() {
		return fmt.Errorf("Erro de índice inválido. O tamanho do vector é %d, mas tentou aceder o índice %d", v.Len(), idx)
	}
	return nil
}
