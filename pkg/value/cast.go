package value

import (
	"fmt"
	"strconv"
)

// Cast implements the Cast opcode's mode=0 (coercion) behavior: convert v
// to target. The compiler is assumed to only emit coercions it has
// already type-checked as legal; combinations outside the table below
// are a fatal invariant violation (panic), not a recoverable runtime
// error.
func Cast(v Value, target Type) (Value, error) {
	if GetType(v) == target {
		return v, nil
	}
	switch target {
	case TypeTexto:
		return Str(Display(v)), nil
	case TypeInt:
		switch x := v.(type) {
		case Real:
			return Int(int64(x)), nil
		case Str:
			n, err := strconv.ParseInt(string(x), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("A sequência de caracteres '%s' não é um inteiro válido", string(x))
			}
			return Int(n), nil
		default:
			panic(fmt.Sprintf("value: Cast to Int from unsupported %T", v))
		}
	case TypeReal:
		switch x := v.(type) {
		case Int:
			return Real(float64(x)), nil
		case Str:
			f, err := strconv.ParseFloat(string(x), 64)
			if err != nil {
				return nil, fmt.Errorf("A sequência de caracteres '%s' não é um número real válido", string(x))
			}
			return Real(f), nil
		default:
			panic(fmt.Sprintf("value: Cast to Real from unsupported %T", v))
		}
	case TypeBool:
		switch x := v.(type) {
		case Int:
			return Bool(x != 0), nil
		case Real:
			return Bool(x != 0), nil
		case Str:
			return Bool(x != ""), nil
		default:
			panic(fmt.Sprintf("value: Cast to Bool from unsupported %T", v))
		}
	default:
		panic(fmt.Sprintf("value: fraudulent cast to %v", target))
	}
}

// CheckCast implements the Cast opcode's mode=1 (runtime type check)
// behavior.
func CheckCast(v Value, target Type) (Value, error) {
	actual := GetType(v)
	if actual != target {
		return nil, fmt.Errorf("Conversão inválida. O tipo original do valor é '%s', mas tentou converter o valor para o tipo '%s'", actual.Name(), target.Name())
	}
	return v, nil
}
