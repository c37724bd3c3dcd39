package builtins

import (
	"math"

	"github.com/amanda-lang/amanda-vm/pkg/alloc"
	"github.com/amanda-lang/amanda-vm/pkg/value"
)

// matExports builds the "mat" module's export table: trigonometric,
// rounding and exponential functions operating on real numbers, plus the
// PI constant.
func matExports() map[string]value.Value {
	return map[string]value.Value{
		"PI": value.Real(math.Pi),

		"abs":       native("abs", matAbs),
		"expoente":  native("expoente", matExpoente),
		"raizqd":    native("raizqd", matRaizqd),
		"arredonda": native("arredonda", matArredonda),
		"piso":      native("piso", matPiso),
		"teto":      native("teto", matTeto),
		"sen":       native("sen", matSen),
		"cos":       native("cos", matCos),
		"tan":       native("tan", matTan),
		"log":       native("log", matLog),
		"grausprad": native("grausprad", matGrausprad),
		"radpgraus": native("radpgraus", matRadpgraus),
	}
}

func takeReal(v value.Value) float64 {
	switch x := v.(type) {
	case value.Real:
		return float64(x)
	case value.Int:
		return float64(x)
	default:
		panic("builtins: mat function called with non-numeric argument")
	}
}

func matAbs(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	return value.Real(math.Abs(takeReal(args[0]))), nil
}

func matExpoente(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	base := takeReal(args[0])
	exp := takeReal(args[1])
	return value.Real(math.Pow(base, exp)), nil
}

func matRaizqd(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	return value.Real(math.Sqrt(takeReal(args[0]))), nil
}

func matArredonda(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	return value.Int(int64(math.Round(takeReal(args[0])))), nil
}

func matPiso(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	return value.Int(int64(math.Floor(takeReal(args[0])))), nil
}

func matTeto(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	return value.Int(int64(math.Ceil(takeReal(args[0])))), nil
}

func matSen(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	return value.Real(math.Sin(takeReal(args[0]))), nil
}

func matCos(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	return value.Real(math.Cos(takeReal(args[0]))), nil
}

func matTan(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	return value.Real(math.Tan(takeReal(args[0]))), nil
}

// matLog mirrors amanda's two-argument log(number, base): the logarithm
// of number in the given base, via the change-of-base identity.
func matLog(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	number := takeReal(args[0])
	base := takeReal(args[1])
	return value.Real(math.Log(number) / math.Log(base)), nil
}

func matGrausprad(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	degrees := takeReal(args[0])
	return value.Real(degrees * math.Pi / 180), nil
}

func matRadpgraus(args []value.Value, _ *alloc.Allocator) (value.Value, error) {
	rad := takeReal(args[0])
	return value.Real(rad * 180 / math.Pi), nil
}
