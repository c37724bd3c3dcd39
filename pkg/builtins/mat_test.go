package builtins

import (
	"math"
	"testing"

	"github.com/amanda-lang/amanda-vm/pkg/value"
)

func callMat(t *testing.T, name string, args ...value.Value) value.Value {
	t.Helper()
	exports := matExports()
	fn, ok := exports[name].(value.NativeFn)
	if !ok {
		t.Fatalf("mat.%s is not a native function", name)
	}
	got, err := fn.Fn(args, nil)
	if err != nil {
		t.Fatalf("mat.%s: unexpected error: %v", name, err)
	}
	return got
}

func TestMatAbs(t *testing.T) {
	if got := callMat(t, "abs", value.Real(-4.5)); got != value.Real(4.5) {
		t.Errorf("abs(-4.5) = %v", got)
	}
}

func TestMatRaizqd(t *testing.T) {
	if got := callMat(t, "raizqd", value.Real(9)); got != value.Real(3) {
		t.Errorf("raizqd(9) = %v", got)
	}
}

func TestMatPisoTeto(t *testing.T) {
	if got := callMat(t, "piso", value.Real(3.7)); got != value.Int(3) {
		t.Errorf("piso(3.7) = %v", got)
	}
	if got := callMat(t, "teto", value.Real(3.2)); got != value.Int(4) {
		t.Errorf("teto(3.2) = %v", got)
	}
}

func TestMatGrausRadRoundTrip(t *testing.T) {
	rad := callMat(t, "grausprad", value.Real(180)).(value.Real)
	if math.Abs(float64(rad)-math.Pi) > 1e-9 {
		t.Errorf("grausprad(180) = %v, want pi", rad)
	}
	deg := callMat(t, "radpgraus", value.Real(math.Pi)).(value.Real)
	if math.Abs(float64(deg)-180) > 1e-9 {
		t.Errorf("radpgraus(pi) = %v, want 180", deg)
	}
}

func TestMatLog(t *testing.T) {
	got := callMat(t, "log", value.Real(8), value.Real(2)).(value.Real)
	if math.Abs(float64(got)-3) > 1e-9 {
		t.Errorf("log(8, 2) = %v, want 3", got)
	}
}
