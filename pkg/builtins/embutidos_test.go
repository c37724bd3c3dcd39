package builtins

import (
	"bytes"
	"strings"
	"testing"

	"github.com/amanda-lang/amanda-vm/pkg/alloc"
	"github.com/amanda-lang/amanda-vm/pkg/value"
)

func TestEscrevaWritesDisplayForm(t *testing.T) {
	var out bytes.Buffer
	r := NewRegistry(&out, strings.NewReader(""))
	if _, err := r.escreva([]value.Value{value.Int(42)}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "42" {
		t.Errorf("escreva wrote %q, want %q", out.String(), "42")
	}
}

func TestEscrevalnAppendsNewline(t *testing.T) {
	var out bytes.Buffer
	r := NewRegistry(&out, strings.NewReader(""))
	if _, err := r.escrevaln([]value.Value{value.Str("oi")}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "oi\n" {
		t.Errorf("escrevaln wrote %q", out.String())
	}
}

func TestLeiaIntParseFailure(t *testing.T) {
	var out bytes.Buffer
	r := NewRegistry(&out, strings.NewReader("não é um número\n"))
	_, err := r.leiaInt([]value.Value{value.Str("")}, nil)
	if err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestLeiaIntSuccess(t *testing.T) {
	var out bytes.Buffer
	r := NewRegistry(&out, strings.NewReader("42\n"))
	got, err := r.leiaInt([]value.Value{value.Str("Idade: ")}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != value.Int(42) {
		t.Fatalf("leia_int = %v, want 42", got)
	}
	if !strings.Contains(out.String(), "Idade: ") {
		t.Errorf("leia_int did not print its prompt, got %q", out.String())
	}
}

func TestTam(t *testing.T) {
	got, err := tam([]value.Value{value.Str("ábc")}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != value.Int(3) {
		t.Fatalf("tam(\"ábc\") = %v, want 3", got)
	}
}

func TestTxtContem(t *testing.T) {
	got, err := txtContem([]value.Value{value.Str("cachorro"), value.Str("cach")}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != value.Bool(true) {
		t.Fatalf("txt_contem = %v, want true", got)
	}
}

func TestVecBuildsZeroedDimensions(t *testing.T) {
	a := alloc.New()
	got, err := vec([]value.Value{value.TypeVal{T: value.TypeInt}, value.Int(3)}, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := got.(value.Vector)
	if v.Len() != 3 {
		t.Fatalf("vec(int, 3).Len() = %d, want 3", v.Len())
	}
	for i := 0; i < 3; i++ {
		if v.Get(i) != value.Int(0) {
			t.Errorf("vec(int, 3)[%d] = %v, want 0", i, v.Get(i))
		}
	}
}

func TestVecAnexaRemova(t *testing.T) {
	a := alloc.New()
	v := value.NewVector(a, []value.Value{value.Int(1), value.Int(2), value.Int(3)})

	if _, err := anexa([]value.Value{v, value.Int(7)}, a); err != nil {
		t.Fatalf("anexa: unexpected error: %v", err)
	}
	if v.Len() != 4 {
		t.Fatalf("after anexa, Len() = %d, want 4", v.Len())
	}

	removed, err := remova([]value.Value{v, value.Int(0)}, a)
	if err != nil {
		t.Fatalf("remova: unexpected error: %v", err)
	}
	if removed != value.Int(1) {
		t.Fatalf("remova returned %v, want 1", removed)
	}
	if v.Len() != 3 {
		t.Fatalf("after remova, Len() = %d, want 3", v.Len())
	}
}

func TestRemovaOutOfRange(t *testing.T) {
	a := alloc.New()
	v := value.NewVector(a, []value.Value{value.Int(1)})
	if _, err := remova([]value.Value{v, value.Int(5)}, a); err == nil {
		t.Fatal("expected an out-of-range error")
	}
}
