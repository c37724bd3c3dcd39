package loader

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanda-lang/amanda-vm/pkg/bytecode"
	"github.com/amanda-lang/amanda-vm/pkg/value"
)

// A minimal BSON encoder, the mirror image of bson.go's decoder, used only
// to build fixtures for Load in these tests -- the compiler (out of scope
// here) is the real producer of this format.

func encCString(s string) []byte {
	return append([]byte(s), 0x00)
}

func encString(s string) []byte {
	body := append([]byte(s), 0x00)
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, uint32(len(s)))
	return append(out, body...)
}

func encInt64(n int64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, uint64(n))
	return out
}

func encDouble(f float64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, math.Float64bits(f))
	return out
}

func encBinary(b []byte) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, uint32(len(b)))
	out = append(out, 0x00) // subtype
	return append(out, b...)
}

type field struct {
	key string
	tag byte
	val []byte
}

func encDoc(fields []field) []byte {
	var body []byte
	for _, f := range fields {
		body = append(body, f.tag)
		body = append(body, encCString(f.key)...)
		body = append(body, f.val...)
	}
	body = append(body, 0x00)
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, uint32(len(body)+4))
	return append(out, body...)
}

func encArray(elems [][]byte, tags []byte) []byte {
	fields := make([]field, len(elems))
	for i, e := range elems {
		fields[i] = field{key: itoa(i), tag: tags[i], val: e}
	}
	return encDoc(fields)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

func intArrayField(ns []int64) []byte {
	elems := make([][]byte, len(ns))
	tags := make([]byte, len(ns))
	for i, n := range ns {
		elems[i] = encInt64(n)
		tags[i] = 0x12
	}
	return encArray(elems, tags)
}

func strArrayField(ss []string) []byte {
	elems := make([][]byte, len(ss))
	tags := make([]byte, len(ss))
	for i, s := range ss {
		elems[i] = encString(s)
		tags[i] = 0x02
	}
	return encArray(elems, tags)
}

// buildMinimalContainer assembles a complete container document (with an
// empty functions list) wrapping code against the given int constants
// and names, for exercising Load and the interpreter end-to-end.
func buildMinimalContainer(code []byte, constants []int64, names []string, entryLocals int64, srcMap []int64) []byte {
	constElems := make([][]byte, len(constants))
	constTags := make([]byte, len(constants))
	for i, c := range constants {
		constElems[i] = encInt64(c)
		constTags[i] = 0x12
	}

	doc := encDoc([]field{
		{key: "constants", tag: 0x04, val: encArray(constElems, constTags)},
		{key: "names", tag: 0x04, val: strArrayField(names)},
		{key: "ops", tag: 0x05, val: encBinary(code)},
		{key: "entry_locals", tag: 0x12, val: encInt64(entryLocals)},
		{key: "src_map", tag: 0x04, val: intArrayField(srcMap)},
		{key: "functions", tag: 0x04, val: encArray(nil, nil)},
	})
	return doc
}

func TestLoadMinimalContainer(t *testing.T) {
	code := []byte{
		byte(bytecode.LoadConst), 0, 0,
		byte(bytecode.LoadConst), 0, 1,
		byte(bytecode.OpAdd),
		byte(bytecode.Halt),
	}
	raw := buildMinimalContainer(code, []int64{2, 3}, nil, 0, []int64{0, int64(len(code) - 1), 1})

	mod, err := Load(raw)
	require.NoError(t, err)
	assert.Equal(t, "_main_", mod.Name)
	require.Len(t, mod.Constants, 2)
	assert.Equal(t, value.Int(2), mod.Constants[0])
	assert.Equal(t, value.Int(3), mod.Constants[1])
	assert.Equal(t, "_inicio_", mod.Main.Name)
	assert.Equal(t, 0, mod.Main.Locals)
	assert.Equal(t, 1, mod.OffsetToLine(0))
}
