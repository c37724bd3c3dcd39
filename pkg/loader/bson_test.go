package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These fixtures document the exact wire encoding of one field kind the
// compiler emits. The leading 4-byte length prefix is dropped before
// decoding, matching decodeContainer's framing.

func decodeTestDoc(raw []byte) []bsonEntry {
	c := &cursor{buf: raw[4:], pos: 0}
	return c.decodeDocument()
}

func TestDecodeStringField(t *testing.T) {
	// { "name": "João Boris" }
	raw := []byte{
		22, 0, 0, 0, 2, 110, 97, 109, 101, 0, 11, 0, 0, 0, 74, 111, 195, 163, 111, 32, 66, 111,
		114, 105, 115, 0, 0,
	}
	doc := decodeTestDoc(raw)
	v, ok := findField(doc, "name")
	require.True(t, ok, "expected a \"name\" field")
	assert.Equal(t, "João Boris", asString(v))
}

func TestDecodeDoubleField(t *testing.T) {
	// { "credit": 100.50 }
	raw := []byte{
		16, 0, 0, 0, 1, 99, 114, 101, 100, 105, 116, 0, 0, 0, 0, 0, 0, 32, 89, 64, 0,
	}
	doc := decodeTestDoc(raw)
	v, ok := findField(doc, "credit")
	require.True(t, ok, "expected a \"credit\" field")
	assert.Equal(t, 100.50, v.(float64))
}

func TestDecodeInt64Field(t *testing.T) {
	// { "age": 100 }
	raw := []byte{
		13, 0, 0, 0, 18, 97, 103, 101, 0, 100, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	doc := decodeTestDoc(raw)
	v, ok := findField(doc, "age")
	require.True(t, ok, "expected an \"age\" field")
	assert.Equal(t, int64(100), asInt64(v))
}

func TestDecodeBinaryField(t *testing.T) {
	// { "bytes": [0, 1, 1, 2, 3, 255] }
	raw := []byte{
		18, 0, 0, 0, 5, 98, 121, 116, 101, 115, 0, 6, 0, 0, 0, 128, 0, 1, 1, 2, 3, 255, 0,
	}
	doc := decodeTestDoc(raw)
	v, ok := findField(doc, "bytes")
	require.True(t, ok, "expected a \"bytes\" field")
	assert.Equal(t, []byte{0, 1, 1, 2, 3, 255}, asBytes(v))
}

func TestDecodeArrayField(t *testing.T) {
	// { "names": ["João Boris", "Some other dude"] }
	raw := []byte{
		54, 0, 0, 0, 4, 110, 97, 109, 101, 115, 0, 42, 0, 0, 0, 2, 48, 0, 11, 0, 0, 0, 74, 111,
		195, 163, 111, 32, 66, 111, 114, 105, 115, 0, 2, 49, 0, 15, 0, 0, 0, 83, 111, 109, 101,
		32, 111, 116, 104, 101, 114, 32, 100, 117, 100, 101, 0, 0, 0,
	}
	doc := decodeTestDoc(raw)
	v, ok := findField(doc, "names")
	require.True(t, ok, "expected a \"names\" field")
	arr := asArray(v)
	require.Len(t, arr, 2)
	assert.Equal(t, "João Boris", asString(arr[0]))
	assert.Equal(t, "Some other dude", asString(arr[1]))
}

func TestDecodeEmbeddedDocField(t *testing.T) {
	// { "user": {"name": "João Boris", "age": 28, "balance": 1000.52} }
	raw := []byte{
		63, 0, 0, 0, 3, 117, 115, 101, 114, 0, 52, 0, 0, 0, 2, 110, 97, 109, 101, 0, 11, 0, 0,
		0, 74, 111, 195, 163, 111, 32, 66, 111, 114, 105, 115, 0, 18, 97, 103, 101, 0, 28, 0,
		0, 0, 0, 0, 0, 0, 1, 98, 97, 108, 97, 110, 99, 101, 0, 92, 143, 194, 245, 40, 68, 143,
		64, 0, 0,
	}
	doc := decodeTestDoc(raw)
	v, ok := findField(doc, "user")
	require.True(t, ok, "expected a \"user\" field")
	nested := asDoc(v)

	name, _ := findField(nested, "name")
	age, _ := findField(nested, "age")
	balance, _ := findField(nested, "balance")
	assert.Equal(t, "João Boris", asString(name))
	assert.Equal(t, int64(28), asInt64(age))
	assert.Equal(t, 1000.52, balance.(float64))
}
