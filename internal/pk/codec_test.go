package pk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeUnknownTagPanics(t *testing.T) {
	data := []byte{99}
	assert.Panics(t, func() {
		decodeValue(data)
	})
}

func TestSkipUnknownTagPanics(t *testing.T) {
	data := []byte{99}
	assert.Panics(t, func() {
		skipValue(data)
	})
}

func TestBlobDecodeCopiesBackingArray(t *testing.T) {
	original := []byte{1, 2, 3}
	k := MustEncode([]Value{Blob(original)})
	original[0] = 0xFF

	v, _ := k.Get(0)
	assert.Equal(t, Blob([]byte{1, 2, 3}), v)

	v.(Blob)[1] = 0xFF
	again, _ := k.Get(0)
	assert.Equal(t, Blob([]byte{1, 2, 3}), again)
}
