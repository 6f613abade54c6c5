package preamble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bemasher/rtlfob/parse"
)

func TestNewFinder(t *testing.T) {
	_, err := NewFinder("", 8)
	assert.Error(t, err)

	_, err = NewFinder("0102", 8)
	assert.Error(t, err)

	_, err = NewFinder("0101", 0)
	assert.Error(t, err)

	f, err := NewFinder("0101", 8)
	require.NoError(t, err)
	assert.Equal(t, "0101", f.Preamble.String())
}

func TestSearch(t *testing.T) {
	f, err := NewFinder("0101", 4)
	require.NoError(t, err)

	indexes := f.Search(parse.MustParseBitstream("0010101100101"))
	assert.Equal(t, []int{1, 3, 9}, indexes)
}

func TestPayloads(t *testing.T) {
	f, err := NewFinder("0101", 4)
	require.NoError(t, err)

	bits := parse.MustParseBitstream("11" + "0101" + "1110" + "0101" + "0011" + "0" + "0101" + "01")
	payloads := f.Payloads(bits)

	require.Len(t, payloads, 2)
	assert.Equal(t, Payload{6, parse.MustParseBitstream("1110")}, payloads[0])
	assert.Equal(t, Payload{14, parse.MustParseBitstream("0011")}, payloads[1])
}

func TestPayloadsDoNotOverlap(t *testing.T) {
	f, err := NewFinder("11", 3)
	require.NoError(t, err)

	payloads := f.Payloads(parse.MustParseBitstream("11110111"))
	require.Len(t, payloads, 1)
	assert.Equal(t, "110", payloads[0].Bits.String())
}

func TestPayloadsNone(t *testing.T) {
	f, err := NewFinder("1111", 8)
	require.NoError(t, err)

	assert.Empty(t, f.Payloads(parse.MustParseBitstream("0101010101")))
	assert.Empty(t, f.Payloads(nil))
}
