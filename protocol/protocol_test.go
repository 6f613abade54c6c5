package protocol

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/bemasher/rtlfob/parse"
)

func bitstreams(values ...string) []parse.Bitstream {
	streams := make([]parse.Bitstream, len(values))
	for idx, v := range values {
		streams[idx] = parse.MustParseBitstream(v)
	}
	return streams
}

func TestCompare(t *testing.T) {
	mask, err := Compare(bitstreams("1100", "1010"))
	require.NoError(t, err)

	assert.Equal(t, "0110", mask.Changing.String())
	assert.Equal(t, "1000", mask.Fixed.String())
	assert.Equal(t, 2, mask.ChangingCount())
}

func TestCompareThree(t *testing.T) {
	// Exclusive or of all three would clear the middle bit.
	mask, err := Compare(bitstreams("1100", "1010", "1000"))
	require.NoError(t, err)

	assert.Equal(t, "0110", mask.Changing.String())
	assert.Equal(t, "1000", mask.Fixed.String())
}

func TestCompareErrors(t *testing.T) {
	_, err := Compare(bitstreams("1100"))
	assert.Equal(t, ErrTooFewPayloads, errors.Cause(err))

	_, err = Compare(bitstreams("1100", "101"))
	assert.Equal(t, ErrLengthMismatch, errors.Cause(err))
}

func TestCompareInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		width := rapid.IntRange(1, 96).Draw(t, "width")
		count := rapid.IntRange(2, 6).Draw(t, "count")

		payloads := make([]parse.Bitstream, count)
		for idx := range payloads {
			bits := rapid.SliceOfN(rapid.Uint8Range(0, 1), width, width).Draw(t, "bits")
			payloads[idx] = parse.Bitstream(bits)
		}

		mask, err := Compare(payloads)
		if err != nil {
			t.Fatal(err)
		}

		for bit := 0; bit < width; bit++ {
			if mask.Fixed[bit]&mask.Changing[bit] != 0 {
				t.Fatalf("bit %d both fixed and changing", bit)
			}

			constant := true
			for _, p := range payloads {
				constant = constant && p[bit] == payloads[0][bit]
			}
			if constant == (mask.Changing[bit] == 1) {
				t.Fatalf("bit %d: constant=%v changing=%d", bit, constant, mask.Changing[bit])
			}
			if constant && mask.Fixed[bit] != payloads[0][bit] {
				t.Fatalf("bit %d: fixed=%d payload=%d", bit, mask.Fixed[bit], payloads[0][bit])
			}
		}
	})
}

func TestDecodeManchester(t *testing.T) {
	assert.Equal(t, "1001", DecodeManchester(parse.MustParseBitstream("01101001")).String())
	assert.Equal(t, "10", DecodeManchester(parse.MustParseBitstream("0111100")).String())
	assert.Empty(t, DecodeManchester(parse.MustParseBitstream("0011")))
}

func TestNormalize(t *testing.T) {
	bits, enc, err := Normalize(parse.MustParseBitstream("01101001"), 4)
	require.NoError(t, err)
	assert.Equal(t, EncodingManchester, enc)
	assert.Equal(t, "1001", bits.String())

	// An invalid pair leaves too few bits.
	raw := parse.MustParseBitstream("01101011")
	bits, enc, err = Normalize(raw, 4)
	assert.Equal(t, ErrManchesterWidth, errors.Cause(err))
	assert.Equal(t, EncodingRaw, enc)
	assert.Equal(t, raw, bits)

	// Not longer than the width, or odd length: untouched.
	bits, enc, err = Normalize(raw, 8)
	require.NoError(t, err)
	assert.Equal(t, EncodingRaw, enc)
	assert.Equal(t, raw, bits)

	_, enc, err = Normalize(parse.MustParseBitstream("0110100"), 3)
	require.NoError(t, err)
	assert.Equal(t, EncodingRaw, enc)
}

func TestEstimatePulseLengths(t *testing.T) {
	pulses := parse.PulseTrain{400, -800, 810, -390, 790, -410, 400, -800, 5}

	lengths, err := EstimatePulseLengths(pulses, DefaultTEDelta)
	require.NoError(t, err)

	assert.InDelta(t, 400, lengths.Short, 15)
	assert.InDelta(t, 800, lengths.Long, 15)

	assert.Equal(t, "0110", DecodePWM(pulses, lengths, DefaultTEDelta).String())
}

func TestEstimatePulseLengthsFailure(t *testing.T) {
	_, err := EstimatePulseLengths(parse.PulseTrain{500, -500, 500}, DefaultTEDelta)
	assert.Equal(t, ErrNoPulseLengths, errors.Cause(err))

	_, err = EstimatePulseLengths(parse.PulseTrain{400, -450, 400, -450}, DefaultTEDelta)
	assert.Equal(t, ErrNoPulseLengths, errors.Cause(err))

	_, err = EstimatePulseLengths(parse.PulseTrain{5, -3}, DefaultTEDelta)
	assert.Equal(t, ErrNoPulseLengths, errors.Cause(err))
}

func TestDecodePWMSkipsMalformed(t *testing.T) {
	lengths := PulseLengths{Short: 400, Long: 800}

	// Low-high pairs and unmatched shapes are skipped.
	pulses := parse.PulseTrain{-400, 800, 400, -400, 800, -400}
	assert.Equal(t, "1", DecodePWM(pulses, lengths, DefaultTEDelta).String())
}

var testLayout = Layout{
	Name:  "test-12",
	Width: 12,
	Fields: []Field{
		{Name: "id", Start: 0, Length: 8},
		{Name: "button", Start: 8, Length: 4},
	},
}

func init() {
	Register(testLayout)
}

func TestLayoutRegistry(t *testing.T) {
	l, err := Lookup("test-12")
	require.NoError(t, err)
	assert.Equal(t, testLayout, l)

	_, err = Lookup("missing")
	assert.Error(t, err)

	assert.Error(t, RegisterLayout(testLayout))
	assert.Panics(t, func() { Register(testLayout) })
	assert.Panics(t, func() { Register(Layout{Name: "bad", Width: 4, Fields: []Field{{"x", 2, 4}}}) })

	layouts := ForWidth(12)
	require.Len(t, layouts, 1)
	assert.Equal(t, "test-12", layouts[0].Name)
}

func TestLayoutApply(t *testing.T) {
	fields, err := testLayout.Apply(parse.MustParseBitstream("101100110110"))
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, FieldValue{"id", parse.MustParseBitstream("10110011"), 0xB3}, fields[0])
	assert.Equal(t, uint64(6), fields[1].Value)

	_, err = testLayout.Apply(parse.MustParseBitstream("1011"))
	assert.Equal(t, ErrLengthMismatch, errors.Cause(err))
}

func TestLoadLayouts(t *testing.T) {
	doc := `
- name: garage-24
  width: 24
  fields:
    - {name: serial, start: 0, length: 20}
    - {name: button, start: 20, length: 4}
`
	layouts, err := LoadLayouts(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, layouts, 1)
	assert.Equal(t, "garage-24", layouts[0].Name)
	assert.Equal(t, Field{"button", 20, 4}, layouts[0].Fields[1])

	_, err = LoadLayouts(strings.NewReader("- name: bad\n  width: 4\n  fields: [{name: x, start: 3, length: 2}]\n"))
	assert.Error(t, err)

	_, err = LoadLayouts(strings.NewReader("name: [unterminated"))
	assert.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	a, err := Analyze(bitstreams("101100110110", "101100111001"), Options{})
	require.NoError(t, err)

	assert.False(t, a.Skipped)
	assert.Equal(t, 2, a.Payloads)
	assert.Equal(t, 12, a.Width)
	assert.Equal(t, "000000001111", a.Mask.Changing.String())
	assert.Equal(t, "test-12", a.Layout)
	require.Len(t, a.Fields, 2)
	assert.Equal(t, uint64(0xB3), a.Fields[0].Value)
}

func TestAnalyzeNoLayout(t *testing.T) {
	a, err := Analyze(bitstreams("1100", "1010"), Options{})
	require.NoError(t, err)

	assert.False(t, a.Skipped)
	assert.Empty(t, a.Layout)
	assert.Empty(t, a.Fields)
}

func TestAnalyzeSkipped(t *testing.T) {
	a, err := Analyze(bitstreams("1100"), Options{})
	require.NoError(t, err)
	assert.True(t, a.Skipped)
	assert.NotEmpty(t, a.Reason)

	a, err = Analyze(bitstreams("1100", "10100"), Options{})
	require.NoError(t, err)
	assert.True(t, a.Skipped)

	_, err = Analyze(bitstreams("1100", "1010"), Options{Layout: "missing"})
	assert.Error(t, err)
}

func TestAnalyzeLayoutMismatch(t *testing.T) {
	a, err := Analyze(bitstreams("1100", "1010"), Options{Layout: "test-12"})
	require.NoError(t, err)
	assert.False(t, a.Skipped)
	assert.Empty(t, a.Fields)
	assert.NotEmpty(t, a.Reason)
}
