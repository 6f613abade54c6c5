package keeloq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bemasher/rtlfob/parse"
	"github.com/bemasher/rtlfob/protocol"
)

func TestRegistered(t *testing.T) {
	l, err := protocol.Lookup("keeloq")
	require.NoError(t, err)
	assert.Equal(t, Layout, l)

	layouts := protocol.ForWidth(PayloadBits)
	require.GreaterOrEqual(t, len(layouts), 2)
	assert.Equal(t, "keeloq", layouts[0].Name)
	assert.Equal(t, "keeloq-status44", layouts[1].Name)
}

func TestApply(t *testing.T) {
	payload := parse.MustParseBitstream(
		strings.Repeat("1", 28) + strings.Repeat("0", 15) + "1" + "1010" + strings.Repeat("0", 12) + "0110",
	)

	fields, err := Layout.Apply(payload)
	require.NoError(t, err)
	require.Len(t, fields, 3)

	assert.Equal(t, "fixed_id", fields[0].Name)
	assert.Equal(t, uint64(0xFFFFFFF), fields[0].Value)
	assert.Equal(t, uint64(1), fields[1].Value)
	assert.Equal(t, "0110", fields[2].Bits.String())

	fields, err = CompactLayout.Apply(payload)
	require.NoError(t, err)
	assert.Equal(t, "1010", fields[2].Bits.String())
}

func TestAnalyzeSelectsLayout(t *testing.T) {
	a := parse.MustParseBitstream(strings.Repeat("1100", 16))
	b := parse.MustParseBitstream(strings.Repeat("1100", 7) + strings.Repeat("0011", 9))

	analysis, err := protocol.Analyze([]parse.Bitstream{a, b}, protocol.Options{})
	require.NoError(t, err)

	assert.False(t, analysis.Skipped)
	assert.Equal(t, "keeloq", analysis.Layout)
	assert.Equal(t, 64, analysis.Width)
	assert.Equal(t, 36, analysis.Mask.ChangingCount())

	analysis, err = protocol.Analyze([]parse.Bitstream{a, b}, protocol.Options{Layout: "keeloq-status44"})
	require.NoError(t, err)
	assert.Equal(t, "keeloq-status44", analysis.Layout)
}
