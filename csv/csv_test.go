package csv

import (
	"bytes"
	"encoding/csv"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/xerrors"
)

func TestRecorderNil(t *testing.T) {
	buf := &bytes.Buffer{}
	enc := Encoder{w: csv.NewWriter(buf)}

	if err := enc.Encode(nil); err == nil {
		t.Fatalf("%+v\n", err)
	}
}

type Msg struct{}

func (m Msg) Record() []string {
	return []string{}
}

func TestRecorder(t *testing.T) {
	buf := &bytes.Buffer{}
	enc := Encoder{w: csv.NewWriter(buf)}

	if err := enc.Encode(Msg{}); err != nil {
		t.Fatalf("%+v\n", err)
	}
}

type NonRecorder struct{}

func TestNonRecorder(t *testing.T) {
	buf := &bytes.Buffer{}
	enc := Encoder{w: csv.NewWriter(buf)}

	err := enc.Encode(NonRecorder{})

	var runtimeErr runtime.Error
	if !xerrors.As(err, &runtimeErr) {
		t.Fatalf("%+v\n", runtimeErr)
	}
}

type press struct {
	idx  string
	bits string
}

func (p press) Header() []string {
	return []string{"press", "bits"}
}

func (p press) Record() []string {
	return []string{p.idx, p.bits}
}

func TestHeaderOnce(t *testing.T) {
	buf := &bytes.Buffer{}
	enc := NewEncoder(buf)

	assert.NoError(t, enc.Encode(press{"0", "1100"}))
	assert.NoError(t, enc.Encode(press{"1", "1010"}))

	assert.Equal(t, "press,bits\n0,1100\n1,1010\n", buf.String())
}
